package main

import "time"

// RunPhase is the lifecycle of a single run
type RunPhase int

const (
	PhaseRunning  RunPhase = 0
	PhaseGameOver RunPhase = 1
)

// RunDifficulty selects a field density preset
type RunDifficulty int

const (
	DifficultyCruise   RunDifficulty = 0
	DifficultyStandard RunDifficulty = 1
	DifficultyHyper    RunDifficulty = 2
)

// RunConfig holds settings for a run
type RunConfig struct {
	Difficulty    RunDifficulty
	AsteroidCount int
	StarCount     int
	HoleChance    float64
	Class         CraftClass
}

// DefaultRunConfig returns the preset for the given difficulty
func DefaultRunConfig(d RunDifficulty) RunConfig {
	switch d {
	case DifficultyCruise:
		return RunConfig{
			Difficulty:    DifficultyCruise,
			AsteroidCount: 8,
			StarCount:     StarBaseCount,
			HoleChance:    0.5,
		}
	case DifficultyHyper:
		return RunConfig{
			Difficulty:    DifficultyHyper,
			AsteroidCount: 20,
			StarCount:     StarBaseCount,
			HoleChance:    0.2,
		}
	default:
		return RunConfig{
			Difficulty:    DifficultyStandard,
			AsteroidCount: 14,
			StarCount:     StarBaseCount,
			HoleChance:    AsteroidHoleChance,
		}
	}
}

// RunStats accumulates per-run numbers, frozen at game over and persisted
// into the runs table
type RunStats struct {
	StartedAt       time.Time
	Duration        float64 // seconds
	Bonuses         int     // fuel bonuses collected
	FuelGained      float64
	MaxSpeed        float64
	AfterburnerTime float64 // seconds with afterburner engaged
}

// NewRunStats starts the clock for a fresh run
func NewRunStats(now time.Time) RunStats {
	return RunStats{StartedAt: now}
}
