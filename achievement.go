package main

// AchievementDef describes one unlockable achievement
type AchievementDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc"`
}

var Achievements = []AchievementDef{
	{"first_flight", "First Flight", "Finish your first run"},
	{"scorer_1k", "Lane Runner", "Score 1,000 in a single run"},
	{"scorer_10k", "Lane Master", "Score 10,000 in a single run"},
	{"close_call", "Close Call", "Collect 5 fuel bonuses in one run"},
	{"skimmer", "Skimmer", "Collect 15 fuel bonuses in one run"},
	{"endurance", "Endurance", "Survive for 3 minutes in one run"},
	{"burner", "Burner", "Spend 30 seconds on the afterburner in one run"},
	{"velocity", "Terminal Velocity", "Reach double the starting speed"},
	{"frequent_flyer", "Frequent Flyer", "Complete 25 runs"},
	{"veteran", "Veteran", "Accumulate 1 hour of flight time"},
}

// CheckAchievements evaluates achievements at game over and returns the
// newly unlocked ones
func CheckAchievements(db *DB, pilotID int64, score int, stats RunStats) []AchievementDef {
	if db == nil || pilotID == 0 {
		return nil
	}

	totals, err := db.GetPilotTotals(pilotID)
	if err != nil {
		return nil
	}

	existing, err := db.GetAchievements(pilotID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_flight":
			return true
		case "scorer_1k":
			return score >= 1000
		case "scorer_10k":
			return score >= 10000
		case "close_call":
			return stats.Bonuses >= 5
		case "skimmer":
			return stats.Bonuses >= 15
		case "endurance":
			return stats.Duration >= 180
		case "burner":
			return stats.AfterburnerTime >= 30
		case "velocity":
			return stats.MaxSpeed >= SpeedInitial*2
		case "frequent_flyer":
			return totals.Runs >= 25
		case "veteran":
			return totals.Playtime >= 3600
		}
		return false
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(pilotID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}
	return unlocked
}
