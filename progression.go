package main

const (
	MaxFuel              = 100.0
	FuelDrainRate        = 3.2 // units/s, engines idle
	FuelDrainAfterburner = 9.6 // units/s with afterburner engaged

	SpeedInitial   = 0.05
	SpeedIncrement = 0.018 // per second, before the accelerator multiplier

	AccelRampPerSec = 1.1 // multiplier gained per second while spooling
	AccelCap        = 2.6

	ScoreBase        = 12.0 // points/s at zero speed
	ScoreSpeedFactor = 45.0 // extra points/s per unit of speed

	BonusMaxRadius = 140.0 // px, proximity at which a bonus becomes possible
	BonusMinRadius = 40.0  // px, proximity for the maximum bonus
	MinFuelBonus   = 6.0
	MaxFuelBonus   = 24.0
)

// Accelerator is the afterburner spool state. Spooling up is gradual;
// release resets to exactly 1 on the next tick with no decay ramp.
type Accelerator struct {
	Multiplier float64
	cap        float64
}

// NewAccelerator starts at the neutral multiplier
func NewAccelerator() Accelerator {
	return Accelerator{Multiplier: 1, cap: AccelCap}
}

// Update ramps toward the cap while engaged with fuel available, otherwise
// snaps back to 1 immediately
func (a *Accelerator) Update(engaged bool, fuel, dt float64) {
	if engaged && fuel > 0 {
		a.Multiplier += AccelRampPerSec * dt
		if a.Multiplier > a.cap {
			a.Multiplier = a.cap
		}
	} else {
		a.Multiplier = 1
	}
}

// Progression holds the derived resource economy: speed, score, fuel and the
// afterburner accelerator
type Progression struct {
	Speed       float64
	Score       float64
	Fuel        float64
	Afterburner bool
	Accel       Accelerator
	GameOver    bool

	maxFuel  float64
	drainMul float64
}

// NewProgression initializes the economy for a craft class
func NewProgression(def CraftClassDef) Progression {
	p := Progression{
		Speed:    SpeedInitial,
		Fuel:     MaxFuel * def.TankMul,
		Accel:    NewAccelerator(),
		maxFuel:  MaxFuel * def.TankMul,
		drainMul: def.DrainMul,
	}
	p.Accel.cap = AccelCap * def.AccelCapMul
	return p
}

// MaxTank returns the fuel ceiling for this run
func (p *Progression) MaxTank() float64 {
	return p.maxFuel
}

// Tick advances fuel, the accelerator, speed and score for one tick while
// the run is live. Order matters: drain, spool, then gains gated on fuel.
func (p *Progression) Tick(dt float64, afterburner bool) {
	if p.GameOver {
		return
	}
	p.Afterburner = afterburner && p.Fuel > 0

	drain := FuelDrainRate
	if p.Afterburner {
		drain = FuelDrainAfterburner
	}
	p.Fuel -= drain * p.drainMul * dt
	if p.Fuel < 0 {
		p.Fuel = 0
	}

	p.Accel.Update(p.Afterburner, p.Fuel, dt)

	if p.Fuel > 0 {
		p.Speed += SpeedIncrement * p.Accel.Multiplier * dt
		gain := (ScoreBase + p.Speed*ScoreSpeedFactor) * dt
		if p.Afterburner {
			gain *= 2
		}
		p.Score += gain
	}
}

// AddFuel credits a proximity bonus, clamped to the tank ceiling
func (p *Progression) AddFuel(amount float64) {
	p.Fuel = Clamp(p.Fuel+amount, 0, p.maxFuel)
}

// BonusForDistance maps a proximity distance to a fuel amount, growing
// linearly as the pass gets closer
func BonusForDistance(dist float64) float64 {
	t := Clamp((BonusMaxRadius-dist)/(BonusMaxRadius-BonusMinRadius), 0, 1)
	return Lerp(MinFuelBonus, MaxFuelBonus, t)
}
