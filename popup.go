package main

import "time"

const (
	PopupHold     = 600 * time.Millisecond // fully visible
	PopupFade     = 900 * time.Millisecond // fade-out window after the hold
	PopupFloat    = 46.0                   // px drifted upward over the lifetime
	PopupCraftMix = 0.75                   // position weight toward the craft
)

// FuelPopup is transient feedback for a collected bonus. It is not part of
// simulation truth; aging is wall-clock driven so popups fade in real time
// regardless of tick rate.
type FuelPopup struct {
	ID        string
	X, Y      float64
	InitialY  float64
	Amount    float64
	Opacity   float64
	CreatedAt time.Time
}

// NewFuelPopup places a popup between the craft and the asteroid, weighted
// toward the craft for legibility
func NewFuelPopup(craftX, craftY, asteroidX, asteroidY, amount float64, now time.Time) *FuelPopup {
	x := craftX*PopupCraftMix + asteroidX*(1-PopupCraftMix)
	y := craftY*PopupCraftMix + asteroidY*(1-PopupCraftMix)
	return &FuelPopup{ID: GenerateID(3), X: x, Y: y, InitialY: y, Amount: amount, Opacity: 1, CreatedAt: now}
}

// Age updates position and opacity for the given instant and reports whether
// the popup has fully faded and should be removed
func (p *FuelPopup) Age(now time.Time) bool {
	elapsed := now.Sub(p.CreatedAt)
	total := PopupHold + PopupFade
	t := Clamp(float64(elapsed)/float64(total), 0, 1)
	p.Y = p.InitialY - PopupFloat*t

	if elapsed <= PopupHold {
		p.Opacity = 1
		return false
	}
	fade := float64(elapsed-PopupHold) / float64(PopupFade)
	p.Opacity = Clamp(1-fade, 0, 1)
	return p.Opacity <= 0
}
