package main

import "time"

const (
	StarMinDepthFrac = 0.2 // spawn depth band, fraction of MaxDepth
	StarDepthRate    = 2.4 // z units removed per second at speed 1
	StarMaxStep      = 6.0 // cap on z decrement per second at extreme speeds
	StarFadeRate     = 1.5 // opacity gained per second
	StarMargin       = 8.0 // off-screen recycle margin, pixels

	StarBaseCount     = 140
	StarPerSpeed      = 120.0 // extra stars per unit of game speed
	StarCountJitter   = 25
	StarMinCount      = 60
	StarMaxCount      = 420
	StarRecensusEvery = 3 * time.Second
)

// Star is a background particle. PrevX/PrevY hold last tick's projection for
// the renderer's warp-trail effect; HasPrev is false right after a recycle
// so a fresh star never draws a trail from its old position.
type Star struct {
	X, Y, Z float64
	Size    float64
	Speed   float64
	Opacity float64

	HasPrev      bool
	PrevX, PrevY float64
}

// Starfield owns the background particle set
type Starfield struct {
	stars      []*Star
	vp         Viewport
	lastCensus time.Time
}

// NewStarfield populates count stars at random screen origins back-projected
// into the spawn depth band
func NewStarfield(count int, vp Viewport, now time.Time) *Starfield {
	f := &Starfield{vp: vp, lastCensus: now}
	f.populate(count)
	return f
}

func (f *Starfield) populate(count int) {
	f.stars = make([]*Star, count)
	for i := range f.stars {
		s := &Star{}
		f.spawn(s, randRange(StarMinDepthFrac*MaxDepth, MaxDepth))
		// Fields start visible so a fresh field doesn't fade in as a block
		s.Opacity = randFloat()
		f.stars[i] = s
	}
}

// spawn places a star at a random screen position back-projected to depth z
func (f *Starfield) spawn(s *Star, z float64) {
	p := BackProject(randFloat()*f.vp.Width, randFloat()*f.vp.Height, z, f.vp)
	s.X, s.Y, s.Z = p.X, p.Y, p.Z
	s.Size = randRange(0.5, 2.0)
	s.Speed = randRange(0.5, 1.5)
	s.Opacity = 0
	s.HasPrev = false
	s.PrevX, s.PrevY = 0, 0
}

// recycle resets a star to the far plane with fresh randomization
func (f *Starfield) recycle(s *Star) {
	f.spawn(s, MaxDepth)
}

// Advance moves every star toward the camera and recycles the ones that
// passed it or left the screen
func (f *Starfield) Advance(dt, shipSpeed float64) {
	for _, s := range f.stars {
		if prev, ok := Project(Vector3{s.X, s.Y, s.Z}, f.vp); ok {
			s.PrevX, s.PrevY = prev.X, prev.Y
			s.HasPrev = true
		}

		step := shipSpeed * s.Speed * StarDepthRate
		if step > StarMaxStep {
			step = StarMaxStep
		}
		s.Z -= step * dt

		s.Opacity = Clamp(s.Opacity+StarFadeRate*dt, 0, 1)

		if s.Z < NearPlane {
			f.recycle(s)
			continue
		}
		if p, ok := Project(Vector3{s.X, s.Y, s.Z}, f.vp); !ok || !f.vp.Contains(p, StarMargin) {
			f.recycle(s)
		}
	}
}

// starTargetCount derives the census target from current speed plus bounded
// randomness; the exact formula is tuning, not contract
func starTargetCount(speed float64) int {
	n := StarBaseCount + int(speed*StarPerSpeed) + randIntn(2*StarCountJitter+1) - StarCountJitter
	if n < StarMinCount {
		n = StarMinCount
	}
	if n > StarMaxCount {
		n = StarMaxCount
	}
	return n
}

// Recensus periodically recomputes the target star count and reinitializes
// the field when it changes. Wall-clock gated so the cadence is independent
// of game speed.
func (f *Starfield) Recensus(now time.Time, speed float64) {
	if now.Sub(f.lastCensus) < StarRecensusEvery {
		return
	}
	f.lastCensus = now
	if target := starTargetCount(speed); target != len(f.stars) {
		f.populate(target)
	}
}

// Resize updates the viewport used for projection and recycling. Camera-space
// star positions are resolution independent and stay put.
func (f *Starfield) Resize(vp Viewport) {
	f.vp = vp
}

// Count returns the current number of stars
func (f *Starfield) Count() int {
	return len(f.stars)
}
