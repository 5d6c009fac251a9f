package main

import "math"

const (
	AsteroidMinDepthFrac = 0.55 // spawn band, fraction of MaxDepth
	AsteroidMaxDepthFrac = 1.0
	AsteroidVisibleZ     = 2.0 // fully opaque once nearer than this
	AsteroidSolidOpacity = 0.5 // minimum opacity before a rock is collidable
	AsteroidDepthRate    = 1.0 // z units removed per second at speed 1
	AsteroidMargin       = 160.0

	AsteroidMinSize  = 0.35 // base radius, camera units
	AsteroidMaxSize  = 0.95
	AsteroidMinVerts = 10
	AsteroidMaxVerts = 16
	AsteroidMinSpeed = 0.75
	AsteroidMaxSpeed = 1.35
	AsteroidSpinMin  = 0.2 // radians/s
	AsteroidSpinMax  = 1.2

	// Optional pass-through holes. Zero disables hole geometry entirely.
	AsteroidHoleChance   = 0.35
	AsteroidHoleFrac     = 0.34 // hole radius as fraction of base size
	AsteroidHoleVerts    = 9
	AsteroidHoleOffFrac  = 0.3 // max hole center offset from asteroid center
)

// Asteroid is an irregular rotating polygon flying toward the camera.
// Outer (and the optional Hole contour) are camera-space offsets from the
// center; the collision engine and the renderer apply the same screen
// transform to them. BonusAwarded is the one-shot fuel-bonus latch, cleared
// on recycle.
type Asteroid struct {
	X, Y, Z  float64
	Size     float64
	Speed    float64
	Outer    []Vector2
	Hole     []Vector2
	Color    string
	Rotation float64
	Spin     float64
	Opacity  float64

	SpawnZ       float64
	BonusAwarded bool
}

// AsteroidField owns a fixed-size set of recycled asteroids
type AsteroidField struct {
	asteroids  []*Asteroid
	vp         Viewport
	holeChance float64
}

// NewAsteroidField generates count asteroids spread across the spawn band
func NewAsteroidField(count int, vp Viewport, holeChance float64) *AsteroidField {
	f := &AsteroidField{vp: vp, holeChance: holeChance}
	f.asteroids = make([]*Asteroid, count)
	for i := range f.asteroids {
		a := &Asteroid{}
		f.generate(a)
		f.asteroids[i] = a
	}
	return f
}

// generateOutline builds a closed ring of n points whose radii jitter around
// base with smooth multi-term sinusoidal noise, giving irregular but
// non-self-intersecting outlines
func generateOutline(n int, base float64) []Vector2 {
	phase1 := randFloat() * 2 * math.Pi
	phase2 := randFloat() * 2 * math.Pi
	pts := make([]Vector2, n)
	for i := 0; i < n; i++ {
		theta := float64(i) / float64(n) * 2 * math.Pi
		r := base * (1 +
			0.22*math.Sin(3*theta+phase1) +
			0.14*math.Sin(7*theta+phase2) +
			0.12*(randFloat()-0.5))
		r = Clamp(r, base*0.5, base*1.5)
		pts[i] = Vector2{X: math.Cos(theta) * r, Y: math.Sin(theta) * r}
	}
	return pts
}

// generate (re)randomizes an asteroid in place: fresh depth, screen origin,
// outline, color, spin and cleared latches
func (f *AsteroidField) generate(a *Asteroid) {
	z := randRange(AsteroidMinDepthFrac*MaxDepth, AsteroidMaxDepthFrac*MaxDepth)
	p := BackProject(randFloat()*f.vp.Width, randFloat()*f.vp.Height, z, f.vp)
	a.X, a.Y, a.Z = p.X, p.Y, p.Z
	a.SpawnZ = z
	a.Size = randRange(AsteroidMinSize, AsteroidMaxSize)
	a.Speed = randRange(AsteroidMinSpeed, AsteroidMaxSpeed)
	a.Outer = generateOutline(AsteroidMinVerts+randIntn(AsteroidMaxVerts-AsteroidMinVerts+1), a.Size)

	a.Hole = nil
	if randFloat() < f.holeChance {
		hole := generateOutline(AsteroidHoleVerts, a.Size*AsteroidHoleFrac)
		off := a.Size * AsteroidHoleOffFrac
		dx := randRange(-off, off)
		dy := randRange(-off, off)
		for i := range hole {
			hole[i].X += dx
			hole[i].Y += dy
		}
		a.Hole = hole
	}

	// Narrow brown/gray band
	a.Color = hslToHex(randRange(20, 40), randRange(0.08, 0.35), randRange(0.25, 0.55))
	a.Rotation = randFloat() * 2 * math.Pi
	a.Spin = randSign() * randRange(AsteroidSpinMin, AsteroidSpinMax)
	a.Opacity = 0
	a.BonusAwarded = false
}

// Advance moves every asteroid toward the camera, spins it, eases its
// opacity in, and regenerates the ones that passed the camera or left the
// screen. Recycling fully re-randomizes shape, color and spin so repeated
// pass-throughs never look repetitive.
func (f *AsteroidField) Advance(dt, shipSpeed float64) {
	for _, a := range f.asteroids {
		a.Z -= shipSpeed * a.Speed * AsteroidDepthRate * dt
		a.Rotation += a.Spin * dt

		// Quadratic ease-in between spawn depth and the visible threshold
		if a.Z <= AsteroidVisibleZ {
			a.Opacity = 1
		} else {
			span := a.SpawnZ - AsteroidVisibleZ
			if span <= 0 {
				a.Opacity = 1
			} else {
				t := Clamp((a.SpawnZ-a.Z)/span, 0, 1)
				a.Opacity = t * t
			}
		}

		if a.Z < NearPlane {
			f.generate(a)
			continue
		}
		if p, ok := Project(Vector3{a.X, a.Y, a.Z}, f.vp); !ok || !f.vp.Contains(p, AsteroidMargin) {
			f.generate(a)
		}
	}
}

// Regenerate re-randomizes every asteroid, used on run restart so no latch
// or shape bleeds across runs
func (f *AsteroidField) Regenerate() {
	for _, a := range f.asteroids {
		f.generate(a)
	}
}

// Resize updates the viewport used for spawning and recycling
func (f *AsteroidField) Resize(vp Viewport) {
	f.vp = vp
}

// Visible reports whether an asteroid participates in collision and
// proximity this tick: in front of the near plane, not yet past the far
// depth, substantially faded in, and projecting onto the screen. The
// opacity gate keeps freshly spawned, still-invisible rocks from killing
// the craft before the player can see them.
func (f *AsteroidField) Visible(a *Asteroid) bool {
	if a.Z < NearPlane || a.Z > MaxDepth {
		return false
	}
	if a.Opacity < AsteroidSolidOpacity {
		return false
	}
	p, ok := Project(Vector3{a.X, a.Y, a.Z}, f.vp)
	return ok && f.vp.Contains(p, AsteroidMargin)
}

// Asteroids returns the underlying set; callers must not retain it across ticks
func (f *AsteroidField) Asteroids() []*Asteroid {
	return f.asteroids
}
