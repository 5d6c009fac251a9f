package main

const (
	CraftWidthFrac  = 0.055 // craft width as fraction of viewport width
	CraftAspect     = 1.25  // height = width * aspect
	CraftAnchorY    = 0.8   // initial vertical position, fraction of height
	CraftMinWidth   = 18.0
	CraftMaxWidth   = 72.0

	CraftBaseManeuver  = 220.0 // px/s at initial game speed
	CraftManeuverRamp  = 900.0 // extra px/s per unit of game speed
	CraftMaxManeuver   = 560.0
	CraftEmptyTankMul  = 0.1 // maneuverability with fuel exhausted
)

// Craft is the player's rectangle, center-anchored
type Craft struct {
	X, Y          float64
	Width, Height float64
}

// Bounds returns the rectangle edges (left, top, right, bottom)
func (c Craft) Bounds() (float64, float64, float64, float64) {
	return c.X - c.Width/2, c.Y - c.Height/2, c.X + c.Width/2, c.Y + c.Height/2
}

// SamplePoints returns the nine points tested against asteroid silhouettes:
// four corners, four edge midpoints, and the center. A sampled test is a
// deliberate approximation; the craft is small relative to asteroid
// silhouettes and gaps, and it keeps pass-through holes exploitable.
func (c Craft) SamplePoints() [9]Vector2 {
	l, t, r, b := c.Bounds()
	return [9]Vector2{
		{l, t}, {r, t}, {l, b}, {r, b},
		{c.X, t}, {c.X, b}, {l, c.Y}, {r, c.Y},
		{c.X, c.Y},
	}
}

// CraftController integrates input into craft position. Two mutually
// exclusive modes: discrete keyboard axes, or pointer homing toward a
// target point. Keyboard always preempts pointer.
type CraftController struct {
	Craft Craft
	vp    Viewport
	def   CraftClassDef

	pointerActive      bool
	pointerX, pointerY float64
}

// NewCraftController sizes and anchors the craft for the given viewport and
// class preset
func NewCraftController(vp Viewport, def CraftClassDef) *CraftController {
	c := &CraftController{vp: vp, def: def}
	w := c.baseWidth(vp)
	c.Craft = Craft{
		X:      vp.Width / 2,
		Y:      vp.Height * CraftAnchorY,
		Width:  w,
		Height: w * CraftAspect,
	}
	return c
}

func (c *CraftController) baseWidth(vp Viewport) float64 {
	return Clamp(vp.Width*CraftWidthFrac, CraftMinWidth, CraftMaxWidth) * c.def.SizeMul
}

// maneuverSpeed ramps with global game speed up to a cap, and collapses to a
// tenth once the tank is dry
func maneuverSpeed(gameSpeed, fuel float64) float64 {
	s := CraftBaseManeuver + gameSpeed*CraftManeuverRamp
	if s > CraftMaxManeuver {
		s = CraftMaxManeuver
	}
	if fuel <= 0 {
		s *= CraftEmptyTankMul
	}
	return s
}

// Update applies one tick of input. Discrete keys set a signed axis
// velocity; pointer mode homes each axis by the signed minimum of remaining
// distance and the maneuver cap, easing in instead of snapping.
func (c *CraftController) Update(in InputSnapshot, gameSpeed, fuel, dt float64) {
	keyboard := in.Left || in.Right || in.Up || in.Down
	if keyboard {
		c.pointerActive = false
	} else if in.PointerActive {
		c.pointerActive = true
		c.pointerX = in.PointerX
		c.pointerY = in.PointerY
	}

	limit := maneuverSpeed(gameSpeed, fuel) * c.def.ManeuverMul
	var dx, dy float64
	switch {
	case keyboard:
		if in.Left {
			dx -= limit * dt
		}
		if in.Right {
			dx += limit * dt
		}
		if in.Up {
			dy -= limit * dt
		}
		if in.Down {
			dy += limit * dt
		}
	case c.pointerActive:
		dx = homeAxis(c.pointerX-c.Craft.X, limit*dt)
		dy = homeAxis(c.pointerY-c.Craft.Y, limit*dt)
	}

	c.Craft.X += dx
	c.Craft.Y += dy
	c.clamp()
}

// homeAxis returns the signed minimum of the remaining distance and the step
func homeAxis(dist, step float64) float64 {
	if dist > step {
		return step
	}
	if dist < -step {
		return -step
	}
	return dist
}

// clamp keeps the full craft rectangle inside the viewport
func (c *CraftController) clamp() {
	c.Craft.X = Clamp(c.Craft.X, c.Craft.Width/2, c.vp.Width-c.Craft.Width/2)
	c.Craft.Y = Clamp(c.Craft.Y, c.Craft.Height/2, c.vp.Height-c.Craft.Height/2)
}

// Resize rescales the craft for a new viewport, preserving its relative
// position so simulation continuity is not lost
func (c *CraftController) Resize(vp Viewport) {
	fx, fy := 0.5, CraftAnchorY
	if c.vp.Width > 0 {
		fx = c.Craft.X / c.vp.Width
	}
	if c.vp.Height > 0 {
		fy = c.Craft.Y / c.vp.Height
	}
	c.vp = vp
	w := c.baseWidth(vp)
	c.Craft.Width = w
	c.Craft.Height = w * CraftAspect
	c.Craft.X = fx * vp.Width
	c.Craft.Y = fy * vp.Height
	c.clamp()
}

// Recenter puts the craft back at its spawn anchor (run restart)
func (c *CraftController) Recenter() {
	c.Craft.X = c.vp.Width / 2
	c.Craft.Y = c.vp.Height * CraftAnchorY
	c.pointerActive = false
	c.clamp()
}
