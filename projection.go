package main

const (
	// FOV is tan(half field-of-view angle), 30 degrees
	FOV = 0.5773502691896258

	MaxDepth  = 12.0 // far spawn depth, camera units
	NearPlane = 0.15 // entities below this z have passed the camera
)

// Vector2 is a point in screen space
type Vector2 struct {
	X, Y float64
}

// Vector3 is a point in camera space; Z decreases as it approaches the viewer
type Vector3 struct {
	X, Y, Z float64
}

// Viewport is the current renderer surface size in pixels
type Viewport struct {
	Width, Height float64
}

// Aspect returns width/height, guarded against a degenerate viewport
func (vp Viewport) Aspect() float64 {
	if vp.Height <= 0 {
		return 1
	}
	return vp.Width / vp.Height
}

// Contains reports whether a screen point lies inside the viewport,
// expanded by margin on all sides
func (vp Viewport) Contains(p Vector2, margin float64) bool {
	return p.X >= -margin && p.X <= vp.Width+margin &&
		p.Y >= -margin && p.Y <= vp.Height+margin
}

// Project maps a camera-space point to screen coordinates via perspective
// divide. Returns ok=false for z <= 0: a point behind the camera has no
// meaningful projection and must not be used for visibility decisions.
func Project(p Vector3, vp Viewport) (Vector2, bool) {
	if p.Z <= 0 {
		return Vector2{}, false
	}
	halfW := vp.Width / 2
	halfH := vp.Height / 2
	return Vector2{
		X: p.X/(p.Z*FOV)*halfW*vp.Aspect() + halfW,
		Y: p.Y/(p.Z*FOV)*halfH + halfH,
	}, true
}

// BackProject maps a screen point at depth z back into camera space.
// Inverse of Project for z > 0; used to spawn entities at screen positions.
func BackProject(sx, sy, z float64, vp Viewport) Vector3 {
	halfW := vp.Width / 2
	halfH := vp.Height / 2
	if halfW <= 0 || halfH <= 0 {
		return Vector3{Z: z}
	}
	return Vector3{
		X: (sx - halfW) / (halfW * vp.Aspect()) * (z * FOV),
		Y: (sy - halfH) / halfH * (z * FOV),
		Z: z,
	}
}

// projectionScale is the factor from camera-space offsets to screen pixels
// at depth z. The renderer uses the same factor, so collision geometry
// matches what the player sees.
func projectionScale(z float64, vp Viewport) float64 {
	return vp.Width / (z * FOV) * 0.5
}
