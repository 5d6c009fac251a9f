package main

import "math"

const geomEpsilon = 1e-9

// TransformContour rotates a camera-space contour, scales it to screen
// pixels, and translates it onto the projected center. This is the exact
// transform the renderer applies, so collision geometry matches the drawn
// silhouette.
func TransformContour(contour []Vector2, rotation float64, center Vector2, scale float64) []Vector2 {
	cos := math.Cos(rotation)
	sin := math.Sin(rotation)
	out := make([]Vector2, len(contour))
	for i, p := range contour {
		out[i] = Vector2{
			X: center.X + (p.X*cos-p.Y*sin)*scale,
			Y: center.Y + (p.X*sin+p.Y*cos)*scale,
		}
	}
	return out
}

// TransformAsteroid returns the asteroid's screen-space contours (outer
// first, then the hole if present). ok=false when the asteroid is behind
// the camera and has no projection.
func TransformAsteroid(a *Asteroid, vp Viewport) ([][]Vector2, bool) {
	center, ok := Project(Vector3{a.X, a.Y, a.Z}, vp)
	if !ok {
		return nil, false
	}
	scale := projectionScale(a.Z, vp)
	contours := make([][]Vector2, 0, 2)
	contours = append(contours, TransformContour(a.Outer, a.Rotation, center, scale))
	if len(a.Hole) > 0 {
		contours = append(contours, TransformContour(a.Hole, a.Rotation, center, scale))
	}
	return contours, true
}

// pointInContour is a standard even-odd ray cast against one closed contour
func pointInContour(p Vector2, contour []Vector2) bool {
	inside := false
	n := len(contour)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := contour[i], contour[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			dy := b.Y - a.Y
			if math.Abs(dy) > geomEpsilon {
				xCross := a.X + (p.Y-a.Y)/dy*(b.X-a.X)
				if p.X < xCross {
					inside = !inside
				}
			}
		}
		j = i
	}
	return inside
}

// PointInSilhouette runs even-odd parity across all contours: a point inside
// the outer ring but also inside a hole ring has even parity and is not a
// hit, which is what keeps pass-through gaps flyable.
func PointInSilhouette(p Vector2, contours [][]Vector2) bool {
	inside := false
	for _, c := range contours {
		if pointInContour(p, c) {
			inside = !inside
		}
	}
	return inside
}

// CraftHits tests the craft's sample points against the silhouette; any
// single containment is a collision
func CraftHits(craft Craft, contours [][]Vector2) bool {
	for _, p := range craft.SamplePoints() {
		if PointInSilhouette(p, contours) {
			return true
		}
	}
	return false
}

// pointSegmentDist is the distance from p to segment ab, clamped at the
// endpoints. Zero-length segments degrade to point distance.
func pointSegmentDist(p, a, b Vector2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq < geomEpsilon {
		return Distance(p.X, p.Y, a.X, a.Y)
	}
	t := Clamp(((p.X-a.X)*dx+(p.Y-a.Y)*dy)/lenSq, 0, 1)
	return Distance(p.X, p.Y, a.X+t*dx, a.Y+t*dy)
}

// NearestEdgeDistance returns the minimum distance from p to any edge of the
// contour. Used for the fuel-bonus proximity test against the outer ring.
func NearestEdgeDistance(p Vector2, contour []Vector2) float64 {
	n := len(contour)
	if n == 0 {
		return math.MaxFloat64
	}
	if n == 1 {
		return Distance(p.X, p.Y, contour[0].X, contour[0].Y)
	}
	min := math.MaxFloat64
	j := n - 1
	for i := 0; i < n; i++ {
		if d := pointSegmentDist(p, contour[j], contour[i]); d < min {
			min = d
		}
		j = i
	}
	return min
}
