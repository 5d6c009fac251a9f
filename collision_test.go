package main

import (
	"math"
	"testing"
)

func square(cx, cy, half float64) []Vector2 {
	return []Vector2{
		{cx - half, cy - half},
		{cx + half, cy - half},
		{cx + half, cy + half},
		{cx - half, cy + half},
	}
}

func TestPointInContourSquare(t *testing.T) {
	sq := square(0, 0, 10)
	cases := []struct {
		p    Vector2
		want bool
	}{
		{Vector2{0, 0}, true},
		{Vector2{9, 9}, true},
		{Vector2{-9, 9}, true},
		{Vector2{11, 0}, false},
		{Vector2{0, -11}, false},
		{Vector2{100, 100}, false},
	}
	for _, c := range cases {
		if got := pointInContour(c.p, sq); got != c.want {
			t.Errorf("pointInContour(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPointInContourDegenerate(t *testing.T) {
	if pointInContour(Vector2{0, 0}, nil) {
		t.Error("empty contour contains nothing")
	}
	if pointInContour(Vector2{0, 0}, []Vector2{{1, 1}, {2, 2}}) {
		t.Error("two points do not enclose anything")
	}
}

func TestPointInSilhouetteHoleSubtraction(t *testing.T) {
	outer := square(0, 0, 10)
	hole := square(0, 0, 3)
	contours := [][]Vector2{outer, hole}

	if !PointInSilhouette(Vector2{6, 0}, contours) {
		t.Error("point in the ring should hit")
	}
	if PointInSilhouette(Vector2{0, 0}, contours) {
		t.Error("point inside the hole must pass through")
	}
	if PointInSilhouette(Vector2{20, 0}, contours) {
		t.Error("point outside everything must miss")
	}
}

func TestCraftHits(t *testing.T) {
	contours := [][]Vector2{square(100, 100, 30)}

	inside := Craft{X: 100, Y: 100, Width: 10, Height: 10}
	if !CraftHits(inside, contours) {
		t.Error("craft centered in the silhouette should hit")
	}

	away := Craft{X: 300, Y: 300, Width: 10, Height: 10}
	if CraftHits(away, contours) {
		t.Error("distant craft should miss")
	}

	// Only a corner overlaps
	corner := Craft{X: 135, Y: 135, Width: 20, Height: 20}
	if !CraftHits(corner, contours) {
		t.Error("corner overlap should register via sample points")
	}
}

func TestCraftThroughHole(t *testing.T) {
	outer := square(100, 100, 60)
	hole := square(100, 100, 25)
	contours := [][]Vector2{outer, hole}

	small := Craft{X: 100, Y: 100, Width: 20, Height: 20}
	if CraftHits(small, contours) {
		t.Error("craft fully inside the hole must fly through")
	}

	wide := Craft{X: 100, Y: 100, Width: 60, Height: 60}
	if !CraftHits(wide, contours) {
		t.Error("craft wider than the hole must hit the ring")
	}
}

func TestPointSegmentDist(t *testing.T) {
	a := Vector2{0, 0}
	b := Vector2{10, 0}

	if d := pointSegmentDist(Vector2{5, 3}, a, b); math.Abs(d-3) > 1e-9 {
		t.Errorf("perpendicular distance = %f, want 3", d)
	}
	// Beyond the endpoint: clamps to endpoint distance
	if d := pointSegmentDist(Vector2{14, 3}, a, b); math.Abs(d-5) > 1e-9 {
		t.Errorf("endpoint-clamped distance = %f, want 5", d)
	}
	// Zero-length segment degrades to point distance
	if d := pointSegmentDist(Vector2{3, 4}, a, a); math.Abs(d-5) > 1e-9 {
		t.Errorf("degenerate segment distance = %f, want 5", d)
	}
}

func TestNearestEdgeDistance(t *testing.T) {
	sq := square(0, 0, 10)

	if d := NearestEdgeDistance(Vector2{0, 14}, sq); math.Abs(d-4) > 1e-9 {
		t.Errorf("outside distance = %f, want 4", d)
	}
	// Inside the contour still measures to the nearest edge
	if d := NearestEdgeDistance(Vector2{0, 8}, sq); math.Abs(d-2) > 1e-9 {
		t.Errorf("inside distance = %f, want 2", d)
	}
	if d := NearestEdgeDistance(Vector2{0, 0}, nil); d != math.MaxFloat64 {
		t.Error("empty contour should report no edge")
	}
}

func TestTransformContourRotationAndScale(t *testing.T) {
	contour := []Vector2{{1, 0}}
	center := Vector2{100, 100}

	// Quarter turn maps +X onto +Y before scaling and translation
	out := TransformContour(contour, math.Pi/2, center, 10)
	if math.Abs(out[0].X-100) > 1e-9 || math.Abs(out[0].Y-110) > 1e-9 {
		t.Errorf("rotated vertex = (%f, %f), want (100, 110)", out[0].X, out[0].Y)
	}
}

func TestTransformAsteroidMatchesProjection(t *testing.T) {
	f := NewAsteroidField(1, testVP, 1)
	a := f.asteroids[0]
	a.X, a.Y, a.Z = 0, 0, 4

	contours, ok := TransformAsteroid(a, testVP)
	if !ok {
		t.Fatal("visible asteroid should transform")
	}
	if len(contours) != 2 {
		t.Fatalf("expected outer + hole, got %d contours", len(contours))
	}

	center, _ := Project(Vector3{a.X, a.Y, a.Z}, testVP)
	scale := projectionScale(a.Z, testVP)
	for _, p := range contours[0] {
		d := Distance(p.X, p.Y, center.X, center.Y)
		if d > a.Size*1.5*scale+1e-6 {
			t.Errorf("outer vertex %f px from center exceeds scaled radius bound", d)
		}
	}

	a.Z = -1
	if _, ok := TransformAsteroid(a, testVP); ok {
		t.Error("asteroid behind the camera must not transform")
	}
}
