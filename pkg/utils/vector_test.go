package utils

import (
	"math"
	"testing"
)

func TestQuadraticBezierEndpoints(t *testing.T) {
	p0 := V3(0, 0, 0)
	p1 := V3(1, 2, 0)
	p2 := V3(2, 0, 0)

	if got := QuadraticBezier(0, p0, p1, p2); got != p0 {
		t.Errorf("B(0) = %v, 期望 %v", got, p0)
	}
	if got := QuadraticBezier(1, p0, p1, p2); got != p2 {
		t.Errorf("B(1) = %v, 期望 %v", got, p2)
	}

	// 中点：0.25*p0 + 0.5*p1 + 0.25*p2 = (1, 1, 0)
	mid := QuadraticBezier(0.5, p0, p1, p2)
	if mid.Distance(V3(1, 1, 0)) > 1e-9 {
		t.Errorf("B(0.5) = %v, 期望 (1, 1, 0)", mid)
	}
}

func TestVec3Distance(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 6, 3)
	if d := a.Distance(b); math.Abs(d-5) > 1e-9 {
		t.Errorf("Distance = %v, 期望 5", d)
	}
}

func TestLerpVec3(t *testing.T) {
	got := LerpVec3(V3(0, 0, 0), V3(10, -10, 4), 0.25)
	want := V3(2.5, -2.5, 1)
	if got.Distance(want) > 1e-9 {
		t.Errorf("LerpVec3 = %v, 期望 %v", got, want)
	}
}
