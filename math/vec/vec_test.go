package vec

import (
	"testing"

	"github.com/chewxy/math32"
)

var (
	NULL = Vec3{}
)

func TestLength(t *testing.T) {
	if NULL.Length() != 0 {
		t.Errorf("Null vector has not 0 length")
	}
	for _, v := range []Vec3{{2, 2, 1}, {2, 1, 2}, {1, 2, 2}} {
		if v.Length() != 3 {
			t.Errorf("%v Length is not 3", v)
		}
	}
}

func TestAddSub(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := Add(NULL, v); got != v {
		t.Errorf("Adding a null vector changed the vector")
	}
	if got, want := Add(v, v), (Vec3{2, 4, 6}); got != want {
		t.Errorf("Add(%v,%v) = %v want %v", v, v, got, want)
	}
	v2 := Vec3{9, 7, 5}
	if got, want := Sub(v2, v), (Vec3{8, 5, 2}); got != want {
		t.Errorf("Sub(%v,%v) = %v want %v", v2, v, got, want)
	}
}

func TestNormalize(t *testing.T) {
	if got := NULL.Normalize(); got != NULL {
		t.Errorf("Normalize(%v) = %v", NULL, got)
	}
	v := Vec3{0, 3, 4}.Normalize()
	if math32.Abs(v.Length()-1) > 1e-6 {
		t.Errorf("Normalize length = %v, want 1", v.Length())
	}
}

func TestCenter(t *testing.T) {
	got := Center(Vec3{-16, -16, 0}, Vec3{16, 48, 64})
	want := Vec3{0, 16, 32}
	if got != want {
		t.Errorf("Center = %v, want %v", got, want)
	}
}

func TestAngleVectors(t *testing.T) {
	f, r, u := AngleVectors(NULL)
	if f != (Vec3{1, 0, 0}) {
		t.Errorf("forward = %v", f)
	}
	if math32.Abs(r.Y+1) > 1e-6 {
		t.Errorf("right = %v", r)
	}
	if u != (Vec3{0, 0, 1}) {
		t.Errorf("up = %v", u)
	}
	if d := Dot(f, r); math32.Abs(d) > 1e-6 {
		t.Errorf("forward.right = %v", d)
	}
}
