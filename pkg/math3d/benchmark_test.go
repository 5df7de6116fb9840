package math3d

import (
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateX(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec3(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateX(0.5))
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = m.MulVec3(v)
	}
}

func BenchmarkRigidInverse(b *testing.B) {
	m := FaceToward(V3(3000, 2000, 0), V3(-20, 1920, 0), Up())

	for b.Loop() {
		_ = m.RigidInverse()
	}
}

func BenchmarkFaceToward(b *testing.B) {
	eye := V3(3000, 2000, 3000)
	target := V3(-20, 1920, 0)
	up := Up()

	for b.Loop() {
		_ = FaceToward(eye, target, up)
	}
}

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = v.Normalize()
	}
}
