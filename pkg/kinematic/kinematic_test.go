package kinematic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector_Normalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vector
		want Vector
	}{
		{
			name: "zero stays zero",
			v:    Zero(),
			want: Zero(),
		},
		{
			name: "axis aligned",
			v:    Vector{Z: 4},
			want: Forward(),
		},
		{
			name: "diagonal",
			v:    Vector{X: 3, Z: 4},
			want: Vector{X: 0.6, Z: 0.8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Normalize()
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-9)
		})
	}
}

func TestDisplacement(t *testing.T) {
	assert.InDelta(t, 5.0, Displacement(10, 1, -10), 1e-9)
	assert.InDelta(t, 0.0, FinalVelocity(10, 1, -10), 1e-9)
}
