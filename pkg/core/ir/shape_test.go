package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeSizeAndEqual(t *testing.T) {
	tests := []struct {
		name string
		a    Shape
		size int
	}{
		{"scalar", NewShape(), 1},
		{"vector", NewShape(4), 4},
		{"matrix", NewShape(2, 3), 6},
		{"batched", NewShape(5, 2, 3), 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.a.Size())
			assert.True(t, tt.a.Equal(tt.a.Clone()))
		})
	}
}

func TestShapeEqualMismatch(t *testing.T) {
	assert.False(t, NewShape(2, 3).Equal(NewShape(3, 2)))
	assert.False(t, NewShape(2, 3).Equal(NewShape(2, 3, 1)))
}

func TestNormalizeAxis(t *testing.T) {
	axis, err := NormalizeAxis(-1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, axis)

	_, err = NormalizeAxis(3, 3)
	assert.ErrorIs(t, err, ErrStructural)

	_, err = NormalizeAxis(-4, 3)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		wantErr bool
	}{
		{"equal", NewShape(2, 3), NewShape(2, 3), NewShape(2, 3), false},
		{"right-align", NewShape(5, 1, 3), NewShape(3), NewShape(5, 1, 3), false},
		{"broadcast-one", NewShape(4, 1), NewShape(1, 5), NewShape(4, 5), false},
		{"incompatible", NewShape(4, 2), NewShape(4, 3), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStructural)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestLastTwoDimSwap(t *testing.T) {
	assert.True(t, lastTwoDimSwap([]int{0, 2, 1}))
	assert.True(t, lastTwoDimSwap([]int{1, 0}))
	assert.False(t, lastTwoDimSwap([]int{2, 1, 0}))
	assert.False(t, lastTwoDimSwap([]int{0}))
}

func TestComposePermutations(t *testing.T) {
	// p swaps last two, q swaps last two again: composed must be identity.
	p := []int{0, 2, 1}
	q := []int{0, 2, 1}
	r, err := composePermutations(p, q)
	require.NoError(t, err)
	assert.True(t, isIdentityPermutation(r))
}

func TestPermuteShape(t *testing.T) {
	s := NewShape(2, 3, 4)
	out, err := permuteShape(s, []int{0, 2, 1})
	require.NoError(t, err)
	assert.True(t, NewShape(2, 4, 3).Equal(out))

	_, err = permuteShape(s, []int{0, 0, 1})
	assert.ErrorIs(t, err, ErrStructural)
}
