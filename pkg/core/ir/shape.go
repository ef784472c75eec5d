package ir

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shape is an ordered sequence of non-negative dimension sizes. An empty
// Shape describes a scalar.
type Shape []int

// NewShape copies dims into a fresh Shape.
func NewShape(dims ...int) Shape {
	s := make(Shape, len(dims))
	copy(s, dims)
	return s
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s) }

// Size returns the total element count; a scalar (rank 0) has size 1.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 1
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// NormalizeAxis resolves a possibly-negative axis against rank, the way a
// Python-style negative index resolves against a sequence length.
func NormalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, errors.Wrapf(ErrStructural, "axis %d out of range for rank %d", axis, rank)
	}
	return axis, nil
}

// BroadcastShapes implements the standard right-aligned broadcast rule:
// shorter shapes are padded on the left with 1s, corresponding dimensions
// must be equal or one of them must be 1, and the result takes the max.
func BroadcastShapes(a, b Shape) (Shape, error) {
	rank := len(a)
	if len(b) > rank {
		rank = len(b)
	}
	out := make(Shape, rank)
	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if idx := len(a) - rank + i; idx >= 0 {
			da = a[idx]
		}
		if idx := len(b) - rank + i; idx >= 0 {
			db = b[idx]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, errors.Wrapf(ErrStructural, "incompatible broadcast dims %d and %d at axis %d (shapes %s, %s)", da, db, i, a, b)
		}
	}
	return out, nil
}

// lastTwoDimSwap reports whether perm fixes every position except that it
// swaps the final two — the signature of a permutation that can be fused
// into a MatMul's transA/transB flag instead of materializing a Transpose.
func lastTwoDimSwap(perm []int) bool {
	r := len(perm)
	if r < 2 {
		return false
	}
	for i := 0; i < r-2; i++ {
		if perm[i] != i {
			return false
		}
	}
	return perm[r-2] == r-1 && perm[r-1] == r-2
}

func permuteShape(s Shape, perm []int) (Shape, error) {
	if len(perm) != len(s) {
		return nil, errors.Wrapf(ErrStructural, "permutation length %d does not match rank %d", len(perm), len(s))
	}
	seen := make([]bool, len(perm))
	out := make(Shape, len(s))
	for i, p := range perm {
		if p < 0 || p >= len(s) || seen[p] {
			return nil, errors.Wrapf(ErrStructural, "invalid permutation %v for shape %s", perm, s)
		}
		seen[p] = true
		out[i] = s[p]
	}
	return out, nil
}

// composePermutations returns r where r[i] = q[p[i]], the permutation
// produced by applying p then q.
func composePermutations(p, q []int) ([]int, error) {
	if len(p) != len(q) {
		return nil, errors.Wrapf(ErrStructural, "mismatched permutation lengths %d and %d", len(p), len(q))
	}
	r := make([]int, len(p))
	for i, pi := range p {
		if pi < 0 || pi >= len(q) {
			return nil, errors.Wrapf(ErrStructural, "permutation index %d out of range", pi)
		}
		r[i] = q[pi]
	}
	return r, nil
}

func isIdentityPermutation(p []int) bool {
	for i, v := range p {
		if v != i {
			return false
		}
	}
	return true
}
