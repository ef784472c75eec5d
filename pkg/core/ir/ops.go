package ir

import (
	"github.com/pkg/errors"
)

// ShapeInferFunc computes output shapes from input shapes and an
// operator's attrs. It must be total and idempotent over well-typed
// inputs; a rank mismatch or incompatible dimension is a structural
// violation, not a panic or silent truncation.
type ShapeInferFunc func(inputs []Shape, attrs Attrs) ([]Shape, error)

// Registry maps operator Kind to its shape-inference function. The core
// ships DefaultRegistry with the built-in zoo; callers may register
// additional kinds (or override these) on their own Registry instance.
type Registry map[Kind]ShapeInferFunc

// DefaultRegistry is the built-in operator zoo described in SPEC_FULL.md §4.7.
func DefaultRegistry() Registry {
	return Registry{
		KindMatMul:    inferMatMul,
		KindTranspose: inferTranspose,
		KindConcat:    inferConcat,
		KindAdd:       inferAdd,
		KindReLU:      inferReLU,
	}
}

func inferMatMul(inputs []Shape, attrs Attrs) ([]Shape, error) {
	if len(inputs) != 2 {
		return nil, errors.Wrapf(ErrStructural, "MatMul expects 2 inputs, got %d", len(inputs))
	}
	a, b := inputs[0], inputs[1]
	if a.Rank() < 2 || b.Rank() < 2 {
		return nil, errors.Wrapf(ErrStructural, "MatMul operands need rank >= 2, got %s and %s", a, b)
	}
	mm, _ := attrs.(MatMulAttrs)

	ra, ca := a[a.Rank()-2], a[a.Rank()-1]
	if mm.TransA {
		ra, ca = ca, ra
	}
	rb, cb := b[b.Rank()-2], b[b.Rank()-1]
	if mm.TransB {
		rb, cb = cb, rb
	}
	if ca != rb {
		return nil, errors.Wrapf(ErrStructural, "MatMul inner dims disagree: %d != %d", ca, rb)
	}

	batchA, batchB := a[:a.Rank()-2], b[:b.Rank()-2]
	batch, err := BroadcastShapes(batchA, batchB)
	if err != nil {
		return nil, err
	}

	out := make(Shape, len(batch)+2)
	copy(out, batch)
	out[len(batch)] = ra
	out[len(batch)+1] = cb
	return []Shape{out}, nil
}

func inferTranspose(inputs []Shape, attrs Attrs) ([]Shape, error) {
	if len(inputs) != 1 {
		return nil, errors.Wrapf(ErrStructural, "Transpose expects 1 input, got %d", len(inputs))
	}
	tr, _ := attrs.(TransposeAttrs)
	out, err := permuteShape(inputs[0], tr.Permute)
	if err != nil {
		return nil, err
	}
	return []Shape{out}, nil
}

func inferConcat(inputs []Shape, attrs Attrs) ([]Shape, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrap(ErrStructural, "Concat expects at least 1 input")
	}
	ca, _ := attrs.(ConcatAttrs)
	rank := inputs[0].Rank()
	dim, err := NormalizeAxis(ca.Dim, rank)
	if err != nil {
		return nil, err
	}

	out := inputs[0].Clone()
	for _, s := range inputs[1:] {
		if s.Rank() != rank {
			return nil, errors.Wrapf(ErrStructural, "Concat rank mismatch: %d != %d", s.Rank(), rank)
		}
		for i := 0; i < rank; i++ {
			if i == dim {
				continue
			}
			if s[i] != out[i] {
				return nil, errors.Wrapf(ErrStructural, "Concat dim %d mismatch: %d != %d", i, s[i], out[i])
			}
		}
		out[dim] += s[dim]
	}
	return []Shape{out}, nil
}

func inferAdd(inputs []Shape, attrs Attrs) ([]Shape, error) {
	if len(inputs) != 2 {
		return nil, errors.Wrapf(ErrStructural, "Add expects 2 inputs, got %d", len(inputs))
	}
	out, err := BroadcastShapes(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	return []Shape{out}, nil
}

func inferReLU(inputs []Shape, attrs Attrs) ([]Shape, error) {
	if len(inputs) != 1 {
		return nil, errors.Wrapf(ErrStructural, "ReLU expects 1 input, got %d", len(inputs))
	}
	return []Shape{inputs[0].Clone()}, nil
}
