package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferMatMul(t *testing.T) {
	reg := DefaultRegistry()
	fn := reg[KindMatMul]

	out, err := fn([]Shape{NewShape(2, 3), NewShape(3, 4)}, MatMulAttrs{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, NewShape(2, 4).Equal(out[0]))

	out, err = fn([]Shape{NewShape(3, 2), NewShape(3, 4)}, MatMulAttrs{TransA: true})
	require.NoError(t, err)
	assert.True(t, NewShape(2, 4).Equal(out[0]))

	_, err = fn([]Shape{NewShape(2, 3), NewShape(5, 4)}, MatMulAttrs{})
	assert.ErrorIs(t, err, ErrStructural)
}

func TestInferTranspose(t *testing.T) {
	reg := DefaultRegistry()
	fn := reg[KindTranspose]

	out, err := fn([]Shape{NewShape(2, 3, 4)}, TransposeAttrs{Permute: []int{0, 2, 1}})
	require.NoError(t, err)
	assert.True(t, NewShape(2, 4, 3).Equal(out[0]))
}

func TestInferConcat(t *testing.T) {
	reg := DefaultRegistry()
	fn := reg[KindConcat]

	out, err := fn([]Shape{NewShape(2, 3), NewShape(2, 5)}, ConcatAttrs{Dim: 1})
	require.NoError(t, err)
	assert.True(t, NewShape(2, 8).Equal(out[0]))

	_, err = fn([]Shape{NewShape(2, 3), NewShape(3, 3)}, ConcatAttrs{Dim: 1})
	assert.ErrorIs(t, err, ErrStructural)
}

func TestInferAddBroadcast(t *testing.T) {
	reg := DefaultRegistry()
	fn := reg[KindAdd]

	out, err := fn([]Shape{NewShape(4, 1), NewShape(1, 5)}, AddAttrs{})
	require.NoError(t, err)
	assert.True(t, NewShape(4, 5).Equal(out[0]))
}

func TestInferReLUIdempotent(t *testing.T) {
	reg := DefaultRegistry()
	fn := reg[KindReLU]

	out1, err := fn([]Shape{NewShape(3, 3)}, ReLUAttrs{})
	require.NoError(t, err)
	out2, err := fn(out1, ReLUAttrs{})
	require.NoError(t, err)
	assert.True(t, out1[0].Equal(out2[0]))
}
