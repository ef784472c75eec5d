package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDOTRendersOperatorsAndEdges(t *testing.T) {
	g := NewGraph(nil, nil)
	x := g.AddTensor(NewShape(2, 2), Float32)
	y := g.AddTensor(NewShape(2, 2), Float32)
	z := g.AddTensor(NewShape(2, 2), Float32)

	_, err := g.AddOperator(KindReLU, ReLUAttrs{}, []*Tensor{x}, []*Tensor{y})
	require.NoError(t, err)
	_, err = g.AddOperator(KindReLU, ReLUAttrs{}, []*Tensor{y}, []*Tensor{z})
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, g.WriteDOT(&b))

	out := b.String()
	assert.Contains(t, out, "digraph")
	assert.Equal(t, 2, strings.Count(out, "ReLU"))
}
