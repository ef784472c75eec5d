package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcyclicGonumAgreesOnAcyclicGraph(t *testing.T) {
	g, _, _ := buildReLUChain(t)
	require.NoError(t, VerifyAcyclicGonum(g))
}

func TestVerifyAcyclicGonumDetectsCycle(t *testing.T) {
	g := NewGraph(nil, nil)
	x := g.AddTensor(NewShape(2, 2), Float32)
	y := g.AddTensor(NewShape(2, 2), Float32)

	op1, err := g.AddOperator(KindReLU, ReLUAttrs{}, []*Tensor{x}, []*Tensor{y})
	require.NoError(t, err)
	op1.inputs = append(op1.inputs, y)
	y.addTarget(op1)
	g.rebuildAdjacency()

	err = VerifyAcyclicGonum(g)
	assert.ErrorIs(t, err, ErrCycle)
}
