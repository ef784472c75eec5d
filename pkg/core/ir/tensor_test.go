package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensorBytesUsesDTypeWidth(t *testing.T) {
	g := NewGraph(nil, nil)
	f32 := g.AddTensor(NewShape(2, 3), Float32)
	f64 := g.AddTensor(NewShape(2, 3), Float64)

	assert.Equal(t, int64(f32.Bytes()), int64(6)*int64(Float32.Size()))
	assert.Equal(t, int64(f64.Bytes()), int64(6)*int64(Float64.Size()))
}

func TestTensorIsInputIsOutput(t *testing.T) {
	g, x, y := buildReLUChain(t)
	assert.True(t, x.IsInput())
	assert.False(t, x.IsOutput())
	assert.False(t, y.IsInput())
	assert.True(t, y.IsOutput())
	_ = g
}

func TestTensorDefaultDTypeOnZeroValue(t *testing.T) {
	g := NewGraph(nil, nil)
	t2 := g.AddTensor(NewShape(2), DType{})
	assert.Equal(t, DefaultDType, t2.DType())
}

func TestTensorTargetsIsACopy(t *testing.T) {
	g, x, _ := buildReLUChain(t)
	targets := x.Targets()
	targets[0] = nil
	require.Len(t, x.Targets(), 1)
	assert.NotNil(t, x.Targets()[0])
}
