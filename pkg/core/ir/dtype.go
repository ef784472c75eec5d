package ir

import (
	gtensor "gorgonia.org/tensor"
)

// DType is the tensor element type. The core reuses gorgonia's Dtype
// rather than hand-rolling a byte-width table: Size() is backed by
// reflect.Type.Size() and is already correct for every Go numeric kind.
type DType = gtensor.Dtype

// Supported element types. Float32 is the default per spec.
var (
	Float32 = gtensor.Float32
	Float64 = gtensor.Float64
	Int     = gtensor.Int
	Int32   = gtensor.Int32
	Int64   = gtensor.Int64
	Int16   = gtensor.Int16
	Int8    = gtensor.Int8
)

// DefaultDType is used when a tensor is constructed without an explicit type.
var DefaultDType = Float32

// bytesOf returns the byte width of dt, defaulting to DefaultDType's width
// for an unset zero-value Dtype.
func bytesOf(dt DType) int {
	if dt.Type == nil {
		return int(DefaultDType.Size())
	}
	return int(dt.Size())
}
