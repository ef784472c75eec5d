package ir

import (
	"github.com/google/uuid"
)

// Storage binds a Tensor to a byte range within the Graph's arena. It is
// unset until DataMalloc completes.
type Storage struct {
	Offset int
	Bytes  int
}

// Tensor is a node in the dataflow graph: a shape and dtype, a globally
// unique identity, a single producing Operator (or none, making it a
// graph input), an ordered list of consuming Operators, and — after
// planning — a storage binding.
type Tensor struct {
	graph *Graph
	fuid  uuid.UUID
	shape Shape
	dtype DType

	source  *Operator
	targets []*Operator

	storage *Storage
}

// FUID returns the tensor's globally unique, never-reused identity.
func (t *Tensor) FUID() uuid.UUID { return t.fuid }

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// DType returns the tensor's element type.
func (t *Tensor) DType() DType { return t.dtype }

// Source returns the producing Operator, or nil if this tensor is a graph input.
func (t *Tensor) Source() *Operator { return t.source }

// Targets returns the ordered list of consuming Operators.
func (t *Tensor) Targets() []*Operator {
	out := make([]*Operator, len(t.targets))
	copy(out, t.targets)
	return out
}

// Storage returns the tensor's arena binding, or nil before DataMalloc.
func (t *Tensor) Storage() *Storage { return t.storage }

// Bytes returns the number of bytes this tensor occupies once materialized.
func (t *Tensor) Bytes() int {
	return t.shape.Size() * bytesOf(t.dtype)
}

// IsInput reports whether this tensor has no producing operator.
func (t *Tensor) IsInput() bool { return t.source == nil }

// IsOutput reports whether this tensor has no consuming operators.
func (t *Tensor) IsOutput() bool { return len(t.targets) == 0 }

func (t *Tensor) addTarget(op *Operator) {
	for _, existing := range t.targets {
		if existing == op {
			return
		}
	}
	t.targets = append(t.targets, op)
}

func (t *Tensor) removeTarget(op *Operator) {
	for i, existing := range t.targets {
		if existing == op {
			t.targets = append(t.targets[:i], t.targets[i+1:]...)
			return
		}
	}
}
