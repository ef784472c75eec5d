package ir

import (
	"github.com/google/uuid"
)

// Operator is a computation node: a typed kind, ordered input and output
// tensor lists, typed attributes, and predecessor/successor operator
// sets derived from those tensor links.
type Operator struct {
	graph *Graph
	guid  uuid.UUID
	kind  Kind
	attrs Attrs

	inputs  []*Tensor
	outputs []*Tensor

	predecessors []*Operator
	successors   []*Operator
}

// GUID returns the operator's unique identity.
func (o *Operator) GUID() uuid.UUID { return o.guid }

// Kind returns the operator's kind tag.
func (o *Operator) Kind() Kind { return o.kind }

// Attrs returns the operator's kind-specific attribute payload.
func (o *Operator) Attrs() Attrs { return o.attrs }

// Inputs returns the ordered input tensor list.
func (o *Operator) Inputs() []*Tensor {
	out := make([]*Tensor, len(o.inputs))
	copy(out, o.inputs)
	return out
}

// Outputs returns the ordered output tensor list.
func (o *Operator) Outputs() []*Tensor {
	out := make([]*Tensor, len(o.outputs))
	copy(out, o.outputs)
	return out
}

// Predecessors returns the operators producing this operator's inputs.
func (o *Operator) Predecessors() []*Operator {
	out := make([]*Operator, len(o.predecessors))
	copy(out, o.predecessors)
	return out
}

// Successors returns the operators consuming this operator's outputs.
func (o *Operator) Successors() []*Operator {
	out := make([]*Operator, len(o.successors))
	copy(out, o.successors)
	return out
}

// singleConsumer reports whether t has exactly one consuming operator and
// returns it.
func singleConsumer(t *Tensor) (*Operator, bool) {
	if len(t.targets) != 1 {
		return nil, false
	}
	return t.targets[0], true
}
