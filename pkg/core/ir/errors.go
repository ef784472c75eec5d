package ir

import "github.com/pkg/errors"

// Sentinel error identities. Call sites wrap these with errors.Wrap so
// errors.Is still matches while the message carries call-site context.
var (
	// ErrStructural marks a violation of a Graph/Tensor/Operator invariant:
	// mismatched ranks, incompatible broadcast, duplicate fuid, an operator
	// referencing a tensor outside the graph, an output tensor that already
	// has a source, and so on. Construction and removal calls that return
	// it leave the graph untouched; ShapeInfer keeps the output shapes it
	// had already rewritten for earlier operators.
	ErrStructural = errors.New("ir: structural violation")

	// ErrCycle is returned by TopoSort when the operator graph has no
	// topological order.
	ErrCycle = errors.New("ir: cycle detected")

	// ErrCommitted is returned by Alloc/Free once the arena pointer has
	// been materialized via GetPtr.
	ErrCommitted = errors.New("ir: allocator already committed")

	// ErrOutOfMemory wraps a runtime allocation failure, propagated
	// unchanged from the Runtime collaborator.
	ErrOutOfMemory = errors.New("ir: out of memory")

	// ErrDoubleFree is returned by a Runtime when asked to release a
	// Pointer it has already released.
	ErrDoubleFree = errors.New("ir: double free")
)
