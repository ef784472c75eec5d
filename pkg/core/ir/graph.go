package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/itohio/tinfer/pkg/logger"
)

// Graph owns a set of tensors and operators, enforces the structural
// invariants of SPEC_FULL.md §3, and provides construction, topological
// sort, shape inference, and memory planning.
type Graph struct {
	tensors   []*Tensor
	operators []*Operator
	sorted    bool

	allocator *Allocator
	runtime   Runtime
	registry  Registry
}

// NewGraph constructs an empty Graph. A nil runtime defaults to a CPU
// reference runtime; a nil registry defaults to the built-in operator zoo.
func NewGraph(runtime Runtime, registry Registry) *Graph {
	if runtime == nil {
		runtime = NewCPURuntime()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	g := &Graph{runtime: runtime, registry: registry}
	g.allocator = NewAllocator(runtime, DefaultAlignment)
	return g
}

// Allocator returns the Graph's owned Allocator.
func (g *Graph) Allocator() *Allocator { return g.allocator }

// Sorted reports whether the operator list is currently in topological order.
func (g *Graph) Sorted() bool { return g.sorted }

// AddTensor creates a fresh tensor with the given shape and dtype, assigns
// it a new fuid, and appends it to the tensor list.
func (g *Graph) AddTensor(shape Shape, dtype DType) *Tensor {
	if dtype == (DType{}) {
		dtype = DefaultDType
	}
	t := &Tensor{
		graph: g,
		fuid:  uuid.New(),
		shape: shape.Clone(),
		dtype: dtype,
	}
	g.tensors = append(g.tensors, t)
	g.sorted = false
	return t
}

// AddOperator appends a new operator of the given kind and cross-links it
// to the provided input and output tensors: each input gains this
// operator in its targets, each output has its source set to this
// operator, and predecessor/successor sets are rebuilt from the resulting
// tensor links.
func (g *Graph) AddOperator(kind Kind, attrs Attrs, inputs, outputs []*Tensor) (*Operator, error) {
	for _, t := range inputs {
		if t.graph != g {
			return nil, errors.Wrapf(ErrStructural, "AddOperator: input tensor %s does not belong to this graph", t.fuid)
		}
	}
	for _, t := range outputs {
		if t.graph != g {
			return nil, errors.Wrapf(ErrStructural, "AddOperator: output tensor %s does not belong to this graph", t.fuid)
		}
		if t.source != nil {
			return nil, errors.Wrapf(ErrStructural, "AddOperator: output tensor %s already has a source operator", t.fuid)
		}
	}

	op := &Operator{
		graph: g,
		guid:  uuid.New(),
		kind:  kind,
		attrs: attrs,
	}
	op.inputs = append(op.inputs, inputs...)
	op.outputs = append(op.outputs, outputs...)

	for _, t := range inputs {
		t.addTarget(op)
	}
	for _, t := range outputs {
		t.source = op
	}

	g.operators = append(g.operators, op)
	g.sorted = false
	g.rebuildAdjacency()
	return op, nil
}

// rebuildAdjacency recomputes every operator's predecessor and successor
// sets from the current tensor source/targets links. Keeping this as a
// single declarative pass — instead of patching neighbor sets inline on
// every mutation — means the bidirectional-consistency invariant can
// never drift: it's always a pure function of the tensor links.
func (g *Graph) rebuildAdjacency() {
	for _, op := range g.operators {
		op.predecessors = nil
		op.successors = nil
	}
	for _, op := range g.operators {
		seenPred := make(map[*Operator]bool, len(op.inputs))
		for _, t := range op.inputs {
			if t.source != nil && !seenPred[t.source] {
				seenPred[t.source] = true
				op.predecessors = append(op.predecessors, t.source)
			}
		}
		seenSucc := make(map[*Operator]bool)
		for _, t := range op.outputs {
			for _, c := range t.targets {
				if !seenSucc[c] {
					seenSucc[c] = true
					op.successors = append(op.successors, c)
				}
			}
		}
	}
}

// RemoveTensor detaches and deletes a tensor. It is only valid to remove
// a tensor with no source and no targets (an optimizer pass must detach
// it from every operator first).
func (g *Graph) RemoveTensor(t *Tensor) error {
	if t.source != nil || len(t.targets) != 0 {
		return errors.Wrapf(ErrStructural, "RemoveTensor: tensor %s is still linked to operators", t.fuid)
	}
	idx := -1
	for i, existing := range g.tensors {
		if existing == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(ErrStructural, "RemoveTensor: tensor %s not found in graph", t.fuid)
	}
	g.tensors = append(g.tensors[:idx], g.tensors[idx+1:]...)
	t.graph = nil
	g.sorted = false
	return nil
}

// RemoveOperator detaches an operator from every input/output tensor and
// deletes it. Callers are responsible for reconnecting any tensors that
// must remain live (see the optimizer passes for the splice pattern).
func (g *Graph) RemoveOperator(op *Operator) error {
	idx := -1
	for i, existing := range g.operators {
		if existing == op {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Wrapf(ErrStructural, "RemoveOperator: operator %s not found in graph", op.guid)
	}
	for _, t := range op.inputs {
		t.removeTarget(op)
	}
	for _, t := range op.outputs {
		if t.source == op {
			t.source = nil
		}
	}
	g.operators = append(g.operators[:idx], g.operators[idx+1:]...)
	op.graph = nil
	g.sorted = false
	g.rebuildAdjacency()
	return nil
}

// GetInputs returns every tensor with no producing operator.
func (g *Graph) GetInputs() []*Tensor {
	var out []*Tensor
	for _, t := range g.tensors {
		if t.IsInput() {
			out = append(out, t)
		}
	}
	return out
}

// GetOutputs returns every tensor with no consuming operators.
func (g *Graph) GetOutputs() []*Tensor {
	var out []*Tensor
	for _, t := range g.tensors {
		if t.IsOutput() {
			out = append(out, t)
		}
	}
	return out
}

// TopoSort rearranges the operator list so every operator appears after
// all producers of its inputs, using a stable Kahn-style fixpoint: among
// ready operators, emission order follows the current list order, so the
// result is deterministic for a given input graph. Returns ErrCycle and
// leaves the graph unchanged if no order exists.
func (g *Graph) TopoSort() error {
	n := len(g.operators)
	emitted := make([]bool, n)
	order := make([]*Operator, 0, n)
	remaining := n

	for remaining > 0 {
		progressed := false
		for i, op := range g.operators {
			if emitted[i] {
				continue
			}
			if !allProducersEmitted(op, emitted, g.operators) {
				continue
			}
			emitted[i] = true
			order = append(order, op)
			remaining--
			progressed = true
		}
		if !progressed {
			return errors.Wrapf(ErrCycle, "TopoSort: %d of %d operators form a cycle", remaining, n)
		}
	}

	g.operators = order
	g.sorted = true
	return nil
}

// allProducersEmitted reports whether every predecessor of op has already
// been emitted (or op has no predecessors).
func allProducersEmitted(op *Operator, emitted []bool, all []*Operator) bool {
	for _, pred := range op.predecessors {
		idx := indexOf(all, pred)
		if idx < 0 || !emitted[idx] {
			return false
		}
	}
	return true
}

func indexOf(ops []*Operator, target *Operator) int {
	for i, op := range ops {
		if op == target {
			return i
		}
	}
	return -1
}

// ShapeInfer invokes each operator's kind-specific shape-inference
// function in topological order and overwrites any output whose shape
// differs. An unsorted graph is topologically sorted first, and a cycle
// is returned as ErrCycle. On a failure part-way through, the output
// shapes already rewritten for earlier operators are kept.
func (g *Graph) ShapeInfer() error {
	if !g.sorted {
		if err := g.TopoSort(); err != nil {
			return err
		}
	}
	for _, op := range g.operators {
		fn, ok := g.registry[op.kind]
		if !ok {
			return errors.Wrapf(ErrStructural, "ShapeInfer: no shape-inference function registered for kind %s", op.kind)
		}
		inputShapes := make([]Shape, len(op.inputs))
		for i, t := range op.inputs {
			inputShapes[i] = t.shape
		}
		outShapes, err := fn(inputShapes, op.attrs)
		if err != nil {
			return errors.Wrapf(err, "ShapeInfer: operator %s (%s)", op.guid, op.kind)
		}
		if len(outShapes) != len(op.outputs) {
			return errors.Wrapf(ErrStructural, "ShapeInfer: operator %s (%s) produced %d shapes for %d outputs", op.guid, op.kind, len(outShapes), len(op.outputs))
		}
		for i, s := range outShapes {
			if !op.outputs[i].shape.Equal(s) {
				op.outputs[i].shape = s
			}
		}
	}
	return nil
}

// DataMalloc plans the memory layout of every tensor in the current
// tensor-list order, then obtains the arena pointer exactly once — the
// first call to GetPtr — and binds each tensor's storage to an offset
// within it. TopoSort must already have succeeded.
func (g *Graph) DataMalloc() error {
	if !g.sorted {
		return errors.Wrap(ErrStructural, "DataMalloc: graph is not topologically sorted")
	}

	offsets := make([]int, len(g.tensors))
	for i, t := range g.tensors {
		offset, err := g.allocator.Alloc(t.Bytes())
		if err != nil {
			return errors.Wrapf(err, "DataMalloc: tensor %s", t.fuid)
		}
		offsets[i] = offset
	}

	ptr, err := g.allocator.GetPtr()
	if err != nil {
		return errors.Wrap(err, "DataMalloc: runtime allocation failed")
	}

	for i, t := range g.tensors {
		t.storage = &Storage{Offset: offsets[i], Bytes: t.Bytes()}
	}
	g.logf("DataMalloc: committed %s, peak=%d bytes, %d tensors", ptr.String(), g.allocator.Peak(), len(g.tensors))
	return nil
}

// CheckValid re-establishes (by checking, never mutating) every invariant
// of SPEC_FULL.md §3: tensor/operator membership, bidirectional link
// consistency, fuid uniqueness, and the forbidden empty-source/empty-
// targets tensor.
func (g *Graph) CheckValid() error {
	tensorSet := make(map[*Tensor]bool, len(g.tensors))
	for _, t := range g.tensors {
		tensorSet[t] = true
	}
	opSet := make(map[*Operator]bool, len(g.operators))
	for _, op := range g.operators {
		opSet[op] = true
	}

	seenFUID := make(map[uuid.UUID]bool, len(g.tensors))
	for _, t := range g.tensors {
		if seenFUID[t.fuid] {
			return errors.Wrapf(ErrStructural, "CheckValid: duplicate fuid %s", t.fuid)
		}
		seenFUID[t.fuid] = true

		if t.source == nil && len(t.targets) == 0 {
			return errors.Wrapf(ErrStructural, "CheckValid: tensor %s has no source and no targets", t.fuid)
		}
		if t.source != nil && !opSet[t.source] {
			return errors.Wrapf(ErrStructural, "CheckValid: tensor %s source not in graph", t.fuid)
		}
		for _, target := range t.targets {
			if !opSet[target] {
				return errors.Wrapf(ErrStructural, "CheckValid: tensor %s target not in graph", t.fuid)
			}
		}
	}

	for _, op := range g.operators {
		for _, t := range op.inputs {
			if !tensorSet[t] {
				return errors.Wrapf(ErrStructural, "CheckValid: operator %s input not in graph", op.guid)
			}
			if indexOfTensor(t.targets, op) < 0 {
				return errors.Wrapf(ErrStructural, "CheckValid: operator %s missing from input tensor's targets", op.guid)
			}
		}
		for _, t := range op.outputs {
			if !tensorSet[t] {
				return errors.Wrapf(ErrStructural, "CheckValid: operator %s output not in graph", op.guid)
			}
			if t.source != op {
				return errors.Wrapf(ErrStructural, "CheckValid: operator %s is not output tensor's source", op.guid)
			}
		}
		for _, p := range op.predecessors {
			if !opSet[p] {
				return errors.Wrapf(ErrStructural, "CheckValid: operator %s predecessor not in graph", op.guid)
			}
		}
		for _, s := range op.successors {
			if !opSet[s] {
				return errors.Wrapf(ErrStructural, "CheckValid: operator %s successor not in graph", op.guid)
			}
		}
		if !predecessorsMatch(op) {
			return errors.Wrapf(ErrStructural, "CheckValid: operator %s predecessor set disagrees with its inputs' sources", op.guid)
		}
		if !successorsMatch(op) {
			return errors.Wrapf(ErrStructural, "CheckValid: operator %s successor set disagrees with its outputs' targets", op.guid)
		}
	}
	return nil
}

func indexOfTensor(ts []*Operator, target *Operator) int {
	for i, t := range ts {
		if t == target {
			return i
		}
	}
	return -1
}

func predecessorsMatch(op *Operator) bool {
	want := make(map[*Operator]bool)
	for _, t := range op.inputs {
		if t.source != nil {
			want[t.source] = true
		}
	}
	if len(want) != len(op.predecessors) {
		return false
	}
	for _, p := range op.predecessors {
		if !want[p] {
			return false
		}
	}
	return true
}

func successorsMatch(op *Operator) bool {
	want := make(map[*Operator]bool)
	for _, t := range op.outputs {
		for _, c := range t.targets {
			want[c] = true
		}
	}
	if len(want) != len(op.successors) {
		return false
	}
	for _, s := range op.successors {
		if !want[s] {
			return false
		}
	}
	return true
}

// String renders a textual diagnostic: for each operator, its guid,
// predecessor guids, successor guids, and a kind-specific descriptor.
// Exact spacing/punctuation is not contractual.
func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph: %d tensors, %d operators, sorted=%v\n", len(g.tensors), len(g.operators), g.sorted)
	for _, op := range g.operators {
		fmt.Fprintf(&b, "  op %s %s preds=%s succs=%s inputs=%s outputs=%s attrs=%+v\n",
			op.guid, op.kind, guids(op.predecessors), guids(op.successors),
			fuids(op.inputs), fuids(op.outputs), op.attrs)
	}
	return b.String()
}

func guids(ops []*Operator) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = op.guid.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func fuids(ts []*Tensor) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.fuid.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (g *Graph) logf(event string, args ...any) {
	logger.Log.Debug().Msgf(event, args...)
}
