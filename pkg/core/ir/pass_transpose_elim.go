package ir

// InverseTransposeElimination detects two chained Transpose operators
// whose permutations compose to the identity and splices both out,
// reconnecting every consumer of the second Transpose's output directly
// to the first Transpose's input. Apply performs at most one such
// splice per call; Optimize restarts the scan to find the next one.
type InverseTransposeElimination struct{}

func (InverseTransposeElimination) Name() string { return "inverse-transpose-elimination" }

func (InverseTransposeElimination) Apply(g *Graph) (bool, error) {
	for _, op := range g.operators {
		if op.kind != KindTranspose || len(op.outputs) != 1 {
			continue
		}
		mid := op.outputs[0]
		consumer, ok := singleConsumer(mid)
		if !ok || consumer.kind != KindTranspose || len(consumer.outputs) != 1 {
			continue
		}

		p, ok := op.attrs.(TransposeAttrs)
		if !ok {
			continue
		}
		q, ok := consumer.attrs.(TransposeAttrs)
		if !ok {
			continue
		}
		if len(p.Permute) != len(q.Permute) {
			continue
		}
		composed, err := composePermutations(p.Permute, q.Permute)
		if err != nil || !isIdentityPermutation(composed) {
			continue
		}

		src := op.inputs[0]
		final := consumer.outputs[0]

		// Reconnect every consumer of final to read src instead.
		for _, downstream := range final.targets {
			for i, in := range downstream.inputs {
				if in == final {
					downstream.inputs[i] = src
				}
			}
			src.addTarget(downstream)
		}
		final.targets = nil

		if err := g.RemoveOperator(consumer); err != nil {
			return false, err
		}
		if err := g.RemoveOperator(op); err != nil {
			return false, err
		}
		if err := g.RemoveTensor(mid); err != nil {
			return false, err
		}
		if err := g.RemoveTensor(final); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
