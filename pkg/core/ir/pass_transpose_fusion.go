package ir

// TransposeMatMulFusion detects a Transpose feeding a MatMul operand
// whose permutation swaps only the final two dimensions, and folds it
// into the MatMul's transA/transB flag instead of materializing the
// transposed tensor. It checks the A operand first; B is only
// considered when A does not match, mirroring how a hand-written
// kernel would special-case the common left-operand transpose before
// falling back to the right operand.
type TransposeMatMulFusion struct{}

func (TransposeMatMulFusion) Name() string { return "transpose-matmul-fusion" }

func (TransposeMatMulFusion) Apply(g *Graph) (bool, error) {
	for _, op := range g.operators {
		if op.kind != KindMatMul || len(op.inputs) != 2 {
			continue
		}
		mm, ok := op.attrs.(MatMulAttrs)
		if !ok {
			continue
		}

		if changed, err := fuseTransposedOperand(g, op, mm, 0); err != nil || changed {
			return changed, err
		}
		if changed, err := fuseTransposedOperand(g, op, mm, 1); err != nil || changed {
			return changed, err
		}
	}
	return false, nil
}

// fuseTransposedOperand attempts the fusion for op.inputs[operandIdx]
// (0 is A/transA, 1 is B/transB).
func fuseTransposedOperand(g *Graph, op *Operator, mm MatMulAttrs, operandIdx int) (bool, error) {
	operand := op.inputs[operandIdx]
	src := operand.source
	if src == nil || src.kind != KindTranspose || len(src.inputs) != 1 {
		return false, nil
	}
	tr, ok := src.attrs.(TransposeAttrs)
	if !ok || !lastTwoDimSwap(tr.Permute) {
		return false, nil
	}

	transposeInput := src.inputs[0]
	newAttrs := mm
	if operandIdx == 0 {
		newAttrs.TransA = !mm.TransA
	} else {
		newAttrs.TransB = !mm.TransB
	}

	newInputs := op.Inputs()
	newInputs[operandIdx] = transposeInput
	newOutputs := op.Outputs()

	if err := g.RemoveOperator(op); err != nil {
		return false, err
	}
	if _, err := g.AddOperator(KindMatMul, newAttrs, newInputs, newOutputs); err != nil {
		return false, err
	}

	if len(operand.targets) == 0 {
		if err := g.RemoveOperator(src); err != nil {
			return false, err
		}
		if err := g.RemoveTensor(operand); err != nil {
			return false, err
		}
	}
	return true, nil
}
