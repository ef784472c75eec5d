package ir

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// VerifyAcyclicGonum cross-checks this package's own Kahn-based cycle
// detection (TopoSort) against gonum's topological sort, built from the
// same operator successor edges. It does not mutate the graph or
// replace TopoSort — it exists so a caller who distrusts the
// hand-rolled Kahn loop has an independent second opinion available.
func VerifyAcyclicGonum(g *Graph) error {
	dg := simple.NewDirectedGraph()

	ids := make(map[*Operator]int64, len(g.operators))
	for i, op := range g.operators {
		id := int64(i)
		ids[op] = id
		dg.AddNode(simple.Node(id))
	}
	for _, op := range g.operators {
		from := simple.Node(ids[op])
		for _, succ := range op.successors {
			if succ == op {
				// gonum's simple graphs cannot hold a self edge; an operator
				// consuming its own output is a cycle on its own.
				return errors.Wrapf(ErrCycle, "VerifyAcyclicGonum: operator %s consumes its own output", op.guid)
			}
			to := simple.Node(ids[succ])
			if dg.HasEdgeFromTo(from.ID(), to.ID()) {
				continue
			}
			dg.SetEdge(dg.NewEdge(from, to))
		}
	}

	if _, err := topo.Sort(dg); err != nil {
		return errors.Wrapf(ErrCycle, "VerifyAcyclicGonum: %v", err)
	}
	return nil
}
