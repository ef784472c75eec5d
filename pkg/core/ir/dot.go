package ir

import (
	"io"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

const dotGraphName = "G"

// WriteDOT renders the graph in Graphviz DOT format: one node per
// operator, labeled with its kind, and one edge per predecessor/
// successor link. Intended for debugging the optimizer and allocator,
// not as a stable machine-readable format.
func (g *Graph) WriteDOT(w io.Writer) error {
	gv := gographviz.NewGraph()
	if err := gv.SetName(dotGraphName); err != nil {
		return errors.Wrap(err, "WriteDOT: SetName")
	}
	if err := gv.SetDir(true); err != nil {
		return errors.Wrap(err, "WriteDOT: SetDir")
	}

	for _, op := range g.operators {
		attrs := map[string]string{"label": dotQuote(op.kind.String() + " " + op.guid.String()[:8])}
		if err := gv.AddNode(dotGraphName, dotQuote(op.guid.String()), attrs); err != nil {
			return errors.Wrapf(err, "WriteDOT: AddNode %s", op.guid)
		}
	}
	for _, op := range g.operators {
		for _, succ := range op.successors {
			if err := gv.AddEdge(dotQuote(op.guid.String()), dotQuote(succ.guid.String()), true, nil); err != nil {
				return errors.Wrapf(err, "WriteDOT: AddEdge %s->%s", op.guid, succ.guid)
			}
		}
	}

	_, err := io.WriteString(w, gv.String())
	return err
}

func dotQuote(s string) string {
	return `"` + s + `"`
}
