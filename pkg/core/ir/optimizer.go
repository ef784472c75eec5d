package ir

import (
	"github.com/pkg/errors"

	"github.com/itohio/tinfer/pkg/logger"
)

// Pass is a single algebraic rewrite over a Graph. Apply must either
// complete a rewrite fully — restoring every invariant of SPEC_FULL.md
// §3 — or not mutate the graph at all, and report which it did via the
// returned bool.
type Pass interface {
	Name() string
	Apply(g *Graph) (changed bool, err error)
}

// DefaultPasses returns the two passes specified for the core: inverse-
// transpose elimination and transpose-into-matmul fusion.
func DefaultPasses() []Pass {
	return []Pass{
		InverseTransposeElimination{},
		TransposeMatMulFusion{},
	}
}

// Optimize runs passes in a loop until a full iteration reports no
// change. A nil passes argument runs DefaultPasses. Each pass is itself
// written to perform at most one rewrite per Apply call and report it;
// restarting the scan after a change (rather than continuing to iterate
// a slice that rewrite may have mutated) is this loop's job, not the
// pass's.
func Optimize(g *Graph, passes ...Pass) error {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	for {
		changedThisRound := false
		for _, p := range passes {
			for {
				changed, err := p.Apply(g)
				if err != nil {
					return errors.Wrapf(err, "optimize: pass %s", p.Name())
				}
				if !changed {
					break
				}
				changedThisRound = true
				logger.Log.Debug().Str("pass", p.Name()).Msg("optimizer rewrite applied")
			}
		}
		if !changedThisRound {
			return nil
		}
	}
}
