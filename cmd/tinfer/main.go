package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/itohio/tinfer/pkg/core/ir"
	"github.com/itohio/tinfer/pkg/logger"
)

func main() {
	help := flag.Bool("help", false, "Show help message")
	dotPath := flag.String("dot", "", "Write the optimized graph as Graphviz DOT to this path (empty skips)")
	skipOptimize := flag.Bool("no-optimize", false, "Skip the algebraic rewrite passes")

	flag.Parse()

	if *help {
		fmt.Println("tinfer - build, optimize, and plan memory for a small demo dataflow graph")
		fmt.Println()
		flag.PrintDefaults()
		return
	}

	g, err := buildDemoGraph()
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to build demo graph")
		os.Exit(1)
	}

	if err := g.TopoSort(); err != nil {
		logger.Log.Error().Err(err).Msg("topological sort failed")
		os.Exit(1)
	}
	if err := g.ShapeInfer(); err != nil {
		logger.Log.Error().Err(err).Msg("shape inference failed")
		os.Exit(1)
	}

	if !*skipOptimize {
		if err := ir.Optimize(g); err != nil {
			logger.Log.Error().Err(err).Msg("optimization failed")
			os.Exit(1)
		}
		// The rewrites clear the sorted flag that DataMalloc requires.
		if err := g.TopoSort(); err != nil {
			logger.Log.Error().Err(err).Msg("topological sort after optimization failed")
			os.Exit(1)
		}
	}

	if err := g.CheckValid(); err != nil {
		logger.Log.Error().Err(err).Msg("graph failed validation after optimization")
		os.Exit(1)
	}

	if err := g.DataMalloc(); err != nil {
		logger.Log.Error().Err(err).Msg("memory planning failed")
		os.Exit(1)
	}

	fmt.Println(g.String())
	fmt.Println(g.Allocator().Info())

	if *dotPath != "" {
		f, err := os.Create(*dotPath)
		if err != nil {
			logger.Log.Error().Err(err).Str("path", *dotPath).Msg("failed to create dot file")
			os.Exit(1)
		}
		defer f.Close()
		if err := g.WriteDOT(f); err != nil {
			logger.Log.Error().Err(err).Msg("failed to write dot file")
			os.Exit(1)
		}
		logger.Log.Info().Str("path", *dotPath).Msg("wrote graph DOT")
	}
}

// buildDemoGraph constructs x(2,3,4) --Transpose--> --Transpose--> feeding
// a MatMul whose left operand is itself a last-two-dims transpose, so a
// single Optimize call exercises both rewrite passes.
func buildDemoGraph() (*ir.Graph, error) {
	g := ir.NewGraph(nil, nil)

	x := g.AddTensor(ir.NewShape(2, 3, 4), ir.Float32)
	mid := g.AddTensor(ir.NewShape(2, 4, 3), ir.Float32)
	y := g.AddTensor(ir.NewShape(2, 3, 4), ir.Float32)

	if _, err := g.AddOperator(ir.KindTranspose, ir.TransposeAttrs{Permute: []int{0, 2, 1}}, []*ir.Tensor{x}, []*ir.Tensor{mid}); err != nil {
		return nil, err
	}
	if _, err := g.AddOperator(ir.KindTranspose, ir.TransposeAttrs{Permute: []int{0, 2, 1}}, []*ir.Tensor{mid}, []*ir.Tensor{y}); err != nil {
		return nil, err
	}

	aT := g.AddTensor(ir.NewShape(3, 2), ir.Float32)
	a := g.AddTensor(ir.NewShape(2, 3), ir.Float32)
	c := g.AddTensor(ir.NewShape(2, 2, 4), ir.Float32)

	if _, err := g.AddOperator(ir.KindTranspose, ir.TransposeAttrs{Permute: []int{1, 0}}, []*ir.Tensor{aT}, []*ir.Tensor{a}); err != nil {
		return nil, err
	}
	if _, err := g.AddOperator(ir.KindMatMul, ir.MatMulAttrs{}, []*ir.Tensor{a, y}, []*ir.Tensor{c}); err != nil {
		return nil, err
	}

	return g, nil
}
