package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"

	"seraphim/internal/ast"
	"seraphim/internal/ir"
	"seraphim/internal/lowering"
	"seraphim/internal/optimize"
	"seraphim/internal/verify"
)

// pipelineResult carries the outputs every subcommand needs: the
// lowered module and the lowering context (for its diagnostics bag).
// A verifier failure is returned by runPipeline as a separate error
// (§7: "the verifier and optimizer are fail-fast: the first failure
// aborts the pass").
type pipelineResult struct {
	Module *ir.Module
	Ctx    *lowering.Context
}

// runPipeline reads a *.srm.ast.json file, lowers it, and optionally
// verifies and optimizes every function — the shared core behind
// lower/verify/optimize/dump-ir/build (§6.1-AMBIENT).
func runPipeline(path string, doVerify, doOptimize bool) (*pipelineResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}
	am, err := ast.Decode(data)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decoding AST from %s", path)
	}

	moduleName := path
	m := ir.NewModule(moduleName)
	ctx := lowering.LowerModule(m, am)

	if doVerify {
		if err := verify.Module(m); err != nil {
			return &pipelineResult{Module: m, Ctx: ctx}, fmt.Errorf("verify: %w", err)
		}
	}
	if doOptimize {
		for _, fn := range m.Functions {
			optimize.FoldConstants(fn)
			optimize.EliminateDeadCode(fn)
		}
		if doVerify {
			if err := verify.Module(m); err != nil {
				return &pipelineResult{Module: m, Ctx: ctx}, fmt.Errorf("verify after optimize: %w", err)
			}
		}
	}
	return &pipelineResult{Module: m, Ctx: ctx}, nil
}
