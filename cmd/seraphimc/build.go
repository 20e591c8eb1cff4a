package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"seraphim/internal/build"
	"seraphim/internal/printer"
)

// buildCommand compiles every module named by a seraphim.json manifest
// concurrently — one independent arena, lowering context, and
// verify/optimize pass per module, joined with errgroup the way a
// multi-file project build needs no shared mutable state between
// modules (§1-AMBIENT, §6.1-AMBIENT).
func buildCommand(args []string) error {
	projectRoot := "."
	if len(args) > 0 {
		projectRoot = args[0]
	}

	manifest, err := build.LoadManifest(projectRoot)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if len(manifest.Modules) == 0 {
		return fmt.Errorf("no modules to build in %s", projectRoot)
	}

	outDir := manifest.BuildConfig.OutputPath
	if outDir == "" {
		outDir = filepath.Join(projectRoot, "dist")
	} else if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(projectRoot, outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	g, _ := errgroup.WithContext(context.Background())
	for _, modulePath := range manifest.Modules {
		modulePath := modulePath
		g.Go(func() error {
			return buildOneModule(projectRoot, modulePath, outDir, manifest.BuildConfig.Optimize)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("built %d module(s) into %s\n", len(manifest.Modules), outDir)
	return nil
}

func buildOneModule(projectRoot, modulePath, outDir string, optimize bool) error {
	fullPath := build.ResolvedModulePath(projectRoot, modulePath)
	result, err := runPipeline(fullPath, true, optimize)
	if err != nil {
		if result != nil {
			printDiagnostics(os.Stderr, result.Ctx.Diags)
		}
		return fmt.Errorf("%s: %w", modulePath, err)
	}
	printDiagnostics(os.Stderr, result.Ctx.Diags)

	p := printer.New()
	text := p.PrintModule(result.Module)

	base := filepath.Base(modulePath)
	ext := filepath.Ext(base)
	outName := base[:len(base)-len(ext)] + ".ir"
	outPath := filepath.Join(outDir, outName)
	return os.WriteFile(outPath, []byte(text), 0o644)
}
