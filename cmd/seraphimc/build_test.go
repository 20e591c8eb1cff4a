package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildCommandWritesIRPerModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.srm.ast.json"), []byte(addTwoThreeAST), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	manifest := `{
  "name": "demo",
  "version": "0.1.0",
  "entry_module": "main.srm.ast.json",
  "modules": ["main.srm.ast.json"],
  "build": {"optimize": true, "output_path": "dist"}
}`
	if err := os.WriteFile(filepath.Join(dir, "seraphim.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	if err := buildCommand([]string{dir}); err != nil {
		t.Fatalf("buildCommand: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "dist", "main.srm.ast.ir"))
	if err != nil {
		t.Fatalf("reading built IR: %v", err)
	}
	if len(out) == 0 {
		t.Errorf("expected non-empty IR output")
	}
}

func TestBuildCommandNoManifestDiscoversModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.srm.ast.json"), []byte(addTwoThreeAST), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := buildCommand([]string{dir}); err != nil {
		t.Fatalf("buildCommand: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "dist", "main.srm.ast.ir")); err != nil {
		t.Errorf("expected dist/main.srm.ast.ir to exist: %v", err)
	}
}
