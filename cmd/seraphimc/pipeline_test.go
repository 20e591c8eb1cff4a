package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const addTwoThreeAST = `{
  "decls": [
    {
      "kind": "fn",
      "pos": {},
      "name": "f",
      "params": [],
      "return_type": {"Kind": 0, "Name": "i32"},
      "effects": [],
      "body": [
        {
          "kind": "return",
          "pos": {},
          "value": {
            "kind": "binary",
            "pos": {},
            "op": "+",
            "left": {"kind": "int", "pos": {}, "value": 2},
            "right": {"kind": "int", "pos": {}, "value": 3}
          }
        }
      ]
    }
  ]
}`

func writeFixture(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRunPipelineLowerOnly(t *testing.T) {
	path := writeFixture(t, "add.srm.ast.json", addTwoThreeAST)

	result, err := runPipeline(path, false, false)
	if err != nil {
		t.Fatalf("runPipeline: %v", err)
	}
	if len(result.Module.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(result.Module.Functions))
	}
	if got := result.Module.Functions[0].Name; got != "f" {
		t.Errorf("function name = %q, want f", got)
	}
}

func TestRunPipelineVerifyAndOptimize(t *testing.T) {
	path := writeFixture(t, "add.srm.ast.json", addTwoThreeAST)

	result, err := runPipeline(path, true, true)
	if err != nil {
		t.Fatalf("runPipeline: %v", err)
	}
	fn := result.Module.Functions[0]
	for _, b := range fn.Blocks {
		for instr := b.First; instr != nil; instr = instr.Next {
			if instr.Opcode.String() == "add" {
				t.Errorf("constant folding should have removed the add instruction, found one")
			}
		}
	}
}

func TestRunPipelineMalformedJSONFails(t *testing.T) {
	path := writeFixture(t, "broken.srm.ast.json", "{not json")

	if _, err := runPipeline(path, false, false); err == nil {
		t.Errorf("expected an error decoding malformed AST JSON")
	}
}

func TestRunPipelineMissingFileFails(t *testing.T) {
	if _, err := runPipeline(filepath.Join(t.TempDir(), "missing.srm.ast.json"), false, false); err == nil {
		t.Errorf("expected an error reading a missing file")
	}
}

func TestLowerCommandPrintsIR(t *testing.T) {
	path := writeFixture(t, "add.srm.ast.json", addTwoThreeAST)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	if err := lowerCommand([]string{path}); err != nil {
		t.Fatalf("lowerCommand: %v", err)
	}
	w.Close()

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	out := string(buf[:n])
	if !strings.Contains(out, "fn f") {
		t.Errorf("output = %q, want it to contain the function header", out)
	}
}
