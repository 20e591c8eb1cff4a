// cmd/seraphimc/main.go
package main

import (
	"fmt"
	"os"

	"seraphim/internal/printer"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	rest := args[1:]

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		fmt.Println("seraphimc", version)
		return
	}

	var err error
	switch cmd {
	case "lower":
		err = lowerCommand(rest)
	case "verify":
		err = verifyCommand(rest)
	case "optimize":
		err = optimizeCommand(rest)
	case "dump-ir":
		err = dumpIRCommand(rest)
	case "build":
		err = buildCommand(rest)
	default:
		fmt.Fprintf(os.Stderr, "seraphimc: unknown command %q\n\n", cmd)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "seraphimc: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("seraphimc - Celestial IR middle-end driver")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  seraphimc lower <file.srm.ast.json>      Lower an AST module to IR and print it")
	fmt.Println("  seraphimc verify <file.srm.ast.json>     Lower and run the verifier")
	fmt.Println("  seraphimc optimize <file.srm.ast.json>    Lower, verify, fold constants, eliminate dead code")
	fmt.Println("  seraphimc dump-ir <file.srm.ast.json>     Print IR plus the struct/enum layout report")
	fmt.Println("  seraphimc build [project-dir]             Build every module named in seraphim.json")
	fmt.Println()
	fmt.Println("  seraphimc version                         Print the driver version")
	fmt.Println("  seraphimc help                             Show this message")
}

func requireOneArg(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: seraphimc %s", usage)
	}
	return args[0], nil
}

func lowerCommand(args []string) error {
	path, err := requireOneArg(args, "lower <file.srm.ast.json>")
	if err != nil {
		return err
	}
	result, err := runPipeline(path, false, false)
	if result != nil {
		printDiagnostics(os.Stderr, result.Ctx.Diags)
	}
	if err != nil {
		return err
	}
	fmt.Print(printer.New().PrintModule(result.Module))
	return nil
}

func verifyCommand(args []string) error {
	path, err := requireOneArg(args, "verify <file.srm.ast.json>")
	if err != nil {
		return err
	}
	result, err := runPipeline(path, true, false)
	if result != nil {
		printDiagnostics(os.Stderr, result.Ctx.Diags)
	}
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func optimizeCommand(args []string) error {
	path, err := requireOneArg(args, "optimize <file.srm.ast.json>")
	if err != nil {
		return err
	}
	result, err := runPipeline(path, true, true)
	if result != nil {
		printDiagnostics(os.Stderr, result.Ctx.Diags)
	}
	if err != nil {
		return err
	}
	fmt.Print(printer.New().PrintModule(result.Module))
	return nil
}

func dumpIRCommand(args []string) error {
	path, err := requireOneArg(args, "dump-ir <file.srm.ast.json>")
	if err != nil {
		return err
	}
	result, err := runPipeline(path, true, true)
	if result != nil {
		printDiagnostics(os.Stderr, result.Ctx.Diags)
	}
	if err != nil {
		return err
	}
	fmt.Print(printer.New().PrintModule(result.Module))
	fmt.Println()
	fmt.Print(printer.PrintLayoutReport(result.Module))
	return nil
}
