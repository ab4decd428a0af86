// Command bef-tool subsumes the teacher's cmd/kanso-cli: it parses one
// textual IR file and either compiles it to a BEF image or interprets
// it in-process against the async runtime, reporting a colored
// success/failure summary with elapsed time exactly like the teacher.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"bef/internal/async"
	"bef/internal/bef"
	"bef/internal/bef/entities"
	"bef/internal/diag"
	"bef/internal/interp"
	"bef/internal/ir"
	"bef/internal/parser"
	"bef/internal/runtime"
	"bef/internal/telemetry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "compile":
		os.Exit(runCompile(os.Args[2:]))
	case "run":
		os.Exit(runRun(os.Args[2:]))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  bef-tool compile <file.tir> -o <out.bef>")
	fmt.Println("  bef-tool run <file.tir>")
}

func runCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("o", "", "output .bef path")
	fs.Parse(args)
	path := fs.Arg(0)
	if fs.NArg() > 1 {
		// Flags after the input path (`<file.tir> -o <out.bef>`).
		fs.Parse(fs.Args()[1:])
	}
	if path == "" || *out == "" {
		fmt.Println("Usage: bef-tool compile <file.tir> -o <out.bef>")
		return 1
	}

	timer := telemetry.StartTimer()
	source, mod, err := parseAndResolve(path)
	if err != nil {
		return reportCompileError(path, source, timer, err)
	}

	image, err := bef.Compile(mod, bef.Options{})
	if err != nil {
		return reportCompileError(path, source, timer, err)
	}

	if err := os.WriteFile(*out, image, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *out, err)
		return 1
	}

	color.Green("Compiled %s to %s (%d bytes) in %s", path, *out, len(image), telemetry.FormatDuration(timer.Elapsed()))
	return 0
}

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Println("Usage: bef-tool run <file.tir>")
		return 1
	}
	path := fs.Arg(0)

	timer := telemetry.StartTimer()
	source, mod, err := parseAndResolve(path)
	if err != nil {
		return reportCompileError(path, source, timer, err)
	}

	if _, err := entities.Collect(mod, entities.Options{}); err != nil {
		return reportCompileError(path, source, timer, err)
	}

	rt := runtime.New(4)
	it := interp.New(rt, mod)

	results, err := it.Run(nil, nil)
	if err != nil {
		return reportRuntimeError(path, timer, err)
	}

	done := make(chan struct{})
	async.WhenAll(results, func() { close(done) })
	<-done

	var failed error
	for i, v := range results {
		if v.IsError() {
			failed = v.GetError()
		}
		fmt.Printf("result %d: %s\n", i, formatResult(v))
	}
	if failed != nil {
		return reportRuntimeError(path, timer, failed)
	}

	color.Green("Ran %s in %s", path, telemetry.FormatDuration(timer.Elapsed()))
	return 0
}

func parseAndResolve(path string) (string, *ir.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	g, parseErr := parser.ParseString(path, string(source))
	if parseErr != nil {
		return string(source), nil, &diag.CompileError{Message: parseErr.Message, Position: parseErr.Position}
	}

	mod, err := parser.Resolve(path, g)
	if err != nil {
		return string(source), nil, &diag.CompileError{Message: err.Error()}
	}
	return string(source), mod, nil
}

func reportCompileError(path, source string, timer telemetry.Timer, err error) int {
	reporter := diag.NewReporter(path, source)
	if d, ok := err.(diag.Diagnostic); ok {
		fmt.Print(reporter.Format(d))
	} else {
		fmt.Print(reporter.Format(&diag.CompileError{Message: err.Error()}))
	}
	color.Red("Compilation failed after %s", telemetry.FormatDuration(timer.Elapsed()))
	return 1
}

func reportRuntimeError(path string, timer telemetry.Timer, err error) int {
	fmt.Fprintf(os.Stderr, "%s: runtime error: %v\n", path, err)
	color.Red("Run failed after %s", telemetry.FormatDuration(timer.Elapsed()))
	return 1
}

func formatResult(v *async.Value) string {
	if v.IsError() {
		return fmt.Sprintf("error: %v", v.GetError())
	}
	payload, _ := async.Get[any](v)
	switch p := payload.(type) {
	case *runtime.TensorHandle:
		if meta, ok := p.ConcreteMetadata(); ok {
			return fmt.Sprintf("tensorhandle<%s>", meta)
		}
		return "tensorhandle<pending>"
	default:
		return fmt.Sprintf("%v", p)
	}
}
