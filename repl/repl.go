// Package repl is a line-based interactive parser/printer loop grounded
// on the teacher's repl/repl.go: read a chunk of source, parse it,
// print back what was understood. Because one IR function spans many
// lines, a chunk here is everything typed since the last blank line
// rather than a single line, and what gets echoed is the resolved,
// pretty-printed module instead of an AST dump.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"bef/internal/bef/entities"
	"bef/internal/ir"
	"bef/internal/parser"
)

const PROMPT = "bef> "

// Start runs the loop until in is exhausted. Each blank-line-terminated
// chunk is treated as one standalone module: parsed, resolved, and
// (if it passes pass 1) pretty-printed back with its entity counts.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder

	flush := func() {
		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			return
		}
		fmt.Fprint(out, render(src))
	}

	fmt.Fprint(out, PROMPT)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			fmt.Fprint(out, PROMPT)
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()
}

func render(src string) string {
	g, parseErr := parser.ParseString("<repl>", src)
	if parseErr != nil {
		return fmt.Sprintf("parse error: %s at %s\n", parseErr.Message, parseErr.Position)
	}

	mod, err := parser.Resolve("<repl>", g)
	if err != nil {
		return fmt.Sprintf("resolve error: %v\n", err)
	}

	table, err := entities.Collect(mod, entities.Options{})
	if err != nil {
		return fmt.Sprintf("entity error: %v\n", err)
	}

	var b strings.Builder
	b.WriteString(ir.Print(mod))
	b.WriteString(fmt.Sprintf("; %d function(s), %d kernel(s), %d string(s)\n",
		len(mod.Functions), len(table.Kernels.All()), len(table.Strings.All())))
	return b.String()
}
