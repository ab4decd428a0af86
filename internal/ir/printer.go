package ir

import (
	"fmt"
	"strings"
)

// Print renders a Module in a textual form close to the IR syntax
// internal/parser accepts, for the REPL. Function parameters are
// printed as types only and attributes in their String form, so the
// output does not always parse back.
func Print(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s {\n", m.Name)
	for _, fn := range m.Functions {
		printFunction(&b, fn)
	}
	b.WriteString("}\n")
	return b.String()
}

func printFunction(b *strings.Builder, fn *Function) {
	prefix := ""
	if fn.Kind == KindNative {
		prefix += "native "
	} else if fn.Kind == KindSync {
		prefix += "sync "
	}

	args := make([]string, len(fn.ArgTypes))
	for i, t := range fn.ArgTypes {
		args[i] = t.String()
	}
	results := make([]string, len(fn.ResultType))
	for i, t := range fn.ResultType {
		results[i] = t.String()
	}

	fmt.Fprintf(b, "  %sfunc %s(%s) -> (%s)", prefix, fn.Name, strings.Join(args, ", "), strings.Join(results, ", "))
	if fn.Region == nil {
		b.WriteString("\n")
		return
	}
	b.WriteString(" {\n")
	printRegion(b, fn.Region, "    ")
	b.WriteString("  }\n")
}

func printRegion(b *strings.Builder, r *Region, indent string) {
	for _, blk := range r.Blocks {
		for _, op := range blk.Ops {
			printOp(b, op, indent)
		}
	}
}

func printOp(b *strings.Builder, op *Op, indent string) {
	if op.IsReturn() {
		fmt.Fprintf(b, "%sreturn %s\n", indent, joinValues(op.Operands))
		return
	}
	results := make([]string, len(op.Results))
	for i, v := range op.Results {
		results[i] = v.Name
	}
	lhs := ""
	if len(results) > 0 {
		lhs = strings.Join(results, ", ") + " = "
	}
	fmt.Fprintf(b, "%s%s%s(%s)", indent, lhs, op.Opcode, joinValues(op.Operands))
	if len(op.Attrs) > 0 {
		parts := make([]string, len(op.Attrs))
		for i, a := range op.Attrs {
			parts[i] = a.Name + "=" + a.Attr.String()
		}
		fmt.Fprintf(b, " {%s}", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	for _, region := range op.Regions {
		b.WriteString(indent + "{\n")
		printRegion(b, region, indent+"  ")
		b.WriteString(indent + "}\n")
	}
}

func joinValues(vs []*Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Name
	}
	return strings.Join(parts, ", ")
}
