package entities

import (
	"fmt"

	"bef/internal/ir"
)

// Options controls whether optional sidecar sections are collected.
type Options struct {
	// IncludeOptionalSections enables the attribute-types,
	// attribute-names and register-types sections (spec §4.7).
	IncludeOptionalSections bool
}

// FunctionEntry is one function-table row: either a source-level
// function or an anonymous function synthesized from a nested region
// (spec §4.2 "Region recursion").
type FunctionEntry struct {
	Name        string
	Kind        ir.FunctionKind
	ArgTypes    []*ir.Type
	ResultTypes []*ir.Type
	Region      *ir.Region // nil for KindNative

	// OwningOpLocationIndex is the Table.Locations index of the op whose
	// nested region this function was synthesized from, -1 for
	// source-level functions (spec §4.6 "enclosing location offset").
	OwningOpLocationIndex int
}

// OpInfo carries the per-op facts the function emitter (C6) needs that
// pass 1 already had to compute while walking: its location index, its
// non-strict flag, its debug name, and the resolved function references
// split into the two categories the kernel record keeps distinct (spec
// §4.6 "attribute-function-refs followed by region-function indices").
type OpInfo struct {
	LocationIndex     int // index into Table.Locations, -1 if none
	NonStrict         bool
	DebugName         string
	AttrFuncRefs      []string // symbol-ref attribute targets, in Attrs order, plus direct FuncRefs operands
	RegionFuncIndices []int    // function-table index per op.Regions entry, in order
	// PooledAttrKeys/PooledAttrNames mirror op.Attrs, excluding
	// stripped special/fn-ref attributes, in kernel-record order.
	PooledAttrKeys  []string
	PooledAttrNames []string
}

// Location is one (filename, line, column) triple.
type Location struct {
	FilenameIndex int
	Line          int
	Column        int
}

// Table is the result of pass 1: every interned entity plus the facts
// pass 2 and the function emitter need about each op.
type Table struct {
	Strings   *StringPool
	Filenames *StringPool
	Types     *TypePool
	Kernels   *KernelPool
	Attrs     *AttrPool

	// AttrValues is index-aligned with Attrs' pool order: the actual
	// Attribute payload for pool index i.
	AttrValues []ir.Attribute

	Functions []*FunctionEntry
	// FuncIndexByName maps a function's source name to its index in
	// Functions. Anonymous functions are not registered here.
	FuncIndexByName map[string]int

	Locations []Location

	Ops map[*ir.Op]*OpInfo

	opts Options
}

// Collect performs pass 1: walk every function's region, interning
// entities and validating IR well-formedness. It returns the first
// fatal error encountered (spec §7 "stops producing output on the
// first fatal condition").
func Collect(mod *ir.Module, opts Options) (*Table, error) {
	t := &Table{
		Strings:         NewStringPool(),
		Filenames:       NewStringPool(),
		Types:           NewTypePool(),
		Kernels:         NewKernelPool(),
		Attrs:           NewAttrPool(),
		FuncIndexByName: make(map[string]int),
		Ops:             make(map[*ir.Op]*OpInfo),
		opts:            opts,
	}

	c := &collector{table: t}

	for _, fn := range mod.Functions {
		if _, dup := t.FuncIndexByName[fn.Name]; dup {
			return nil, fmt.Errorf("duplicate function name: %s", fn.Name)
		}
		entry := &FunctionEntry{Name: fn.Name, Kind: fn.Kind, ArgTypes: fn.ArgTypes, ResultTypes: fn.ResultType, Region: fn.Region, OwningOpLocationIndex: -1}
		t.FuncIndexByName[fn.Name] = len(t.Functions)
		t.Functions = append(t.Functions, entry)
		t.Strings.Add(fn.Name)
		for _, at := range fn.ArgTypes {
			t.Types.Add(at.Name)
			t.Strings.Add(at.Name)
		}
		for _, rt := range fn.ResultType {
			t.Types.Add(rt.Name)
			t.Strings.Add(rt.Name)
		}
	}
	t.Strings.Add("")

	for i, fn := range mod.Functions {
		entry := t.Functions[i]
		switch fn.Kind {
		case ir.KindNative:
			if fn.Region != nil {
				return nil, fmt.Errorf("function %s: native function must not have a region body", fn.Name)
			}
			continue
		default:
			if fn.Region == nil {
				return nil, fmt.Errorf("function %s: external function is not native", fn.Name)
			}
			if err := c.region(fn.Region, entry); err != nil {
				return nil, err
			}
		}
	}

	for name := range c.fnAttrUses {
		if _, ok := t.FuncIndexByName[name]; !ok {
			return nil, fmt.Errorf("function not defined: %s", name)
		}
	}

	return t, nil
}

type collector struct {
	table      *Table
	fnAttrUses map[string]bool
	anonCount  int
}

func (c *collector) region(r *ir.Region, entry *FunctionEntry) error {
	if len(r.Blocks) != 1 {
		return fmt.Errorf("function %s: multi-block regions not supported", entry.Name)
	}
	block := r.Blocks[0]
	defined := make(map[*ir.Value]bool, len(r.Args)+len(block.Ops))
	for _, a := range r.Args {
		defined[a] = true
		c.table.Types.Add(a.Type.Name)
		c.table.Strings.Add(a.Type.Name)
	}

	returnIdx := -1
	for i, op := range block.Ops {
		if op.IsReturn() {
			returnIdx = i
			break
		}
	}
	if returnIdx == -1 {
		return fmt.Errorf("function %s: function must end in a return", entry.Name)
	}
	if returnIdx != len(block.Ops)-1 {
		return fmt.Errorf("function %s: return op must be at the end of its block", entry.Name)
	}

	for _, op := range block.Ops {
		if op.IsReturn() {
			for _, v := range op.Operands {
				if !defined[v] {
					return fmt.Errorf("function %s: references to outer regions not supported", entry.Name)
				}
			}
			continue
		}
		if err := c.op(op, entry, defined); err != nil {
			return err
		}
		for _, res := range op.Results {
			defined[res] = true
		}
	}

	if entry.Kind == ir.KindSync {
		seen := make(map[*ir.Value]bool)
		argSet := make(map[*ir.Value]bool, len(r.Args))
		for _, a := range r.Args {
			argSet[a] = true
		}
		for _, v := range block.Ops[returnIdx].Operands {
			if argSet[v] {
				return fmt.Errorf("function %s: sync function must not return a block argument", entry.Name)
			}
			if seen[v] {
				return fmt.Errorf("function %s: sync function return operand used more than once", entry.Name)
			}
			seen[v] = true
		}
	}

	return nil
}

func (c *collector) op(op *ir.Op, entry *FunctionEntry, defined map[*ir.Value]bool) error {
	for _, v := range op.Operands {
		if !defined[v] {
			return fmt.Errorf("function %s: references to outer regions not supported", entry.Name)
		}
	}

	t := c.table
	t.Kernels.Add(op.Opcode)
	t.Strings.Add(op.Opcode)

	for _, v := range op.Results {
		t.Types.Add(v.Type.Name)
		t.Strings.Add(v.Type.Name)
	}

	info := &OpInfo{LocationIndex: -1, DebugName: op.DebugName}

	if op.Pos.Filename != "" {
		t.Filenames.Add(op.Pos.Filename)
		fileIdx := 0
		for i, f := range t.Filenames.All() {
			if f == op.Pos.Filename {
				fileIdx = i
				break
			}
		}
		info.LocationIndex = len(t.Locations)
		t.Locations = append(t.Locations, Location{FilenameIndex: fileIdx, Line: op.Pos.Line, Column: op.Pos.Column})
	}
	if op.DebugName != "" {
		t.Strings.Add(op.DebugName)
	}

	for _, na := range op.Attrs {
		if na.Name == ir.NonStrictAttrName {
			info.NonStrict = true
			continue
		}
		if _, isCost := na.Attr.(*ir.CostAttr); isCost || na.Name == ir.CostAttrName {
			continue
		}
		if sr, ok := na.Attr.(*ir.SymbolRefAttr); ok && !sr.TargetsCompiledModule() {
			c.addFnAttrUse(sr.FunctionName)
			info.AttrFuncRefs = append(info.AttrFuncRefs, sr.FunctionName)
			continue
		}
		if arr, ok := na.Attr.(*ir.ArrayAttr); ok && isAllFuncSymbolRefs(arr) {
			for _, el := range arr.Elements {
				sr := el.(*ir.SymbolRefAttr)
				c.addFnAttrUse(sr.FunctionName)
				info.AttrFuncRefs = append(info.AttrFuncRefs, sr.FunctionName)
			}
			continue
		}

		key := na.Attr.AttrKey()
		_, isNew := t.Attrs.Add(key)
		if isNew {
			t.AttrValues = append(t.AttrValues, na.Attr)
		}
		info.PooledAttrKeys = append(info.PooledAttrKeys, key)
		info.PooledAttrNames = append(info.PooledAttrNames, na.Name)

		if t.opts.IncludeOptionalSections {
			t.Strings.Add(na.Name)
		}
	}

	for _, name := range op.FuncRefs {
		c.addFnAttrUse(name)
		info.AttrFuncRefs = append(info.AttrFuncRefs, name)
	}

	for _, region := range op.Regions {
		c.anonCount++
		anonName := fmt.Sprintf("$anon%d", c.anonCount)
		argTypes := make([]*ir.Type, len(region.Args))
		for i, a := range region.Args {
			argTypes[i] = a.Type
		}
		var resultTypes []*ir.Type
		if len(region.Blocks) == 1 {
			last := region.Blocks[0].Ops
			if len(last) > 0 && last[len(last)-1].IsReturn() {
				for _, v := range last[len(last)-1].Operands {
					resultTypes = append(resultTypes, v.Type)
				}
			}
		}
		anonEntry := &FunctionEntry{Name: anonName, Kind: ir.KindAsync, ArgTypes: argTypes, ResultTypes: resultTypes, Region: region, OwningOpLocationIndex: info.LocationIndex}
		idx := len(t.Functions)
		t.Functions = append(t.Functions, anonEntry)
		t.Strings.Add(anonName)
		if err := c.region(region, anonEntry); err != nil {
			return err
		}
		info.RegionFuncIndices = append(info.RegionFuncIndices, idx)
	}

	t.Ops[op] = info
	return nil
}

func (c *collector) addFnAttrUse(name string) {
	if c.fnAttrUses == nil {
		c.fnAttrUses = make(map[string]bool)
	}
	c.fnAttrUses[name] = true
}

func isAllFuncSymbolRefs(arr *ir.ArrayAttr) bool {
	if len(arr.Elements) == 0 {
		return false
	}
	for _, el := range arr.Elements {
		sr, ok := el.(*ir.SymbolRefAttr)
		if !ok || sr.TargetsCompiledModule() {
			return false
		}
	}
	return true
}
