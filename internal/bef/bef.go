// Package bef implements the module emitter (spec §4.7 / C7): the
// top-level orchestrator that runs pass 1 and pass 2 over a resolved
// ir.Module and produces the final BEF byte image.
package bef

import (
	"bef/internal/bef/attrs"
	"bef/internal/bef/emitter"
	"bef/internal/bef/entities"
	"bef/internal/bef/funcemit"
	"bef/internal/bef/streams"
	"bef/internal/ir"
)

// Options controls compilation. Strategy defaults to streams.SingleStream
// when nil.
type Options struct {
	entities.Options
	Strategy streams.Strategy
}

// Compile lowers mod into a BEF byte image (spec §4.7). On the first
// fatal well-formedness error it returns a nil image alongside the
// error, per spec §7 ("stops producing output on the first fatal
// condition").
func Compile(mod *ir.Module, opts Options) ([]byte, error) {
	strategy := opts.Strategy
	if strategy == nil {
		strategy = streams.SingleStream{}
	}

	table, err := entities.Collect(mod, opts.Options)
	if err != nil {
		return nil, err
	}
	index := entities.BuildIndex(table)

	// Location filenames: NUL-terminated, in the filename pool's
	// first-encounter order (indexed, not sorted).
	filenamesBody := joinNulTerminated(index.Filenames())

	// Location positions: one (filename-index, line, column) vbr
	// triple per location, recording each location's byte offset as it
	// is written.
	locBuf := emitter.New()
	locationOffset := make(map[int]int, len(table.Locations))
	for i, loc := range table.Locations {
		locationOffset[i] = locBuf.Len()
		locBuf.EmitVBR(uint64(loc.FilenameIndex))
		locBuf.EmitVBR(uint64(loc.Line))
		locBuf.EmitVBR(uint64(loc.Column))
	}

	// Debug info: unique debug names, NUL-terminated, first-encounter
	// order, each op's DebugName resolved to a byte offset.
	debugNames := collectDebugNames(table)
	debugInfoBody := joinNulTerminated(debugNames)
	debugInfoOffset := offsetsOf(debugNames)

	// Strings: sorted, NUL-terminated (spec §4.3).
	stringsBody := joinNulTerminated(index.SortedStrings())

	// Attributes, plus the offset map the function emitter needs.
	attrPool := attrs.Emit(table.AttrValues)
	attrOffset := make(map[string]int, len(attrPool.Offsets))
	for i, key := range table.Attrs.Keys() {
		attrOffset[key] = attrPool.Offsets[i]
	}

	// Kernels and types: vbr count, then vbr string-offset per name.
	kernelsBody := emitOffsetTable(table.Kernels.All(), index)
	typesBody := emitOffsetTable(table.Types.All(), index)

	// Function bodies, in table order. Each function's start offset
	// within the Functions section is padded to a 4-byte boundary so
	// its own kernel records (4-byte aligned relative to its own body)
	// land on a 4-byte boundary relative to the section too (spec §3
	// "every kernel record starts on a 4-byte boundary").
	functionsBuf := emitter.New()
	funcOffset := make([]int, len(table.Functions))
	regTypeIdxsByFunc := make([][]int, len(table.Functions))
	for i, entry := range table.Functions {
		funcOffset[i] = functionsBuf.Len()
		if entry.Region == nil {
			continue
		}
		enclosing := 0
		if entry.OwningOpLocationIndex >= 0 {
			enclosing = locationOffset[entry.OwningOpLocationIndex]
		}
		res := funcemit.Emit(entry, funcemit.Deps{
			Table:           table,
			AttrOffset:      attrOffset,
			DebugInfoOffset: debugInfoOffset,
			LocationOffset:  locationOffset,
			EnclosingLocOff: enclosing,
			Strategy:        strategy,
		})
		functionsBuf.EmitBytes(res.Body)
		functionsBuf.EmitAlignment(4)
		regTypeIdxsByFunc[i] = res.RegisterTypeIdxs
	}
	functionsBody := functionsBuf.Bytes()

	// Function index: buffered after function bodies, since its entries
	// reference offsets only known once the bodies are emitted (spec
	// §4.7's resolution of the function-index/functions ordering).
	fnIndexBuf := emitter.New()
	fnIndexBuf.EmitVBR(uint64(len(table.Functions)))
	for i, entry := range table.Functions {
		fnIndexBuf.EmitByte(funcKindTag(entry.Kind))
		fnIndexBuf.EmitVBR(uint64(funcOffset[i]))
		fnIndexBuf.EmitVBR(uint64(index.StringOffset(entry.Name)))
		fnIndexBuf.EmitVBR(uint64(len(entry.ArgTypes)))
		for _, at := range entry.ArgTypes {
			typeIdx, _ := table.Types.IndexOf(at.Name)
			fnIndexBuf.EmitVBR(uint64(typeIdx))
		}
		fnIndexBuf.EmitVBR(uint64(len(entry.ResultTypes)))
		for _, rt := range entry.ResultTypes {
			typeIdx, _ := table.Types.IndexOf(rt.Name)
			fnIndexBuf.EmitVBR(uint64(typeIdx))
		}
	}
	fnIndexBody := fnIndexBuf.Bytes()

	out := emitter.New()
	out.EmitByte(MagicByte1)
	out.EmitByte(MagicByte2)
	out.EmitByte(VersionByte)

	out.EmitSection(SectionLocationFilenames, filenamesBody, 1)
	out.EmitSection(SectionLocationPositions, locBuf.Bytes(), 1)
	out.EmitSection(SectionDebugInfo, debugInfoBody, 1)
	out.EmitSection(SectionStrings, stringsBody, 1)
	out.EmitSection(SectionAttributes, attrPool.Body, attrBufAlignment(attrPool))
	out.EmitSection(SectionKernels, kernelsBody, 1)
	out.EmitSection(SectionTypes, typesBody, 1)
	out.EmitSection(SectionFunctionIndex, fnIndexBody, 1)
	out.EmitSection(SectionFunctions, functionsBody, 4)

	if opts.IncludeOptionalSections {
		out.EmitSection(SectionAttributeTypes, emitAttributeTypes(attrPool), 1)
		out.EmitSection(SectionAttributeNames, emitAttributeNames(table, index), 1)
		out.EmitSection(SectionRegisterTypes, emitRegisterTypes(regTypeIdxsByFunc), 1)
	}

	return out.Bytes(), nil
}

func funcKindTag(k ir.FunctionKind) byte {
	switch k {
	case ir.KindNative:
		return FuncKindNative
	case ir.KindSync:
		return FuncKindSync
	default:
		return FuncKindAsync
	}
}

func joinNulTerminated(strs []string) []byte {
	e := emitter.New()
	for _, s := range strs {
		e.EmitBytes([]byte(s))
		e.EmitByte(0)
	}
	return e.Bytes()
}

// collectDebugNames gathers unique op debug names across every function
// in first-encounter (table, then program) order.
func collectDebugNames(table *entities.Table) []string {
	var names []string
	seen := make(map[string]bool)
	for _, entry := range table.Functions {
		if entry.Region == nil {
			continue
		}
		for _, block := range entry.Region.Blocks {
			for _, op := range block.Ops {
				if op.DebugName == "" || seen[op.DebugName] {
					continue
				}
				seen[op.DebugName] = true
				names = append(names, op.DebugName)
			}
		}
	}
	return names
}

func offsetsOf(strs []string) map[string]int {
	m := make(map[string]int, len(strs))
	offset := 0
	for _, s := range strs {
		m[s] = offset
		offset += len(s) + 1
	}
	return m
}

// emitOffsetTable writes a vbr count followed by, for each name in
// order, the string's byte offset in the Strings section.
func emitOffsetTable(names []string, index *entities.Index) []byte {
	e := emitter.New()
	e.EmitVBR(uint64(len(names)))
	for _, n := range names {
		e.EmitVBR(uint64(index.StringOffset(n)))
	}
	return e.Bytes()
}

func attrBufAlignment(p *attrs.Pool) int {
	// Dense numeric payloads may require up to 8-byte alignment
	// internally; the section as a whole only needs to preserve
	// whatever the attribute emitter's own buffer ended up requiring,
	// which the offsets already account for relative to the section
	// start (offset 0), so 8 is always sufficient and safe.
	return 8
}

func emitAttributeTypes(p *attrs.Pool) []byte {
	e := emitter.New()
	e.EmitVBR(uint64(len(p.Offsets)))
	for i, off := range p.Offsets {
		e.EmitVBR(uint64(off))
		e.EmitByte(byte(p.Tags[i]))
	}
	return e.Bytes()
}

// emitAttributeNames writes, per function (in table order), the ordered
// list of attribute-name string offsets for that function's kernels, in
// kernel and attribute order (spec §4.7 optional "attribute-names").
func emitAttributeNames(table *entities.Table, index *entities.Index) []byte {
	e := emitter.New()
	e.EmitVBR(uint64(len(table.Functions)))
	for _, entry := range table.Functions {
		var names []string
		if entry.Region != nil {
			for _, block := range entry.Region.Blocks {
				for _, op := range block.Ops {
					if info, ok := table.Ops[op]; ok {
						names = append(names, info.PooledAttrNames...)
					}
				}
			}
		}
		e.EmitVBR(uint64(len(names)))
		for _, n := range names {
			e.EmitVBR(uint64(index.StringOffset(n)))
		}
	}
	return e.Bytes()
}

// emitRegisterTypes writes, per function (in table order), each
// register's type-pool index (spec §4.7 optional "register-types").
func emitRegisterTypes(regTypeIdxsByFunc [][]int) []byte {
	e := emitter.New()
	e.EmitVBR(uint64(len(regTypeIdxsByFunc)))
	for _, idxs := range regTypeIdxsByFunc {
		e.EmitVBR(uint64(len(idxs)))
		for _, ti := range idxs {
			e.EmitVBR(uint64(ti))
		}
	}
	return e.Bytes()
}
