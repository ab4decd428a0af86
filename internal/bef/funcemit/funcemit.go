// Package funcemit implements the per-function body emitter (spec
// §4.6): register table, pseudo-entry kernel, kernel records, and the
// function's result register list.
package funcemit

import (
	"bef/internal/bef/emitter"
	"bef/internal/bef/entities"
	"bef/internal/bef/streams"
	"bef/internal/ir"
)

const (
	pseudoOpcode       = 0xABABABAB
	pseudoLocationOff  = 0xCDCDCDCD
	flagNonStrict      = 0x1
	flagHasDebugInfo   = 0x2
)

// Deps bundles the lookups the function emitter needs from the rest of
// the module emitter's pass 2 state.
type Deps struct {
	Table            *entities.Table
	AttrOffset       map[string]int // attribute key -> byte offset in the attributes section
	DebugInfoOffset  map[string]int // debug name -> byte offset in the debug-info section
	LocationOffset   map[int]int    // Table.Locations index -> byte offset in the location-positions section
	EnclosingLocOff int // location offset of the op that owns this function's region, 0 for top-level
	Strategy        streams.Strategy
}

// Result is one function's emitted body plus the sidecar data the
// module emitter folds into the optional register-types section.
type Result struct {
	Body             []byte
	RegisterTypeIdxs []int // type-pool index per register, in register-number order
}

// Emit lowers one function's region into its BEF body (spec §4.6).
// entry.Region must be non-nil (native functions have no body to emit).
func Emit(entry *entities.FunctionEntry, d Deps) *Result {
	region := entry.Region
	block := region.Blocks[0]

	var realOps []*ir.Op
	var returnOp *ir.Op
	for _, op := range block.Ops {
		if op.IsReturn() {
			returnOp = op
			continue
		}
		realOps = append(realOps, op)
	}

	registers, regNum := allocateRegisters(region.Args, realOps)
	triggerNum := len(registers)

	e := emitter.New()
	e.EmitVBR(uint64(d.EnclosingLocOff))

	useCount := computeUseCounts(registers, realOps, returnOp)
	regTypeIdxs := make([]int, len(registers))
	for i, v := range registers {
		e.EmitVBR(uint64(useCount[v]))
		idx, ok := d.Table.Types.IndexOf(v.Type.Name)
		if !ok {
			idx = d.Table.Types.Add(v.Type.Name)
		}
		regTypeIdxs[i] = idx
	}

	kernelCount := len(realOps) + 1 // + pseudo
	e.EmitVBR(uint64(kernelCount))

	assign := d.Strategy.Analyze(block)

	kernelList := emitter.New()
	usersOf := buildUsersIndex(registers, realOps)

	e.EmitVBR(uint64(kernelList.Len()))
	e.EmitVBR(0)
	e.EmitVBR(uint64(assign.RootStream))
	emitPseudoKernel(kernelList, region.Args, regNum, triggerNum, usersOf, realOps)

	for i, op := range realOps {
		kernelIndex := i + 1 // 0 is the pseudo kernel
		e.EmitVBR(uint64(kernelList.Len()))
		e.EmitVBR(uint64(numOperandsBeforeRunning(op, d.Table.Ops[op])))
		e.EmitVBR(uint64(assign.OpStream[op]))
		emitNormalKernel(kernelList, op, d, regNum, usersOf, kernelIndex)
	}

	if returnOp != nil {
		for _, v := range returnOp.Operands {
			e.EmitVBR(uint64(regNum[v]))
		}
	}

	e.EmitAlignment(4)
	e.EmitBytes(kernelList.Bytes())

	return &Result{Body: e.Bytes(), RegisterTypeIdxs: regTypeIdxs}
}

func numOperandsBeforeRunning(op *ir.Op, info *entities.OpInfo) int {
	n := len(op.Operands)
	if info.NonStrict && n > 0 {
		return 1
	}
	return n
}

// allocateRegisters assigns dense 0-based register numbers to each
// block argument, then each op result, in program order.
func allocateRegisters(args []*ir.Value, ops []*ir.Op) ([]*ir.Value, map[*ir.Value]int) {
	regNum := make(map[*ir.Value]int)
	var regs []*ir.Value
	for _, a := range args {
		regNum[a] = len(regs)
		regs = append(regs, a)
	}
	for _, op := range ops {
		for _, r := range op.Results {
			regNum[r] = len(regs)
			regs = append(regs, r)
		}
	}
	return regs, regNum
}

func computeUseCounts(registers []*ir.Value, ops []*ir.Op, returnOp *ir.Op) map[*ir.Value]int {
	counts := make(map[*ir.Value]int, len(registers))
	for _, op := range ops {
		for _, v := range op.Operands {
			counts[v]++
		}
	}
	if returnOp != nil {
		for _, v := range returnOp.Operands {
			counts[v]++
		}
	}
	return counts
}

// buildUsersIndex maps each register to the ordered list of kernel
// indices (1-based; 0 is reserved for the pseudo kernel) that consume
// it as an operand.
func buildUsersIndex(registers []*ir.Value, ops []*ir.Op) map[*ir.Value][]int {
	users := make(map[*ir.Value][]int, len(registers))
	for i, op := range ops {
		kernelIndex := i + 1
		for _, v := range op.Operands {
			users[v] = append(users[v], kernelIndex)
		}
	}
	return users
}

func emitPseudoKernel(e *emitter.Emitter, args []*ir.Value, regNum map[*ir.Value]int, triggerNum int, usersOf map[*ir.Value][]int, ops []*ir.Op) {
	e.EmitFixed32(pseudoOpcode)
	e.EmitFixed32(pseudoLocationOff)
	e.EmitFixed32(0) // args
	e.EmitFixed32(0) // attrs
	e.EmitFixed32(0) // funcs
	e.EmitFixed32(uint32(len(args) + 1))
	e.EmitFixed32(0) // special

	e.EmitFixed32(uint32(triggerNum))
	for _, a := range args {
		e.EmitFixed32(uint32(regNum[a]))
	}

	var triggerUsers []uint32
	for _, op := range ops {
		if len(op.Operands) == 0 {
			triggerUsers = append(triggerUsers, uint32(indexOfOp(ops, op)+1))
		}
	}
	e.EmitFixed32(uint32(len(triggerUsers)))
	for _, u := range triggerUsers {
		e.EmitFixed32(u)
	}

	for _, a := range args {
		u := usersOf[a]
		e.EmitFixed32(uint32(len(u)))
		for _, k := range u {
			e.EmitFixed32(uint32(k))
		}
	}
}

func indexOfOp(ops []*ir.Op, target *ir.Op) int {
	for i, op := range ops {
		if op == target {
			return i
		}
	}
	return -1
}

func emitNormalKernel(e *emitter.Emitter, op *ir.Op, d Deps, regNum map[*ir.Value]int, usersOf map[*ir.Value][]int, kernelIndex int) {
	info := d.Table.Ops[op]

	opcodeIdx, _ := d.Table.Kernels.IndexOf(op.Opcode)

	funcs := make([]int, 0, len(info.AttrFuncRefs)+len(info.RegionFuncIndices))
	for _, name := range info.AttrFuncRefs {
		idx := d.Table.FuncIndexByName[name]
		funcs = append(funcs, idx)
	}
	funcs = append(funcs, info.RegionFuncIndices...)

	special := uint32(0)
	if info.NonStrict {
		special |= flagNonStrict
	}
	hasDebug := info.DebugName != ""
	if hasDebug {
		special |= flagHasDebugInfo
	}

	locOff := 0
	if info.LocationIndex >= 0 {
		locOff = d.LocationOffset[info.LocationIndex]
	}

	e.EmitFixed32(opcodeIdx32(opcodeIdx))
	e.EmitFixed32(uint32(locOff))
	e.EmitFixed32(uint32(len(op.Operands)))
	e.EmitFixed32(uint32(len(info.PooledAttrKeys)))
	e.EmitFixed32(uint32(len(funcs)))
	e.EmitFixed32(uint32(len(op.Results)))
	e.EmitFixed32(special)

	for _, v := range op.Operands {
		e.EmitFixed32(uint32(regNum[v]))
	}
	for _, key := range info.PooledAttrKeys {
		e.EmitFixed32(uint32(d.AttrOffset[key]))
	}
	for _, f := range funcs {
		e.EmitFixed32(uint32(f))
	}
	for _, v := range op.Results {
		e.EmitFixed32(uint32(regNum[v]))
	}
	for _, v := range op.Results {
		u := usersOf[v]
		e.EmitFixed32(uint32(len(u)))
		for _, k := range u {
			e.EmitFixed32(uint32(k))
		}
	}
	if hasDebug {
		e.EmitFixed32(uint32(d.DebugInfoOffset[info.DebugName]))
	}
}

func opcodeIdx32(idx int) uint32 { return uint32(idx) }
