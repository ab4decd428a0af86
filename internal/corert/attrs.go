package corert

import (
	"bef/internal/async"
	"bef/internal/runtime"
)

// CreateOpAttrs implements `create_op_attrs`.
func CreateOpAttrs() *runtime.AttrSet {
	return runtime.NewAttrSet()
}

// setChained runs a set operation only after inChain resolves,
// returning the chain the next op_attrs_set kernel in the sequence
// waits on (spec §4.9 "chained via Chain").
func setChained(a *runtime.AttrSet, inChain *async.Value, apply func()) *async.Value {
	out := async.NewChain()
	inChain.AndThen(func() {
		if inChain.IsError() {
			out.SetError(inChain.GetError())
			return
		}
		apply()
		async.ResolveChain(out)
	})
	return out
}

func OpAttrsSetString(a *runtime.AttrSet, inChain *async.Value, key, value string) *async.Value {
	return setChained(a, inChain, func() { a.Set(key, value) })
}

func OpAttrsSetInt(a *runtime.AttrSet, inChain *async.Value, key string, value int64) *async.Value {
	return setChained(a, inChain, func() { a.Set(key, value) })
}

func OpAttrsSetFloat(a *runtime.AttrSet, inChain *async.Value, key string, value float64) *async.Value {
	return setChained(a, inChain, func() { a.Set(key, value) })
}

func OpAttrsSetBool(a *runtime.AttrSet, inChain *async.Value, key string, value bool) *async.Value {
	return setChained(a, inChain, func() { a.Set(key, value) })
}
