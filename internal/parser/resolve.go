package parser

import (
	"fmt"

	"bef/internal/diag"
	"bef/internal/ir"
)

// Resolve lowers a raw grammar tree into internal/ir's pointer-identity
// graph. It performs the same two-pass shape as the teacher's
// ir.Builder: first register every function's signature (so forward
// symbol references resolve), then lower each body.
func Resolve(filename string, g *GModule) (*ir.Module, error) {
	mod := &ir.Module{Name: g.Name}

	for _, gf := range g.Functions {
		fn := &ir.Function{Name: gf.Name}
		switch {
		case gf.Native:
			fn.Kind = ir.KindNative
		case gf.Sync:
			fn.Kind = ir.KindSync
		default:
			fn.Kind = ir.KindAsync
		}
		for _, p := range gf.Params {
			fn.ArgTypes = append(fn.ArgTypes, &ir.Type{Name: p.Type})
		}
		for _, r := range gf.Results {
			fn.ResultType = append(fn.ResultType, &ir.Type{Name: r})
		}
		mod.Functions = append(mod.Functions, fn)
	}

	byName := make(map[string]*ir.Function, len(mod.Functions))
	for _, fn := range mod.Functions {
		if _, dup := byName[fn.Name]; dup {
			return nil, fmt.Errorf("duplicate function name: %s", fn.Name)
		}
		byName[fn.Name] = fn
	}

	for i, gf := range g.Functions {
		fn := mod.Functions[i]
		if gf.Body == nil {
			if fn.Kind != ir.KindNative {
				return nil, fmt.Errorf("function %s: body-less non-native function", fn.Name)
			}
			continue
		}
		if fn.Kind == ir.KindNative {
			return nil, fmt.Errorf("function %s: native function must not have a body", fn.Name)
		}
		r := &resolver{filename: filename, scope: map[string]*ir.Value{}}
		region, err := r.region(gf.Body, gf.Params, fn.ArgTypes)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		fn.Region = region
	}

	return mod, nil
}

type resolver struct {
	filename string
	scope    map[string]*ir.Value
	counter  int
}

func (r *resolver) region(g *GRegion, params []*GParam, argTypes []*ir.Type) (*ir.Region, error) {
	region := &ir.Region{}
	for i, p := range params {
		v := &ir.Value{Name: p.Name, Type: argTypes[i]}
		region.Args = append(region.Args, v)
		r.scope[p.Name] = v
	}
	block := &ir.Block{}
	for _, gop := range g.Ops {
		op, err := r.op(gop)
		if err != nil {
			return nil, err
		}
		block.Ops = append(block.Ops, op)
	}
	region.Blocks = []*ir.Block{block}
	return region, nil
}

func (r *resolver) op(g *GOp) (*ir.Op, error) {
	if g.Return != nil {
		op := &ir.Op{Opcode: ir.ReturnOpcode}
		for _, name := range g.Return.Operands {
			v, ok := r.scope[name]
			if !ok {
				return nil, fmt.Errorf("return: undefined register %s", name)
			}
			op.Operands = append(op.Operands, v)
		}
		return op, nil
	}

	k := g.Kernel
	op := &ir.Op{Opcode: k.Opcode}

	for _, operand := range k.Operands {
		if operand.Register != "" {
			v, ok := r.scope[operand.Register]
			if !ok {
				return nil, fmt.Errorf("op %s: undefined register %s", k.Opcode, operand.Register)
			}
			op.Operands = append(op.Operands, v)
		} else {
			op.FuncRefs = append(op.FuncRefs, operand.Symbol[1:])
		}
	}

	for _, ga := range k.Attrs {
		attr, err := resolveAttrValue(ga.Value)
		if err != nil {
			return nil, fmt.Errorf("op %s: attribute %s: %w", k.Opcode, ga.Name, err)
		}
		op.Attrs = append(op.Attrs, ir.NamedAttr{Name: ga.Name, Attr: attr})
		if ga.Name == ir.NonStrictAttrName {
			op.NonStrict = true
		}
	}

	for _, res := range k.Results {
		typeName := "!inferred"
		if res.Type != nil {
			typeName = *res.Type
		}
		v := &ir.Value{Name: res.Name, Type: &ir.Type{Name: typeName}}
		r.scope[res.Name] = v
		op.Results = append(op.Results, v)
	}

	for _, gregion := range k.Regions {
		region, err := r.region(gregion, nil, nil)
		if err != nil {
			return nil, err
		}
		op.Regions = append(op.Regions, region)
	}

	op.Pos = diag.Position{Filename: r.filename}
	return op, nil
}

func resolveAttrValue(v *GAttrValue) (ir.Attribute, error) {
	switch {
	case v.Unit:
		return &ir.UnitAttr{}, nil
	case v.BoolStr != nil:
		return &ir.BoolAttr{Value: *v.BoolStr == "true"}, nil
	case v.Float != nil:
		return &ir.FloatAttr{Bits: 64, Value: *v.Float}, nil
	case v.Int != nil:
		return &ir.IntAttr{Bits: 32, Value: *v.Int}, nil
	case v.Str != nil:
		return &ir.StringAttr{Value: *v.Str}, nil
	case v.Symbol != "":
		return &ir.SymbolRefAttr{FunctionName: v.Symbol[1:]}, nil
	default:
		return nil, fmt.Errorf("empty attribute value")
	}
}
