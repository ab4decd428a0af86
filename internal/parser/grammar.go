// Package parser lowers the textual kernel-graph IR into internal/ir's
// resolved graph, in two steps that mirror the teacher's parser→ast
// then ir.Builder split: Parse produces a lightweight, name-based
// grammar tree (this file), and Resolve (resolve.go) turns register and
// symbol names into internal/ir pointer identity.
package parser

// GModule is the raw parse of a "module NAME { function* }" file.
type GModule struct {
	Name      string      `parser:"\"module\" @Ident \"{\""`
	Functions []*GFunc    `parser:"@@* \"}\""`
}

// GFunc is one function declaration, optionally native or sync.
type GFunc struct {
	Native  bool        `parser:"@\"native\"?"`
	Sync    bool        `parser:"@\"sync\"?"`
	Name    string      `parser:"\"func\" @Ident"`
	Params  []*GParam   `parser:"\"(\" (@@ (\",\" @@)*)? \")\""`
	Results []string    `parser:"\"->\" \"(\" (@Ident (\",\" @Ident)*)? \")\""`
	Body    *GRegion    `parser:"@@?"`
}

// GParam is a single function parameter: a register name and its type.
type GParam struct {
	Name string `parser:"@Register \":\""`
	Type string `parser:"@Ident"`
}

// GRegion is a brace-delimited straight-line op sequence.
type GRegion struct {
	Ops []*GOp `parser:"\"{\" @@* \"}\""`
}

// GOp is either a "return" terminator or a general kernel invocation.
type GOp struct {
	Return   *GReturn `parser:"(  @@"`
	Kernel   *GKernel `parser:" | @@ )"`
}

// GReturn is the block terminator.
type GReturn struct {
	Operands []string `parser:"\"return\" (@Register (\",\" @Register)*)?"`
}

// GKernel is `result*, = opcode(operands) {attrs}? region*`.
type GKernel struct {
	Results  []*GResult  `parser:"((@@ (\",\" @@)*) \"=\")?"`
	Opcode   string      `parser:"@Ident"`
	Operands []*GOperand `parser:"\"(\" (@@ (\",\" @@)*)? \")\""`
	Attrs    []*GAttr    `parser:"(\"{\" (@@ (\",\" @@)*)? \"}\")?"`
	Regions  []*GRegion  `parser:"@@*"`
}

// GResult is a result register with an optional type annotation; for an
// omitted type the resolver records the placeholder type "!inferred".
type GResult struct {
	Name string  `parser:"@Register"`
	Type *string `parser:"(\":\" @Ident)?"`
}

// GOperand is either a register reference or a bare symbol reference
// (e.g. the true_fn/false_fn/cond_fn/body_fn arguments passed by name
// instead of by nested region).
type GOperand struct {
	Register string `parser:"  @Register"`
	Symbol   string `parser:"| @Symbol"`
}

// GAttr is `name = value`.
type GAttr struct {
	Name  string   `parser:"@Ident \"=\""`
	Value *GAttrValue `parser:"@@"`
}

// GAttrValue is one attribute literal. Bool is captured as raw text
// ("true"/"false") and converted during resolution, since participle
// captures literal alternations as token text rather than parsed bools.
type GAttrValue struct {
	Unit    bool     `parser:"(  @\"unit\""`
	BoolStr *string  `parser:" | @(\"true\" | \"false\")"`
	Float   *float64 `parser:" | @Float"`
	Int     *int64   `parser:" | @Int"`
	Str     *string  `parser:" | @String"`
	Symbol  string   `parser:" | @Symbol )"`
}
