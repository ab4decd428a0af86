package parser

import "github.com/alecthomas/participle/v2/lexer"

// TIRLexer tokenizes the textual kernel-graph IR ("*.tir" files):
// dotted identifiers for opcodes and type names, "%"-registers,
// "@"-symbol-refs, numeric/string/bool literals, and punctuation.
// Grounded on the teacher's grammar/lexer.go stateful-rules idiom.
var TIRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "Float", Pattern: `[0-9]+\.[0-9]+`, Action: nil},
		{Name: "Int", Pattern: `-?[0-9]+`, Action: nil},
		{Name: "String", Pattern: `"(\\.|[^"])*"`, Action: nil},
		{Name: "Register", Pattern: `%[a-zA-Z0-9_]+`, Action: nil},
		{Name: "Symbol", Pattern: `@[a-zA-Z_][a-zA-Z0-9_.]*`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.!<>]*`, Action: nil},
		{Name: "Punct", Pattern: `[{}()\[\],:=]`, Action: nil},
		{Name: "Arrow", Pattern: `->`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
