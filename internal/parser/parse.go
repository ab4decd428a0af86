package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"bef/internal/diag"
)

var tirParser = participle.MustBuild[GModule](
	participle.Lexer(TIRLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
	participle.Unquote("String"),
)

// ParseError wraps a participle syntax error with the position the rest
// of the toolchain expects.
type ParseError struct {
	Message  string
	Position diag.Position
}

func (e *ParseError) Error() string { return e.Message }

// ParseString parses one *.tir source file into its raw grammar tree.
func ParseString(filename, source string) (*GModule, *ParseError) {
	mod, err := tirParser.ParseString(filename, source)
	if err != nil {
		if pe, ok := err.(participle.Error); ok {
			pos := pe.Position()
			return nil, &ParseError{
				Message:  pe.Message(),
				Position: diag.Position{Filename: pos.Filename, Line: pos.Line, Column: pos.Column},
			}
		}
		return nil, &ParseError{Message: fmt.Sprintf("unexpected error: %v", err)}
	}
	return mod, nil
}
