// Package sexp reads the S-expression syntax shared by KiCad files into a
// tree of Nodes. The grammar is built with participle; navigation helpers
// live in node.go.
package sexp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrEmpty is returned when the input holds no expressions at all.
var ErrEmpty = errors.New("sexp: no expressions in input")

// Lexer splits KiCad S-expressions into parens, quoted strings and bare atoms.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Atom", Pattern: `[^\s()"]+`},
})

// Node is either an atom (bare or quoted) or a list of nodes.
type Node struct {
	Pos lexer.Position

	Quoted *string `(  @String`
	Atom   *string ` | @Atom`
	Open   bool    ` | @"("`
	Items  []*Node `   @@* ")" )`
}

type file struct {
	Nodes []*Node `@@*`
}

var parser = participle.MustBuild[file](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
)

// Parse reads every top-level expression from r.
func Parse(r io.Reader) ([]*Node, error) {
	f, err := parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(f.Nodes) == 0 {
		return nil, ErrEmpty
	}
	return f.Nodes, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(input string) ([]*Node, error) {
	return Parse(strings.NewReader(input))
}

// ParseFile opens filename and parses it.
func ParseFile(filename string) ([]*Node, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

var unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t")

// unquote strips the surrounding quotes and resolves KiCad escapes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return unescaper.Replace(s)
}
