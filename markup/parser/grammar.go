package parser

import (
	"bytes"
	_ "embed"
	"io"

	"golang.org/x/exp/ebnf"
)

// GrammarStart is the start production of Grammar.
const GrammarStart = "Document"

// Grammar is the EBNF description of the markup language accepted by the
// parser.
//
//go:embed grammar.ebnf
var Grammar []byte

// VerifyGrammar parses an EBNF grammar and checks that every production is
// defined and reachable from start.
func VerifyGrammar(filename string, r io.Reader, start string) error {
	grammar, err := ebnf.Parse(filename, r)
	if err != nil {
		return err
	}
	return ebnf.Verify(grammar, start)
}

// VerifyBuiltinGrammar verifies Grammar.
func VerifyBuiltinGrammar() error {
	return VerifyGrammar("grammar.ebnf", bytes.NewReader(Grammar), GrammarStart)
}
