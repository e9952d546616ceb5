package lsp

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/snek/markup"
	"github.com/dhamidi/snek/markup/parser"
	"github.com/dhamidi/snek/resolve"
	"github.com/dhamidi/snek/workspace"
)

// Diagnostics converts the parse diagnostics and import errors of f that
// belong to f itself. The result is never nil so that publishing it clears
// stale diagnostics.
func Diagnostics(f *workspace.FileInfo) []protocol.Diagnostic {
	lines := strings.Split(string(f.Content), "\n")
	out := make([]protocol.Diagnostic, 0, len(f.Diagnostics))

	for _, d := range f.Diagnostics {
		if !samePath(d.File, f.Path) {
			continue
		}
		start := position(lines, d.Line, d.Column)
		end := position(lines, d.Line, d.Column+len([]rune(d.Text)))
		out = append(out, diagnostic(start, end, severity(d.Severity), d.Message))
	}

	for _, err := range flatten(f.Err) {
		var ierr *resolve.ImportError
		var perr *parser.ParseError
		switch {
		case errors.As(err, &ierr):
			if !samePath(ierr.From, f.Path) {
				continue
			}
			line := ierr.Line
			if line < 1 {
				line = 1
			}
			start := position(lines, line, 1)
			end := position(lines, line, len([]rune(lineText(lines, line)))+1)
			out = append(out, diagnostic(start, end, protocol.DiagnosticSeverityError, ierr.Error()))
		case errors.As(err, &perr):
			start := position(lines, perr.Line, perr.Column)
			end := position(lines, perr.Line, len([]rune(lineText(lines, perr.Line)))+1)
			out = append(out, diagnostic(start, end, protocol.DiagnosticSeverityError, perr.Msg))
		}
	}
	return out
}

func diagnostic(start, end protocol.Position, sev protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	source := lsName
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &sev,
		Source:   &source,
		Message:  msg,
	}
}

func severity(s parser.Severity) protocol.DiagnosticSeverity {
	if s == parser.SeverityWarning {
		return protocol.DiagnosticSeverityWarning
	}
	return protocol.DiagnosticSeverityError
}

// flatten unpacks errors joined with errors.Join.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func lineText(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// position converts a 1-based line and rune column to an LSP position,
// which counts UTF-16 code units from zero.
func position(lines []string, line, column int) protocol.Position {
	if line < 1 {
		line = 1
	}
	runes := []rune(lineText(lines, line))
	col := column - 1
	if col < 0 {
		col = 0
	}
	if col > len(runes) {
		col = len(runes)
	}
	return protocol.Position{
		Line:      protocol.UInteger(line - 1),
		Character: protocol.UInteger(len(utf16.Encode(runes[:col]))),
	}
}

// DocumentSymbols returns the section outline of content. Imports are
// listed where they occur without being resolved.
func DocumentSymbols(content string) []protocol.DocumentSymbol {
	doc, err := parser.ParseString(content)
	if err != nil {
		return nil
	}
	lines := strings.Split(content, "\n")
	return symbols(doc.Elements, lines, len(lines))
}

// symbols converts blocks whose range ends at line end (1-based).
func symbols(blocks []markup.Block, lines []string, end int) []protocol.DocumentSymbol {
	var out []protocol.DocumentSymbol
	for i, b := range blocks {
		switch b := b.(type) {
		case *markup.Section:
			last := end
			for _, next := range blocks[i+1:] {
				if s, ok := next.(*markup.Section); ok && s.Header.Line > 0 {
					last = s.Header.Line - 1
					break
				}
			}
			detail := strings.Repeat("#", b.Level())
			sym := protocol.DocumentSymbol{
				Name:           b.Header.Title.PlainText(),
				Detail:         &detail,
				Kind:           protocol.SymbolKindString,
				Range:          protocol.Range{Start: position(lines, b.Header.Line, 1), End: lineEnd(lines, last)},
				SelectionRange: protocol.Range{Start: position(lines, b.Header.Line, 1), End: lineEnd(lines, b.Header.Line)},
				Children:       symbols(b.Elements, lines, last),
			}
			out = append(out, sym)
		case *markup.Import:
			out = append(out, protocol.DocumentSymbol{
				Name:           b.Path,
				Kind:           protocol.SymbolKindFile,
				Range:          protocol.Range{Start: position(lines, b.Line, 1), End: lineEnd(lines, b.Line)},
				SelectionRange: protocol.Range{Start: position(lines, b.Line, 1), End: lineEnd(lines, b.Line)},
			})
		}
	}
	return out
}

func lineEnd(lines []string, line int) protocol.Position {
	return position(lines, line, len([]rune(lineText(lines, line)))+1)
}
