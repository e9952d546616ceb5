package lsp

import (
	"errors"
	"io/fs"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/snek/markup/parser"
	"github.com/dhamidi/snek/resolve"
	"github.com/dhamidi/snek/workspace"
)

func TestDocumentSymbols(t *testing.T) {
	content := "# A\ntext\n## B\n<[x.md]\n# C\nend\n"

	syms := DocumentSymbols(content)
	if len(syms) != 2 {
		t.Fatalf("expected 2 top-level symbols, got %d", len(syms))
	}

	a := syms[0]
	if a.Name != "A" || a.Kind != protocol.SymbolKindString {
		t.Errorf("unexpected symbol %+v", a)
	}
	if a.Range.Start.Line != 0 || a.Range.End.Line != 3 {
		t.Errorf("expected A to span lines 0-3, got %d-%d", a.Range.Start.Line, a.Range.End.Line)
	}
	if a.SelectionRange.End.Character != 3 {
		t.Errorf("expected selection to end at column 3, got %d", a.SelectionRange.End.Character)
	}
	if len(a.Children) != 1 || a.Children[0].Name != "B" {
		t.Fatalf("expected B below A, got %+v", a.Children)
	}

	b := a.Children[0]
	if b.Range.Start.Line != 2 || *b.Detail != "##" {
		t.Errorf("unexpected symbol %+v", b)
	}
	if len(b.Children) != 1 {
		t.Fatalf("expected import below B, got %+v", b.Children)
	}
	imp := b.Children[0]
	if imp.Name != "x.md" || imp.Kind != protocol.SymbolKindFile || imp.Range.Start.Line != 3 {
		t.Errorf("unexpected import symbol %+v", imp)
	}

	if syms[1].Name != "C" || syms[1].Range.Start.Line != 4 {
		t.Errorf("unexpected symbol %+v", syms[1])
	}
}

func TestDiagnostics(t *testing.T) {
	f := &workspace.FileInfo{
		Path:    "doc.md",
		Content: []byte("# \ntext\n<[x.md]\n"),
		Diagnostics: []parser.Diagnostic{
			{File: "doc.md", Line: 1, Column: 1, Text: "# ", Message: "empty header", Severity: parser.SeverityError},
			{File: "other.md", Line: 1, Column: 1, Text: "x", Message: "elsewhere", Severity: parser.SeverityWarning},
		},
		Err: errors.Join(
			&resolve.ImportError{Path: "x.md", From: "doc.md", Line: 3, Err: fs.ErrNotExist},
			&resolve.ImportError{Path: "y.md", From: "other.md", Line: 1, Err: fs.ErrNotExist},
		),
	}

	diags := Diagnostics(f)
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %+v", diags)
	}

	first := diags[0]
	if first.Message != "empty header" || *first.Severity != protocol.DiagnosticSeverityError {
		t.Errorf("unexpected diagnostic %+v", first)
	}
	if first.Range.Start != (protocol.Position{Line: 0, Character: 0}) || first.Range.End != (protocol.Position{Line: 0, Character: 2}) {
		t.Errorf("unexpected range %+v", first.Range)
	}

	second := diags[1]
	if second.Range.Start.Line != 2 || second.Range.End.Character != 7 {
		t.Errorf("unexpected range %+v", second.Range)
	}
}

func TestDiagnosticsEmpty(t *testing.T) {
	diags := Diagnostics(&workspace.FileInfo{Path: "doc.md", Content: []byte("text\n")})
	if diags == nil || len(diags) != 0 {
		t.Errorf("expected empty non-nil diagnostics, got %#v", diags)
	}
}

func TestPosition(t *testing.T) {
	lines := []string{"a😄b"}
	tests := []struct {
		column int
		want   protocol.UInteger
	}{
		{1, 0},
		{2, 1},
		{3, 3},
		{4, 4},
		{10, 4},
	}
	for _, tt := range tests {
		if got := position(lines, 1, tt.column).Character; got != tt.want {
			t.Errorf("position column %d: expected %d, got %d", tt.column, tt.want, got)
		}
	}
}

func TestURIConversion(t *testing.T) {
	path, err := uriToPath("file:///tmp/notes/a.md")
	if err != nil || path != "/tmp/notes/a.md" {
		t.Fatalf("expected /tmp/notes/a.md, got %q, %v", path, err)
	}
	if uri := pathToURI("/tmp/notes/a.md"); uri != "file:///tmp/notes/a.md" {
		t.Errorf("expected file URI, got %q", uri)
	}
}
