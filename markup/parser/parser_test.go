package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/snek/markup"
)

func parse(t *testing.T, input string, opts ...Option) *markup.Document {
	t.Helper()
	doc, err := ParseString(input, opts...)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return doc
}

func kinds(line markup.TextLine) []string {
	out := make([]string, len(line.Inlines))
	for i, in := range line.Inlines {
		out[i] = in.Kind.String()
	}
	return out
}

func TestParseEndToEnd(t *testing.T) {
	doc := parse(t, "# H1\n- item\n **hoho** `aha`")

	if len(doc.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(doc.Elements))
	}
	section, ok := doc.Elements[0].(*markup.Section)
	if !ok {
		t.Fatalf("expected Section, got %T", doc.Elements[0])
	}
	if section.Level() != 1 || section.Header.Title.PlainText() != "H1" {
		t.Errorf("unexpected header %+v", section.Header)
	}
	if len(section.Elements) != 2 {
		t.Fatalf("expected 2 children, got %d", len(section.Elements))
	}

	list, ok := section.Elements[0].(*markup.List)
	if !ok {
		t.Fatalf("expected List, got %T", section.Elements[0])
	}
	if list.Ordered || len(list.Items) != 1 || list.Items[0].Text.PlainText() != "item" {
		t.Errorf("unexpected list %+v", list)
	}

	para, ok := section.Elements[1].(*markup.Paragraph)
	if !ok {
		t.Fatalf("expected Paragraph, got %T", section.Elements[1])
	}
	if len(para.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(para.Lines))
	}
	line := para.Lines[0]
	if got := strings.Join(kinds(line), ","); got != "bold,plain,monospace" {
		t.Fatalf("expected bold,plain,monospace, got %s", got)
	}
	if line.Inlines[0].Inner.Text != "hoho" {
		t.Errorf("expected bold %q, got %q", "hoho", line.Inlines[0].Inner.Text)
	}
	if line.Inlines[2].Text != "aha" {
		t.Errorf("expected monospace %q, got %q", "aha", line.Inlines[2].Text)
	}
}

func sectionTitles(blocks []markup.Block) []string {
	var out []string
	for _, b := range blocks {
		if s, ok := b.(*markup.Section); ok {
			out = append(out, s.Header.Title.PlainText())
		}
	}
	return out
}

func TestParseSectionNesting(t *testing.T) {
	doc := parse(t, "# A\n## B\n## C\n### D\n# E\n")

	if got := strings.Join(sectionTitles(doc.Elements), ","); got != "A,E" {
		t.Fatalf("expected top-level A,E, got %s", got)
	}
	a := doc.Elements[0].(*markup.Section)
	if got := strings.Join(sectionTitles(a.Elements), ","); got != "B,C" {
		t.Fatalf("expected B,C below A, got %s", got)
	}
	b := a.Elements[0].(*markup.Section)
	c := a.Elements[1].(*markup.Section)
	if len(b.Elements) != 0 {
		t.Errorf("expected B to be empty, got %d elements", len(b.Elements))
	}
	if got := strings.Join(sectionTitles(c.Elements), ","); got != "D" {
		t.Errorf("expected D below C, got %s", got)
	}
	if line := c.Elements[0].(*markup.Section).Header.Line; line != 4 {
		t.Errorf("expected D on line 4, got %d", line)
	}
}

func TestParseSectionSkippedLevel(t *testing.T) {
	doc := parse(t, "# A\n### C\n## D\ntext\n")

	a := doc.Elements[0].(*markup.Section)
	if got := strings.Join(sectionTitles(a.Elements), ","); got != "C,D" {
		t.Fatalf("expected C,D as siblings below A, got %s", got)
	}
	d := a.Elements[1].(*markup.Section)
	if len(d.Elements) != 1 {
		t.Fatalf("expected paragraph below D, got %d elements", len(d.Elements))
	}
}

func TestParseHeader(t *testing.T) {
	doc := parse(t, "## Getting Started! {toc-hidden}\n")

	s := doc.Elements[0].(*markup.Section)
	if s.Level() != 2 {
		t.Errorf("expected level 2, got %d", s.Level())
	}
	if got := s.Header.Title.PlainText(); got != "Getting Started!" {
		t.Errorf("expected title %q, got %q", "Getting Started!", got)
	}
	if s.Header.Anchor != "getting-started" {
		t.Errorf("expected anchor %q, got %q", "getting-started", s.Header.Anchor)
	}
	if s.Metadata == nil || s.Metadata.Raw != "toc-hidden" {
		t.Fatalf("expected header metadata, got %+v", s.Metadata)
	}
	if !s.HiddenInTOC() {
		t.Error("expected section to be hidden in toc")
	}
}

func TestParseHeaderTemplateIsTitle(t *testing.T) {
	doc := parse(t, "# Hello {{name}}\n")
	s := doc.Elements[0].(*markup.Section)
	if s.Metadata != nil {
		t.Fatalf("template variable read as metadata: %+v", s.Metadata)
	}
	if got := strings.Join(kinds(s.Header.Title), ","); got != "plain,template-var" {
		t.Errorf("expected plain,template-var, got %s", got)
	}
}

func TestParseListNesting(t *testing.T) {
	doc := parse(t, "- a\n  - b\n  - c\n    - d\n- e\n")

	list, ok := doc.Elements[0].(*markup.List)
	if !ok {
		t.Fatalf("expected List, got %T", doc.Elements[0])
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(list.Items))
	}
	a := list.Items[0]
	if len(a.Children) != 2 {
		t.Fatalf("expected 2 children below a, got %d", len(a.Children))
	}
	c := a.Children[1]
	if c.Text.PlainText() != "c" || len(c.Children) != 1 || c.Children[0].Text.PlainText() != "d" {
		t.Errorf("expected d below c, got %+v", c)
	}
	if list.Items[1].Text.PlainText() != "e" {
		t.Errorf("expected e as second root")
	}
}

func TestParseOrderedList(t *testing.T) {
	doc := parse(t, "1. one\n2) two\n")
	list := doc.Elements[0].(*markup.List)
	if !list.Ordered || len(list.Items) != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestParseTable(t *testing.T) {
	doc := parse(t, "| a | b |\n|---|:-:|\n| 1 | 2 |\n| 3 | \\| |\n")

	table, ok := doc.Elements[0].(*markup.Table)
	if !ok {
		t.Fatalf("expected Table, got %T", doc.Elements[0])
	}
	if len(table.Header.Cells) != 2 || table.Header.Cells[1].Text.PlainText() != "b" {
		t.Errorf("unexpected header %+v", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if got := table.Rows[1].Cells[1].Text.PlainText(); got != "|" {
		t.Errorf("expected escaped pipe, got %q", got)
	}
}

func TestParseTableWithoutSeparator(t *testing.T) {
	doc := parse(t, "| a | b |\ntext\n")
	if _, ok := doc.Elements[0].(*markup.Table); ok {
		t.Fatal("table without separator must not parse")
	}
	para := doc.Elements[0].(*markup.Paragraph)
	if got := para.Lines[0].PlainText(); got != "| a | b |" {
		t.Errorf("expected literal row, got %q", got)
	}
}

func TestParseCodeBlock(t *testing.T) {
	doc := parse(t, "```go\nfmt.Println(\"*hi*\")\n\nx := 1\n```\nafter\n")

	code, ok := doc.Elements[0].(*markup.CodeBlock)
	if !ok {
		t.Fatalf("expected CodeBlock, got %T", doc.Elements[0])
	}
	if code.Language != "go" {
		t.Errorf("expected language go, got %q", code.Language)
	}
	if code.Code != "fmt.Println(\"*hi*\")\n\nx := 1" {
		t.Errorf("unexpected code %q", code.Code)
	}
	if len(doc.Elements) != 2 {
		t.Errorf("expected paragraph after code block, got %d elements", len(doc.Elements))
	}
}

func TestParseUnterminatedCodeBlock(t *testing.T) {
	doc := parse(t, "```\ncode\n")
	for _, el := range doc.Elements {
		if _, ok := el.(*markup.CodeBlock); ok {
			t.Fatal("unterminated fence must not produce a code block")
		}
	}
}

type upperMath struct{}

func (upperMath) ParseMath(source string) (any, error) {
	if source == "bad" {
		return nil, errors.New("cannot parse")
	}
	return strings.ToUpper(source), nil
}

func TestParseMath(t *testing.T) {
	p := New(strings.NewReader("$$$\nx^2\n$$$\ninline $$y$$ and $$bad$$\n"), WithMathParser(upperMath{}))
	doc, err := p.Finish()
	if err != nil {
		t.Fatal(err)
	}

	block, ok := doc.Elements[0].(*markup.MathBlock)
	if !ok {
		t.Fatalf("expected MathBlock, got %T", doc.Elements[0])
	}
	if block.Math.Source != "x^2" || block.Math.Expression != "X^2" {
		t.Errorf("unexpected math %+v", block.Math)
	}

	para := doc.Elements[1].(*markup.Paragraph)
	var maths []*markup.Math
	for _, in := range para.Lines[0].Inlines {
		if in.Kind == markup.KindMath {
			maths = append(maths, in.Math)
		}
	}
	if len(maths) != 2 {
		t.Fatalf("expected 2 inline math spans, got %d", len(maths))
	}
	if maths[0].Expression != "Y" {
		t.Errorf("expected parsed expression, got %v", maths[0].Expression)
	}
	if maths[1].Expression != nil {
		t.Errorf("expected no expression for invalid math, got %v", maths[1].Expression)
	}
	if len(p.Diagnostics()) != 1 || p.Diagnostics()[0].Severity != SeverityWarning {
		t.Errorf("expected one warning, got %v", p.Diagnostics())
	}
}

func TestParseQuote(t *testing.T) {
	doc := parse(t, "{author=Jane}\n> hello\n> *world*\n")

	quote, ok := doc.Elements[0].(*markup.Quote)
	if !ok {
		t.Fatalf("expected Quote, got %T", doc.Elements[0])
	}
	if len(quote.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(quote.Lines))
	}
	if quote.Metadata == nil {
		t.Fatal("expected quote metadata")
	}
	if author, _ := quote.Metadata.Values.String("author"); author != "Jane" {
		t.Errorf("expected author Jane, got %q", author)
	}
	if quote.Lines[1].Inlines[0].Kind != markup.KindItalic {
		t.Errorf("expected italic, got %s", quote.Lines[1].Inlines[0].Kind)
	}
}

func TestParsePlaceholderBlock(t *testing.T) {
	doc := parse(t, "[[toc]]\n\ntext [[date]]\n")

	block, ok := doc.Elements[0].(*markup.PlaceholderBlock)
	if !ok {
		t.Fatalf("expected PlaceholderBlock, got %T", doc.Elements[0])
	}
	if block.Placeholder.Name != "toc" {
		t.Errorf("expected toc, got %q", block.Placeholder.Name)
	}
	if len(doc.Placeholders) != 2 {
		t.Fatalf("expected 2 placeholders, got %d", len(doc.Placeholders))
	}
	if doc.Placeholders[0].Name != "toc" || doc.Placeholders[1].Name != "date" {
		t.Errorf("unexpected placeholder order %q, %q", doc.Placeholders[0].Name, doc.Placeholders[1].Name)
	}
}

func TestParseImport(t *testing.T) {
	var got []*markup.Import
	var from []string
	handler := ImportHandlerFunc(func(imp *markup.Import, file string) {
		got = append(got, imp)
		from = append(from, file)
	})

	doc := parse(t, "# A\n<[chapter.md]\ntext\n", WithImportHandler(handler), WithFile("main.md"))

	if len(got) != 1 || got[0].Path != "chapter.md" || got[0].Line != 2 {
		t.Fatalf("expected import of chapter.md on line 2, got %+v", got)
	}
	if from[0] != "main.md" {
		t.Errorf("expected import from main.md, got %q", from[0])
	}
	a := doc.Elements[0].(*markup.Section)
	if len(a.Elements) != 2 || a.Elements[0] != markup.Block(got[0]) {
		t.Errorf("expected import as first child of A, got %+v", a.Elements)
	}
}

func TestParseInlines(t *testing.T) {
	doc := parse(t, "a *b* _c_ ~d~ ^e^ $$x$$ [[name]] [^key] [x] :smile: §[red]f§[] {{var}} ![img](a.png) [link](https://x.io)\n")

	line := doc.Elements[0].(*markup.Paragraph).Lines[0]
	var nonPlain []string
	for _, k := range kinds(line) {
		if k != "plain" {
			nonPlain = append(nonPlain, k)
		}
	}
	want := "italic,underlined,striked,superscript,math,placeholder,bib-reference,checkbox,emoji,colored,template-var,image,url"
	if got := strings.Join(nonPlain, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	byKind := map[markup.InlineKind]markup.Inline{}
	for _, in := range line.Inlines {
		byKind[in.Kind] = in
	}
	if in := byKind[markup.KindColored]; in.Color != "red" || in.Inner.Text != "f" {
		t.Errorf("unexpected colored span %+v", in)
	}
	if in := byKind[markup.KindEmoji]; in.Text != "smile" || in.Emoji != '😄' {
		t.Errorf("unexpected emoji %+v", in)
	}
	if in := byKind[markup.KindImage]; in.Image.URL.Target != "a.png" || in.Image.URL.Description != "img" {
		t.Errorf("unexpected image %+v", in.Image)
	}
	if in := byKind[markup.KindURL]; in.URL.Target != "https://x.io" || in.URL.Description != "link" {
		t.Errorf("unexpected url %+v", in.URL)
	}
	if !byKind[markup.KindCheckbox].Checked {
		t.Error("expected checked checkbox")
	}
	if len(doc.Bibliography.References) != 1 || doc.Bibliography.References[0].Key != "key" {
		t.Errorf("expected registered reference, got %+v", doc.Bibliography.References)
	}
}

func TestParseEscaping(t *testing.T) {
	doc := parse(t, `\*not italic\*`)

	line := doc.Elements[0].(*markup.Paragraph).Lines[0]
	if len(line.Inlines) != 1 || line.Inlines[0].Kind != markup.KindPlain {
		t.Fatalf("expected a single plain span, got %v", kinds(line))
	}
	if got := line.Inlines[0].Text; got != "*not italic*" {
		t.Errorf("expected %q, got %q", "*not italic*", got)
	}
}

func TestParseCenteredLines(t *testing.T) {
	doc := parse(t, "intro\n||  The Title\n\\|| literal\n")

	if len(doc.Elements) != 1 {
		t.Fatalf("expected 1 paragraph, got %d elements", len(doc.Elements))
	}
	lines := doc.Elements[0].(*markup.Paragraph).Lines
	tests := []struct {
		text     string
		centered bool
	}{
		{"intro", false},
		{"The Title", true},
		{"|| literal", false},
	}
	if len(lines) != len(tests) {
		t.Fatalf("expected %d lines, got %d", len(tests), len(lines))
	}
	for i, tt := range tests {
		if got := lines[i].PlainText(); got != tt.text {
			t.Errorf("line %d: expected %q, got %q", i, tt.text, got)
		}
		if lines[i].Centered != tt.centered {
			t.Errorf("line %d: expected centered=%v", i, tt.centered)
		}
	}
}

func TestParseTrailingBackslash(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{`\`, `\`},
		{`end\`, `end\`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc := parse(t, tt.input)
			if len(doc.Elements) != 1 {
				t.Fatalf("expected 1 element, got %d", len(doc.Elements))
			}
			line := doc.Elements[0].(*markup.Paragraph).Lines[0]
			if got := line.PlainText(); got != tt.text {
				t.Errorf("expected %q, got %q", tt.text, got)
			}
		})
	}
}

func TestParseUnterminatedDelimiters(t *testing.T) {
	tests := []struct {
		input string
		kinds string
		text  string
	}{
		{"**bold", "bold", "bold"},
		{"~gone", "striked", "gone"},
		{"*open", "plain", "*open"},
		{"_open", "plain", "_open"},
		{"a * b", "plain", "a * b"},
		{"`code", "plain", "`code"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc := parse(t, tt.input)
			line := doc.Elements[0].(*markup.Paragraph).Lines[0]
			if got := strings.Join(kinds(line), ","); got != tt.kinds {
				t.Errorf("expected %s, got %s", tt.kinds, got)
			}
			if got := line.PlainText(); got != tt.text {
				t.Errorf("expected text %q, got %q", tt.text, got)
			}
		})
	}
}

func TestParseURLRejected(t *testing.T) {
	doc := parse(t, "[text](not a uri) and (see below)")

	line := doc.Elements[0].(*markup.Paragraph).Lines[0]
	if len(line.Inlines) != 1 || line.Inlines[0].Kind != markup.KindPlain {
		t.Fatalf("expected plain text, got %v", kinds(line))
	}
	if got := line.Inlines[0].Text; got != "[text](not a uri) and (see below)" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestParseCustomURIMatcher(t *testing.T) {
	doc := parse(t, "[x](anything goes)", WithURIMatcher(func(string) bool { return true }))
	line := doc.Elements[0].(*markup.Paragraph).Lines[0]
	if line.Inlines[0].Kind != markup.KindURL {
		t.Fatalf("expected url, got %v", kinds(line))
	}
}

func TestProductionBacktracks(t *testing.T) {
	p := New(strings.NewReader(""))
	p.cur = NewCursor("[a](not uri) rest")
	p.doc = markup.NewDocument(false)

	_, err := p.parseURL()
	if err == nil {
		t.Fatal("expected url production to fail")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Index != 0 || perr.Line != 1 || perr.Column != 1 {
		t.Errorf("unexpected error position %+v", perr)
	}
	if p.cur.Index() != 0 {
		t.Errorf("expected cursor at 0, got %d", p.cur.Index())
	}

	p.cur = NewCursor("*never closed")
	if _, err := p.parseItalic(); err == nil {
		t.Fatal("expected italic to fail")
	}
	if p.cur.Index() != 0 {
		t.Errorf("expected cursor at 0 after failed italic, got %d", p.cur.Index())
	}
}

func TestParseParagraphs(t *testing.T) {
	doc := parse(t, "line one\nline two\n\nsecond\n- list\n")

	if len(doc.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(doc.Elements))
	}
	first := doc.Elements[0].(*markup.Paragraph)
	if len(first.Lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(first.Lines))
	}
	if _, ok := doc.Elements[2].(*markup.List); !ok {
		t.Errorf("expected list to end the paragraph, got %T", doc.Elements[2])
	}
}

func TestDiagnosticsAndStrict(t *testing.T) {
	input := "# \ntext\n"

	p := New(strings.NewReader(input), WithFile("doc.md"))
	doc, err := p.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(doc.Elements) != 1 {
		t.Fatalf("expected the paragraph to survive, got %d elements", len(doc.Elements))
	}
	diags := p.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	if diags[0].Line != 1 || diags[0].File != "doc.md" || diags[0].Text != "# " {
		t.Errorf("unexpected diagnostic %+v", diags[0])
	}

	_, err = ParseString(input, WithStrict())
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError in strict mode, got %v", err)
	}
	if perr.Line != 1 {
		t.Errorf("expected error on line 1, got %d", perr.Line)
	}
}

func TestParseRootFlag(t *testing.T) {
	if doc := parse(t, "x", WithRoot()); !doc.Root {
		t.Error("expected root document")
	}
	if doc := parse(t, "x"); doc.Root {
		t.Error("expected non-root document")
	}
}

func TestBuiltinGrammar(t *testing.T) {
	if err := VerifyBuiltinGrammar(); err != nil {
		t.Fatalf("grammar does not verify: %v", err)
	}
}

func TestVerifyGrammarRejectsUnreachable(t *testing.T) {
	err := VerifyGrammar("g.ebnf", strings.NewReader(`Start = "a" . Other = "b" .`), "Start")
	if err == nil {
		t.Fatal("expected unreachable production to be reported")
	}
}
