// Package parser turns snek markup into a markup.Document using a
// character-level recursive-descent grammar with backtracking.
package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dhamidi/snek/config"
	"github.com/dhamidi/snek/markup"
	"github.com/dhamidi/snek/markup/meta"
)

// ImportHandler is told about every import the parser creates. It may
// resolve the import's anchor later, from any goroutine.
type ImportHandler interface {
	Import(imp *markup.Import, from string)
}

// ImportHandlerFunc adapts a function to ImportHandler.
type ImportHandlerFunc func(imp *markup.Import, from string)

func (f ImportHandlerFunc) Import(imp *markup.Import, from string) { f(imp, from) }

// MathParser turns math source into an expression tree that is opaque to
// the parser.
type MathParser interface {
	ParseMath(source string) (any, error)
}

type sourceMath struct{}

func (sourceMath) ParseMath(source string) (any, error) { return source, nil }

var defaultURI = regexp.MustCompile(`^(?:[a-zA-Z][a-zA-Z0-9+.\-]*:\S+|#\S+|\.{0,2}/\S*|[^\s/()]+(?:/[^\s/()]+)*\.[a-zA-Z][a-zA-Z0-9]*)$`)

// IsURI is the default URI predicate used for links and images.
func IsURI(s string) bool {
	return defaultURI.MatchString(s)
}

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithRoot marks the document as the root of an import tree.
func WithRoot() Option {
	return func(p *Parser) {
		p.root = true
	}
}

// WithStrict turns skipped input into an error.
func WithStrict() Option {
	return func(p *Parser) {
		p.strict = true
	}
}

func WithImportHandler(h ImportHandler) Option {
	return func(p *Parser) {
		p.imports = h
	}
}

func WithMathParser(m MathParser) Option {
	return func(p *Parser) {
		p.math = m
	}
}

func WithURIMatcher(match func(string) bool) Option {
	return func(p *Parser) {
		p.isURI = match
	}
}

func WithConfig(c *config.Configuration) Option {
	return func(p *Parser) {
		p.config = c
	}
}

// Parser holds the state of a single parse. It is not safe for concurrent
// use.
type Parser struct {
	file    string
	root    bool
	strict  bool
	imports ImportHandler
	math    MathParser
	isURI   func(string) bool
	config  *config.Configuration
	reader  io.Reader

	cur            *Cursor
	doc            *markup.Document
	sectionNesting int
	sectionReturn  int
	inTableRow     bool
	inlineDepth    int
	diagnostics    []Diagnostic
}

// New returns a parser reading from r. Parsing happens in Finish.
func New(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		reader: r,
		math:   sourceMath{},
		isURI:  IsURI,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseString parses s with the given options.
func ParseString(s string, opts ...Option) (*markup.Document, error) {
	return New(strings.NewReader(s), opts...).Finish()
}

// Diagnostics returns the problems recorded by the last Finish.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diagnostics
}

// Finish parses the whole input. The document is returned as parsed:
// sections are nested, imports are not spliced and placeholders are not
// substituted; see markup.Document.Postprocess.
func (p *Parser) Finish() (*markup.Document, error) {
	data, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.file, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	p.cur = NewCursor(text)
	p.doc = markup.NewDocument(p.root)
	p.doc.Path = p.file
	if p.config != nil {
		p.doc.Config = p.config
	}
	p.sectionNesting = 0
	p.sectionReturn = 0
	p.inTableRow = false
	p.inlineDepth = 0
	p.diagnostics = nil
	strict := p.strict || p.doc.Config.Parser.Strict

	for !p.cur.Done() {
		start := p.cur.Mark()
		block, err := p.parseBlock()
		if err == nil {
			p.doc.Add(block)
			continue
		}

		p.cur.Reset(start)
		p.sectionReturn = 0
		at := p.skipBlank()
		skipped := p.cur.SkipLine()
		if strings.TrimSpace(skipped) == "" {
			continue
		}
		if strict {
			return nil, p.errorAt(at, "unexpected input %q", skipped)
		}
		p.report(at, skipped, SeverityError, "skipped input that matches no block")
	}

	p.register()
	return p.doc, nil
}

func (p *Parser) skipBlank() int {
	for {
		mark := p.cur.Mark()
		p.cur.SkipInlineWhitespace()
		if p.cur.Done() || !p.cur.IsLinebreak() {
			p.cur.Reset(mark)
			p.cur.SkipInlineWhitespace()
			return p.cur.Index()
		}
		p.cur.Next()
	}
}

// register records the placeholders and citations of the document in
// document order. It runs once parsing is over so that backtracked
// productions never register anything.
func (p *Parser) register() {
	markup.Walk(p.doc.Elements, func(b markup.Block) bool {
		if ph, ok := b.(*markup.PlaceholderBlock); ok {
			p.doc.AddPlaceholder(ph.Placeholder)
		}
		p.registerMetadata(markup.MetadataOf(b))
		return true
	})
	markup.WalkInlines(p.doc.Elements, func(in *markup.Inline) {
		switch in.Kind {
		case markup.KindPlaceholder:
			p.doc.AddPlaceholder(in.Placeholder)
			p.registerMetadata(in.Placeholder.Metadata)
		case markup.KindBibReference:
			p.doc.Bibliography.AddReference(in.Reference)
		case markup.KindImage:
			p.registerMetadata(in.Image.Metadata)
		}
	})
}

func (p *Parser) registerMetadata(m *markup.InlineMetadata) {
	if m == nil {
		return
	}
	for _, v := range m.Values {
		if v.Kind == markup.ValuePlaceholder {
			p.doc.AddPlaceholder(v.Placeholder)
		}
	}
}

func (p *Parser) errorAt(index int, format string, args ...any) *ParseError {
	line, col := p.cur.Position(index)
	return &ParseError{
		File:   p.file,
		Index:  index,
		Line:   line,
		Column: col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// fail restores the cursor to start and returns the error for a production
// that did not match.
func (p *Parser) fail(start int, what string) error {
	p.cur.Reset(start)
	return p.errorAt(start, "expected %s", what)
}

func (p *Parser) report(index int, text string, sev Severity, msg string) {
	for _, d := range p.diagnostics {
		if d.Index == index && d.Message == msg {
			return
		}
	}
	line, col := p.cur.Position(index)
	p.diagnostics = append(p.diagnostics, Diagnostic{
		File:     p.file,
		Line:     line,
		Column:   col,
		Index:    index,
		Text:     text,
		Message:  msg,
		Severity: sev,
	})
}

// metadata parses a brace-delimited metadata block on the current line.
func (p *Parser) metadata() (*markup.InlineMetadata, error) {
	start := p.cur.Mark()
	if !p.cur.Is(braceOpen) {
		return nil, p.fail(start, "metadata")
	}
	p.cur.Next()
	depth := 0
	from := p.cur.Index()
	for {
		if p.cur.IsLinebreak() {
			return nil, p.fail(start, "closing brace")
		}
		if p.cur.Is(braceOpen) {
			depth++
		} else if p.cur.Is(braceClose) {
			if depth == 0 {
				break
			}
			depth--
		}
		p.cur.Next()
	}
	raw := p.cur.Slice(from, p.cur.Index())
	p.cur.Next()

	m := &markup.InlineMetadata{Raw: raw}
	values, err := meta.Decode(raw)
	if err != nil {
		p.report(from, raw, SeverityWarning, "invalid metadata")
		return m, nil
	}
	m.Values = values
	return m, nil
}
