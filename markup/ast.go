// Package markup defines the document tree produced by the snek parser and
// the structural passes that run on it after parsing.
package markup

import (
	"github.com/dhamidi/snek/config"
)

// Block is implemented by every node that can appear in a document's or a
// section's element list.
type Block interface {
	block()
}

// Document is the root of a parsed file.
type Document struct {
	Elements     []Block
	Root         bool   // only the root document is finalized
	Path         string // source path, empty for in-memory input
	Placeholders []*Placeholder
	Config       *config.Configuration
	Bibliography *Bibliography
}

// NewDocument returns an empty document with a default configuration.
func NewDocument(root bool) *Document {
	return &Document{
		Root:         root,
		Config:       config.Default(),
		Bibliography: NewBibliography(),
	}
}

// Add appends blocks to the document.
func (d *Document) Add(blocks ...Block) {
	d.Elements = append(d.Elements, blocks...)
}

// AddPlaceholder registers a placeholder for finalization.
func (d *Document) AddPlaceholder(p *Placeholder) {
	d.Placeholders = append(d.Placeholders, p)
}

// Section is a heading together with the blocks nested below it.
type Section struct {
	Header   Header
	Elements []Block
	Metadata *InlineMetadata
}

func (*Section) block() {}

// NewSection returns a section for the given header.
func NewSection(header Header) *Section {
	return &Section{Header: header}
}

// Add appends blocks to the section.
func (s *Section) Add(blocks ...Block) {
	s.Elements = append(s.Elements, blocks...)
}

// Level returns the nesting level of the section's header.
func (s *Section) Level() int {
	return s.Header.Level
}

// HiddenInTOC reports whether the section carries toc-hidden metadata.
func (s *Section) HiddenInTOC() bool {
	if s.Metadata == nil {
		return false
	}
	return s.Metadata.Values.Bool(MetaTOCHidden)
}

// Header is the title line of a section.
type Header struct {
	Level  int // 1..6, number of leading '#'
	Title  TextLine
	Anchor string // slug used for links to this section
	Line   int    // 1-based line in the source file, 0 when unknown
}

// Paragraph is a run of consecutive text lines.
type Paragraph struct {
	Lines []TextLine
}

func (*Paragraph) block() {}

// List is an ordered or unordered list. Items are already nested.
type List struct {
	Ordered bool
	Items   []*ListItem
}

func (*List) block() {}

// ListItem is one entry of a list together with its nested entries.
type ListItem struct {
	Text     TextLine
	Level    int // leading inline whitespace of the item's line
	Ordered  bool
	Children []*ListItem
}

// AddChild appends a nested item.
func (li *ListItem) AddChild(child *ListItem) {
	li.Children = append(li.Children, child)
}

// Table is a header row followed by body rows.
type Table struct {
	Header Row
	Rows   []Row
}

func (*Table) block() {}

// Row is a table row.
type Row struct {
	Cells []Cell
}

// Cell is a single table cell.
type Cell struct {
	Text TextLine
}

// CodeBlock is a fenced verbatim block.
type CodeBlock struct {
	Language string
	Code     string
}

func (*CodeBlock) block() {}

// MathBlock is a fenced block of math source.
type MathBlock struct {
	Math Math
}

func (*MathBlock) block() {}

// Quote is a run of lines starting with a quote marker.
type Quote struct {
	Metadata *InlineMetadata
	Lines    []TextLine
}

func (*Quote) block() {}

// Import is the splice point of another file. The anchor is shared with the
// task that parses the imported file.
type Import struct {
	Path   string
	Line   int // 1-based line in the importing file, 0 when unknown
	Anchor *ImportAnchor
}

func (*Import) block() {}

// NewImport returns an import with a fresh, unresolved anchor.
func NewImport(path string) *Import {
	return &Import{Path: path, Anchor: NewImportAnchor()}
}

// PlaceholderBlock is a placeholder standing on a line of its own.
type PlaceholderBlock struct {
	Placeholder *Placeholder
}

func (*PlaceholderBlock) block() {}

// TextLine is a single line of inline content.
type TextLine struct {
	Inlines  []Inline
	Centered bool // paragraph line opened with ||
}

// Add appends an inline, merging adjacent plain text.
func (l *TextLine) Add(in Inline) {
	if n := len(l.Inlines); n > 0 && in.Kind == KindPlain && l.Inlines[n-1].Kind == KindPlain {
		l.Inlines[n-1].Text += in.Text
		return
	}
	l.Inlines = append(l.Inlines, in)
}

// Empty reports whether the line has no inline content.
func (l TextLine) Empty() bool {
	return len(l.Inlines) == 0
}

// PlainText returns the line's text with all formatting removed.
func (l TextLine) PlainText() string {
	var b []byte
	for i := range l.Inlines {
		b = append(b, l.Inlines[i].PlainText()...)
	}
	return string(b)
}
