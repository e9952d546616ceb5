package parser

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"

	"github.com/dhamidi/snek/markup"
)

type blockFunc func(*Parser) (markup.Block, error)

// Block productions in priority order. Sections are handled before these.
var blockProductions = []blockFunc{
	(*Parser).parseImport,
	(*Parser).parseList,
	(*Parser).parseTable,
	(*Parser).parseCodeBlock,
	(*Parser).parseMathBlock,
	(*Parser).parseQuote,
	(*Parser).parsePlaceholderBlock,
	(*Parser).parseParagraph,
}

func (p *Parser) parseBlock() (markup.Block, error) {
	start := p.cur.Mark()
	p.skipBlankLines()
	if p.cur.Done() {
		return nil, p.fail(start, "block")
	}
	if p.sectionReturn > 0 && p.sectionReturn <= p.sectionNesting {
		return nil, p.fail(start, "block")
	}

	if level, ok := p.headerLevel(); ok {
		if level <= p.sectionNesting {
			p.sectionReturn = level
			return nil, p.fail(start, "deeper section")
		}
		return p.parseSection()
	}

	for _, production := range blockProductions {
		if b, err := production(p); err == nil {
			return b, nil
		}
	}
	return nil, p.fail(start, "block")
}

// skipBlankLines consumes lines holding only inline whitespace. The cursor
// ends at the start of the first non-blank line.
func (p *Parser) skipBlankLines() {
	for !p.cur.Done() {
		mark := p.cur.Mark()
		p.cur.SkipInlineWhitespace()
		if !p.cur.IsLinebreak() {
			p.cur.Reset(mark)
			return
		}
		p.cur.Next()
	}
}

// consumeLinebreak moves past the line break the cursor is at.
func (p *Parser) consumeLinebreak() {
	if p.cur.Is('\n') {
		p.cur.Next()
	}
}

// atLineEnd skips trailing inline whitespace and reports whether the line
// ends there.
func (p *Parser) atLineEnd() bool {
	p.cur.SkipInlineWhitespace()
	return p.cur.IsLinebreak()
}

// headerLevel peeks at a header marker: one to six '#' followed by inline
// whitespace.
func (p *Parser) headerLevel() (int, bool) {
	start := p.cur.Mark()
	defer p.cur.Reset(start)

	p.cur.SkipInlineWhitespace()
	level := 0
	for p.cur.Is(headerChar) {
		level++
		p.cur.Next()
	}
	if level == 0 || level > maxHeaderLevel || !p.cur.IsInlineWhitespace() {
		return 0, false
	}
	return level, true
}

func (p *Parser) parseSection() (markup.Block, error) {
	start := p.cur.Mark()
	level, ok := p.headerLevel()
	if !ok {
		return nil, p.fail(start, "header")
	}
	p.cur.SkipInlineWhitespace()
	p.cur.Skip(level)
	p.cur.SkipInlineWhitespace()

	title, metadata, err := p.headerLine()
	if err != nil {
		return nil, p.fail(start, "header title")
	}
	p.consumeLinebreak()

	line, _ := p.cur.Position(start)
	section := markup.NewSection(markup.Header{
		Level:  level,
		Title:  title,
		Anchor: slug(title.PlainText()),
		Line:   line,
	})
	section.Metadata = metadata
	p.sectionReturn = 0

	saved := p.sectionNesting
	p.sectionNesting = level
	for {
		child, err := p.parseBlock()
		if err != nil {
			break
		}
		section.Add(child)
	}
	p.sectionNesting = saved
	return section, nil
}

// headerLine parses a title followed by optional trailing metadata.
func (p *Parser) headerLine() (markup.TextLine, *markup.InlineMetadata, error) {
	start := p.cur.Mark()
	end := p.cur.LineEnd()
	if open := p.trailingMetadata(start, end); open > start {
		p.cur.Limit(open)
		title, err := p.parseTextLine()
		p.cur.Unlimit()
		if err == nil {
			p.cur.SkipInlineWhitespace()
			if metadata, err := p.metadata(); err == nil && p.atLineEnd() {
				trimLine(&title)
				return title, metadata, nil
			}
		}
		p.cur.Reset(start)
	}

	title, err := p.parseTextLine()
	if err != nil {
		return title, nil, err
	}
	trimLine(&title)
	return title, nil, nil
}

// trailingMetadata returns the index of the brace opening a metadata block
// that ends the line [start, end), or -1.
func (p *Parser) trailingMetadata(start, end int) int {
	line := []rune(p.cur.Slice(start, end))
	i := len(line) - 1
	for i >= 0 && (line[i] == ' ' || line[i] == '\t') {
		i--
	}
	if i < 0 || line[i] != braceClose || (i > 0 && line[i-1] == escapeChar) {
		return -1
	}
	depth := 0
	for ; i >= 0; i-- {
		switch line[i] {
		case braceClose:
			depth++
		case braceOpen:
			depth--
			if depth == 0 {
				if i+1 < len(line) && line[i+1] == braceOpen {
					return -1
				}
				return start + i
			}
		}
	}
	return -1
}

// slug turns a title into an anchor name.
func slug(title string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, title)
	s := strcase.ToKebab(strings.Join(strings.Fields(clean), " "))
	if s == "" {
		return "section"
	}
	return s
}

func (p *Parser) parseImport() (markup.Block, error) {
	start := p.cur.Mark()
	p.cur.SkipInlineWhitespace()
	if !p.cur.Match(importOpen) {
		return nil, p.fail(start, "import")
	}
	from := p.cur.Index()
	for !p.cur.Is(importClose) {
		if p.cur.IsLinebreak() {
			return nil, p.fail(start, "closing bracket")
		}
		p.cur.Next()
	}
	path := strings.TrimSpace(p.cur.Slice(from, p.cur.Index()))
	p.cur.Next()
	if path == "" || !p.atLineEnd() {
		return nil, p.fail(start, "import path")
	}
	p.consumeLinebreak()

	imp := markup.NewImport(path)
	imp.Line, _ = p.cur.Position(start)
	if p.imports != nil {
		p.imports.Import(imp, p.file)
	}
	return imp, nil
}

// listMarker consumes a list marker and the whitespace after it.
func (p *Parser) listMarker() (ordered bool, ok bool) {
	start := p.cur.Mark()
	switch {
	case p.cur.IsAny(unorderedMarkers):
		p.cur.Next()
	case unicode.IsDigit(p.cur.Char()):
		for unicode.IsDigit(p.cur.Char()) {
			p.cur.Next()
		}
		if !p.cur.IsAny(orderedMarkers) {
			p.cur.Reset(start)
			return false, false
		}
		p.cur.Next()
		ordered = true
	default:
		return false, false
	}
	if !p.cur.IsInlineWhitespace() {
		p.cur.Reset(start)
		return false, false
	}
	p.cur.SkipInlineWhitespace()
	return ordered, true
}

func (p *Parser) parseList() (markup.Block, error) {
	start := p.cur.Mark()
	var flat []*markup.ListItem

	for !p.cur.Done() {
		lineStart := p.cur.Mark()
		level := p.cur.SkipInlineWhitespace()
		ordered, ok := p.listMarker()
		if !ok {
			p.cur.Reset(lineStart)
			break
		}
		var text markup.TextLine
		if !p.cur.IsLinebreak() {
			line, err := p.parseTextLine()
			if err != nil {
				p.cur.Reset(lineStart)
				break
			}
			trimLine(&line)
			text = line
		}
		p.consumeLinebreak()
		flat = append(flat, &markup.ListItem{Text: text, Level: level, Ordered: ordered})
	}

	if len(flat) == 0 {
		return nil, p.fail(start, "list item")
	}
	return &markup.List{
		Ordered: flat[0].Ordered,
		Items:   markup.NestListItems(flat),
	}, nil
}

func (p *Parser) parseTable() (markup.Block, error) {
	start := p.cur.Mark()
	header, err := p.parseRow()
	if err != nil {
		return nil, p.fail(start, "table header")
	}
	if !p.parseSeparator() {
		return nil, p.fail(start, "table separator")
	}

	table := &markup.Table{Header: header}
	for !p.cur.Done() {
		row, err := p.parseRow()
		if err != nil {
			break
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func (p *Parser) parseRow() (markup.Row, error) {
	start := p.cur.Mark()
	var row markup.Row

	p.cur.SkipInlineWhitespace()
	if !p.cur.Is(pipe) {
		return row, p.fail(start, "table row")
	}
	p.cur.Next()

	saved := p.inTableRow
	p.inTableRow = true
	defer func() { p.inTableRow = saved }()

	for {
		if p.atLineEnd() {
			break
		}
		var cell markup.Cell
		if !p.cur.Is(pipe) {
			line, err := p.parseTextLine()
			if err != nil {
				return markup.Row{}, p.fail(start, "table cell")
			}
			trimLine(&line)
			cell.Text = line
		}
		row.Cells = append(row.Cells, cell)
		if p.cur.Is(pipe) {
			p.cur.Next()
		}
	}
	if len(row.Cells) == 0 {
		return markup.Row{}, p.fail(start, "table cell")
	}
	p.consumeLinebreak()
	return row, nil
}

func (p *Parser) parseSeparator() bool {
	start := p.cur.Mark()
	p.cur.SkipInlineWhitespace()
	dashes := 0
	n := 0
	for !p.cur.IsLinebreak() {
		if !p.cur.IsAny(separatorChars) {
			p.cur.Reset(start)
			return false
		}
		if p.cur.Is('-') {
			dashes++
		}
		n++
		p.cur.Next()
	}
	if dashes == 0 || n == 0 {
		p.cur.Reset(start)
		return false
	}
	p.consumeLinebreak()
	return true
}

// fenced parses a block delimited by fence lines and returns the text of
// the opening line after the fence and the verbatim body.
func (p *Parser) fenced(fence string) (info, body string, err error) {
	start := p.cur.Mark()
	p.cur.SkipInlineWhitespace()
	if !p.cur.Match(fence) {
		return "", "", p.fail(start, fence)
	}
	infoStart := p.cur.Index()
	for !p.cur.IsLinebreak() {
		p.cur.Next()
	}
	info = strings.TrimSpace(p.cur.Slice(infoStart, p.cur.Index()))
	p.consumeLinebreak()

	bodyStart := p.cur.Index()
	for {
		if p.cur.Done() {
			return "", "", p.fail(start, "closing "+fence)
		}
		lineStart := p.cur.Index()
		if p.cur.Match(fence) {
			body = strings.TrimSuffix(p.cur.Slice(bodyStart, lineStart), "\n")
			break
		}
		for !p.cur.Done() && p.cur.Char() != '\n' {
			p.cur.Next()
		}
		p.cur.Next()
	}
	for !p.cur.IsLinebreak() {
		p.cur.Next()
	}
	p.consumeLinebreak()
	return info, body, nil
}

func (p *Parser) parseCodeBlock() (markup.Block, error) {
	lang, code, err := p.fenced(codeFence)
	if err != nil {
		return nil, err
	}
	return &markup.CodeBlock{Language: lang, Code: code}, nil
}

func (p *Parser) parseMathBlock() (markup.Block, error) {
	start := p.cur.Mark()
	_, source, err := p.fenced(mathFence)
	if err != nil {
		return nil, err
	}
	return &markup.MathBlock{Math: p.parseMath(start, source)}, nil
}

func (p *Parser) parseMath(at int, source string) markup.Math {
	m := markup.Math{Source: source}
	expr, err := p.math.ParseMath(source)
	if err != nil {
		p.report(at, source, SeverityWarning, "invalid math: "+err.Error())
		return m
	}
	m.Expression = expr
	return m
}

func (p *Parser) parseQuote() (markup.Block, error) {
	start := p.cur.Mark()
	quote := &markup.Quote{}

	p.cur.SkipInlineWhitespace()
	if p.cur.Is(braceOpen) {
		if !p.quoteFollows() {
			return nil, p.fail(start, "quote")
		}
		metadata, err := p.metadata()
		if err != nil || !p.atLineEnd() {
			return nil, p.fail(start, "quote metadata")
		}
		p.consumeLinebreak()
		quote.Metadata = metadata
	} else {
		p.cur.Reset(start)
	}

	for !p.cur.Done() {
		lineStart := p.cur.Mark()
		p.cur.SkipInlineWhitespace()
		if !p.cur.Is(quoteChar) {
			p.cur.Reset(lineStart)
			break
		}
		p.cur.Next()
		if !p.cur.IsInlineWhitespace() && !p.cur.IsLinebreak() {
			p.cur.Reset(lineStart)
			break
		}
		p.cur.SkipInlineWhitespace()
		var line markup.TextLine
		if !p.cur.IsLinebreak() {
			l, err := p.parseTextLine()
			if err != nil {
				p.cur.Reset(lineStart)
				break
			}
			line = l
		}
		p.consumeLinebreak()
		quote.Lines = append(quote.Lines, line)
	}

	if len(quote.Lines) == 0 {
		return nil, p.fail(start, "quote line")
	}
	return quote, nil
}

// quoteFollows reports whether the line after the current one starts with
// a quote marker.
func (p *Parser) quoteFollows() bool {
	start := p.cur.Mark()
	defer p.cur.Reset(start)

	p.cur.Reset(p.cur.LineEnd())
	if _, ok := p.cur.Next(); !ok {
		return false
	}
	p.cur.SkipInlineWhitespace()
	return p.cur.Is(quoteChar)
}

func (p *Parser) parsePlaceholderBlock() (markup.Block, error) {
	start := p.cur.Mark()
	p.cur.SkipInlineWhitespace()
	in, err := p.parsePlaceholder()
	if err != nil || !p.atLineEnd() {
		return nil, p.fail(start, "placeholder")
	}
	p.consumeLinebreak()
	return &markup.PlaceholderBlock{Placeholder: in.Placeholder}, nil
}

func (p *Parser) parseParagraph() (markup.Block, error) {
	start := p.cur.Mark()
	para := &markup.Paragraph{}

	for !p.cur.Done() {
		if len(para.Lines) > 0 && p.startsBlock() {
			break
		}
		lineStart := p.cur.Mark()
		p.cur.SkipInlineWhitespace()
		centered := p.cur.Match(centeredMarker)
		if centered {
			p.cur.SkipInlineWhitespace()
		}
		line, err := p.parseTextLine()
		if err != nil {
			p.cur.Reset(lineStart)
			break
		}
		trimLine(&line)
		line.Centered = centered
		p.consumeLinebreak()
		para.Lines = append(para.Lines, line)
	}

	if len(para.Lines) == 0 {
		return nil, p.fail(start, "paragraph")
	}
	return para, nil
}

// startsBlock reports whether the current line opens a block other than a
// paragraph. It never moves the cursor.
func (p *Parser) startsBlock() bool {
	start := p.cur.Mark()
	defer p.cur.Reset(start)

	if _, ok := p.headerLevel(); ok {
		return true
	}
	p.cur.SkipInlineWhitespace()
	if p.cur.Lookahead(importOpen) || p.cur.Lookahead(codeFence) || p.cur.Lookahead(mathFence) {
		return true
	}
	if p.cur.Is(pipe) && !p.cur.Lookahead(centeredMarker) {
		return true
	}
	if p.cur.Is(quoteChar) {
		p.cur.Next()
		return p.cur.IsInlineWhitespace() || p.cur.IsLinebreak()
	}
	if _, ok := p.listMarker(); ok {
		return true
	}
	if _, err := p.parsePlaceholder(); err == nil && p.atLineEnd() {
		return true
	}
	return false
}

// trimLine removes trailing inline whitespace from the last plain span.
func trimLine(l *markup.TextLine) {
	n := len(l.Inlines)
	if n == 0 || l.Inlines[n-1].Kind != markup.KindPlain {
		return
	}
	l.Inlines[n-1].Text = strings.TrimRight(l.Inlines[n-1].Text, " \t")
	if l.Inlines[n-1].Text == "" {
		l.Inlines = l.Inlines[:n-1]
	}
}
