package parser

import (
	"strings"
	"unicode"

	"github.com/dhamidi/snek/markup"
)

// Formatting spans nested deeper than this are read as plain text.
const maxInlineDepth = 8

// parseTextLine parses inlines up to the end of the line, or up to a cell
// delimiter inside a table row. The line break is not consumed.
func (p *Parser) parseTextLine() (markup.TextLine, error) {
	start := p.cur.Mark()
	var line markup.TextLine
	for !p.cur.IsLinebreak() && !(p.inTableRow && p.cur.Is(pipe)) {
		in, err := p.parseInline()
		if err != nil {
			break
		}
		line.Add(in)
	}
	if line.Empty() {
		return line, p.fail(start, "text")
	}
	return line, nil
}

func (p *Parser) parseInline() (markup.Inline, error) {
	start := p.cur.Mark()
	if p.cur.IsLinebreak() || (p.inTableRow && p.cur.Is(pipe)) {
		return markup.Inline{}, p.fail(start, "inline")
	}

	p.inlineDepth++
	defer func() { p.inlineDepth-- }()
	if p.inlineDepth > maxInlineDepth {
		return p.parsePlain()
	}

	if p.cur.Is(imageChar) {
		if in, err := p.parseImage(); err == nil {
			return in, nil
		}
	}
	if p.cur.Is(bracketOpen) || p.cur.Is(parenOpen) {
		if in, err := p.parseURL(); err == nil {
			return in, nil
		}
	}

	var production func() (markup.Inline, error)
	switch {
	case p.cur.Lookahead(boldDelim):
		production = func() (markup.Inline, error) {
			if in, err := p.parseBold(); err == nil {
				return in, nil
			}
			return p.parseItalic()
		}
	case p.cur.Is(italicChar):
		production = p.parseItalic
	case p.cur.Is(underlineChar):
		production = p.parseUnderlined
	case p.cur.Is(strikeChar):
		production = p.parseStriked
	case p.cur.Is(monospaceChar):
		production = p.parseMonospace
	case p.cur.Is(superscriptChar):
		production = p.parseSuperscript
	case p.cur.Lookahead(mathDelim):
		production = p.parseInlineMath
	case p.cur.Lookahead(placeholderOpen):
		production = p.parsePlaceholder
	case p.cur.Lookahead(bibRefOpen):
		production = p.parseBibReference
	case p.cur.Is(bracketOpen):
		production = p.parseCheckbox
	case p.cur.Is(emojiChar):
		production = p.parseEmoji
	case p.cur.Lookahead(colorOpen):
		production = p.parseColored
	case p.cur.Lookahead(templateOpen):
		production = p.parseTemplateVar
	}
	if production != nil {
		if in, err := production(); err == nil {
			return in, nil
		}
	}
	return p.parsePlain()
}

// parsePlain reads text up to the next unescaped special character. The
// first character is always taken, so a delimiter whose production failed
// ends up as literal text.
func (p *Parser) parsePlain() (markup.Inline, error) {
	start := p.cur.Mark()
	var b strings.Builder
	for n := 0; !p.cur.IsLinebreak(); n++ {
		if p.inTableRow && p.cur.Is(pipe) {
			break
		}
		if n > 0 && (p.cur.IsAny(inlineSpecial) || p.cur.IsAny(inlineOpeners)) {
			break
		}
		r := p.cur.Char()
		if r == escapeChar && !p.cur.Escaped() && p.cur.Index()+1 < p.cur.Len() && escapable(p.cur.Peek(1)) {
			p.cur.Next()
			if p.cur.IsLinebreak() {
				break
			}
			r = p.cur.Char()
		}
		b.WriteRune(r)
		p.cur.Next()
	}
	if b.Len() == 0 {
		return markup.Inline{}, p.fail(start, "text")
	}
	return markup.Plain(b.String()), nil
}

// until moves to the next unescaped occurrence of close on the current line
// and returns the text before it. The cursor ends after close.
func (p *Parser) until(close string) (string, bool) {
	from := p.cur.Index()
	for !p.cur.Lookahead(close) {
		if p.cur.IsLinebreak() {
			return "", false
		}
		p.cur.Next()
	}
	text := p.cur.Slice(from, p.cur.Index())
	p.cur.Match(close)
	return text, true
}

func unescape(s string) string {
	if !strings.ContainsRune(s, escapeChar) {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == escapeChar && i+1 < len(runes) && escapable(runes[i+1]) {
			i++
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// wrapped parses open, one inline and close. When lenient, a missing close
// is accepted at the end of the line.
func (p *Parser) wrapped(kind markup.InlineKind, open, close string, lenient bool) (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Match(open) {
		return markup.Inline{}, p.fail(start, open)
	}
	inner, err := p.parseInline()
	if err != nil {
		return markup.Inline{}, p.fail(start, kind.String())
	}
	if !p.cur.Match(close) && !(lenient && p.cur.IsLinebreak()) {
		return markup.Inline{}, p.fail(start, "closing "+close)
	}
	return markup.Wrap(kind, inner), nil
}

func (p *Parser) parseBold() (markup.Inline, error) {
	return p.wrapped(markup.KindBold, boldDelim, boldDelim, true)
}

func (p *Parser) parseItalic() (markup.Inline, error) {
	return p.wrapped(markup.KindItalic, string(italicChar), string(italicChar), false)
}

func (p *Parser) parseUnderlined() (markup.Inline, error) {
	return p.wrapped(markup.KindUnderlined, string(underlineChar), string(underlineChar), false)
}

func (p *Parser) parseStriked() (markup.Inline, error) {
	return p.wrapped(markup.KindStriked, string(strikeChar), string(strikeChar), true)
}

func (p *Parser) parseSuperscript() (markup.Inline, error) {
	return p.wrapped(markup.KindSuperscript, string(superscriptChar), string(superscriptChar), false)
}

func (p *Parser) parseMonospace() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Is(monospaceChar) {
		return markup.Inline{}, p.fail(start, "monospace")
	}
	p.cur.Next()
	text, ok := p.until(string(monospaceChar))
	if !ok {
		return markup.Inline{}, p.fail(start, "closing `")
	}
	return markup.Monospace(text), nil
}

func (p *Parser) parseInlineMath() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Match(mathDelim) {
		return markup.Inline{}, p.fail(start, "math")
	}
	source, ok := p.until(mathDelim)
	if !ok || strings.TrimSpace(source) == "" {
		return markup.Inline{}, p.fail(start, "closing "+mathDelim)
	}
	m := p.parseMath(start, source)
	return markup.Inline{Kind: markup.KindMath, Math: &m}, nil
}

func (p *Parser) parseURL() (markup.Inline, error) {
	start := p.cur.Mark()
	var desc string
	if p.cur.Is(bracketOpen) {
		p.cur.Next()
		text, ok := p.until(string(bracketClose))
		if !ok {
			return markup.Inline{}, p.fail(start, "closing ]")
		}
		desc = unescape(text)
	}
	if !p.cur.Is(parenOpen) {
		return markup.Inline{}, p.fail(start, "(")
	}
	p.cur.Next()
	target, ok := p.until(string(parenClose))
	if !ok {
		return markup.Inline{}, p.fail(start, "closing )")
	}
	target = strings.TrimSpace(target)
	if !p.isURI(target) {
		return markup.Inline{}, p.fail(start, "uri")
	}
	return markup.Inline{
		Kind: markup.KindURL,
		URL:  &markup.URL{Description: desc, Target: target},
	}, nil
}

func (p *Parser) parseImage() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Is(imageChar) {
		return markup.Inline{}, p.fail(start, "image")
	}
	p.cur.Next()
	url, err := p.parseURL()
	if err != nil {
		return markup.Inline{}, p.fail(start, "image url")
	}
	img := &markup.Image{URL: *url.URL}
	if p.cur.Is(braceOpen) && !p.cur.Lookahead(templateOpen) {
		if metadata, err := p.metadata(); err == nil {
			img.Metadata = metadata
		}
	}
	return markup.Inline{Kind: markup.KindImage, Image: img}, nil
}

func (p *Parser) parsePlaceholder() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Match(placeholderOpen) {
		return markup.Inline{}, p.fail(start, "placeholder")
	}
	name, ok := p.until(placeholderClose)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return markup.Inline{}, p.fail(start, "placeholder name")
	}
	ph := &markup.Placeholder{Name: name}
	if p.cur.Is(braceOpen) && !p.cur.Lookahead(templateOpen) {
		if metadata, err := p.metadata(); err == nil {
			ph.Metadata = metadata
		}
	}
	return markup.Inline{Kind: markup.KindPlaceholder, Placeholder: ph}, nil
}

func (p *Parser) parseBibReference() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Match(bibRefOpen) {
		return markup.Inline{}, p.fail(start, "reference")
	}
	key, ok := p.until(string(bracketClose))
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return markup.Inline{}, p.fail(start, "reference key")
	}
	return markup.Inline{
		Kind:      markup.KindBibReference,
		Reference: &markup.BibReference{Key: key},
	}, nil
}

func (p *Parser) parseCheckbox() (markup.Inline, error) {
	start := p.cur.Mark()
	switch {
	case p.cur.Match(checkedBox), p.cur.Match(checkedBoxUpper):
		return markup.Inline{Kind: markup.KindCheckbox, Checked: true}, nil
	case p.cur.Match(uncheckedBox):
		return markup.Inline{Kind: markup.KindCheckbox}, nil
	}
	return markup.Inline{}, p.fail(start, "checkbox")
}

func (p *Parser) parseEmoji() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Is(emojiChar) {
		return markup.Inline{}, p.fail(start, "emoji")
	}
	p.cur.Next()
	from := p.cur.Index()
	for {
		r := p.cur.Char()
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '+' || r == '-') || p.cur.IsLinebreak() {
			break
		}
		p.cur.Next()
	}
	name := p.cur.Slice(from, p.cur.Index())
	if !p.cur.Is(emojiChar) {
		return markup.Inline{}, p.fail(start, "closing :")
	}
	r, ok := Emoji(name)
	if !ok {
		return markup.Inline{}, p.fail(start, "known emoji")
	}
	p.cur.Next()
	return markup.Inline{Kind: markup.KindEmoji, Text: name, Emoji: r}, nil
}

func (p *Parser) parseColored() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Match(colorOpen) {
		return markup.Inline{}, p.fail(start, "color")
	}
	color, ok := p.until(string(bracketClose))
	color = strings.TrimSpace(color)
	if !ok || color == "" {
		return markup.Inline{}, p.fail(start, "color name")
	}
	inner, err := p.parseInline()
	if err != nil {
		return markup.Inline{}, p.fail(start, "colored text")
	}
	p.cur.Match(colorReset)
	in := markup.Wrap(markup.KindColored, inner)
	in.Color = color
	return in, nil
}

func (p *Parser) parseTemplateVar() (markup.Inline, error) {
	start := p.cur.Mark()
	if !p.cur.Match(templateOpen) {
		return markup.Inline{}, p.fail(start, "template variable")
	}
	name, ok := p.until(templateClose)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return markup.Inline{}, p.fail(start, "variable name")
	}
	return markup.Inline{Kind: markup.KindTemplateVar, Var: &markup.TemplateVar{Name: name}}, nil
}
