package parser

import (
	"fmt"
	"sort"
)

// Cursor scans a rune slice. Two line breaks are appended to the input so
// that lookahead near the end never runs out of characters.
type Cursor struct {
	text  []rune
	size  int // length without sentinels
	index int
	limit int // artificial end of line, -1 when unset
	lines []int
}

// NewCursor returns a cursor positioned at the first character of s.
func NewCursor(s string) *Cursor {
	text := []rune(s)
	size := len(text)
	text = append(text, '\n', '\n')

	lines := []int{0}
	for i, r := range text[:size] {
		if r == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Cursor{text: text, size: size, limit: -1, lines: lines}
}

// Index returns the current position.
func (c *Cursor) Index() int { return c.index }

// Len returns the input length without sentinels.
func (c *Cursor) Len() int { return c.size }

// Done reports whether all input characters were consumed.
func (c *Cursor) Done() bool { return c.index >= c.size }

// Char returns the current character.
func (c *Cursor) Char() rune { return c.text[c.index] }

// Peek returns the character n positions ahead, or 0 past the sentinels.
func (c *Cursor) Peek(n int) rune {
	if i := c.index + n; i >= 0 && i < len(c.text) {
		return c.text[i]
	}
	return 0
}

// Next advances by one character. It returns false when the last sentinel
// is reached.
func (c *Cursor) Next() (rune, bool) {
	if c.index+1 >= len(c.text) {
		return c.text[c.index], false
	}
	c.index++
	return c.text[c.index], true
}

// Skip advances by n characters or until the last sentinel.
func (c *Cursor) Skip(n int) {
	for i := 0; i < n; i++ {
		if _, ok := c.Next(); !ok {
			return
		}
	}
}

// Jump moves to an absolute index.
func (c *Cursor) Jump(i int) error {
	if i < 0 || i >= len(c.text) {
		return fmt.Errorf("jump to %d out of range [0, %d)", i, len(c.text))
	}
	c.index = i
	return nil
}

// Mark returns a checkpoint for Reset.
func (c *Cursor) Mark() int { return c.index }

// Reset returns to a checkpoint obtained from Mark.
func (c *Cursor) Reset(mark int) { c.index = mark }

// Escaped reports whether the current character is preceded by an
// unescaped backslash. The sentinels past the input are never escaped.
func (c *Cursor) Escaped() bool {
	if c.index >= c.size {
		return false
	}
	n := 0
	for i := c.index - 1; i >= 0 && c.text[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// Is reports whether the current character is r and not escaped.
func (c *Cursor) Is(r rune) bool {
	return c.text[c.index] == r && !c.Escaped()
}

// IsAny reports whether the current character is in set and not escaped.
func (c *Cursor) IsAny(set []rune) bool {
	cur := c.text[c.index]
	for _, r := range set {
		if cur == r {
			return !c.Escaped()
		}
	}
	return false
}

// IsLinebreak reports whether the cursor is at an unescaped line break or
// at the current line limit.
func (c *Cursor) IsLinebreak() bool {
	if c.limit >= 0 && c.index >= c.limit {
		return true
	}
	return c.Is('\n')
}

// IsInlineWhitespace reports whether the current character is a space or a
// tab.
func (c *Cursor) IsInlineWhitespace() bool {
	return c.IsAny(inlineWhitespace)
}

// SkipWhitespace skips spaces, tabs and line breaks.
func (c *Cursor) SkipWhitespace() {
	for !c.Done() && (c.IsInlineWhitespace() || c.IsLinebreak()) {
		if _, ok := c.Next(); !ok {
			return
		}
	}
}

// SkipInlineWhitespace skips spaces and tabs and returns how many were
// skipped.
func (c *Cursor) SkipInlineWhitespace() int {
	n := 0
	for c.IsInlineWhitespace() && !c.IsLinebreak() {
		if _, ok := c.Next(); !ok {
			break
		}
		n++
	}
	return n
}

// SkipLine moves past the next line break and returns the skipped text.
func (c *Cursor) SkipLine() string {
	start := c.index
	for !c.IsLinebreak() {
		if _, ok := c.Next(); !ok {
			break
		}
	}
	text := string(c.text[start:c.index])
	c.Next()
	return text
}

// Match consumes seq when the input continues with it. The first character
// must not be escaped. On mismatch the cursor does not move.
func (c *Cursor) Match(seq string) bool {
	runes := []rune(seq)
	if c.index+len(runes) > len(c.text) || (len(runes) > 0 && c.Escaped()) {
		return false
	}
	for i, r := range runes {
		j := c.index + i
		if c.text[j] != r || (c.limit >= 0 && j >= c.limit) {
			return false
		}
	}
	c.index += len(runes)
	if c.index >= len(c.text) {
		c.index = len(c.text) - 1
	}
	return true
}

// Lookahead reports whether the input continues with seq without moving.
func (c *Cursor) Lookahead(seq string) bool {
	start := c.index
	ok := c.Match(seq)
	c.index = start
	return ok
}

// Slice returns the text between two indices.
func (c *Cursor) Slice(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(c.text) {
		to = len(c.text)
	}
	if from >= to {
		return ""
	}
	return string(c.text[from:to])
}

// LineEnd returns the index of the next unescaped line break.
func (c *Cursor) LineEnd() int {
	start := c.index
	defer func() { c.index = start }()
	for !c.Is('\n') {
		if _, ok := c.Next(); !ok {
			break
		}
	}
	return c.index
}

// Limit makes IsLinebreak report true from index i on.
func (c *Cursor) Limit(i int) { c.limit = i }

// Unlimit removes the line limit.
func (c *Cursor) Unlimit() { c.limit = -1 }

// Position returns the 1-based line and column of index i.
func (c *Cursor) Position(i int) (line, column int) {
	n := sort.Search(len(c.lines), func(k int) bool { return c.lines[k] > i })
	return n, i - c.lines[n-1] + 1
}
