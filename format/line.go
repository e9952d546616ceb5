package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/snek/markup"
)

// LineEncoder writes one line per block, indented by depth. Text lines are
// shown as plain text.
type LineEncoder struct {
	w io.Writer
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(doc *markup.Document) error {
	text, err := e.MarshalText(doc)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText(doc *markup.Document) ([]byte, error) {
	var sb strings.Builder
	header := "document"
	if doc.Path != "" {
		header += " " + doc.Path
	}
	sb.WriteString(header + "\n")
	for _, b := range doc.Elements {
		writeBlock(&sb, b, 1)
	}
	return []byte(sb.String()), nil
}

func writeLine(sb *strings.Builder, depth int, format string, args ...any) {
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, format, args...)
	sb.WriteByte('\n')
}

func writeText(sb *strings.Builder, depth int, l markup.TextLine) {
	if l.Centered {
		writeLine(sb, depth, "centered %s", strconv.Quote(l.PlainText()))
		return
	}
	writeLine(sb, depth, "line %s", strconv.Quote(l.PlainText()))
}

func writeBlock(sb *strings.Builder, b markup.Block, depth int) {
	switch b := b.(type) {
	case *markup.Section:
		writeLine(sb, depth, "section %d %s #%s%s", b.Level(), strconv.Quote(b.Header.Title.PlainText()), b.Header.Anchor, metadataSuffix(b.Metadata))
		for _, el := range b.Elements {
			writeBlock(sb, el, depth+1)
		}
	case *markup.Paragraph:
		writeLine(sb, depth, "paragraph")
		for _, l := range b.Lines {
			writeText(sb, depth+1, l)
		}
	case *markup.List:
		kind := "list"
		if b.Ordered {
			kind = "ordered-list"
		}
		writeLine(sb, depth, "%s", kind)
		for _, item := range b.Items {
			writeItem(sb, item, depth+1)
		}
	case *markup.Table:
		writeLine(sb, depth, "table %d rows", len(b.Rows))
		writeRow(sb, "header", b.Header, depth+1)
		for _, row := range b.Rows {
			writeRow(sb, "row", row, depth+1)
		}
	case *markup.CodeBlock:
		writeLine(sb, depth, "code %s %s", b.Language, strconv.Quote(b.Code))
	case *markup.MathBlock:
		writeLine(sb, depth, "math %s", strconv.Quote(b.Math.Source))
	case *markup.Quote:
		writeLine(sb, depth, "quote%s", metadataSuffix(b.Metadata))
		for _, l := range b.Lines {
			writeText(sb, depth+1, l)
		}
	case *markup.Import:
		if !b.Anchor.Resolved() {
			writeLine(sb, depth, "import %s (unresolved)", b.Path)
			return
		}
		writeLine(sb, depth, "import %s", b.Path)
		for _, el := range b.Anchor.Contents() {
			writeBlock(sb, el, depth+1)
		}
	case *markup.PlaceholderBlock:
		writeLine(sb, depth, "placeholder %s", b.Placeholder.Name)
		if b.Placeholder.Block != nil {
			writeBlock(sb, b.Placeholder.Block, depth+1)
		}
	case *markup.AnchorNode:
		for _, el := range b.Contents() {
			writeBlock(sb, el, depth)
		}
	}
}

func writeItem(sb *strings.Builder, item *markup.ListItem, depth int) {
	writeLine(sb, depth, "item %s", strconv.Quote(item.Text.PlainText()))
	for _, child := range item.Children {
		writeItem(sb, child, depth+1)
	}
}

func writeRow(sb *strings.Builder, kind string, row markup.Row, depth int) {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = strconv.Quote(c.Text.PlainText())
	}
	writeLine(sb, depth, "%s %s", kind, strings.Join(cells, " | "))
}

func metadataSuffix(m *markup.InlineMetadata) string {
	values := metadataMap(m)
	if len(values) == 0 {
		return ""
	}
	var parts []string
	for _, k := range sortedKeys(values) {
		parts = append(parts, k+"="+values[k])
	}
	return " {" + strings.Join(parts, ", ") + "}"
}
