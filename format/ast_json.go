package format

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/dhamidi/snek/markup"
)

type ASTJSONEncoder struct {
	w io.Writer
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(doc *markup.Document) error {
	text, err := e.MarshalText(doc)
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}

func (e *ASTJSONEncoder) MarshalText(doc *markup.Document) ([]byte, error) {
	return json.MarshalIndent(documentNode(doc), "", "  ")
}

// astNode is the encoded form of blocks and inline spans shared by the
// JSON and YAML encoders.
type astNode struct {
	Kind       string            `json:"kind" yaml:"kind"`
	Text       string            `json:"text,omitempty" yaml:"text,omitempty"`
	Level      int               `json:"level,omitempty" yaml:"level,omitempty"`
	Anchor     string            `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Ordered    bool              `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Checked    bool              `json:"checked,omitempty" yaml:"checked,omitempty"`
	Language   string            `json:"language,omitempty" yaml:"language,omitempty"`
	Target     string            `json:"target,omitempty" yaml:"target,omitempty"`
	Color      string            `json:"color,omitempty" yaml:"color,omitempty"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Unresolved bool              `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Centered   bool              `json:"centered,omitempty" yaml:"centered,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Title      []*astNode        `json:"title,omitempty" yaml:"title,omitempty"`
	Inlines    []*astNode        `json:"inlines,omitempty" yaml:"inlines,omitempty"`
	Children   []*astNode        `json:"children,omitempty" yaml:"children,omitempty"`
}

type astDocument struct {
	Path         string        `json:"path,omitempty" yaml:"path,omitempty"`
	Root         bool          `json:"root" yaml:"root"`
	Elements     []*astNode    `json:"elements" yaml:"elements"`
	Placeholders []*astNode    `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`
	References   []astCitation `json:"references,omitempty" yaml:"references,omitempty"`
}

type astCitation struct {
	Key    string `json:"key" yaml:"key"`
	Number int    `json:"number,omitempty" yaml:"number,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
}

func documentNode(doc *markup.Document) *astDocument {
	d := &astDocument{
		Path:     doc.Path,
		Root:     doc.Root,
		Elements: blockNodes(doc.Elements),
	}
	for _, p := range doc.Placeholders {
		d.Placeholders = append(d.Placeholders, placeholderNode(p))
	}
	if doc.Bibliography != nil {
		for _, ref := range doc.Bibliography.References {
			c := astCitation{Key: ref.Key}
			if ref.Entry != nil {
				c.Number = ref.Entry.Number
				c.Title = ref.Entry.Title
			}
			d.References = append(d.References, c)
		}
	}
	return d
}

func blockNodes(blocks []markup.Block) []*astNode {
	nodes := make([]*astNode, 0, len(blocks))
	for _, b := range blocks {
		nodes = append(nodes, blockNode(b))
	}
	return nodes
}

func blockNode(b markup.Block) *astNode {
	switch b := b.(type) {
	case *markup.Section:
		return &astNode{
			Kind:     "section",
			Level:    b.Level(),
			Anchor:   b.Header.Anchor,
			Metadata: metadataMap(b.Metadata),
			Title:    lineNodes(b.Header.Title),
			Children: blockNodes(b.Elements),
		}
	case *markup.Paragraph:
		return &astNode{Kind: "paragraph", Children: linesNodes(b.Lines)}
	case *markup.List:
		n := &astNode{Kind: "list", Ordered: b.Ordered}
		for _, item := range b.Items {
			n.Children = append(n.Children, listItemNode(item))
		}
		return n
	case *markup.Table:
		n := &astNode{Kind: "table", Children: []*astNode{rowNode("header", b.Header)}}
		for _, row := range b.Rows {
			n.Children = append(n.Children, rowNode("row", row))
		}
		return n
	case *markup.CodeBlock:
		return &astNode{Kind: "code", Language: b.Language, Text: b.Code}
	case *markup.MathBlock:
		return &astNode{Kind: "math", Text: b.Math.Source}
	case *markup.Quote:
		return &astNode{Kind: "quote", Metadata: metadataMap(b.Metadata), Children: linesNodes(b.Lines)}
	case *markup.Import:
		n := &astNode{Kind: "import", Target: b.Path, Unresolved: !b.Anchor.Resolved()}
		if !n.Unresolved {
			n.Children = blockNodes(b.Anchor.Contents())
		}
		return n
	case *markup.PlaceholderBlock:
		n := placeholderNode(b.Placeholder)
		n.Kind = "placeholder-block"
		return n
	case *markup.AnchorNode:
		return &astNode{Kind: "anchor", Children: blockNodes(b.Contents())}
	}
	return &astNode{Kind: "unknown"}
}

func placeholderNode(p *markup.Placeholder) *astNode {
	n := &astNode{
		Kind:       "placeholder",
		Name:       p.Name,
		Unresolved: !p.Resolved(),
		Metadata:   metadataMap(p.Metadata),
	}
	if p.Value != nil {
		n.Inlines = []*astNode{inlineNode(*p.Value)}
	}
	if p.Block != nil {
		n.Children = []*astNode{blockNode(p.Block)}
	}
	return n
}

func listItemNode(item *markup.ListItem) *astNode {
	n := &astNode{Kind: "item", Ordered: item.Ordered, Inlines: lineNodes(item.Text)}
	for _, child := range item.Children {
		n.Children = append(n.Children, listItemNode(child))
	}
	return n
}

func rowNode(kind string, row markup.Row) *astNode {
	n := &astNode{Kind: kind}
	for _, cell := range row.Cells {
		n.Children = append(n.Children, &astNode{Kind: "cell", Inlines: lineNodes(cell.Text)})
	}
	return n
}

func linesNodes(lines []markup.TextLine) []*astNode {
	nodes := make([]*astNode, 0, len(lines))
	for _, l := range lines {
		nodes = append(nodes, &astNode{Kind: "line", Centered: l.Centered, Inlines: lineNodes(l)})
	}
	return nodes
}

func lineNodes(l markup.TextLine) []*astNode {
	if len(l.Inlines) == 0 {
		return nil
	}
	nodes := make([]*astNode, len(l.Inlines))
	for i, in := range l.Inlines {
		nodes[i] = inlineNode(in)
	}
	return nodes
}

func inlineNode(in markup.Inline) *astNode {
	n := &astNode{Kind: in.Kind.String()}
	switch in.Kind {
	case markup.KindPlain, markup.KindMonospace:
		n.Text = in.Text
	case markup.KindEmoji:
		n.Name = in.Text
		n.Text = string(in.Emoji)
	case markup.KindCheckbox:
		n.Checked = in.Checked
	case markup.KindURL:
		n.Text = in.URL.Description
		n.Target = in.URL.Target
	case markup.KindImage:
		n.Text = in.Image.URL.Description
		n.Target = in.Image.URL.Target
		n.Metadata = metadataMap(in.Image.Metadata)
	case markup.KindMath:
		n.Text = in.Math.Source
	case markup.KindBibReference:
		n.Name = in.Reference.Key
	case markup.KindTemplateVar:
		n.Name = in.Var.Name
	case markup.KindColored:
		n.Color = in.Color
	case markup.KindPlaceholder:
		return placeholderNode(in.Placeholder)
	}
	if in.Inner != nil {
		n.Inlines = []*astNode{inlineNode(*in.Inner)}
	}
	return n
}

// metadataMap renders metadata values as text. Undecodable metadata keeps
// its raw source under the empty key.
func metadataMap(m *markup.InlineMetadata) map[string]string {
	if m == nil {
		return nil
	}
	if m.Values == nil {
		return map[string]string{"": m.Raw}
	}
	out := make(map[string]string, len(m.Values))
	for k, v := range m.Values {
		out[k] = v.Text()
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
