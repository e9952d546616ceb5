package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/snek/markup"
	"github.com/dhamidi/snek/markup/parser"
)

func parseDoc(t *testing.T, input string) *markup.Document {
	t.Helper()
	doc, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return doc
}

func TestASTJSONEncoder(t *testing.T) {
	doc := parseDoc(t, "# Title {toc-hidden}\nhello **world**\n- a\n  - b\n")

	var buf bytes.Buffer
	if err := NewASTJSONEncoder(&buf).Encode(doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got astDocument
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(got.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(got.Elements))
	}

	section := got.Elements[0]
	if section.Kind != "section" || section.Level != 1 || section.Anchor != "title" {
		t.Errorf("unexpected section %+v", section)
	}
	if section.Metadata["toc-hidden"] != "true" {
		t.Errorf("expected toc-hidden metadata, got %v", section.Metadata)
	}
	if len(section.Title) != 1 || section.Title[0].Text != "Title" {
		t.Errorf("unexpected title %+v", section.Title)
	}
	if len(section.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(section.Children))
	}

	line := section.Children[0].Children[0]
	if len(line.Inlines) != 2 {
		t.Fatalf("expected 2 inlines, got %d", len(line.Inlines))
	}
	bold := line.Inlines[1]
	if bold.Kind != "bold" || len(bold.Inlines) != 1 || bold.Inlines[0].Text != "world" {
		t.Errorf("unexpected bold span %+v", bold)
	}

	list := section.Children[1]
	if list.Kind != "list" || len(list.Children) != 1 || len(list.Children[0].Children) != 1 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestYAMLEncoder(t *testing.T) {
	doc := parseDoc(t, "[[toc]]\n> quoted\n")

	var buf bytes.Buffer
	if err := NewYAMLEncoder(&buf).Encode(doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got astDocument
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
	}
	if len(got.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got.Elements))
	}
	if got.Elements[0].Kind != "placeholder-block" || got.Elements[0].Name != "toc" || !got.Elements[0].Unresolved {
		t.Errorf("unexpected placeholder %+v", got.Elements[0])
	}
	if got.Elements[1].Kind != "quote" {
		t.Errorf("expected quote, got %s", got.Elements[1].Kind)
	}
	if len(got.Placeholders) != 1 {
		t.Errorf("expected registered placeholder, got %d", len(got.Placeholders))
	}
}

func TestLineEncoder(t *testing.T) {
	doc := parseDoc(t, "# A\ntext\n```go\nx\n```\n- one\n  - two\n")

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := strings.Join([]string{
		"document",
		`  section 1 "A" #a`,
		"    paragraph",
		`      line "text"`,
		`    code go "x"`,
		"    list",
		`      item "one"`,
		`        item "two"`,
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("expected\n%s\ngot\n%s", want, buf.String())
	}
}

func TestLineEncoderCentered(t *testing.T) {
	doc := parseDoc(t, "|| Title\nbody\n")

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := "document\n  paragraph\n    centered \"Title\"\n    line \"body\"\n"
	if buf.String() != want {
		t.Errorf("expected\n%s\ngot\n%s", want, buf.String())
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		if _, err := New(name, &bytes.Buffer{}); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
