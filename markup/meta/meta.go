// Package meta decodes the content of inline metadata blocks such as
// {toc-hidden, width=200, caption="A figure"} into typed values.
package meta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/dhamidi/snek/markup"
)

// List is a comma or semicolon separated sequence of entries.
type List struct {
	Entries []*Entry `( @@ ( ( "," | ";" ) @@ )* ( "," | ";" )? )?`
}

// Entry is key=value or a bare key, which reads as true.
type Entry struct {
	Key   string `@( Ident | String )`
	Value *Value `( "=" @@ )?`
}

// Value is one typed value.
type Value struct {
	Placeholder *string  `  @Placeholder`
	Template    *string  `| @Template`
	String      *string  `| @String`
	Float       *float64 `| @Float`
	Int         *int64   `| @Int`
	Bool        *Boolean `| @( "true" | "false" )`
	Word        *string  `| @( Ident | Word )`
}

// Boolean captures the literals true and false.
type Boolean bool

func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// Order matters: placeholders and template variables before words, floats
// before ints, identifiers before bare words.
var metaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Placeholder", Pattern: `\[\[[^\]\r\n]*\]\]`},
	{Name: "Template", Pattern: `\{\{[^}\r\n]*\}\}`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*`},
	{Name: "Punct", Pattern: `[=,;]`},
	{Name: "Word", Pattern: `[^\s,;="']+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var metaParser = participle.MustBuild[List](
	participle.Lexer(metaLexer),
	participle.Elide("Whitespace"),
)

// Parse parses raw metadata into its syntax tree.
func Parse(raw string) (*List, error) {
	return metaParser.ParseString("", raw)
}

// Decode parses raw metadata into typed values. Later keys override earlier
// ones.
func Decode(raw string) (markup.Metadata, error) {
	list, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata %q: %w", raw, err)
	}

	out := make(markup.Metadata, len(list.Entries))
	for _, e := range list.Entries {
		key := e.Key
		if strings.HasPrefix(key, `"`) || strings.HasPrefix(key, `'`) {
			key = unquote(key)
		}
		if e.Value == nil {
			out[key] = markup.MetadataValue{Kind: markup.ValueBool, Bool: true}
			continue
		}
		out[key] = e.Value.decode()
	}
	return out, nil
}

func (v *Value) decode() markup.MetadataValue {
	switch {
	case v.Placeholder != nil:
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(*v.Placeholder, "[["), "]]"))
		return markup.MetadataValue{Kind: markup.ValuePlaceholder, Placeholder: &markup.Placeholder{Name: name}}
	case v.Template != nil:
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(*v.Template, "{{"), "}}"))
		return markup.MetadataValue{Kind: markup.ValueTemplate, Template: &markup.TemplateVar{Name: name}}
	case v.String != nil:
		return markup.MetadataValue{Kind: markup.ValueString, String: unquote(*v.String)}
	case v.Float != nil:
		return markup.MetadataValue{Kind: markup.ValueFloat, Float: *v.Float}
	case v.Int != nil:
		return markup.MetadataValue{Kind: markup.ValueInt, Int: *v.Int}
	case v.Bool != nil:
		return markup.MetadataValue{Kind: markup.ValueBool, Bool: bool(*v.Bool)}
	case v.Word != nil:
		return markup.MetadataValue{Kind: markup.ValueString, String: *v.Word}
	}
	return markup.MetadataValue{Kind: markup.ValueString}
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return strings.ReplaceAll(s[1:len(s)-1], `\`+string(s[0]), string(s[0]))
}
