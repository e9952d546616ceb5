package markup

import "strconv"

// MetaTOCHidden is the metadata key that hides a section from the table of
// contents.
const MetaTOCHidden = "toc-hidden"

// InlineMetadata is the content of a {...} block. Raw is kept verbatim;
// Values is nil when Raw could not be decoded.
type InlineMetadata struct {
	Raw    string
	Values Metadata
}

// ValueKind identifies the type held by a MetadataValue.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
	ValueBool
	ValuePlaceholder
	ValueTemplate
)

// MetadataValue is one typed metadata value.
type MetadataValue struct {
	Kind        ValueKind
	String      string
	Int         int64
	Float       float64
	Bool        bool
	Placeholder *Placeholder
	Template    *TemplateVar
}

// Text renders the value as it would appear in the source.
func (v MetadataValue) Text() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValuePlaceholder:
		return "[[" + v.Placeholder.Name + "]]"
	case ValueTemplate:
		return "{{" + v.Template.Name + "}}"
	}
	return v.String
}

// Metadata maps keys to typed values.
type Metadata map[string]MetadataValue

// Bool returns the boolean stored under key, false when missing or not a
// boolean.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key]
	return ok && v.Kind == ValueBool && v.Bool
}

// String returns the string stored under key.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v.Kind != ValueString {
		return "", false
	}
	return v.String, true
}
