package markup

// InlineKind identifies the variant held by an Inline.
type InlineKind int

const (
	KindPlain InlineKind = iota
	KindBold
	KindItalic
	KindUnderlined
	KindStriked
	KindMonospace
	KindSuperscript
	KindURL
	KindImage
	KindCheckbox
	KindEmoji
	KindColored
	KindMath
	KindBibReference
	KindTemplateVar
	KindPlaceholder
)

var inlineKindNames = [...]string{
	KindPlain:        "plain",
	KindBold:         "bold",
	KindItalic:       "italic",
	KindUnderlined:   "underlined",
	KindStriked:      "striked",
	KindMonospace:    "monospace",
	KindSuperscript:  "superscript",
	KindURL:          "url",
	KindImage:        "image",
	KindCheckbox:     "checkbox",
	KindEmoji:        "emoji",
	KindColored:      "colored",
	KindMath:         "math",
	KindBibReference: "bib-reference",
	KindTemplateVar:  "template-var",
	KindPlaceholder:  "placeholder",
}

func (k InlineKind) String() string {
	if k < 0 || int(k) >= len(inlineKindNames) {
		return "unknown"
	}
	return inlineKindNames[k]
}

// Wraps reports whether the kind carries a nested Inline.
func (k InlineKind) Wraps() bool {
	switch k {
	case KindBold, KindItalic, KindUnderlined, KindStriked, KindSuperscript, KindColored:
		return true
	}
	return false
}

// Inline is a span of formatted text. Only the fields belonging to Kind are
// set; formatting kinds wrap exactly one nested Inline.
type Inline struct {
	Kind        InlineKind
	Text        string // plain and monospace text, emoji name
	Inner       *Inline
	Color       string
	Emoji       rune
	Checked     bool
	URL         *URL
	Image       *Image
	Math        *Math
	Reference   *BibReference
	Var         *TemplateVar
	Placeholder *Placeholder
}

// Plain returns a plain text span.
func Plain(text string) Inline {
	return Inline{Kind: KindPlain, Text: text}
}

// Wrap returns a formatting span around inner.
func Wrap(kind InlineKind, inner Inline) Inline {
	return Inline{Kind: kind, Inner: &inner}
}

// Monospace returns a verbatim code span.
func Monospace(text string) Inline {
	return Inline{Kind: KindMonospace, Text: text}
}

// PlainText returns the span's text with formatting removed.
func (in Inline) PlainText() string {
	switch in.Kind {
	case KindPlain, KindMonospace:
		return in.Text
	case KindEmoji:
		return string(in.Emoji)
	case KindURL:
		if in.URL.Description != "" {
			return in.URL.Description
		}
		return in.URL.Target
	case KindImage:
		return in.Image.URL.Description
	case KindCheckbox:
		if in.Checked {
			return "[x]"
		}
		return "[ ]"
	case KindMath:
		return in.Math.Source
	case KindBibReference:
		return in.Reference.Key
	case KindTemplateVar:
		return in.Var.Name
	case KindPlaceholder:
		if in.Placeholder.Value != nil {
			return in.Placeholder.Value.PlainText()
		}
		return in.Placeholder.Name
	}
	if in.Inner != nil {
		return in.Inner.PlainText()
	}
	return ""
}

// URL is a link target with an optional description.
type URL struct {
	Description string
	Target      string
}

// Image is a link rendered as an image.
type Image struct {
	URL      URL
	Metadata *InlineMetadata
}

// Math holds math source and, when a MathParser is configured, its parsed
// expression. The expression is opaque to this package.
type Math struct {
	Source     string
	Expression any
}

// TemplateVar is a {{name}} reference to a template variable.
type TemplateVar struct {
	Name string
}

// Placeholder is a [[name]] reference that is substituted during
// finalization of the root document. Inline substitutions set Value, block
// substitutions such as the table of contents set Block.
type Placeholder struct {
	Name     string
	Value    *Inline
	Block    Block
	Metadata *InlineMetadata
}

// SetValue records the substituted content.
func (p *Placeholder) SetValue(v Inline) {
	p.Value = &v
}

// Resolved reports whether a substitution was recorded.
func (p *Placeholder) Resolved() bool {
	return p.Value != nil || p.Block != nil
}
