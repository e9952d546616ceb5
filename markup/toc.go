package markup

// TOC builds a table of contents with one item per section, linking to the
// section's anchor. Sections carrying toc-hidden are left out together with
// their subsections. Imports that are resolved but not yet spliced are
// included.
func (d *Document) TOC(ordered bool) *List {
	return &List{
		Ordered: ordered,
		Items:   tocItems(d.Elements, ordered),
	}
}

func tocItems(elements []Block, ordered bool) []*ListItem {
	var items []*ListItem
	for _, el := range elements {
		switch el := el.(type) {
		case *Section:
			if el.HiddenInTOC() {
				continue
			}
			items = append(items, &ListItem{
				Text:     tocLine(el.Header),
				Level:    el.Level(),
				Ordered:  ordered,
				Children: tocItems(el.Elements, ordered),
			})
		case *Import:
			if el.Anchor.Resolved() {
				items = append(items, tocItems(el.Anchor.Contents(), ordered)...)
			}
		case *AnchorNode:
			items = append(items, tocItems(el.Contents(), ordered)...)
		}
	}
	return items
}

func tocLine(h Header) TextLine {
	return TextLine{Inlines: []Inline{{
		Kind: KindURL,
		URL: &URL{
			Description: h.Title.PlainText(),
			Target:      "#" + h.Anchor,
		},
	}}}
}
