package markup

// Walk calls fn for every block in document order, descending into
// sections and anchor nodes. Returning false from fn skips the block's
// children.
func Walk(blocks []Block, fn func(Block) bool) {
	for _, b := range blocks {
		if !fn(b) {
			continue
		}
		switch b := b.(type) {
		case *Section:
			Walk(b.Elements, fn)
		case *AnchorNode:
			Walk(b.Contents(), fn)
		}
	}
}

// Lines returns the text lines held directly by a block.
func Lines(b Block) []TextLine {
	switch b := b.(type) {
	case *Section:
		return []TextLine{b.Header.Title}
	case *Paragraph:
		return b.Lines
	case *Quote:
		return b.Lines
	case *List:
		var out []TextLine
		var add func(items []*ListItem)
		add = func(items []*ListItem) {
			for _, it := range items {
				out = append(out, it.Text)
				add(it.Children)
			}
		}
		add(b.Items)
		return out
	case *Table:
		var out []TextLine
		for _, c := range b.Header.Cells {
			out = append(out, c.Text)
		}
		for _, r := range b.Rows {
			for _, c := range r.Cells {
				out = append(out, c.Text)
			}
		}
		return out
	}
	return nil
}

// WalkInlines calls fn for every inline of the blocks, including inlines
// nested inside formatting spans.
func WalkInlines(blocks []Block, fn func(*Inline)) {
	Walk(blocks, func(b Block) bool {
		for _, line := range Lines(b) {
			for i := range line.Inlines {
				walkInline(&line.Inlines[i], fn)
			}
		}
		return true
	})
}

func walkInline(in *Inline, fn func(*Inline)) {
	fn(in)
	if in.Inner != nil {
		walkInline(in.Inner, fn)
	}
}

// MetadataOf returns the inline metadata attached to a block, if any.
func MetadataOf(b Block) *InlineMetadata {
	switch b := b.(type) {
	case *Section:
		return b.Metadata
	case *Quote:
		return b.Metadata
	case *PlaceholderBlock:
		return b.Placeholder.Metadata
	}
	return nil
}
