package markup

// AddSection nests child below the deepest trailing subsection whose level
// is smaller than child's, or appends it to s.
func (s *Section) AddSection(child *Section) {
	if n := len(s.Elements); n > 0 {
		if last, ok := s.Elements[n-1].(*Section); ok && last.Level() < child.Level() {
			last.AddSection(child)
			return
		}
	}
	s.Add(child)
}

// BuildHierarchy re-nests the document's flat element sequence into
// sections, splicing the content of every resolved import in place. It
// returns the imports that were still unresolved; they are kept in the tree
// at the position they were found.
func (d *Document) BuildHierarchy() []*Import {
	b := &hierarchyBuilder{doc: d}
	d.Elements = b.build(d.Elements)
	return b.unresolved
}

type hierarchyBuilder struct {
	doc        *Document
	unresolved []*Import
}

func (b *hierarchyBuilder) build(elements []Block) []Block {
	queue := make([]Block, len(elements))
	copy(queue, elements)

	var (
		out  []Block
		last *Section // latest top-level section
		open *Section // deepest section receiving content
	)

	for len(queue) > 0 {
		el := queue[0]
		queue = queue[1:]

		switch el := el.(type) {
		case *Import:
			docs, spliced, ok := el.Anchor.Take()
			if !ok {
				b.unresolved = append(b.unresolved, el)
				out = append(out, el)
				last, open = nil, nil
				continue
			}
			b.merge(docs)
			queue = append(spliced, queue...)
		case *AnchorNode:
			el.Flatten()
			queue = append(el.TakeElements(), queue...)
		case *Section:
			if last != nil && el.Level() > last.Level() {
				last.AddSection(el)
				open = el
				continue
			}
			out = append(out, el)
			last, open = el, el
		default:
			if open != nil {
				open.Add(el)
				continue
			}
			out = append(out, el)
		}
	}

	for _, el := range out {
		if s, ok := el.(*Section); ok {
			s.Elements = b.build(s.Elements)
		}
	}
	return out
}

func (b *hierarchyBuilder) merge(docs []*Document) {
	for _, doc := range docs {
		if doc == nil || doc == b.doc {
			continue
		}
		b.doc.Bibliography.Combine(doc.Bibliography)
		b.doc.Placeholders = append(b.doc.Placeholders, doc.Placeholders...)
	}
}
