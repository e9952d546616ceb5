package markup

import (
	"errors"
	"sync"
)

// ErrAnchorResolved is returned when an import anchor is resolved twice.
var ErrAnchorResolved = errors.New("import anchor already resolved")

// AnchorNode is an ordered buffer of blocks shared between the code that
// records a splice point and the task producing its content. Nested anchor
// nodes stand in for content that is not available yet and are replaced by
// their contents on Flatten.
type AnchorNode struct {
	mu       sync.RWMutex
	elements []Block
}

func (*AnchorNode) block() {}

// NewAnchorNode returns an empty anchor node.
func NewAnchorNode() *AnchorNode {
	return &AnchorNode{}
}

// Add appends blocks to the node.
func (a *AnchorNode) Add(blocks ...Block) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.elements = append(a.elements, blocks...)
}

// Len returns the number of direct elements.
func (a *AnchorNode) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.elements)
}

// Elements returns a copy of the direct elements.
func (a *AnchorNode) Elements() []Block {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Block, len(a.elements))
	copy(out, a.elements)
	return out
}

// TakeElements returns the elements and leaves the node empty, so content
// handed to a new owner is never duplicated.
func (a *AnchorNode) TakeElements() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.elements
	a.elements = nil
	return out
}

// Anchor appends a fresh child node at the current position and returns it.
func (a *AnchorNode) Anchor() *AnchorNode {
	child := NewAnchorNode()
	a.Add(child)
	return child
}

// Flatten replaces every nested anchor node, depth first, with its contents.
// Non-anchor elements keep their relative order and spliced content appears
// exactly where its anchor was.
func (a *AnchorNode) Flatten() {
	a.mu.Lock()
	defer a.mu.Unlock()

	flat := make([]Block, 0, len(a.elements))
	for _, el := range a.elements {
		child, ok := el.(*AnchorNode)
		if !ok {
			flat = append(flat, el)
			continue
		}
		if child == a {
			continue
		}
		child.Flatten()
		flat = append(flat, child.TakeElements()...)
	}
	a.elements = flat
}

// Contents returns the flattened contents without modifying the node or any
// of its children.
func (a *AnchorNode) Contents() []Block {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []Block
	for _, el := range a.elements {
		if child, ok := el.(*AnchorNode); ok && child != a {
			out = append(out, child.Contents()...)
			continue
		}
		out = append(out, el)
	}
	return out
}

// ImportAnchor receives the parsed document of an import. It is shared by
// the Import node in the parent tree and the task parsing the imported file.
type ImportAnchor struct {
	mu       sync.Mutex
	node     *AnchorNode
	document *Document
	nested   []*ImportAnchor
	standIn  bool
	resolved bool
	taken    bool
}

// NewImportAnchor returns an unresolved anchor.
func NewImportAnchor() *ImportAnchor {
	return &ImportAnchor{node: NewAnchorNode()}
}

// Resolve hands the imported document to the anchor. The document's
// elements move into the anchor; top-level imports of the document are
// redirected into child nodes so that content they receive later lands in
// place. Resolve succeeds at most once.
func (a *ImportAnchor) Resolve(doc *Document) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolved {
		return ErrAnchorResolved
	}
	a.resolved = true
	a.document = doc

	if a.standIn {
		a.node.TakeElements()
		a.standIn = false
	}

	elements := doc.Elements
	doc.Elements = nil
	for _, el := range elements {
		imp, ok := el.(*Import)
		if !ok {
			a.node.Add(el)
			continue
		}
		imp.Anchor.redirect(a.node.Anchor(), imp)
		a.nested = append(a.nested, imp.Anchor)
	}
	return nil
}

// redirect moves the anchor's content into slot and makes slot the target
// of future content. Until the anchor resolves, imp stands in for it.
func (a *ImportAnchor) redirect(slot *AnchorNode, imp *Import) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolved {
		slot.Add(a.node.TakeElements()...)
	} else {
		slot.Add(imp)
		a.standIn = true
	}
	a.node = slot
}

// Resolved reports whether a document was handed to the anchor.
func (a *ImportAnchor) Resolved() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolved
}

// Document returns the resolved document without consuming it. Its elements
// live in the anchor; see Contents.
func (a *ImportAnchor) Document() *Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.document
}

// Contents returns the flattened content without consuming it.
func (a *ImportAnchor) Contents() []Block {
	a.mu.Lock()
	node := a.node
	a.mu.Unlock()
	return node.Contents()
}

// Take consumes the anchor. It returns the flattened content and the
// documents whose registries belong to it (this anchor's first, then nested
// imports in order). ok is false when the anchor is unresolved or was
// already taken.
func (a *ImportAnchor) Take() (docs []*Document, elements []Block, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.resolved || a.taken {
		return nil, nil, false
	}
	a.taken = true
	a.node.Flatten()
	elements = a.node.TakeElements()

	docs = append(docs, a.document)
	for _, n := range a.nested {
		docs = append(docs, n.takeDocuments()...)
	}
	return docs, elements, true
}

func (a *ImportAnchor) takeDocuments() []*Document {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.resolved || a.taken {
		return nil
	}
	a.taken = true
	docs := []*Document{a.document}
	for _, n := range a.nested {
		docs = append(docs, n.takeDocuments()...)
	}
	return docs
}
