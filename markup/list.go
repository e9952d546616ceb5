package markup

// NestListItems turns a flat sequence of items into a forest using each
// item's indentation level. An item becomes a child of the closest preceding
// item with a smaller level; items with equal levels are siblings.
func NestListItems(flat []*ListItem) []*ListItem {
	var roots []*ListItem
	stack := make([]*ListItem, 0, len(flat))

	pop := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			stack[len(stack)-1].AddChild(top)
		} else {
			roots = append(roots, top)
		}
	}

	for _, item := range flat {
		for len(stack) > 0 && stack[len(stack)-1].Level >= item.Level {
			pop()
		}
		stack = append(stack, item)
	}
	for len(stack) > 0 {
		pop()
	}
	return roots
}
