package analyzer

// BuildHierarchy links zones (given in document order) into a tree using an
// explicit stack of open headers. A zone's parent is the nearest preceding
// header with a strictly lower level; only headers are pushed, so body zones
// never become parents. Returns the parent id to ordered child ids mapping.
func BuildHierarchy(zones []*Zone) map[string][]string {
	type open struct {
		id    string
		level int
	}
	stack := make([]open, 0, 8)
	children := make(map[string][]string)

	for _, z := range zones {
		for len(stack) > 0 && stack[len(stack)-1].level >= z.Level {
			stack = stack[:len(stack)-1]
		}
		z.Parent = ""
		if len(stack) > 0 {
			parent := stack[len(stack)-1].id
			z.Parent = parent
			children[parent] = append(children[parent], z.ID)
		}
		if z.Type == ZoneHeader {
			stack = append(stack, open{id: z.ID, level: z.Level})
		}
	}

	for _, z := range zones {
		z.Children = children[z.ID]
	}
	return children
}
