package solve

// Solution is a tree of resolved packages: a root Package with child
// Solutions. The runtime closure is flat (its children have no children of
// their own); each devDependency gets its own nested Solution whose children
// are the packages private to that devDependency's closure.
type Solution struct {
	Package  Package
	Children []Solution
}

// Flatten returns every Package in the tree, including the root, with no
// duplicates (by PackageKey).
func (s Solution) Flatten() []Package {
	seen := make(map[PackageKey]struct{})
	var out []Package
	var walk func(Solution)
	walk = func(n Solution) {
		if _, ok := seen[n.Package.Key()]; !ok {
			seen[n.Package.Key()] = struct{}{}
			out = append(out, n.Package)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s)
	return out
}
