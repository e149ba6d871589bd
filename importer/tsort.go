package importer

// topologicalSort orders items so that every dependency of an item
// precedes it, via three-color DFS; a circular dependency among the
// items given abandons the sort and returns the items unordered rather
// than fail the whole import (§4.11: dependency ordering is a best-effort
// convenience, not a correctness requirement the catalog enforces itself).
//
// Adapted from schema/tsort.go's topologicalSort, unchanged in algorithm.
func topologicalSort[T any](items []T, dependencies map[string][]string, getID func(T) string) []T {
	var sorted []T
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemMap := make(map[string]T)

	for _, item := range items {
		itemMap[getID(item)] = item
	}

	var visit func(string) bool
	visit = func(id string) bool {
		if visiting[id] {
			return false
		}
		if visited[id] {
			return true
		}
		visiting[id] = true
		for _, dep := range dependencies[id] {
			if _, exists := itemMap[dep]; exists {
				if !visit(dep) {
					return false
				}
			}
		}
		visiting[id] = false
		visited[id] = true
		if item, exists := itemMap[id]; exists {
			sorted = append(sorted, item)
		}
		return true
	}

	for _, item := range items {
		id := getID(item)
		if !visited[id] {
			if !visit(id) {
				return items
			}
		}
	}
	return sorted
}
