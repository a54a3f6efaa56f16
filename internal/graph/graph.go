// Package graph provides pure algorithms over the packet dependency
// adjacency: cycle detection, upstream/downstream reachability,
// critical path and impact analysis.
//
// The adjacency maps packet id -> ids it depends on. All functions are
// stateless and safe for concurrent reads; none mutate their inputs.
package graph

import "sort"

// DetectCycle searches the dependency adjacency for a cycle using DFS
// with an explicit recursion stack. Returns the offending path with
// first == last, or nil when the graph is acyclic.
//
// Node visit order is sorted so the reported cycle is deterministic.
func DetectCycle(deps map[string][]string) []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	states := make(map[string]int, len(deps))

	var path []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		states[node] = inStack
		path = append(path, node)

		for _, dep := range deps[node] {
			switch states[dep] {
			case inStack:
				// Close the loop: slice the path from dep's first
				// occurrence and repeat it at the end.
				for i, n := range path {
					if n == dep {
						cycle = append(append([]string{}, path[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		states[node] = done
		return false
	}

	for _, node := range sortedNodes(deps) {
		if states[node] == unvisited && visit(node) {
			return cycle
		}
	}
	return nil
}

// Upstream returns every node reachable by following dependencies out
// of id (the transitive prerequisites), in BFS discovery order,
// deduplicated, excluding id itself.
func Upstream(id string, deps map[string][]string) []string {
	return bfs(id, func(node string) []string { return deps[node] })
}

// Downstream returns every node that transitively depends on id (the
// dependents that would be affected by it), in BFS discovery order.
func Downstream(id string, deps map[string][]string) []string {
	reverse := reverseAdjacency(deps)
	return bfs(id, func(node string) []string { return reverse[node] })
}

// ImpactAnalysis reports which packets a change to id ripples into.
// Identical to Downstream; named for callers reasoning about blast
// radius rather than graph direction.
func ImpactAnalysis(id string, deps map[string][]string) []string {
	return Downstream(id, deps)
}

// CriticalPath returns the longest dependency chain (by edge count)
// through the graph, ordered from root prerequisite to final
// dependent. Returns nil when the graph has a cycle.
//
// Tie-break: among endpoints (and predecessors) of equal distance the
// lexicographically smallest id wins, making the result deterministic
// across runs and map iteration orders.
func CriticalPath(deps map[string][]string, ids []string) []string {
	if DetectCycle(deps) != nil {
		return nil
	}

	nodes := make(map[string]bool, len(ids))
	for _, id := range ids {
		nodes[id] = true
	}
	for id, ds := range deps {
		nodes[id] = true
		for _, d := range ds {
			nodes[d] = true
		}
	}

	// Kahn topological sort over dependency -> dependent edges.
	// indegree counts unprocessed dependencies per node.
	dependents := make(map[string][]string, len(nodes))
	indegree := make(map[string]int, len(nodes))
	for id := range nodes {
		indegree[id] = 0
	}
	for id, ds := range deps {
		for _, d := range ds {
			dependents[d] = append(dependents[d], id)
			indegree[id]++
		}
	}

	var frontier []string
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	dist := make(map[string]int, len(nodes))
	pred := make(map[string]string, len(nodes))

	var order []string
	for len(frontier) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		order = append(order, node)

		next := append([]string{}, dependents[node]...)
		sort.Strings(next)
		for _, child := range next {
			if dist[node]+1 > dist[child] ||
				(dist[node]+1 == dist[child] && node < pred[child]) {
				dist[child] = dist[node] + 1
				pred[child] = node
			}
			indegree[child]--
			if indegree[child] == 0 {
				frontier = append(frontier, child)
				sort.Strings(frontier)
			}
		}
	}
	if len(order) != len(nodes) {
		// Unreachable after the cycle guard, kept as a safety net.
		return nil
	}

	end := ""
	for _, id := range sortedKeys(dist) {
		if end == "" || dist[id] > dist[end] {
			end = id
		}
	}
	if end == "" {
		return nil
	}

	var path []string
	for node := end; ; {
		path = append([]string{node}, path...)
		p, ok := pred[node]
		if !ok {
			break
		}
		node = p
	}
	return path
}

// bfs walks neighbours from start, excluding start itself.
func bfs(start string, neighbours func(string) []string) []string {
	seen := map[string]bool{start: true}
	queue := []string{start}
	var found []string

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range neighbours(node) {
			if seen[next] {
				continue
			}
			seen[next] = true
			found = append(found, next)
			queue = append(queue, next)
		}
	}
	return found
}

func reverseAdjacency(deps map[string][]string) map[string][]string {
	reverse := make(map[string][]string, len(deps))
	for id, ds := range deps {
		for _, d := range ds {
			reverse[d] = append(reverse[d], id)
		}
	}
	// Sorted so BFS discovery order is deterministic.
	for id := range reverse {
		sort.Strings(reverse[id])
	}
	return reverse
}

func sortedNodes(deps map[string][]string) []string {
	set := make(map[string]bool, len(deps))
	for id, ds := range deps {
		set[id] = true
		for _, d := range ds {
			set[d] = true
		}
	}
	return sortedSet(set)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
