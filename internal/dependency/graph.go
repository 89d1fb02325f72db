package dependency

import (
	"sort"

	"github.com/scalemesh/coordinator/pkg/models"
)

// Graph is a directed view over a set of dependency edges. Node order is
// made total with a lexicographic tie-break so every traversal is
// deterministic regardless of map iteration order.
type Graph struct {
	nodes map[string]struct{}
	out   map[string][]string
}

// BuildGraph constructs the graph from edges. When enabledOnly is set,
// disabled edges are left out (resolver view); write-time cycle checks use
// every stored edge so a disabled edge cannot smuggle in a cycle once
// re-enabled.
func BuildGraph(edges []*models.ScalingDependency, enabledOnly bool) *Graph {
	g := &Graph{
		nodes: make(map[string]struct{}),
		out:   make(map[string][]string),
	}
	for _, e := range edges {
		if enabledOnly && !e.Enabled {
			continue
		}
		g.AddEdge(e.Source, e.Target)
	}
	return g
}

func (g *Graph) AddEdge(source, target string) {
	g.nodes[source] = struct{}{}
	g.nodes[target] = struct{}{}
	g.out[source] = append(g.out[source], target)
}

func (g *Graph) AddNode(name string) {
	g.nodes[name] = struct{}{}
}

// TopologicalOrder returns every node in a stable topological order
// (sources before targets, ties broken lexicographically). The second
// return value lists nodes that could not be ordered: members of a cycle
// and everything downstream of one. It is empty for a DAG.
func (g *Graph) TopologicalOrder() (ordered []string, unordered []string) {
	indegree := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		indegree[n] = 0
	}
	for _, targets := range g.out {
		for _, t := range targets {
			indegree[t]++
		}
	}

	var ready []string
	for n, d := range indegree {
		if d == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	ordered = make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		ordered = append(ordered, n)

		for _, t := range g.out[n] {
			indegree[t]--
			if indegree[t] == 0 {
				i := sort.SearchStrings(ready, t)
				ready = append(ready, "")
				copy(ready[i+1:], ready[i:])
				ready[i] = t
			}
		}
	}

	if len(ordered) < len(g.nodes) {
		for n, d := range indegree {
			if d > 0 {
				unordered = append(unordered, n)
			}
		}
		sort.Strings(unordered)
	}
	return ordered, unordered
}

// FindCycle returns one concrete cycle as a node path (first node repeated
// at the end), or nil when the graph is acyclic. Used to build CycleError
// messages at write time.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		state[n] = visiting
		stack = append(stack, n)

		targets := append([]string(nil), g.out[n]...)
		sort.Strings(targets)
		for _, t := range targets {
			switch state[t] {
			case visiting:
				// Unwind the stack back to t to report the loop itself.
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == t {
						cycle = append(append([]string(nil), stack[i:]...), t)
						return true
					}
				}
			case unvisited:
				if visit(t) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[n] = done
		return false
	}

	roots := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		roots = append(roots, n)
	}
	sort.Strings(roots)

	for _, n := range roots {
		if state[n] == unvisited && visit(n) {
			return cycle
		}
	}
	return nil
}
