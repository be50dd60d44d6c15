package regalloc

import (
	"sort"

	"github.com/raymyers/ralph-tc/pkg/ir"
)

// VarSet is a set of variables.
type VarSet map[ir.Variable]struct{}

func NewVarSet() VarSet { return make(VarSet) }

func (s VarSet) Add(v ir.Variable)           { s[v] = struct{}{} }
func (s VarSet) Contains(v ir.Variable) bool { _, ok := s[v]; return ok }

// InterferenceGraph connects variables whose live ranges overlap.
// A live range runs from the first write (or first read, for variables
// never written) to the last read.
type InterferenceGraph struct {
	Nodes VarSet
	Edges map[ir.Variable]VarSet

	// Pressure is the number of live ranges covering each line, 1-based.
	Pressure []int
}

// NewInterferenceGraph creates an empty interference graph
func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		Nodes: NewVarSet(),
		Edges: make(map[ir.Variable]VarSet),
	}
}

// AddNode adds a variable to the graph
func (g *InterferenceGraph) AddNode(v ir.Variable) {
	g.Nodes.Add(v)
	if g.Edges[v] == nil {
		g.Edges[v] = NewVarSet()
	}
}

// AddEdge adds an interference edge between two variables
func (g *InterferenceGraph) AddEdge(v1, v2 ir.Variable) {
	if v1 == v2 {
		return // No self-edges
	}
	g.AddNode(v1)
	g.AddNode(v2)
	g.Edges[v1].Add(v2)
	g.Edges[v2].Add(v1)
}

// HasEdge returns true if there is an interference edge
func (g *InterferenceGraph) HasEdge(v1, v2 ir.Variable) bool {
	if edges, ok := g.Edges[v1]; ok {
		return edges.Contains(v2)
	}
	return false
}

// Degree returns the number of neighbors of v
func (g *InterferenceGraph) Degree(v ir.Variable) int {
	return len(g.Edges[v])
}

// MaxPressure returns the highest number of simultaneously live variables
// and the first line it occurs at.
func (g *InterferenceGraph) MaxPressure() (pressure, line int) {
	for i, p := range g.Pressure {
		if p > pressure {
			pressure, line = p, i+1
		}
	}
	return pressure, line
}

type liveRange struct {
	v          ir.Variable
	start, end int
}

// BuildInterferenceGraph derives live ranges from live for a program of n
// lines. Variables never read get a single-line range at their definition.
func BuildInterferenceGraph(live *Liveness, n int) *InterferenceGraph {
	g := NewInterferenceGraph()
	g.Pressure = make([]int, n)

	var ranges []liveRange

	for _, v := range live.Variables() {
		start, hasDef := live.Def(v)

		end := 0
		if rs := live.reads[v]; len(rs) != 0 {
			end = rs[len(rs)-1]
			if !hasDef || rs[0] < start {
				start = rs[0]
			}
		}
		if end < start {
			end = start
		}

		g.AddNode(v)
		ranges = append(ranges, liveRange{v: v, start: start, end: end})

		for l := start; l <= end && l <= n; l++ {
			g.Pressure[l-1]++
		}
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })

	for i, r := range ranges {
		for _, o := range ranges[i+1:] {
			if o.start > r.end {
				break
			}
			g.AddEdge(r.v, o.v)
		}
	}

	return g
}
