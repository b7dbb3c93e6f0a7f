package scene

// MemoryGraph is an in-memory Graph used by tests and the replay binary.
// It tracks parentage and attach/detach counts so lifecycle behavior can be
// asserted without a rendering surface.
type MemoryGraph struct {
	parents  map[Node]Node
	attached int
	detached int
}

// NewMemoryGraph creates an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{parents: make(map[Node]Node)}
}

func (g *MemoryGraph) Attach(node, parent Node) {
	if _, ok := g.parents[node]; ok {
		return
	}
	g.parents[node] = parent
	g.attached++
}

func (g *MemoryGraph) Detach(node Node) {
	if _, ok := g.parents[node]; !ok {
		return
	}
	delete(g.parents, node)
	g.detached++
}

// Contains reports whether the node is currently attached.
func (g *MemoryGraph) Contains(node Node) bool {
	_, ok := g.parents[node]
	return ok
}

// ParentOf returns the node's parent, or nil when unattached.
func (g *MemoryGraph) ParentOf(node Node) Node {
	return g.parents[node]
}

// Len returns the number of attached nodes.
func (g *MemoryGraph) Len() int { return len(g.parents) }

// AttachCount returns the total number of Attach calls that took effect.
func (g *MemoryGraph) AttachCount() int { return g.attached }

// DetachCount returns the total number of Detach calls that took effect.
func (g *MemoryGraph) DetachCount() int { return g.detached }
