// Package scene models the slice of the rendering surface this core owns:
// nodes carrying graphics resources, and the attach/detach/dispose calls the
// display collaborator exposes. The real renderer supplies its own Graph;
// tests and the replay binary use the in-memory one.
package scene

// Node is anything that can live in the scene graph and own graphics
// resources. Dispose must be idempotent: releasing an already-released node
// is a no-op.
type Node interface {
	Dispose()
	Disposed() bool
	SetVisible(visible bool)
	Visible() bool
}

// Graph is the consumed scene attach/detach interface. Attaching a node
// twice or detaching an unattached node is a no-op.
type Graph interface {
	Attach(node, parent Node)
	Detach(node Node)
}
