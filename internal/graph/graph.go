// Package graph provides a small workflow graph: named nodes that each
// transform a state value, wired into a single path from Start to End.
// A graph is validated once by Compile and the resulting Runnable can be
// invoked any number of times.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sentinel node names marking the entry and exit of a workflow.
const (
	Start = "__start__"
	End   = "__end__"
)

var (
	// ErrCycleDetected indicates the edges form a loop.
	ErrCycleDetected = errors.New("circular edge detected")
	// ErrUnknownNode indicates an edge references a node that was never added.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode indicates a node name was added twice or is reserved.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrBranching indicates a node has more than one outgoing edge.
	ErrBranching = errors.New("node has more than one outgoing edge")
	// ErrNoPath indicates End cannot be reached by following edges from Start.
	ErrNoPath = errors.New("no path from start to end")
	// ErrUnreachable indicates a node is not on the path from Start to End.
	ErrUnreachable = errors.New("node not reachable from start")
)

// NodeFunc transforms the workflow state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Graph collects nodes and edges before compilation.
type Graph[S any] struct {
	mu sync.Mutex
	// nodes maps node name to its function.
	nodes map[string]NodeFunc[S]
	// order records insertion order so validation errors are deterministic.
	order []string
	// edges maps a node to the node that runs after it.
	edges map[string]string
	// errs holds problems found while building, reported by Compile.
	errs []error
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates an empty graph.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:    make(map[string]NodeFunc[S]),
		edges:    make(map[string]string),
		debugLog: func(format string, args ...interface{}) {}, // no-op by default
	}
}

// SetDebugLog sets the debug logging function.
func (g *Graph[S]) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// AddNode registers a named node. Problems are reported by Compile.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case name == "" || name == Start || name == End:
		g.errs = append(g.errs, fmt.Errorf("%w: reserved name %q", ErrDuplicateNode, name))
	case fn == nil:
		g.errs = append(g.errs, fmt.Errorf("node %q has no function", name))
	default:
		if _, exists := g.nodes[name]; exists {
			g.errs = append(g.errs, fmt.Errorf("%w: %q", ErrDuplicateNode, name))
			return g
		}
		g.nodes[name] = fn
		g.order = append(g.order, name)
	}
	return g
}

// AddEdge declares that to runs after from. Problems are reported by Compile.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.edges[from]; ok {
		g.errs = append(g.errs, fmt.Errorf("%w: %q -> %q and %q", ErrBranching, from, existing, to))
		return g
	}
	g.edges[from] = to
	return g
}

// Compile validates the graph and returns a runnable workflow.
func (g *Graph[S]) Compile() (*Runnable[S], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.errs) > 0 {
		return nil, errors.Join(g.errs...)
	}

	// Every edge endpoint must exist.
	for from, to := range g.edges {
		if from == End {
			return nil, fmt.Errorf("%w: edge leaves %s", ErrUnknownNode, End)
		}
		if from != Start {
			if _, ok := g.nodes[from]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, from)
			}
		}
		if to == Start {
			return nil, fmt.Errorf("%w: edge enters %s", ErrUnknownNode, Start)
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, to)
			}
		}
	}

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	// Follow edges from Start; with one outgoing edge per node and no
	// cycles this either reaches End or stops at a dead end.
	var path []string
	current, ok := g.edges[Start]
	for ok && current != End {
		path = append(path, current)
		current, ok = g.edges[current]
	}
	if !ok {
		return nil, ErrNoPath
	}

	onPath := make(map[string]bool, len(path))
	for _, name := range path {
		onPath[name] = true
	}
	for _, name := range g.order {
		if !onPath[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnreachable, name)
		}
	}

	fns := make([]NodeFunc[S], len(path))
	for i, name := range path {
		fns[i] = g.nodes[name]
	}

	g.debugLog("[graph.Compile] compiled %d nodes: %v", len(path), path)
	return &Runnable[S]{path: path, fns: fns, debugLog: g.debugLog}, nil
}

// hasCycleLocked reports whether following edges can loop.
// Uses depth-first colouring; assumes the lock is held.
func (g *Graph[S]) hasCycleLocked() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int)

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1

		if next, ok := g.edges[id]; ok {
			switch colors[next] {
			case 1:
				return true
			case 0:
				if visit(next) {
					return true
				}
			}
		}

		colors[id] = 2
		return false
	}

	if colors[Start] == 0 && visit(Start) {
		return true
	}
	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// Runnable is a compiled workflow. It is immutable and safe for
// concurrent use.
type Runnable[S any] struct {
	path     []string
	fns      []NodeFunc[S]
	debugLog func(format string, args ...interface{})
}

// Nodes returns the node names in execution order.
func (r *Runnable[S]) Nodes() []string {
	out := make([]string, len(r.path))
	copy(out, r.path)
	return out
}

// Invoke runs every node in order, threading the state through.
// It stops at the first node error or when ctx is done.
func (r *Runnable[S]) Invoke(ctx context.Context, state S) (S, error) {
	for i, fn := range r.fns {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		r.debugLog("[graph.Invoke] running node %s", r.path[i])
		next, err := fn(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %s: %w", r.path[i], err)
		}
		state = next
	}
	return state, nil
}
