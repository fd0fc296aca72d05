package graph

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// appendNode returns a node that appends its name to the state.
func appendNode(name string) NodeFunc[[]string] {
	return func(ctx context.Context, s []string) ([]string, error) {
		return append(s, name), nil
	}
}

func TestNew(t *testing.T) {
	g := New[int]()
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
}

func TestCompile_SingleNode(t *testing.T) {
	g := New[[]string]()
	g.AddNode("decompose", appendNode("decompose"))
	g.AddEdge(Start, "decompose")
	g.AddEdge("decompose", End)

	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := r.Nodes(); !reflect.DeepEqual(got, []string{"decompose"}) {
		t.Errorf("Nodes() = %v, want [decompose]", got)
	}

	out, err := r.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !reflect.DeepEqual(out, []string{"decompose"}) {
		t.Errorf("state = %v, want [decompose]", out)
	}
}

func TestCompile_LinearOrderFollowsEdges(t *testing.T) {
	g := New[[]string]()
	// Added out of order on purpose.
	g.AddNode("filter", appendNode("filter"))
	g.AddNode("decompose", appendNode("decompose"))
	g.AddNode("critique", appendNode("critique"))
	g.AddEdge(Start, "decompose")
	g.AddEdge("decompose", "critique")
	g.AddEdge("critique", "filter")
	g.AddEdge("filter", End)

	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	out, err := r.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	want := []string{"decompose", "critique", "filter"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("state = %v, want %v", out, want)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *Graph[[]string])
		want  error
	}{
		{
			name: "no start edge",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddEdge("a", End)
			},
			want: ErrNoPath,
		},
		{
			name: "dead end",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddEdge(Start, "a")
			},
			want: ErrNoPath,
		},
		{
			name: "unknown target",
			build: func(g *Graph[[]string]) {
				g.AddEdge(Start, "ghost")
			},
			want: ErrUnknownNode,
		},
		{
			name: "unknown source",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddEdge(Start, "a")
				g.AddEdge("a", End)
				g.AddEdge("ghost", "a")
			},
			want: ErrUnknownNode,
		},
		{
			name: "cycle",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddNode("b", appendNode("b"))
				g.AddEdge(Start, "a")
				g.AddEdge("a", "b")
				g.AddEdge("b", "a")
			},
			want: ErrCycleDetected,
		},
		{
			name: "branching",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddNode("b", appendNode("b"))
				g.AddEdge(Start, "a")
				g.AddEdge("a", "b")
				g.AddEdge("a", End)
			},
			want: ErrBranching,
		},
		{
			name: "duplicate node",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddNode("a", appendNode("a"))
			},
			want: ErrDuplicateNode,
		},
		{
			name: "reserved name",
			build: func(g *Graph[[]string]) {
				g.AddNode(End, appendNode("end"))
			},
			want: ErrDuplicateNode,
		},
		{
			name: "orphan node",
			build: func(g *Graph[[]string]) {
				g.AddNode("a", appendNode("a"))
				g.AddNode("orphan", appendNode("orphan"))
				g.AddEdge(Start, "a")
				g.AddEdge("a", End)
			},
			want: ErrUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New[[]string]()
			tt.build(g)

			_, err := g.Compile()
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompile_NilFunction(t *testing.T) {
	g := New[int]()
	g.AddNode("a", nil)

	if _, err := g.Compile(); err == nil {
		t.Error("expected error for node without function")
	}
}

func TestInvoke_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	g := New[[]string]()
	g.AddNode("a", appendNode("a"))
	g.AddNode("fail", func(ctx context.Context, s []string) ([]string, error) {
		return nil, boom
	})
	g.AddNode("c", appendNode("c"))
	g.AddEdge(Start, "a")
	g.AddEdge("a", "fail")
	g.AddEdge("fail", "c")
	g.AddEdge("c", End)

	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	out, err := r.Invoke(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Invoke error = %v, want boom", err)
	}
	if !strings.Contains(err.Error(), "node fail") {
		t.Errorf("error %q should name the failing node", err)
	}
	// State from before the failing node is returned.
	if !reflect.DeepEqual(out, []string{"a"}) {
		t.Errorf("state = %v, want [a]", out)
	}
}

func TestInvoke_CanceledContext(t *testing.T) {
	called := false
	g := New[int]()
	g.AddNode("a", func(ctx context.Context, s int) (int, error) {
		called = true
		return s + 1, nil
	})
	g.AddEdge(Start, "a")
	g.AddEdge("a", End)

	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Invoke(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Invoke error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("node should not run after cancellation")
	}
}

func TestRunnable_Reusable(t *testing.T) {
	g := New[int]()
	g.AddNode("double", func(ctx context.Context, s int) (int, error) { return s * 2, nil })
	g.AddEdge(Start, "double")
	g.AddEdge("double", End)

	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for in, want := range map[int]int{1: 2, 5: 10, 0: 0} {
		got, err := r.Invoke(context.Background(), in)
		if err != nil {
			t.Fatalf("Invoke(%d) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("Invoke(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSetDebugLog(t *testing.T) {
	var lines []string
	g := New[int]()
	g.SetDebugLog(func(format string, args ...interface{}) {
		lines = append(lines, format)
	})
	g.SetDebugLog(nil) // ignored
	g.AddNode("a", func(ctx context.Context, s int) (int, error) { return s, nil })
	g.AddEdge(Start, "a")
	g.AddEdge("a", End)

	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, err := r.Invoke(context.Background(), 0); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("logged %d lines, want 2 (compile + one node)", len(lines))
	}
}
