// Package debug renders the topology of a live stream graph.
//
// Attach a Recorder to a producer with pulse.WithTopology and every node
// derived from it reports itself as the graph is built. Render then draws
// the recorded graph as a tree, which is handy in logs when a propagation
// chain does not behave as expected:
//
//	rec := debug.NewRecorder()
//	sink := pulse.NewSink[int](pulse.WithTopology(rec))
//	evens := sink.Stream().Filter(even)
//	fmt.Println(rec.Render())
package debug

import (
	"sort"
	"strings"
	"sync"

	"github.com/m1gwings/treedrawer/tree"
)

// Recorder collects (id, label, parents) triples describing a stream graph.
// It is safe for concurrent use; graphs may be built from several
// goroutines.
type Recorder struct {
	mu    sync.Mutex
	nodes map[string]*nodeInfo
	order []string
}

type nodeInfo struct {
	id       string
	label    string
	parents  []string
	children []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{nodes: make(map[string]*nodeInfo)}
}

// Record implements pulse.TopologyRecorder.
func (r *Recorder) Record(id, label string, parents ...string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[id]; exists {
		return
	}
	r.nodes[id] = &nodeInfo{id: id, label: label, parents: parents}
	r.order = append(r.order, id)
	for _, p := range parents {
		if parent, ok := r.nodes[p]; ok {
			parent.children = append(parent.children, id)
		}
	}
}

// Len returns the number of recorded nodes.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// Roots returns the ids of nodes with no recorded parent, in recording
// order.
func (r *Recorder) Roots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rootsLocked()
}

func (r *Recorder) rootsLocked() []string {
	var roots []string
	for _, id := range r.order {
		n := r.nodes[id]
		known := false
		for _, p := range n.parents {
			if _, ok := r.nodes[p]; ok {
				known = true
				break
			}
		}
		if !known {
			roots = append(roots, id)
		}
	}
	return roots
}

// Render draws every recorded root and its descendants as a tree. A node
// reachable through several paths (merge, combine) is drawn once, under the
// first path found; feedback cycles are cut rather than followed.
func (r *Recorder) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, root := range r.rootsLocked() {
		t := tree.NewTree(tree.NodeString(r.labelLocked(root)))
		r.drawLocked(t, root, map[string]bool{root: true})
		out = append(out, t.String())
	}
	return strings.Join(out, "\n")
}

func (r *Recorder) drawLocked(t *tree.Tree, id string, seen map[string]bool) {
	n := r.nodes[id]
	children := append([]string(nil), n.children...)
	sort.Strings(children)
	for _, c := range children {
		if seen[c] {
			continue
		}
		seen[c] = true
		ct := t.AddChild(tree.NodeString(r.labelLocked(c)))
		r.drawLocked(ct, c, seen)
	}
}

func (r *Recorder) labelLocked(id string) string {
	n := r.nodes[id]
	if n.label == "" {
		return n.id
	}
	return n.label + " (" + n.id + ")"
}
