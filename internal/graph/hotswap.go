package graph

import (
	"sync"

	"github.com/agentic-research/reactus/internal/engine"
)

// Snapshotter yields the current virtual file snapshot.
type Snapshotter interface {
	Snapshot() (*engine.Snapshot, error)
}

// HotSwapGraph is a Graph that follows an engine: whenever the engine
// publishes a new snapshot generation, the index is rebuilt and swapped in.
type HotSwapGraph struct {
	src Snapshotter

	mu         sync.RWMutex
	current    *MemoryStore
	generation uint64
}

func NewHotSwapGraph(src Snapshotter) *HotSwapGraph {
	return &HotSwapGraph{src: src}
}

// Current returns the index for the latest snapshot.
func (h *HotSwapGraph) Current() (*MemoryStore, error) {
	snap, err := h.src.Snapshot()
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	if h.current != nil && h.generation == snap.Generation {
		cur := h.current
		h.mu.RUnlock()
		return cur, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil || h.generation != snap.Generation {
		h.current = FromFiles(snap.Files, snap.Built)
		h.generation = snap.Generation
	}
	return h.current, nil
}

// GetNode delegates to the current index.
func (h *HotSwapGraph) GetNode(id string) (*Node, error) {
	cur, err := h.Current()
	if err != nil {
		return nil, err
	}
	return cur.GetNode(id)
}

// ListChildren delegates to the current index.
func (h *HotSwapGraph) ListChildren(id string) ([]string, error) {
	cur, err := h.Current()
	if err != nil {
		return nil, err
	}
	return cur.ListChildren(id)
}

// ReadContent delegates to the current index.
func (h *HotSwapGraph) ReadContent(id string, buf []byte, offset int64) (int, error) {
	cur, err := h.Current()
	if err != nil {
		return 0, err
	}
	return cur.ReadContent(id, buf, offset)
}
