// Package graph indexes a flat set of virtual files as a directory tree so
// that filesystem adapters (FUSE, NFS) can list and read them.
package graph

import (
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrNotFound = errors.New("node not found")

// Node is the universal primitive.
// The Mode field explicitly declares whether this is a file or directory.
type Node struct {
	ID       string
	Mode     fs.FileMode // fs.ModeDir for directories, 0 for regular files
	ModTime  time.Time
	Data     []byte   // file content (nil for directories)
	Children []string // child node IDs (directories only)
}

// ContentSize returns the byte length of this node's content.
func (n *Node) ContentSize() int64 {
	return int64(len(n.Data))
}

// Graph is the interface for the filesystem layers.
type Graph interface {
	GetNode(id string) (*Node, error)
	ListChildren(id string) ([]string, error)
	ReadContent(id string, buf []byte, offset int64) (int, error)
}

// MemoryStore is an in-memory Graph.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	roots []string // top-level nodes (e.g. "node_modules")
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]*Node),
		roots: []string{},
	}
}

// FromFiles builds a store from target -> content pairs. Parent directories
// of every target are synthesized; children are sorted by name.
func FromFiles(files map[string][]byte, modTime time.Time) *MemoryStore {
	s := NewMemoryStore()

	targets := make([]string, 0, len(files))
	for target := range files {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		id := normalize(target)
		if id == "" {
			continue
		}
		s.nodes[id] = &Node{ID: id, ModTime: modTime, Data: files[target]}
		s.link(id, modTime)
	}
	return s
}

// link attaches id to its parent, creating directories up to the root.
func (s *MemoryStore) link(id string, modTime time.Time) {
	for {
		parent := path.Dir(id)
		if parent == "." {
			s.addRootID(id)
			return
		}
		dir, ok := s.nodes[parent]
		if ok && !dir.Mode.IsDir() {
			// A file shadows the directory; the deeper target stays unreachable.
			return
		}
		created := !ok
		if created {
			dir = &Node{ID: parent, Mode: fs.ModeDir | 0o555, ModTime: modTime}
			s.nodes[parent] = dir
		}
		if !contains(dir.Children, id) {
			dir.Children = append(dir.Children, id)
		}
		if !created {
			return
		}
		id = parent
	}
}

func (s *MemoryStore) addRootID(id string) {
	if !contains(s.roots, id) {
		s.roots = append(s.roots, id)
	}
}

// AddRoot registers a node as a top-level root and adds it to the store.
func (s *MemoryStore) AddRoot(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
	s.addRootID(n.ID)
}

// AddNode adds a non-root node to the store.
func (s *MemoryStore) AddNode(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
}

// GetNode implements Graph.
func (s *MemoryStore) GetNode(id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[normalize(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// ListChildren implements Graph.
func (s *MemoryStore) ListChildren(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id = normalize(id)
	if id == "" {
		return s.roots, nil
	}

	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n.Children, nil
}

// ReadContent implements Graph.
func (s *MemoryStore) ReadContent(id string, buf []byte, offset int64) (int, error) {
	node, err := s.GetNode(id)
	if err != nil {
		return 0, err
	}

	data := node.Data
	if offset >= int64(len(data)) {
		return 0, nil
	}
	end := offset + int64(len(buf))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return copy(buf, data[offset:end]), nil
}

// normalize strips leading and trailing slashes and cleans the path.
// The root is "".
func normalize(id string) string {
	id = strings.Trim(id, "/")
	if id == "" {
		return ""
	}
	id = path.Clean(id)
	if id == "." {
		return ""
	}
	return id
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
