package graph

import (
	"io/fs"
	"testing"
	"time"

	"github.com/agentic-research/reactus/internal/engine"
)

func testFiles() map[string][]byte {
	return map[string][]byte{
		"node_modules/reactus/entry.js":          []byte("import Router from './Router';\n"),
		"node_modules/reactus/views/home.jsx":    []byte("export default 1;"),
		"node_modules/reactus/views/admin/a.jsx": []byte("export default 2;"),
		"node_modules/reactus/routes.js":         []byte("module.exports = {}"),
	}
}

func TestFromFiles_SynthesizesDirectories(t *testing.T) {
	store := FromFiles(testFiles(), time.Unix(0, 0))

	for _, dir := range []string{"node_modules", "node_modules/reactus", "node_modules/reactus/views", "node_modules/reactus/views/admin"} {
		node, err := store.GetNode(dir)
		if err != nil {
			t.Fatalf("GetNode(%s) returned error: %v", dir, err)
		}
		if !node.Mode.IsDir() {
			t.Errorf("%s should be a directory", dir)
		}
	}

	roots, err := store.ListChildren("/")
	if err != nil {
		t.Fatalf("ListChildren(/) returned error: %v", err)
	}
	if len(roots) != 1 || roots[0] != "node_modules" {
		t.Errorf("roots = %v, want [node_modules]", roots)
	}
}

func TestFromFiles_ChildrenSorted(t *testing.T) {
	store := FromFiles(testFiles(), time.Unix(0, 0))

	children, err := store.ListChildren("node_modules/reactus")
	if err != nil {
		t.Fatalf("ListChildren returned error: %v", err)
	}
	want := []string{
		"node_modules/reactus/entry.js",
		"node_modules/reactus/routes.js",
		"node_modules/reactus/views",
	}
	if len(children) != len(want) {
		t.Fatalf("children = %v, want %v", children, want)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Errorf("children[%d] = %q, want %q", i, children[i], want[i])
		}
	}
}

func TestFromFiles_FileContent(t *testing.T) {
	store := FromFiles(testFiles(), time.Unix(0, 0))

	node, err := store.GetNode("/node_modules/reactus/views/home.jsx")
	if err != nil {
		t.Fatalf("GetNode returned error: %v", err)
	}
	if node.Mode.IsDir() {
		t.Error("home.jsx should be a regular file")
	}
	if string(node.Data) != "export default 1;" {
		t.Errorf("Data = %q", node.Data)
	}
}

func TestMemoryStore_GetNodeNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetNode("nonexistent")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_AddRootDeduplicates(t *testing.T) {
	store := NewMemoryStore()
	store.AddRoot(&Node{ID: "node_modules", Mode: fs.ModeDir})
	store.AddRoot(&Node{ID: "node_modules", Mode: fs.ModeDir})

	roots, err := store.ListChildren("/")
	if err != nil {
		t.Fatalf("ListChildren(/) returned error: %v", err)
	}
	if len(roots) != 1 {
		t.Errorf("roots = %d, want 1 (deduped)", len(roots))
	}
}

func TestMemoryStore_ReadContentOffsets(t *testing.T) {
	store := NewMemoryStore()
	store.AddNode(&Node{ID: "a.js", Data: []byte("abcdef")})

	buf := make([]byte, 3)
	n, err := store.ReadContent("a.js", buf, 2)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "cde" {
		t.Errorf("read = %q, want %q", buf[:n], "cde")
	}

	n, err = store.ReadContent("a.js", buf, 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("read past end = %d bytes, want 0", n)
	}
}

type fakeSnapshotter struct {
	snap *engine.Snapshot
}

func (f *fakeSnapshotter) Snapshot() (*engine.Snapshot, error) { return f.snap, nil }

func TestHotSwapGraph_FollowsGeneration(t *testing.T) {
	src := &fakeSnapshotter{snap: &engine.Snapshot{
		Generation: 1,
		Files:      map[string][]byte{"node_modules/reactus/a.js": []byte("a")},
	}}
	g := NewHotSwapGraph(src)

	first, err := g.Current()
	if err != nil {
		t.Fatal(err)
	}
	again, err := g.Current()
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("same generation should reuse the index")
	}

	src.snap = &engine.Snapshot{
		Generation: 2,
		Files:      map[string][]byte{"node_modules/reactus/b.js": []byte("b")},
	}
	if _, err := g.GetNode("node_modules/reactus/a.js"); err != ErrNotFound {
		t.Errorf("a.js after swap: err = %v, want ErrNotFound", err)
	}
	if _, err := g.GetNode("node_modules/reactus/b.js"); err != nil {
		t.Errorf("b.js after swap: %v", err)
	}
}
