// Package fs mounts the virtual overlay through FUSE.
package fs

import (
	"path/filepath"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/reactus/internal/graph"
)

// OverlayFS implements the FUSE interface from cgofuse. It is read-only.
type OverlayFS struct {
	fuse.FileSystemBase
	Graph     graph.Graph
	mountTime fuse.Timespec
}

func NewOverlayFS(g graph.Graph) *OverlayFS {
	return &OverlayFS{
		Graph:     g,
		mountTime: fuse.NewTimespec(time.Now()),
	}
}

// Open succeeds for regular files opened without write flags.
func (fs *OverlayFS) Open(path string, flags int) (int, uint64) {
	if flags&(fuse.O_WRONLY|fuse.O_RDWR) != 0 {
		return -fuse.EROFS, ^uint64(0)
	}
	node, err := fs.Graph.GetNode(path)
	if err != nil {
		return -fuse.ENOENT, ^uint64(0)
	}
	if node.Mode.IsDir() {
		return -fuse.EISDIR, ^uint64(0)
	}
	return 0, 0
}

// Opendir succeeds for the root and every synthesized directory.
func (fs *OverlayFS) Opendir(path string) (int, uint64) {
	if path == "/" {
		return 0, 0
	}
	node, err := fs.Graph.GetNode(path)
	if err != nil {
		return -fuse.ENOENT, ^uint64(0)
	}
	if !node.Mode.IsDir() {
		return -fuse.ENOTDIR, ^uint64(0)
	}
	return 0, 0
}

// Getattr (Stat)
func (fs *OverlayFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	stat.Atim = fs.mountTime
	stat.Mtim = fs.mountTime
	stat.Ctim = fs.mountTime
	stat.Birthtim = fs.mountTime

	if path == "/" {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}

	node, err := fs.Graph.GetNode(path)
	if err != nil {
		return -fuse.ENOENT
	}

	if !node.ModTime.IsZero() {
		stat.Mtim = fuse.NewTimespec(node.ModTime)
		stat.Ctim = stat.Mtim
	}
	if node.Mode.IsDir() {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}
	stat.Mode = fuse.S_IFREG | 0o444
	stat.Nlink = 1
	stat.Size = node.ContentSize()
	return 0
}

// Readdir (List directory)
func (fs *OverlayFS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	children, err := fs.Graph.ListChildren(path)
	if err != nil {
		return -fuse.ENOENT
	}

	fill(".", nil, 0)
	fill("..", nil, 0)
	for _, childID := range children {
		if !fill(filepath.Base(childID), nil, 0) {
			break
		}
	}
	return 0
}

// Read (Cat file)
func (fs *OverlayFS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	n, err := fs.Graph.ReadContent(path, buff, ofst)
	if err != nil {
		return -fuse.ENOENT
	}
	return n
}

// Write is rejected; the overlay is generated, not edited.
func (fs *OverlayFS) Write(path string, buff []byte, ofst int64, fh uint64) int {
	return -fuse.EROFS
}

// Mount serves the overlay at mountpoint until the host unmounts it.
func Mount(g graph.Graph, mountpoint string, opts []string) bool {
	host := fuse.NewFileSystemHost(NewOverlayFS(g))
	return host.Mount(mountpoint, append([]string{"-o", "ro"}, opts...))
}
