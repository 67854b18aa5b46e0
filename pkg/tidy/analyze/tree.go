package analyze

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Node is a directory in a folder tree. Size and FileCount cover the files
// within the depth limit only.
type Node struct {
	Path      string  `json:"path" yaml:"path"`
	Name      string  `json:"name" yaml:"name"`
	Size      int64   `json:"size" yaml:"size"`
	FileCount int     `json:"file_count" yaml:"file_count"`
	Children  []*Node `json:"children,omitempty" yaml:"children,omitempty"`
	Parent    *Node   `json:"-" yaml:"-"`
}

// AddChild adds a child node and sets this node as the child's parent.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Depth returns the depth of this node from the root (root = 0).
func (n *Node) Depth() int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

// Flatten returns the node and all descendants in display order.
func (n *Node) Flatten() []*Node {
	result := []*Node{n}
	for _, child := range n.Children {
		result = append(result, child.Flatten()...)
	}
	return result
}

// FolderTree builds the directory tree rooted at root down to maxDepth
// (root is depth 0, the limit is inclusive). Directories below the limit
// are not read and do not count toward any total. Children are sorted by
// size, largest first. A root that is missing or not a directory returns
// types.ErrBuildFailed.
func FolderTree(root string, maxDepth int) (*Node, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, types.NewPathError("tree", root, types.ErrBuildFailed, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		kind := types.ErrBuildFailed
		if os.IsNotExist(err) {
			return nil, types.NewPathError("tree", root, kind, types.ErrNotFound)
		}
		return nil, types.NewPathError("tree", root, kind, err)
	}
	if !info.IsDir() {
		return nil, types.NewPathError("tree", root, types.ErrBuildFailed, types.ErrNotADirectory)
	}

	node := &Node{Path: abs, Name: filepath.Base(abs)}
	buildNode(node, 0, maxDepth)
	return node, nil
}

func buildNode(node *Node, depth, maxDepth int) {
	entries, err := os.ReadDir(node.Path)
	if err != nil {
		logger.Debug("skipping unreadable directory", "path", node.Path, "error", err)
		return
	}

	for _, e := range entries {
		path := filepath.Join(node.Path, e.Name())
		if e.IsDir() {
			if depth+1 > maxDepth {
				continue
			}
			child := &Node{Path: path, Name: e.Name()}
			buildNode(child, depth+1, maxDepth)
			node.Size += child.Size
			node.FileCount += child.FileCount
			node.AddChild(child)
			continue
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		node.Size += info.Size()
		node.FileCount++
	}

	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Name < b.Name
	})
}
