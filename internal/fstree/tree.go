// Package fstree implements the in-memory directory tree the FAT formatter
// walks: named directories containing named files and sub-directories.
//
// Nodes live in a flat arena addressed by integer index rather than as a
// pointer tree with back-references; this sidesteps the parent/child
// reference cycle every directory would otherwise form.
package fstree

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/efibootgen/efibootgen/internal/status"
)

// RootIndex addresses the tree's root directory, which is its own parent
// sentinel.
const RootIndex = 0

// Kind discriminates the directory-or-file tagged union an entry holds.
type Kind int

const (
	KindDir Kind = iota
	KindFile
)

// Entry is one arena slot: either a directory (with Children) or a file
// (with Data/Size). ShortName is the already-normalized 11-byte FAT 8.3 form
// this entry will be emitted under.
type Entry struct {
	Kind         Kind
	ShortName    [11]byte
	Parent       int
	Children     []int
	Data         []byte
	Size         int
	StartCluster uint32
}

// Tree owns the arena and the case/short-name normalization policy.
type Tree struct {
	PreserveCase bool
	nodes        []Entry
}

// New returns a tree containing only an empty root directory.
func New(preserveCase bool) *Tree {
	t := &Tree{PreserveCase: preserveCase}
	t.nodes = append(t.nodes, Entry{Kind: KindDir, Parent: RootIndex})
	return t
}

// Node returns the arena slot at idx.
func (t *Tree) Node(idx int) *Entry { return &t.nodes[idx] }

// Len returns the number of live arena slots, including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// CreateDirectory inserts a new, empty sub-directory named name under
// parent, normalizing and validating name as a FAT 8.3 short name.
func (t *Tree) CreateDirectory(parent int, name string) (int, error) {
	return t.create(parent, name, Entry{Kind: KindDir, Parent: parent})
}

// CreateFile inserts a new file named name under parent, holding data.
func (t *Tree) CreateFile(parent int, name string, data []byte) (int, error) {
	return t.create(parent, name, Entry{Kind: KindFile, Parent: parent, Data: data, Size: len(data)})
}

func (t *Tree) create(parent int, name string, e Entry) (int, error) {
	short, err := ShortName(name, t.PreserveCase)
	if err != nil {
		return 0, err
	}
	for _, c := range t.nodes[parent].Children {
		if t.nodes[c].ShortName == short {
			return 0, status.InvalidArgument("duplicate entry name after FAT 8.3 normalization: " + name)
		}
	}
	e.ShortName = short
	idx := len(t.nodes)
	// Append before touching the parent: growing the arena may reallocate
	// it, which would invalidate any pointer taken into the old backing
	// array.
	t.nodes = append(t.nodes, e)
	t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	return idx, nil
}

// SortedChildren returns dir's children ordered lexicographically by their
// normalized short name, the order directory and FAT emission follow.
func (t *Tree) SortedChildren(dir int) []int {
	children := append([]int(nil), t.nodes[dir].Children...)
	sort.Slice(children, func(i, j int) bool {
		a, b := t.nodes[children[i]].ShortName, t.nodes[children[j]].ShortName
		return string(a[:]) < string(b[:])
	})
	return children
}

// ContentBytes sums file bytes plus 512 bytes per directory (including the
// root), a non-decreasing lower bound used for image sizing.
func (t *Tree) ContentBytes() int64 {
	var total int64
	for _, n := range t.nodes {
		if n.Kind == KindDir {
			total += 512
		} else {
			total += int64(n.Size)
		}
	}
	return total
}

// CreateFromSource populates parent from the contents of hostPath,
// traversing depth-first in directory-read order. Traversal uses an
// explicit stack, not recursion or a library walker, because each frame
// must carry the arena index of the directory currently being populated;
// that bookkeeping can't be recovered after the fact from a path string
// alone.
func (t *Tree) CreateFromSource(parent int, hostPath string) error {
	type frame struct {
		arenaDir int
		hostDir  string
	}
	stack := []frame{{parent, hostPath}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(f.hostDir)
		if err != nil {
			return status.Unavailable("reading host directory " + f.hostDir + ": " + err.Error())
		}
		for _, de := range entries {
			childHostPath := filepath.Join(f.hostDir, de.Name())
			if de.IsDir() {
				idx, err := t.CreateDirectory(f.arenaDir, de.Name())
				if err != nil {
					return err
				}
				stack = append(stack, frame{idx, childHostPath})
				continue
			}
			data, err := os.ReadFile(childHostPath)
			if err != nil {
				return status.Unavailable("reading host file " + childHostPath + ": " + err.Error())
			}
			if _, err := t.CreateFile(f.arenaDir, de.Name(), data); err != nil {
				return err
			}
		}
	}
	return nil
}

var dotName = shortNameLiteral(".")
var dotDotName = shortNameLiteral("..")

// DotEntry and DotDotEntry return the synthetic "." and ".." short names
// every non-root directory's first two entries use, per fatgen103.doc §6.
func DotEntry() [11]byte    { return dotName }
func DotDotEntry() [11]byte { return dotDotName }

func shortNameLiteral(s string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out
}

// ShortName normalizes name into an 11-byte, space-padded FAT 8.3 short
// name. Names that don't fit the 8.3 shape (more than one dot, or an
// extension over three characters) are rejected rather than silently
// truncated.
func ShortName(name string, preserveCase bool) ([11]byte, error) {
	if !preserveCase {
		name = strings.ToUpper(name)
	}
	var stem, ext string
	switch n := strings.Count(name, "."); {
	case n == 0:
		stem = name
	case n == 1:
		idx := strings.IndexByte(name, '.')
		stem, ext = name[:idx], name[idx+1:]
	default:
		return [11]byte{}, status.InvalidArgument("name has more than one dot, cannot form an 8.3 short name: " + name)
	}
	if len(stem) > 8 {
		return [11]byte{}, status.InvalidArgument("name stem longer than 8 characters: " + name)
	}
	if len(ext) > 3 {
		return [11]byte{}, status.InvalidArgument("name extension longer than 3 characters: " + name)
	}
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:8], stem)
	copy(out[8:11], ext)
	return out, nil
}
