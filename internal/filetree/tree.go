// Package filetree owns the per-torrent file-selection model: a tree of
// file and directory nodes built from the daemon's flat file list, with
// tri-state wanted aggregation, priority assignment, stable file indexes
// for RPC payloads, and optimistic pending state for in-flight changes.
package filetree

import (
	"sort"
	"strings"

	"trawl/internal/errors"
	"trawl/pkg/types"
)

// Separator delimits path segments in the daemon's file lists.
const Separator = "/"

// PendingState tracks a leaf's optimistic-update lifecycle. A user toggle
// moves a leaf to StatePending; the RPC collaborator's answer moves it
// back to StateSynced, via StateFailed (with value revert) on rejection.
type PendingState int

// Pending states.
const (
	StateSynced PendingState = iota
	StatePending
	StateFailed
)

// TriState is a directory aggregate over boolean leaf values: true when
// all descendant leaves agree on true, false when all agree on false,
// mixed when they disagree.
type TriState int

// Tri-state values.
const (
	TriFalse TriState = iota
	TriTrue
	TriMixed
)

type nodeKind int

const (
	kindFile nodeKind = iota
	kindDir
)

// node is one arena entry. Directories own their children: the child id
// list is the only reference that keeps a subtree alive, and parent is a
// non-owning back-reference.
type node struct {
	id       int
	kind     nodeKind
	fullPath string
	level    int
	parent   int // arena id, -1 for roots
	children []int

	// Leaf state. Size and progress on directories are always derived,
	// never stored.
	size           int64
	bytesCompleted int64
	wanted         bool
	priority       types.Priority
	fileIndex      int // position in the daemon's flat list, stable across renames
	pending        PendingState

	// Remembered leaf values for revert on a rejected optimistic change.
	prevWanted   bool
	prevPriority types.Priority
}

// Tree is the file-selection model for a single torrent. It is not safe
// for concurrent use; all mutation is expected to happen on the UI event
// loop (one tree = one torrent = one goroutine).
type Tree struct {
	nodes   []*node
	byPath  map[string]int
	byIndex map[int]int // daemon file index -> arena id, rename-stable
	roots   []int

	// Transient UI selection: an ordered set of fullPaths. Not part of
	// the tree's own invariants.
	selection []string
	selected  map[string]bool
}

// Node is the read-only view of a single entry resolved by Entry.
// Directory size/progress/wanted are derived from descendants at call
// time.
type Node struct {
	FullPath       string
	Name           string
	IsDir          bool
	Level          int
	Size           int64
	BytesCompleted int64
	Wanted         TriState
	Priority       types.Priority
	PriorityMixed  bool
	FileIndex      int // -1 for directories
	Pending        bool
}

// Row is one visible line of the read-only traversal the display layer
// renders.
type Row struct {
	FullPath       string
	Name           string
	Level          int
	IsDir          bool
	HasChildren    bool
	Expanded       bool
	Size           int64
	BytesCompleted int64
	Percent        types.Percent
	Want           TriState
	Priority       types.Priority
	PriorityMixed  bool
	Pending        bool
	Selected       bool
}

// Parse builds a tree from the daemon's flat file snapshot. Intermediate
// directories are created as needed; level is segment depth. It returns a
// PathError (MalformedPath or PathCollision) and no tree when any record
// is unusable: the batch either parses completely or not at all.
func Parse(records []types.FileRecord) (*Tree, error) {
	t := &Tree{
		byPath:   make(map[string]int, len(records)*2),
		byIndex:  make(map[int]int, len(records)),
		selected: make(map[string]bool),
	}

	for i, rec := range records {
		if err := t.insert(rec, i); err != nil {
			return nil, err
		}
	}

	t.sortChildren()
	return t, nil
}

func (t *Tree) insert(rec types.FileRecord, fileIndex int) error {
	if rec.Path == "" {
		return errors.NewPathError("empty file path", rec.Path, errors.MalformedPath, nil)
	}
	segments := strings.Split(rec.Path, Separator)
	for _, seg := range segments {
		if seg == "" {
			return errors.NewPathError("malformed file path", rec.Path, errors.MalformedPath, nil)
		}
	}

	parent := -1
	prefix := ""
	for level, seg := range segments {
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + Separator + seg
		}
		last := level == len(segments)-1

		if id, ok := t.byPath[prefix]; ok {
			if last || t.nodes[id].kind == kindFile {
				// Either two files share a path or a file and a
				// directory claim the same key.
				return errors.NewPathError("path collision", prefix, errors.PathCollision, nil)
			}
			parent = id
			continue
		}

		n := &node{
			id:       len(t.nodes),
			kind:     kindDir,
			fullPath: prefix,
			level:    level,
			parent:   parent,
			priority: types.PriorityNormal,
		}
		if last {
			n.kind = kindFile
			n.size = rec.Size
			n.bytesCompleted = rec.BytesCompleted
			n.wanted = rec.Wanted
			n.priority = rec.Priority
			n.fileIndex = fileIndex
		}
		t.nodes = append(t.nodes, n)
		t.byPath[prefix] = n.id
		if n.kind == kindFile {
			t.byIndex[n.fileIndex] = n.id
		}
		if parent == -1 {
			t.roots = append(t.roots, n.id)
		} else {
			p := t.nodes[parent]
			p.children = append(p.children, n.id)
		}
		parent = n.id
	}
	return nil
}

// sortChildren orders every child list directories-first, then by name.
// File indexes are assigned before sorting and are unaffected.
func (t *Tree) sortChildren() {
	order := func(ids []int) {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := t.nodes[ids[i]], t.nodes[ids[j]]
			if (a.kind == kindDir) != (b.kind == kindDir) {
				return a.kind == kindDir
			}
			return a.fullPath < b.fullPath
		})
	}
	order(t.roots)
	for _, n := range t.nodes {
		if n.kind == kindDir {
			order(n.children)
		}
	}
}

// Update merges a refreshed snapshot into existing leaves in place. The
// directory skeleton is never rebuilt. Records whose path is unknown, or
// that land on a directory, are dropped silently: a progress tick may
// race a rename and report paths this tree no longer has. Applying the
// same snapshot twice is a no-op the second time.
//
// Progress always merges. Wanted and priority merge only for leaves in
// StateSynced, so a stale tick cannot stomp an optimistic change that is
// still waiting on the daemon's answer.
func (t *Tree) Update(records []types.FileRecord) {
	for _, rec := range records {
		id, ok := t.byPath[rec.Path]
		if !ok {
			continue
		}
		n := t.nodes[id]
		if n.kind != kindFile {
			continue
		}
		n.bytesCompleted = rec.BytesCompleted
		n.size = rec.Size
		if n.pending == StateSynced {
			n.wanted = rec.Wanted
			n.priority = rec.Priority
		}
	}
}

// Rename gives the node at oldPath a new terminal name, rewriting the
// fullPath of the node and, for a directory, of every descendant. The
// operation is atomic: on any failure the tree is left exactly as it was
// and a RenameFailed error is returned. File indexes never change.
func (t *Tree) Rename(oldPath, newName string) error {
	id, ok := t.byPath[oldPath]
	if !ok {
		return errors.NewPathError("rename failed: no such path", oldPath, errors.PathNotFound, nil)
	}
	if newName == "" || strings.Contains(newName, Separator) {
		return errors.NewPathError("rename failed: invalid name", newName, errors.RenameFailed, nil)
	}

	newPath := newName
	if idx := strings.LastIndex(oldPath, Separator); idx >= 0 {
		newPath = oldPath[:idx] + Separator + newName
	}
	if newPath == oldPath {
		return nil
	}
	if _, exists := t.byPath[newPath]; exists {
		return errors.NewPathError("rename failed: target exists", newPath, errors.RenameFailed, nil)
	}

	// Snapshot the affected paths so any mid-walk failure can restore the
	// prior state wholesale.
	affected := t.subtreeIDs(id)
	snapshot := make(map[int]string, len(affected))
	for _, sid := range affected {
		snapshot[sid] = t.nodes[sid].fullPath
	}

	oldPrefix := oldPath + Separator
	newPrefix := newPath + Separator
	restore := func() {
		for sid, p := range snapshot {
			delete(t.byPath, t.nodes[sid].fullPath)
			t.nodes[sid].fullPath = p
		}
		for sid, p := range snapshot {
			t.byPath[p] = sid
		}
	}

	for _, sid := range affected {
		sn := t.nodes[sid]
		var rewritten string
		switch {
		case sid == id:
			rewritten = newPath
		case strings.HasPrefix(sn.fullPath, oldPrefix):
			rewritten = newPrefix + sn.fullPath[len(oldPrefix):]
		default:
			restore()
			return errors.NewPathError("rename failed: inconsistent subtree", sn.fullPath, errors.RenameFailed, nil)
		}
		if other, exists := t.byPath[rewritten]; exists && other != sid {
			restore()
			return errors.NewPathError("rename failed: target exists", rewritten, errors.RenameFailed, nil)
		}
		delete(t.byPath, sn.fullPath)
		sn.fullPath = rewritten
		t.byPath[rewritten] = sid
	}

	// Selection keys by fullPath, so carry it across the rename.
	t.remapSelection(oldPath, oldPrefix, newPath, newPrefix)
	return nil
}

func (t *Tree) remapSelection(oldPath, oldPrefix, newPath, newPrefix string) {
	for i, p := range t.selection {
		var remapped string
		switch {
		case p == oldPath:
			remapped = newPath
		case strings.HasPrefix(p, oldPrefix):
			remapped = newPrefix + p[len(oldPrefix):]
		default:
			continue
		}
		delete(t.selected, p)
		t.selection[i] = remapped
		t.selected[remapped] = true
	}
}

// subtreeIDs returns id and every descendant in pre-order.
func (t *Tree) subtreeIDs(id int) []int {
	ids := []int{id}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, t.nodes[ids[i]].children...)
	}
	return ids
}

// SetWanted sets a leaf's wanted flag, or with cascade applies it to
// every descendant leaf of a directory. Affected leaves move to
// StatePending until Confirm or Reject reconciles them with the daemon's
// answer. Returns the daemon file indexes of the leaves that changed
// state, ascending; those indexes go into the RPC payload verbatim and,
// unlike paths, still identify the same leaves after a rename. Unknown
// paths are a no-op.
func (t *Tree) SetWanted(path string, wanted bool, cascade bool) []int {
	return t.setLeafState(path, cascade, func(n *node) {
		n.prevWanted = n.wanted
		n.wanted = wanted
	})
}

// SetPriority assigns a download priority the same way SetWanted assigns
// the wanted flag, including the optimistic pending transition.
func (t *Tree) SetPriority(path string, priority types.Priority, cascade bool) []int {
	return t.setLeafState(path, cascade, func(n *node) {
		n.prevPriority = n.priority
		n.priority = priority
	})
}

func (t *Tree) setLeafState(path string, cascade bool, apply func(*node)) []int {
	id, ok := t.byPath[path]
	if !ok {
		return nil
	}

	var affected []int
	mark := func(n *node) {
		apply(n)
		n.pending = StatePending
		affected = append(affected, n.fileIndex)
	}

	n := t.nodes[id]
	if n.kind == kindFile {
		mark(n)
		return affected
	}
	if !cascade {
		return nil
	}
	for _, sid := range t.subtreeIDs(id) {
		if sn := t.nodes[sid]; sn.kind == kindFile {
			mark(sn)
		}
	}
	sort.Ints(affected)
	return affected
}

// Confirm marks pending leaves as synced: the daemon accepted the change,
// the optimistic value is now the truth. Leaves are keyed by daemon file
// index, so a rename landing while the call was in flight cannot strand
// them in StatePending.
func (t *Tree) Confirm(indexes []int) {
	for _, idx := range indexes {
		if id, ok := t.byIndex[idx]; ok {
			n := t.nodes[id]
			if n.pending == StatePending {
				n.pending = StateSynced
				n.prevWanted = n.wanted
				n.prevPriority = n.priority
			}
		}
	}
}

// Reject reverts pending leaves to their pre-toggle values: the daemon
// refused the change. The leaf passes through StateFailed only
// notionally; it settles synced with the old values.
func (t *Tree) Reject(indexes []int) {
	for _, idx := range indexes {
		if id, ok := t.byIndex[idx]; ok {
			n := t.nodes[id]
			if n.pending == StatePending {
				n.wanted = n.prevWanted
				n.priority = n.prevPriority
				n.pending = StateSynced
			}
		}
	}
}

// ChildFileIndexes returns the stable daemon file indexes of every leaf
// under path, in ascending order; a single-element slice for a leaf, nil
// for an unknown path. These indexes go into RPC payloads verbatim and
// survive renames anywhere in the tree.
func (t *Tree) ChildFileIndexes(path string) []int {
	id, ok := t.byPath[path]
	if !ok {
		return nil
	}
	var indexes []int
	for _, sid := range t.subtreeIDs(id) {
		if n := t.nodes[sid]; n.kind == kindFile {
			indexes = append(indexes, n.fileIndex)
		}
	}
	sort.Ints(indexes)
	return indexes
}

// Select replaces the selection with paths, or with add unions them into
// it, preserving order and dropping paths the tree doesn't have. This
// backs single-click-replace vs. ctrl/shift-extend.
func (t *Tree) Select(paths []string, add bool) {
	if !add {
		t.selection = t.selection[:0]
		t.selected = make(map[string]bool)
	}
	for _, p := range paths {
		if _, ok := t.byPath[p]; !ok {
			continue
		}
		if t.selected[p] {
			continue
		}
		t.selection = append(t.selection, p)
		t.selected[p] = true
	}
}

// ClearSelection empties the selection.
func (t *Tree) ClearSelection() {
	t.selection = t.selection[:0]
	t.selected = make(map[string]bool)
}

// Selected returns the current ordered selection.
func (t *Tree) Selected() []string {
	out := make([]string, len(t.selection))
	copy(out, t.selection)
	return out
}

// Entry resolves a path to its node view. The second return is false for
// an unknown path; Entry never fails.
func (t *Tree) Entry(path string) (Node, bool) {
	id, ok := t.byPath[path]
	if !ok {
		return Node{}, false
	}
	return t.view(t.nodes[id]), true
}

func (t *Tree) view(n *node) Node {
	v := Node{
		FullPath:  n.fullPath,
		Name:      baseName(n.fullPath),
		Level:     n.level,
		FileIndex: -1,
	}
	if n.kind == kindFile {
		v.Size = n.size
		v.BytesCompleted = n.bytesCompleted
		v.Wanted = TriFalse
		if n.wanted {
			v.Wanted = TriTrue
		}
		v.Priority = n.priority
		v.FileIndex = n.fileIndex
		v.Pending = n.pending == StatePending
		return v
	}
	v.IsDir = true
	agg := t.aggregate(n)
	v.Size = agg.size
	v.BytesCompleted = agg.bytesCompleted
	v.Wanted = agg.want
	v.Priority = agg.priority
	v.PriorityMixed = agg.priorityMixed
	v.Pending = agg.pending
	return v
}

// aggregate is the derived directory state: a fold over descendant leaves
// computed on every read, never cached, so it can't go stale across a
// mutation. Sums accumulate unconditionally; want and priority use
// three-valued consensus that flips to mixed on the first disagreement
// and stops comparing that field.
type aggregate struct {
	size           int64
	bytesCompleted int64
	want           TriState
	priority       types.Priority
	priorityMixed  bool
	pending        bool
}

func (t *Tree) aggregate(dir *node) aggregate {
	agg := aggregate{}
	wantSet, prioSet := false, false
	wantMixed := false

	var walk func(id int)
	walk = func(id int) {
		n := t.nodes[id]
		if n.kind == kindDir {
			for _, c := range n.children {
				walk(c)
			}
			return
		}
		agg.size += n.size
		agg.bytesCompleted += n.bytesCompleted
		if n.pending == StatePending {
			agg.pending = true
		}
		if !wantMixed {
			leafWant := TriFalse
			if n.wanted {
				leafWant = TriTrue
			}
			if !wantSet {
				agg.want, wantSet = leafWant, true
			} else if agg.want != leafWant {
				agg.want, wantMixed = TriMixed, true
			}
		}
		if !agg.priorityMixed {
			if !prioSet {
				agg.priority, prioSet = n.priority, true
			} else if agg.priority != n.priority {
				agg.priority, agg.priorityMixed = types.PriorityNormal, true
			}
		}
	}
	walk(dir.id)
	return agg
}

// Rows yields the visible pre-order traversal for the display layer.
// Expansion state belongs to the caller: children of a directory for
// which expanded returns false are skipped.
func (t *Tree) Rows(expanded func(path string) bool) []Row {
	rows := make([]Row, 0, len(t.nodes))

	var walk func(id int)
	walk = func(id int) {
		n := t.nodes[id]
		v := t.view(n)
		open := v.IsDir && expanded(n.fullPath)
		rows = append(rows, Row{
			FullPath:       v.FullPath,
			Name:           v.Name,
			Level:          v.Level,
			IsDir:          v.IsDir,
			HasChildren:    len(n.children) > 0,
			Expanded:       open,
			Size:           v.Size,
			BytesCompleted: v.BytesCompleted,
			Percent:        types.Ratio(v.BytesCompleted, v.Size),
			Want:           v.Wanted,
			Priority:       v.Priority,
			PriorityMixed:  v.PriorityMixed,
			Pending:        v.Pending,
			Selected:       t.selected[n.fullPath],
		})
		if open {
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return rows
}

// Paths returns every path in the tree in pre-order. Mostly useful in
// tests and debugging dumps.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.nodes))
	var walk func(id int)
	walk = func(id int) {
		paths = append(paths, t.nodes[id].fullPath)
		for _, c := range t.nodes[id].children {
			walk(c)
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return paths
}

// FileCount returns the number of leaves.
func (t *Tree) FileCount() int {
	count := 0
	for _, n := range t.nodes {
		if n.kind == kindFile {
			count++
		}
	}
	return count
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, Separator); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
