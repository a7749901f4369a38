package filetree_test

import (
	"strings"
	"testing"

	"trawl/internal/filetree"
	"trawl/pkg/types"

	"pgregory.net/rapid"
)

// genRecords draws a forest of unique slash-delimited file paths with
// random sizes, progress, wanted flags, and priorities.
func genRecords(t *rapid.T) []types.FileRecord {
	segment := rapid.StringMatching(`[a-z]{1,4}`)
	depth := rapid.IntRange(1, 4)

	n := rapid.IntRange(1, 20).Draw(t, "files")
	seen := make(map[string]bool)
	var records []types.FileRecord
	for i := 0; i < n; i++ {
		segs := make([]string, depth.Draw(t, "depth"))
		for j := range segs {
			segs[j] = segment.Draw(t, "segment")
		}
		path := strings.Join(segs, "/")
		if seen[path] {
			continue
		}
		// A shorter existing path may already be a file where this
		// path needs a directory (or vice versa); skip those to keep
		// the generated batch parseable.
		collides := false
		for p := range seen {
			if strings.HasPrefix(p, path+"/") || strings.HasPrefix(path, p+"/") {
				collides = true
				break
			}
		}
		if collides {
			continue
		}
		seen[path] = true

		size := rapid.Int64Range(0, 1<<32).Draw(t, "size")
		records = append(records, types.FileRecord{
			Path:           path,
			Size:           size,
			BytesCompleted: rapid.Int64Range(0, size).Draw(t, "completed"),
			Wanted:         rapid.Bool().Draw(t, "wanted"),
			Priority:       types.Priority(rapid.Int64Range(-1, 1).Draw(t, "priority")),
		})
	}
	if len(records) == 0 {
		records = append(records, types.FileRecord{Path: "only.bin", Size: 1, Wanted: true})
	}
	return records
}

// Directory sums must equal the sum over descendant leaves, and the want
// consensus must be true/false only on unanimity, for any generated
// forest and any sequence of wanted toggles.
func TestAggregationConsistencyProp(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		records := genRecords(rt)
		tree, err := filetree.Parse(records)
		if err != nil {
			rt.Fatalf("parse: %v", err)
		}

		paths := tree.Paths()
		toggles := rapid.IntRange(0, 8).Draw(rt, "toggles")
		for i := 0; i < toggles; i++ {
			p := rapid.SampledFrom(paths).Draw(rt, "path")
			affected := tree.SetWanted(p, rapid.Bool().Draw(rt, "state"), true)
			tree.Confirm(affected)
		}

		leaves := make(map[string]filetree.Node)
		for _, p := range paths {
			n, ok := tree.Entry(p)
			if !ok {
				rt.Fatalf("path %q vanished", p)
			}
			if !n.IsDir {
				leaves[p] = n
			}
		}

		for _, p := range paths {
			dir, _ := tree.Entry(p)
			if !dir.IsDir {
				continue
			}
			var size, completed int64
			allTrue, allFalse := true, true
			for lp, leaf := range leaves {
				if !strings.HasPrefix(lp, p+"/") {
					continue
				}
				size += leaf.Size
				completed += leaf.BytesCompleted
				if leaf.Wanted == filetree.TriTrue {
					allFalse = false
				} else {
					allTrue = false
				}
			}
			if dir.Size != size {
				rt.Fatalf("dir %q size = %d, want %d", p, dir.Size, size)
			}
			if dir.BytesCompleted != completed {
				rt.Fatalf("dir %q completed = %d, want %d", p, dir.BytesCompleted, completed)
			}
			switch dir.Wanted {
			case filetree.TriTrue:
				if !allTrue {
					rt.Fatalf("dir %q claims all wanted", p)
				}
			case filetree.TriFalse:
				if !allFalse {
					rt.Fatalf("dir %q claims none wanted", p)
				}
			case filetree.TriMixed:
				if allTrue || allFalse {
					rt.Fatalf("dir %q claims mixed but leaves agree", p)
				}
			}
		}
	})
}

// Applying the same snapshot twice must equal applying it once.
func TestUpdateIdempotentProp(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		records := genRecords(rt)
		tree, err := filetree.Parse(records)
		if err != nil {
			rt.Fatalf("parse: %v", err)
		}

		tick := make([]types.FileRecord, len(records))
		copy(tick, records)
		for i := range tick {
			tick[i].BytesCompleted = rapid.Int64Range(0, tick[i].Size).Draw(rt, "progress")
			tick[i].Wanted = rapid.Bool().Draw(rt, "wanted2")
		}

		tree.Update(tick)
		once := tree.Rows(func(string) bool { return true })
		tree.Update(tick)
		twice := tree.Rows(func(string) bool { return true })

		if len(once) != len(twice) {
			rt.Fatalf("row count changed: %d vs %d", len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				rt.Fatalf("row %d changed on second apply: %+v vs %+v", i, once[i], twice[i])
			}
		}
	})
}

// A directory rename must rewrite every descendant consistently and leave
// file indexes untouched.
func TestRenameConsistencyProp(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		records := genRecords(rt)
		tree, err := filetree.Parse(records)
		if err != nil {
			rt.Fatalf("parse: %v", err)
		}

		indexesBefore := make(map[string][]int)
		for _, p := range tree.Paths() {
			indexesBefore[p] = tree.ChildFileIndexes(p)
		}

		target := rapid.SampledFrom(tree.Paths()).Draw(rt, "target")
		newName := rapid.StringMatching(`[a-z]{5,8}`).Draw(rt, "newName")
		err = tree.Rename(target, newName)

		if err != nil {
			// Failed rename: nothing may have moved.
			for _, p := range tree.Paths() {
				got := tree.ChildFileIndexes(p)
				want := indexesBefore[p]
				if len(got) != len(want) {
					rt.Fatalf("failed rename moved indexes under %q", p)
				}
			}
			return
		}

		newPath := newName
		if idx := strings.LastIndex(target, "/"); idx >= 0 {
			newPath = target[:idx] + "/" + newName
		}
		if _, ok := tree.Entry(target); ok && target != newPath {
			rt.Fatalf("old path %q still resolves", target)
		}
		got := tree.ChildFileIndexes(newPath)
		want := indexesBefore[target]
		if len(got) != len(want) {
			rt.Fatalf("index set changed across rename: %v vs %v", got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				rt.Fatalf("index set changed across rename: %v vs %v", got, want)
			}
		}
	})
}
