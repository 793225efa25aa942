// Package revtree implements a revision tree algebra: a forest of
// revisions per document, winning-revision selection, leaf queries, and
// the revs-diff primitive used by replication.
package revtree

import (
	"sort"

	"github.com/Kushal-kothari/barrel-platform/revid"
)

// Info describes one revision: its id, its parent (Empty for a root), and
// whether it is a tombstone.
type Info struct {
	ID      revid.ID `json:"id"`
	Parent  revid.ID `json:"parent,omitempty"`
	Deleted bool     `json:"deleted,omitempty"`
}

// Tree is a mapping from RevID to Info. The zero value is an empty tree.
type Tree map[revid.ID]Info

// New returns an empty revision tree.
func New() Tree {
	return make(Tree)
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Add inserts or overwrites info by its id. No parent-existence check is
// performed at add-time; callers stage batches and must maintain the
// tree's invariants themselves.
func (t Tree) Add(info Info) {
	t[info.ID] = info
}

// Contains reports whether id is present in the tree.
func (t Tree) Contains(id revid.ID) bool {
	_, ok := t[id]
	return ok
}

// IsLeaf reports whether id is in the tree and no other entry names it as
// a parent.
func (t Tree) IsLeaf(id revid.ID) bool {
	if _, ok := t[id]; !ok {
		return false
	}
	for _, info := range t {
		if info.Parent == id {
			return false
		}
	}
	return true
}

// Leaves returns every leaf in the tree, sorted by RevID.
func (t Tree) Leaves() []Info {
	hasChild := make(map[revid.ID]bool, len(t))
	for _, info := range t {
		if info.Parent != revid.Empty {
			hasChild[info.Parent] = true
		}
	}
	var leaves []Info
	for id, info := range t {
		if !hasChild[id] {
			leaves = append(leaves, info)
		}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].ID < leaves[j].ID })
	return leaves
}

// FoldLeaves visits every leaf exactly once, folding over acc.
func FoldLeaves[T any](t Tree, acc T, f func(T, Info) T) T {
	for _, leaf := range t.Leaves() {
		acc = f(acc, leaf)
	}
	return acc
}

// Winner selects the winning revision: prefer a live (non-deleted) leaf
// over a deleted one, then the highest generation, then the
// lexicographically largest hash.
func (t Tree) Winner() (id revid.ID, branched bool, conflict bool) {
	leaves := t.Leaves()
	if len(leaves) == 0 {
		return revid.Empty, false, false
	}
	var live, deleted []Info
	for _, l := range leaves {
		if l.Deleted {
			deleted = append(deleted, l)
		} else {
			live = append(live, l)
		}
	}
	pool := live
	if len(pool) == 0 {
		pool = deleted
	}
	best := pool[0]
	for _, candidate := range pool[1:] {
		if betterThan(candidate, best) {
			best = candidate
		}
	}
	return best.ID, len(leaves) > 1, len(live) > 1
}

func betterThan(a, b Info) bool {
	genA, hashA, _ := revid.Parse(a.ID)
	genB, hashB, _ := revid.Parse(b.ID)
	if genA != genB {
		return genA > genB
	}
	return hashA > hashB
}

// Ancestors walks from id toward the root, stopping (inclusive) when it
// reaches an id present in stop, or at the root if stop is nil. It returns
// the chain including id itself, newest first, capped at max entries if
// max > 0.
func (t Tree) Ancestors(id revid.ID, stop map[revid.ID]bool, max int) []revid.ID {
	var chain []revid.ID
	cur := id
	for cur != revid.Empty {
		chain = append(chain, cur)
		if max > 0 && len(chain) >= max {
			break
		}
		if stop != nil && stop[cur] {
			break
		}
		info, ok := t[cur]
		if !ok {
			break
		}
		cur = info.Parent
	}
	return chain
}

// RevsDiff reports, for the given candidate revision ids, those missing
// from the tree (in input order) and the set of possible ancestors drawn
// from the current leaves.
func (t Tree) RevsDiff(ids []revid.ID) (missing []revid.ID, possibleAncestors []revid.ID) {
	if len(t) == 0 {
		return append([]revid.ID(nil), ids...), nil
	}
	known := make(map[revid.ID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	for _, id := range ids {
		if !t.Contains(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	ancestorSet := make(map[revid.ID]bool)
	for _, m := range missing {
		g, _, err := revid.Parse(m)
		if err != nil {
			continue
		}
		for _, leaf := range t.Leaves() {
			if !known[leaf.ID] {
				continue
			}
			leafGen, _, _ := revid.Parse(leaf.ID)
			switch {
			case leafGen < g:
				ancestorSet[leaf.ID] = true
			case leafGen == g && leaf.Parent != revid.Empty:
				ancestorSet[leaf.Parent] = true
			}
		}
	}
	for id := range ancestorSet {
		possibleAncestors = append(possibleAncestors, id)
	}
	sort.Slice(possibleAncestors, func(i, j int) bool { return possibleAncestors[i] < possibleAncestors[j] })
	return missing, possibleAncestors
}
