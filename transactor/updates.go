package transactor

import (
	"github.com/google/uuid"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/errs"
	"github.com/Kushal-kothari/barrel-platform/revid"
	"github.com/Kushal-kothari/barrel-platform/revtree"
)

// PutOptions configures Put's conflict semantics.
type PutOptions struct {
	// LWW accepts the write unconditionally, grafting onto the current
	// winner regardless of the body's "_rev". Last write wins.
	LWW bool
}

// Put builds the normal write path: reject a blind write to a live
// document unless LWW is set, require "_rev" to name a current leaf
// otherwise, and resurrect a tombstoned document on a blind write.
func Put(body docmodel.Doc) UpdateFunc {
	return PutWithOptions(body, PutOptions{})
}

// PutWithOptions is Put with explicit options.
func PutWithOptions(body docmodel.Doc, opts PutOptions) UpdateFunc {
	return func(current docmodel.Info) Outcome {
		rev, hasRev := body.Rev()
		bareBody := body.WithoutReserved()

		var parent revid.ID
		var newGen int

		switch {
		case opts.LWW:
			parent = current.CurrentRev
			newGen = genOf(current.CurrentRev, rev) + 1

		case !hasRev || rev == revid.Empty:
			switch {
			case !current.Exists():
				parent = revid.Empty
				newGen = genOf(revid.Empty, rev) + 1
			case current.Deleted:
				parent = current.CurrentRev
				newGen = revid.Generation(current.CurrentRev) + 1
			default:
				return Reject(errs.Conflict(errs.DocExists))
			}

		default:
			if !current.RevTree.IsLeaf(rev) {
				return Reject(errs.Conflict(errs.RevisionConflict))
			}
			parent = rev
			newGen = revid.Generation(rev) + 1
		}

		newRev, err := revid.New(newGen, parent, map[string]interface{}(bareBody))
		if err != nil {
			return Reject(err)
		}

		tree := current.RevTree.Clone()
		tree.Add(revtree.Info{ID: newRev, Parent: parent, Deleted: body.Deleted()})

		info := current
		info.RevTree = tree
		info.RecomputeWinner()

		return Commit(info, body, newRev)
	}
}

func genOf(currentRev, bodyRev revid.ID) int {
	if currentRev != revid.Empty {
		return revid.Generation(currentRev)
	}
	return revid.Generation(bodyRev)
}

// Delete builds an update function equivalent to Put with "_deleted":
// true stamped onto the body.
func Delete(rev revid.ID) UpdateFunc {
	body := docmodel.Doc{"_rev": string(rev), "_deleted": true}
	return Put(body)
}

// Post builds an update function for a document whose id is fresh:
// rejects bodies carrying "_rev", and mints a random DocID if the body
// omits "_id".
func Post(body docmodel.Doc) (UpdateFunc, docmodel.DocID, error) {
	if _, hasRev := body.Rev(); hasRev {
		return nil, "", errs.ErrBadDoc
	}
	id, hasID := body.ID()
	if !hasID || id == "" {
		generated, err := uuid.NewRandom()
		if err != nil {
			return nil, "", err
		}
		id = docmodel.DocID(generated.String())
	}
	return Put(body), id, nil
}

// PutRev builds the replication write path: history is the new
// revision's ancestor chain, newest first. The walk stops at the first
// ancestor already present in the tree; the revisions staged ahead of
// that point are grafted onto it as a chain: the oldest staged revision
// hangs off that ancestor (or is a root if none was found), and each
// newer one off its older neighbor. Only the newest revision carries the
// body's deleted flag.
func PutRev(body docmodel.Doc, history []revid.ID) UpdateFunc {
	return func(current docmodel.Info) Outcome {
		if len(history) == 0 {
			return Reject(errs.ErrBadDoc)
		}
		newest := history[0]
		if current.RevTree.Contains(newest) {
			return Noop(newest)
		}

		idx := len(history)
		var parent revid.ID
		for i, id := range history {
			if current.RevTree.Contains(id) {
				idx = i
				parent = id
				break
			}
		}

		tree := current.RevTree.Clone()
		toAdd := history[:idx]
		for i := len(toAdd) - 1; i >= 0; i-- {
			id := toAdd[i]
			deleted := i == 0 && body.Deleted()
			tree.Add(revtree.Info{ID: id, Parent: parent, Deleted: deleted})
			parent = id
		}

		info := current
		info.RevTree = tree
		info.RecomputeWinner()

		return Commit(info, body, newest)
	}
}
