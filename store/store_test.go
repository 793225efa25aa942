package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/errs"
	"github.com/Kushal-kothari/barrel-platform/revid"
	"github.com/Kushal-kothari/barrel-platform/revtree"
	"github.com/Kushal-kothari/barrel-platform/store"
	"github.com/Kushal-kothari/barrel-platform/store/memkv"
)

func newStore(t *testing.T) (*store.Store, store.DBID) {
	t.Helper()
	s := store.New(memkv.New())
	db, seq, err := s.OpenDB("widgets", true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, seq)
	return s, db
}

func commitDoc(t *testing.T, s *store.Store, db store.DBID, docID string, seq uint64) revid.ID {
	t.Helper()
	body := docmodel.Doc{"color": "red"}
	rev, err := revid.New(1, revid.Empty, map[string]interface{}(body.WithoutReserved()))
	require.NoError(t, err)

	tree := revtree.New()
	tree.Add(revtree.Info{ID: rev})
	info := docmodel.Info{ID: docmodel.DocID(docID), RevTree: tree, UpdateSeq: seq}
	info.RecomputeWinner()

	require.NoError(t, s.Commit(db, docID, info, body, rev, 0))
	return rev
}

func TestOpenDBCreatesThenReopens(t *testing.T) {
	s, _ := newStore(t)
	_, seq, err := s.OpenDB("widgets", false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, seq)
}

func TestOpenDBMissingWithoutCreate(t *testing.T) {
	s := store.New(memkv.New())
	_, _, err := s.OpenDB("nope", false)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCommitThenGetDoc(t *testing.T) {
	s, db := newStore(t)
	rev := commitDoc(t, s, db, "widget1", 1)

	doc, err := s.GetDoc(db, "widget1", revid.Empty, false, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "red", doc["color"])
	assert.Equal(t, "widget1", doc["_id"])
	assert.Equal(t, string(rev), doc["_rev"])
}

func TestGetDocSpecificRevision(t *testing.T) {
	s, db := newStore(t)
	rev := commitDoc(t, s, db, "widget1", 1)

	doc, err := s.GetDoc(db, "widget1", rev, false, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "red", doc["color"])
}

func TestGetDocUnknownRevision(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "widget1", 1)

	_, err := s.GetDoc(db, "widget1", "9-zzzz", false, 0, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetDocMissing(t *testing.T) {
	s, db := newStore(t)
	_, err := s.GetDoc(db, "nonexistent", revid.Empty, false, 0, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetDocWithHistory(t *testing.T) {
	s, db := newStore(t)
	rev := commitDoc(t, s, db, "widget1", 1)

	doc, err := s.GetDoc(db, "widget1", revid.Empty, true, 10, nil)
	require.NoError(t, err)
	revs, ok := doc["_revisions"].(docmodel.Revisions)
	require.True(t, ok)
	assert.Equal(t, 1, revs.Start)
	_, hash, _ := revid.Parse(rev)
	assert.Equal(t, []string{hash}, revs.IDs)
}

func TestGetDocWithHistoryStopsAtAncestorsSet(t *testing.T) {
	s, db := newStore(t)

	body1 := docmodel.Doc{"color": "red"}
	rev1, err := revid.New(1, revid.Empty, map[string]interface{}(body1.WithoutReserved()))
	require.NoError(t, err)
	body2 := docmodel.Doc{"color": "green"}
	rev2, err := revid.New(2, rev1, map[string]interface{}(body2.WithoutReserved()))
	require.NoError(t, err)
	body3 := docmodel.Doc{"color": "blue"}
	rev3, err := revid.New(3, rev2, map[string]interface{}(body3.WithoutReserved()))
	require.NoError(t, err)

	tree := revtree.New()
	tree.Add(revtree.Info{ID: rev1})
	tree.Add(revtree.Info{ID: rev2, Parent: rev1})
	tree.Add(revtree.Info{ID: rev3, Parent: rev2})
	info := docmodel.Info{ID: "widget1", RevTree: tree, UpdateSeq: 1}
	info.RecomputeWinner()
	require.NoError(t, s.Commit(db, "widget1", info, body3, rev3, 0))

	doc, err := s.GetDoc(db, "widget1", revid.Empty, true, 10, map[revid.ID]bool{rev1: true})
	require.NoError(t, err)
	revs, ok := doc["_revisions"].(docmodel.Revisions)
	require.True(t, ok)
	_, hash3, _ := revid.Parse(rev3)
	_, hash2, _ := revid.Parse(rev2)
	_, hash1, _ := revid.Parse(rev1)
	assert.Equal(t, []string{hash3, hash2, hash1}, revs.IDs)

	doc, err = s.GetDoc(db, "widget1", revid.Empty, true, 10, map[revid.ID]bool{rev2: true})
	require.NoError(t, err)
	revs, ok = doc["_revisions"].(docmodel.Revisions)
	require.True(t, ok)
	assert.Equal(t, []string{hash3, hash2}, revs.IDs)
}

func TestFoldByIDOrdersByDocID(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "b", 1)
	commitDoc(t, s, db, "a", 2)
	commitDoc(t, s, db, "c", 3)

	rows, err := s.FoldByID(db, store.FoldOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, docmodel.DocID("a"), rows[0].ID)
	assert.Equal(t, docmodel.DocID("b"), rows[1].ID)
	assert.Equal(t, docmodel.DocID("c"), rows[2].ID)
}

func TestFoldByIDRespectsMax(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "a", 1)
	commitDoc(t, s, db, "b", 2)

	rows, err := s.FoldByID(db, store.FoldOptions{Max: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestChangesSinceZeroIsInclusive(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "a", 1)
	commitDoc(t, s, db, "b", 2)

	var seen []uint64
	err := s.ChangesSince(db, 0, func(seq uint64, info docmodel.Info) error {
		seen = append(seen, seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestChangesSincePositiveIsExclusive(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "a", 1)
	commitDoc(t, s, db, "b", 2)

	var seen []uint64
	err := s.ChangesSince(db, 1, func(seq uint64, info docmodel.Info) error {
		seen = append(seen, seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, seen)
}

func TestChangesSinceDropsStaleRowOnUpdate(t *testing.T) {
	s, db := newStore(t)
	info, err := s.GetDocInfo(db, "nonexistent")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Zero(t, info)

	commitDoc(t, s, db, "a", 1)

	// Simulate a second write to the same doc at seq 2, superseding seq 1.
	prior, err := s.GetDocInfo(db, "a")
	require.NoError(t, err)
	body := docmodel.Doc{"color": "blue"}
	rev2, err := revid.New(2, prior.CurrentRev, map[string]interface{}(body.WithoutReserved()))
	require.NoError(t, err)
	tree := prior.RevTree.Clone()
	tree.Add(revtree.Info{ID: rev2, Parent: prior.CurrentRev})
	updated := docmodel.Info{ID: "a", RevTree: tree, UpdateSeq: 2}
	updated.RecomputeWinner()
	require.NoError(t, s.Commit(db, "a", updated, body, rev2, prior.UpdateSeq))

	var seen []uint64
	err = s.ChangesSince(db, 0, func(seq uint64, info docmodel.Info) error {
		seen = append(seen, seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, seen)
}

func TestLastUpdateSeqTracksCommits(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "a", 1)
	commitDoc(t, s, db, "b", 2)

	seq, err := s.LastUpdateSeq(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, seq)
}

func TestCleanDBRemovesEverything(t *testing.T) {
	s, db := newStore(t)
	commitDoc(t, s, db, "a", 1)
	require.NoError(t, s.WriteSystemDoc(db, "_local/x", []byte(`{"v":1}`)))

	require.NoError(t, s.CleanDB(db))

	_, err := s.GetDocInfo(db, "a")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.ReadSystemDoc(db, "_local/x")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.LastUpdateSeq(db)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSystemDocRoundTrip(t *testing.T) {
	s, db := newStore(t)
	require.NoError(t, s.WriteSystemDoc(db, "_local/checkpoint", []byte(`{"seq":5}`)))

	v, err := s.ReadSystemDoc(db, "_local/checkpoint")
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":5}`, string(v))

	require.NoError(t, s.DeleteSystemDoc(db, "_local/checkpoint"))
	_, err = s.ReadSystemDoc(db, "_local/checkpoint")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
