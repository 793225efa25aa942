package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/errs"
	"github.com/Kushal-kothari/barrel-platform/revid"
)

// Store is the ordered-KV-backed persistence layer: by-ID and by-sequence
// indices over documents and their info records, plus system-doc side
// storage.
type Store struct {
	kv KeyValue
}

// New wraps a KeyValue engine as a Store.
func New(kv KeyValue) *Store {
	return &Store{kv: kv}
}

// OpenDB creates (if createIfMissing) or opens the database named name,
// returning its DBID and its persisted high-water sequence number.
func (s *Store) OpenDB(name string, createIfMissing bool) (DBID, uint64, error) {
	db := DBID(name)
	seq, err := s.LastUpdateSeq(db)
	switch {
	case err == nil:
		return db, seq, nil
	case err == errs.ErrNotFound && createIfMissing:
		if err := s.kv.Set(metaKey(db), "0"); err != nil {
			return "", 0, errs.Storage(err)
		}
		return db, 0, nil
	case err == errs.ErrNotFound:
		return "", 0, errs.ErrNotFound
	default:
		return "", 0, err
	}
}

// LastUpdateSeq returns the persisted high-water sequence number for db,
// used by the transactor to recover its counter after a respawn.
func (s *Store) LastUpdateSeq(db DBID) (uint64, error) {
	v, err := s.kv.Get(metaKey(db))
	if err == ErrNotFound {
		return 0, errs.ErrNotFound
	}
	if err != nil {
		return 0, errs.Storage(err)
	}
	var seq uint64
	if _, err := fmt.Sscanf(v, "%d", &seq); err != nil {
		return 0, errs.Storage(err)
	}
	return seq, nil
}

// GetDocInfo returns the current DocInfo for docID.
func (s *Store) GetDocInfo(db DBID, docID string) (docmodel.Info, error) {
	v, err := s.kv.Get(docInfoKey(db, docID))
	if err == ErrNotFound {
		return docmodel.Info{}, errs.ErrNotFound
	}
	if err != nil {
		return docmodel.Info{}, errs.Storage(err)
	}
	var info docmodel.Info
	if err := json.Unmarshal([]byte(v), &info); err != nil {
		return docmodel.Info{}, errs.Storage(err)
	}
	return info, nil
}

// GetDoc returns the document body at rev (or the current winning
// revision if rev is empty), optionally attaching "_revisions" history.
// When withHistory is set, the walk stops (inclusive) at the first
// ancestor found in ancestors, or at the root if ancestors is nil, and is
// additionally capped at maxHistory entries.
func (s *Store) GetDoc(db DBID, docID string, rev revid.ID, withHistory bool, maxHistory int, ancestors map[revid.ID]bool) (docmodel.Doc, error) {
	info, err := s.GetDocInfo(db, docID)
	if err != nil {
		return nil, err
	}
	target := rev
	if target == revid.Empty {
		if info.Deleted || !info.Exists() {
			return nil, errs.ErrNotFound
		}
		target = info.CurrentRev
	} else if !info.RevTree.Contains(target) {
		return nil, errs.ErrNotFound
	}
	v, err := s.kv.Get(bodyKey(db, docID, string(target)))
	if err == ErrNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	body, err := docmodel.ParseDoc([]byte(v))
	if err != nil {
		return nil, err
	}
	info2 := info.RevTree[target]
	body = docmodel.WithMeta(body, docmodel.DocID(docID), target, info2.Deleted)
	if withHistory {
		chain := info.RevTree.Ancestors(target, ancestors, maxHistory)
		ids := make([]string, len(chain))
		start := 0
		for i, id := range chain {
			_, hash, _ := revid.Parse(id)
			ids[i] = hash
			if i == 0 {
				start = revid.Generation(id)
			}
		}
		body["_revisions"] = docmodel.Revisions{Start: start, IDs: ids}
	}
	return body, nil
}

// Commit atomically persists a new DocInfo and body, updates the by-seq
// index (removing any prior entry for this doc, so at most one row per
// DocID remains), and bumps the database's update_seq.
//
// oldSeq is the doc's previous update_seq (0 if this is its first write).
func (s *Store) Commit(db DBID, docID string, info docmodel.Info, body docmodel.Doc, newRev revid.ID, oldSeq uint64) error {
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return err
	}
	bodyJSON, err := json.Marshal(body.WithoutReserved())
	if err != nil {
		return err
	}

	b := NewBatch()
	b.Set(docInfoKey(db, docID), string(infoJSON))
	b.Set(bodyKey(db, docID, string(newRev)), string(bodyJSON))
	b.Set(seqKey(db, info.UpdateSeq), string(infoJSON))
	if oldSeq != 0 && oldSeq != info.UpdateSeq {
		b.Delete(seqKey(db, oldSeq))
	}
	b.Set(metaKey(db), fmt.Sprintf("%d", info.UpdateSeq))
	if err := s.kv.CommitBatch(b); err != nil {
		return errs.Storage(err)
	}
	return nil
}

// FoldOptions bounds a FoldByID scan.
type FoldOptions struct {
	StartKey string
	EndKey   string
	Max      int
}

// FoldByID returns doc-infos in DocID order, from StartKey up to and
// including EndKey. The number of rows returned reflects Max when set; no
// separate skip/offset cursor is implemented.
func (s *Store) FoldByID(db DBID, opts FoldOptions) ([]docmodel.Info, error) {
	prefix := docInfoPrefix(db)
	start := prefix + opts.StartKey
	it := s.kv.Find(start)
	defer it.Close()

	var rows []docmodel.Info
	for it.Next() {
		key := it.Key()
		if !strings.HasPrefix(key, prefix) {
			break
		}
		docID := key[len(prefix):]
		if opts.EndKey != "" && docID > opts.EndKey {
			break
		}
		var info docmodel.Info
		if err := json.Unmarshal([]byte(it.Value()), &info); err != nil {
			return nil, errs.Storage(err)
		}
		rows = append(rows, info)
		if opts.Max > 0 && len(rows) >= opts.Max {
			break
		}
	}
	return rows, nil
}

// ChangesSinceFunc is invoked once per by-seq row, in ascending seq order.
type ChangesSinceFunc func(seq uint64, info docmodel.Info) error

// ChangesSince iterates by-seq entries with seq >= the resume point
// implied by since: exclusive for since > 0, inclusive for since == 0,
// so a feed can resume from the last seq it observed without missing or
// repeating an entry.
func (s *Store) ChangesSince(db DBID, since uint64, fn ChangesSinceFunc) error {
	start := since
	if since > 0 {
		start = since + 1
	}
	prefix := bySeqPrefix(db)
	it := s.kv.Find(seqKey(db, start))
	defer it.Close()

	for it.Next() {
		seq, ok := parseSeqSuffix(it.Key(), prefix)
		if !ok {
			break
		}
		var info docmodel.Info
		if err := json.Unmarshal([]byte(it.Value()), &info); err != nil {
			return errs.Storage(err)
		}
		if err := fn(seq, info); err != nil {
			return err
		}
	}
	return nil
}

// CleanDB deletes all of db's document, body, by-seq, and system-doc
// entries, plus its meta entry.
func (s *Store) CleanDB(db DBID) error {
	for _, prefix := range []string{docInfoPrefix(db), bySeqPrefix(db), systemPrefix(db)} {
		if err := s.deletePrefix(prefix); err != nil {
			return err
		}
	}
	if err := s.deletePrefix(bodyPrefix(db)); err != nil {
		return err
	}
	if err := s.kv.Delete(metaKey(db)); err != nil && err != ErrNotFound {
		return errs.Storage(err)
	}
	return nil
}

func (s *Store) deletePrefix(prefix string) error {
	it := s.kv.Find(prefix)
	defer it.Close()
	var keys []string
	for it.Next() {
		k := it.Key()
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			break
		}
		keys = append(keys, k)
	}
	b := NewBatch()
	for _, k := range keys {
		b.Delete(k)
	}
	if err := s.kv.CommitBatch(b); err != nil {
		return errs.Storage(err)
	}
	return nil
}

// WriteSystemDoc writes a system document, bypassing the revision-tree
// machinery entirely (no revisions, no sequencing).
func (s *Store) WriteSystemDoc(db DBID, docID string, body []byte) error {
	if err := s.kv.Set(systemKey(db, docID), string(body)); err != nil {
		return errs.Storage(err)
	}
	return nil
}

// ReadSystemDoc reads a system document.
func (s *Store) ReadSystemDoc(db DBID, docID string) ([]byte, error) {
	v, err := s.kv.Get(systemKey(db, docID))
	if err == ErrNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage(err)
	}
	return []byte(v), nil
}

// DeleteSystemDoc deletes a system document.
func (s *Store) DeleteSystemDoc(db DBID, docID string) error {
	if err := s.kv.Delete(systemKey(db, docID)); err != nil && err != ErrNotFound {
		return errs.Storage(err)
	}
	return nil
}
