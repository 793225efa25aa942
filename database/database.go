// Package database implements the façade coordinating one Transactor and
// one Store handle for a named database: it owns the database's
// lifecycle, forwards reads straight to the Store, and routes writes
// through the Transactor.
package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/errs"
	"github.com/Kushal-kothari/barrel-platform/eventbus"
	"github.com/Kushal-kothari/barrel-platform/logger"
	"github.com/Kushal-kothari/barrel-platform/revid"
	"github.com/Kushal-kothari/barrel-platform/store"
	"github.com/Kushal-kothari/barrel-platform/transactor"
)

// DB is one open database: a name, its Store handle, and the Transactor
// currently serializing its writes.
type DB struct {
	Name string
	id   store.DBID
	st   *store.Store
	bus  *eventbus.Bus
	log  logger.Logger

	updateSeq atomic.Uint64

	mu sync.Mutex
	tr *transactor.Transactor
}

// Open creates (if createIfMissing) or attaches to the named database and
// spawns its first Transactor.
func Open(name string, st *store.Store, createIfMissing bool, log logger.Logger) (*DB, error) {
	id, seq, err := st.OpenDB(name, createIfMissing)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger
	}
	db := &DB{
		Name: name,
		id:   id,
		st:   st,
		bus:  eventbus.New(),
		log:  log.WithPrefix(fmt.Sprintf("db=%s ", name)),
	}
	db.updateSeq.Store(seq)

	tr, err := transactor.New(id, st, db, db.log)
	if err != nil {
		return nil, err
	}
	db.tr = tr
	return db, nil
}

// Updated implements transactor.Notifier: it advances the cached
// update_seq and publishes to the event bus.
func (db *DB) Updated(seq uint64) {
	db.updateSeq.Store(seq)
	db.bus.Notify(eventbus.Event{Seq: seq})
}

// UpdateSeq returns the cached high-water sequence number.
func (db *DB) UpdateSeq() uint64 {
	return db.updateSeq.Load()
}

// Subscribe registers a change-feed listener on this database's bus.
func (db *DB) Subscribe(buf int) *eventbus.Subscription {
	return db.bus.Subscribe(buf)
}

func (db *DB) transactor(ctx context.Context) (*transactor.Transactor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	select {
	case <-db.tr.Crashed():
		db.log.Warnf("respawning transactor after crash: %v", db.tr.CrashErr())
		tr, err := transactor.New(db.id, db.st, db, db.log)
		if err != nil {
			return nil, err
		}
		db.tr = tr
	default:
	}
	return db.tr, nil
}

func (db *DB) update(ctx context.Context, docID string, fn transactor.UpdateFunc) (transactor.Result, error) {
	tr, err := db.transactor(ctx)
	if err != nil {
		return transactor.Result{}, err
	}
	return tr.Update(ctx, docID, fn)
}

// Get returns the current winning revision of docID.
func (db *DB) Get(docID string) (docmodel.Doc, error) {
	return db.GetRev(docID, revid.Empty, false, 0, nil)
}

// GetRev returns docID at rev (or its current winner if rev is empty),
// optionally attaching "_revisions" history capped at maxHistory. The
// history walk stops early at the first id found in ancestors, if given.
func (db *DB) GetRev(docID string, rev revid.ID, withHistory bool, maxHistory int, ancestors map[revid.ID]bool) (docmodel.Doc, error) {
	return db.st.GetDoc(db.id, docID, rev, withHistory, maxHistory, ancestors)
}

// Info returns docID's DocInfo.
func (db *DB) Info(docID string) (docmodel.Info, error) {
	return db.st.GetDocInfo(db.id, docID)
}

// Put writes body, requiring "_rev" to name a current leaf unless the
// document does not yet exist or is tombstoned.
func (db *DB) Put(ctx context.Context, docID string, body docmodel.Doc) (transactor.Result, error) {
	return db.update(ctx, docID, transactor.Put(body))
}

// PutLWW writes body unconditionally, superseding any current winner.
func (db *DB) PutLWW(ctx context.Context, docID string, body docmodel.Doc) (transactor.Result, error) {
	return db.update(ctx, docID, transactor.PutWithOptions(body, transactor.PutOptions{LWW: true}))
}

// PutRev grafts body onto its replication history.
func (db *DB) PutRev(ctx context.Context, docID string, body docmodel.Doc, history []revid.ID) (transactor.Result, error) {
	return db.update(ctx, docID, transactor.PutRev(body, history))
}

// Delete tombstones docID at rev.
func (db *DB) Delete(ctx context.Context, docID string, rev revid.ID) (transactor.Result, error) {
	return db.update(ctx, docID, transactor.Delete(rev))
}

// Post creates a new document, minting a DocID if body omits "_id".
func (db *DB) Post(ctx context.Context, body docmodel.Doc) (transactor.Result, error) {
	fn, id, err := transactor.Post(body)
	if err != nil {
		return transactor.Result{}, err
	}
	return db.update(ctx, string(id), fn)
}

// FoldByID iterates doc-infos in DocID order.
func (db *DB) FoldByID(opts store.FoldOptions) ([]docmodel.Info, error) {
	return db.st.FoldByID(db.id, opts)
}

// ChangesSince iterates by-seq entries since the given sequence number.
func (db *DB) ChangesSince(since uint64, fn store.ChangesSinceFunc) error {
	return db.st.ChangesSince(db.id, since, fn)
}

// RevsDiff reports which of ids are missing from docID's revision tree,
// and which current leaves might serve as ancestors for them.
func (db *DB) RevsDiff(docID string, ids []revid.ID) ([]revid.ID, []revid.ID, error) {
	info, err := db.st.GetDocInfo(db.id, docID)
	if err != nil {
		if err == errs.ErrNotFound {
			return ids, nil, nil
		}
		return nil, nil, err
	}
	missing, ancestors := info.RevTree.RevsDiff(ids)
	return missing, ancestors, nil
}

// WriteSystemDoc writes a document outside the revision-tree machinery.
func (db *DB) WriteSystemDoc(docID string, body []byte) error {
	return db.st.WriteSystemDoc(db.id, docID, body)
}

// ReadSystemDoc reads a system document.
func (db *DB) ReadSystemDoc(docID string) ([]byte, error) {
	return db.st.ReadSystemDoc(db.id, docID)
}

// DeleteSystemDoc deletes a system document.
func (db *DB) DeleteSystemDoc(docID string) error {
	return db.st.DeleteSystemDoc(db.id, docID)
}

// Clean stops this database's Transactor and deletes all of its data.
func (db *DB) Clean() error {
	db.mu.Lock()
	db.tr.Stop()
	db.mu.Unlock()
	return db.st.CleanDB(db.id)
}
