// Package transactor implements the single-writer serialization point for
// one database: every update to that database's documents is processed
// by one goroutine, in the order requests arrive, computing a new
// revision and persisting it in a single atomic batch.
package transactor

import (
	"context"
	"fmt"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/errs"
	"github.com/Kushal-kothari/barrel-platform/logger"
	"github.com/Kushal-kothari/barrel-platform/revid"
	"github.com/Kushal-kothari/barrel-platform/store"
)

// Outcome is what an UpdateFunc returns: a commit, a no-op, or an
// arbitrary error to propagate to the caller.
type Outcome struct {
	Info docmodel.Info
	Body docmodel.Doc
	Rev  revid.ID
	Err  error
	noop bool
}

// Commit builds a successful Outcome.
func Commit(info docmodel.Info, body docmodel.Doc, rev revid.ID) Outcome {
	return Outcome{Info: info, Body: body, Rev: rev}
}

// Noop builds an Outcome that reports success without advancing
// update_seq, writing a new body, or notifying subscribers: the document
// already contains rev and nothing changed.
func Noop(rev revid.ID) Outcome {
	return Outcome{Rev: rev, noop: true}
}

// Reject builds a failing Outcome, typically errs.Conflict(kind) or
// errs.ErrBadDoc.
func Reject(err error) Outcome {
	return Outcome{Err: err}
}

// UpdateFunc computes the next state of a document given its current
// DocInfo (a zero-revision docmodel.Empty if the document does not yet
// exist).
type UpdateFunc func(current docmodel.Info) Outcome

// Result is what Update returns to its caller on success.
type Result struct {
	DocID docmodel.DocID
	Rev   revid.ID
}

type request struct {
	docID  string
	fn     UpdateFunc
	result chan<- response
}

type response struct {
	res Result
	err error
}

// Notifier is notified of every committed sequence number, so the owning
// Database can refresh its cached update_seq and publish to its event
// bus.
type Notifier interface {
	Updated(seq uint64)
}

// Transactor serializes writes to one database through a single
// goroutine.
type Transactor struct {
	db     store.DBID
	st     *store.Store
	notify Notifier
	log    logger.Logger

	requests chan request
	done     chan struct{}

	seq uint64

	crashed  chan struct{}
	crashErr error
}

// New starts a Transactor for db, seeded with the store's persisted
// update_seq.
func New(db store.DBID, st *store.Store, notify Notifier, log logger.Logger) (*Transactor, error) {
	seq, err := st.LastUpdateSeq(db)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger
	}
	t := &Transactor{
		db:       db,
		st:       st,
		notify:   notify,
		log:      log,
		requests: make(chan request),
		done:     make(chan struct{}),
		crashed:  make(chan struct{}),
		seq:      seq,
	}
	go t.run()
	return t, nil
}

// LastSeq returns the sequence number this Transactor last assigned.
func (t *Transactor) LastSeq() uint64 {
	return t.seq
}

// Crashed reports a channel that closes if the Transactor's goroutine
// exits after a panic in an UpdateFunc. The owning database.DB checks
// this to decide when to respawn.
func (t *Transactor) Crashed() <-chan struct{} {
	return t.crashed
}

// CrashErr returns the panic value that crashed the Transactor, if any.
func (t *Transactor) CrashErr() error {
	return t.crashErr
}

// Stop shuts the Transactor down; in-flight requests receive an error.
func (t *Transactor) Stop() {
	close(t.done)
}

// Update submits docID's update function and blocks until it has been
// processed (or ctx is canceled, or the Transactor has crashed).
func (t *Transactor) Update(ctx context.Context, docID string, fn UpdateFunc) (Result, error) {
	resCh := make(chan response, 1)
	select {
	case t.requests <- request{docID: docID, fn: fn, result: resCh}:
	case <-t.crashed:
		return Result{}, fmt.Errorf("transactor: crashed: %w", t.crashErr)
	case <-t.done:
		return Result{}, fmt.Errorf("transactor: stopped")
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-resCh:
		return r.res, r.err
	case <-t.crashed:
		return Result{}, fmt.Errorf("transactor: crashed: %w", t.crashErr)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (t *Transactor) run() {
	defer func() {
		if r := recover(); r != nil {
			t.crashErr = fmt.Errorf("%v", r)
			t.log.Errorf("transactor for %q crashed: %v", t.db, r)
			close(t.crashed)
		}
	}()
	for {
		select {
		case req := <-t.requests:
			res, err := t.process(req.docID, req.fn)
			req.result <- response{res: res, err: err}
		case <-t.done:
			return
		}
	}
}

func (t *Transactor) process(docID string, fn UpdateFunc) (Result, error) {
	current, err := t.st.GetDocInfo(t.db, docID)
	if err != nil && err != errs.ErrNotFound {
		return Result{}, err
	}
	if err == errs.ErrNotFound {
		current = docmodel.Empty(docmodel.DocID(docID))
	}
	oldSeq := current.UpdateSeq

	outcome := fn(current)
	if outcome.Err != nil {
		return Result{}, outcome.Err
	}
	if outcome.noop {
		return Result{DocID: docmodel.DocID(docID), Rev: outcome.Rev}, nil
	}

	newSeq := t.seq + 1
	outcome.Info.UpdateSeq = newSeq
	if err := t.st.Commit(t.db, docID, outcome.Info, outcome.Body, outcome.Rev, oldSeq); err != nil {
		return Result{}, err
	}
	t.seq = newSeq

	if t.notify != nil {
		t.notify.Updated(newSeq)
	}
	return Result{DocID: docmodel.DocID(docID), Rev: outcome.Rev}, nil
}
