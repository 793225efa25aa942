// Package changefeed builds the three feed views (normal, long-poll,
// event-stream) on top of a database's changes_since scan and its event
// bus, without committing to a transport: callers adapt Frame and Batch
// to whatever wire format they expose.
package changefeed

import (
	"context"
	"time"

	"github.com/Kushal-kothari/barrel-platform/database"
	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/store"
)

// DefaultHeartbeat is the keep-alive interval used when a caller does not
// specify one, matching the interval proxies typically tolerate before
// closing an idle connection.
const DefaultHeartbeat = 60 * time.Second

// Batch is the payload common to the normal and long-poll views.
type Batch struct {
	LastSeq uint64          `json:"last_seq"`
	Results []docmodel.Info `json:"results"`
}

func collect(db *database.DB, since uint64) (Batch, error) {
	var results []docmodel.Info
	lastSeq := since
	err := db.ChangesSince(since, func(seq uint64, info docmodel.Info) error {
		results = append(results, info)
		if seq > lastSeq {
			lastSeq = seq
		}
		return nil
	})
	if err != nil {
		return Batch{}, err
	}
	if results == nil {
		results = []docmodel.Info{}
	}
	return Batch{LastSeq: lastSeq, Results: results}, nil
}

// Normal returns the feed contents synchronously: whatever is already
// committed since since.
func Normal(db *database.DB, since uint64) (Batch, error) {
	return collect(db, since)
}

// LongPoll returns immediately if changes_since(since) is non-empty;
// otherwise it subscribes to the bus and blocks until the first
// db_updated notification (or ctx is canceled), then fetches and
// returns.
func LongPoll(ctx context.Context, db *database.DB, since uint64) (Batch, error) {
	batch, err := collect(db, since)
	if err != nil {
		return Batch{}, err
	}
	if len(batch.Results) > 0 {
		return batch, nil
	}

	sub := db.Subscribe(4)
	defer sub.Unsubscribe()

	select {
	case <-sub.Events():
		return collect(db, since)
	case <-ctx.Done():
		return Batch{LastSeq: since, Results: []docmodel.Info{}}, ctx.Err()
	}
}

// Frame is one unit written to an event-stream consumer: either a data
// frame carrying a Batch, or a heartbeat (Batch is the zero value and
// Heartbeat is true).
type Frame struct {
	ID        string
	Batch     Batch
	Heartbeat bool
}

// EventSource streams deltas as they commit, plus a heartbeat frame every
// heartbeat interval, until ctx is canceled. It unregisters from the bus
// and stops its heartbeat timer on return.
func EventSource(ctx context.Context, db *database.DB, since uint64, heartbeat time.Duration, frames chan<- Frame, idFor func(seq uint64) string) error {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	sub := db.Subscribe(16)
	defer sub.Unsubscribe()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	cursor := since
	emit := func() error {
		batch, err := collect(db, cursor)
		if err != nil {
			return err
		}
		if len(batch.Results) == 0 {
			return nil
		}
		cursor = batch.LastSeq
		select {
		case frames <- Frame{ID: idFor(batch.LastSeq), Batch: batch}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	if err := emit(); err != nil {
		return err
	}

	for {
		select {
		case <-sub.Events():
			if err := emit(); err != nil {
				return err
			}
		case <-ticker.C:
			select {
			case frames <- Frame{Heartbeat: true}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// FoldPage is a convenience wrapper over store.FoldOptions for the
// _all_docs query surface.
func FoldPage(db *database.DB, startKey, endKey string, max int) ([]docmodel.Info, error) {
	return db.FoldByID(store.FoldOptions{StartKey: startKey, EndKey: endKey, Max: max})
}
