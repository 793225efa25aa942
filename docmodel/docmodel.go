// Package docmodel defines the document and document-metadata shapes: the
// JSON document body, the per-document revision metadata (DocInfo), and
// their external JSON projections.
package docmodel

import (
	"encoding/json"
	"fmt"

	"github.com/Kushal-kothari/barrel-platform/revid"
	"github.com/Kushal-kothari/barrel-platform/revtree"
)

// DocID is a stable, application-chosen document identifier.
type DocID string

// Doc is a raw JSON document body, decoded into Go values.
type Doc map[string]interface{}

// ID returns the "_id" field, if present.
func (d Doc) ID() (DocID, bool) {
	v, ok := d["_id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return DocID(s), ok
}

// Rev returns the "_rev" field, if present.
func (d Doc) Rev() (revid.ID, bool) {
	v, ok := d["_rev"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return revid.ID(s), ok
}

// Deleted reports whether the document carries "_deleted": true.
func (d Doc) Deleted() bool {
	v, ok := d["_deleted"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// WithoutReserved returns a copy of d with "_id", "_rev", and "_revisions"
// removed; this is the body canonicalized for revid minting and stored
// under the body namespace.
func (d Doc) WithoutReserved() Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		switch k {
		case "_id", "_rev", "_revisions":
			continue
		}
		out[k] = v
	}
	return out
}

// WithMeta returns a copy of body stamped with _id, _rev, and (if deleted)
// _deleted, for external presentation.
func WithMeta(body Doc, id DocID, rev revid.ID, deleted bool) Doc {
	out := make(Doc, len(body)+3)
	for k, v := range body {
		out[k] = v
	}
	out["_id"] = string(id)
	out["_rev"] = string(rev)
	if deleted {
		out["_deleted"] = true
	}
	return out
}

// ParseDoc decodes a JSON document body.
func ParseDoc(data []byte) (Doc, error) {
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("docmodel: invalid document: %w", err)
	}
	return doc, nil
}

// Revisions is the "_revisions" history projection attached to a document
// when its ancestor chain is requested.
type Revisions struct {
	Start int      `json:"start"`
	IDs   []string `json:"ids"`
}

// Info is the per-document revision metadata (DocInfo), keyed by its
// stable DocID.
type Info struct {
	ID         DocID        `json:"id"`
	CurrentRev revid.ID     `json:"current_rev"`
	Branched   bool         `json:"branched"`
	Conflict   bool         `json:"conflict"`
	Deleted    bool         `json:"deleted,omitempty"`
	RevTree    revtree.Tree `json:"revtree"`
	UpdateSeq  uint64       `json:"update_seq,omitempty"`
}

// Empty returns a fresh DocInfo for a document that does not yet exist,
// the seed value passed to an update function's first invocation.
func Empty(id DocID) Info {
	return Info{ID: id, RevTree: revtree.New()}
}

// Exists reports whether this DocInfo describes a document that has at
// least one committed revision.
func (i Info) Exists() bool {
	return i.CurrentRev != revid.Empty
}

// RecomputeWinner recomputes CurrentRev/Branched/Conflict/Deleted from
// RevTree.
func (i *Info) RecomputeWinner() {
	winner, branched, conflict := i.RevTree.Winner()
	i.CurrentRev = winner
	i.Branched = branched
	i.Conflict = conflict
	if winner == revid.Empty {
		i.Deleted = false
		return
	}
	i.Deleted = i.RevTree[winner].Deleted
}
