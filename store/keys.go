package store

import (
	"fmt"
	"strconv"
	"strings"
)

// DBID identifies one open database within a Store's keyspace.
type DBID string

const (
	nsDocInfo   = "D"
	nsBody      = "B"
	nsBySeq     = "S"
	nsSystem    = "Y"
	nsMetaEntry = "meta"
)

func docInfoKey(db DBID, docID string) string {
	return strings.Join([]string{string(db), nsDocInfo, docID}, "|")
}

func bodyKey(db DBID, docID, rev string) string {
	return strings.Join([]string{string(db), nsBody, docID, rev}, "|")
}

// seqKey encodes seq as a fixed-width zero-padded decimal so that
// lexicographic key order matches numeric order, letting Find iterate
// by-seq entries in ascending order.
func seqKey(db DBID, seq uint64) string {
	return fmt.Sprintf("%s|%s|%020d", db, nsBySeq, seq)
}

func bySeqPrefix(db DBID) string {
	return fmt.Sprintf("%s|%s|", db, nsBySeq)
}

func systemKey(db DBID, docID string) string {
	return strings.Join([]string{string(db), nsSystem, docID}, "|")
}

func metaKey(db DBID) string {
	return strings.Join([]string{string(db), nsMetaEntry}, "|")
}

func docInfoPrefix(db DBID) string {
	return fmt.Sprintf("%s|%s|", db, nsDocInfo)
}

func bodyPrefix(db DBID) string {
	return fmt.Sprintf("%s|%s|", db, nsBody)
}

func systemPrefix(db DBID) string {
	return fmt.Sprintf("%s|%s|", db, nsSystem)
}

func parseSeqSuffix(key, prefix string) (uint64, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(key[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
