// Package revid implements the revision identifier codec: parsing
// "<generation>-<hash>" strings and minting new ones from a parent
// revision and a canonicalized document body.
package revid

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ID is a revision identifier of the form "<generation>-<hash>".
type ID string

// Empty is the zero value, denoting "no revision" (e.g. a document that
// does not exist yet, or the root's parent).
const Empty ID = ""

// Parse splits a RevID into its generation and hash components.
func Parse(id ID) (generation int, hash string, err error) {
	s := string(id)
	idx := strings.IndexByte(s, '-')
	if idx <= 0 {
		return 0, "", fmt.Errorf("revid: malformed revision id %q", s)
	}
	gen, err := strconv.Atoi(s[:idx])
	if err != nil || gen <= 0 {
		return 0, "", fmt.Errorf("revid: malformed generation in %q", s)
	}
	hash = s[idx+1:]
	if hash == "" {
		return 0, "", fmt.Errorf("revid: malformed hash in %q", s)
	}
	return gen, hash, nil
}

// Generation returns the generation component of id, or 0 if id is
// malformed.
func Generation(id ID) int {
	gen, _, err := Parse(id)
	if err != nil {
		return 0
	}
	return gen
}

// New mints a new RevID for the given generation, parent revision, and
// document body (already stripped of "_rev" and decoded into Go values,
// i.e. the result of json.Unmarshal into interface{}).
//
// The digest is computed over a canonical encoding of (generation, parent,
// body) so that two implementations hashing the same inputs always agree.
func New(generation int, parent ID, body interface{}) (ID, error) {
	canon, err := canonicalBytes(map[string]interface{}{
		"gen":    float64(generation),
		"parent": string(parent),
		"body":   body,
	})
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256(canon)
	return ID(fmt.Sprintf("%d-%s", generation, hex.EncodeToString(sum[:]))), nil
}
