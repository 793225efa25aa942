package revtree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kushal-kothari/barrel-platform/revid"
)

func TestIsLeaf(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-a"})
	tree.Add(Info{ID: "2-b", Parent: "1-a"})

	assert.False(t, tree.IsLeaf("1-a"))
	assert.True(t, tree.IsLeaf("2-b"))
	assert.False(t, tree.IsLeaf("3-nope"))
}

func TestLeavesSingleRoot(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-a"})
	leaves := tree.Leaves()
	assert.Len(t, leaves, 1)
	assert.Equal(t, revid.ID("1-a"), leaves[0].ID)
}

func TestWinnerBranchedAndConflict(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-h1"})
	tree.Add(Info{ID: "2-x", Parent: "1-h1"})
	tree.Add(Info{ID: "2-y", Parent: "1-h1"})

	winner, branched, conflict := tree.Winner()
	assert.True(t, branched)
	assert.True(t, conflict)
	assert.Equal(t, revid.ID("2-y"), winner) // lexicographically larger hash wins
}

func TestWinnerPrefersLiveOverDeleted(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-h1"})
	tree.Add(Info{ID: "2-hD", Parent: "1-h1", Deleted: true})
	tree.Add(Info{ID: "2-hE", Parent: "1-h1"})

	winner, branched, conflict := tree.Winner()
	assert.True(t, branched)
	assert.False(t, conflict) // only one live leaf
	assert.Equal(t, revid.ID("2-hE"), winner)
}

func TestWinnerAllDeleted(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-h1"})
	tree.Add(Info{ID: "2-hD", Parent: "1-h1", Deleted: true})

	winner, branched, conflict := tree.Winner()
	assert.False(t, branched)
	assert.False(t, conflict)
	assert.Equal(t, revid.ID("2-hD"), winner)
}

func TestWinnerEmpty(t *testing.T) {
	winner, branched, conflict := New().Winner()
	assert.Equal(t, revid.Empty, winner)
	assert.False(t, branched)
	assert.False(t, conflict)
}

func TestFoldLeavesVisitsEachOnce(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-h1"})
	tree.Add(Info{ID: "2-x", Parent: "1-h1"})
	tree.Add(Info{ID: "2-y", Parent: "1-h1"})

	count := FoldLeaves(tree, 0, func(acc int, _ Info) int { return acc + 1 })
	assert.Equal(t, 2, count)
}

func TestRevsDiffAllKnown(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-h1"})
	missing, ancestors := tree.RevsDiff([]revid.ID{"1-h1"})
	assert.Empty(t, missing)
	assert.Empty(t, ancestors)
}

func TestRevsDiffMissingWithAncestor(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-h1"})
	tree.Add(Info{ID: "2-h2", Parent: "1-h1"})

	missing, ancestors := tree.RevsDiff([]revid.ID{"1-h1", "3-h3"})
	assert.Equal(t, []revid.ID{"3-h3"}, missing)
	assert.Equal(t, []revid.ID{"1-h1"}, ancestors)
}

func TestRevsDiffEmptyTree(t *testing.T) {
	missing, ancestors := New().RevsDiff([]revid.ID{"1-h1", "2-h2"})
	assert.ElementsMatch(t, []revid.ID{"1-h1", "2-h2"}, missing)
	assert.Empty(t, ancestors)
}

func TestAncestorsWalksToRoot(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-a"})
	tree.Add(Info{ID: "2-b", Parent: "1-a"})
	tree.Add(Info{ID: "3-c", Parent: "2-b"})

	chain := tree.Ancestors("3-c", nil, 0)
	assert.Equal(t, []revid.ID{"3-c", "2-b", "1-a"}, chain)
}

func TestAncestorsCapped(t *testing.T) {
	tree := New()
	tree.Add(Info{ID: "1-a"})
	tree.Add(Info{ID: "2-b", Parent: "1-a"})
	tree.Add(Info{ID: "3-c", Parent: "2-b"})

	chain := tree.Ancestors("3-c", nil, 2)
	assert.Equal(t, []revid.ID{"3-c", "2-b"}, chain)
}
