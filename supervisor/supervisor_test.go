package supervisor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
	"github.com/Kushal-kothari/barrel-platform/errs"
	"github.com/Kushal-kothari/barrel-platform/store"
	"github.com/Kushal-kothari/barrel-platform/store/memkv"
	"github.com/Kushal-kothari/barrel-platform/supervisor"
)

func TestOpenIsIdempotent(t *testing.T) {
	sup := supervisor.New(store.New(memkv.New()), nil)

	a, err := sup.Open("widgets", true)
	require.NoError(t, err)
	b, err := sup.Open("widgets", true)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestGetReportsUnopened(t *testing.T) {
	sup := supervisor.New(store.New(memkv.New()), nil)
	_, ok := sup.Get("widgets")
	assert.False(t, ok)
}

func TestCleanForgetsDatabase(t *testing.T) {
	sup := supervisor.New(store.New(memkv.New()), nil)
	db, err := sup.Open("widgets", true)
	require.NoError(t, err)

	_, err = db.Post(context.Background(), docmodel.Doc{"v": float64(1)})
	require.NoError(t, err)

	require.NoError(t, sup.Clean("widgets"))
	_, ok := sup.Get("widgets")
	assert.False(t, ok)

	reopened, err := sup.Open("widgets", true)
	require.NoError(t, err)
	_, err = reopened.Get("anything")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestNamesListsOpenDatabases(t *testing.T) {
	sup := supervisor.New(store.New(memkv.New()), nil)
	_, err := sup.Open("widgets", true)
	require.NoError(t, err)
	_, err = sup.Open("gadgets", true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"widgets", "gadgets"}, sup.Names())
}
