// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pageindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adam-szymanski/Humming/internal/pageindex"
)

func TestPageIteratorDecAtStartReturnsFalse(t *testing.T) {
	records := buildSpread(10)
	it, df, cleanup := openForLookup(t, records)
	defer cleanup()

	require.NoError(t, it.Init(0, df.IndexOffset, df.EntriesCount))
	ok, err := it.Dec()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPageIteratorIncAtEndReturnsFalse(t *testing.T) {
	records := buildSpread(10)
	it, df, cleanup := openForLookup(t, records)
	defer cleanup()

	require.NoError(t, it.Init(int64(len(records)-1), df.IndexOffset, df.EntriesCount))
	ok, err := it.Inc()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPageIteratorIncCrossesPageBoundary(t *testing.T) {
	// enough records to need at least 2 pages
	records := buildSpread(pageindex.EntriesNum + 10)
	it, df, cleanup := openForLookup(t, records)
	defer cleanup()

	require.NoError(t, it.Init(int64(pageindex.EntriesNum-1), df.IndexOffset, df.EntriesCount))
	assert.Equal(t, int64(0), it.PageID())

	ok, err := it.Inc()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), it.PageID())

	ok, err = it.Dec()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), it.PageID())
}

func TestPageIteratorSingleSmallPage(t *testing.T) {
	// fewer entries than a page: fence arrays go entirely unused.
	records := buildSpread(5)
	it, df, cleanup := openForLookup(t, records)
	defer cleanup()

	require.NoError(t, it.Init(0, df.IndexOffset, df.EntriesCount))
	assert.Equal(t, int64(1), it.PagesNum())
	assert.Equal(t, int64(5), it.Size())
}
