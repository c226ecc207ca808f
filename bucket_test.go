// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package humming

import (
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBucket(t *testing.T, opts ...Option) *Bucket {
	t.Helper()
	b, err := Open(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// S1: single record.
func TestBucketSingleRecord(t *testing.T) {
	b := openBucket(t)
	require.NoError(t, b.Insert([]KV{{Key: []byte("a"), Value: []byte("A")}}))

	ctx, err := NewReadContext()
	require.NoError(t, err)

	got, err := b.Read([]byte("a"), ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("A"), got[0].Value)

	got, err = b.Read([]byte("b"), ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// S2: many integer keys, a disjoint range of keys that were never inserted.
func TestBucketManyIntegerKeys(t *testing.T) {
	b := openBucket(t)

	const n = 5000
	kvs := make([]KV, n)
	for i := 0; i < n; i++ {
		kvs[i] = KV{Key: []byte(strconv.Itoa(i)), Value: []byte(strconv.Itoa(-i))}
	}
	require.NoError(t, b.Insert(kvs))

	ctx, err := NewReadContext()
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		got, err := b.Read([]byte(strconv.Itoa(i)), ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, strconv.Itoa(-i), string(got[0].Value))
	}
	for i := n; i < n+1000; i++ {
		got, err := b.Read([]byte(strconv.Itoa(i)), ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

// S3: duplicate keys across files, returned in insertion order.
func TestBucketDuplicateKeysAcrossFiles(t *testing.T) {
	b := openBucket(t)
	require.NoError(t, b.Insert([]KV{{Key: []byte("k"), Value: []byte("v1")}}))
	require.NoError(t, b.Insert([]KV{{Key: []byte("k"), Value: []byte("v2")}}))

	ctx, err := NewReadContext()
	require.NoError(t, err)

	got, err := b.Read([]byte("k"), ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("v1"), got[0].Value)
	assert.Equal(t, []byte("v2"), got[1].Value)
}

// Re-opening a bucket from disk recovers every file via its trailer,
// with no manifest, and serves the same reads as before the reopen.
func TestBucketReopenRecoversFromTrailers(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, b.Insert([]KV{{Key: []byte("a"), Value: []byte("A")}}))
	require.NoError(t, b.Insert([]KV{{Key: []byte("b"), Value: []byte("B")}}))
	require.NoError(t, b.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	ctx, err := NewReadContext()
	require.NoError(t, err)
	for _, want := range []KV{{Key: []byte("a"), Value: []byte("A")}, {Key: []byte("b"), Value: []byte("B")}} {
		got, err := reopened.Read(want.Key, ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, want.Value, got[0].Value)
	}
}

// Empty bucket: a read against nothing returns an empty slice, not
// an error.
func TestBucketEmptyRead(t *testing.T) {
	b := openBucket(t)
	ctx, err := NewReadContext()
	require.NoError(t, err)

	got, err := b.Read([]byte("anything"), ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// A value whose length is zero round-trips.
func TestBucketEmptyValueRoundTrips(t *testing.T) {
	b := openBucket(t)
	require.NoError(t, b.Insert([]KV{{Key: []byte("k"), Value: nil}}))

	ctx, err := NewReadContext()
	require.NoError(t, err)
	got, err := b.Read([]byte("k"), ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Value)
}

// WithDirectIO must produce byte-identical externally observable
// behavior to buffered I/O.
func TestBucketDirectIOMatchesBuffered(t *testing.T) {
	buffered := openBucket(t)
	direct, err := Open(t.TempDir(), WithDirectIO(true))
	if err != nil {
		t.Skipf("O_DIRECT not supported on this filesystem: %v", err)
	}
	defer direct.Close()

	kvs := []KV{
		{Key: []byte("a"), Value: []byte("A")},
		{Key: []byte("b"), Value: []byte("B")},
		{Key: []byte("c"), Value: []byte("C")},
	}
	require.NoError(t, buffered.Insert(kvs))
	if err := direct.Insert(kvs); err != nil {
		t.Skipf("O_DIRECT write not supported on this filesystem: %v", err)
	}

	ctxBuf, err := NewReadContext()
	require.NoError(t, err)
	ctxDir, err := NewReadContext()
	require.NoError(t, err)

	for _, kv := range kvs {
		got, err := buffered.Read(kv.Key, ctxBuf)
		require.NoError(t, err)
		want, err := direct.Read(kv.Key, ctxDir)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

// S6: search-direction coverage. Insert keys whose hashes are known
// relative to each other (via the real Hash function) and make sure
// a lookup for the smallest and largest hash in a multi-page batch
// both resolve correctly — one estimate undershoots, the other
// overshoots, exercising both skip branches in get_hash_offsets.
func TestBucketSearchDirectionCoverage(t *testing.T) {
	b := openBucket(t)

	const n = 2000
	kvs := make([]KV, n)
	for i := 0; i < n; i++ {
		kvs[i] = KV{Key: []byte("key-" + strconv.Itoa(i)), Value: []byte(strconv.Itoa(i))}
	}
	require.NoError(t, b.Insert(kvs))

	hashes := make([]uint64, n)
	for i, kv := range kvs {
		hashes[i] = Hash(kv.Key)
	}
	sort.Slice(kvs, func(i, j int) bool { return hashes[i] < hashes[j] })
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	ctx, err := NewReadContext()
	require.NoError(t, err)

	for _, idx := range []int{0, n - 1} {
		var want KV
		for _, kv := range kvs {
			if Hash(kv.Key) == hashes[idx] {
				want = kv
				break
			}
		}
		got, err := b.Read(want.Key, ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, want.Value, got[0].Value)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "bucket")
	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	_, err = filepath.Abs(dir)
	require.NoError(t, err)
}
