// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package humming

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/adam-szymanski/Humming/internal/datafile"
)

// KV is a single key/value pair, as submitted to Insert or returned
// by Read.
type KV struct {
	Key   []byte
	Value []byte
}

// Option configures a Bucket.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	directIO bool
}

// WithLogger sets a logger the bucket uses to report progress and
// errors. If not provided, log output is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDirectIO toggles O_DIRECT for every DataFile the bucket opens
// or writes. The external contract is identical either way; this
// only changes whether the kernel page cache is bypassed.
func WithDirectIO(enabled bool) Option {
	return func(o *options) { o.directIO = enabled }
}

// Bucket is a directory-scoped, ordered sequence of immutable
// DataFiles. It is driven by a single actor at a time: inserts are
// totally ordered and append a new sealed DataFile. Reads are not
// safe to run concurrently with each other either, even with
// independent ReadContexts: index pages are fetched with pread, but
// each candidate record is read by seeking the DataFile's shared
// descriptor and then reading from it.
type Bucket struct {
	dir      string
	files    []*datafile.DataFile
	next     int
	logger   *slog.Logger
	directIO bool
}

// Open enumerates dir for previously written "<N>.data" files, opens
// each in ordinal order, and returns a Bucket ready to serve Insert
// and Read. dir is created if it does not already exist. No manifest
// is consulted; every file's entries_count and index geometry are
// recovered from its own trailer.
func Open(dir string, opts ...Option) (*Bucket, error) {
	var o options
	o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("humming: mkdir %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("humming: read dir %s: %w", dir, err)
	}

	var ordinals []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".data") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".data"))
		if err != nil {
			continue
		}
		ordinals = append(ordinals, n)
	}
	sort.Ints(ordinals)

	b := &Bucket{
		dir:      dir,
		logger:   o.logger,
		directIO: o.directIO,
	}
	for _, n := range ordinals {
		path := filepath.Join(dir, fmt.Sprintf("%d.data", n))
		df, err := datafile.Open(path, b.directIO)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("humming: open %s: %w", path, err)
		}
		b.files = append(b.files, df)
		if n+1 > b.next {
			b.next = n + 1
		}
	}

	b.logger.Info("opened bucket", "dir", dir, "files", len(b.files))
	return b, nil
}

// Close releases every open DataFile handle.
func (b *Bucket) Close() error {
	var firstErr error
	for _, df := range b.files {
		if err := df.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.files = nil
	return firstErr
}

// Insert sorts kvs by hash and writes them as a single new sealed
// DataFile appended to the bucket's file list. It never mutates or
// deduplicates against existing files; a later Insert of the same
// key shadows nothing, it just adds another file Read will also
// return a match from.
func (b *Bucket) Insert(kvs []KV) error {
	records := make([]datafile.Record, len(kvs))
	for i, kv := range kvs {
		records[i] = datafile.Record{Key: kv.Key, Value: kv.Value, Hash: Hash(kv.Key)}
	}

	path := filepath.Join(b.dir, fmt.Sprintf("%d.data", b.next))
	if _, err := datafile.Write(path, records, b.directIO); err != nil {
		return fmt.Errorf("humming: write %s: %w", path, err)
	}

	df, err := datafile.Open(path, b.directIO)
	if err != nil {
		return fmt.Errorf("humming: open %s: %w", path, err)
	}
	b.files = append(b.files, df)
	b.next++
	b.logger.Debug("inserted batch", "path", path, "records", len(kvs))
	return nil
}

// Read returns one (key, value) pair per DataFile that contains key,
// in insertion order. ctx holds the scratch state a single lookup
// needs and is reused across calls.
func (b *Bucket) Read(key []byte, ctx *ReadContext) ([]KV, error) {
	hash := Hash(key)
	var result []KV
	for _, df := range b.files {
		val, err := ctx.Resolve(df, key, hash)
		if err != nil {
			if errors.Is(err, datafile.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("humming: read %s: %w", df.Path, err)
		}
		result = append(result, KV{Key: append([]byte(nil), key...), Value: val})
	}
	return result, nil
}
