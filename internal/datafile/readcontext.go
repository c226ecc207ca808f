// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bytes"
	"io"

	"github.com/adam-szymanski/Humming/internal/ioutil"
	"github.com/adam-szymanski/Humming/internal/pageindex"
)

// ReadContext holds the scratch state a single lookup actor needs: a
// bounce buffer for sequential record reads, a page iterator for
// index navigation, and reusable offset/key/value buffers.
// Index pages are read with pread, but Resolve reads record keys and
// values by seeking the DataFile's descriptor and reading from it, so
// lookups against the same DataFile must not run concurrently, even
// with separate ReadContexts.
type ReadContext struct {
	in      *ioutil.BufferedFileInput
	it      *pageindex.PageIterator
	offsets []uint64
	keyBuf  []byte
	valBuf  []byte
}

// NewReadContext allocates a ReadContext ready for repeated Resolve
// calls.
func NewReadContext() (*ReadContext, error) {
	in, err := ioutil.NewBufferedFileInput(ioutil.SectorSize)
	if err != nil {
		return nil, err
	}
	it, err := pageindex.NewPageIterator()
	if err != nil {
		return nil, err
	}
	it.Bind(in)
	return &ReadContext{
		in:      in,
		it:      it,
		offsets: make([]uint64, 0, 16),
		keyBuf:  make([]byte, 0, 256),
		valBuf:  make([]byte, 0, 256),
	}, nil
}

// Resolve walks d's index for every entry hashing to hash, then
// verifies each candidate by reading its key back and comparing
// against want, stopping at the first match. It returns a fresh copy
// of the matching value, or ErrNotFound.
func (ctx *ReadContext) Resolve(d *DataFile, want []byte, hash uint64) ([]byte, error) {
	ctx.in.Attach(d.Fd(), d.DirectIO())

	offsets, err := pageindex.GetHashOffsets(ctx.it, d.EntriesCount, hash, d.IndexOffset, ctx.offsets)
	ctx.offsets = offsets
	if err != nil {
		return nil, err
	}

	for _, off := range offsets {
		if _, err := ctx.in.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		ctx.keyBuf, err = ctx.in.ReadString(ctx.keyBuf)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(ctx.keyBuf, want) {
			continue
		}
		ctx.valBuf, err = ctx.in.ReadString(ctx.valBuf)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(ctx.valBuf))
		copy(out, ctx.valBuf)
		return out, nil
	}
	return nil, ErrNotFound
}
