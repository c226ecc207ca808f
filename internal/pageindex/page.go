// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package pageindex implements the fixed-size, sector-aligned hash
// index that sits after a datafile's record region: a run of
// IndexPages, each carrying a dense block of sorted (hash, offset)
// entries plus forward/backward hash fences so a PageIterator can
// skip whole pages without reading them.
package pageindex

import (
	"encoding/binary"

	"github.com/adam-szymanski/Humming/internal/ioutil"
)

const (
	// HashesNum is the number of preceding/following page boundary
	// hashes recorded in each IndexPage.
	HashesNum = 8

	entrySize = 16 // sizeof(hash uint64) + sizeof(offset uint64)

	// EntriesNum is the number of IndexEntry slots per page, chosen so
	// a page occupies exactly one sector.
	EntriesNum = (ioutil.SectorSize - 2*HashesNum*8) / entrySize
)

// IndexEntry is one (hash, offset) pair in an IndexPage.
type IndexEntry struct {
	Hash   uint64
	Offset uint64
}

// IndexPage is one sector's worth of index: fence arrays plus a dense
// block of entries. PreHashes[i] is the first hash of page p-i-1 (if
// it exists); PostHashes[i] is the last hash of page p+i+1 (if it
// exists). Unused slots are never consulted by PageIterator/
// GetHashOffsets, which always bound themselves by the known page
// count, so callers may leave them zeroed.
type IndexPage struct {
	PreHashes  [HashesNum]uint64
	PostHashes [HashesNum]uint64
	Entries    [EntriesNum]IndexEntry
}

// MarshalTo encodes p into buf, which must be exactly ioutil.SectorSize
// bytes long.
func (p *IndexPage) MarshalTo(buf []byte) {
	off := 0
	for i := 0; i < HashesNum; i++ {
		binary.LittleEndian.PutUint64(buf[off:], p.PreHashes[i])
		off += 8
	}
	for i := 0; i < HashesNum; i++ {
		binary.LittleEndian.PutUint64(buf[off:], p.PostHashes[i])
		off += 8
	}
	for i := 0; i < EntriesNum; i++ {
		binary.LittleEndian.PutUint64(buf[off:], p.Entries[i].Hash)
		binary.LittleEndian.PutUint64(buf[off+8:], p.Entries[i].Offset)
		off += entrySize
	}
}

// UnmarshalFrom decodes p from buf, which must be exactly
// ioutil.SectorSize bytes long.
func (p *IndexPage) UnmarshalFrom(buf []byte) {
	off := 0
	for i := 0; i < HashesNum; i++ {
		p.PreHashes[i] = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}
	for i := 0; i < HashesNum; i++ {
		p.PostHashes[i] = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}
	for i := 0; i < EntriesNum; i++ {
		p.Entries[i].Hash = binary.LittleEndian.Uint64(buf[off:])
		p.Entries[i].Offset = binary.LittleEndian.Uint64(buf[off+8:])
		off += entrySize
	}
}

// PagesNum returns the number of IndexPages needed to hold
// entriesNum entries.
func PagesNum(entriesNum int64) int64 {
	return (entriesNum + EntriesNum - 1) / EntriesNum
}
