// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package humming implements a hash-indexed, append-only key-value
// storage engine.
//
// A Bucket is a directory of immutable DataFiles. Insert sorts a
// batch of records by hash and writes it as one new sealed file;
// Read fans a lookup out across every file in insertion order and
// returns one result per file that contains the key. Nothing is ever
// mutated, deleted, or compacted — a bucket only ever grows.
//
// A DataFile looks like:
//
//	┌────────────────────────┐
//	│ record region          │
//	│  (len8,key,len8,value)*│
//	├────────────────────────┤
//	│ zero padding           │
//	├────────────────────────┤
//	│ index region           │
//	│  IndexPage[pages_num]  │
//	├────────────────────────┤
//	│ trailer (64 bytes)     │
//	└────────────────────────┘
//
// The index region is a run of sector-sized IndexPages holding dense
// (hash, offset) entries sorted ascending by hash, plus forward/
// backward fence arrays that let a lookup skip whole pages without
// reading them. See internal/pageindex for the page format and the
// get_hash_offsets search, and internal/ioutil for the aligned
// buffered I/O primitives that work identically whether or not the
// underlying descriptor was opened with O_DIRECT.
package humming
