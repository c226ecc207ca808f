// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

// Record is one key/value pair destined for a datafile. Hash is
// computed by the caller so this package never has to know which
// hash function a bucket is pinned to.
type Record struct {
	Key   []byte
	Value []byte
	Hash  uint64
}

// Metadata describes a datafile, whether freshly written by Write or
// recovered from its trailer by Open.
type Metadata struct {
	Path         string
	EntriesCount int64
	ByteSize     int64
	IndexOffset  int64
}
