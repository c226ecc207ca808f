// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package humming

import (
	"github.com/adam-szymanski/Humming/internal/datafile"
	"github.com/adam-szymanski/Humming/internal/ioutil"
)

// Error kinds surfaced by Bucket. They are the public names for the
// internal types the storage layers actually return; errors.As works
// against either.
type (
	// OpenError reports a failure to open a DataFile for reading or
	// writing.
	OpenError = ioutil.OpenError
	// IOError reports a read/pread/write/lseek/ftruncate failure
	// partway through an operation.
	IOError = ioutil.IOError
	// ShortReadError reports a pread that returned fewer bytes than a
	// fixed-size structure requires: corruption, not EOF.
	ShortReadError = ioutil.ShortReadError
)

var (
	// ErrAlreadyOpen is returned when Open is called twice on the same
	// I/O handle.
	ErrAlreadyOpen = ioutil.ErrAlreadyOpen
	// ErrAlloc is returned when an aligned buffer allocation's size
	// invariant is violated.
	ErrAlloc = ioutil.ErrAlloc
	// ErrCorruption is returned when a DataFile's trailer fails
	// validation.
	ErrCorruption = datafile.ErrCorrupt
)
