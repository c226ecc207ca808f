// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"

	"github.com/adam-szymanski/Humming/internal/ioutil"
	"github.com/adam-szymanski/Humming/internal/pageindex"
	"golang.org/x/sys/unix"
)

// DataFile is an open, read-only handle to a file written by Write.
// It owns the underlying descriptor; callers attach per-lookup
// ioutil.BufferedFileInput/pageindex.PageIterator pairs to Fd() to do
// the actual reading. Attached inputs share the descriptor's file
// offset, which Seek and Read move, so lookups against one DataFile
// must not run concurrently.
type DataFile struct {
	Metadata

	fd       int
	directIO bool
}

// Open opens path, validates its trailer, and returns a DataFile
// ready for Resolve calls. Metadata is recovered entirely from the
// trailer; no sidecar manifest is consulted.
func Open(path string, directIO bool) (*DataFile, error) {
	flags := unix.O_RDONLY
	if directIO {
		flags |= unix.O_DIRECT
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, &ioutil.OpenError{Path: path, Err: err}
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, &ioutil.IOError{Op: "fstat", Err: err}
	}
	fileSize := st.Size

	in, err := ioutil.NewBufferedFileInput(ioutil.SectorSize)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	in.Attach(fd, directIO)

	buf := make([]byte, trailerSize)
	n, err := in.Pread(buf, fileSize-trailerSize)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if n != trailerSize {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, &ioutil.ShortReadError{Expected: trailerSize, Got: n})
	}
	t, err := unmarshalTrailer(buf)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	indexSize := pageindex.PagesNum(int64(t.EntriesCount)) * ioutil.SectorSize
	indexOffset := fileSize - trailerSize - indexSize

	return &DataFile{
		Metadata: Metadata{
			Path:         path,
			EntriesCount: int64(t.EntriesCount),
			ByteSize:     fileSize,
			IndexOffset:  indexOffset,
		},
		fd:       fd,
		directIO: directIO,
	}, nil
}

// Fd returns the raw descriptor, for attaching a per-lookup
// BufferedFileInput via its Attach method.
func (d *DataFile) Fd() int { return d.fd }

// DirectIO reports whether d was opened with O_DIRECT.
func (d *DataFile) DirectIO() bool { return d.directIO }

// Close releases the underlying descriptor.
func (d *DataFile) Close() error {
	if d.fd == -1 {
		return nil
	}
	fd := d.fd
	d.fd = -1
	if err := unix.Close(fd); err != nil {
		return &ioutil.IOError{Op: "close", Err: err}
	}
	return nil
}
