// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ioutil

import (
	"encoding/binary"
	"io"
	"unsafe"

	"golang.org/x/sys/unix"
)

// BufferedFileInput is a read-side file handle: sequential Read,
// random Pread, and Seek, backed by a single sector-aligned bounce
// buffer that is used whenever the caller's buffer or offset is
// unaligned under O_DIRECT. Construct it with NewBufferedFileInput;
// the zero value has no bounce buffer and is not usable.
type BufferedFileInput struct {
	fd         int
	owner      bool
	directIO   bool
	bufferSize int
	buf        *AlignedBuffer
	cur        int
	valid      int
}

// NewBufferedFileInput allocates a BufferedFileInput with an internal
// bounce buffer of at least bufferSize bytes (rounded up to a sector
// multiple). Call Open or Attach before use.
func NewBufferedFileInput(bufferSize int) (*BufferedFileInput, error) {
	size := AlignedSize(bufferSize)
	buf, err := NewAlignedBuffer(size)
	if err != nil {
		return nil, err
	}
	return &BufferedFileInput{
		fd:         -1,
		bufferSize: size,
		buf:        buf,
	}, nil
}

// Open opens path read-only. directIO requests O_DIRECT.
func (b *BufferedFileInput) Open(path string, directIO bool) error {
	if b.fd != -1 {
		return ErrAlreadyOpen
	}

	flags := unix.O_RDONLY
	if directIO {
		flags |= unix.O_DIRECT
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}
	b.fd = fd
	b.owner = true
	b.directIO = directIO
	b.cur, b.valid = 0, 0
	return nil
}

// Attach associates an externally owned descriptor with b. Close will
// not release fd.
func (b *BufferedFileInput) Attach(fd int, directIO bool) {
	b.fd = fd
	b.owner = false
	b.directIO = directIO
	b.cur, b.valid = 0, 0
}

// Close is idempotent; it releases the descriptor only if b owns it.
func (b *BufferedFileInput) Close() error {
	if b.fd == -1 {
		return nil
	}
	fd := b.fd
	b.fd = -1
	if !b.owner {
		return nil
	}
	if err := unix.Close(fd); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}

func (b *BufferedFileInput) fillBuffer() (int, error) {
	n, err := unix.Read(b.fd, b.buf.Bytes())
	if err != nil {
		b.valid, b.cur = 0, 0
		return 0, &IOError{Op: "read", Err: err}
	}
	b.valid = n
	b.cur = 0
	return n, nil
}

// Read performs a sequential read, refilling the bounce buffer from
// the kernel whenever it is exhausted. It loops until len(dst) bytes
// have been copied, returning a short count only on EOF or error.
func (b *BufferedFileInput) Read(dst []byte) (int, error) {
	if b.fd == -1 {
		return 0, &IOError{Op: "read", Err: unix.EBADF}
	}

	total := 0
	for total < len(dst) {
		if b.cur >= b.valid {
			n, err := b.fillBuffer()
			if err != nil {
				if total > 0 {
					return total, nil
				}
				return 0, err
			}
			if n == 0 {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
		}
		n := copy(dst[total:], b.buf.Bytes()[b.cur:b.valid])
		b.cur += n
		total += n
	}
	return total, nil
}

// ReadSimple reads a fixed-size value using native (little-endian)
// encoding.
func (b *BufferedFileInput) ReadSimple(v any) error {
	return binary.Read(b, binary.LittleEndian, v)
}

// ReadString reads an 8-byte length followed by that many bytes into
// dst's backing array, starting at index 0 and reallocating when its
// capacity is too small. It returns the slice holding the read bytes.
func (b *BufferedFileInput) ReadString(dst []byte) ([]byte, error) {
	var n uint64
	if err := b.ReadSimple(&n); err != nil {
		return nil, err
	}
	if uint64(cap(dst)) < n {
		dst = make([]byte, n)
	} else {
		dst = dst[:n]
	}
	if n == 0 {
		return dst, nil
	}
	if _, err := b.Read(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Pread performs a random-access read of len(dst) bytes at offset.
// Under non-direct I/O it delegates straight to the kernel pread.
// Under O_DIRECT, if dst and (offset, len(dst)) are already sector
// aligned it also delegates directly; otherwise it loops over aligned
// reads into the bounce buffer, copying the requested window out.
// Any fallback path invalidates the sequential Read cursor.
func (b *BufferedFileInput) Pread(dst []byte, offset int64) (int, error) {
	if b.fd == -1 {
		return 0, &IOError{Op: "pread", Err: unix.EBADF}
	}

	if !b.directIO {
		n, err := unix.Pread(b.fd, dst, offset)
		if err != nil {
			return 0, &IOError{Op: "pread", Err: err}
		}
		return n, nil
	}

	aligned := func(p []byte, off int64) bool {
		return len(p)%SectorSize == 0 && off%SectorSize == 0 &&
			(len(p) == 0 || uintptrAligned(p))
	}
	if len(dst) > 0 && aligned(dst, offset) {
		n, err := unix.Pread(b.fd, dst, offset)
		if err != nil {
			return 0, &IOError{Op: "pread", Err: err}
		}
		return n, nil
	}

	b.valid, b.cur = 0, 0
	total := 0
	cur := offset
	for total < len(dst) {
		alignedOff := (cur / SectorSize) * SectorSize
		n, err := unix.Pread(b.fd, b.buf.Bytes(), alignedOff)
		if err != nil {
			return 0, &IOError{Op: "pread", Err: err}
		}
		if n == 0 {
			break
		}
		startInBuf := cur - alignedOff
		if int64(n) <= startInBuf {
			break
		}
		avail := int64(n) - startInBuf
		need := int64(len(dst) - total)
		nCopy := avail
		if need < nCopy {
			nCopy = need
		}
		copy(dst[total:], b.buf.Bytes()[startInBuf:startInBuf+nCopy])
		total += int(nCopy)
		cur += nCopy
	}

	return total, nil
}

// Seek repositions the cursor for subsequent Read calls.
func (b *BufferedFileInput) Seek(offset int64, whence int) (int64, error) {
	if b.fd == -1 {
		return 0, &IOError{Op: "lseek", Err: unix.EBADF}
	}

	if !b.directIO {
		abs, err := unix.Seek(b.fd, offset, whence)
		if err != nil {
			return 0, &IOError{Op: "lseek", Err: err}
		}
		b.valid, b.cur = 0, 0
		return abs, nil
	}

	abs, err := unix.Seek(b.fd, offset, whence)
	if err != nil {
		return 0, &IOError{Op: "lseek", Err: err}
	}

	alignedPos := (abs / SectorSize) * SectorSize
	aheadInBuffer := abs - alignedPos

	if _, err := unix.Seek(b.fd, alignedPos, unix.SEEK_SET); err != nil {
		return 0, &IOError{Op: "lseek", Err: err}
	}

	n, err := b.fillBuffer()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return abs, nil
	}
	if int(aheadInBuffer) >= b.valid {
		b.valid, b.cur = 0, 0
	} else {
		b.cur = int(aheadInBuffer)
	}
	return abs, nil
}

func uintptrAligned(p []byte) bool {
	if len(p) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&p[0]))%SectorSize == 0
}
