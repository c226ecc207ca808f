// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ioutil

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// BufferedFileOutput is a write-side file handle: buffered Write with
// an explicit flush whenever the bounce buffer fills, and a padded,
// truncated Close under O_DIRECT.
type BufferedFileOutput struct {
	fd         int
	bufferSize int
	buf        *AlignedBuffer
	pos        int
	total      int64
	directIO   bool
}

// NewBufferedFileOutput allocates a BufferedFileOutput with an
// internal bounce buffer of at least bufferSize bytes (rounded up to
// a sector multiple). Call Open before use.
func NewBufferedFileOutput(bufferSize int) (*BufferedFileOutput, error) {
	size := AlignedSize(bufferSize)
	buf, err := NewAlignedBuffer(size)
	if err != nil {
		return nil, err
	}
	return &BufferedFileOutput{
		fd:         -1,
		bufferSize: size,
		buf:        buf,
	}, nil
}

// Open creates/truncates path for writing. directIO requests O_DIRECT.
func (w *BufferedFileOutput) Open(path string, directIO bool) error {
	if w.fd != -1 {
		return ErrAlreadyOpen
	}

	flags := unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
	if directIO {
		flags |= unix.O_DIRECT
	}
	fd, err := unix.Open(path, flags, 0644)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}
	w.fd = fd
	w.directIO = directIO
	w.pos = 0
	w.total = 0
	return nil
}

// Offset returns the logical number of bytes written so far.
func (w *BufferedFileOutput) Offset() int64 {
	return w.total
}

func (w *BufferedFileOutput) flush() error {
	if w.fd == -1 || w.pos == 0 {
		return nil
	}
	buf := w.buf.Bytes()[:w.pos]
	written := 0
	for written < len(buf) {
		n, err := unix.Write(w.fd, buf[written:])
		if err != nil {
			return &IOError{Op: "write", Err: err}
		}
		written += n
	}
	w.pos = 0
	return nil
}

// Write appends bytes by copying into the bounce buffer, flushing to
// the kernel whenever the buffer fills.
func (w *BufferedFileOutput) Write(src []byte) (int, error) {
	if w.fd == -1 {
		return 0, &IOError{Op: "write", Err: unix.EBADF}
	}

	remaining := src
	for len(remaining) > 0 {
		space := w.bufferSize - w.pos
		n := len(remaining)
		if n > space {
			n = space
		}
		copy(w.buf.Bytes()[w.pos:], remaining[:n])
		w.pos += n
		remaining = remaining[n:]

		if w.pos == w.bufferSize {
			if err := w.flush(); err != nil {
				w.total += int64(len(src) - len(remaining))
				return len(src) - len(remaining), err
			}
		}
	}
	w.total += int64(len(src))
	return len(src), nil
}

// WriteSimple writes a fixed-size value using native (little-endian)
// encoding.
func (w *BufferedFileOutput) WriteSimple(v any) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteString writes an 8-byte length followed by the bytes of s.
func (w *BufferedFileOutput) WriteString(s []byte) error {
	n := uint64(len(s))
	if err := w.WriteSimple(&n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	_, err := w.Write(s)
	return err
}

// Close is idempotent. Under non-direct I/O it flushes any buffered
// bytes. Under O_DIRECT, if the bounce buffer is partially full it
// zero-pads to a sector boundary, writes the full sector(s), then
// truncates the file back to the logical length so padding never
// persists on disk.
func (w *BufferedFileOutput) Close() error {
	if w.fd == -1 {
		return nil
	}
	fd := w.fd

	if w.directIO {
		if w.pos > 0 {
			alignedLen := AlignedSize(w.pos)
			buf := w.buf.Bytes()
			for i := w.pos; i < alignedLen; i++ {
				buf[i] = 0
			}
			written := 0
			for written < alignedLen {
				n, err := unix.Write(fd, buf[written:alignedLen])
				if err != nil {
					w.fd = -1
					_ = unix.Close(fd)
					return &IOError{Op: "write", Err: err}
				}
				written += n
			}
		}
		if err := unix.Ftruncate(fd, w.total); err != nil {
			w.fd = -1
			_ = unix.Close(fd)
			return &IOError{Op: "ftruncate", Err: err}
		}
	} else {
		if err := w.flush(); err != nil {
			w.fd = -1
			_ = unix.Close(fd)
			return err
		}
	}

	w.fd = -1
	if err := unix.Close(fd); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}
