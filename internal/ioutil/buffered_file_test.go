// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ioutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openOutputOrSkip opens a BufferedFileOutput at path under directIO,
// skipping the test when the filesystem backing t.TempDir() (often
// tmpfs or overlayfs in CI) doesn't support O_DIRECT.
func openOutputOrSkip(t *testing.T, path string, directIO bool) *BufferedFileOutput {
	out, err := NewBufferedFileOutput(SectorSize)
	require.NoError(t, err)
	if err := out.Open(path, directIO); err != nil {
		if directIO {
			t.Skipf("O_DIRECT not supported on this filesystem: %v", err)
		}
		require.NoError(t, err)
	}
	return out
}

func TestBufferedFileOutputInputRoundTrip(t *testing.T) {
	for _, directIO := range []bool{false, true} {
		directIO := directIO
		t.Run(map[bool]string{false: "buffered", true: "direct"}[directIO], func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "data.bin")

			out := openOutputOrSkip(t, path, directIO)
			require.NoError(t, out.WriteString([]byte("hello")))
			require.NoError(t, out.WriteString([]byte("")))
			require.NoError(t, out.WriteString([]byte("world, a somewhat longer value than the first two")))
			wantOffset := out.Offset()
			require.NoError(t, out.Close())

			st, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, wantOffset, st.Size())

			in, err := NewBufferedFileInput(SectorSize)
			require.NoError(t, err)
			require.NoError(t, in.Open(path, directIO))
			defer in.Close()

			got, err := in.ReadString(nil)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(got))

			got, err = in.ReadString(nil)
			require.NoError(t, err)
			assert.Equal(t, "", string(got))

			got, err = in.ReadString(nil)
			require.NoError(t, err)
			assert.Equal(t, "world, a somewhat longer value than the first two", string(got))

			err = in.ReadSimple(new(uint64))
			_ = err // EOF or error, either is fine at end of stream; just must not hang
		})
	}
}

func TestBufferedFileOutputCloseTruncatesPadding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	out := openOutputOrSkip(t, path, true)
	require.NoError(t, out.WriteString([]byte("x")))
	want := out.Offset()
	require.NoError(t, out.Close())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, want, st.Size())
}

func TestBufferedFileInputPread(t *testing.T) {
	for _, directIO := range []bool{false, true} {
		directIO := directIO
		t.Run(map[bool]string{false: "buffered", true: "direct"}[directIO], func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "data.bin")

			payload := make([]byte, 3*SectorSize)
			for i := range payload {
				payload[i] = byte(i % 251)
			}

			out := openOutputOrSkip(t, path, directIO)
			_, err := out.Write(payload)
			require.NoError(t, err)
			require.NoError(t, out.Close())

			in, err := NewBufferedFileInput(SectorSize)
			require.NoError(t, err)
			require.NoError(t, in.Open(path, directIO))
			defer in.Close()

			// aligned window
			dst := make([]byte, SectorSize)
			n, err := in.Pread(dst, SectorSize)
			require.NoError(t, err)
			assert.Equal(t, SectorSize, n)
			assert.Equal(t, payload[SectorSize:2*SectorSize], dst)

			// unaligned window, forces the bounce-buffer fallback under O_DIRECT
			dst2 := make([]byte, 10)
			n, err = in.Pread(dst2, SectorSize+3)
			require.NoError(t, err)
			assert.Equal(t, 10, n)
			assert.Equal(t, payload[SectorSize+3:SectorSize+13], dst2)
		})
	}
}

func TestBufferedFileInputSeekThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	out := openOutputOrSkip(t, path, false)
	require.NoError(t, out.WriteString([]byte("first")))
	require.NoError(t, out.WriteString([]byte("second")))
	require.NoError(t, out.Close())

	in, err := NewBufferedFileInput(SectorSize)
	require.NoError(t, err)
	require.NoError(t, in.Open(path, false))
	defer in.Close()

	_, err = in.ReadString(nil)
	require.NoError(t, err)

	secondOffset := int64(8 + len("first"))
	_, err = in.Seek(secondOffset, io.SeekStart)
	require.NoError(t, err)

	got, err := in.ReadString(nil)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestBufferedFileOutputAlreadyOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	out, err := NewBufferedFileOutput(SectorSize)
	require.NoError(t, err)
	require.NoError(t, out.Open(path, false))
	defer out.Close()

	assert.ErrorIs(t, out.Open(path, false), ErrAlreadyOpen)
}
