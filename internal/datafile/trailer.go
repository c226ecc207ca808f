// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"fmt"
)

// trailerSize is the fixed footer every datafile carries after its
// index region, so a reopened file can recover entriesCount and the
// page geometry it was built with without a sidecar manifest.
const trailerSize = 64

const (
	magic   = uint64(0x48756d6d696e6730) // "Humming0"
	version = uint32(1)
)

type trailer struct {
	EntriesCount   uint64
	SectorSize     uint32
	HashesNum      uint32
	EntriesPerPage uint32
}

func (t *trailer) marshal() []byte {
	buf := make([]byte, trailerSize)
	binary.LittleEndian.PutUint64(buf[0:], magic)
	binary.LittleEndian.PutUint32(buf[8:], version)
	binary.LittleEndian.PutUint64(buf[16:], t.EntriesCount)
	binary.LittleEndian.PutUint32(buf[24:], t.SectorSize)
	binary.LittleEndian.PutUint32(buf[28:], t.HashesNum)
	binary.LittleEndian.PutUint32(buf[32:], t.EntriesPerPage)
	return buf
}

func unmarshalTrailer(buf []byte) (*trailer, error) {
	if len(buf) != trailerSize {
		return nil, fmt.Errorf("datafile: trailer must be %d bytes, got %d", trailerSize, len(buf))
	}
	if got := binary.LittleEndian.Uint64(buf[0:]); got != magic {
		return nil, fmt.Errorf("%w: bad magic %x", ErrCorrupt, got)
	}
	if got := binary.LittleEndian.Uint32(buf[8:]); got != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, got)
	}
	return &trailer{
		EntriesCount:   binary.LittleEndian.Uint64(buf[16:]),
		SectorSize:     binary.LittleEndian.Uint32(buf[24:]),
		HashesNum:      binary.LittleEndian.Uint32(buf[28:]),
		EntriesPerPage: binary.LittleEndian.Uint32(buf[32:]),
	}, nil
}
