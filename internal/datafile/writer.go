// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"sort"

	"github.com/adam-szymanski/Humming/internal/ioutil"
	"github.com/adam-szymanski/Humming/internal/pageindex"
	"github.com/adam-szymanski/Humming/internal/zero"
)

// Write sorts records by hash and writes a complete datafile to
// path: the record region (two length-prefixed strings per record),
// sector padding, the paginated hash index, and a trailer. directIO
// selects O_DIRECT for the underlying descriptor.
//
// Fence slots in each IndexPage are bounded by the true page count
// rather than blindly filled for k_hashes_num neighbors, so a file
// with fewer than HashesNum pages never reads past the sorted record
// slice while building post_hashes/pre_hashes.
func Write(path string, records []Record, directIO bool) (*Metadata, error) {
	sort.Slice(records, func(i, j int) bool { return records[i].Hash < records[j].Hash })

	out, err := ioutil.NewBufferedFileOutput(ioutil.SectorSize)
	if err != nil {
		return nil, err
	}
	if err := out.Open(path, directIO); err != nil {
		return nil, err
	}

	entriesNum := int64(len(records))
	offsets := make([]int64, entriesNum)
	var offset int64
	for i, r := range records {
		if err := out.WriteString(r.Key); err != nil {
			_ = out.Close()
			return nil, err
		}
		if err := out.WriteString(r.Value); err != nil {
			_ = out.Close()
			return nil, err
		}
		offsets[i] = offset
		offset += 8 + int64(len(r.Key)) + 8 + int64(len(r.Value))
	}

	if rem := offset % ioutil.SectorSize; rem > 0 {
		pad := make([]byte, ioutil.SectorSize-rem)
		zero.Bytes(pad)
		if _, err := out.Write(pad); err != nil {
			_ = out.Close()
			return nil, err
		}
	}

	indexOffset := out.Offset()
	if err := writeIndex(out, records, offsets, entriesNum); err != nil {
		_ = out.Close()
		return nil, err
	}

	t := &trailer{
		EntriesCount:   uint64(entriesNum),
		SectorSize:     ioutil.SectorSize,
		HashesNum:      pageindex.HashesNum,
		EntriesPerPage: pageindex.EntriesNum,
	}
	if _, err := out.Write(t.marshal()); err != nil {
		_ = out.Close()
		return nil, err
	}
	byteSize := out.Offset()

	if err := out.Close(); err != nil {
		return nil, err
	}

	return &Metadata{
		Path:         path,
		EntriesCount: entriesNum,
		ByteSize:     byteSize,
		IndexOffset:  indexOffset,
	}, nil
}

func writeIndex(out *ioutil.BufferedFileOutput, records []Record, offsets []int64, entriesNum int64) error {
	pagesNum := pageindex.PagesNum(entriesNum)
	pageBuf := make([]byte, ioutil.SectorSize)
	var page pageindex.IndexPage

	for pageID := int64(0); pageID < pagesNum; pageID++ {
		start := pageID * pageindex.EntriesNum
		end := start + pageindex.EntriesNum
		if end > entriesNum {
			end = entriesNum
		}

		page = pageindex.IndexPage{}
		for i := start; i < end; i++ {
			page.Entries[i-start] = pageindex.IndexEntry{
				Hash:   records[i].Hash,
				Offset: uint64(offsets[i]),
			}
		}

		followingPages := pagesNum - pageID - 1
		if followingPages > pageindex.HashesNum {
			followingPages = pageindex.HashesNum
		}
		for k := int64(0); k < followingPages; k++ {
			followingPageID := pageID + k + 1
			lastEntry := followingPageID*pageindex.EntriesNum + pageindex.EntriesNum - 1
			if lastEntry >= entriesNum {
				lastEntry = entriesNum - 1
			}
			page.PostHashes[k] = records[lastEntry].Hash
		}

		precedingPages := pageID
		if precedingPages > pageindex.HashesNum {
			precedingPages = pageindex.HashesNum
		}
		for k := int64(0); k < precedingPages; k++ {
			precedingPageID := pageID - k - 1
			firstEntry := precedingPageID * pageindex.EntriesNum
			page.PreHashes[k] = records[firstEntry].Hash
		}

		page.MarshalTo(pageBuf)
		if _, err := out.Write(pageBuf); err != nil {
			return err
		}
	}
	return nil
}
