// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pageindex

import (
	"fmt"

	"github.com/adam-szymanski/Humming/internal/ioutil"
)

// PageIterator is a cursor over a file's IndexPages, supporting random
// positioning (Init, SetPageID) and single-entry stepping (Inc, Dec).
// It owns a sector-aligned page buffer; it borrows a
// *ioutil.BufferedFileInput for the span of a lookup via Bind.
type PageIterator struct {
	in               *ioutil.BufferedFileInput
	pageBuf          *ioutil.AlignedBuffer
	page             IndexPage
	indexOffset      int64
	entriesNum       int64
	pagesNum         int64
	pageID           int64
	size             int64
	currEntryInBlock int64
}

// NewPageIterator allocates a PageIterator with its own sector-sized
// page buffer. Call Bind before use.
func NewPageIterator() (*PageIterator, error) {
	buf, err := ioutil.NewAlignedBuffer(ioutil.SectorSize)
	if err != nil {
		return nil, err
	}
	return &PageIterator{pageBuf: buf}, nil
}

// Bind points the iterator at in, which it will borrow for the
// duration of subsequent Init/SetPageID/Inc/Dec calls.
func (it *PageIterator) Bind(in *ioutil.BufferedFileInput) {
	it.in = in
}

// Init positions the iterator at entryIndex within a file whose index
// region starts at indexOffset and holds entriesNum entries total.
func (it *PageIterator) Init(entryIndex, indexOffset, entriesNum int64) error {
	it.indexOffset = indexOffset
	it.entriesNum = entriesNum
	it.pagesNum = PagesNum(entriesNum)
	it.currEntryInBlock = entryIndex % EntriesNum
	return it.SetPageID(entryIndex / EntriesNum)
}

// SetPageID moves the iterator to pageID, recomputing its valid-entry
// count and loading it from the backing file. The position within
// the page is left unchanged; callers that need a specific entry set
// it themselves (Init does this before calling SetPageID).
func (it *PageIterator) SetPageID(pageID int64) error {
	it.pageID = pageID
	if (pageID+1)*EntriesNum > it.entriesNum {
		it.size = it.entriesNum - pageID*EntriesNum
	} else {
		it.size = EntriesNum
	}
	return it.load()
}

// Current returns the entry at the iterator's current position.
func (it *PageIterator) Current() IndexEntry {
	return it.page.Entries[it.currEntryInBlock]
}

// Dec steps the iterator back by one entry, crossing page boundaries
// and reloading as needed. It returns false (with a nil error) when
// already at the first entry of the file.
func (it *PageIterator) Dec() (bool, error) {
	if it.currEntryInBlock > 0 {
		it.currEntryInBlock--
		return true, nil
	}
	if it.pageID == 0 {
		return false, nil
	}
	it.pageID--
	it.size = EntriesNum
	it.currEntryInBlock = it.size - 1
	if err := it.load(); err != nil {
		return false, err
	}
	return true, nil
}

// Inc steps the iterator forward by one entry, crossing page
// boundaries and reloading as needed. It returns false (with a nil
// error) when already at the last entry of the file.
func (it *PageIterator) Inc() (bool, error) {
	if it.currEntryInBlock+1 < it.size {
		it.currEntryInBlock++
		return true, nil
	}
	if it.pageID+1 >= it.pagesNum {
		return false, nil
	}
	it.pageID++
	if (it.pageID+1)*EntriesNum > it.entriesNum {
		it.size = it.entriesNum - it.pageID*EntriesNum
	} else {
		it.size = EntriesNum
	}
	it.currEntryInBlock = 0
	if err := it.load(); err != nil {
		return false, err
	}
	return true, nil
}

func (it *PageIterator) load() error {
	n, err := it.in.Pread(it.pageBuf.Bytes(), it.indexOffset+it.pageID*ioutil.SectorSize)
	if err != nil {
		return fmt.Errorf("pageindex: load page %d: %w", it.pageID, err)
	}
	if n != ioutil.SectorSize {
		return fmt.Errorf("pageindex: load page %d: %w", it.pageID, &ioutil.ShortReadError{Expected: ioutil.SectorSize, Got: n})
	}
	it.page.UnmarshalFrom(it.pageBuf.Bytes())
	return nil
}

// PageID returns the currently loaded page's id, mostly for tests.
func (it *PageIterator) PageID() int64 { return it.pageID }

// Size returns the number of valid entries in the currently loaded
// page.
func (it *PageIterator) Size() int64 { return it.size }

// PagesNum returns the total number of pages in the bound index.
func (it *PageIterator) PagesNum() int64 { return it.pagesNum }

// Page exposes the currently loaded page, mostly for GetHashOffsets'
// fence inspection.
func (it *PageIterator) Page() *IndexPage { return &it.page }
