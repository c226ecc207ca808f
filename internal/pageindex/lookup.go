// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pageindex

// GetHashOffsets locates every index entry in the file bound to it
// whose hash equals target, appending their record-region offsets to
// dst and returning the extended slice. it must already be Bind'd to
// a BufferedFileInput positioned over the right file; indexOffset is
// the byte offset of the index region in that file and entriesNum is
// the total number of entries indexed there.
//
// The landing entry is estimated from the high bits of target, then
// the pre/post fence arrays on the landing page (and its neighbors)
// are used to skip whole pages without reading them until the
// landing page provably brackets target, at which point a local
// search resolves the exact run of equal hashes. Runs that straddle a
// page boundary are walked out in both directions so the full
// contiguous run is always returned.
func GetHashOffsets(it *PageIterator, entriesNum int64, target uint64, indexOffset int64, dst []uint64) ([]uint64, error) {
	dst = dst[:0]
	if entriesNum <= 0 {
		return dst, nil
	}

	currEntry := int64((target >> 32) * uint64(entriesNum) / (uint64(1) << 32))
	if err := it.Init(currEntry, indexOffset, entriesNum); err != nil {
		return nil, err
	}

	currHash := it.Current().Hash

	switch {
	case currHash == target:
		return walkBothDirections(it, currEntry, indexOffset, entriesNum, target, dst)

	case currHash < target:
		for it.PageID()+1 < it.PagesNum() && it.Page().Entries[it.Size()-1].Hash < target {
			h := it.PagesNum() - it.PageID() - 1
			if h > HashesNum {
				h = HashesNum
			}
			p := int64(0)
			found := false
			for ; p < h; p++ {
				if it.Page().PostHashes[p] >= target {
					found = true
					break
				}
			}
			advance := h
			if found {
				advance = p + 1
			}
			if err := it.SetPageID(it.PageID() + advance); err != nil {
				return nil, err
			}
			it.currEntryInBlock = 0
		}
		for {
			if it.Current().Hash == target {
				dst = append(dst, it.Current().Offset)
			}
			if it.Current().Hash > target {
				return dst, nil
			}
			ok, err := it.Inc()
			if err != nil {
				return nil, err
			}
			if !ok {
				return dst, nil
			}
		}

	default: // currHash > target
		for it.PageID() > 0 && it.Page().Entries[0].Hash > target {
			h := it.PageID()
			if h > HashesNum {
				h = HashesNum
			}
			p := int64(0)
			found := false
			for ; p < h; p++ {
				if it.Page().PreHashes[p] <= target {
					found = true
					break
				}
			}
			advance := h
			if found {
				advance = p + 1
			}
			if err := it.SetPageID(it.PageID() - advance); err != nil {
				return nil, err
			}
		}

		bot := binarySearchLE(it.Page().Entries[:it.Size()], target)
		if it.Page().Entries[bot].Hash != target {
			return dst, nil
		}
		landedEntry := it.PageID()*EntriesNum + bot
		return walkBothDirections(it, landedEntry, indexOffset, entriesNum, target, dst)
	}
}

// binarySearchLE returns the largest index i such that entries[i].Hash
// <= target, assuming entries is sorted ascending by Hash.
func binarySearchLE(entries []IndexEntry, target uint64) int64 {
	bot, top := int64(0), int64(len(entries))
	for top > 1 {
		mid := top / 2
		if target >= entries[bot+mid].Hash {
			bot += mid
		}
		top -= mid
	}
	return bot
}

// walkBothDirections positions it at entryIndex (whose hash must equal
// target) and collects every contiguous entry with that hash on both
// sides, crossing page boundaries as needed.
func walkBothDirections(it *PageIterator, entryIndex, indexOffset, entriesNum int64, target uint64, dst []uint64) ([]uint64, error) {
	if err := it.Init(entryIndex, indexOffset, entriesNum); err != nil {
		return nil, err
	}
	dst = append(dst, it.Current().Offset)

	for {
		ok, err := it.Dec()
		if err != nil {
			return nil, err
		}
		if !ok || it.Current().Hash != target {
			break
		}
		dst = append(dst, it.Current().Offset)
	}

	if err := it.Init(entryIndex, indexOffset, entriesNum); err != nil {
		return nil, err
	}
	for {
		ok, err := it.Inc()
		if err != nil {
			return nil, err
		}
		if !ok || it.Current().Hash != target {
			break
		}
		dst = append(dst, it.Current().Offset)
	}

	return dst, nil
}
