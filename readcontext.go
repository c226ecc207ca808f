// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package humming

import "github.com/adam-szymanski/Humming/internal/datafile"

// ReadContext holds the scratch state one lookup actor reuses across
// Read calls: a bounce buffer for sequential record reads, a page
// iterator for index navigation, and the offset/key/value scratch
// this grows as needed. Record reads seek the DataFile's shared
// descriptor, so lookups must not run concurrently on one Bucket,
// even with separate ReadContexts.
type ReadContext = datafile.ReadContext

// NewReadContext allocates a ReadContext ready for repeated Read
// calls.
func NewReadContext() (*ReadContext, error) {
	return datafile.NewReadContext()
}
