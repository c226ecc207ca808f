// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import "errors"

var (
	// ErrCorrupt is returned when a trailer fails its magic/version
	// check.
	ErrCorrupt = errors.New("datafile: corrupt trailer")
	// ErrNotFound is returned by Resolve when no candidate offset's key
	// matches.
	ErrNotFound = errors.New("datafile: key not found")
)
