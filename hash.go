// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package humming

import (
	"github.com/dgryski/go-farm"

	"github.com/adam-szymanski/Humming/internal/unsafestring"
)

// Hash returns the 64-bit hash a Bucket sorts and indexes records
// by. Every DataFile in a bucket's lifetime MUST be built and read
// with this same function.
func Hash(key []byte) uint64 {
	return farm.Hash64(key)
}

// HashString hashes key without allocating a []byte copy.
func HashString(key string) uint64 {
	return farm.Hash64(unsafestring.ToBytes(key))
}
