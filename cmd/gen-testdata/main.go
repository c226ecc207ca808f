// gen-testdata populates a bucket directory with randomly generated
// key/value pairs, for exercising Humming under something closer to
// production-sized data than the unit tests use.
package main

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	humming "github.com/adam-szymanski/Humming"
)

const (
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

func main() {
	dir := flag.String("dir", "testdata.bucket", "bucket directory to populate")
	nPairs := flag.Int("pairs", 1000000, "number of key/value pairs to insert")
	batchSize := flag.Int("batch", 50000, "pairs per Insert call, i.e. per data file")
	directIO := flag.Bool("direct-io", false, "open the bucket with O_DIRECT")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	b, err := humming.Open(*dir, humming.WithLogger(logger), humming.WithDirectIO(*directIO))
	if err != nil {
		logger.Error("open bucket", "err", err)
		os.Exit(1)
	}
	defer b.Close()

	rng := newRand()
	h := hmac.New(sha256.New, []byte(hmacKey))

	batch := make([]humming.KV, 0, *batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := b.Insert(batch); err != nil {
			logger.Error("insert batch", "err", err)
			os.Exit(1)
		}
		batch = batch[:0]
	}

	for i := 0; i < *nPairs; i++ {
		var buf [suffixLen / 2]byte
		if _, err := rng.Read(buf[:]); err != nil {
			panic(err)
		}
		value := fmt.Sprintf("%s%x", prefix, buf)
		h.Reset()
		h.Write([]byte(value))
		key := hex.EncodeToString(h.Sum(nil))

		batch = append(batch, humming.KV{Key: []byte(key), Value: []byte(value)})
		if len(batch) == *batchSize {
			flush()
		}
	}
	flush()

	logger.Info("generated testdata", "dir", *dir, "pairs", *nPairs)
}
