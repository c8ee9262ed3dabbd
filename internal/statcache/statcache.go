// Package statcache persists IDF statistics between runs.
//
// A snapshot is a fixed header (magic, format version, fingerprint of the
// inputs) followed by a zstd-compressed gob stream of the per-document IDF
// vectors, in corpus order.
package statcache

import (
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"keysearch/internal/domain"
	"keysearch/internal/logger"
)

var (
	ErrCacheDecode = errors.New("statistics cache decode failed")
	ErrCacheWrite  = errors.New("statistics cache write failed")
)

const formatVersion uint8 = 1

var magic = [4]byte{'K', 'S', 'I', 'C'}

// Fingerprint identifies the inputs a snapshot was computed from.
type Fingerprint uint64

type header struct {
	Magic       [4]byte
	Version     uint8
	Fingerprint uint64
}

// NewFingerprint hashes the normalization rules and the normalized term
// lists that feed the IDF computation.
func NewFingerprint(rules string, docs [][]string) Fingerprint {
	d := xxhash.New()
	_, _ = d.WriteString(rules)
	_, _ = d.Write([]byte{0x02})
	for _, doc := range docs {
		for _, t := range doc {
			_, _ = d.WriteString(t)
			_, _ = d.Write([]byte{0x00})
		}
		_, _ = d.Write([]byte{0x01})
	}
	return Fingerprint(d.Sum64())
}

// Encode writes a snapshot of vectors to w.
func Encode(w io.Writer, fp Fingerprint, vectors []domain.TermVector) error {
	h := header{Magic: magic, Version: formatVersion, Fingerprint: uint64(fp)}
	if err := binary.Write(w, binary.BigEndian, h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(vectors); err != nil {
		zw.Close()
		return fmt.Errorf("encoding vectors: %w", err)
	}
	return zw.Close()
}

// Decode reads a snapshot written by Encode. Every failure wraps
// ErrCacheDecode.
func Decode(r io.Reader) (Fingerprint, []domain.TermVector, error) {
	fp, err := readHeader(r)
	if err != nil {
		return 0, nil, err
	}
	vectors, err := decodeBody(r)
	if err != nil {
		return 0, nil, err
	}
	return fp, vectors, nil
}

func readHeader(r io.Reader) (Fingerprint, error) {
	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return 0, fmt.Errorf("%w: reading header: %v", ErrCacheDecode, err)
	}
	if h.Magic != magic {
		return 0, fmt.Errorf("%w: bad magic %q", ErrCacheDecode, h.Magic[:])
	}
	if h.Version != formatVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrCacheDecode, h.Version)
	}
	return Fingerprint(h.Fingerprint), nil
}

func decodeBody(r io.Reader) ([]domain.TermVector, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheDecode, err)
	}
	defer zr.Close()
	var vectors []domain.TermVector
	if err := gob.NewDecoder(zr).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheDecode, err)
	}
	return vectors, nil
}

// Cache loads IDF snapshots from disk or computes and stores them.
type Cache struct {
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New() *Cache {
	return &Cache{logger: logger.WithComponent("statcache")}
}

// LoadOrCompute returns the snapshot at path when one exists for fp;
// otherwise it calls compute, stores the result and returns it. An empty
// path disables the cache. A snapshot written for a different fingerprint is
// treated as stale and replaced; a snapshot that cannot be decoded is an
// error.
func (c *Cache) LoadOrCompute(path string, fp Fingerprint, compute func() ([]domain.TermVector, error)) ([]domain.TermVector, bool, error) {
	if path == "" {
		v, err := compute()
		return v, false, err
	}
	vectors, ok, err := c.load(path, fp)
	if err != nil {
		return nil, false, err
	}
	if ok {
		c.hits.Add(1)
		c.logger.Info("cache hit", "path", path, "documents", len(vectors))
		return vectors, true, nil
	}
	c.misses.Add(1)
	vectors, err = compute()
	if err != nil {
		return nil, false, err
	}
	if err := c.store(path, fp, vectors); err != nil {
		return nil, false, err
	}
	c.logger.Info("cache stored", "path", path, "documents", len(vectors))
	return vectors, false, nil
}

// Stats reports hits and misses since creation.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) load(path string, fp Fingerprint) ([]domain.TermVector, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("opening cache %s: %w", path, err)
	}
	defer f.Close()
	got, err := readHeader(f)
	if err != nil {
		return nil, false, fmt.Errorf("cache %s: %w", path, err)
	}
	if got != fp {
		c.logger.Warn("cache stale, recomputing", "path", path,
			"cached_fingerprint", uint64(got), "fingerprint", uint64(fp))
		return nil, false, nil
	}
	vectors, err := decodeBody(f)
	if err != nil {
		return nil, false, fmt.Errorf("cache %s: %w", path, err)
	}
	return vectors, true, nil
}

func (c *Cache) store(path string, fp Fingerprint, vectors []domain.TermVector) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, fp, vectors); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}
