package statcache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"keysearch/internal/domain"
)

func sampleVectors() []domain.TermVector {
	return []domain.TermVector{
		{"cat": 0.4054651081081644, "dog": 0.4054651081081644},
		{"dog": 0.4054651081081644, "bird": 0.4054651081081644},
		{"cat": 0.1, "bird": 0},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := sampleVectors()
	if err := Encode(&buf, 42, want); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	fp, got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if fp != 42 {
		t.Errorf("fingerprint = %d, want 42", fp)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %v, want %v", got, want)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":       {},
		"bad magic":   []byte("NOPE\x01\x00\x00\x00\x00\x00\x00\x00\x00"),
		"bad body":    append([]byte("KSIC\x01\x00\x00\x00\x00\x00\x00\x00\x07"), []byte("not zstd")...),
		"bad version": []byte("KSIC\x09\x00\x00\x00\x00\x00\x00\x00\x00"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(data))
			if !errors.Is(err, ErrCacheDecode) {
				t.Errorf("Decode() error = %v, want ErrCacheDecode", err)
			}
		})
	}
}

func TestNewFingerprint(t *testing.T) {
	docs := [][]string{{"cat", "dog"}, {"bird"}}
	a := NewFingerprint("rules", docs)
	if a != NewFingerprint("rules", [][]string{{"cat", "dog"}, {"bird"}}) {
		t.Error("fingerprint not stable for equal input")
	}
	if a == NewFingerprint("other rules", docs) {
		t.Error("fingerprint ignores rules")
	}
	if a == NewFingerprint("rules", [][]string{{"cat"}, {"dog", "bird"}}) {
		t.Error("fingerprint ignores document boundaries")
	}
}

func TestLoadOrComputeStoresThenLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "idf.bin")
	c := New()
	calls := 0
	compute := func() ([]domain.TermVector, error) {
		calls++
		return sampleVectors(), nil
	}

	first, hit, err := c.LoadOrCompute(path, 7, compute)
	if err != nil {
		t.Fatalf("first LoadOrCompute() error: %v", err)
	}
	if hit {
		t.Error("first call reported a cache hit")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	second, hit, err := c.LoadOrCompute(path, 7, compute)
	if err != nil {
		t.Fatalf("second LoadOrCompute() error: %v", err)
	}
	if !hit {
		t.Error("second call missed the cache")
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached vectors differ: %v vs %v", first, second)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses, want 1, 1", hits, misses)
	}
}

func TestLoadOrComputeReplacesStaleSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idf.bin")
	c := New()
	old := func() ([]domain.TermVector, error) {
		return []domain.TermVector{{"old": 1}}, nil
	}
	if _, _, err := c.LoadOrCompute(path, 1, old); err != nil {
		t.Fatal(err)
	}
	fresh := func() ([]domain.TermVector, error) {
		return []domain.TermVector{{"new": 2}}, nil
	}
	got, hit, err := c.LoadOrCompute(path, 2, fresh)
	if err != nil {
		t.Fatalf("LoadOrCompute() error: %v", err)
	}
	if hit {
		t.Error("stale snapshot reported as hit")
	}
	if _, ok := got[0]["new"]; !ok {
		t.Errorf("got %v, want recomputed vectors", got)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	fp, _, err := Decode(f)
	if err != nil || fp != 2 {
		t.Errorf("rewritten snapshot fingerprint = %d, %v; want 2", fp, err)
	}
}

func TestLoadOrComputeCorruptSnapshotIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idf.bin")
	if err := os.WriteFile(path, []byte("garbage that is long enough"), 0o644); err != nil {
		t.Fatal(err)
	}
	called := false
	_, _, err := New().LoadOrCompute(path, 1, func() ([]domain.TermVector, error) {
		called = true
		return nil, nil
	})
	if !errors.Is(err, ErrCacheDecode) {
		t.Errorf("error = %v, want ErrCacheDecode", err)
	}
	if called {
		t.Error("compute ran after a decode failure")
	}
}

func TestLoadOrComputeUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(blocker, "idf.bin")
	_, _, err := New().LoadOrCompute(path, 1, func() ([]domain.TermVector, error) {
		return sampleVectors(), nil
	})
	if err == nil {
		t.Fatal("expected error writing below a regular file")
	}
}

func TestLoadOrComputeDisabled(t *testing.T) {
	called := false
	_, hit, err := New().LoadOrCompute("", 1, func() ([]domain.TermVector, error) {
		called = true
		return sampleVectors(), nil
	})
	if err != nil || hit || !called {
		t.Errorf("disabled cache: hit=%v called=%v err=%v", hit, called, err)
	}
}

func TestLoadOrComputePropagatesComputeError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := New().LoadOrCompute(filepath.Join(t.TempDir(), "x.bin"), 1, func() ([]domain.TermVector, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}
