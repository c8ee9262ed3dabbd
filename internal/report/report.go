// Package report writes and reads ranking result files.
//
// One line per (query, rank): zero-padded query id, document id, 1-based
// rank and score, space separated.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"keysearch/internal/domain"
)

// Write emits results in query order.
func Write(w io.Writer, results []domain.QueryResults) error {
	bw := bufio.NewWriter(w)
	for _, qr := range results {
		for _, r := range qr.Results {
			if _, err := fmt.Fprintf(bw, "%03d %d %d %s\n", qr.QueryID, r.DocumentID, r.Rank, formatScore(r.Score)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteTitled emits `"query text" "document title" rank score` lines.
// queryText maps a query id to its original text.
func WriteTitled(w io.Writer, results []domain.QueryResults, queryText map[uint32]string) error {
	bw := bufio.NewWriter(w)
	for _, qr := range results {
		for _, r := range qr.Results {
			if _, err := fmt.Fprintf(bw, "%q %q %d %s\n", queryText[qr.QueryID], r.Title, r.Rank, formatScore(r.Score)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes to path through a temporary file, so a failed run never
// leaves a partial result file behind. Missing directories are created.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Read parses a file produced by Write. Queries keep the order in which
// they first appear.
func Read(r io.Reader) ([]domain.QueryResults, error) {
	var out []domain.QueryResults
	pos := map[uint32]int{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: want 4 fields, got %d", lineNo, len(fields))
		}
		qid, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: query id: %w", lineNo, err)
		}
		doc, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: document id: %w", lineNo, err)
		}
		rank, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: rank: %w", lineNo, err)
		}
		score, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: score: %w", lineNo, err)
		}
		i, ok := pos[uint32(qid)]
		if !ok {
			i = len(out)
			pos[uint32(qid)] = i
			out = append(out, domain.QueryResults{QueryID: uint32(qid)})
		}
		out[i].Results = append(out[i].Results, domain.RankedResult{
			Rank: rank, DocumentID: uint32(doc), Score: score,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
