package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"keysearch/internal/domain"
)

// RunPlain reads one query per line from in and prints the ranked titles
// to out, for terminals where the full screen UI is unwanted. It stops at
// EOF, on a line reading "exit" or "quit", or when ctx is done, in which
// case it returns ctx.Err().
//
// Lines are read on a separate goroutine so a cancelled ctx is noticed
// while the prompt waits. That goroutine stays blocked in in.Read until in
// yields data or is closed.
func RunPlain(ctx context.Context, service domain.SearchService, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	w := bufio.NewWriter(out)
	stop := func(err error) error {
		fmt.Fprintln(w)
		if ferr := w.Flush(); ferr != nil {
			return ferr
		}
		return err
	}
	for {
		fmt.Fprint(w, "query> ")
		if err := w.Flush(); err != nil {
			return err
		}
		var line string
		select {
		case <-ctx.Done():
			return stop(ctx.Err())
		case l, ok := <-lines:
			if !ok {
				return stop(<-scanErr)
			}
			line = l
		}
		q := strings.TrimSpace(line)
		switch q {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		res, err := service.Search(ctx, q)
		if cerr := ctx.Err(); cerr != nil {
			return stop(cerr)
		}
		switch {
		case errors.Is(err, domain.ErrEmptyQuery):
			fmt.Fprintln(w, "no searchable terms in query")
		case err != nil:
			fmt.Fprintf(w, "error: %v\n", err)
		case len(res) == 0:
			fmt.Fprintln(w, "no results")
		default:
			for _, r := range res {
				fmt.Fprintf(w, "%d. %s - %s\n", r.Rank, r.Title, strconv.FormatFloat(r.Score, 'f', -1, 64))
			}
		}
	}
}
