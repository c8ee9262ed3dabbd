package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"keysearch/internal/domain"
)

type fakeService struct {
	calls []string
}

func (f *fakeService) Search(_ context.Context, text string) ([]domain.RankedResult, error) {
	f.calls = append(f.calls, text)
	switch text {
	case "the":
		return nil, domain.ErrEmptyQuery
	case "boom":
		return nil, errors.New("index unavailable")
	case "zebra":
		return nil, nil
	}
	return []domain.RankedResult{
		{Rank: 1, DocumentID: 12, Title: "Shock waves in nozzles", Score: 0.75},
		{Rank: 2, DocumentID: 4, Title: "Heat transfer", Score: 0.5},
	}, nil
}

func TestRunPlain(t *testing.T) {
	svc := &fakeService{}
	in := strings.NewReader("shock nozzle\n\nthe\nboom\nzebra\nquit\nnever read\n")
	var out bytes.Buffer
	if err := RunPlain(context.Background(), svc, in, &out); err != nil {
		t.Fatalf("RunPlain() error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"1. Shock waves in nozzles - 0.75\n",
		"2. Heat transfer - 0.5\n",
		"no searchable terms in query\n",
		"error: index unavailable\n",
		"no results\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if len(svc.calls) != 4 {
		t.Errorf("Search called %d times, want 4 (blank lines skipped, stop at quit): %v", len(svc.calls), svc.calls)
	}
}

func TestRunPlainStopsAtEOF(t *testing.T) {
	svc := &fakeService{}
	var out bytes.Buffer
	if err := RunPlain(context.Background(), svc, strings.NewReader("shock"), &out); err != nil {
		t.Fatalf("RunPlain() error: %v", err)
	}
	if len(svc.calls) != 1 {
		t.Errorf("calls = %v", svc.calls)
	}
}

func TestRunPlainStopsWhenContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	errc := make(chan error, 1)
	go func() { errc <- RunPlain(ctx, &fakeService{}, pr, &out) }()

	if _, err := io.WriteString(pw, "shock\n"); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunPlain() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunPlain still waiting for input after cancel")
	}
}

func TestRunPlainCancelledBeforeInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := &fakeService{}
	var out bytes.Buffer
	if err := RunPlain(ctx, svc, pr, &out); !errors.Is(err, context.Canceled) {
		t.Errorf("RunPlain() error = %v, want context.Canceled", err)
	}
	if len(svc.calls) != 0 {
		t.Errorf("searched after cancel: %v", svc.calls)
	}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func press(m Model, k tea.KeyType) Model {
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(Model)
}

func TestModelSearchAndNavigate(t *testing.T) {
	svc := &fakeService{}
	m := sized(t, New(context.Background(), svc, "2 documents"))
	if !strings.Contains(m.View(), "No results yet.") {
		t.Error("initial view should have no results")
	}

	m.input.SetValue("shock")
	m = press(m, tea.KeyEnter)
	if len(m.results) != 2 || m.cursor != 0 {
		t.Fatalf("results = %+v, cursor = %d", m.results, m.cursor)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if !strings.Contains(m.status, "Top 2") {
		t.Errorf("status = %q", m.status)
	}

	m = press(m, tea.KeyDown)
	if m.cursor != 1 {
		t.Errorf("cursor after down = %d", m.cursor)
	}
	m = press(m, tea.KeyDown)
	if m.cursor != 0 {
		t.Errorf("cursor should wrap to 0, got %d", m.cursor)
	}
	m = press(m, tea.KeyUp)
	if m.cursor != 1 {
		t.Errorf("cursor after up = %d", m.cursor)
	}
	if !strings.Contains(m.renderResults(), "Heat transfer") {
		t.Errorf("render = %q", m.renderResults())
	}
}

func TestModelEmptyQueryAndError(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeService{}, ""))
	m.input.SetValue("the")
	m = press(m, tea.KeyEnter)
	if m.results != nil || !strings.Contains(m.status, "Nothing to search") {
		t.Errorf("status = %q, results = %v", m.status, m.results)
	}
	m.input.SetValue("boom")
	m = press(m, tea.KeyEnter)
	if !strings.HasPrefix(m.status, "Error:") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModelBlankEnterDoesNotSearch(t *testing.T) {
	svc := &fakeService{}
	m := sized(t, New(context.Background(), svc, ""))
	m.input.SetValue("   ")
	_ = press(m, tea.KeyEnter)
	if len(svc.calls) != 0 {
		t.Errorf("blank input searched: %v", svc.calls)
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := New(context.Background(), &fakeService{}, "")
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		if cmd == nil {
			t.Fatalf("key %v returned no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %v did not quit", k)
		}
	}
}

func TestHighlightTermsKeepsTitleText(t *testing.T) {
	query := toTokenSet("Shock flow")
	got := highlightTerms("Shock waves", query)
	if !strings.Contains(got, "Shock") || !strings.Contains(got, "waves") {
		t.Errorf("highlightTerms() = %q", got)
	}
	if highlightTerms("Heat", map[string]struct{}{}) != "Heat" {
		t.Error("empty query should leave title unchanged")
	}
}
