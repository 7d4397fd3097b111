package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/core"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.pdf", "A.PDF", "notes.txt", ".hidden.pdf"} {
		touch(t, filepath.Join(dir, n))
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "nested", "c.pdf"))

	files, stats, err := ListPDFs(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "A.PDF"), filepath.Join(dir, "b.pdf")}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files = %v, want %v", files, want)
	}
	if stats.Scanned != 5 || stats.Matched != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

type recordingRunner struct {
	mu   sync.Mutex
	seen []string
	fail string
}

func (r *recordingRunner) ProcessFile(_ context.Context, path string) (core.Summary, error) {
	r.mu.Lock()
	r.seen = append(r.seen, path)
	r.mu.Unlock()
	if filepath.Base(path) == r.fail {
		return core.Summary{Source: path}, errors.New("broken scan")
	}
	return core.Summary{Source: path}, nil
}

func TestBatchSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "one.pdf")
	touch(t, src)
	r := &recordingRunner{}

	res, stats, err := NewBatch(r, 1, nil).Run(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || stats.Succeeded != 1 || r.seen[0] != src {
		t.Fatalf("res=%+v stats=%+v", res, stats)
	}
}

func TestBatchDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf", "skip.txt"} {
		touch(t, filepath.Join(dir, n))
	}
	r := &recordingRunner{}

	_, stats, err := NewBatch(r, 3, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(r.seen)
	if len(r.seen) != 3 || filepath.Base(r.seen[2]) != "c.pdf" {
		t.Fatalf("seen = %v", r.seen)
	}
	if stats.Succeeded != 3 || stats.Matched != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestBatchFirstErrorStopsSequentialRun(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		touch(t, filepath.Join(dir, n))
	}
	r := &recordingRunner{fail: "a.pdf"}

	res, stats, err := NewBatch(r, 1, nil).Run(context.Background(), dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if stats.Failed != 1 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if res[0].Err == nil || !res[1].Skipped || !res[2].Skipped {
		t.Fatalf("results = %+v", res)
	}
}

func TestBatchInvalidPath(t *testing.T) {
	_, _, err := NewBatch(&recordingRunner{}, 1, nil).Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, common.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestBatchRejectsNonPDFFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.txt")
	touch(t, src)
	r := &recordingRunner{}

	_, _, err := NewBatch(r, 1, nil).Run(context.Background(), src)
	if !errors.Is(err, common.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
	if len(r.seen) != 0 {
		t.Fatalf("runner called for %v", r.seen)
	}
}

// slowRunner fails fail.pdf once ok.pdf is running, and holds ok.pdf until
// after the failure.
type slowRunner struct {
	started chan struct{}
	failed  chan struct{}
}

func (r *slowRunner) ProcessFile(ctx context.Context, path string) (core.Summary, error) {
	if filepath.Base(path) == "fail.pdf" {
		<-r.started
		close(r.failed)
		return core.Summary{Source: path}, errors.New("broken scan")
	}
	close(r.started)
	<-r.failed
	time.Sleep(50 * time.Millisecond)
	if err := ctx.Err(); err != nil {
		return core.Summary{Source: path}, err
	}
	return core.Summary{Source: path}, nil
}

func TestBatchFailureLeavesRunningSessionsAlone(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "fail.pdf"))
	touch(t, filepath.Join(dir, "ok.pdf"))
	r := &slowRunner{started: make(chan struct{}), failed: make(chan struct{})}

	res, stats, err := NewBatch(r, 2, nil).Run(context.Background(), dir)
	if err == nil {
		t.Fatal("expected the failure to be reported")
	}
	if stats.Failed != 1 || stats.Succeeded != 1 || stats.Skipped != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, fr := range res {
		if filepath.Base(fr.Path) == "ok.pdf" && (fr.Err != nil || fr.Skipped) {
			t.Fatalf("ok.pdf = %+v", fr)
		}
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestWatcherEmitsNewPDFs(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.pdf")
	touch(t, existing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Root: dir, InitialScan: true, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if got := receive(t, events); got != existing {
		t.Fatalf("initial scan emitted %s", got)
	}

	touch(t, filepath.Join(dir, "ignored.txt"))
	fresh := filepath.Join(dir, "new.pdf")
	touch(t, fresh)
	if got := receive(t, events); got != fresh {
		t.Fatalf("got %s, want %s", got, fresh)
	}

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoot(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Fatal("expected error")
	}
}
