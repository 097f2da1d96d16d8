package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadDocumentSniffsContent(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "slip.bin")
	writeFile(t, pdfPath, []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"))
	pngPath := filepath.Join(dir, "photo")
	writeFile(t, pngPath, pngHeader)

	doc, err := LoadDocument(pdfPath, 0)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.MediaType)
	assert.Equal(t, "slip.bin", doc.Filename)

	doc, err = LoadDocument(pngPath, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.MediaType)
}

func TestLoadDocumentTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.pdf")
	writeFile(t, path, make([]byte, 64))

	_, err := LoadDocument(path, 32)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestFromBytesKeepsUsableDeclaredType(t *testing.T) {
	doc := FromBytes(pngHeader, "image/jpeg", "x.jpg")
	assert.Equal(t, "image/jpeg", doc.MediaType)

	doc = FromBytes(pngHeader, "application/octet-stream", "upload")
	assert.Equal(t, "image/png", doc.MediaType)

	doc = FromBytes([]byte("hello"), "text/plain", "notes.txt")
	assert.Equal(t, "text/plain", doc.MediaType, "unsupported input stays unsupported")
}

// countingTools stands in for all three collaborators and counts calls.
type countingTools struct{ calls int }

func (c *countingTools) ReadText(context.Context, []byte, func(extract.PageProgress)) (string, error) {
	c.calls++
	return "", nil
}

func (c *countingTools) Rasterize(context.Context, []byte, float64, func(extract.PageProgress)) ([]extract.Image, error) {
	c.calls++
	return nil, nil
}

func (c *countingTools) Recognize(context.Context, extract.Image, func(extract.OCRProgress)) (string, error) {
	c.calls++
	return "AAPL Kjøp 10 150,50 kr", nil
}

func TestFromBytesDeclaredZipIsRejectedEvenWithImageBytes(t *testing.T) {
	doc := FromBytes(pngHeader, "application/zip", "slip.zip")
	assert.Equal(t, "application/zip", doc.MediaType)

	tools := &countingTools{}
	orch := extract.NewOrchestrator(tools, tools, tools)
	_, err := orch.Extract(context.Background(), doc, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrUnsupportedMediaType))
	assert.Zero(t, tools.calls)
}

func TestFromBytesSniffsGenericUploads(t *testing.T) {
	for _, declared := range []string{"", "application/octet-stream", "Application/Octet-Stream; name=x"} {
		doc := FromBytes(pngHeader, declared, "upload")
		assert.Equal(t, "image/png", doc.MediaType, declared)
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), []byte("x"))
	writeFile(t, filepath.Join(root, "nested", "b.JPG"), []byte("x"))
	writeFile(t, filepath.Join(root, "nested", "c.heic"), []byte("x"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("x"))
	writeFile(t, filepath.Join(root, ".hidden", "d.png"), []byte("x"))
	writeFile(t, filepath.Join(root, ".e.png"), []byte("x"))

	paths, stats, err := ScanDirectory(context.Background(), root, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.pdf"),
		filepath.Join(root, "nested", "b.JPG"),
		filepath.Join(root, "nested", "c.heic"),
	}, paths)
	assert.Equal(t, uint32(3), stats.Matched)

	paths, _, err = ScanDirectory(context.Background(), root, false)
	require.NoError(t, err)
	assert.Len(t, paths, 5)
}

func TestScanDirectoryRequiresRoot(t *testing.T) {
	_, _, err := ScanDirectory(context.Background(), "  ", false)
	assert.Error(t, err)
}

func TestWatcherEmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "existing.pdf"), receive(t, events))

	writeFile(t, filepath.Join(root, "ignored.txt"), []byte("x"))
	writeFile(t, filepath.Join(root, "new.png"), []byte("x"))
	assert.Equal(t, filepath.Join(root, "new.png"), receive(t, events))

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestDebouncerCoalesces(t *testing.T) {
	out := make(chan string, 4)
	d := newDebouncer(out, 30*time.Millisecond, nil)

	d.add("a.pdf")
	d.add("a.pdf")
	d.add("a.pdf")

	assert.Equal(t, "a.pdf", <-out)
	select {
	case p := <-out:
		t.Fatalf("unexpected second event %q", p)
	case <-time.After(60 * time.Millisecond):
	}

	d.stop()
	d.add("b.pdf")
	assert.Empty(t, out)
}

// syncBuffer is a log sink safe for the debouncer's timer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDebouncerRetriesWhenConsumerIsFull(t *testing.T) {
	var logs syncBuffer
	out := make(chan string, 1)
	d := newDebouncer(out, 0, slog.New(slog.NewTextHandler(&logs, nil)))
	defer d.stop()

	d.add("first.pdf")
	d.add("second.pdf")

	assert.Contains(t, logs.String(), "path=second.pdf")
	assert.Equal(t, "first.pdf", <-out)
	assert.Equal(t, "second.pdf", receive(t, out))
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}
