package extract

import (
	"context"
	"sync"
)

// callLog counts collaborator invocations across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type fakeTextLayer struct {
	log   *callLog
	text  string
	pages int
	err   error
}

func (f *fakeTextLayer) ReadText(_ context.Context, _ []byte, onPage func(PageProgress)) (string, error) {
	f.log.add("text-layer")
	if f.err != nil {
		return "", f.err
	}
	for i := 1; i <= f.pages; i++ {
		onPage(PageProgress{CurrentPage: i, TotalPages: f.pages})
	}
	return f.text, nil
}

type fakeRasterizer struct {
	log      *callLog
	pages    int
	err      error
	gotScale float64
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte, scale float64, onPage func(PageProgress)) ([]Image, error) {
	f.log.add("rasterize")
	f.gotScale = scale
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Image, 0, f.pages)
	for i := 1; i <= f.pages; i++ {
		onPage(PageProgress{CurrentPage: i, TotalPages: f.pages})
		out = append(out, Image{Data: []byte{byte(i)}, MediaType: "image/png"})
	}
	return out, nil
}

type fakeOCR struct {
	log       *callLog
	text      string
	err       error
	fractions []float64
	seen      []Image
}

func (f *fakeOCR) Recognize(_ context.Context, img Image, onProgress func(OCRProgress)) (string, error) {
	f.log.add("ocr")
	f.seen = append(f.seen, img)
	for _, fr := range f.fractions {
		onProgress(OCRProgress{Stage: "recognizing text", Fraction: fr})
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type progressRecorder struct {
	events []Progress
}

func (r *progressRecorder) record(p Progress) { r.events = append(r.events, p) }

func (r *progressRecorder) percents() []int {
	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Percent
	}
	return out
}
