package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bananalab/internal/blob"
	"bananalab/internal/filters"
	"bananalab/internal/page"
	"bananalab/internal/startup"
	"bananalab/internal/store"
	"bananalab/internal/thumbnail"
)

func solidPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func testConfig(t *testing.T) *startup.Config {
	t.Helper()
	dir := t.TempDir()
	return &startup.Config{
		OutputDir:             filepath.Join(dir, "out"),
		AssetTimeout:          time.Second,
		AssetCacheCeiling:     20,
		AssetCacheFloor:       10,
		ThumbnailCacheEntries: 16,
		PreloadBatchSize:      5,
		BlobCacheEntries:      8,
		JPEGQuality:           85,
		OutputFormat:          thumbnail.FormatPNG,
		FilterStrategy:        filters.StrategyPixel,
	}
}

func newTestApp(t *testing.T, cfg *startup.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// writeDocument writes red.png next to a document holding one page with a
// relative image, an inline image and a remote reference.
func writeDocument(t *testing.T, dir, id string) string {
	t.Helper()
	red := solidPNG(t, color.NRGBA{R: 255, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "red.png"), red, 0o644); err != nil {
		t.Fatal(err)
	}
	inline := "data:image/png;base64," + base64.StdEncoding.EncodeToString(solidPNG(t, color.NRGBA{B: 255, A: 255}))
	doc := `{"id":"` + id + `","type":"content","backgroundColor":"#ffffff","cells":[
		{"id":"c1","elements":[{"id":"e1","type":"image","content":"red.png"}]},
		{"id":"c2","elements":[{"id":"e2","type":"image","content":"` + inline + `"}]},
		{"id":"c3","elements":[{"id":"e3","type":"text","content":"hello"}]}
	]}`
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDocumentPreparesReferences(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	dir := t.TempDir()
	path := writeDocument(t, dir, "")

	pages, err := a.LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	p := pages[0]
	if p.ID != "doc-1" {
		t.Errorf("ID = %q, want doc-1", p.ID)
	}
	if got, want := p.Cells[0].Elements[0].Content, filepath.Join(dir, "red.png"); got != want {
		t.Errorf("relative ref = %q, want %q", got, want)
	}
	handle := p.Cells[1].Elements[0].Content
	if !strings.HasPrefix(handle, blob.Prefix) {
		t.Fatalf("inline ref = %q, want a blob handle", handle)
	}
	if got := p.Cells[2].Elements[0].Content; got != "hello" {
		t.Errorf("text content = %q", got)
	}

	again, err := a.LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if got := again[0].Cells[1].Elements[0].Content; got != handle {
		t.Errorf("reload handle = %q, want %q", got, handle)
	}
	if page.Fingerprint(again[0]) != page.Fingerprint(p) {
		t.Error("fingerprint changed across reloads of an unchanged document")
	}
	if got := a.blobs.Len(); got != 1 {
		t.Errorf("blob handles = %d, want 1", got)
	}
}

func TestProcessDocument(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "thumbs.db")
	a := newTestApp(t, cfg)
	path := writeDocument(t, t.TempDir(), "p1")

	var messages []string
	res, err := a.ProcessDocument(context.Background(), path, image.Pt(60, 60), func(p thumbnail.Progress) {
		messages = append(messages, p.Message)
	})
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if res.Pages != 1 || res.Placeholders != 0 {
		t.Errorf("result = %+v, want 1 page and no placeholders", res)
	}
	if len(messages) == 0 {
		t.Error("no progress reported")
	}

	want := filepath.Join(cfg.OutputDir, "p1.png")
	if len(res.Files) != 1 || res.Files[0] != want {
		t.Fatalf("files = %v, want [%s]", res.Files, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}

	s, err := store.Open(context.Background(), cfg.DatabasePath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()
	enc, err := s.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if !bytes.Equal(enc.Data, data) {
		t.Error("stored thumbnail differs from the written file")
	}
}

func TestForgetReleasesDocument(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := writeDocument(t, t.TempDir(), "p1")

	if _, err := a.ProcessDocument(context.Background(), path, image.Pt(40, 40), nil); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if a.thumbs.Len() != 1 || a.blobs.Len() != 1 {
		t.Fatalf("before Forget: thumbs=%d blobs=%d", a.thumbs.Len(), a.blobs.Len())
	}

	a.Forget(path)
	if a.thumbs.Len() != 0 {
		t.Errorf("thumbs = %d after Forget, want 0", a.thumbs.Len())
	}
	if a.blobs.Len() != 0 {
		t.Errorf("blobs = %d after Forget, want 0", a.blobs.Len())
	}
}

func TestRenamedPageIsInvalidated(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	dir := t.TempDir()
	path := writeDocument(t, dir, "old")
	if _, err := a.ProcessDocument(context.Background(), path, image.Pt(40, 40), nil); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	writeDocument(t, dir, "new")
	if _, err := a.LoadDocument(path); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if got := a.thumbs.Invalidate("old"); got != 0 {
		t.Errorf("thumbnail of dropped page still cached (%d entries)", got)
	}
}

func TestDocumentPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "p1")
	if err := os.WriteFile(filepath.Join(dir, ".hidden.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DocumentPaths(path)
	if err != nil || len(got) != 1 || got[0] != path {
		t.Errorf("DocumentPaths(file) = %v, %v", got, err)
	}
	got, err = DocumentPaths(dir)
	if err != nil || len(got) != 1 || got[0] != path {
		t.Errorf("DocumentPaths(dir) = %v, %v", got, err)
	}
	if _, err := DocumentPaths(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		id   string
		f    thumbnail.Format
		want string
	}{
		{"page-1", thumbnail.FormatJPEG, "page-1.jpg"},
		{"a/b c", thumbnail.FormatPNG, "a_b_c.png"},
		{"../etc", thumbnail.FormatPNG, "_etc.png"},
		{"", thumbnail.FormatPNG, "page.png"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.id, tt.f); got != tt.want {
			t.Errorf("OutputName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestCancelledProcessKeepsExistingOutput(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	path := writeDocument(t, t.TempDir(), "p1")

	if _, err := a.ProcessDocument(context.Background(), path, image.Pt(40, 40), nil); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	out := filepath.Join(cfg.OutputDir, "p1.png")
	good, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.ProcessDocument(ctx, path, image.Pt(60, 60), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	after, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(good, after) {
		t.Error("cancelled run overwrote the existing thumbnail")
	}
}

func TestDuplicatePageIDsAreRenamed(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := filepath.Join(t.TempDir(), "dups.json")
	doc := `[{"id":"p","cells":[]},{"id":"p","cells":[]},{"id":"p","cells":[]}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	pages, err := a.LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	var ids []string
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	if got := strings.Join(ids, ","); got != "p,p-2,p-3" {
		t.Errorf("ids = %s, want p,p-2,p-3", got)
	}
}
