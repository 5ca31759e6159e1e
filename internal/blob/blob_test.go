package blob

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

const pngURI = "data:image/png;base64,iVBORw0KGgo="

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantMIME string
		wantData []byte
		wantErr  bool
	}{
		{"base64", "data:text/plain;base64,aGVsbG8=", "text/plain", []byte("hello"), false},
		{"unpadded base64", "data:text/plain;base64,aGVsbG8", "text/plain", []byte("hello"), false},
		{"percent encoded", "data:,a%20b", defaultMIME, []byte("a b"), false},
		{"uppercase scheme", "DATA:image/gif;base64,R0lG", "image/gif", []byte("GIF"), false},
		{"missing comma", "data:image/png;base64", "", nil, true},
		{"not a data uri", "https://example.com/a.png", "", nil, true},
		{"bad base64", "data:image/png;base64,!!!", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, data, err := ParseDataURI(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDataURI) {
					t.Fatalf("err = %v, want ErrInvalidDataURI", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataURI: %v", err)
			}
			if mime != tt.wantMIME || !bytes.Equal(data, tt.wantData) {
				t.Errorf("got (%q, %q), want (%q, %q)", mime, data, tt.wantMIME, tt.wantData)
			}
		})
	}
}

func TestEncodeDataURIRoundTrip(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0x00, 0x10}
	mime, data, err := ParseDataURI(EncodeDataURI("image/jpeg", payload))
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if mime != "image/jpeg" || !bytes.Equal(data, payload) {
		t.Errorf("round trip = (%q, %v)", mime, data)
	}
}

func TestToHandleIdempotentWithKey(t *testing.T) {
	r := NewRegistry(4)

	h1, err := r.ToHandle(pngURI, "cover")
	if err != nil {
		t.Fatalf("ToHandle: %v", err)
	}
	h2, err := r.ToHandle(pngURI, "cover")
	if err != nil {
		t.Fatalf("ToHandle: %v", err)
	}
	if h1 != h2 {
		t.Errorf("handles differ: %s vs %s", h1, h2)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if !IsHandle(h1) {
		t.Errorf("%q is not a handle", h1)
	}
}

func TestToHandlePassesHandlesThrough(t *testing.T) {
	r := NewRegistry(4)
	h, err := r.ToHandle(pngURI, "")
	if err != nil {
		t.Fatalf("ToHandle: %v", err)
	}
	again, err := r.ToHandle(h, "other")
	if err != nil || again != h {
		t.Errorf("ToHandle(handle) = (%q, %v), want %q", again, err, h)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestToHandleWithoutKeyIssuesNewHandles(t *testing.T) {
	r := NewRegistry(4)
	h1, _ := r.ToHandle(pngURI, "")
	h2, _ := r.ToHandle(pngURI, "")
	if h1 == h2 {
		t.Error("unkeyed conversions shared a handle")
	}
}

func TestKeyReuseRevokesPrevious(t *testing.T) {
	r := NewRegistry(4)
	old, _ := r.ToHandle(pngURI, "slot")
	replacement, err := r.ToHandle("data:text/plain;base64,aGVsbG8=", "slot")
	if err != nil {
		t.Fatalf("ToHandle: %v", err)
	}
	if old == replacement {
		t.Fatal("new source reused the old handle")
	}
	if _, ok := r.Resolve(old); ok {
		t.Error("old handle still resolves")
	}
	obj, ok := r.Resolve(replacement)
	if !ok || string(obj.Data) != "hello" || obj.MIME != "text/plain" {
		t.Errorf("Resolve = (%+v, %v)", obj, ok)
	}
}

func TestReleaseTwiceIsNoop(t *testing.T) {
	r := NewRegistry(4)
	h, _ := r.ToHandle(pngURI, "k")

	r.Release("k")
	if _, ok := r.Resolve(h); ok {
		t.Fatal("handle resolves after Release")
	}
	r.Release("k")
	r.Release("never-issued")
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRevokeExactlyOnce(t *testing.T) {
	r := NewRegistry(4)
	h, _ := r.ToHandle(pngURI, "")
	if !r.Revoke(h) {
		t.Fatal("first Revoke reported false")
	}
	if r.Revoke(h) {
		t.Error("second Revoke reported true")
	}
}

func TestEvictionRevokes(t *testing.T) {
	r := NewRegistry(2)
	first, _ := r.ToHandle(pngURI, "a")
	r.ToHandle(pngURI, "b")
	r.ToHandle(pngURI, "c")

	if _, ok := r.Resolve(first); ok {
		t.Error("evicted handle still resolves")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestReleaseAll(t *testing.T) {
	r := NewRegistry(4)
	keyed, _ := r.ToHandle(pngURI, "a")
	loose, _ := r.ToHandle(pngURI, "")

	r.ReleaseAll()
	r.ReleaseAll()
	for _, h := range []string{keyed, loose} {
		if _, ok := r.Resolve(h); ok {
			t.Errorf("%s still resolves", h)
		}
	}

	// the registry stays usable
	h, err := r.ToHandle(pngURI, "a")
	if err != nil || h == keyed {
		t.Errorf("ToHandle after ReleaseAll = (%q, %v)", h, err)
	}
}

func TestToHandleRejectsInvalid(t *testing.T) {
	r := NewRegistry(4)
	if _, err := r.ToHandle("not-a-uri", "k"); !errors.Is(err, ErrInvalidDataURI) {
		t.Errorf("err = %v, want ErrInvalidDataURI", err)
	}
}

func TestConcurrentToHandleSameKey(t *testing.T) {
	r := NewRegistry(4)
	const callers = 16
	handles := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := r.ToHandle(pngURI, "cover")
			if err != nil {
				t.Errorf("ToHandle: %v", err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for i, h := range handles {
		if _, ok := r.Resolve(h); !ok {
			t.Errorf("caller %d got revoked handle %s", i, h)
		}
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1 live handle", r.Len())
	}
}
