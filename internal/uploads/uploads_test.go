package uploads

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hrdesk/internal/clock"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string][2]string{
		"medical note.pdf":       {"medical_note", ".pdf"},
		"../../etc/passwd":       {"passwd", ""},
		`C:\Users\me\scan 1.PNG`: {"scan_1", ".PNG"},
		".hidden":                {"attachment", ".hidden"},
		"":                       {"attachment", ""},
		"résumé final.docx":      {"rsum_final", ".docx"},
	}
	for input, want := range cases {
		base, ext := SanitizeName(input)
		if base != want[0] || ext != want[1] {
			t.Fatalf("SanitizeName(%q) = %q, %q; want %q, %q", input, base, ext, want[0], want[1])
		}
	}
}

func TestSaveServeRemove(t *testing.T) {
	dir := t.TempDir()
	at := time.UnixMilli(1736150400000)
	store, err := New(dir, clock.Fixed(at))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	url, err := store.Save(ctx, "sick note.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/uploads/1736150400000-sick_note.pdf" {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "1736150400000-sick_note.pdf")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	second, err := store.Save(ctx, "sick note.pdf", strings.NewReader("other"))
	if err != nil {
		t.Fatalf("save collision: %v", err)
	}
	if second == url || !strings.HasSuffix(second, ".pdf") {
		t.Fatalf("expected distinct name on collision, got %s", second)
	}

	srv := httptest.NewServer(store.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "%PDF-1.4" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}

	listing, err := http.Get(srv.URL + "/uploads/")
	if err != nil {
		t.Fatalf("get dir: %v", err)
	}
	listing.Body.Close()
	if listing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected directory listing to be hidden, got %d", listing.StatusCode)
	}

	if err := store.Remove(ctx, url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "1736150400000-sick_note.pdf")); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if err := store.Remove(ctx, "/uploads/../secret"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}
