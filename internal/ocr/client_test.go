package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecognizeForwardsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ocr" {
			t.Errorf("path = %q, want /api/ocr", r.URL.Path)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "receipt.png" {
			t.Errorf("filename = %q, want receipt.png", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"milk"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Recognize(context.Background(), "receipt.png", strings.NewReader("fake-image"))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
	if string(res.Body) != `{"text":"milk"}` {
		t.Errorf("body = %s", res.Body)
	}
}

func TestPreviewRelaysStatusAndContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/preprocess" {
			t.Errorf("path = %q, want /api/preprocess", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Preview(context.Background(), "receipt.png", strings.NewReader("fake-image"))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if res.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", res.ContentType)
	}
	if string(res.Body) != "png-bytes" {
		t.Errorf("body = %s", res.Body)
	}
}

func TestUnreachableServer(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.Recognize(context.Background(), "x.png", strings.NewReader("x")); err == nil {
		t.Error("expected error contacting unreachable server")
	}
}
