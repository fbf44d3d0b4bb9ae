package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aouyang1/pptmaker/api/models"
	"github.com/aouyang1/pptmaker/outline"
)

const outlineBody = `{
  "status": "success",
  "outline": {
    "presentation_title": "Go Concurrency",
    "slides": [
      {"slide_number": 1, "type": "title", "title": "Go Concurrency", "subtitle": "Goroutines"},
      {"slide_number": 2, "type": "content", "title": "Channels", "bullet_points": ["send", "receive"]}
    ]
  },
  "metadata": {"topic": "go", "requested_slides": 2, "generated_slides": 2}
}`

func newServer(t *testing.T, h http.HandlerFunc) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewBackendClient(srv.URL, "", 0)
}

func TestRequestOutline_Success(t *testing.T) {
	var got map[string]any
	bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate-outline" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &got)
		io.WriteString(w, outlineBody)
	})

	o, err := bc.RequestOutline(context.Background(), models.OutlineRequest{Topic: "go", NumSlides: 5})
	if err != nil {
		t.Fatal(err)
	}
	if o.Title != "Go Concurrency" || len(o.Slides) != 2 {
		t.Fatalf("got %+v", o)
	}
	if c, ok := o.Slides[1].(*outline.ContentSlide); !ok || len(c.Bullets) != 2 {
		t.Fatalf("slide 2 = %#v", o.Slides[1])
	}

	if got["topic"] != "go" || got["num_slides"] != 5.0 {
		t.Fatalf("request body = %v", got)
	}
	if _, ok := got["tone"]; ok {
		t.Fatal("tone should be omitted when nil")
	}
	if _, ok := got["allowed_slide_types"]; ok {
		t.Fatal("allowed_slide_types should be omitted when empty")
	}
}

func TestRequestOutline_SendsOptionalFields(t *testing.T) {
	var got map[string]any
	bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, outlineBody)
	})

	tone := "casual"
	_, err := bc.RequestOutline(context.Background(), models.OutlineRequest{
		Topic: "go", NumSlides: 8, Tone: &tone, AllowedSlideTypes: []string{"quote"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["tone"] != "casual" {
		t.Fatalf("tone = %v", got["tone"])
	}
	types, _ := got["allowed_slide_types"].([]any)
	if len(types) != 1 || types[0] != "quote" {
		t.Fatalf("allowed_slide_types = %v", got["allowed_slide_types"])
	}
}

func TestRequestOutline_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    *Error
		message string
	}{
		{"detail", http.StatusBadRequest, `{"detail":"topic too long"}`, ErrServer, "Server error: topic too long"},
		{"no detail", http.StatusBadGateway, `<html>bad gateway</html>`, ErrStatus, "Server error: HTTP 502"},
		{"empty detail", http.StatusInternalServerError, `{"detail":""}`, ErrStatus, "Server error: HTTP 500"},
		{"bad json", http.StatusOK, `{"status":"success","outline":`, ErrDecode, ""},
		{"bad slide", http.StatusOK, `{"status":"success","outline":{"presentation_title":"x","slides":[{"title":"no type"}]}}`, ErrDecode, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := bc.RequestOutline(context.Background(), models.OutlineRequest{Topic: "x", NumSlides: 5})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind.Kind)
			}
			if tt.message != "" && err.Error() != tt.message {
				t.Fatalf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestRequestOutline_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	bc := NewBackendClient(url, "", 0)
	_, err := bc.RequestOutline(context.Background(), models.OutlineRequest{Topic: "x", NumSlides: 5})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want transport", err)
	}
}

func TestRequestOutline_InvalidEndpoint(t *testing.T) {
	for _, base := range []string{"", "localhost:8000", "ftp://host", "http://%zz"} {
		bc := NewBackendClient(base, "", 0)
		_, err := bc.RequestOutline(context.Background(), models.OutlineRequest{Topic: "x", NumSlides: 5})
		if !errors.Is(err, ErrInvalidEndpoint) {
			t.Fatalf("base %q: err = %v, want invalid endpoint", base, err)
		}
		if err.Error() != "Invalid server URL" {
			t.Fatalf("message = %q", err.Error())
		}
	}
}

func TestRequestPresentationFile(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff}
	var got map[string]any
	bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-presentation" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(payload)
	})

	slides := outline.Slides{
		&outline.QuoteSlide{Base: outline.Base{Number: 1, Title: "Q"}, Text: "t", Author: "a"},
	}
	data, err := bc.RequestPresentationFile(context.Background(), "Deck", slides, "ocean")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Fatalf("got %v", data)
	}
	if got["presentation_title"] != "Deck" || got["template"] != "ocean" {
		t.Fatalf("request = %v", got)
	}
	s := got["slides"].([]any)[0].(map[string]any)
	if s["quote_text"] != "t" || s["quote_author"] != "a" || s["type"] != "quote" {
		t.Fatalf("slide = %v", s)
	}
}

func TestRequestPresentationFile_ServerError(t *testing.T) {
	bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"unknown template"}`)
	})
	_, err := bc.RequestPresentationFile(context.Background(), "Deck", nil, "nope")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Kind != KindServer || apiErr.StatusCode != 422 || apiErr.Message != "unknown template" {
		t.Fatalf("got %+v", apiErr)
	}
}

func TestFetchSettings(t *testing.T) {
	bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/settings" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"status":"success","settings":{"presentationLimit":7,"outlineLimit":9,"hardPaywall":true,"paywallCloseButtonDelay":5}}`)
	})
	s, err := bc.FetchSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.PresentationLimit != 7 || s.OutlineLimit != 9 || !s.HardPaywall || s.PaywallCloseButtonDelay != 5 {
		t.Fatalf("got %+v", s)
	}
}

func TestFetchSettings_NonOK(t *testing.T) {
	bc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := bc.FetchSettings(context.Background()); !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v", err)
	}
}

func TestError_IsMatchesKindOnly(t *testing.T) {
	err := &Error{Kind: KindServer, StatusCode: 400, Message: "x"}
	if !errors.Is(err, ErrServer) {
		t.Fatal("expected match on kind")
	}
	if errors.Is(err, ErrStatus) {
		t.Fatal("unexpected match on different kind")
	}
}
