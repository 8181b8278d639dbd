package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

const tinyPNG = "data:image/png;base64,iVBORw0KGgo="

// fakeModel returns an httptest server that answers every messages call
// with the given text block.
func fakeModel(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}

		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Errorf("unexpected message shape: %+v", req.Messages)
		}

		resp := messagesResponse{Content: []contentBlock{{Type: "text", Text: reply}}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL, APIKey: "test-key", Model: "test-model"})
}

func TestParseImage(t *testing.T) {
	reply := `{"items":[{"name":" Pad Thai ","price":13.375},{"name":"Curry","price":11.95},{"name":"","price":5},{"name":"Comp Water","price":0},{"name":"Refund","price":-2}],"tax":4.5}`
	srv := fakeModel(t, reply)
	defer srv.Close()

	rec, err := newTestClient(srv.URL).ParseImage(context.Background(), tinyPNG)
	if err != nil {
		t.Fatalf("ParseImage: %v", err)
	}

	if len(rec.Items) != 2 {
		t.Fatalf("got %d items, want 2 after filtering: %+v", len(rec.Items), rec.Items)
	}
	if rec.Items[0].Name != "Pad Thai" {
		t.Errorf("name = %q, want trimmed %q", rec.Items[0].Name, "Pad Thai")
	}
	if math.Abs(rec.Items[0].Price-13.38) > 1e-9 {
		t.Errorf("price = %v, want rounded 13.38", rec.Items[0].Price)
	}
	if rec.Tax == nil || *rec.Tax != 4.5 {
		t.Errorf("tax = %v, want 4.5", rec.Tax)
	}
	if rec.Tip != nil {
		t.Errorf("tip = %v, want nil (not on receipt)", *rec.Tip)
	}
}

func TestParseImageRepairsWrappedJSON(t *testing.T) {
	reply := "Here is the extraction:\n```json\n{\"items\":[{\"name\":\"Latte\",\"price\":4.5}]}\n```\nLet me know if you need anything else."
	srv := fakeModel(t, reply)
	defer srv.Close()

	rec, err := newTestClient(srv.URL).ParseImage(context.Background(), tinyPNG)
	if err != nil {
		t.Fatalf("ParseImage: %v", err)
	}
	if len(rec.Items) != 1 || rec.Items[0].Name != "Latte" {
		t.Errorf("items = %+v, want single Latte", rec.Items)
	}
}

func TestParseImageBadInputs(t *testing.T) {
	c := newTestClient("http://unused.invalid")

	tests := []struct {
		name    string
		dataURL string
		wantErr error
	}{
		{name: "empty", dataURL: "", wantErr: ErrNoImage},
		{name: "not a data url", dataURL: "https://example.com/receipt.jpg", wantErr: ErrInvalidImage},
		{name: "not an image", dataURL: "data:text/plain;base64,aGk=", wantErr: ErrInvalidImage},
		{name: "unsupported media", dataURL: "data:image/tiff;base64,aGk=", wantErr: ErrUnsupportedMedia},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ParseImage(context.Background(), tt.dataURL)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseImageBadModelOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "no json at all", reply: "I can't read this receipt."},
		{name: "malformed json", reply: `{"items": [`},
		{name: "missing items", reply: `{"tax": 4.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeModel(t, tt.reply)
			defer srv.Close()

			_, err := newTestClient(srv.URL).ParseImage(context.Background(), tinyPNG)
			if !errors.Is(err, ErrBadReply) {
				t.Errorf("error = %v, want ErrBadReply", err)
			}
		})
	}
}

func TestParseImageModelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ParseImage(context.Background(), tinyPNG)
	if err == nil {
		t.Fatal("expected error on upstream 503")
	}
}

func TestParseImageEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ParseImage(context.Background(), tinyPNG)
	if !errors.Is(err, ErrEmptyReply) {
		t.Errorf("error = %v, want ErrEmptyReply", err)
	}
}

func TestExtractJSON(t *testing.T) {
	raw, err := extractJSON(`prefix {"a": {"b": 1}} suffix`)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	if string(raw) != `{"a": {"b": 1}}` {
		t.Errorf("extracted %q", raw)
	}
}
