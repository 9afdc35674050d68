package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name        string
		url         string
		contentType string
		decode      func(b []byte) (payload, error)
	}{
		{"json default", "/x", "application/json", func(b []byte) (payload, error) {
			var p payload
			return p, json.Unmarshal(b, &p)
		}},
		{"msgpack", "/x?format=msgpack", "application/x-msgpack", func(b []byte) (payload, error) {
			var p payload
			dec := msgpack.NewDecoder(bytes.NewReader(b))
			dec.SetCustomStructTag("json")
			return p, dec.Decode(&p)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if err := f.WriteResponse(rec, req, payload{Name: "yield", Value: 812.5}); err != nil {
				t.Fatal(err)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("expected %s, got %s", tt.contentType, ct)
			}
			got, err := tt.decode(rec.Body.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "yield" || got.Value != 812.5 {
				t.Errorf("unexpected payload %+v", got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if err := NewFormatter().WriteError(rec, req, http.StatusNotFound, "run missing"); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "run missing" {
		t.Errorf("unexpected error body %+v", body)
	}
}
