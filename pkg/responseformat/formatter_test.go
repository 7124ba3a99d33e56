package responseformat

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	PeakAC float64 `json:"peak_ac_w"`
	Model  string  `json:"model"`
}

func TestRequestedFormat(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"", FormatJSON},
		{"format=json", FormatJSON},
		{"format=msgpack", FormatMsgPack},
		{"format=MsgPack", FormatMsgPack},
		{"format=csv", FormatCSV},
		{"format=xml", FormatJSON},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/forecast?"+tt.query, nil)
		if got := RequestedFormat(req); got != tt.want {
			t.Errorf("RequestedFormat(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestWriteResponseJSON(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/forecast", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteResponse(rec, req, payload{PeakAC: 212.5, Model: "GFS"}, map[string]string{"Cache-Control": "no-store"}); err != nil {
		t.Fatal(err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cors := rec.Header().Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Errorf("CORS header = %q", cors)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var got payload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.PeakAC != 212.5 || got.Model != "GFS" {
		t.Errorf("decoded %+v", got)
	}
}

func TestWriteResponseMsgPackUsesJSONTags(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/forecast?format=msgpack", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteStatus(rec, req, http.StatusBadRequest, payload{PeakAC: 1, Model: "NAM"}, nil); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got map[string]any
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["model"] != "NAM" {
		t.Errorf("decoded %v, want json field names", got)
	}
}

func TestWriteCSV(t *testing.T) {
	f := NewFormatter()
	rec := httptest.NewRecorder()

	err := f.WriteCSV(rec, "ac_out.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "timestamp,p_ac\n")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="ac_out.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Body.String() != "timestamp,p_ac\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
