package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shash06sp/Project-LogiSwift/internal/geo"
)

func TestTableCleansNullDurations(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","durations":[[0,120,null],[130,0,60],[null,65,0]]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	pts := []geo.Point{{Lat: 12.9, Lng: 77.6}, {Lat: 12.91, Lng: 77.61}, {Lat: 12.92, Lng: 77.62}}
	m, cleaned, err := c.Table(context.Background(), pts)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if !strings.HasPrefix(gotPath, "/table/v1/driving/") || !strings.Contains(gotPath, "annotations=duration") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	// lon comes first in the coordinate list
	if !strings.Contains(gotPath, "77.6") {
		t.Fatalf("coordinates missing from path %q", gotPath)
	}
	if cleaned != 2 {
		t.Fatalf("cleaned: got %d, want 2", cleaned)
	}
	if m[0][2] != c.Sentinel || m[2][0] != c.Sentinel {
		t.Fatalf("null durations not replaced: %v", m)
	}
	if m[0][1] != 120 || m[1][2] != 60 {
		t.Fatalf("durations mangled: %v", m)
	}
}

func TestTableErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoTable","message":"bad request"}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL)
	if _, _, err := c.Table(context.Background(), []geo.Point{{Lat: 1, Lng: 2}}); err == nil {
		t.Fatal("expected error for non-Ok code")
	}
}

func TestTableRejectsShortMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Ok","durations":[[0]]}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL)
	pts := []geo.Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	if _, _, err := c.Table(context.Background(), pts); err == nil {
		t.Fatal("expected dimension error")
	}
}
