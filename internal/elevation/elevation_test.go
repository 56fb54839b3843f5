package elevation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"walkroute/internal/httpx"
	"walkroute/internal/model"
)

func newClient(url string) *Client {
	return &Client{BaseURL: url, HTTP: httpx.New(5*time.Second, 0, "test")}
}

func TestBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"elevation":852.0},{"elevation":901.5}]}`)
	}))
	defer srv.Close()

	got := newClient(srv.URL).Batch(context.Background(), []model.Coordinate{
		{Lat: -19.92, Lon: -43.94},
		{Lat: -19.93, Lon: -43.93},
	})
	if !reflect.DeepEqual(got, []float64{852, 901.5}) {
		t.Fatalf("elevations = %v", got)
	}
}

func TestBatchFailureYieldsZeros(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := newClient(srv.URL).Batch(context.Background(), []model.Coordinate{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}, {Lat: 5, Lon: 6}})
	if !reflect.DeepEqual(got, []float64{0, 0, 0}) {
		t.Fatalf("elevations = %v, want zeros", got)
	}
}

func TestBatchEmpty(t *testing.T) {
	got := newClient("http://127.0.0.1:0").Batch(context.Background(), nil)
	if len(got) != 0 {
		t.Fatalf("elevations = %v, want empty", got)
	}
}
