package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"walkroute/internal/geocache"
	"walkroute/internal/httpx"
)

// fakeNominatim serves /search, distinguishing the city bbox lookup (no
// street param) from address searches.
type fakeNominatim struct {
	bboxJSON    string // response for city lookups; "[]" for unknown city
	strictJSON  string // response when bounded=1
	openJSON    string // response for unbounded street searches
	bboxCalls   int32
	strictCalls int32
	openCalls   int32
}

func (f *fakeNominatim) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case q.Get("street") == "":
			atomic.AddInt32(&f.bboxCalls, 1)
			fmt.Fprint(w, f.bboxJSON)
		case q.Get("bounded") == "1":
			atomic.AddInt32(&f.strictCalls, 1)
			fmt.Fprint(w, f.strictJSON)
		default:
			atomic.AddInt32(&f.openCalls, 1)
			fmt.Fprint(w, f.openJSON)
		}
	})
}

func newResolver(t *testing.T, nom *fakeNominatim, photonJSON string, photonCalls *int32) *Resolver {
	t.Helper()
	nomSrv := httptest.NewServer(nom.handler())
	t.Cleanup(nomSrv.Close)
	phSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if photonCalls != nil {
			atomic.AddInt32(photonCalls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, photonJSON)
	}))
	t.Cleanup(phSrv.Close)

	hc := httpx.New(5*time.Second, 0, "test")
	return NewResolver(
		&Nominatim{BaseURL: nomSrv.URL, HTTP: hc},
		&Photon{BaseURL: phSrv.URL, HTTP: hc},
		geocache.NewMemory(),
		"Minas Gerais", "Brazil",
	)
}

const bhBBox = `[{"lat":"-19.92","lon":"-43.94","boundingbox":["-20.05","-19.78","-44.06","-43.85"]}]`

func TestResolveStrictInsideBBox(t *testing.T) {
	nom := &fakeNominatim{
		bboxJSON:   bhBBox,
		strictJSON: `[{"lat":"-19.93","lon":"-43.93"}]`,
	}
	r := newResolver(t, nom, `{"features":[]}`, nil)

	c, err := r.Resolve(context.Background(), "Av. Afonso Pena, 1212", "Belo Horizonte")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Lat != -19.93 || c.Lon != -43.93 {
		t.Fatalf("coord = %+v", c)
	}
	if n := atomic.LoadInt32(&nom.openCalls); n != 0 {
		t.Fatalf("fallback ran %d times on a strict hit", n)
	}
}

func TestResolveMemoized(t *testing.T) {
	nom := &fakeNominatim{
		bboxJSON:   bhBBox,
		strictJSON: `[{"lat":"-19.93","lon":"-43.93"}]`,
	}
	r := newResolver(t, nom, `{"features":[]}`, nil)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "Av. Afonso Pena, 1212", "Belo Horizonte"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	before := atomic.LoadInt32(&nom.bboxCalls) + atomic.LoadInt32(&nom.strictCalls) + atomic.LoadInt32(&nom.openCalls)
	if _, err := r.Resolve(ctx, "Av. Afonso Pena, 1212", "Belo Horizonte"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	after := atomic.LoadInt32(&nom.bboxCalls) + atomic.LoadInt32(&nom.strictCalls) + atomic.LoadInt32(&nom.openCalls)
	if before != after {
		t.Fatalf("second resolve hit the network: %d calls before, %d after", before, after)
	}
}

// Unknown city: no bounding box exists, so every tier runs unconstrained and
// the first tier that answers wins without a membership check.
func TestResolveUnknownCityFallsBackToPhoton(t *testing.T) {
	var photonCalls int32
	nom := &fakeNominatim{
		bboxJSON:   `[]`,
		strictJSON: `[]`,
		openJSON:   `[]`,
	}
	r := newResolver(t, nom, `{"features":[{"geometry":{"coordinates":[-43.9,-19.9]}}]}`, &photonCalls)
	ctx := context.Background()

	c, err := r.Resolve(ctx, "Rua X, 100", "Foo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Lat != -19.9 || c.Lon != -43.9 {
		t.Fatalf("coord = %+v", c)
	}
	// Cached under the fallback pass: resolving again must not re-query.
	if _, err := r.Resolve(ctx, "Rua X, 100", "Foo"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if n := atomic.LoadInt32(&photonCalls); n != 1 {
		t.Fatalf("photon calls = %d, want 1", n)
	}
}

func TestResolveRejectsResultsOutsideBBox(t *testing.T) {
	nom := &fakeNominatim{
		bboxJSON:   bhBBox,
		strictJSON: `[{"lat":"10.0","lon":"10.0"}]`,
		openJSON:   `[{"lat":"10.0","lon":"10.0"}]`,
	}
	// Photon result is inside the box, so it wins after both Nominatim
	// tiers produce out-of-city matches.
	r := newResolver(t, nom, `{"features":[{"geometry":{"coordinates":[-43.9,-19.9]}}]}`, nil)

	c, err := r.Resolve(context.Background(), "Praca Sete", "Belo Horizonte")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Lat != -19.9 || c.Lon != -43.9 {
		t.Fatalf("coord = %+v", c)
	}
}

func TestResolveExhaustedReturnsNotFound(t *testing.T) {
	nom := &fakeNominatim{bboxJSON: bhBBox, strictJSON: `[]`, openJSON: `[]`}
	r := newResolver(t, nom, `{"features":[]}`, nil)

	_, err := r.Resolve(context.Background(), "Nowhere, 0", "Belo Horizonte")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveFailuresAreNotCached(t *testing.T) {
	nom := &fakeNominatim{bboxJSON: bhBBox, strictJSON: `[]`, openJSON: `[]`}
	var photonCalls int32
	r := newResolver(t, nom, `{"features":[]}`, &photonCalls)
	ctx := context.Background()

	_, _ = r.Resolve(ctx, "Nowhere, 0", "Belo Horizonte")
	_, _ = r.Resolve(ctx, "Nowhere, 0", "Belo Horizonte")
	if n := atomic.LoadInt32(&photonCalls); n != 2 {
		t.Fatalf("photon calls = %d, want 2 (misses must be retried)", n)
	}
}
