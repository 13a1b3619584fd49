package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGoong struct {
	autocompleteHits atomic.Int32
	detailHits       atomic.Int32
	lastInput        atomic.Value
	status           int
	body             string
}

func (f *fakeGoong) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("api_key") != "test-key" {
		http.Error(w, "bad key", http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
		return
	}
	switch r.URL.Path {
	case autocompletePath:
		f.autocompleteHits.Add(1)
		f.lastInput.Store(r.URL.Query().Get("input"))
		w.Write([]byte(`{"predictions":[
			{"place_id":"p1","description":"Hồ Hoàn Kiếm"},
			{"place_id":"","description":"dropped"},
			{"place_id":"p2","description":"Hoàn Kiếm, Hà Nội"}
		]}`))
	case detailPath:
		f.detailHits.Add(1)
		if r.URL.Query().Get("place_id") == "missing" {
			w.Write([]byte(`{"status":"OK"}`))
			return
		}
		w.Write([]byte(`{"result":{"geometry":{"location":{"lat":21.0287,"lng":105.8524}}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeGoong) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second})
}

func TestAutocompleteShortQuery(t *testing.T) {
	f := &fakeGoong{}
	c := newTestClient(t, f)

	got := c.Autocomplete(context.Background(), "a")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = c.Autocomplete(context.Background(), "")
	assert.Empty(t, got)
	assert.Equal(t, int32(0), f.autocompleteHits.Load())

	// one rune, two bytes
	got = c.Autocomplete(context.Background(), "ồ")
	assert.Empty(t, got)
	assert.Equal(t, int32(0), f.autocompleteHits.Load())
}

func TestAutocompleteIssuesOneRequest(t *testing.T) {
	f := &fakeGoong{}
	c := newTestClient(t, f)

	got := c.Autocomplete(context.Background(), "ab")
	assert.Equal(t, int32(1), f.autocompleteHits.Load())
	assert.Equal(t, "ab", f.lastInput.Load())
	assert.Equal(t, []Suggestion{
		{PlaceID: "p1", Description: "Hồ Hoàn Kiếm"},
		{PlaceID: "p2", Description: "Hoàn Kiếm, Hà Nội"},
	}, got)
}

func TestAutocompleteEscapesInput(t *testing.T) {
	f := &fakeGoong{}
	c := newTestClient(t, f)

	c.Autocomplete(context.Background(), "phố & hàng")
	assert.Equal(t, "phố & hàng", f.lastInput.Load())
}

func TestAutocompleteFailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"not found", http.StatusNotFound, `{}`},
		{"malformed", http.StatusOK, `{"predictions":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeGoong{status: tt.status, body: tt.body})
			got := c.Autocomplete(context.Background(), "hanoi")
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestAutocompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second})
	assert.Empty(t, c.Autocomplete(context.Background(), "hanoi"))
	_, ok := c.Detail(context.Background(), "p1")
	assert.False(t, ok)
}

func TestDetail(t *testing.T) {
	f := &fakeGoong{}
	c := newTestClient(t, f)

	d, ok := c.Detail(context.Background(), "p1")
	require.True(t, ok)
	assert.Equal(t, "p1", d.PlaceID)
	assert.Equal(t, orb.Point{105.8524, 21.0287}, d.Location)
}

func TestDetailNotFound(t *testing.T) {
	f := &fakeGoong{}
	c := newTestClient(t, f)

	_, ok := c.Detail(context.Background(), "missing")
	assert.False(t, ok)

	_, ok = c.Detail(context.Background(), "")
	assert.False(t, ok)
	assert.Equal(t, int32(1), f.detailHits.Load())
}

func TestDetailFailure(t *testing.T) {
	c := newTestClient(t, &fakeGoong{status: http.StatusBadGateway})
	_, ok := c.Detail(context.Background(), "p1")
	assert.False(t, ok)
}

func TestCancelledContext(t *testing.T) {
	f := &fakeGoong{}
	c := newTestClient(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, c.Autocomplete(ctx, "hanoi"))
}

func TestRateLimitCancelledWait(t *testing.T) {
	f := &fakeGoong{}
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "test-key", RateLimit: 0.001, Burst: 1})
	require.NotEmpty(t, c.Autocomplete(context.Background(), "hanoi"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Empty(t, c.Autocomplete(ctx, "hanoi"))
	assert.Equal(t, int32(1), f.autocompleteHits.Load())
}
