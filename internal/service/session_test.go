package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-map/internal/mapsurface"
	"github.com/joeblew999/plat-map/internal/places"
	"github.com/joeblew999/plat-map/internal/search"
	"github.com/joeblew999/plat-map/internal/styles"
)

var hanoi = orb.Point{105.85242472181584, 21.029579719995272}

type stubLookup struct{}

func (stubLookup) Autocomplete(ctx context.Context, q string) []places.Suggestion {
	if len(q) < 2 {
		return []places.Suggestion{}
	}
	return []places.Suggestion{{PlaceID: "p1", Description: "Hồ Gươm"}}
}

func (stubLookup) Detail(ctx context.Context, id string) (places.Detail, bool) {
	return places.Detail{PlaceID: id, Location: orb.Point{105.8524, 21.0287}}, id == "p1"
}

func newTestService() *SessionService {
	return NewSessionService(SessionConfig{
		Surface: mapsurface.Config{View: mapsurface.ViewState{Center: hanoi, Zoom: 14, RadiusMeters: 500}},
		Styles:  styles.GoongCatalog("", "k"),
		MaxIdle: time.Minute,
	}, stubLookup{}, zerolog.Nop())
}

func drain(ch chan Command) []Command {
	var out []Command
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, c)
		default:
			return out
		}
	}
}

func ops(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
	}
	return out
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService()
	sess := svc.Create()

	got, ok := svc.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	ch := sess.Bus.Subscribe()
	sess.Open()
	require.True(t, sess.Streaming())

	cmds := drain(ch)
	require.Equal(t, []string{OpCreate}, ops(cmds))
	assert.Equal(t, sess.Styles.Current().URL, cmds[0].Style)
	assert.Equal(t, hanoi, cmds[0].Camera.Center)

	require.NoError(t, sess.Surface.Loaded())
	assert.Equal(t, []string{OpAddSource, OpAddLayer, OpAddMarker}, ops(drain(ch)))

	sess.Close()
	assert.False(t, sess.Streaming())
	assert.Equal(t, []string{OpRemove}, ops(drain(ch)))
	sess.Bus.Unsubscribe(ch)
}

func TestSessionSelectPublishes(t *testing.T) {
	svc := newTestService()
	sess := svc.Create()
	ch := sess.Bus.Subscribe()
	sess.Open()
	require.NoError(t, sess.Surface.Loaded())
	drain(ch)

	ctx := context.Background()
	sess.Search.TextChanged(ctx, search.Main, "ho")
	_, err := sess.Search.Select(ctx, search.Main, "p1")
	require.NoError(t, err)

	cmds := drain(ch)
	assert.Equal(t, []string{OpAddMarker, OpSetData, OpFlyTo}, ops(cmds))
	assert.Equal(t, mapsurface.CircleID, cmds[1].ID)
	assert.Equal(t, 14.0, cmds[2].Camera.Zoom)
}

func TestSessionStyleSwapReplays(t *testing.T) {
	svc := newTestService()
	sess := svc.Create()
	ch := sess.Bus.Subscribe()
	sess.Open()
	require.NoError(t, sess.Surface.Loaded())
	drain(ch)

	_, err := sess.Styles.Select("Dark")
	require.NoError(t, err)
	assert.Equal(t, []string{OpSetStyle}, ops(drain(ch)))

	require.NoError(t, sess.Surface.Loaded())
	assert.Equal(t, []string{OpAddSource, OpAddLayer}, ops(drain(ch)))
}

func TestPrune(t *testing.T) {
	svc := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	idle := svc.Create()
	open := svc.Create()
	open.Open()
	fresh := svc.Create()

	now = now.Add(2 * time.Minute)
	svc.Get(fresh.ID)

	assert.Equal(t, 1, svc.Prune())
	_, ok := svc.Get(idle.ID)
	assert.False(t, ok)
	assert.Equal(t, 2, svc.Len())
	assert.ElementsMatch(t, []string{open.ID, fresh.ID}, svc.IDs())

	svc.Delete(open.ID)
	assert.Equal(t, 1, svc.Len())
	assert.False(t, open.Surface.Initialized())
}

func TestBusEvictsSlowSubscriber(t *testing.T) {
	b := NewBus(zerolog.Nop())
	slow := b.Subscribe()
	fast := b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Publish(Command{Op: OpFlyTo})
		if i%10 == 0 {
			drain(fast)
		}
	}
	drain(fast)

	assert.Len(t, drain(slow), 64)
	_, open := <-slow
	assert.False(t, open, "evicted subscriber is closed")
	assert.Equal(t, 1, b.Subscribers())

	// Unsubscribing an evicted channel is harmless.
	b.Unsubscribe(slow)
	b.Unsubscribe(fast)
	assert.Equal(t, 0, b.Subscribers())
	_, open = <-fast
	assert.False(t, open)
}

func TestSessionResyncRedrawsEverything(t *testing.T) {
	svc := newTestService()
	sess := svc.Create()
	ch := sess.Bus.Subscribe()
	sess.Open()
	require.NoError(t, sess.Surface.Loaded())
	drain(ch)

	sess.Resync()
	cmds := drain(ch)
	require.Equal(t, []string{OpRemove, OpCreate}, ops(cmds))
	assert.Equal(t, sess.Styles.Current().URL, cmds[1].Style)

	require.NoError(t, sess.Surface.Loaded())
	assert.Equal(t, []string{OpAddSource, OpAddLayer, OpAddMarker}, ops(drain(ch)))
	sess.Bus.Unsubscribe(ch)

	sess.Close()
	sess.Resync()
	assert.False(t, sess.Surface.Initialized(), "no page to redraw")
}

func TestSessionOpenCloseConcurrent(t *testing.T) {
	svc := newTestService()
	sess := svc.Create()

	var missing atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				sess.Open()
				if !sess.Surface.Initialized() {
					missing.Add(1)
				}
				sess.Close()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, missing.Load(), "an open stream always has a map")
	assert.False(t, sess.Streaming())
	assert.False(t, sess.Surface.Initialized())
}
