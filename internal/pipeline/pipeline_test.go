package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/utils"
)

func respond(status int, body string, headers http.Header) *models.TransportResponse {
	if headers == nil {
		headers = http.Header{}
	}
	return &models.TransportResponse{StatusCode: status, Headers: headers, Body: []byte(body)}
}

func TestChain_Order(t *testing.T) {
	var order []string
	stage := func(name string) Stage {
		return StageFunc(func(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
			order = append(order, name)
			return next(ctx, req)
		})
	}
	terminal := func(context.Context, *Request) (*models.FetchResult, error) {
		order = append(order, "terminal")
		return &models.FetchResult{}, nil
	}

	h := Chain(terminal, stage("a"), nil, stage("b"))
	_, err := h(context.Background(), newRequest("http://a", ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "terminal"}, order)
}

func TestPipeline_MissThenHit(t *testing.T) {
	h := newHarness(t, false)
	req := newRequest("http://a.com/x", "a_com_x")

	h.transport.EXPECT().
		Perform(gomock.Any(), "http://a.com/x", gomock.Any(), gomock.Any(), true).
		Return(respond(200, "hello", http.Header{"Set-Cookie": {"s=1"}}), nil).
		Times(1)

	first, err := h.handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(first.Content))
	assert.False(t, first.Cached)

	second, err := h.handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(second.Content))
	assert.True(t, second.Cached)
	assert.Empty(t, second.Headers.Get("Set-Cookie"))

	assert.Equal(t, 1, h.events.count(models.EventCacheMiss))
	assert.Equal(t, 1, h.events.count(models.EventCacheSet))
	assert.Equal(t, 1, h.events.count(models.EventCacheHit))
	assert.Equal(t, 2, h.events.count(models.EventLogEnd))
}

func TestPipeline_CacheControlPrecedence(t *testing.T) {
	t.Run("max-age wins over request ttl", func(t *testing.T) {
		h := newHarness(t, false)
		req := newRequest("http://a.com/x", "k")
		req.Fetch.CacheTTL = models.TTLOf(10 * time.Second)

		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(200, "x", http.Header{"Cache-Control": {"public, max-age=30"}}), nil)

		_, err := h.handler(context.Background(), req)
		require.NoError(t, err)

		entry, ok := h.cache.stored("k")
		require.True(t, ok)
		assert.Equal(t, int64(30), entry.ValiditySeconds())
		assert.Equal(t, int64(150), entry.HardExpirySeconds())
	})

	t.Run("no-store is never persisted", func(t *testing.T) {
		h := newHarness(t, false)
		req := newRequest("http://a.com/x", "k")

		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(200, "x", http.Header{"Cache-Control": {"no-store"}}), nil).
			Times(2)

		for i := 0; i < 2; i++ {
			result, err := h.handler(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, result.Cached)
		}
		_, ok := h.cache.stored("k")
		assert.False(t, ok)
	})
}

func TestPipeline_StaleFallbackOn500(t *testing.T) {
	h := newHarness(t, false)
	req := newRequest("http://a.com/x", "k")

	gomock.InOrder(
		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(200, "good", http.Header{"Cache-Control": {"max-age=10"}}), nil),
		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(500, "broken", nil), nil),
	)

	_, err := h.handler(context.Background(), req)
	require.NoError(t, err)

	// past validity, within hard expiry
	h.clock.Add(20 * time.Second)

	result, err := h.handler(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 500, fetcherr.StatusCode(err))
	require.NotNil(t, result)
	assert.True(t, result.Stale)
	assert.Equal(t, "good", string(result.Content))
	assert.Equal(t, 1, h.events.count(models.EventFallbackCacheHit))
	assert.Equal(t, 1, h.events.count(models.EventLogError))
}

func TestPipeline_FallbackMissKeepsError(t *testing.T) {
	h := newHarness(t, false)
	req := newRequest("http://a.com/x", "k")

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	result, err := h.handler(context.Background(), req)
	assert.Nil(t, result)
	var fe *fetcherr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fetcherr.TypeTransport, fe.Type)
	assert.Equal(t, 1, h.events.count(models.EventFallbackCacheMiss))
}

func TestPipeline_NotFoundDoesNotFallBack(t *testing.T) {
	h := newHarness(t, false)
	req := newRequest("http://a.com/x", "k")

	gomock.InOrder(
		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(200, "good", http.Header{"Cache-Control": {"max-age=10"}}), nil),
		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(404, "gone", nil), nil),
	)

	_, err := h.handler(context.Background(), req)
	require.NoError(t, err)
	h.clock.Add(20 * time.Second)

	result, err := h.handler(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 404, fetcherr.StatusCode(err))
	require.NotNil(t, result)
	assert.False(t, result.Stale)
	assert.Equal(t, "gone", string(result.Content))
	assert.Zero(t, h.events.count(models.EventFallbackCacheHit))
	assert.Zero(t, h.events.count(models.EventFallbackCacheMiss))
}

func TestPipeline_DedupCollapsesConcurrentMisses(t *testing.T) {
	h := newHarness(t, false)

	const callers = 8
	release := make(chan struct{})
	entered := make(chan struct{})

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, http.Header, time.Duration, bool) (*models.TransportResponse, error) {
			close(entered)
			<-release
			return respond(200, "once", http.Header{"Cache-Control": {"no-store"}}), nil
		}).
		Times(1)

	var wg sync.WaitGroup
	results := make([]*models.FetchResult, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = h.handler(context.Background(), newRequest("http://a.com/x", "k"))
	}()
	<-entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = h.handler(context.Background(), newRequest("http://a.com/x", "k"))
		}(i)
	}

	// wait until every follower is queued behind the leader
	require.Eventually(t, func() bool {
		return h.events.count(models.EventCacheMiss) == callers
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	deduped := 0
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "once", string(r.Content))
		if r.Deduped {
			deduped++
		}
	}
	assert.Equal(t, callers-1, deduped)
	assert.Equal(t, callers-1, h.events.count(models.EventDedupeQueue))
}

func TestPipeline_DedupStoresOnce(t *testing.T) {
	h := newHarness(t, false)

	const callers = 5
	release := make(chan struct{})
	entered := make(chan struct{})

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, http.Header, time.Duration, bool) (*models.TransportResponse, error) {
			close(entered)
			<-release
			return respond(200, "shared", http.Header{"Cache-Control": {"max-age=30"}}), nil
		}).
		Times(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = h.handler(context.Background(), newRequest("http://a.com/x", "k"))
	}()
	<-entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.handler(context.Background(), newRequest("http://a.com/x", "k"))
		}()
	}

	require.Eventually(t, func() bool {
		return h.events.count(models.EventCacheMiss) == callers
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, h.cache.setCount())
	assert.Equal(t, 1, h.events.count(models.EventCacheSet))
}

func TestPipeline_DedupLeaderCancellationSparesFollowers(t *testing.T) {
	h := newHarness(t, true)

	release := make(chan struct{})
	entered := make(chan struct{})

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ http.Header, _ time.Duration, _ bool) (*models.TransportResponse, error) {
			close(entered)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return respond(200, "ok", http.Header{"Cache-Control": {"no-store"}}), nil
		}).
		Times(1)

	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = h.handler(leaderCtx, newRequest("http://a.com/x", "k"))
	}()
	<-entered

	var followerResult *models.FetchResult
	var followerErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		followerResult, followerErr = h.handler(context.Background(), newRequest("http://a.com/x", "k"))
	}()

	require.Eventually(t, func() bool {
		return h.events.count(models.EventCacheMiss) == 2
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)
	wg.Wait()

	require.NoError(t, followerErr)
	require.NotNil(t, followerResult)
	assert.Equal(t, "ok", string(followerResult.Content))
	assert.True(t, followerResult.Deduped)
	assert.Equal(t, "closed", h.breakers.States()["a.com/x"].String())
}

func TestPipeline_Sentinel(t *testing.T) {
	t.Run("miss answers 404 without calling upstream", func(t *testing.T) {
		h := newHarness(t, false)

		result, err := h.handler(context.Background(), newRequest(models.CacheURL, "k"))

		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, result.StatusCode)
		assert.Equal(t, "No content in cache at key: k", string(result.Content))
	})

	t.Run("hit serves stale entries", func(t *testing.T) {
		h := newHarness(t, false)
		entry := models.NewCacheEntry("k", []byte("stored"), nil, h.clock.Now(), models.TTL{Fresh: time.Second, Stale: time.Minute})
		require.NoError(t, h.cache.Set(context.Background(), "k", entry, models.TTL{}))
		h.clock.Add(10 * time.Second)

		result, err := h.handler(context.Background(), newRequest(models.CacheURL, "k"))

		require.NoError(t, err)
		assert.True(t, result.Cached)
		assert.Equal(t, "stored", string(result.Content))
	})
}

func TestPipeline_CachingDisabledAddsNoCacheHeader(t *testing.T) {
	h := newHarness(t, false)

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(respond(200, "x", http.Header{"Set-Cookie": {"s=1"}}), nil)

	result, err := h.handler(context.Background(), newRequest("http://a.com/x", ""))

	require.NoError(t, err)
	assert.Equal(t, utils.NoCacheHeaderValue, result.Headers.Get("Cache-Control"))
	assert.Zero(t, h.events.count(models.EventCacheMiss))
}

func TestPipeline_CacheErrorIsAMiss(t *testing.T) {
	h := newHarness(t, false)
	h.cache.getErr = errors.New("backend down")

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(respond(200, "x", nil), nil)

	result, err := h.handler(context.Background(), newRequest("http://a.com/x", "k"))

	require.NoError(t, err)
	assert.Equal(t, "x", string(result.Content))
	assert.Equal(t, 1, h.events.count(models.EventCacheError))
	assert.Equal(t, 1, h.events.count(models.EventCacheMiss))
}

func TestPipeline_RedirectNotFollowed(t *testing.T) {
	h := newHarness(t, false)
	req := newRequest("http://a.com/x", "k")
	req.FollowRedirects = false

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), false).
		Return(respond(302, "", http.Header{"Location": {"http://b.com/"}}), nil)

	result, err := h.handler(context.Background(), req)

	var fe *fetcherr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fetcherr.TypeRedirectNotFollowed, fe.Type)
	assert.Equal(t, "http://b.com/", fe.Location())
	assert.Equal(t, 302, result.StatusCode)
}

func TestPipeline_BreakerOpensAndFailsFast(t *testing.T) {
	h := newHarness(t, true)

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(respond(503, "", nil), nil).
		Times(3)

	for i := 0; i < 3; i++ {
		_, err := h.handler(context.Background(), newRequest("http://a.com/x", ""))
		assert.Equal(t, 503, fetcherr.StatusCode(err))
	}

	_, err := h.handler(context.Background(), newRequest("http://a.com/x", ""))
	assert.ErrorIs(t, err, fetcherr.ErrCircuitOpen)

	// other paths have their own breaker
	h.transport.EXPECT().Perform(gomock.Any(), "http://a.com/y", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(respond(200, "y", nil), nil)
	_, err = h.handler(context.Background(), newRequest("http://a.com/y", ""))
	assert.NoError(t, err)
}

func TestPipeline_BreakerProbeCloses(t *testing.T) {
	h := newHarness(t, true)

	gomock.InOrder(
		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("refused")).
			Times(3),
		h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(respond(200, "back", nil), nil),
	)

	for i := 0; i < 3; i++ {
		_, _ = h.handler(context.Background(), newRequest("http://a.com/x", ""))
	}
	_, err := h.handler(context.Background(), newRequest("http://a.com/x", ""))
	require.ErrorIs(t, err, fetcherr.ErrCircuitOpen)

	h.clock.Add(5 * time.Second)

	result, err := h.handler(context.Background(), newRequest("http://a.com/x", ""))
	require.NoError(t, err)
	assert.Equal(t, "back", string(result.Content))
	assert.Equal(t, "closed", h.breakers.States()["a.com/x"].String())
}

func TestPipeline_CircuitOpenServesStale(t *testing.T) {
	h := newHarness(t, true)
	entry := models.NewCacheEntry("k", []byte("old"), nil, h.clock.Now(), models.TTL{Fresh: time.Second, Stale: time.Hour})
	require.NoError(t, h.cache.Set(context.Background(), "k", entry, models.TTL{}))
	h.clock.Add(2 * time.Second)

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("refused")).
		Times(3)

	for i := 0; i < 4; i++ {
		result, err := h.handler(context.Background(), newRequest("http://a.com/x", "k"))
		require.Error(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Stale)
		assert.Equal(t, "old", string(result.Content))
	}
}

func TestPipeline_TimingsFromClock(t *testing.T) {
	h := newHarness(t, false)

	h.transport.EXPECT().Perform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, http.Header, time.Duration, bool) (*models.TransportResponse, error) {
			h.clock.Add(40 * time.Millisecond)
			return respond(200, "x", nil), nil
		})

	result, err := h.handler(context.Background(), newRequest("http://a.com/x", ""))

	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, result.Timing)
	assert.Equal(t, 40*time.Millisecond, result.RealTiming)
}
