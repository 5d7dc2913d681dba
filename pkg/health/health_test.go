package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeInterval = 5 * time.Millisecond

func passing(_ context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func startHealth(t *testing.T, h *Health) {
	t.Helper()
	h.Start(t.Context(), probeInterval)
	t.Cleanup(h.Stop)
}

func liveStatus(h *Health) (int, probeStatus) {
	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	var body probeStatus
	_ = json.NewDecoder(w.Body).Decode(&body)
	return w.Code, body
}

func readyStatus(h *Health) (int, probeStatus) {
	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var body probeStatus
	_ = json.NewDecoder(w.Body).Decode(&body)
	return w.Code, body
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("all passing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("goroutines", time.Second, passing)
		startHealth(t, h)

		code, body := liveStatus(h)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
		assert.Empty(t, body.Checks)
	})

	t.Run("no checks registered", func(t *testing.T) {
		h := New()
		startHealth(t, h)

		code, body := liveStatus(h)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("failing check past threshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("deadlock", time.Second, failing("stuck"))
		startHealth(t, h)

		require.Eventually(t, func() bool {
			code, _ := liveStatus(h)
			return code == http.StatusServiceUnavailable
		}, time.Second, probeInterval, "probe should turn unhealthy after consecutive failures")

		_, body := liveStatus(h)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "stuck", body.Checks["deadlock"])
	})
}

func TestFailureThresholdDamping(t *testing.T) {
	// One or two failures must not flip the probe; only a third in a row does.
	var calls atomic.Int32
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if calls.Add(1)%3 != 0 {
			return errors.New("transient")
		}
		return nil
	})
	startHealth(t, h)

	require.Eventually(t, func() bool {
		return calls.Load() >= 6
	}, time.Second, probeInterval)

	code, _ := liveStatus(h)
	assert.Equal(t, http.StatusOK, code, "two transient failures must not mark the probe unhealthy")
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready and passing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("catalog", time.Second, passing)
		startHealth(t, h)
		h.SetReady(true)

		code, body := readyStatus(h)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("not marked ready", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("catalog", time.Second, passing)
		startHealth(t, h)

		code, body := readyStatus(h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "service is not ready", body.Checks["_readiness"])
	})

	t.Run("draining after SetReady false", func(t *testing.T) {
		h := New()
		startHealth(t, h)
		h.SetReady(true)

		code, _ := readyStatus(h)
		require.Equal(t, http.StatusOK, code)

		h.SetReady(false)
		code, _ = readyStatus(h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("one failing dependency", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("catalog", time.Second, passing)
		h.AddReadinessCheck("payments", time.Second, failing("connection refused"))
		startHealth(t, h)
		h.SetReady(true)

		require.Eventually(t, func() bool {
			code, _ := readyStatus(h)
			return code == http.StatusServiceUnavailable
		}, time.Second, probeInterval)

		_, body := readyStatus(h)
		assert.Equal(t, "connection refused", body.Checks["payments"])
		assert.NotContains(t, body.Checks, "catalog")
	})
}

func TestIsReady(t *testing.T) {
	h := New()
	assert.False(t, h.IsReady(), "a new Health starts not ready")

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	var healthy atomic.Bool
	h := New()
	h.AddLivenessCheck("recovering", time.Second, func(_ context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("down")
	})
	startHealth(t, h)

	require.Eventually(t, func() bool {
		code, _ := liveStatus(h)
		return code == http.StatusServiceUnavailable
	}, time.Second, probeInterval)

	healthy.Store(true)

	require.Eventually(t, func() bool {
		code, _ := liveStatus(h)
		return code == http.StatusOK
	}, time.Second, probeInterval, "one success should heal the probe")
}

func TestStopHaltsProbes(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddLivenessCheck("counter", time.Second, func(_ context.Context) error {
		calls.Add(1)
		return nil
	})
	h.Start(t.Context(), probeInterval)

	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, probeInterval)

	h.Stop()
	h.Stop() // idempotent

	settled := calls.Load()
	time.Sleep(10 * probeInterval)
	assert.LessOrEqual(t, calls.Load(), settled+1, "probe must stop ticking after Stop")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
