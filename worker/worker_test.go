package worker

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"newsdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIngester struct{ runs atomic.Int32 }

func (c *countingIngester) Ingest(ctx context.Context, source string) (model.IngestReport, error) {
	c.runs.Add(1)
	return model.IngestReport{Source: source}, nil
}

func TestCollectorInterval(t *testing.T) {
	ing := &countingIngester{}
	w := &Collector{Source: "hn", Ingester: ing, Interval: 10 * time.Millisecond}
	assert.Equal(t, "collector:hn", w.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return ing.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestCollectorInvalidSchedule(t *testing.T) {
	w := &Collector{Source: "hn", Ingester: &countingIngester{}, Schedule: "every tuesday"}
	err := w.Start(context.Background())
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestCollectorCronStops(t *testing.T) {
	w := &Collector{Source: "hn", Ingester: &countingIngester{}, Schedule: "*/5 * * * *"}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.Start(ctx))
}

type stubRebuilder struct{ calls atomic.Int32 }

func (s *stubRebuilder) Reindex(ctx context.Context) (uint64, error) {
	return uint64(s.calls.Add(1)), nil
}

func TestReindexer(t *testing.T) {
	rb := &stubRebuilder{}
	w := &Reindexer{Index: rb, Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	assert.Eventually(t, func() bool { return rb.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestHTTPServerServesAndShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	w := &HTTPServer{
		Listener: ln,
		Handler: http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			io.WriteString(rw, "ok")
		}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	var body []byte
	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
		return true
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "ok", string(body))

	cancel()
	require.NoError(t, <-done)
}

type failingWorker struct{}

func (failingWorker) Name() string                    { return "failing" }
func (failingWorker) Start(ctx context.Context) error { return errors.New("boom") }

func TestManagerJoinsErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewManager(failingWorker{}, &Reindexer{Index: &stubRebuilder{}, Interval: time.Hour}).Start(ctx)
	assert.ErrorContains(t, err, "failing: boom")
}
