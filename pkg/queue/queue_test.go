package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-job-queues/pkg/core"
)

func quietQueue(name string, opts ...Option) *Queue {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(name, opts...)
}

// recordingAction returns an action that appends its name and input to calls.
func recordingAction(mu *sync.Mutex, calls *[]string, inputs *[]any, name string, out any) func(any) any {
	return func(in any) any {
		mu.Lock()
		defer mu.Unlock()
		*calls = append(*calls, name)
		if inputs != nil {
			*inputs = append(*inputs, in)
		}
		return out
	}
}

// mockRecorder implements core.Recorder for testing
type mockRecorder struct {
	mu   sync.Mutex
	runs []*core.RunResults
	err  error
}

func (m *mockRecorder) SaveRun(_ context.Context, run *core.RunResults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestAdd_Chaining(t *testing.T) {
	q := quietQueue("q").
		Add("a", func() bool { return true }).
		Add("b", func() bool { return true })

	assert.Equal(t, []string{"a", "b"}, q.JobNames())
	assert.True(t, q.HasJob("a"))
	assert.False(t, q.HasJob("c"))

	j, ok := q.Job("b")
	require.True(t, ok)
	assert.Equal(t, "b", j.Name())
}

func TestAdd_ReplaceKeepsPosition(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	q := quietQueue("q").
		Add("a", recordingAction(&mu, &calls, nil, "a1", false)).
		Add("b", recordingAction(&mu, &calls, nil, "b", false)).
		Add("a", recordingAction(&mu, &calls, nil, "a2", false))

	assert.Equal(t, []string{"a", "b"}, q.JobNames())

	q.Run(context.Background(), nil)
	assert.Equal(t, []string{"a2", "b"}, calls)
}

func TestAdd_PanicsOnNonFunction(t *testing.T) {
	q := quietQueue("q")

	assert.Panics(t, func() {
		q.Add("a", "not a function")
	})
	assert.False(t, q.HasJob("a"))
}

func TestTryAdd_ReturnsError(t *testing.T) {
	q := quietQueue("q")

	err := q.TryAdd("a", 42)
	assert.ErrorIs(t, err, core.ErrInvalidAction)

	err = q.TryAdd("", func() bool { return true })
	assert.ErrorIs(t, err, core.ErrInvalidJobName)
}

func TestAdd_FreeFormNames(t *testing.T) {
	q := quietQueue("q")
	names := []string{"send email", "1st", "step:fetch", "ünicode"}

	assert.NotPanics(t, func() {
		for _, name := range names {
			q.Add(name, func() bool { return true })
		}
	})
	assert.Equal(t, names, q.JobNames())

	res := q.Run(context.Background(), nil)
	assert.Equal(t, names, res.Succeeded())
}

func TestRemove(t *testing.T) {
	q := quietQueue("q").
		Add("a", func() bool { return true }).
		Add("b", func() bool { return true }).
		Add("c", func() bool { return true })

	assert.True(t, q.Remove("b"))
	assert.False(t, q.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, q.JobNames())
}

// ---------------------------------------------------------------------------
// Exec
// ---------------------------------------------------------------------------

func TestExec_NotFound(t *testing.T) {
	q := quietQueue("q")

	var failed []string
	q.OnJobFail(func(name string, r core.Result) { failed = append(failed, name) })

	var res core.Result
	assert.NotPanics(t, func() {
		res = q.Exec(context.Background(), "missing", nil)
	})

	assert.False(t, res.Status)
	assert.Equal(t, "Job not found.", res.Msg)
	assert.ErrorIs(t, res.Err, core.ErrJobNotFound)
	assert.Equal(t, []string{"missing"}, failed)
}

func TestExec_NotifiesSuccess(t *testing.T) {
	q := quietQueue("q").Add("double", func(n int) int { return n * 2 })

	var got core.Result
	var gotName string
	q.OnJobSuccess(func(name string, r core.Result) {
		gotName = name
		got = r
	})

	res := q.Exec(context.Background(), "double", 21)

	assert.True(t, res.Status)
	assert.Equal(t, 42, res.Data)
	assert.Equal(t, "double", gotName)
	assert.Equal(t, res, got)
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_OrderMatchesRegistration(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	q := quietQueue("q")
	names := []string{"e", "b", "d", "a", "c"}
	for _, n := range names {
		q.Add(n, recordingAction(&mu, &calls, nil, n, false))
	}

	res := q.Run(context.Background(), nil)

	assert.Equal(t, names, calls)
	require.Equal(t, len(names), res.Len())
	for i, n := range names {
		assert.Equal(t, n, res.Jobs[i].Name)
	}
}

func TestRun_WithoutPipingEveryJobSeesInput(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var inputs []any
	q := quietQueue("q").
		Add("a", recordingAction(&mu, &calls, &inputs, "a", "from-a")).
		Add("b", recordingAction(&mu, &calls, &inputs, "b", "from-b")).
		Add("c", recordingAction(&mu, &calls, &inputs, "c", "from-c"))

	res := q.Run(context.Background(), "original")

	assert.Equal(t, []any{"original", "original", "original"}, inputs)
	assert.Equal(t, "original", res.Data)
	assert.Equal(t, "original", res.Input)
}

func TestRun_PipingCarriesData(t *testing.T) {
	q := quietQueue("q", Piping(true)).
		Add("inc", func(n int) int { return n + 1 }).
		Add("double", func(n int) int { return n * 2 }).
		Add("square", func(n int) int { return n * n })

	res := q.Run(context.Background(), 2)

	assert.Equal(t, 36, res.Data)
	assert.Equal(t, 2, res.Input)
	r, ok := res.Get("double")
	require.True(t, ok)
	assert.Equal(t, 6, r.Data)
}

func TestRun_PipingFallsBackWhenNoData(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var inputs []any
	q := quietQueue("q", Piping(true)).
		Add("a", recordingAction(&mu, &calls, &inputs, "a", "from-a")).
		Add("b", recordingAction(&mu, &calls, &inputs, "b", false)).
		Add("c", recordingAction(&mu, &calls, &inputs, "c", "from-c"))

	res := q.Run(context.Background(), "original")

	assert.Equal(t, []any{"original", "from-a", "from-a"}, inputs)
	assert.Equal(t, "from-c", res.Data)
}

func TestRun_FirstResultStopsAtFirstSuccess(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var successes []*core.RunResults
	q := quietQueue("q",
		FirstResult(true),
		OnSuccess(func(_ context.Context, r *core.RunResults) { successes = append(successes, r) }),
	).
		Add("a", recordingAction(&mu, &calls, nil, "a", false)).
		Add("b", recordingAction(&mu, &calls, nil, "b", "ok")).
		Add("c", recordingAction(&mu, &calls, nil, "c", "never"))

	var queueSuccess int
	q.OnQueueSuccess(func(*core.RunResults) { queueSuccess++ })

	res := q.Run(context.Background(), nil)

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.True(t, res.Status)
	assert.True(t, res.Early)
	assert.Equal(t, 2, res.Len())
	assert.Equal(t, 1, queueSuccess)
	require.Len(t, successes, 1)
	assert.Equal(t, 2, successes[0].Len())
}

func TestRun_WithoutFirstResultRunsAll(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	q := quietQueue("q").
		Add("a", recordingAction(&mu, &calls, nil, "a", "yes")).
		Add("b", recordingAction(&mu, &calls, nil, "b", "yes")).
		Add("c", recordingAction(&mu, &calls, nil, "c", false))

	res := q.Run(context.Background(), nil)

	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.True(t, res.Status)
	assert.False(t, res.Early)
}

func TestRun_AggregateFailure(t *testing.T) {
	var fails, successes int
	var failedRun *core.RunResults
	q := quietQueue("q",
		OnSuccess(func(context.Context, *core.RunResults) { successes++ }),
		OnFail(func(_ context.Context, r *core.RunResults) {
			fails++
			failedRun = r
		}),
	).
		Add("a", func() bool { return false }).
		Add("b", func() (string, error) { return "", errors.New("nope") })

	var queueFail, queueSuccess int
	q.OnQueueFail(func(*core.RunResults) { queueFail++ })
	q.OnQueueSuccess(func(*core.RunResults) { queueSuccess++ })

	res := q.Run(context.Background(), "in")

	assert.False(t, res.Status)
	assert.Equal(t, 2, res.Len())
	assert.Equal(t, 1, fails)
	assert.Equal(t, 0, successes)
	assert.Equal(t, 1, queueFail)
	assert.Equal(t, 0, queueSuccess)
	require.NotNil(t, failedRun)
	assert.Equal(t, "in", failedRun.Data)
}

func TestRun_EmptyQueueFails(t *testing.T) {
	var fails int
	q := quietQueue("q", OnFail(func(context.Context, *core.RunResults) { fails++ }))

	res := q.Run(context.Background(), nil)

	assert.False(t, res.Status)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 1, fails)
}

func TestRun_FailingJobDoesNotStopRun(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	q := quietQueue("q").
		Add("explode", func(any) int { panic(errors.New("boom")) }).
		Add("error", func(any) error { return errors.New("bad input") }).
		Add("after", recordingAction(&mu, &calls, nil, "after", "done"))

	res := q.Run(context.Background(), nil)

	assert.Equal(t, []string{"after"}, calls)
	r, _ := res.Get("explode")
	assert.False(t, r.Status)
	assert.Contains(t, r.Msg, "boom")
	r, _ = res.Get("error")
	assert.False(t, r.Status)
	assert.Equal(t, "bad input", r.Msg)
	assert.True(t, res.Status)
}

func TestRun_Scenario(t *testing.T) {
	var successes int
	q := quietQueue("q",
		OnSuccess(func(context.Context, *core.RunResults) { successes++ }),
	).
		Add("a", func(any) bool { return false }).
		Add("b", func(any) string { return "ok" })

	res := q.Run(context.Background(), nil)

	require.Equal(t, 2, res.Len())
	assert.Equal(t, core.Result{Job: "a", Status: false}, res.Jobs[0].Result)
	assert.Equal(t, core.Result{Job: "b", Status: true, Data: "ok"}, res.Jobs[1].Result)
	assert.True(t, res.Status)
	assert.Equal(t, 1, successes)
}

func TestRun_ScenarioFirstResult(t *testing.T) {
	var cRan bool
	q := quietQueue("q", FirstResult(true)).
		Add("a", func(any) bool { return false }).
		Add("b", func(any) string { return "ok" }).
		Add("c", func(any) bool {
			cRan = true
			return true
		})

	res := q.Run(context.Background(), nil)

	assert.Equal(t, 2, res.Len())
	assert.False(t, res.Jobs[0].Result.Status)
	assert.True(t, res.Jobs[1].Result.Status)
	assert.False(t, cRan)
}

func TestRun_ResultsHoldsLatestRun(t *testing.T) {
	calls := 0
	q := quietQueue("q").Add("count", func() int {
		calls++
		return calls
	})

	assert.Nil(t, q.Results())

	first := q.Run(context.Background(), nil)
	second := q.Run(context.Background(), nil)

	latest := q.Results()
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.NotEqual(t, first.ID, latest.ID)
	r, _ := latest.Get("count")
	assert.Equal(t, 2, r.Data)
}

func TestRun_PanickingListenerDoesNotAbort(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	q := quietQueue("q").
		Add("a", recordingAction(&mu, &calls, nil, "a", "x")).
		Add("b", recordingAction(&mu, &calls, nil, "b", "y"))

	q.OnJobSuccess(func(string, core.Result) { panic("listener") })
	q.OnQueueSuccess(func(*core.RunResults) { panic("listener") })

	var res *core.RunResults
	assert.NotPanics(t, func() {
		res = q.Run(context.Background(), nil)
	})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.True(t, res.Status)
}

func TestRun_ListenerRemoval(t *testing.T) {
	q := quietQueue("q").Add("a", func() bool { return true })

	var count int
	remove := q.OnJobSuccess(func(string, core.Result) { count++ })

	q.Run(context.Background(), nil)
	remove()
	q.Run(context.Background(), nil)

	assert.Equal(t, 1, count)
}

func TestRun_Recorder(t *testing.T) {
	rec := &mockRecorder{}
	q := quietQueue("q", WithRecorder(rec)).Add("a", func() bool { return true })

	res := q.Run(context.Background(), nil)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, res.ID, rec.runs[0].ID)
	assert.Equal(t, "q", rec.runs[0].Queue)
}

func TestRun_RecorderErrorIsLogged(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	q := quietQueue("q", WithRecorder(rec)).Add("a", func() bool { return true })

	res := q.Run(context.Background(), nil)

	assert.True(t, res.Status)
	assert.Equal(t, 1, rec.count())
}

func TestRun_SerializesConcurrentRuns(t *testing.T) {
	var active, maxActive int
	var mu sync.Mutex
	q := quietQueue("q").Add("slow", func() bool {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		for i := 0; i < 1000; i++ {
			_ = i * i
		}

		mu.Lock()
		active--
		mu.Unlock()
		return true
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Run(context.Background(), nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestRun_CallbackCanRerunQueue(t *testing.T) {
	var q *Queue
	var retried *core.RunResults
	q = quietQueue("retry",
		OnFail(func(ctx context.Context, res *core.RunResults) {
			if res.Input == "second" {
				return
			}
			retried = q.Run(ctx, "second")
		}),
	).Add("never", func(string) bool { return false })

	var listenerRun *core.RunResults
	q.OnQueueFail(func(res *core.RunResults) {
		if res.Input == "first" && listenerRun == nil {
			listenerRun = q.Run(context.Background(), "second")
		}
	})

	done := make(chan *core.RunResults)
	go func() { done <- q.Run(context.Background(), "first") }()

	select {
	case res := <-done:
		assert.Equal(t, "first", res.Input)
	case <-time.After(2 * time.Second):
		t.Fatal("Run called from a callback did not return")
	}
	require.NotNil(t, retried)
	assert.Equal(t, "second", retried.Input)
	require.NotNil(t, listenerRun)
	assert.Equal(t, "second", q.Results().Input)
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func TestEvents(t *testing.T) {
	q := quietQueue("q").
		Add("a", func() bool { return false }).
		Add("b", func() bool { return true })

	events := q.Events()
	defer q.Unsubscribe(events)

	q.Run(context.Background(), nil)

	require.Len(t, events, 3)
	jf, ok := (<-events).(*core.JobFailed)
	require.True(t, ok)
	assert.Equal(t, "a", jf.Job)
	js, ok := (<-events).(*core.JobSucceeded)
	require.True(t, ok)
	assert.Equal(t, "b", js.Job)
	qs, ok := (<-events).(*core.QueueSucceeded)
	require.True(t, ok)
	assert.Equal(t, 2, qs.Results.Len())
}

func TestUnsubscribe(t *testing.T) {
	q := quietQueue("q").Add("a", func() bool { return true })

	events := q.Events()
	q.Unsubscribe(events)

	q.Run(context.Background(), nil)

	assert.Len(t, events, 0)
}
