package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/queue"
)

// stubRunner fails the packages listed in fail and records every run.
type stubRunner struct {
	mu    sync.Mutex
	fail  map[string]bool
	delay map[string]time.Duration
	gates map[string]chan struct{}
	ran   []string
}

func (s *stubRunner) Run(ctx context.Context, req job.Request, sink queue.LineSink) job.Result {
	if g, ok := s.gates[req.PackageID]; ok {
		<-g
	}
	if d := s.delay[req.PackageID]; d > 0 {
		time.Sleep(d)
	}
	s.mu.Lock()
	s.ran = append(s.ran, req.PackageID)
	s.mu.Unlock()

	sink("running " + req.PackageID)
	if s.fail[req.PackageID] {
		return job.Result{Outcome: job.FailedExit, ExitCode: 1}
	}
	return job.Result{Outcome: job.Succeeded}
}

func (s *stubRunner) runs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ran...)
}

func packages(ids ...string) []catalog.Package {
	pkgs := make([]catalog.Package, len(ids))
	for i, id := range ids {
		pkgs[i] = catalog.Package{Name: "Pkg " + id, ID: id}
	}
	return pkgs
}

func setup(t *testing.T, r queue.Runner) (*Coordinator, <-chan events.Event) {
	t.Helper()
	broker := events.NewBroker()
	sub := broker.Subscribe()
	c := New(r, broker, zerolog.Nop())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() {
		c.Shutdown()
		go func() {
			for range sub {
			}
		}()
		<-c.Done()
	})
	return c, sub
}

// collect gathers events until the batch's ControlsEnabled arrives.
func collect(t *testing.T, sub <-chan events.Event, batchID string) []events.Event {
	t.Helper()
	var got []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sub:
			require.True(t, ok, "event stream closed early")
			got = append(got, ev)
			if ev.Type == events.ControlsEnabledEvent && ev.Payload.(events.BatchPayload).BatchID == batchID {
				return got
			}
		case <-timeout:
			t.Fatalf("batch %s did not finish", batchID)
		}
	}
}

func finished(evs []events.Event) []events.JobFinishedPayload {
	var out []events.JobFinishedPayload
	for _, ev := range evs {
		if ev.Type == events.JobFinishedEvent {
			out = append(out, ev.Payload.(events.JobFinishedPayload))
		}
	}
	return out
}

func currentBatch(c *Coordinator) (Batch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.batches[c.current]
	if !ok {
		return Batch{}, false
	}
	return *b, true
}

func trackedBatches(c *Coordinator) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func TestStartBatch_FourJobsOneFailure(t *testing.T) {
	r := &stubRunner{fail: map[string]bool{"c": true}}
	c, sub := setup(t, r)

	b, err := c.StartBatch(packages("a", "b", "c", "d"), job.Install)
	require.NoError(t, err)
	assert.Equal(t, job.Progress{Total: 4}, b.Progress)
	assert.False(t, c.ControlsEnabled())

	evs := collect(t, sub, b.ID)
	fin := finished(evs)
	require.Len(t, fin, 4)

	var percents []int
	for _, f := range fin {
		p := f.Progress
		assert.Equal(t, p.Completed, p.Succeeded+p.Failed)
		assert.LessOrEqual(t, p.Completed, p.Total)
		percents = append(percents, p.Percent())
	}
	assert.Equal(t, []int{25, 50, 75, 100}, percents)

	last := fin[3].Progress
	assert.Equal(t, 3, last.Succeeded)
	assert.Equal(t, 1, last.Failed)
	assert.Equal(t, "3/4 — Pkg c", fin[2].Status)
	assert.False(t, fin[2].Result.OK())
	assert.Equal(t, []string{"running c"}, fin[2].Result.Output)

	assert.True(t, c.ControlsEnabled())
	cur, ok := currentBatch(c)
	require.True(t, ok)
	assert.Equal(t, last, cur.Progress, "progress is not reset when controls re-enable")
}

func TestStartBatch_EventOrderPerJob(t *testing.T) {
	c, sub := setup(t, &stubRunner{})

	b, err := c.StartBatch(packages("a", "b"), job.Uninstall)
	require.NoError(t, err)

	var types []events.Type
	for _, ev := range collect(t, sub, b.ID) {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []events.Type{
		events.JobStartedEvent, events.JobOutputEvent, events.JobFinishedEvent,
		events.JobStartedEvent, events.JobOutputEvent, events.JobFinishedEvent,
		events.ControlsEnabledEvent,
	}, types)
}

func TestStartBatch_FIFORegardlessOfDuration(t *testing.T) {
	r := &stubRunner{delay: map[string]time.Duration{"slow": 80 * time.Millisecond}}
	c, sub := setup(t, r)

	b, err := c.StartBatch(packages("slow", "fast", "faster"), job.Install)
	require.NoError(t, err)

	var order []string
	for _, f := range finished(collect(t, sub, b.ID)) {
		order = append(order, f.Result.Job.PackageID)
	}
	assert.Equal(t, []string{"slow", "fast", "faster"}, order)
}

func TestStartBatch_Empty(t *testing.T) {
	r := &stubRunner{}
	c, sub := setup(t, r)

	b, err := c.StartBatch(nil, job.Install)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Progress.Total)

	evs := collect(t, sub, b.ID)
	require.Len(t, evs, 1)
	p := evs[0].Payload.(events.BatchPayload).Progress
	assert.Equal(t, 0, p.Percent())
	assert.Empty(t, r.runs())
	assert.True(t, c.ControlsEnabled())
}

func TestStartBatch_LateCompletionUpdatesOwnBatch(t *testing.T) {
	r := &stubRunner{gates: map[string]chan struct{}{
		"a": make(chan struct{}),
		"c": make(chan struct{}),
	}}
	c, sub := setup(t, r)

	first, err := c.StartBatch(packages("a", "b"), job.Install)
	require.NoError(t, err)
	second, err := c.StartBatch(packages("c"), job.Uninstall)
	require.NoError(t, err)

	cur, _ := currentBatch(c)
	assert.Equal(t, second.ID, cur.ID)
	assert.Eventually(t, func() bool { return c.Pending() == 2 }, time.Second, 5*time.Millisecond,
		"b and c wait behind a")
	close(r.gates["a"])

	evs := collect(t, sub, first.ID)
	for _, f := range finished(evs) {
		assert.Equal(t, first.ID, f.Result.Job.BatchID)
		assert.Equal(t, 2, f.Progress.Total)
	}
	assert.False(t, c.ControlsEnabled(), "an older batch finishing does not re-enable controls")

	close(r.gates["c"])
	fin := finished(collect(t, sub, second.ID))
	require.Len(t, fin, 1)
	assert.Equal(t, job.Progress{Total: 1, Completed: 1, Succeeded: 1}, fin[0].Progress)
	assert.True(t, c.ControlsEnabled())
}

func TestStartBatch_DropsDrainedPredecessors(t *testing.T) {
	c, sub := setup(t, &stubRunner{})

	var last Batch
	for i := 0; i < 5; i++ {
		b, err := c.StartBatch(packages("a", "b"), job.Install)
		require.NoError(t, err)
		collect(t, sub, b.ID)
		last = b
	}

	assert.Equal(t, 1, trackedBatches(c), "only the current batch is kept")
	cur, ok := currentBatch(c)
	require.True(t, ok)
	assert.Equal(t, last.ID, cur.ID)
	assert.Equal(t, 2, cur.Progress.Completed, "finished progress stays visible until the next batch")
	assert.Equal(t, 0, c.Pending())
}

func TestShutdown_AfterJobsRunsThemFirst(t *testing.T) {
	r := &stubRunner{}
	broker := events.NewBroker()
	sub := broker.Subscribe()
	c := New(r, broker, zerolog.Nop())

	_, err := c.StartBatch(packages("a", "b", "c"), job.Install)
	require.NoError(t, err)
	c.Shutdown()
	require.NoError(t, c.Start(context.Background()))

	var last events.Event
	for ev := range sub {
		last = ev
	}
	<-c.Done()

	assert.Equal(t, []string{"a", "b", "c"}, r.runs())
	assert.Equal(t, events.WorkerStoppedEvent, last.Type)
	assert.Equal(t, 0, last.Payload.(events.WorkerStoppedPayload).Dropped)
}

func TestShutdown_BeforeJobsDiscardsThem(t *testing.T) {
	r := &stubRunner{}
	broker := events.NewBroker()
	sub := broker.Subscribe()
	c := New(r, broker, zerolog.Nop())

	c.Shutdown()
	_, err := c.StartBatch(packages("a", "b"), job.Install)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	var got []events.Event
	for ev := range sub {
		got = append(got, ev)
	}
	<-c.Done()

	assert.Empty(t, r.runs())
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Payload.(events.WorkerStoppedPayload).Dropped)

	_, err = c.StartBatch(packages("x"), job.Install)
	assert.ErrorIs(t, err, queue.ErrClosed)
	assert.True(t, c.ControlsEnabled())
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "1/3 — Git", StatusText(1, 3, "Git"))
}
