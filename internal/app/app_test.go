package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/pickpack/internal/config"
	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
)

const testCatalog = `
categories:
  - name: Tools
    packages:
      - name: Git
        id: Git.Git
`

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	dir := t.TempDir()

	catPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catPath, []byte(testCatalog), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("tool: pickpack-no-such-tool\ncatalog: %s\nlockfile: %s\n",
		catPath, filepath.Join(dir, "pickpack.lock"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	mgr := config.NewManager(cfgPath)
	require.NoError(t, mgr.Load(nil))

	a, err := New(mgr, zerolog.Nop())
	require.NoError(t, err)
	return a, catPath
}

func waitFor(t *testing.T, ch <-chan events.Event, typ events.Type) events.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event stream closed while waiting for %s", typ)
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestApp_LoadsConfiguredCatalog(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, 1, a.Catalog.Len())
	assert.False(t, a.Runner.RequireUserInput())
}

func TestApp_MissingCatalog(t *testing.T) {
	mgr := config.NewManager(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, mgr.LoadSources(&config.DefaultSource{}))
	require.NoError(t, mgr.Set("catalog", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := New(mgr, zerolog.Nop())
	assert.Error(t, err)
}

func TestApp_LaunchFailureIsReportedAsFailedJob(t *testing.T) {
	a, _ := newTestApp(t)
	sub := a.EventBroker.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, false))

	batch, err := a.Coordinator.StartBatch(a.Catalog.All(), job.Install)
	require.NoError(t, err)

	ev := waitFor(t, sub, events.JobFinishedEvent)
	res := ev.Payload.(events.JobFinishedPayload).Result
	assert.Equal(t, job.FailedLaunch, res.Outcome)

	ev = waitFor(t, sub, events.ControlsEnabledEvent)
	p := ev.Payload.(events.BatchPayload)
	assert.Equal(t, batch.ID, p.BatchID)
	assert.Equal(t, 1, p.Progress.Failed)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	require.NoError(t, a.Shutdown(shutdownCtx))
}

func TestApp_CatalogReloadPublished(t *testing.T) {
	a, catPath := newTestApp(t)
	sub := a.EventBroker.Subscribe(events.CatalogReloadedEvent, events.CatalogErrorEvent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, true))

	// Give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)
	updated := testCatalog + `      - name: 7-Zip
        id: 7zip.7zip
`
	require.NoError(t, os.WriteFile(catPath, []byte(updated), 0o644))

	ev := waitFor(t, sub, events.CatalogReloadedEvent)
	assert.Equal(t, 2, ev.Payload.(events.CatalogPayload).Catalog.Len())

	require.NoError(t, os.WriteFile(catPath, []byte("categories: []\n"), 0o644))
	ev = waitFor(t, sub, events.CatalogErrorEvent)
	assert.Error(t, ev.Payload.(events.ErrorPayload).Err)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	require.NoError(t, a.Shutdown(shutdownCtx))
}
