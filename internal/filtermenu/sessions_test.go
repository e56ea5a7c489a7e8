package filtermenu

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/shared"
)

func newTestManager() *Manager {
	return NewManager(&staticDomains{}, &stubPresets{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 50*time.Millisecond)
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager()

	id, controller, sink, err := m.Create(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, gotSink, err := m.Get(id)
	require.NoError(t, err)
	require.Same(t, controller, got)
	require.Same(t, sink, gotSink)

	_, _, err = m.Get("unknown")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestManagerSinkTracksEmissions(t *testing.T) {
	m := newTestManager()

	id, controller, sink, err := m.Create(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = m.Close(id) }()

	require.NoError(t, controller.ToggleChip(filter.FieldStatus, "ORDERED"))
	active, columns, resets := sink.State()
	require.Equal(t, []string{"ORDERED"}, active.SelectedChipIDs(filter.FieldStatus))
	require.Equal(t, filter.DefaultColumnIDs(), columns)
	require.Zero(t, resets)

	controller.Reset()
	_, _, resets = sink.State()
	require.Equal(t, 1, resets)
}

func TestManagerClose(t *testing.T) {
	m := newTestManager()

	id, _, _, err := m.Create(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, m.Close(id))
	_, _, err = m.Get(id)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, m.Close(id), shared.ErrNotFound)
}

func TestManagerPurgesIdleSessions(t *testing.T) {
	m := newTestManager()
	current := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	stale, _, _, err := m.Create(context.Background(), nil)
	require.NoError(t, err)

	current = current.Add(sessionIdleTTL + time.Minute)
	fresh, _, _, err := m.Create(context.Background(), nil)
	require.NoError(t, err)

	_, _, err = m.Get(stale)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, _, err = m.Get(fresh)
	require.NoError(t, err)
}
