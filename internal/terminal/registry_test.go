package terminal

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/desktopd/internal/logging"
	"github.com/openclaw/desktopd/internal/shared/errs"
	"github.com/openclaw/desktopd/internal/shared/id"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PTY sessions are unix-only")
	}
}

func newTestRegistry(t *testing.T) (*Registry, *recorder) {
	t.Helper()
	rec := &recorder{}
	reg := NewRegistry(logging.NewNop(), rec, nil)
	t.Cleanup(reg.Close)
	return reg, rec
}

func waitForData(t *testing.T, rec *recorder, sessionID uint64, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(rec.joined(sessionID), substr)
	}, 5*time.Second, 10*time.Millisecond, "output never contained %q", substr)
}

func waitForStatus(t *testing.T, rec *recorder, sessionID uint64) recordedStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(rec.statusesFor(sessionID)) > 0
	}, 5*time.Second, 10*time.Millisecond, "no status event for session %d", sessionID)

	statuses := rec.statusesFor(sessionID)
	require.Len(t, statuses, 1)
	return statuses[0]
}

func TestSpawnEmitsOutputAndStops(t *testing.T) {
	skipOnWindows(t)
	reg, rec := newTestRegistry(t)

	sid, err := reg.Spawn(Spec{
		Command: "/bin/sh",
		Args:    []string{"-c", "printf 'hello from pty'"},
		Env:     map[string]string{},
	}, 80, 24)
	require.NoError(t, err)
	require.NotZero(t, sid)

	waitForData(t, rec, sid, "hello from pty")

	status := waitForStatus(t, rec, sid)
	assert.Equal(t, "stopped", status.status)
	assert.Empty(t, status.errorMessage)

	// The child exited on its own; the session stays registered until
	// killed, but is reported inactive.
	require.Eventually(t, func() bool {
		infos := reg.List()
		return len(infos) == 1 && !infos[0].Active
	}, 5*time.Second, 10*time.Millisecond)

	reg.Kill(sid)
	assert.Zero(t, reg.Count())
}

func TestWritePreservesOrder(t *testing.T) {
	skipOnWindows(t)
	reg, rec := newTestRegistry(t)

	sid, err := reg.Spawn(Spec{
		Command: "/bin/cat",
		Env:     map[string]string{},
	}, 80, 24)
	require.NoError(t, err)

	require.NoError(t, reg.Write(sid, []byte("one\n")))
	waitForData(t, rec, sid, "one")

	require.NoError(t, reg.Write(sid, []byte("two\n")))
	waitForData(t, rec, sid, "two")

	joined := rec.joined(sid)
	assert.Less(t, strings.Index(joined, "one"), strings.Index(joined, "two"))

	reg.Kill(sid)
	status := waitForStatus(t, rec, sid)
	assert.Equal(t, "stopped", status.status)
}

func TestWriteUnknownSession(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.Write(42, []byte("anyone there?"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestKillThenWrite(t *testing.T) {
	skipOnWindows(t)
	reg, _ := newTestRegistry(t)

	sid, err := reg.Spawn(Spec{Command: "/bin/cat", Env: map[string]string{}}, 80, 24)
	require.NoError(t, err)

	reg.Kill(sid)

	err = reg.Write(sid, []byte("too late"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSpawnRejectsZeroSize(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Spawn(Spec{Command: "/bin/cat"}, 0, 24)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = reg.Spawn(Spec{Command: "/bin/cat"}, 80, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	assert.Zero(t, reg.Count())
}

func TestSpawnMissingBinary(t *testing.T) {
	skipOnWindows(t)
	reg, _ := newTestRegistry(t)

	_, err := reg.Spawn(Spec{
		Command: "/no/such/binary",
		Env:     map[string]string{},
	}, 80, 24)
	assert.ErrorIs(t, err, errs.ErrOSResource)
	assert.Zero(t, reg.Count())
}

func TestResize(t *testing.T) {
	skipOnWindows(t)
	reg, _ := newTestRegistry(t)

	sid, err := reg.Spawn(Spec{Command: "/bin/cat", Env: map[string]string{}}, 80, 24)
	require.NoError(t, err)

	assert.NoError(t, reg.Resize(sid, 120, 40))

	err = reg.Resize(sid, 0, 40)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	err = reg.Resize(sid+1000, 120, 40)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestKillUnknownIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Kill(12345)
	reg.Kill(id.KillAllSentinel)
}

func TestKillAllTerminatesEverySession(t *testing.T) {
	skipOnWindows(t)
	reg, rec := newTestRegistry(t)

	seen := make(map[uint64]bool)
	for i := 0; i < 3; i++ {
		sid, err := reg.Spawn(Spec{Command: "/bin/cat", Env: map[string]string{}}, 80, 24)
		require.NoError(t, err)
		require.NotZero(t, sid)
		require.False(t, seen[sid], "duplicate session id %d", sid)
		seen[sid] = true
	}
	require.Equal(t, 3, reg.Count())

	reg.Kill(id.KillAllSentinel)

	assert.Zero(t, reg.Count())

	// Teardown joins each reader before returning, so every session's
	// single status event has already been emitted.
	for sid := range seen {
		statuses := rec.statusesFor(sid)
		require.Len(t, statuses, 1, "session %d", sid)
		assert.Equal(t, "stopped", statuses[0].status)
	}
}

func TestListOrderedByID(t *testing.T) {
	skipOnWindows(t)
	reg, _ := newTestRegistry(t)

	first, err := reg.Spawn(Spec{Command: "/bin/cat", Env: map[string]string{}}, 80, 24)
	require.NoError(t, err)
	second, err := reg.Spawn(Spec{Command: "/bin/cat", Env: map[string]string{}}, 80, 24)
	require.NoError(t, err)

	infos := reg.List()
	require.Len(t, infos, 2)
	assert.Equal(t, first, infos[0].ID)
	assert.Equal(t, second, infos[1].ID)
	for _, info := range infos {
		assert.Equal(t, "/bin/cat", info.Command)
		assert.True(t, info.Active)
		assert.False(t, info.StartedAt.IsZero())
	}
}

func TestCloseRejectsSpawn(t *testing.T) {
	skipOnWindows(t)
	reg, _ := newTestRegistry(t)

	reg.Close()

	_, err := reg.Spawn(Spec{Command: "/bin/cat", Env: map[string]string{}}, 80, 24)
	assert.ErrorIs(t, err, errs.ErrOSResource)
	assert.Zero(t, reg.Count())
}

func TestEnvSliceIsExplicit(t *testing.T) {
	sp := Spec{Env: map[string]string{"B": "2", "A": "1"}}
	assert.Equal(t, []string{"A=1", "B=2"}, sp.envSlice())

	// Empty but non-nil, so exec never falls back to the parent env.
	empty := Spec{Env: map[string]string{}}
	got := empty.envSlice()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
