package terminal

import (
	"errors"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/openclaw/desktopd/internal/events"
	"github.com/openclaw/desktopd/internal/logging"
	"github.com/openclaw/desktopd/internal/monitoring"
	"github.com/openclaw/desktopd/internal/shared/errs"
	"github.com/openclaw/desktopd/internal/shared/id"
)

// Registry owns every live PTY session. Its lock guards only the map:
// it is never held across a blocking read, write, resize, or wait, so a
// wedged session cannot stall operations on any other session.
type Registry struct {
	log     *logging.Logger
	emitter events.Emitter
	metrics *monitoring.Metrics
	ids     *id.Allocator

	mu       sync.RWMutex
	sessions map[uint64]*Session
	closed   bool
}

// NewRegistry creates an empty session registry.
func NewRegistry(log *logging.Logger, emitter events.Emitter, metrics *monitoring.Metrics) *Registry {
	return &Registry{
		log:      log,
		emitter:  emitter,
		metrics:  metrics,
		ids:      id.NewAllocator(),
		sessions: make(map[uint64]*Session),
	}
}

// Spawn starts spec's child attached to a fresh PTY sized (rows, cols),
// starts its output pump, registers the session, and returns its id.
// The PTY's child-facing side is released as soon as the child holds it,
// so end-of-stream propagates once every holder (including detached
// grandchildren) lets go.
func (r *Registry) Spawn(spec Spec, cols, rows uint16) (uint64, error) {
	if cols == 0 || rows == 0 {
		return 0, errs.InvalidArgumentf("terminal size %dx%d", cols, rows)
	}

	sid := r.ids.Next()

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.envSlice()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return 0, errs.OSResource("start pty", err)
	}

	s := &Session{
		ID:         sid,
		Command:    spec.Command,
		Args:       append([]string(nil), spec.Args...),
		StartedAt:  time.Now(),
		cmd:        cmd,
		handle:     &ptyHandle{ptmx: ptmx},
		reaped:     make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	go s.reap()
	go func() {
		runReader(sid, ptmx, r.emitter, r.metrics)
		close(s.readerDone)
	}()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.teardown()
		return 0, errs.OSResource("spawn session", errors.New("registry is shut down"))
	}
	r.sessions[sid] = s
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.IncSessionsSpawned()
	r.metrics.SetSessionsActive(count)
	r.log.Info("session spawned",
		zap.Uint64("session_id", sid),
		zap.String("command", spec.Command),
		zap.Strings("args", spec.Args))

	return sid, nil
}

// Write sends bytes to a session's PTY. The registry lock is dropped
// before the write, which blocks only on the session's own write lock.
func (r *Registry) Write(sessionID uint64, data []byte) error {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return errs.NotFoundf("session %d", sessionID)
	}

	n, err := s.handle.write(data)
	if err != nil {
		return errs.IO("write to session", err)
	}
	r.metrics.AddWriteBytes(n)
	return nil
}

// Resize updates a session's terminal dimensions.
func (r *Registry) Resize(sessionID uint64, cols, rows uint16) error {
	if cols == 0 || rows == 0 {
		return errs.InvalidArgumentf("terminal size %dx%d", cols, rows)
	}

	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return errs.NotFoundf("session %d", sessionID)
	}

	if err := s.handle.resize(cols, rows); err != nil {
		return errs.OSResource("resize session", err)
	}
	return nil
}

// Kill terminates one session, or every live session when sessionID is
// the kill-all sentinel (0). Each victim is removed from the registry
// first, then torn down; killing an unknown id is a no-op. Idempotent.
func (r *Registry) Kill(sessionID uint64) {
	var victims []*Session

	r.mu.Lock()
	if sessionID == id.KillAllSentinel {
		for sid, s := range r.sessions {
			victims = append(victims, s)
			delete(r.sessions, sid)
		}
	} else if s, ok := r.sessions[sessionID]; ok {
		victims = append(victims, s)
		delete(r.sessions, sessionID)
	}
	count := len(r.sessions)
	r.mu.Unlock()

	for _, s := range victims {
		s.teardown()
		r.metrics.IncSessionsKilled()
		r.log.Info("session killed", zap.Uint64("session_id", s.ID))
	}
	if len(victims) > 0 {
		r.metrics.SetSessionsActive(count)
	}
}

// List returns every registered session, ordered by id.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close kills every live session and rejects further spawns. Called on
// daemon shutdown so no child outlives the process supervising it.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.Kill(id.KillAllSentinel)
}
