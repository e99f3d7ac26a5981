package terminal

import (
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/creack/pty"
)

// Spec is a fully resolved child invocation: binary, arguments, working
// directory, and a complete environment. The environment is explicit —
// the child inherits nothing that is not listed here. A Spec is built
// once per spawn and never mutated afterwards.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
}

// envSlice flattens the environment for exec. Keys are sorted so the
// child sees a stable layout. The result is non-nil even when empty,
// which is what keeps exec from falling back to the parent environment.
func (sp Spec) envSlice() []string {
	keys := make([]string, 0, len(sp.Env))
	for k := range sp.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+sp.Env[k])
	}
	return env
}

// ptyHandle shares the PTY controlling side between writers, resizers,
// and teardown. Writes and resizes serialize on their own locks so a
// blocked write never delays a resize, and neither ever runs under the
// registry lock. Closing does not take the write lock: closing the
// descriptor is exactly how a blocked write or read gets unstuck.
type ptyHandle struct {
	ptmx *os.File

	writeMu sync.Mutex
	ctrlMu  sync.Mutex
}

func (h *ptyHandle) write(data []byte) (int, error) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.ptmx.Write(data)
}

func (h *ptyHandle) resize(cols, rows uint16) error {
	h.ctrlMu.Lock()
	defer h.ctrlMu.Unlock()
	return pty.Setsize(h.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

func (h *ptyHandle) close() {
	h.ctrlMu.Lock()
	defer h.ctrlMu.Unlock()
	h.ptmx.Close()
}

// Session is one live child process attached to a pseudo-terminal.
type Session struct {
	ID        uint64
	Command   string
	Args      []string
	StartedAt time.Time

	cmd    *exec.Cmd
	handle *ptyHandle

	// reaped closes once the supervising reaper has collected the child's
	// exit status; readerDone closes once the output pump has exited.
	reaped     chan struct{}
	readerDone chan struct{}
}

// reap waits for the child exactly once. It runs on its own goroutine
// from the moment the session starts, so the child is collected promptly
// whether it exits on its own or is killed, and never lingers as a
// zombie.
func (s *Session) reap() {
	_ = s.cmd.Wait()
	close(s.reaped)
}

// exited reports whether the child has been reaped.
func (s *Session) exited() bool {
	select {
	case <-s.reaped:
		return true
	default:
		return false
	}
}

// teardown releases the session's OS resources in a fixed order: kill
// and reap the child first, close the PTY descriptor second (which
// unblocks a reader stuck in a blocking read), and only then join the
// reader. The caller must already have removed the session from the
// registry so no new write or resize can find it.
func (s *Session) teardown() {
	_ = s.cmd.Process.Kill() // no-op if the child already exited
	<-s.reaped
	s.handle.close()
	<-s.readerDone
}

// Info is the public view of a session.
type Info struct {
	ID        uint64    `json:"id"`
	Command   string    `json:"command"`
	Args      []string  `json:"args"`
	StartedAt time.Time `json:"started_at"`
	Active    bool      `json:"active"`
}

func (s *Session) info() Info {
	return Info{
		ID:        s.ID,
		Command:   s.Command,
		Args:      s.Args,
		StartedAt: s.StartedAt,
		Active:    !s.exited(),
	}
}
