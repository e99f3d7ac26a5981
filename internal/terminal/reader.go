package terminal

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/openclaw/desktopd/internal/events"
	"github.com/openclaw/desktopd/internal/monitoring"
)

const (
	// readChunkSize is how many bytes one blocking read may return.
	readChunkSize = 8 * 1024

	// maxLeftover caps the reassembly buffer. Sustained binary output
	// that never reaches a valid text boundary is flushed lossily once
	// the buffer grows past this, so memory stays bounded.
	maxLeftover = 64 * 1024
)

// replacement substitutes undecodable sequences on lossy flushes.
const replacement = "�"

// runReader pumps one session's output until the stream ends. Each read
// chunk is appended to a leftover buffer and the longest valid UTF-8
// prefix is emitted as a data event, so a multi-byte character split
// across a read boundary still arrives whole. The loop emits exactly one
// status event when it exits: stopped on a clean end of stream, error
// with the failure text otherwise.
func runReader(sessionID uint64, r io.Reader, emitter events.Emitter, metrics *monitoring.Metrics) {
	buf := make([]byte, readChunkSize)
	var leftover []byte
	var readErr error

	for {
		n, err := r.Read(buf)
		if n > 0 {
			metrics.AddOutputBytes(n)
			leftover = append(leftover, buf[:n]...)

			if len(leftover) > maxLeftover {
				emitter.EmitData(sessionID, strings.ToValidUTF8(string(leftover), replacement))
				metrics.IncDataEvents()
				metrics.IncLossyFlushes()
				leftover = leftover[:0]
			} else if valid := validPrefixLen(leftover); valid > 0 {
				emitter.EmitData(sessionID, string(leftover[:valid]))
				metrics.IncDataEvents()
				leftover = append(leftover[:0], leftover[valid:]...)
			}
		}
		if err != nil {
			if !isCleanClose(err) {
				readErr = err
			}
			break
		}
	}

	// Flush whatever never resolved to a clean boundary.
	if len(leftover) > 0 {
		emitter.EmitData(sessionID, strings.ToValidUTF8(string(leftover), replacement))
		metrics.IncDataEvents()
	}

	if readErr != nil {
		emitter.EmitStatus(sessionID, events.StatusError, readErr.Error())
	} else {
		emitter.EmitStatus(sessionID, events.StatusStopped, "")
	}
}

// validPrefixLen returns the length of the longest prefix of b that is
// valid UTF-8. A trailing partial rune (or a flat-out invalid byte)
// stops the scan; DecodeRune reports both as (RuneError, size<=1),
// whereas a literal U+FFFD in the input decodes with size 3 and passes
// through.
func validPrefixLen(b []byte) int {
	n := 0
	for n < len(b) {
		r, size := utf8.DecodeRune(b[n:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		n += size
	}
	return n
}

// isCleanClose reports whether a read failure is the normal end of a PTY
// stream rather than an I/O fault. Linux reports EIO on the controlling
// side once the child side is fully closed, and teardown closes the
// descriptor out from under a blocked read.
func isCleanClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, os.ErrClosed)
}
