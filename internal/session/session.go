// Package session persists conversations per terminal session. Each
// terminal window gets its own conversation, keyed by the shell's process
// id, so two side-by-side terminals never share history.
package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// TerminalSessionID derives a stable identifier for the current terminal
// window from the parent (shell) process id. When the parent is unknown
// the process's own pid keeps the id unique.
func TerminalSessionID() string {
	pid := os.Getppid()
	if pid <= 1 {
		pid = os.Getpid()
	}
	return fmt.Sprintf("session_%d", pid)
}

// sessionPID extracts the process id embedded in a session identifier.
func sessionPID(id string) (int, bool) {
	raw, ok := strings.CutPrefix(id, "session_")
	if !ok {
		return 0, false
	}
	pid, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pid, true
}

// processAlive reports whether the process behind a session still exists.
// Signal 0 performs the existence check without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return err == syscall.EPERM
}
