//go:build !windows

package process

import "syscall"

// KillTree kills a process and all of its children by signaling the
// process group (negative PID). Chrome runs its renderers and GPU
// helpers in the browser's group, so one signal sweeps them all.
func KillTree(pid int) {
	// Best-effort; the graceful browser shutdown already ran and the
	// group may be gone.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
