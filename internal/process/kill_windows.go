//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillTree kills a process and all of its children using taskkill.
// /F = force kill, /T = terminate the whole child tree; Chrome helper
// processes are children of the browser.
func KillTree(pid int) {
	// Best-effort; the graceful browser shutdown already ran and the
	// tree may be gone.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
