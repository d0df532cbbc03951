package watchdog

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Restart modes.
const (
	RestartExec   = "exec"
	RestartReboot = "reboot"
	RestartExit   = "exit"
)

// NewRestarter returns the restarter for mode.
func NewRestarter(mode string) (Restarter, error) {
	switch mode {
	case "", RestartExec:
		return &ExecRestarter{}, nil
	case RestartReboot:
		return &RebootRestarter{}, nil
	case RestartExit:
		return &ExitRestarter{}, nil
	default:
		return nil, fmt.Errorf("unknown restart mode %q", mode)
	}
}

// ExecRestarter replaces the running process with a fresh copy of itself.
type ExecRestarter struct {
	// execFunc defaults to unix.Exec; tests override it.
	execFunc func(argv0 string, argv []string, envv []string) error
}

// Restart re-executes the current binary with the same arguments.
func (r *ExecRestarter) Restart() error {
	path, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}

	execFunction := r.execFunc
	if execFunction == nil {
		execFunction = unix.Exec
	}

	argv := append([]string{path}, os.Args[1:]...)
	if err := execFunction(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

// RebootRestarter reboots the whole host. Requires CAP_SYS_BOOT.
type RebootRestarter struct {
	rebootFunc func(cmd int) error
}

// Restart flushes filesystems and reboots.
func (r *RebootRestarter) Restart() error {
	rebootFunction := r.rebootFunc
	if rebootFunction == nil {
		rebootFunction = unix.Reboot
	}

	unix.Sync()
	if err := rebootFunction(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}

// ExitRestarter exits with status 1 and leaves the restart to a supervisor
// such as systemd.
type ExitRestarter struct {
	exitFunc func(code int)
}

// Restart terminates the process.
func (r *ExitRestarter) Restart() error {
	exit := r.exitFunc
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
	return nil
}
