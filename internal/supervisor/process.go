package supervisor

import (
	"bytes"
	"io"
	"os/exec"
	"syscall"
)

// procAttrNewGroup puts the child in its own process group so that a
// graceful signal reaches any descendants the agent CLI itself spawns,
// not just the immediate child (§4.2).
func procAttrNewGroup() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killGroup signals the entire process group rooted at cmd's PID. It
// tolerates the process already having exited.
func killGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, sig)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
