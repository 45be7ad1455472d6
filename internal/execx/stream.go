package execx

import (
	"bufio"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

const streamBufferLines = 64

// Stream is a pull-based iterator over the combined stdout+stderr lines of a
// child process. Lines are delivered on the channel returned by Lines; the
// channel closes when the process exits and buffered output is drained.
//
// The child runs in its own process group. Close kills the whole group, so
// abandoning a stream early never leaks the child or anything it spawned.
type Stream struct {
	cmd       *exec.Cmd
	lines     chan string
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	waitErr   error
}

// StreamCommand spawns argv in dir and streams its combined output. Each
// call spawns a fresh process; a finished stream is not restartable.
func StreamCommand(dir string, argv ...string) (*Stream, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	return startStream(cmd, dir)
}

// StreamShell spawns script via `sh -c` in dir and streams its combined
// output.
func StreamShell(dir, script string) (*Stream, error) {
	cmd := exec.Command("sh", "-c", script)
	return startStream(cmd, dir)
}

func startStream(cmd *exec.Cmd, dir string) (*Stream, error) {
	cmd.Dir = dir
	// A dedicated process group lets Close take down the child and any
	// grandchildren it forked.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	// The child holds its own copy of the write end; ours must go so the
	// reader sees EOF when the child exits.
	pw.Close()

	s := &Stream{
		cmd:    cmd,
		lines:  make(chan string, streamBufferLines),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.pump(pr)
	return s, nil
}

// Lines returns the channel output lines arrive on. It closes when the
// process exits or the stream is closed.
func (s *Stream) Lines() <-chan string {
	return s.lines
}

func (s *Stream) pump(pr *os.File) {
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

scan:
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.closed:
			break scan
		}
	}

	close(s.lines)
	pr.Close()
	s.waitErr = s.cmd.Wait()
	close(s.done)
}

// Close stops the stream and kills the child's process group, then waits
// for the process to be reaped. Safe to call multiple times and after the
// process has already exited.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		// ESRCH just means the group is already gone.
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
		close(s.closed)
	})
	<-s.done
	return nil
}

// ExitCode blocks until the process has been reaped and returns its exit
// code. A process killed by Close reports -1.
func (s *Stream) ExitCode() int {
	<-s.done
	if s.waitErr == nil {
		return 0
	}
	if exitErr, ok := s.waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
