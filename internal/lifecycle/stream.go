package lifecycle

import (
	"fmt"
	"sync"

	"fleetctl/internal/execx"
)

const outputBufferLines = 64

// OutputStream delivers the lines produced by a streaming lifecycle
// operation. The Lines channel closes once no more output will arrive.
// Close terminates the underlying process, if any, and is safe to call
// more than once.
type OutputStream struct {
	lines <-chan string

	closeOnce sync.Once
	closeFunc func() error
	closeErr  error
}

// Lines returns the channel output lines arrive on.
func (s *OutputStream) Lines() <-chan string { return s.lines }

// Close stops the underlying process and releases the stream.
func (s *OutputStream) Close() error {
	s.closeOnce.Do(func() {
		if s.closeFunc != nil {
			s.closeErr = s.closeFunc()
		}
	})
	return s.closeErr
}

// newStaticStream yields the given lines and ends.
func newStaticStream(lines ...string) *OutputStream {
	ch := make(chan string, len(lines))
	for _, line := range lines {
		ch <- line
	}
	close(ch)
	return &OutputStream{lines: ch}
}

// newProcessStream adopts a process stream unchanged.
func newProcessStream(inner *execx.Stream) *OutputStream {
	return &OutputStream{lines: inner.Lines(), closeFunc: inner.Close}
}

// newInstallStream forwards a process stream and appends a final line
// reporting how the process exited. onExit fires once with the exit code
// unless the consumer abandons the stream first.
func newInstallStream(inner *execx.Stream, onExit func(code int)) *OutputStream {
	out := make(chan string, outputBufferLines)
	abandoned := make(chan struct{})

	go func() {
		defer close(out)
		for line := range inner.Lines() {
			select {
			case out <- line:
			case <-abandoned:
				return
			}
		}
		code := inner.ExitCode()
		if onExit != nil {
			onExit(code)
		}
		select {
		case out <- installVerdictLine(code):
		case <-abandoned:
		}
	}()

	return &OutputStream{
		lines: out,
		closeFunc: func() error {
			close(abandoned)
			return inner.Close()
		},
	}
}

func installVerdictLine(code int) string {
	if code == 0 {
		return "Install completed successfully"
	}
	return fmt.Sprintf("Install failed with code %d", code)
}
