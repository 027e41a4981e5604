package subprocess

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/leukipp/cortile-addons/internal/errors"
)

const (
	// maxScanTokenSize is the maximum size of one streamed stdout line.
	maxScanTokenSize = 16 * 1024 * 1024 // 16MB
	// maxStderrBufferSize caps the stderr retained while streaming.
	maxStderrBufferSize = 1024 * 1024 // 1MB
	// waitDelay bounds pipe draining after a cancelled process exits.
	waitDelay = 2 * time.Second
)

// closed is returned by Done for handles that never started.
var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)

	return ch
}()

// LineFunc receives one streamed stdout line. While streaming, stderr is
// always empty and the status is always 0.
type LineFunc func(stdout, stderr []byte, code int)

// Output is the captured result of a synchronous run.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Process owns one OS subprocess and its stdout and stderr pipes.
type Process struct {
	log    *slog.Logger
	id     string
	argv   []string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu         sync.Mutex // Protects onLine, consumed and stderrTail
	onLine     LineFunc
	consumed   bool
	stderrTail string

	running  atomic.Bool
	exitCode atomic.Int64
	done     chan struct{}
	doneOnce sync.Once
}

// Start launches argv[0] with the remaining arguments. Arguments are passed
// verbatim, no shell is involved.
//
// Cancelling ctx sends SIGTERM to the process. Returns a SpawnError if argv
// is empty or the process cannot be started.
func Start(ctx context.Context, log *slog.Logger, argv []string) (*Process, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, &errors.SpawnError{Argv: argv, Err: errors.ErrEmptyCommand}
	}

	id := ulid.Make().String()
	log = log.With("component", "subprocess", "process_id", id)

	//nolint:gosec // G204: the binary path comes from daemon discovery
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error("Failed to create stdout pipe", "error", err)

		return nil, &errors.SpawnError{Argv: argv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		log.Error("Failed to create stderr pipe", "error", err)

		return nil, &errors.SpawnError{Argv: argv, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start process", "argv", argv, "error", err)

		return nil, &errors.SpawnError{Argv: argv, Err: err}
	}

	p := &Process{
		log:    log,
		id:     id,
		argv:   argv,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	p.running.Store(true)
	p.exitCode.Store(-1)

	log.Debug("Process started", "pid", cmd.Process.Pid, "argv", argv)

	return p, nil
}

// ID returns the identifier used to correlate log lines of this process.
func (p *Process) ID() string {
	if p == nil {
		return ""
	}

	return p.id
}

// PID returns the OS process id, or 0 for a never-started handle.
func (p *Process) PID() int {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Running reports whether the process has not yet been observed to exit.
func (p *Process) Running() bool {
	return p != nil && p.running.Load()
}

// Done returns a channel closed once the process has exited and its output
// has been consumed.
func (p *Process) Done() <-chan struct{} {
	if p == nil || p.done == nil {
		return closed
	}

	return p.done
}

// ExitCode returns the exit status once the process has exited.
// A process killed by a signal reports -1.
func (p *Process) ExitCode() (int, bool) {
	if p == nil || p.done == nil || p.Running() {
		return 0, false
	}

	return int(p.exitCode.Load()), true
}

// Stderr returns the retained stderr of a streamed process.
func (p *Process) Stderr() string {
	if p == nil {
		return ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stderrTail
}

// Communicate waits for the process to exit and returns everything it wrote.
//
// A non-zero exit status is reported in Output.ExitCode, not as an error.
// Returns ErrNotStarted for a never-started handle and ErrAlreadyStreaming
// if the output was already consumed.
func (p *Process) Communicate() (*Output, error) {
	if err := p.claim(); err != nil {
		return nil, err
	}

	defer p.finish()

	var stdout, stderr bytes.Buffer

	// Both pipes must be drained before Wait, see os/exec.Cmd.StdoutPipe.
	var g errgroup.Group

	g.Go(func() error {
		_, err := io.Copy(&stdout, p.stdout)

		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, p.stderr)

		return err
	})

	if err := g.Wait(); err != nil {
		p.log.Debug("Pipe read ended early", "error", err)
	}

	code, err := p.wait()
	if err != nil {
		return nil, err
	}

	p.log.Debug("Process exited", "exit_code", code, "stdout_len", stdout.Len(), "stderr_len", stderr.Len())

	return &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: code,
	}, nil
}

// Stream starts a background goroutine that delivers every non-blank stdout
// line to onLine, in order, and returns immediately.
//
// Streaming stops delivering once Detach is called; the remaining output is
// drained so the child never blocks on a full pipe. A read error, such as a
// line longer than maxScanTokenSize, ends the loop, terminates the child and
// marks the process as no longer running.
func (p *Process) Stream(onLine LineFunc) error {
	if onLine == nil {
		return fmt.Errorf("stream: nil line callback")
	}

	if err := p.claim(); err != nil {
		return err
	}

	p.mu.Lock()
	p.onLine = onLine
	p.mu.Unlock()

	go p.readLoop()

	return nil
}

// Detach clears the stream callback. No further lines are delivered.
func (p *Process) Detach() {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.onLine = nil
	p.mu.Unlock()
}

// Terminate asks the process to exit with SIGTERM.
//
// It is safe to call from any goroutine, more than once, and on exited or
// never-started handles.
func (p *Process) Terminate() error {
	if p == nil || p.cmd == nil || p.cmd.Process == nil || !p.running.Load() {
		return nil
	}

	pid := p.cmd.Process.Pid
	p.log.Debug("Terminating process", "pid", pid)

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate process (pid %d): %w", pid, err)
	}

	return nil
}

func (p *Process) readLoop() {
	defer p.finish()
	defer p.log.Debug("Stream loop stopped")

	var g errgroup.Group

	g.Go(func() error {
		p.drainStderr()

		return nil
	})

	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	lines := 0

	for scanner.Scan() {
		onLine := p.lineFunc()
		if onLine == nil {
			p.log.Debug("Stream callback detached")

			break
		}

		line := scanner.Bytes()

		// A blank line carries no data; keep polling.
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		lines++
		onLine(bytes.Clone(line), nil, 0)
	}

	if err := scanner.Err(); err != nil {
		p.log.Warn("Stdout read failed, stopping stream", "error", err)

		if termErr := p.Terminate(); termErr != nil {
			p.log.Warn("Failed to terminate process", "error", termErr)
		}

		p.running.Store(false)
	}

	if _, err := io.Copy(io.Discard, p.stdout); err != nil {
		p.log.Debug("Stdout drain ended with error", "error", err)
	}

	_ = g.Wait()

	code, err := p.wait()
	if err != nil {
		p.log.Warn("Failed to wait for process", "error", err)

		return
	}

	if code != 0 {
		p.log.Debug("Streamed process exited", "exit_code", code, "lines", lines, "stderr", p.Stderr())

		return
	}

	p.log.Debug("Streamed process exited", "exit_code", code, "lines", lines)
}

func (p *Process) drainStderr() {
	var buf bytes.Buffer

	scanner := bufio.NewScanner(p.stderr)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		if buf.Len() >= maxStderrBufferSize {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}

		buf.Write(scanner.Bytes())

		p.mu.Lock()
		p.stderrTail = buf.String()
		p.mu.Unlock()
	}

	if _, err := io.Copy(io.Discard, p.stderr); err != nil {
		p.log.Debug("Stderr drain ended with error", "error", err)
	}
}

func (p *Process) lineFunc() LineFunc {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.onLine
}

// claim marks the output as consumed; it can be claimed once.
func (p *Process) claim() error {
	if p == nil || p.cmd == nil {
		return errors.ErrNotStarted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.consumed {
		return errors.ErrAlreadyStreaming
	}

	p.consumed = true

	return nil
}

// wait reaps the process and returns its exit status.
func (p *Process) wait() (int, error) {
	err := p.cmd.Wait()

	state := p.cmd.ProcessState
	if state == nil {
		return -1, fmt.Errorf("wait for process: %w", err)
	}

	if err != nil {
		if _, ok := stderrors.AsType[*exec.ExitError](err); !ok {
			p.log.Debug("Process wait reported", "error", err)
		}
	}

	code := state.ExitCode()
	p.exitCode.Store(int64(code))

	return code, nil
}

func (p *Process) finish() {
	p.running.Store(false)
	p.doneOnce.Do(func() {
		close(p.done)
	})
}
