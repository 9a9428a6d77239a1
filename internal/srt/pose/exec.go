package pose

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/banshee-data/sitrise/internal/monitoring"
	"github.com/banshee-data/sitrise/internal/srt"
)

// stopTimeout bounds how long Close waits for the worker to exit after its
// stdin is closed.
const stopTimeout = 2 * time.Second

// ExecEstimator talks to a pose worker process over JSON lines: one
// {"frame": path} request per line on stdin, one response per line on
// stdout. Requests are serialised; the worker handles one frame at a time.
type ExecEstimator struct {
	mu     sync.Mutex
	stdin  io.WriteCloser
	stdout *bufio.Reader
	enc    *json.Encoder

	cmd       *exec.Cmd
	done      chan error
	closeOnce sync.Once
	closeErr  error
}

// StartExecEstimator launches the worker command and returns an estimator
// bound to it. The worker lives until Close.
func StartExecEstimator(name string, args ...string) (*ExecEstimator, error) {
	cmd := exec.Command(name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("pose worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pose worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("pose worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start pose worker %s: %w", name, err)
	}
	monitoring.Logf("pose: started worker %s (pid %d)", name, cmd.Process.Pid)

	go logStderr(stderr)

	e := newPipeEstimator(stdin, stdout)
	e.cmd = cmd
	e.done = make(chan error, 1)
	go func() { e.done <- cmd.Wait() }()
	return e, nil
}

func newPipeEstimator(w io.WriteCloser, r io.Reader) *ExecEstimator {
	return &ExecEstimator{
		stdin:  w,
		stdout: bufio.NewReaderSize(r, 64*1024),
		enc:    json.NewEncoder(w),
	}
}

func logStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		monitoring.Logf("pose worker: %s", sc.Text())
	}
}

type result struct {
	pose *srt.Pose
	err  error
}

// Estimate sends framePath to the worker and waits for its answer or for
// ctx to end. An abandoned exchange still drains its response so the
// stream stays aligned for the next caller.
func (e *ExecEstimator) Estimate(ctx context.Context, framePath string) (*srt.Pose, error) {
	ch := make(chan result, 1)
	go func() {
		p, err := e.roundTrip(framePath)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		return r.pose, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *ExecEstimator) roundTrip(framePath string) (*srt.Pose, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enc.Encode(request{Frame: framePath}); err != nil {
		return nil, fmt.Errorf("write pose request: %w", err)
	}
	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("pose worker exited: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("read pose response: %w", err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode pose response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose worker: %s", resp.Error)
	}
	if resp.Frame != "" && resp.Frame != framePath {
		return nil, fmt.Errorf("pose worker answered for %s, want %s", resp.Frame, framePath)
	}
	return resp.subject(framePath)
}

// Close ends the worker by closing its stdin, killing it if it does not
// exit within a short grace period. It does not wait for an exchange in
// flight; that exchange fails once the pipes close.
func (e *ExecEstimator) Close() error {
	e.closeOnce.Do(func() { e.closeErr = e.stop() })
	return e.closeErr
}

func (e *ExecEstimator) stop() error {
	err := e.stdin.Close()
	if e.cmd == nil {
		return err
	}
	select {
	case werr := <-e.done:
		if werr != nil {
			monitoring.Logf("pose: worker exited: %v", werr)
		}
	case <-time.After(stopTimeout):
		monitoring.Warnf("pose: worker did not exit in %s, killing", stopTimeout)
		if kerr := e.cmd.Process.Kill(); kerr != nil {
			return kerr
		}
		<-e.done
	}
	return err
}
