package video

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandExecutor runs a single prepared command.
type CommandExecutor interface {
	// Output runs the command and returns stdout. On failure the error
	// carries stderr.
	Output() ([]byte, error)
}

// CommandBuilder prepares commands. It exists so the ffmpeg wrapper can be
// unit tested without real binaries.
type CommandBuilder interface {
	BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd to implement CommandExecutor.
type RealCommandExecutor struct {
	cmd *exec.Cmd
}

// Output executes the command, returning stdout.
func (r *RealCommandExecutor) Output() ([]byte, error) {
	var stderr bytes.Buffer
	r.cmd.Stderr = &stderr
	out, err := r.cmd.Output()
	if err != nil {
		return out, &CommandError{Err: err, Stderr: stderr.String()}
	}
	return out, nil
}

// RealCommandBuilder implements CommandBuilder using exec.CommandContext.
type RealCommandBuilder struct{}

// BuildCommand creates a CommandExecutor for the given command and arguments.
func (RealCommandBuilder) BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor {
	return &RealCommandExecutor{cmd: exec.CommandContext(ctx, name, args...)}
}

// CommandError is returned when an external tool exits unsuccessfully.
type CommandError struct {
	Err    error
	Stderr string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + lastLine(e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	Out []byte
	Err error
	// Run is called, when set, before returning Out/Err. Tests use it to
	// create the files a real tool would write.
	Run func() error
}

// Output returns the configured output and error.
func (m *MockCommandExecutor) Output() ([]byte, error) {
	if m.Run != nil {
		if err := m.Run(); err != nil {
			return nil, err
		}
	}
	return m.Out, m.Err
}

// MockCommandBuilder records built commands and serves executors by tool name.
type MockCommandBuilder struct {
	Executors map[string]*MockCommandExecutor
	Calls     []MockCall
}

// MockCall is one recorded BuildCommand invocation.
type MockCall struct {
	Name string
	Args []string
}

// BuildCommand records the call and returns the executor registered for name.
func (b *MockCommandBuilder) BuildCommand(_ context.Context, name string, args ...string) CommandExecutor {
	b.Calls = append(b.Calls, MockCall{Name: name, Args: args})
	if ex, ok := b.Executors[name]; ok {
		return ex
	}
	return &MockCommandExecutor{Err: &CommandError{Err: exec.ErrNotFound}}
}
