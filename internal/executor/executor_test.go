package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskforge/internal/config"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// fakeRunner records the shell command and env it was given.
type fakeRunner struct {
	command string
	env     []string
	workDir string
	out     []byte
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, workDir string, env []string, name string, args ...string) ([]byte, error) {
	return f.RunShell(ctx, workDir, env, name+" "+strings.Join(args, " "))
}

func (f *fakeRunner) RunShell(_ context.Context, workDir string, env []string, command string) ([]byte, error) {
	f.command = command
	f.env = env
	f.workDir = workDir
	return f.out, f.err
}

var task = models.TaskDescriptor{
	ID:          "ui_design",
	Name:        "UI design",
	Description: "Design the dark mode toggle UI",
	Role:        "frontend-design-claude2",
	Workflow:    "design-ui",
}

func TestSimulated(t *testing.T) {
	s := &Simulated{Delay: time.Millisecond}
	res, err := s.Execute(context.Background(), task)
	require.NoError(t, err)

	r, ok := res.(Result)
	require.True(t, ok)
	assert.Equal(t, "UI design", r.Task)
	assert.Equal(t, "frontend-design-claude2", r.Role)
	assert.Equal(t, "design-ui", r.Workflow)
	assert.False(t, r.Timestamp.IsZero())
}

func TestSimulatedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, delay := range []time.Duration{0, time.Hour} {
		_, err := (&Simulated{Delay: delay}).Execute(ctx, task)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCommandSelectsRoleCommand(t *testing.T) {
	runner := &fakeRunner{out: []byte("built\n")}
	c := &Command{
		Commands: map[string]string{"frontend-design-claude2": "make design"},
		Default:  "make default",
		WorkDir:  "/repo",
		Runner:   runner,
	}

	res, err := c.Execute(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, "make design", runner.command)
	assert.Equal(t, "/repo", runner.workDir)
	assert.Contains(t, runner.env, "TASKFORGE_TASK_ID=ui_design")
	assert.Contains(t, runner.env, "TASKFORGE_TASK_ROLE=frontend-design-claude2")
	assert.Contains(t, runner.env, "TASKFORGE_TASK_DESCRIPTION=Design the dark mode toggle UI")
	assert.Equal(t, "built", res.(Result).Output)
}

func TestCommandFallsBackToDefault(t *testing.T) {
	runner := &fakeRunner{}
	c := &Command{Commands: map[string]string{"dev": "make dev"}, Default: "make default", Runner: runner}

	_, err := c.Execute(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "make default", runner.command)
}

func TestCommandNoCommand(t *testing.T) {
	c := &Command{Runner: &fakeRunner{}}
	_, err := c.Execute(context.Background(), task)
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestCommandFailureCarriesOutput(t *testing.T) {
	exitErr := errors.New("exit status 2")
	c := &Command{Default: "npm test", Runner: &fakeRunner{out: []byte("1 test failed"), err: exitErr}}

	_, err := c.Execute(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, exitErr)
	assert.Contains(t, err.Error(), "1 test failed")
}

func TestCommandRealShell(t *testing.T) {
	c := NewCommand(nil, `printf '%s' "$TASKFORGE_TASK_NAME"`, t.TempDir(), nil)
	res, err := c.Execute(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "UI design", res.(Result).Output)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 5))
	assert.Equal(t, "...de", tail("abcde", 2))
}

func TestForConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ExecutorConfig
		want    string
		wantErr error
	}{
		{name: "simulate", cfg: config.ExecutorConfig{Mode: config.ModeSimulate, SimulateDelay: time.Second}, want: "*executor.Simulated"},
		{name: "empty mode", cfg: config.ExecutorConfig{}, want: "*executor.Simulated"},
		{name: "command", cfg: config.ExecutorConfig{Mode: config.ModeCommand, DefaultCommand: "true"}, want: "*executor.Command"},
		{name: "unknown", cfg: config.ExecutorConfig{Mode: "llm"}, wantErr: ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, err := ForConfig(tt.cfg, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, typeName(exec))
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *Simulated:
		return "*executor.Simulated"
	case *Command:
		return "*executor.Command"
	default:
		return "unknown"
	}
}
