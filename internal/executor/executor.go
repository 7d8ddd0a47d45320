// Package executor provides the queue executors that stand in for the
// role that owns a task: a simulated call and a shell command per role.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/taskforge/internal/config"
	iexec "github.com/ShayCichocki/taskforge/internal/exec"
	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// ErrNoCommand is returned when a role has no command and there is no default.
var ErrNoCommand = errors.New("no command configured for role")

// ErrUnknownMode is returned by ForConfig for an unrecognized executor mode.
var ErrUnknownMode = errors.New("unknown executor mode")

// Result is what an executor returns for a successful attempt.
type Result struct {
	Task      string    `json:"task"`
	Role      string    `json:"role"`
	Workflow  string    `json:"workflow,omitempty"`
	Output    string    `json:"output,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Simulated waits Delay and reports success. It marks where a real role
// integration would be invoked.
type Simulated struct {
	Delay  time.Duration
	Logger *logging.DebugLogger
}

// Execute implements queue.Executor.
func (s *Simulated) Execute(ctx context.Context, task models.TaskDescriptor) (any, error) {
	s.Logger.Log("[executor] simulate %s role=%s workflow=%s", task.ID, task.Role, task.Workflow)

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Result{
		Task:      task.Name,
		Role:      task.Role,
		Workflow:  task.Workflow,
		Timestamp: time.Now(),
	}, nil
}

// Command runs a shell command chosen by the task's role. The task is
// exported to the command as TASKFORGE_TASK_* environment variables.
type Command struct {
	// Commands maps role to a shell command.
	Commands map[string]string
	// Default runs for roles without an entry. Empty means ErrNoCommand.
	Default string
	WorkDir string
	Runner  iexec.CommandRunner
	Logger  *logging.DebugLogger
}

// NewCommand creates a Command executor backed by os/exec.
func NewCommand(commands map[string]string, def, workDir string, logger *logging.DebugLogger) *Command {
	return &Command{
		Commands: commands,
		Default:  def,
		WorkDir:  workDir,
		Runner:   iexec.NewRunner(),
		Logger:   logger,
	}
}

// Execute implements queue.Executor. A non-zero exit fails the attempt and
// the error carries the tail of the command output.
func (c *Command) Execute(ctx context.Context, task models.TaskDescriptor) (any, error) {
	cmd := c.commandFor(task.Role)
	if cmd == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCommand, task.Role)
	}

	c.Logger.Log("[executor] run %s role=%s: %s", task.ID, task.Role, cmd)
	out, err := c.Runner.RunShell(ctx, c.WorkDir, TaskEnv(task), cmd)
	output := strings.TrimSpace(string(out))
	if err != nil {
		c.Logger.Log("[executor] %s failed: %v", task.ID, err)
		if output != "" {
			return nil, fmt.Errorf("%s: %w: %s", task.Role, err, tail(output, 500))
		}
		return nil, fmt.Errorf("%s: %w", task.Role, err)
	}

	return Result{
		Task:      task.Name,
		Role:      task.Role,
		Workflow:  task.Workflow,
		Output:    output,
		Timestamp: time.Now(),
	}, nil
}

func (c *Command) commandFor(role string) string {
	if cmd, ok := c.Commands[role]; ok && cmd != "" {
		return cmd
	}
	return c.Default
}

// TaskEnv returns the environment variables describing task.
func TaskEnv(task models.TaskDescriptor) []string {
	return []string{
		"TASKFORGE_TASK_ID=" + task.ID,
		"TASKFORGE_TASK_NAME=" + task.Name,
		"TASKFORGE_TASK_ROLE=" + task.Role,
		"TASKFORGE_TASK_WORKFLOW=" + task.Workflow,
		"TASKFORGE_TASK_DESCRIPTION=" + task.Description,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// ForConfig returns the executor selected by cfg.Mode.
func ForConfig(cfg config.ExecutorConfig, logger *logging.DebugLogger) (queue.Executor, error) {
	switch cfg.Mode {
	case config.ModeSimulate, "":
		return &Simulated{Delay: cfg.SimulateDelay, Logger: logger}, nil
	case config.ModeCommand:
		return NewCommand(cfg.Commands, cfg.DefaultCommand, cfg.WorkDir, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

var (
	_ queue.Executor = (*Simulated)(nil)
	_ queue.Executor = (*Command)(nil)
)
