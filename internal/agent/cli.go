package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/batonhq/baton/internal/errors"
	"github.com/batonhq/baton/internal/util"
)

// -----------------------------------------------------------------------------
// CLI Invoker
// -----------------------------------------------------------------------------

// CLIConfig describes the command-line program that backs agent invocations.
// Flag fields are optional: an empty flag name omits that argument entirely,
// so the invoker can drive anything from a vendor CLI to a plain shell tool.
type CLIConfig struct {
	// Command is the program to execute. Required.
	Command string

	// Args are base arguments passed on every invocation.
	Args []string

	// PersonaFlag, when set, passes the persona ref as "<flag> <persona>".
	PersonaFlag string

	// SessionFlag, when set, mints a fresh session id for new invocations
	// and passes it as "<flag> <id>". The id is echoed on the Response so
	// follow-up consults can resume it.
	SessionFlag string

	// ResumeFlag, when set, passes InvokeOptions.SessionID as "<flag> <id>"
	// to resume an existing session.
	ResumeFlag string

	// Dir is the working directory for the command. Empty means inherit.
	Dir string
}

// CLIInvoker invokes agents by spawning a configured command-line program.
// The instruction travels on stdin, output is captured from stdout, and
// stderr feeds the error message on failure.
type CLIInvoker struct {
	cfg CLIConfig
}

var _ Invoker = (*CLIInvoker)(nil)

// NewCLIInvoker builds an invoker for the given command configuration.
func NewCLIInvoker(cfg CLIConfig) (*CLIInvoker, error) {
	if cfg.Command == "" {
		return nil, errors.NewValidationError("agent command is required").WithField("command")
	}
	return &CLIInvoker{cfg: cfg}, nil
}

// Command returns the configured program name.
func (c *CLIInvoker) Command() string {
	return c.cfg.Command
}

// Invoke runs the configured command once and settles into a Response.
//
// Outcome mapping:
//   - clean exit: StatusDone with captured stdout
//   - non-zero exit: StatusDone is withheld; the Response carries
//     StatusError and the first stderr line, with a nil error, so callers
//     treat agent-level failure as data rather than control flow
//   - context expiry or cancellation: StatusError plus a non-nil error
//     wrapping ErrTimeout or ErrCanceled
func (c *CLIInvoker) Invoke(ctx context.Context, persona, instruction string, opts InvokeOptions) (Response, error) {
	if instruction == "" {
		return Response{}, errors.Wrap(errors.ErrInvalidInput, "instruction is empty")
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	args, sessionID := c.buildArgs(persona, opts)

	cmd := exec.CommandContext(ctx, c.cfg.Command, args...)
	cmd.Dir = c.cfg.Dir
	cmd.Stdin = strings.NewReader(instruction)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errorResponse(persona, sessionID, err.Error()),
			errors.Wrapf(errors.ErrAgentInvocation, "opening stdout pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return errorResponse(persona, sessionID, err.Error()),
			errors.Wrapf(errors.ErrAgentInvocation, "starting %s: %v", c.cfg.Command, err)
	}

	var out strings.Builder
	buf := make([]byte, 4096)
	for {
		n, readErr := stdout.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			out.WriteString(chunk)
			if opts.OnChunk != nil {
				opts.OnChunk(chunk)
			}
		}
		if readErr != nil {
			break
		}
	}
	waitErr := cmd.Wait()

	resp := Response{
		Persona:   persona,
		Status:    StatusDone,
		Content:   out.String(),
		SessionID: sessionID,
		Timestamp: time.Now(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		resp.Status = StatusError
		resp.Error = ctxErr.Error()
		if ctxErr == context.DeadlineExceeded {
			return resp, errors.Wrapf(errors.ErrTimeout, "invoking %s", c.cfg.Command)
		}
		return resp, errors.Wrapf(errors.ErrCanceled, "invoking %s", c.cfg.Command)
	}
	if waitErr != nil {
		resp.Status = StatusError
		resp.Error = exitMessage(waitErr, stderr.String())
		return resp, nil
	}
	return resp, nil
}

// buildArgs assembles the argv tail and resolves the session id the
// invocation will run under.
func (c *CLIInvoker) buildArgs(persona string, opts InvokeOptions) ([]string, string) {
	args := make([]string, 0, len(c.cfg.Args)+6)
	args = append(args, c.cfg.Args...)

	if c.cfg.PersonaFlag != "" && persona != "" {
		args = append(args, c.cfg.PersonaFlag, persona)
	}

	sessionID := opts.SessionID
	switch {
	case sessionID != "" && c.cfg.ResumeFlag != "":
		args = append(args, c.cfg.ResumeFlag, sessionID)
	case sessionID == "" && c.cfg.SessionFlag != "":
		sessionID = util.NewID()
		args = append(args, c.cfg.SessionFlag, sessionID)
	}
	return args, sessionID
}

func errorResponse(persona, sessionID, msg string) Response {
	return Response{
		Persona:   persona,
		Status:    StatusError,
		Error:     msg,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// exitMessage condenses a command failure into one line, preferring the
// program's own stderr over the bare exit status.
func exitMessage(waitErr error, stderr string) string {
	line := util.FirstLine(strings.TrimSpace(stderr))
	if line == "" {
		return waitErr.Error()
	}
	return fmt.Sprintf("%s: %s", waitErr.Error(), line)
}
