// Package engine owns the lifecycle of the external analysis engine
// subprocess: spawn, stdio wiring to a protocol client, stderr
// draining, and orderly shutdown. The engine's internals (lexing,
// parsing, symbol confirmation) are a black box behind the protocol.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/refscope/internal/debug"
	"github.com/standardbeagle/refscope/internal/protocol"
)

// Process is a running engine subprocess with its protocol client.
type Process struct {
	cmd    *exec.Cmd
	client *protocol.Client
	group  *errgroup.Group

	closeOnce sync.Once
	closeErr  error
}

// stdioConn adapts the subprocess pipes into the single transport the
// protocol client expects: reads come from the engine's stdout, writes
// go to its stdin.
type stdioConn struct {
	in  io.WriteCloser
	out io.ReadCloser
}

func (s *stdioConn) Read(p []byte) (int, error)  { return s.out.Read(p) }
func (s *stdioConn) Write(p []byte) (int, error) { return s.in.Write(p) }

func (s *stdioConn) Close() error {
	inErr := s.in.Close()
	outErr := s.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}

// Launch starts the engine command and begins dispatching its
// notifications to handler. The returned Process must be closed.
func Launch(ctx context.Context, command []string, handler protocol.Handler) (*Process, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("engine command is empty")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch engine %q: %w", command[0], err)
	}
	debug.LogProtocol("engine started: pid=%d cmd=%q\n", cmd.Process.Pid, command[0])

	client := protocol.NewClient(&stdioConn{in: stdin, out: stdout}, handler)

	group, _ := errgroup.WithContext(ctx)
	group.Go(client.Run)
	group.Go(func() error {
		drainStderr(stderr)
		return nil
	})

	return &Process{cmd: cmd, client: client, group: group}, nil
}

// drainStderr forwards engine diagnostics line by line into the debug log.
func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		debug.Log("ENGINE", "%s\n", scanner.Text())
	}
}

// Client returns the protocol client bound to this process.
func (p *Process) Client() *protocol.Client {
	return p.client
}

// Close shuts the client down, reaps the reader goroutines and waits
// for the subprocess to exit. Safe to call more than once.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		clientErr := p.client.Close()
		groupErr := p.group.Wait()
		waitErr := p.cmd.Wait()

		switch {
		case clientErr != nil:
			p.closeErr = clientErr
		case groupErr != nil:
			p.closeErr = groupErr
		default:
			// The engine exits once its stdin closes; a nonzero status
			// here usually means it crashed rather than shut down.
			p.closeErr = waitErr
		}
	})
	return p.closeErr
}
