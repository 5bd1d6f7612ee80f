package asebahttp

import (
	"bufio"
	"context"
	"os/exec"

	"github.com/kr/pty"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Bridge is a running asebahttp process.
type Bridge struct {
	cmd  *exec.Cmd
	done chan error
}

// Launch starts the asebahttp bridge.  It is run under a pseudo-terminal because it
// only flushes its output line by line when attached to one; every line is logged.
// The process is killed when ctx is cancelled.
func Launch(ctx context.Context, binary string, args []string, logger *zap.SugaredLogger) (*Bridge, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	f, err := pty.Start(cmd)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", binary)
	}
	logger.Infow("started asebahttp", "binary", binary, "args", args, "pid", cmd.Process.Pid)

	b := &Bridge{cmd: cmd, done: make(chan error, 1)}
	go func() {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			logger.Debugw("asebahttp", "line", scanner.Text())
		}
	}()
	go func() {
		err := cmd.Wait()
		f.Close()
		if err != nil && ctx.Err() == nil {
			logger.Warnw("asebahttp exited", "error", err)
		}
		b.done <- err
	}()
	return b, nil
}

// Wait blocks until the bridge exits.
func (b *Bridge) Wait() error {
	err := <-b.done
	b.done <- err
	return err
}
