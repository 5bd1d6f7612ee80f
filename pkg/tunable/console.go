package tunable

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoopReadingConsole adjusts tunables from lines like "next", "prev", "+10", "-5" or
// "set 200", each applied to the selected tunable.
func LoopReadingConsole(ctx context.Context, in io.Reader, tuns *Tunables) {
	scanner := bufio.NewScanner(in)
	for ctx.Err() == nil && scanner.Scan() {
		if err := tuns.Apply(scanner.Text()); err != nil {
			tuns.logger.Warnw("bad console command", "error", err)
		}
	}
}

// Apply runs one console command.
func (t *Tunables) Apply(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if len(t.All) == 0 {
		return errors.New("no tunables")
	}
	switch {
	case line == "next":
		t.SelectNext()
	case line == "prev":
		t.SelectPrev()
	case strings.HasPrefix(line, "set "):
		v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
		if err != nil {
			return errors.Wrapf(err, "bad value in %q", line)
		}
		t.Current().Set(v)
	case line[0] == '+' || line[0] == '-':
		delta, err := strconv.Atoi(line)
		if err != nil {
			return errors.Wrapf(err, "bad delta %q", line)
		}
		t.Current().Add(delta)
	default:
		return errors.Errorf("unknown command %q", line)
	}
	return nil
}
