package display

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dialog asks the user for a display configuration. ok=false means the user
// declined.
type Dialog interface {
	Show(ctx context.Context) (cfg Config, ok bool, err error)
}

// PromptDialog is a line-based dialog run before the screen takes over the
// terminal.
type PromptDialog struct {
	in       *bufio.Reader
	out      io.Writer
	attempts int
}

func NewPromptDialog(in io.Reader, out io.Writer) *PromptDialog {
	return &PromptDialog{in: bufio.NewReader(in), out: out, attempts: 3}
}

func (d *PromptDialog) Show(ctx context.Context) (Config, bool, error) {
	fmt.Fprintln(d.out, "Display configuration")
	for i, c := range Choices {
		fmt.Fprintf(d.out, "  %d) %s\n", i+1, c)
	}
	fmt.Fprintln(d.out, "  q) cancel")

	for try := 0; try < d.attempts; try++ {
		if err := ctx.Err(); err != nil {
			return Config{}, false, err
		}
		fmt.Fprint(d.out, "choice: ")
		line, err := d.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && answer == "" {
			if err == io.EOF {
				return Config{}, false, nil
			}
			return Config{}, false, fmt.Errorf("read choice: %w", err)
		}
		if answer == "" || strings.EqualFold(answer, "q") {
			return Config{}, false, nil
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 1 && n <= len(Choices) {
			return Choices[n-1], true, nil
		}
		fmt.Fprintf(d.out, "not a choice: %q\n", answer)
		if err != nil {
			break
		}
	}
	return Config{}, false, nil
}
