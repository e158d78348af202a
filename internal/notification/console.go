package notification

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/scanner"
)

// ConsoleNotifier writes the formatted opportunity banner to a writer,
// stdout by default.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a console notifier writing to out; nil
// means stdout.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

// Notify writes the opportunity banner.
func (n *ConsoleNotifier) Notify(ctx context.Context, opp *scanner.Opportunity) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprint(n.out, opp.FormatOutput()); err != nil {
		return fmt.Errorf("failed to write opportunity banner: %w", err)
	}
	return nil
}

// Callback adapts the notifier to the scanner's dispatch signature.
func (n *ConsoleNotifier) Callback() scanner.Callback {
	return n.Notify
}
