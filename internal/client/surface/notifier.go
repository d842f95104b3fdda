// Package surface binds the web, native and admin front-ends (and the CLI)
// to the RPC client through a query cache.
package surface

import (
	"fmt"
	"io"
	"sync"

	"github.com/baechuer/newslink/internal/client/query"
	"github.com/baechuer/newslink/internal/client/rpcclient"
)

// Notifier is where user-visible messages go.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
}

// WriterNotifier prints one line per message.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Success(msg string) { n.print("ok", msg) }
func (n *WriterNotifier) Error(msg string)   { n.print("error", msg) }
func (n *WriterNotifier) Warning(msg string) { n.print("warning", msg) }

func (n *WriterNotifier) print(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s: %s\n", level, msg)
}

// NewCache returns a query client whose failed reads notify "Error: <msg>".
func NewCache(n Notifier, cfg query.Config) *query.Client {
	next := cfg.OnQueryError
	cfg.OnQueryError = func(key string, err error) {
		n.Error("Error: " + rpcclient.Message(err))
		if next != nil {
			next(key, err)
		}
	}
	return query.New(cfg)
}

func messageOr(err error, fallback string) string {
	if msg := rpcclient.Message(err); msg != "" {
		return msg
	}
	return fallback
}
