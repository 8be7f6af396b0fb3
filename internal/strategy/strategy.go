package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/token"
)

// Names of the built-in strategy variants.
const (
	Immediate = "immediate"
	Delayed   = "delayed"
)

// ErrCancelled is returned when a run is aborted through its cancellation
// token before all elements completed.
var ErrCancelled = errors.New("run cancelled")

// Strategy drives one run over an element sequence, emitting lifecycle
// events through the notifier as processing proceeds. Execute returns the
// elements in completion order, or an error when the run was cancelled or
// faulted. Exactly one terminal event (completed or error) is emitted per
// run that passes validation; a validation failure emits nothing.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, elems []element.Element, n *notifier.Notifier, tok *token.Token) ([]element.Element, error)
}

// Factory builds a fresh strategy instance for a single run.
type Factory func() Strategy

var (
	regMu    sync.Mutex
	registry = map[string]Factory{}
)

func init() {
	// Built-in variants. Adding a new variant is an explicit registration,
	// not runtime patching.
	_ = Register(Immediate, func() Strategy { return &ImmediateStrategy{} })
	_ = Register(Delayed, func() Strategy { return &DelayedStrategy{} })
}

// Register adds a strategy factory under a unique name.
func Register(name string, f Factory) error {
	if name == "" || f == nil {
		return errors.New("strategy registration requires a name and a factory")
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("strategy %q already registered", name)
	}
	registry[name] = f
	return nil
}

// New resolves a registered strategy by name and returns a fresh instance.
func New(name string) (Strategy, error) {
	regMu.Lock()
	f, ok := registry[name]
	regMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
	return f(), nil
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
