package strategy

import (
	"context"

	"github.com/loykin/delayrun/internal/element"
	"github.com/loykin/delayrun/internal/notifier"
	"github.com/loykin/delayrun/internal/token"
)

// ImmediateStrategy completes every element synchronously in input order,
// without waiting. Each element_completed still carries the element's weight
// as its nominal delay.
//
// The token is only observed before processing starts; there is no
// suspension point mid-run, so a trip during the loop has no effect on this
// variant. The delayed variant is the canonical cancellation contract.
type ImmediateStrategy struct{}

func (s *ImmediateStrategy) Name() string { return Immediate }

func (s *ImmediateStrategy) Execute(ctx context.Context, elems []element.Element, n *notifier.Notifier, tok *token.Token) ([]element.Element, error) {
	if err := element.ValidateAll(elems); err != nil {
		return nil, err
	}

	n.EmitStarted(len(elems))

	if tok != nil && tok.IsTripped() {
		n.EmitError(ErrCancelled.Error())
		return nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		n.EmitError(err.Error())
		return nil, err
	}

	completed := make([]element.Element, 0, len(elems))
	for i, el := range elems {
		n.EmitElementCompleted(el, i, el.Weight)
		completed = append(completed, el)
	}
	n.EmitCompleted()
	return completed, nil
}
