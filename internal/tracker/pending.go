package tracker

import "context"

// Pending is the acknowledgement for a queued mutation. It resolves once the
// mutation has been applied and the resulting snapshot published.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the mutation has been resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the mutation's result. It is nil until Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the mutation resolves or ctx is done. Cancelling ctx
// does not cancel the mutation.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
