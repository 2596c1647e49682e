// Package notify delivers user-facing notices about loan and invoice events.
// Delivery is best effort: a failed delivery is reported, never retried, and
// never rolls back the transition that triggered it.
package notify

import "context"

type Message struct {
	UserID    string `json:"user_id"`
	Recipient string `json:"recipient,omitempty"` // email; resolved from UserID when empty
	Type      string `json:"type"`
	LoanID    *int64 `json:"loan_id,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Sender delivers a message and reports whether it was delivered.
type Sender interface {
	Deliver(ctx context.Context, msg Message) bool
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) bool

func (f SenderFunc) Deliver(ctx context.Context, msg Message) bool {
	return f(ctx, msg)
}

// Fanout delivers to every sender and succeeds if any of them did.
type Fanout []Sender

func NewFanout(senders ...Sender) Fanout {
	out := make(Fanout, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) Deliver(ctx context.Context, msg Message) bool {
	delivered := false
	for _, s := range f {
		if s.Deliver(ctx, msg) {
			delivered = true
		}
	}
	return delivered
}
