// Package notify sends outcome messages of record operations to an operator
// chat. Delivery is best-effort: a failed send is logged and never returned.
package notify

import "context"

// Notifier delivers one text message.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) {}
