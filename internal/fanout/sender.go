package fanout

import (
	"context"
	"errors"
)

// ErrUnreachable marks a recipient that removed the chat with the bot.
// Fan-out loops swallow it silently and shrink the expected count.
var ErrUnreachable = errors.New("destinatario non raggiungibile")

// Sender abstracts the chat transport. The telego implementation lives in
// the bot package; engines and tests only see this.
type Sender interface {
	// Send delivers plain text.
	Send(ctx context.Context, chatID int64, text string) error
	// SendWithAcceptance delivers text with the accept/refuse keyboard for
	// the given play attached.
	SendWithAcceptance(ctx context.Context, chatID int64, text string, playID uint) error
}
