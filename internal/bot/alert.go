package bot

import (
	"fmt"
	"runtime/debug"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
)

// telegramMessageLimit is the platform's hard cap on message length.
const telegramMessageLimit = 4096

// recoverMiddleware is the only place that captures non-typed panics: the
// traceback goes to the operator chat in message-sized chunks and the
// originating chat, when known, gets a generic apology.
func (b *Bot) recoverMiddleware(ctx *th.Context, update telego.Update) error {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		b.Log.Error("handler panicked",
			zap.Any("panic", r),
			zap.ByteString("stack", stack))

		if b.Cfg.OperatorChatID != 0 {
			report := fmt.Sprintf("🛑 panic: %v\n\n%s", r, stack)
			for _, chunk := range chunkText(report, telegramMessageLimit) {
				_, _ = ctx.Bot().SendMessage(ctx.Context(),
					tu.Message(tu.ID(b.Cfg.OperatorChatID), chunk))
			}
		}

		if chatID := originChat(update); chatID != 0 {
			_, _ = ctx.Bot().SendMessage(ctx.Context(),
				tu.Message(tu.ID(chatID), "❌ Si è verificato un errore, riprova più tardi."))
		}
	}()
	return ctx.Next(update)
}

func originChat(update telego.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	default:
		return 0
	}
}

func chunkText(s string, size int) []string {
	if s == "" {
		return nil
	}
	var chunks []string
	for len(s) > size {
		cut := size
		// Never split inside a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	return append(chunks, s)
}
