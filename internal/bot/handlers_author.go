package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"go.uber.org/zap"

	"lotbot/internal/catalog"
	"lotbot/internal/metrics"
	"lotbot/internal/parser"
	"lotbot/internal/settlement"
	"lotbot/internal/store"
)

// onAuthoringMessage routes a staff message by content shape: broadcast
// header, cashout (exchange chat only), outcome line, else play.
func (b *Bot) onAuthoringMessage(ctx *th.Context, update telego.Update) error {
	message := update.Message
	text := message.Text

	// A broadcast left without a body swallows the next message as its
	// text.
	if state, ok := b.Conversations.Get(ctx.Context(), message.From.ID); ok && state.Name == stateBroadcastBody {
		b.Conversations.Clear(ctx.Context(), message.From.ID)
		b.finishBroadcast(ctx, message, state.Data["sport"], state.Data["strategy"], text)
		return nil
	}

	switch {
	case strings.HasPrefix(strings.TrimSpace(text), parser.BroadcastCommand):
		b.handleBroadcast(ctx, message)
	case message.Chat.ID == b.Cfg.ExchangeChatID && parser.LooksLikeCashout(text):
		b.handleCashout(ctx, message)
	case parser.LooksLikeOutcome(text):
		b.handleOutcome(ctx, message)
	default:
		b.handlePlay(ctx, message)
	}
	return nil
}

func (b *Bot) handlePlay(ctx *th.Context, message *telego.Message) {
	play, err := parser.ParsePlay(message.Text, float64(message.Date))
	if err != nil {
		b.replyParseError(ctx, message, err)
		return
	}

	stats, err := b.Dispatcher.Play(ctx.Context(), play)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("❌ Giocata %s #%d già pubblicata.", play.Sport, play.Number))
		return
	case err != nil:
		b.Log.Error("play fanout failed", zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore durante l'invio della giocata.")
		return
	}

	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Giocata #%d inviata a %d abbonati.", play.Number, stats.Sent))
}

func (b *Bot) handleOutcome(ctx *th.Context, message *telego.Message) {
	outcome, err := parser.ParseOutcome(message.Text)
	if err != nil {
		b.replyParseError(ctx, message, err)
		return
	}

	play, err := b.Settlement.Outcome(ctx.Context(), outcome.Sport, outcome.Number, outcome.Outcome)
	if b.replySettlementError(ctx, message, outcome.Sport.Display, outcome.Number, err) {
		return
	}

	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Esito %s registrato per %s #%d.", play.Outcome, outcome.Sport.Display, play.Number))
}

func (b *Bot) handleCashout(ctx *th.Context, message *telego.Message) {
	cashout, err := parser.ParseCashout(message.Text)
	if err != nil {
		b.replyParseError(ctx, message, err)
		return
	}

	play, err := b.Settlement.Cashout(ctx.Context(), cashout.Number, cashout.Pct)
	if b.replySettlementError(ctx, message, "Exchange", cashout.Number, err) {
		return
	}

	// Announce the cashout to the exchange pool after settling acceptors.
	if _, err := b.Dispatcher.Cashout(ctx.Context(), play, cashout.Pct); err != nil {
		b.Log.Error("cashout fanout failed", zap.Error(err))
	}

	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Cashout registrato per #%d.", cashout.Number))
}

func (b *Bot) handleBroadcast(ctx *th.Context, message *telego.Message) {
	bc, err := parser.ParseBroadcast(message.Text)
	if err != nil {
		b.replyParseError(ctx, message, err)
		return
	}
	if bc.Body == "" {
		state := &ConvState{Name: stateBroadcastBody}
		state.put("sport", bc.Sport.Name)
		state.put("strategy", bc.Strategy)
		if err := b.Conversations.Set(ctx.Context(), message.From.ID, state); err != nil {
			b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
			return
		}
		b.reply(ctx, message.Chat.ID, message.MessageID, "✍️ Scrivi il testo del messaggio:")
		return
	}
	b.finishBroadcast(ctx, message, bc.Sport.Name, bc.Strategy, bc.Body)
}

func (b *Bot) finishBroadcast(ctx *th.Context, message *telego.Message, sportName, strategy, body string) {
	sport, ok := catalog.FindSport(sportName)
	if !ok {
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Messaggio non riconosciuto.")
		return
	}
	stats, err := b.Dispatcher.Broadcast(ctx.Context(), sport, strategy, body, float64(time.Now().Unix()))
	if err != nil {
		b.Log.Error("broadcast failed", zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore durante l'invio.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Messaggio inviato a %d abbonati.", stats.Sent))
}

// replyParseError answers the authoring chat quoting the offending field.
// Parse errors never propagate further.
func (b *Bot) replyParseError(ctx *th.Context, message *telego.Message, err error) {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		metrics.ParseErrors.WithLabelValues(string(pe.What)).Inc()
		text := "❌ " + pe.Reason
		if pe.Token != "" {
			text += fmt.Sprintf(": «%s»", pe.Token)
		}
		b.reply(ctx, message.Chat.ID, message.MessageID, text)
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Messaggio non riconosciuto.")
}

// replySettlementError maps the engine's typed errors onto single-line
// replies; reports whether the caller should stop.
func (b *Bot) replySettlementError(ctx *th.Context, message *telego.Message, sport string, number int, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, settlement.ErrPlayNotFound):
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("❌ Giocata %s #%d non trovata.", sport, number))
	case errors.Is(err, settlement.ErrAlreadySettled):
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("ℹ️ Esito già registrato per %s #%d.", sport, number))
	case errors.Is(err, settlement.ErrOutcomeConflict):
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("❌ %s #%d ha già un esito diverso.", sport, number))
	default:
		b.Log.Error("settlement failed", zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore durante il regolamento.")
	}
	return true
}
