package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lotbot/internal/config"
	"lotbot/internal/fanout"
	"lotbot/internal/settlement"
	"lotbot/internal/store"
)

type Bot struct {
	Instance      *telego.Bot
	Store         store.Store
	Dispatcher    *fanout.Dispatcher
	Settlement    *settlement.Engine
	Conversations *Conversations
	Cfg           *config.Config
	Log           *zap.Logger
}

func NewBot(cfg *config.Config, st store.Store, rdb *redis.Client, log *zap.Logger) (*Bot, error) {
	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		Instance:      tgBot,
		Store:         st,
		Conversations: NewConversations(rdb),
		Cfg:           cfg,
		Log:           log,
	}
	sender := &telegramSender{bot: tgBot}
	b.Dispatcher = fanout.NewDispatcher(st, sender, log, cfg.OperatorChatID)
	b.Settlement = settlement.NewEngine(st, sender, log)
	return b, nil
}

func (b *Bot) Start() error {
	updates, err := b.Instance.UpdatesViaLongPolling(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.Instance, updates)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	// Every handler runs behind the crash reporter.
	handler.Use(b.recoverMiddleware)

	// Authoring chats: plays, outcomes, cashouts, broadcasts.
	handler.Handle(b.onAuthoringMessage, b.fromAuthoringChat())

	// Private chat: commands and menus.
	handler.Handle(b.onStart, th.CommandEqual("start"))
	b.registerOperatorCommands(handler)

	// Inline interactions. Every callback token carries a stable prefix so
	// new handlers slot in without format changes.
	handler.Handle(b.onAccept, th.CallbackDataPrefix(cbAccept))
	handler.Handle(b.onRefuse, th.CallbackDataPrefix(cbRefuse))
	handler.Handle(b.onMenu, th.CallbackDataPrefix("menu_"))
	handler.Handle(b.onSubscriptionCallback, th.CallbackDataPrefix("sub_"))
	handler.Handle(b.onStakeCallback, th.CallbackDataPrefix("stake_"))
	handler.Handle(b.onBankrollCallback, th.CallbackDataPrefix("br_"))
	handler.Handle(b.onReferralCallback, th.CallbackDataPrefix("ref_"))
	handler.Handle(b.onStartBack, th.CallbackDataEqual("start_back"))

	// Free text feeds whatever conversation is in flight.
	handler.Handle(b.onText, th.AnyMessageWithText())

	return handler.Start()
}

// fromAuthoringChat routes staff messages: the configured authoring chats
// plus the exchange chat.
func (b *Bot) fromAuthoringChat() th.Predicate {
	ids := map[int64]bool{}
	for _, id := range b.Cfg.AuthoringChatIDs {
		ids[id] = true
	}
	if b.Cfg.ExchangeChatID != 0 {
		ids[b.Cfg.ExchangeChatID] = true
	}
	return func(_ context.Context, update telego.Update) bool {
		return update.Message != nil && update.Message.Text != "" && ids[update.Message.Chat.ID]
	}
}

// reply sends a single line back to the chat, quoting the original
// message.
func (b *Bot) reply(ctx *th.Context, chatID int64, messageID int, text string) {
	msg := tu.Message(tu.ID(chatID), text)
	if messageID != 0 {
		msg = msg.WithReplyParameters(&telego.ReplyParameters{MessageID: messageID})
	}
	if _, err := ctx.Bot().SendMessage(ctx.Context(), msg); err != nil {
		b.Log.Warn("reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) send(ctx *th.Context, chatID int64, text string) {
	if _, err := ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(chatID), text)); err != nil {
		b.Log.Warn("send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) answerCallback(ctx *th.Context, callbackID string) {
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callbackID))
}

// telegramSender adapts telego to the fanout.Sender contract, translating
// "bot was blocked" into the unreachable sentinel.
type telegramSender struct {
	bot *telego.Bot
}

func (s *telegramSender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	return classifySendError(err)
}

func (s *telegramSender) SendWithAcceptance(ctx context.Context, chatID int64, text string, playID uint) error {
	_, err := s.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).
		WithReplyMarkup(acceptanceKeyboard(playID)))
	return classifySendError(err)
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) && apiErr.ErrorCode == 403 {
		return fmt.Errorf("%s: %w", apiErr.Description, fanout.ErrUnreachable)
	}
	if strings.Contains(err.Error(), "blocked by the user") ||
		strings.Contains(err.Error(), "user is deactivated") {
		return fmt.Errorf("%v: %w", err, fanout.ErrUnreachable)
	}
	return err
}
