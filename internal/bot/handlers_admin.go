package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"lotbot/internal/catalog"
	"lotbot/internal/entitlement"
	"lotbot/internal/fanout"
	"lotbot/internal/models"
	"lotbot/internal/money"
	"lotbot/internal/stake"
	"lotbot/internal/store"
)

// registerOperatorCommands wires the staff command set. Every command is
// role-gated and replies with a single line.
func (b *Bot) registerOperatorCommands(handler *th.BotHandler) {
	handler.Handle(b.operator(b.cmdAddDays), th.CommandEqual("aggiungi_giorni"))
	handler.Handle(b.operator(b.cmdReferral), th.CommandEqual("referral"))
	handler.Handle(b.operator(b.cmdBlock(true)), th.CommandEqual("blocca"))
	handler.Handle(b.operator(b.cmdBlock(false)), th.CommandEqual("sblocca"))
	handler.Handle(b.operatorAdmin(b.cmdRole), th.CommandEqual("ruolo"))
	handler.Handle(b.operator(b.cmdStakeAdd), th.CommandEqual("stake_add"))
	handler.Handle(b.operator(b.cmdStakeList), th.CommandEqual("stake_list"))
	handler.Handle(b.operator(b.cmdStakeDel), th.CommandEqual("stake_del"))
	handler.Handle(b.operator(b.cmdBankroll), th.CommandEqual("cassa"))
	handler.Handle(b.operator(b.cmdTrendDays), th.CommandEqual("trend_giorni"))
	handler.Handle(b.operator(b.cmdTrendEvents), th.CommandEqual("trend_eventi"))
	handler.Handle(b.operator(b.cmdStatement), th.CommandEqual("estratto"))
	handler.Handle(b.operator(b.cmdSendMedia), th.CommandEqual("invia_media"))
}

// operatorFn handles an already-authorised command; args excludes the
// command itself.
type operatorFn func(ctx *th.Context, message *telego.Message, args []string)

func (b *Bot) operator(fn operatorFn) th.Handler {
	return b.gated(fn, models.RoleAdmin, models.RoleAnalyst)
}

func (b *Bot) operatorAdmin(fn operatorFn) th.Handler {
	return b.gated(fn, models.RoleAdmin)
}

func (b *Bot) gated(fn operatorFn, roles ...string) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		user, err := b.Store.UserByTelegramID(ctx.Context(), message.From.ID)
		if err != nil || !entitlement.RoleIn(user.Role, roles...) {
			b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Comando riservato allo staff.")
			return nil
		}
		fn(ctx, message, strings.Fields(message.Text)[1:])
		return nil
	}
}

// resolveTarget accepts a numeric Telegram id or an @handle.
func (b *Bot) resolveTarget(ctx *th.Context, token string) (*models.User, error) {
	if id, err := strconv.ParseInt(token, 10, 64); err == nil {
		return b.Store.UserByTelegramID(ctx.Context(), id)
	}
	return b.Store.UserByHandle(ctx.Context(), strings.TrimPrefix(token, "@"))
}

func (b *Bot) replyUsage(ctx *th.Context, message *telego.Message, usage string) {
	b.reply(ctx, message.Chat.ID, message.MessageID, "ℹ️ Uso: "+usage)
}

func (b *Bot) replyTargetError(ctx *th.Context, message *telego.Message, token string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Utente %s non trovato.", token))
		return
	}
	b.Log.Error("target lookup failed", zap.String("target", token), zap.Error(err))
	b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
}

// --- Plans and accounts --------------------------------------------------

func (b *Bot) cmdAddDays(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 3 {
		b.replyUsage(ctx, message, "/aggiungi_giorni <utente> <piano> <giorni>")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	plan, ok := catalog.FindPlan(args[1])
	if !ok {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Piano sconosciuto: %s", args[1]))
		return
	}
	days, err := strconv.Atoi(args[2])
	if err != nil || days <= 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Giorni non validi: %s", args[2]))
		return
	}

	expiry, err := b.Store.ExtendPlanSubscription(ctx.Context(), target.ID, plan.Name, days, time.Now())
	if err != nil {
		b.Log.Error("extend plan failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}

	// Ledger entry; grants have no money amount.
	_ = b.Store.AddPayment(ctx.Context(), &models.Payment{
		UserID:     target.ID,
		Kind:       "giorni",
		ExternalID: uuid.NewString(),
		Note:       fmt.Sprintf("%s +%dg", plan.Name, days),
	})

	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Piano %s di %s esteso fino al %s.",
			plan.Name, args[0], time.Unix(int64(expiry), 0).Format("02/01/2006")))
}

func (b *Bot) cmdReferral(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) < 1 || len(args) > 2 {
		b.replyUsage(ctx, message, "/referral <utente> [nuovo-codice]")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	if len(args) == 1 {
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("🤝 Codice di %s: %s", args[0], target.ReferralCode))
		return
	}

	code, ok := normalizeReferralCode(args[1])
	if !ok {
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Codice non valido: 4-12 tra lettere, cifre e trattini.")
		return
	}
	if err := b.Store.SetReferralCode(ctx.Context(), target.ID, code); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Codice %s già in uso.", code))
			return
		}
		b.Log.Error("set referral code failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("✅ Codice di %s ora è %s.", args[0], code))
}

func (b *Bot) cmdBlock(blocked bool) operatorFn {
	return func(ctx *th.Context, message *telego.Message, args []string) {
		if len(args) != 1 {
			usage := "/blocca <utente>"
			if !blocked {
				usage = "/sblocca <utente>"
			}
			b.replyUsage(ctx, message, usage)
			return
		}
		target, err := b.resolveTarget(ctx, args[0])
		if err != nil {
			b.replyTargetError(ctx, message, args[0], err)
			return
		}
		if err := b.Store.SetBlocked(ctx.Context(), target.ID, blocked); err != nil {
			b.Log.Error("set blocked failed", zap.Uint("user", target.ID), zap.Error(err))
			b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
			return
		}
		verb := "bloccato"
		if !blocked {
			verb = "sbloccato"
		}
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("✅ Utente %s %s.", args[0], verb))
	}
}

func (b *Bot) cmdRole(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 2 {
		b.replyUsage(ctx, message, "/ruolo <utente> <user|analyst|admin|partner>")
		return
	}
	role := strings.ToLower(args[1])
	if !entitlement.RoleIn(role, models.RoleUser, models.RoleAnalyst, models.RoleAdmin, models.RolePartner) {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Ruolo sconosciuto: %s", args[1]))
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	if err := b.Store.SetRole(ctx.Context(), target.ID, role); err != nil {
		b.Log.Error("set role failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("✅ %s ora è %s.", args[0], role))
}

// --- Personal stakes on behalf of users ----------------------------------

func (b *Bot) cmdStakeAdd(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) < 5 {
		b.replyUsage(ctx, message, "/stake_add <utente> <quota-min> <quota-max> <stake%> <sport> [strategie…]")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	strategies := args[5:]
	if len(strategies) == 0 {
		strategies = []string{catalog.All}
	}
	rule, err := stake.NewRule(args[1], args[2], args[3], args[4], strategies)
	if err != nil {
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ "+err.Error())
		return
	}
	rule.UserID = target.ID

	existing, err := b.Store.StakeRules(ctx.Context(), target.ID)
	if err != nil {
		b.Log.Error("stake rules lookup failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	if err := stake.CheckAgainst(existing, rule); err != nil {
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ La regola si sovrappone a una esistente.")
		return
	}
	if err := b.Store.AddStakeRule(ctx.Context(), &rule); err != nil {
		b.Log.Error("add stake rule failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Regola per %s: %s", args[0], describeRule(rule)))
}

func (b *Bot) cmdStakeList(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 1 {
		b.replyUsage(ctx, message, "/stake_list <utente>")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	rules, err := b.Store.StakeRules(ctx.Context(), target.ID)
	if err != nil {
		b.Log.Error("stake rules lookup failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	if len(rules) == 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("ℹ️ %s non ha regole stake.", args[0]))
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 Regole di %s:", args[0])
	for i, r := range rules {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, describeRule(r))
	}
	b.reply(ctx, message.Chat.ID, message.MessageID, sb.String())
}

func (b *Bot) cmdStakeDel(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 2 {
		b.replyUsage(ctx, message, "/stake_del <utente> <n>")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Indice non valido: %s", args[1]))
		return
	}
	rules, err := b.Store.StakeRules(ctx.Context(), target.ID)
	if err != nil || n > len(rules) {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Regola %d non trovata.", n))
		return
	}
	rule := rules[n-1]
	if err := b.Store.DeleteStakeRule(ctx.Context(), target.ID, rule.ID); err != nil {
		b.Log.Error("delete stake rule failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("✅ Rimossa: %s", describeRule(rule)))
}

// --- Bankrolls on behalf of users ----------------------------------------

func (b *Bot) cmdBankroll(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 1 && len(args) != 3 {
		b.replyUsage(ctx, message, "/cassa <utente> [nome saldo]")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}

	if len(args) == 1 {
		if len(target.Bankrolls) == 0 {
			b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("ℹ️ %s non ha casse.", args[0]))
			return
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "💰 Casse di %s:", args[0])
		for _, br := range target.Bankrolls {
			marker := ""
			if br.IsDefault {
				marker = " ⭐"
			}
			fmt.Fprintf(&sb, "\n%s%s: %s", br.Name, marker, money.FormatEuro(br.Balance))
		}
		b.reply(ctx, message.Chat.ID, message.MessageID, sb.String())
		return
	}

	balance, err := money.ParseFixed(args[2])
	if err != nil {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Saldo non valido: %s", args[2]))
		return
	}
	for _, br := range target.Bankrolls {
		if br.Name != args[1] {
			continue
		}
		// Balance is adjusted, not overwritten, so a concurrent settlement
		// is never lost.
		if err := b.Store.AdjustBankrollBalance(ctx.Context(), br.ID, balance-br.Balance); err != nil {
			b.Log.Error("adjust bankroll failed", zap.Uint("bankroll", br.ID), zap.Error(err))
			b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
			return
		}
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("✅ Cassa %s di %s portata a %s.", br.Name, args[0], money.FormatEuro(balance)))
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Cassa %s non trovata.", args[1]))
}

// --- Trends and statements -----------------------------------------------

func (b *Bot) cmdTrendDays(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 1 {
		b.replyUsage(ctx, message, "/trend_giorni <giorni>")
		return
	}
	days, err := strconv.Atoi(args[0])
	if err != nil || days <= 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Giorni non validi: %s", args[0]))
		return
	}
	plays, err := b.Store.SettledPlaysSince(ctx.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		b.Log.Error("settled plays lookup failed", zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("📊 Ultimi %d giorni: %s", days, trendLine(plays)))
}

func (b *Bot) cmdTrendEvents(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 1 {
		b.replyUsage(ctx, message, "/trend_eventi <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Numero non valido: %s", args[0]))
		return
	}
	plays, err := b.Store.LastSettledPlays(ctx.Context(), n)
	if err != nil {
		b.Log.Error("settled plays lookup failed", zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("📊 Ultime %d giocate: %s", len(plays), trendLine(plays)))
}

// trendLine aggregates settled plays at the base stake: the percent a
// recipient without personal rules would have gained.
func trendLine(plays []models.Play) string {
	var wins, losses, voids int
	var pct int64
	for _, p := range plays {
		switch {
		case p.Cashout != nil:
			// A cashout closes as a win but the percentage carries the
			// sign, so bucket it by what it actually returned.
			delta := money.DivRound(p.BaseStakePct**p.Cashout, 10000)
			pct += delta
			switch {
			case delta > 0:
				wins++
			case delta < 0:
				losses++
			default:
				voids++
			}
		case p.Outcome == models.OutcomeWin:
			wins++
			pct += money.DivRound(p.BaseStakePct*(p.BaseOdds-100), 100)
		case p.Outcome == models.OutcomeLoss:
			losses++
			pct -= p.BaseStakePct
		case p.Outcome == models.OutcomeVoid:
			voids++
		}
	}
	return fmt.Sprintf("%d giocate, %d vinte, %d perse, %d void, trend %s",
		len(plays), wins, losses, voids, money.FormatSignedPct(pct))
}

func (b *Bot) cmdStatement(ctx *th.Context, message *telego.Message, args []string) {
	if len(args) != 2 {
		b.replyUsage(ctx, message, "/estratto <utente> <giorni>")
		return
	}
	target, err := b.resolveTarget(ctx, args[0])
	if err != nil {
		b.replyTargetError(ctx, message, args[0], err)
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil || days <= 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID, fmt.Sprintf("❌ Giorni non validi: %s", args[1]))
		return
	}
	lines, err := b.Store.StatementFor(ctx.Context(), target.ID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		b.Log.Error("statement lookup failed", zap.Uint("user", target.ID), zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}
	if len(lines) == 0 {
		b.reply(ctx, message.Chat.ID, message.MessageID,
			fmt.Sprintf("ℹ️ Nessuna giocata regolata per %s negli ultimi %d giorni.", args[0], days))
		return
	}

	var sb strings.Builder
	var total int64
	fmt.Fprintf(&sb, "🧾 Estratto di %s (%d giorni):", args[0], days)
	for _, l := range lines {
		total += l.Delta
		fmt.Fprintf(&sb, "\n%s %s #%d: %s",
			l.SettledAt.Format("02/01"), l.Play.Sport, l.Play.Number, money.FormatSignedEuro(l.Delta))
	}
	fmt.Fprintf(&sb, "\nTotale: %s", money.FormatSignedEuro(total))
	b.reply(ctx, message.Chat.ID, message.MessageID, sb.String())
}

// --- Media broadcast -----------------------------------------------------

// cmdSendMedia copies the replied-to message (photo, video, document,
// anything) to every active user.
func (b *Bot) cmdSendMedia(ctx *th.Context, message *telego.Message, _ []string) {
	if message.ReplyToMessage == nil {
		b.replyUsage(ctx, message, "rispondi con /invia_media al messaggio da inoltrare")
		return
	}
	users, err := b.Store.ActiveUsers(ctx.Context())
	if err != nil {
		b.Log.Error("active users lookup failed", zap.Error(err))
		b.reply(ctx, message.Chat.ID, message.MessageID, "❌ Errore, riprova più tardi.")
		return
	}

	sent := 0
	for i := range users {
		_, err := ctx.Bot().CopyMessage(ctx.Context(), &telego.CopyMessageParams{
			ChatID:     tu.ID(users[i].TelegramID),
			FromChatID: tu.ID(message.Chat.ID),
			MessageID:  message.ReplyToMessage.MessageID,
		})
		if err != nil {
			if !errors.Is(classifySendError(err), fanout.ErrUnreachable) {
				b.Log.Warn("media copy failed", zap.Int64("chat", users[i].TelegramID), zap.Error(err))
			}
			continue
		}
		sent++
	}
	b.reply(ctx, message.Chat.ID, message.MessageID,
		fmt.Sprintf("✅ Media inviato a %d utenti su %d.", sent, len(users)))
}
