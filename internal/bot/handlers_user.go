package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"lotbot/internal/catalog"
	"lotbot/internal/fanout"
	"lotbot/internal/models"
	"lotbot/internal/money"
	"lotbot/internal/stake"
	"lotbot/internal/store"
)

// referralCodeRe bounds the user-typed part of a referral code, before the
// suffix is attached.
var referralCodeRe = regexp.MustCompile(`^[A-Za-z0-9-]{4,12}$`)

// normalizeReferralCode validates a typed code and attaches the mandatory
// suffix; typing the suffix is optional.
func normalizeReferralCode(raw string) (string, bool) {
	bare := strings.TrimSuffix(strings.TrimSpace(raw), models.ReferralSuffix)
	if !referralCodeRe.MatchString(bare) {
		return "", false
	}
	return bare + models.ReferralSuffix, true
}

func (b *Bot) onStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	from := message.From

	user, err := b.Store.FindOrCreateUser(ctx.Context(), from.ID, from.Username, from.FirstName)
	if err != nil {
		b.Log.Error("find or create user failed", zap.Int64("telegram_id", from.ID), zap.Error(err))
		b.send(ctx, message.Chat.ID, "❌ Errore, riprova più tardi.")
		return nil
	}

	// Rows created before codes were assigned at insert get one here.
	if user.ReferralCode == "" {
		code := models.DefaultReferralCode(from.ID)
		if err := b.Store.SetReferralCode(ctx.Context(), user.ID, code); err != nil {
			b.Log.Error("referral code backfill failed",
				zap.Uint("user", user.ID), zap.Error(err))
		} else {
			user.ReferralCode = code
		}
	}

	// Deep-link referral: /start <code>.
	if parts := strings.Fields(message.Text); len(parts) > 1 {
		b.linkReferral(ctx, user, parts[1], message.Chat.ID)
	}

	b.sendMenu(ctx, message.Chat.ID,
		fmt.Sprintf("Ciao %s! 👋\n\nQui ricevi le giocate, gestisci casse e stake personali.", from.FirstName))
	return nil
}

func (b *Bot) onStartBack(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	b.Conversations.Clear(ctx.Context(), callback.From.ID)
	b.sendMenu(ctx, callback.From.ID, "📌 Menu principale")
	b.answerCallback(ctx, callback.ID)
	return nil
}

func (b *Bot) sendMenu(ctx *th.Context, chatID int64, text string) {
	msg := tu.Message(tu.ID(chatID), text).WithReplyMarkup(mainMenuKeyboard())
	if _, err := ctx.Bot().SendMessage(ctx.Context(), msg); err != nil {
		b.Log.Warn("menu send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// callbackUser resolves the pressing user, creating the record when the
// button outlived the account row.
func (b *Bot) callbackUser(ctx *th.Context, callback *telego.CallbackQuery) (*models.User, bool) {
	user, err := b.Store.FindOrCreateUser(ctx.Context(), callback.From.ID, callback.From.Username, callback.From.FirstName)
	if err != nil {
		b.Log.Error("callback user lookup failed", zap.Int64("telegram_id", callback.From.ID), zap.Error(err))
		b.send(ctx, callback.From.ID, "❌ Errore, riprova più tardi.")
		b.answerCallback(ctx, callback.ID)
		return nil, false
	}
	return user, true
}

// --- Acceptance protocol -------------------------------------------------

func (b *Bot) onAccept(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	playID, err := strconv.ParseUint(strings.TrimPrefix(callback.Data, cbAccept), 10, 64)
	if err != nil {
		return nil
	}
	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}

	play, err := b.Store.PlayByID(ctx.Context(), uint(playID))
	if err != nil {
		b.send(ctx, callback.From.ID, "❌ Giocata non trovata.")
		return nil
	}
	if play.Outcome.Terminal() {
		b.send(ctx, callback.From.ID, "ℹ️ La giocata è già chiusa, non è più accettabile.")
		return nil
	}

	bankroll, err := b.Store.EnsureDefaultBankroll(ctx.Context(), user.ID)
	if err != nil {
		b.Log.Error("ensure default bankroll failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, callback.From.ID, "❌ Errore, riprova più tardi.")
		return nil
	}

	pre := bankroll.Balance
	added, err := b.Store.AddAcceptance(ctx.Context(), models.Acceptance{
		UserID:      user.ID,
		PlayID:      play.ID,
		AcceptedAt:  float64(time.Now().Unix()),
		StakePct:    fanout.PersonalStake(user, play),
		PreBankroll: &pre,
	})
	if err != nil {
		b.Log.Error("add acceptance failed", zap.Uint("user", user.ID), zap.Uint("play", play.ID), zap.Error(err))
		b.send(ctx, callback.From.ID, "❌ Errore, riprova più tardi.")
		return nil
	}
	if !added {
		b.send(ctx, callback.From.ID, fmt.Sprintf("ℹ️ Giocata #%d già registrata.", play.Number))
		return nil
	}
	b.send(ctx, callback.From.ID, fmt.Sprintf("✅ Segui la giocata #%d. L'esito aggiornerà la tua cassa.", play.Number))
	return nil
}

func (b *Bot) onRefuse(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	playID, err := strconv.ParseUint(strings.TrimPrefix(callback.Data, cbRefuse), 10, 64)
	if err != nil {
		return nil
	}
	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}

	play, err := b.Store.PlayByID(ctx.Context(), uint(playID))
	if err != nil {
		b.send(ctx, callback.From.ID, "❌ Giocata non trovata.")
		return nil
	}

	added, err := b.Store.AddRefusal(ctx.Context(), models.Refusal{
		UserID:    user.ID,
		PlayID:    play.ID,
		RefusedAt: float64(time.Now().Unix()),
	})
	if err != nil {
		b.Log.Error("add refusal failed", zap.Uint("user", user.ID), zap.Uint("play", play.ID), zap.Error(err))
		return nil
	}
	if !added {
		b.send(ctx, callback.From.ID, fmt.Sprintf("ℹ️ Giocata #%d già registrata.", play.Number))
		return nil
	}
	b.send(ctx, callback.From.ID, fmt.Sprintf("❌ Giocata #%d ignorata.", play.Number))
	return nil
}

// --- Menu views ----------------------------------------------------------

func (b *Bot) onMenu(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}

	switch strings.TrimPrefix(callback.Data, "menu_") {
	case "profile":
		b.showProfile(ctx, user)
	case "subs":
		b.sendWithKeyboard(ctx, user.TelegramID, "📋 Scegli uno sport:", sportsKeyboard())
	case "stakes":
		b.showStakes(ctx, user)
	case "bankrolls":
		b.showBankrolls(ctx, user)
	case "referral":
		b.showReferral(ctx, user)
	case "help":
		b.sendWithKeyboard(ctx, user.TelegramID, helpText(), backKeyboard())
	}
	return nil
}

func (b *Bot) sendWithKeyboard(ctx *th.Context, chatID int64, text string, kb *telego.InlineKeyboardMarkup) {
	msg := tu.Message(tu.ID(chatID), text).WithReplyMarkup(kb)
	if _, err := ctx.Bot().SendMessage(ctx.Context(), msg); err != nil {
		b.Log.Warn("send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) showProfile(ctx *th.Context, user *models.User) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 Profilo\n\nNome: %s", user.FirstName)
	if user.Username != "" {
		fmt.Fprintf(&sb, " (@%s)", user.Username)
	}
	fmt.Fprintf(&sb, "\nRuolo: %s\n", user.Role)

	now := float64(time.Now().Unix())
	active := 0
	for _, sub := range user.PlanSubscriptions {
		if sub.ExpirationTimestamp <= now {
			continue
		}
		active++
		expiry := time.Unix(int64(sub.ExpirationTimestamp), 0)
		fmt.Fprintf(&sb, "\n📦 Piano %s — scade il %s", sub.PlanName, expiry.Format("02/01/2006"))
	}
	if active == 0 {
		sb.WriteString("\n📦 Nessun piano attivo.")
	}
	b.sendWithKeyboard(ctx, user.TelegramID, sb.String(), backKeyboard())
}

func (b *Bot) showStakes(ctx *th.Context, user *models.User) {
	rules, err := b.Store.StakeRules(ctx.Context(), user.ID)
	if err != nil {
		b.Log.Error("stake rules lookup failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
		return
	}
	text := "🎯 Stake personali\n\nOgni regola fissa lo stake per le quote nel suo intervallo."
	if len(rules) == 0 {
		text += "\n\nNessuna regola: si applica lo stake della giocata."
	}
	b.sendWithKeyboard(ctx, user.TelegramID, text, stakesKeyboard(rules))
}

func (b *Bot) showBankrolls(ctx *th.Context, user *models.User) {
	if _, err := b.Store.EnsureDefaultBankroll(ctx.Context(), user.ID); err != nil {
		b.Log.Error("ensure default bankroll failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
		return
	}
	// Reload, the default may have just been created.
	fresh, err := b.Store.UserByID(ctx.Context(), user.ID)
	if err != nil {
		b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
		return
	}

	var sb strings.Builder
	sb.WriteString("💰 Le tue casse\n")
	for _, br := range fresh.Bankrolls {
		marker := ""
		if br.IsDefault {
			marker = " ⭐"
		}
		kind := "composto"
		if br.InterestType == models.InterestSimple {
			kind = "semplice"
		}
		fmt.Fprintf(&sb, "\n%s%s: %s (%s)", br.Name, marker, money.FormatEuro(br.Balance), kind)
	}
	sb.WriteString("\n\nTocca una cassa per renderla predefinita.")
	b.sendWithKeyboard(ctx, user.TelegramID, sb.String(), bankrollsKeyboard(fresh.Bankrolls))
}

func (b *Bot) showReferral(ctx *th.Context, user *models.User) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🤝 Referral\n\nIl tuo codice: %s", user.ReferralCode)
	if user.LinkedReferralCode != "" {
		fmt.Fprintf(&sb, "\nInvitato con: %s", user.LinkedReferralCode)
	} else {
		sb.WriteString("\nNessun codice invito collegato.")
	}
	b.sendWithKeyboard(ctx, user.TelegramID, sb.String(), referralKeyboard())
}

func helpText() string {
	return "📖 Aiuto\n\n" +
		"• Le giocate arrivano qui con i bottoni ✅ Seguo / ❌ Passo.\n" +
		"• «Seguo» registra la giocata sulla tua cassa predefinita: l'esito la aggiorna da solo.\n" +
		"• In «Abbonamenti» scegli sport e strategie da ricevere.\n" +
		"• In «Stake personali» fissi lo stake per intervallo di quota.\n" +
		"• In «Casse» gestisci i saldi e la cassa predefinita."
}

// --- Subscriptions -------------------------------------------------------

func (b *Bot) onSubscriptionCallback(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}

	switch {
	case strings.HasPrefix(callback.Data, "sub_sport:"):
		sport, ok := catalog.FindSport(strings.TrimPrefix(callback.Data, "sub_sport:"))
		if !ok {
			return nil
		}
		b.showStrategies(ctx, user, sport)

	case strings.HasPrefix(callback.Data, "sub_toggle:"):
		parts := strings.SplitN(strings.TrimPrefix(callback.Data, "sub_toggle:"), ":", 2)
		if len(parts) != 2 {
			return nil
		}
		sport, ok := catalog.FindSport(parts[0])
		if !ok || !sport.HasStrategy(parts[1]) {
			return nil
		}
		if err := b.toggleSubscription(ctx, user, sport.Name, parts[1]); err != nil {
			b.Log.Error("toggle subscription failed", zap.Uint("user", user.ID), zap.Error(err))
			b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
			return nil
		}
		// Redraw with fresh ticks.
		fresh, err := b.Store.UserByID(ctx.Context(), user.ID)
		if err != nil {
			return nil
		}
		b.showStrategies(ctx, fresh, sport)
	}
	return nil
}

func (b *Bot) showStrategies(ctx *th.Context, user *models.User, sport catalog.Sport) {
	subscribed := map[string]bool{}
	for _, sub := range user.SportSubscriptions {
		if sub.Sport == sport.Name {
			subscribed[sub.Strategy] = true
		}
	}
	text := fmt.Sprintf("%s %s — tocca una strategia per attivarla o toglierla:", sport.Emoji, sport.Display)
	b.sendWithKeyboard(ctx, user.TelegramID, text, strategiesKeyboard(sport, subscribed))
}

func (b *Bot) toggleSubscription(ctx *th.Context, user *models.User, sport, strategy string) error {
	for _, sub := range user.SportSubscriptions {
		if sub.Sport == sport && sub.Strategy == strategy {
			return b.Store.RemoveSportSubscription(ctx.Context(), user.ID, sport, strategy)
		}
	}
	_, err := b.Store.AddSportSubscription(ctx.Context(), user.ID, sport, strategy)
	return err
}

// --- Personal stake rules ------------------------------------------------

func describeRule(r models.StakeRule) string {
	return fmt.Sprintf("%s %s-%s → %s",
		r.Sport, money.FormatFixed(r.MinOdds), money.FormatFixed(r.MaxOdds), money.FormatPct(r.StakePct))
}

func (b *Bot) onStakeCallback(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}

	switch {
	case callback.Data == "stake_new":
		state := &ConvState{Name: stateStakeInterval}
		if err := b.Conversations.Set(ctx.Context(), user.TelegramID, state); err != nil {
			b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
			return nil
		}
		b.send(ctx, user.TelegramID, "🎯 Nuova regola.\n\nIntervallo di quote, ad esempio: 1,50 - 2,00")

	case strings.HasPrefix(callback.Data, "stake_del:"):
		ruleID, err := strconv.ParseUint(strings.TrimPrefix(callback.Data, "stake_del:"), 10, 64)
		if err != nil {
			return nil
		}
		if err := b.Store.DeleteStakeRule(ctx.Context(), user.ID, uint(ruleID)); err != nil {
			b.Log.Error("delete stake rule failed", zap.Uint("user", user.ID), zap.Error(err))
			b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
			return nil
		}
		fresh, err := b.Store.UserByID(ctx.Context(), user.ID)
		if err != nil {
			return nil
		}
		b.showStakes(ctx, fresh)
	}
	return nil
}

// --- Bankrolls -----------------------------------------------------------

func (b *Bot) onBankrollCallback(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}

	switch {
	case callback.Data == "br_new":
		state := &ConvState{Name: stateBankrollName}
		if err := b.Conversations.Set(ctx.Context(), user.TelegramID, state); err != nil {
			b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
			return nil
		}
		b.send(ctx, user.TelegramID, "💰 Nome della nuova cassa:")

	case strings.HasPrefix(callback.Data, "br_default:"):
		name := strings.TrimPrefix(callback.Data, "br_default:")
		if err := b.Store.SetDefaultBankroll(ctx.Context(), user.ID, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				b.send(ctx, user.TelegramID, "❌ Cassa non trovata.")
				return nil
			}
			b.Log.Error("set default bankroll failed", zap.Uint("user", user.ID), zap.Error(err))
			b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
			return nil
		}
		fresh, err := b.Store.UserByID(ctx.Context(), user.ID)
		if err != nil {
			return nil
		}
		b.showBankrolls(ctx, fresh)
	}
	return nil
}

// --- Referral ------------------------------------------------------------

func (b *Bot) onReferralCallback(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	defer b.answerCallback(ctx, callback.ID)

	user, ok := b.callbackUser(ctx, callback)
	if !ok {
		return nil
	}
	if callback.Data != "ref_link" {
		return nil
	}
	if user.LinkedReferrerID != nil {
		b.send(ctx, user.TelegramID, "ℹ️ Hai già un codice invito collegato.")
		return nil
	}
	state := &ConvState{Name: stateReferralCode}
	if err := b.Conversations.Set(ctx.Context(), user.TelegramID, state); err != nil {
		b.send(ctx, user.TelegramID, "❌ Errore, riprova più tardi.")
		return nil
	}
	b.send(ctx, user.TelegramID, "🔗 Scrivi il codice invito che hai ricevuto:")
	return nil
}

// linkReferral resolves a typed or deep-linked code and binds it to user.
// Replies go to chatID.
func (b *Bot) linkReferral(ctx *th.Context, user *models.User, raw string, chatID int64) {
	if user.LinkedReferrerID != nil {
		b.send(ctx, chatID, "ℹ️ Hai già un codice invito collegato.")
		return
	}

	code, ok := normalizeReferralCode(raw)
	if !ok {
		b.send(ctx, chatID, "❌ Codice non valido: usa 4-12 tra lettere, cifre e trattini.")
		return
	}

	referrer, err := b.Store.UserByReferralCode(ctx.Context(), code)
	if err != nil {
		b.send(ctx, chatID, "❌ Codice invito sconosciuto.")
		return
	}
	if referrer.ID == user.ID {
		b.send(ctx, chatID, "❌ Non puoi usare il tuo stesso codice.")
		return
	}
	if err := b.Store.LinkReferral(ctx.Context(), user.ID, code, referrer.ID); err != nil {
		b.Log.Error("link referral failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, chatID, "❌ Errore, riprova più tardi.")
		return
	}
	b.send(ctx, chatID, fmt.Sprintf("✅ Codice %s collegato.", code))
}

// --- Conversation continuations ------------------------------------------

func (b *Bot) onText(ctx *th.Context, update telego.Update) error {
	message := update.Message
	from := message.From

	state, ok := b.Conversations.Get(ctx.Context(), from.ID)
	if !ok {
		return nil
	}

	user, err := b.Store.FindOrCreateUser(ctx.Context(), from.ID, from.Username, from.FirstName)
	if err != nil {
		b.Log.Error("conversation user lookup failed", zap.Int64("telegram_id", from.ID), zap.Error(err))
		return nil
	}

	text := strings.TrimSpace(message.Text)
	switch state.Name {
	case stateReferralCode:
		b.Conversations.Clear(ctx.Context(), from.ID)
		b.linkReferral(ctx, user, text, message.Chat.ID)

	case stateBankrollName:
		if text == "" || len(text) > 64 {
			b.send(ctx, message.Chat.ID, "❌ Nome non valido, riprova:")
			return nil
		}
		state.Name = stateBankrollAmount
		state.put("name", text)
		if err := b.Conversations.Set(ctx.Context(), from.ID, state); err != nil {
			return nil
		}
		b.send(ctx, message.Chat.ID,
			"💰 Importo iniziale in euro, ad esempio 100 oppure 100 semplice per l'interesse semplice:")

	case stateBankrollAmount:
		b.finishBankroll(ctx, user, state, text, message.Chat.ID)

	case stateStakeInterval:
		min, max, ok := splitInterval(text)
		if !ok {
			b.send(ctx, message.Chat.ID, "❌ Intervallo non valido. Esempio: 1,50 - 2,00")
			return nil
		}
		state.Name = stateStakePct
		state.put("min", min)
		state.put("max", max)
		if err := b.Conversations.Set(ctx.Context(), from.ID, state); err != nil {
			return nil
		}
		b.send(ctx, message.Chat.ID, "Stake in percentuale, ad esempio 5 oppure 2,50:")

	case stateStakePct:
		state.Name = stateStakeSport
		state.put("pct", text)
		if err := b.Conversations.Set(ctx.Context(), from.ID, state); err != nil {
			return nil
		}
		b.send(ctx, message.Chat.ID, "Sport a cui applicarla (o all per tutti):")

	case stateStakeSport:
		state.Name = stateStakeStrats
		state.put("sport", text)
		if err := b.Conversations.Set(ctx.Context(), from.ID, state); err != nil {
			return nil
		}
		b.send(ctx, message.Chat.ID, "Strategie, separate da virgola (o all per tutte):")

	case stateStakeStrats:
		b.finishStakeRule(ctx, user, state, text, message.Chat.ID)
	}
	return nil
}

func (b *Bot) finishBankroll(ctx *th.Context, user *models.User, state *ConvState, text string, chatID int64) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		b.send(ctx, chatID, "❌ Importo non valido, riprova:")
		return
	}
	amount, err := money.ParseFixed(fields[0])
	if err != nil || amount <= 0 {
		b.send(ctx, chatID, "❌ Importo non valido, riprova:")
		return
	}
	interest := models.InterestCompound
	if len(fields) > 1 {
		switch catalog.Normalize(fields[1]) {
		case "semplice", "simple":
			interest = models.InterestSimple
		case "composto", "compound":
		default:
			b.send(ctx, chatID, "❌ Tipo di interesse non riconosciuto: usa semplice o composto.")
			return
		}
	}

	b.Conversations.Clear(ctx.Context(), user.TelegramID)
	bankroll := &models.Bankroll{
		UserID:       user.ID,
		Name:         state.Data["name"],
		Balance:      amount,
		InterestBase: amount,
		InterestType: interest,
	}
	if err := b.Store.AddBankroll(ctx.Context(), bankroll); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			b.send(ctx, chatID, fmt.Sprintf("❌ Hai già una cassa chiamata %q.", bankroll.Name))
			return
		}
		b.Log.Error("add bankroll failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, chatID, "❌ Errore, riprova più tardi.")
		return
	}
	b.send(ctx, chatID, fmt.Sprintf("✅ Cassa %q creata con %s.", bankroll.Name, money.FormatEuro(amount)))
}

func (b *Bot) finishStakeRule(ctx *th.Context, user *models.User, state *ConvState, text string, chatID int64) {
	strategies := strings.Split(text, ",")
	rule, err := stake.NewRule(state.Data["min"], state.Data["max"], state.Data["pct"], state.Data["sport"], strategies)
	if err != nil {
		b.Conversations.Clear(ctx.Context(), user.TelegramID)
		b.send(ctx, chatID, "❌ "+err.Error())
		return
	}
	rule.UserID = user.ID

	existing, err := b.Store.StakeRules(ctx.Context(), user.ID)
	if err != nil {
		b.Log.Error("stake rules lookup failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, chatID, "❌ Errore, riprova più tardi.")
		return
	}
	if err := stake.CheckAgainst(existing, rule); err != nil {
		b.Conversations.Clear(ctx.Context(), user.TelegramID)
		b.send(ctx, chatID, "❌ La regola si sovrappone a una esistente, non è stata salvata.")
		return
	}

	b.Conversations.Clear(ctx.Context(), user.TelegramID)
	if err := b.Store.AddStakeRule(ctx.Context(), &rule); err != nil {
		b.Log.Error("add stake rule failed", zap.Uint("user", user.ID), zap.Error(err))
		b.send(ctx, chatID, "❌ Errore, riprova più tardi.")
		return
	}
	b.send(ctx, chatID, fmt.Sprintf("✅ Regola salvata: %s", describeRule(rule)))
}

// splitInterval decodes "1,50 - 2,00" (the dash is optional) into its two
// bounds.
func splitInterval(text string) (min, max string, ok bool) {
	var parts []string
	if strings.Contains(text, "-") {
		parts = strings.SplitN(text, "-", 2)
	} else {
		parts = strings.Fields(text)
	}
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
