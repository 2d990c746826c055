package bot

import (
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
)

const (
	cbAccept = "play_accept:"
	cbRefuse = "play_refuse:"
)

func acceptanceKeyboard(playID uint) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Seguo").WithCallbackData(fmt.Sprintf("%s%d", cbAccept, playID)),
			tu.InlineKeyboardButton("❌ Passo").WithCallbackData(fmt.Sprintf("%s%d", cbRefuse, playID)),
		),
	)
}

func mainMenuKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("👤 Profilo").WithCallbackData("menu_profile"),
			tu.InlineKeyboardButton("📋 Abbonamenti").WithCallbackData("menu_subs"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎯 Stake personali").WithCallbackData("menu_stakes"),
			tu.InlineKeyboardButton("💰 Casse").WithCallbackData("menu_bankrolls"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🤝 Referral").WithCallbackData("menu_referral"),
			tu.InlineKeyboardButton("📖 Aiuto").WithCallbackData("menu_help"),
		),
	)
}

func backKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Indietro").WithCallbackData("start_back"),
		),
	)
}

// sportsKeyboard lists every sport for the subscription menu.
func sportsKeyboard() *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, s := range catalog.Sports() {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(s.Emoji+" "+s.Display).
				WithCallbackData("sub_sport:"+s.Name),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("« Indietro").WithCallbackData("start_back"),
	))
	return tu.InlineKeyboard(rows...)
}

// strategiesKeyboard toggles the (sport, strategy) entries; subscribed
// ones are ticked.
func strategiesKeyboard(sport catalog.Sport, subscribed map[string]bool) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, st := range sport.Strategies {
		label := st
		if subscribed[st] {
			label = "✅ " + label
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).
				WithCallbackData(fmt.Sprintf("sub_toggle:%s:%s", sport.Name, st)),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("« Indietro").WithCallbackData("menu_subs"),
	))
	return tu.InlineKeyboard(rows...)
}

func stakesKeyboard(rules []models.StakeRule) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, r := range rules {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("🗑 %s", describeRule(r))).
				WithCallbackData(fmt.Sprintf("stake_del:%d", r.ID)),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("➕ Nuova regola").WithCallbackData("stake_new")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("« Indietro").WithCallbackData("start_back")),
	)
	return tu.InlineKeyboard(rows...)
}

func bankrollsKeyboard(bankrolls []models.Bankroll) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, br := range bankrolls {
		label := br.Name
		if br.IsDefault {
			label = "⭐ " + label
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).WithCallbackData("br_default:"+br.Name),
		))
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("➕ Nuova cassa").WithCallbackData("br_new")),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("« Indietro").WithCallbackData("start_back")),
	)
	return tu.InlineKeyboard(rows...)
}

func referralKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔗 Inserisci codice invito").WithCallbackData("ref_link"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Indietro").WithCallbackData("start_back"),
		),
	)
}
