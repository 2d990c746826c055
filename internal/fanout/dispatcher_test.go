package fanout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lotbot/internal/models"
	"lotbot/internal/parser"
	"lotbot/internal/store"
)

type fakeStore struct {
	plays      []*models.Play
	recipients []models.User
}

func (f *fakeStore) InsertPlay(_ context.Context, p *models.Play) error {
	for _, existing := range f.plays {
		if existing.Sport == p.Sport && existing.Number == p.Number {
			return store.ErrDuplicate
		}
	}
	p.ID = uint(len(f.plays) + 1)
	f.plays = append(f.plays, p)
	return nil
}

func (f *fakeStore) Recipients(_ context.Context, sport, strategy string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.recipients {
		for _, s := range u.SportSubscriptions {
			if s.Sport == sport && (strategy == "all" || s.Strategy == strategy) {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) SportRecipients(_ context.Context, sports []string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.recipients {
		matched := false
		for _, s := range u.SportSubscriptions {
			for _, sport := range sports {
				if s.Sport == sport {
					matched = true
				}
			}
		}
		if matched {
			out = append(out, u)
		}
	}
	return out, nil
}

type sentMsg struct {
	chatID   int64
	text     string
	keyboard bool
	playID   uint
}

type fakeSender struct {
	sent        []sentMsg
	unreachable map[int64]bool
	failing     map[int64]bool
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	return f.record(chatID, text, false, 0)
}

func (f *fakeSender) SendWithAcceptance(_ context.Context, chatID int64, text string, playID uint) error {
	return f.record(chatID, text, true, playID)
}

func (f *fakeSender) record(chatID int64, text string, kb bool, playID uint) error {
	if f.unreachable[chatID] {
		return fmt.Errorf("send: %w", ErrUnreachable)
	}
	if f.failing[chatID] {
		return errors.New("timeout")
	}
	f.sent = append(f.sent, sentMsg{chatID: chatID, text: text, keyboard: kb, playID: playID})
	return nil
}

func subscriber(tgID int64, sport, strategy string) models.User {
	return models.User{
		ID:         uint(tgID),
		TelegramID: tgID,
		SportSubscriptions: []models.SportSubscription{
			{Sport: sport, Strategy: strategy},
		},
	}
}

func calcioPlay() *models.Play {
	return &models.Play{
		Sport:        "calcio",
		Number:       42,
		Strategy:     "produzione",
		BaseOdds:     220,
		BaseStakePct: 300,
		Outcome:      models.OutcomeOpen,
	}
}

func newDispatcher(fs *fakeStore, sender *fakeSender) *Dispatcher {
	return NewDispatcher(fs, sender, zap.NewNop(), 999)
}

func TestPlayFanoutSkipsBlocked(t *testing.T) {
	a := subscriber(1, "calcio", "produzione")
	a.Blocked = true
	b := subscriber(2, "calcio", "produzione")

	fs := &fakeStore{recipients: []models.User{a, b}}
	sender := &fakeSender{}
	d := newDispatcher(fs, sender)

	stats, err := d.Play(context.Background(), calcioPlay())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Attempted)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Failed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(2), sender.sent[0].chatID)
	assert.True(t, sender.sent[0].keyboard)
}

func TestPlayFanoutDuplicateNaturalKey(t *testing.T) {
	fs := &fakeStore{}
	d := newDispatcher(fs, &fakeSender{})

	_, err := d.Play(context.Background(), calcioPlay())
	require.NoError(t, err)

	_, err = d.Play(context.Background(), calcioPlay())
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestPlayFanoutPersonalisation(t *testing.T) {
	c := subscriber(3, "calcio", "produzione")
	c.StakeRules = []models.StakeRule{
		{MinOdds: 150, MaxOdds: 250, StakePct: 500, Sport: "calcio", Strategies: "produzione"},
	}
	c.Bankrolls = []models.Bankroll{
		{Name: "principale", Balance: 10000, InterestType: models.InterestCompound, IsDefault: true},
	}

	fs := &fakeStore{recipients: []models.User{c}}
	sender := &fakeSender{}
	d := newDispatcher(fs, sender)

	play := calcioPlay()
	play.RawText = RenderPlay(play)
	_, err := d.Play(context.Background(), play)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "Stake 5,00%")
	assert.Contains(t, sender.sent[0].text, "5,00€")
}

func TestPlayFanoutUnreachableIsSilent(t *testing.T) {
	a := subscriber(1, "calcio", "produzione")
	b := subscriber(2, "calcio", "produzione")
	fs := &fakeStore{recipients: []models.User{a, b}}
	sender := &fakeSender{unreachable: map[int64]bool{1: true}}
	d := newDispatcher(fs, sender)

	stats, err := d.Play(context.Background(), calcioPlay())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Unreachable)
	assert.Equal(t, 0, stats.Failed)
	// No operator alert: the only miss was unreachable.
	for _, m := range sender.sent {
		assert.NotEqual(t, int64(999), m.chatID)
	}
}

func TestPlayFanoutFailureRaisesOperatorAlert(t *testing.T) {
	a := subscriber(1, "calcio", "produzione")
	b := subscriber(2, "calcio", "produzione")
	fs := &fakeStore{recipients: []models.User{a, b}}
	sender := &fakeSender{failing: map[int64]bool{1: true}}
	d := newDispatcher(fs, sender)

	stats, err := d.Play(context.Background(), calcioPlay())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	var alerted bool
	for _, m := range sender.sent {
		if m.chatID == 999 {
			alerted = true
			assert.Contains(t, m.text, "calcio")
		}
	}
	assert.True(t, alerted)
}

func TestCashoutGoesToExchangePool(t *testing.T) {
	ex := subscriber(10, "exchange", "produzione")
	max := subscriber(11, "maxexchange", "produzione")
	other := subscriber(12, "calcio", "produzione")
	fs := &fakeStore{recipients: []models.User{ex, max, other}}
	sender := &fakeSender{}
	d := newDispatcher(fs, sender)

	play := &models.Play{Sport: "exchange", Number: 9, Strategy: "produzione"}
	stats, err := d.Cashout(context.Background(), play, 350)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Sent)
	for _, m := range sender.sent {
		assert.False(t, m.keyboard)
		assert.Contains(t, m.text, "+3,50%")
		assert.NotEqual(t, int64(12), m.chatID)
	}
}

func TestRenderPlayRoundTrip(t *testing.T) {
	play := calcioPlay()
	parsed, err := parser.ParsePlay(RenderPlay(play), 0)
	require.NoError(t, err)

	assert.Equal(t, play.Sport, parsed.Sport)
	assert.Equal(t, play.Strategy, parsed.Strategy)
	assert.Equal(t, play.Number, parsed.Number)
	assert.Equal(t, play.BaseOdds, parsed.BaseOdds)
	assert.Equal(t, play.BaseStakePct, parsed.BaseStakePct)
}
