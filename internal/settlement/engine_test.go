package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
	"lotbot/internal/store"
)

type fakeStore struct {
	plays       map[uint]*models.Play
	acceptances map[uint]*models.Acceptance
	users       map[uint]*models.User
	bankrolls   map[uint]*models.Bankroll
	// failCredits makes the next N SettleAcceptance calls roll back.
	failCredits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plays:       map[uint]*models.Play{},
		acceptances: map[uint]*models.Acceptance{},
		users:       map[uint]*models.User{},
		bankrolls:   map[uint]*models.Bankroll{},
	}
}

func (f *fakeStore) PlayByKey(_ context.Context, sport string, number int) (*models.Play, error) {
	for _, p := range f.plays {
		if p.Sport == sport && p.Number == number {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) SetPlayOutcome(_ context.Context, playID uint, outcome models.Outcome, cashout *int64) (bool, error) {
	p := f.plays[playID]
	if p.Outcome != models.OutcomeOpen {
		return false, nil
	}
	p.Outcome = outcome
	p.Cashout = cashout
	return true, nil
}

func (f *fakeStore) AcceptancesForPlay(_ context.Context, playID uint) ([]models.Acceptance, error) {
	var out []models.Acceptance
	for _, a := range f.acceptances {
		if a.PlayID == playID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) SettleAcceptance(_ context.Context, id, bankrollID uint, delta int64) (bool, error) {
	a := f.acceptances[id]
	if a.SettledDelta != nil {
		return false, nil
	}
	if f.failCredits > 0 {
		// Rolled-back transaction: neither the stamp nor the credit lands.
		f.failCredits--
		return false, errors.New("connection reset")
	}
	a.SettledDelta = &delta
	f.bankrolls[bankrollID].Balance += delta
	return true, nil
}

func (f *fakeStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) EnsureDefaultBankroll(_ context.Context, userID uint) (*models.Bankroll, error) {
	for _, b := range f.bankrolls {
		if b.UserID == userID && b.IsDefault {
			return b, nil
		}
	}
	b := &models.Bankroll{ID: uint(len(f.bankrolls) + 1), UserID: userID, Name: "principale", IsDefault: true}
	f.bankrolls[b.ID] = b
	return b, nil
}


type fakeSender struct {
	sent map[int64][]string
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	if f.sent == nil {
		f.sent = map[int64][]string{}
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

func (f *fakeSender) SendWithAcceptance(ctx context.Context, chatID int64, text string, _ uint) error {
	return f.Send(ctx, chatID, text)
}

func sportByName(t *testing.T, name string) catalog.Sport {
	t.Helper()
	s, ok := catalog.FindSport(name)
	require.True(t, ok)
	return s
}

func fixture() (*fakeStore, *fakeSender, *Engine) {
	fs := newFakeStore()
	fs.plays[1] = &models.Play{
		ID: 1, Sport: "calcio", Number: 42, Strategy: "produzione",
		BaseOdds: 220, BaseStakePct: 300, Outcome: models.OutcomeOpen,
	}
	pre := int64(10000)
	fs.users[3] = &models.User{ID: 3, TelegramID: 30}
	fs.bankrolls[1] = &models.Bankroll{ID: 1, UserID: 3, Name: "principale", Balance: 10000, IsDefault: true}
	fs.acceptances[1] = &models.Acceptance{ID: 1, UserID: 3, PlayID: 1, StakePct: 500, PreBankroll: &pre}

	sender := &fakeSender{}
	return fs, sender, NewEngine(fs, sender, zap.NewNop())
}

func TestOutcomeSettlesAcceptors(t *testing.T) {
	fs, sender, engine := fixture()

	sport := sportByName(t, "calcio")
	play, err := engine.Outcome(context.Background(), sport, 42, models.OutcomeWin)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWin, play.Outcome)

	// 5% personal stake at odds 2.20 on a 100,00€ bankroll: +6,00€.
	assert.Equal(t, int64(10600), fs.bankrolls[1].Balance)
	require.NotNil(t, fs.acceptances[1].SettledDelta)
	assert.Equal(t, int64(600), *fs.acceptances[1].SettledDelta)

	require.Len(t, sender.sent[30], 1)
	assert.Contains(t, sender.sent[30][0], "+6,00€")
}

func TestOutcomeFallsBackToBaseStakeAndLiveBalance(t *testing.T) {
	fs, _, engine := fixture()
	fs.acceptances[1].StakePct = 0
	fs.acceptances[1].PreBankroll = nil

	_, err := engine.Outcome(context.Background(), sportByName(t, "calcio"), 42, models.OutcomeWin)
	require.NoError(t, err)

	// Base stake 3% at 2.20: +3,60% of 100,00€.
	assert.Equal(t, int64(10360), fs.bankrolls[1].Balance)
}

func TestOutcomeIdempotent(t *testing.T) {
	fs, sender, engine := fixture()
	sport := sportByName(t, "calcio")

	_, err := engine.Outcome(context.Background(), sport, 42, models.OutcomeWin)
	require.NoError(t, err)
	balance := fs.bankrolls[1].Balance

	_, err = engine.Outcome(context.Background(), sport, 42, models.OutcomeWin)
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Equal(t, balance, fs.bankrolls[1].Balance)
	assert.Len(t, sender.sent[30], 1, "no duplicate outcome message")
}

func TestFailedCreditStaysUnstampedAndReplayRepairs(t *testing.T) {
	fs, sender, engine := fixture()
	fs.failCredits = 1
	sport := sportByName(t, "calcio")

	_, err := engine.Outcome(context.Background(), sport, 42, models.OutcomeWin)
	require.NoError(t, err)

	// The credit failed, so neither the stamp nor the money moved.
	assert.Nil(t, fs.acceptances[1].SettledDelta)
	assert.Equal(t, int64(10000), fs.bankrolls[1].Balance)
	assert.Empty(t, sender.sent[30])

	// Replaying the same outcome repairs the missed credit exactly once.
	_, err = engine.Outcome(context.Background(), sport, 42, models.OutcomeWin)
	assert.ErrorIs(t, err, ErrAlreadySettled)
	require.NotNil(t, fs.acceptances[1].SettledDelta)
	assert.Equal(t, int64(600), *fs.acceptances[1].SettledDelta)
	assert.Equal(t, int64(10600), fs.bankrolls[1].Balance)
	require.Len(t, sender.sent[30], 1)
}

func TestOutcomeConflictRejected(t *testing.T) {
	fs, _, engine := fixture()
	sport := sportByName(t, "calcio")

	_, err := engine.Outcome(context.Background(), sport, 42, models.OutcomeWin)
	require.NoError(t, err)

	_, err = engine.Outcome(context.Background(), sport, 42, models.OutcomeLoss)
	assert.ErrorIs(t, err, ErrOutcomeConflict)
	assert.Equal(t, int64(10600), fs.bankrolls[1].Balance)
}

func TestOutcomeUnknownPlay(t *testing.T) {
	_, _, engine := fixture()
	_, err := engine.Outcome(context.Background(), sportByName(t, "calcio"), 99, models.OutcomeWin)
	assert.ErrorIs(t, err, ErrPlayNotFound)
}

func TestLossDebitsStake(t *testing.T) {
	fs, sender, engine := fixture()

	_, err := engine.Outcome(context.Background(), sportByName(t, "calcio"), 42, models.OutcomeLoss)
	require.NoError(t, err)

	assert.Equal(t, int64(9500), fs.bankrolls[1].Balance)
	assert.Contains(t, sender.sent[30][0], "-5,00€")
}

func TestVoidIsNeutralButTerminal(t *testing.T) {
	fs, _, engine := fixture()

	play, err := engine.Outcome(context.Background(), sportByName(t, "calcio"), 42, models.OutcomeVoid)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeVoid, play.Outcome)
	assert.Equal(t, int64(10000), fs.bankrolls[1].Balance)
	require.NotNil(t, fs.acceptances[1].SettledDelta)
	assert.Equal(t, int64(0), *fs.acceptances[1].SettledDelta)
}

func TestCashoutSettlement(t *testing.T) {
	fs, sender, engine := fixture()
	fs.plays[1].Sport = "exchange"

	play, err := engine.Cashout(context.Background(), 42, 600)
	require.NoError(t, err)

	require.NotNil(t, play.Cashout)
	// +6,00% of 100,00€, matching the equivalent win settlement.
	assert.Equal(t, int64(10600), fs.bankrolls[1].Balance)
	assert.Contains(t, sender.sent[30][0], "Cashout")
}
