package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lotbot/internal/models"
)

func (s *Gorm) InsertPlay(ctx context.Context, play *models.Play) error {
	// Natural-key uniqueness lives on the (sport, number) index; a
	// collision surfaces as ErrDuplicate.
	return translate(s.db.WithContext(ctx).Create(play).Error)
}

func (s *Gorm) PlayByKey(ctx context.Context, sport string, number int) (*models.Play, error) {
	var play models.Play
	err := s.db.WithContext(ctx).
		Where("sport = ? AND number = ?", sport, number).First(&play).Error
	if err != nil {
		return nil, translate(err)
	}
	return &play, nil
}

func (s *Gorm) PlayByID(ctx context.Context, id uint) (*models.Play, error) {
	var play models.Play
	if err := s.db.WithContext(ctx).First(&play, id).Error; err != nil {
		return nil, translate(err)
	}
	return &play, nil
}

// SetPlayOutcome freezes the play. The update is guarded: it only applies
// while the outcome is still open, so the "?" → terminal transition
// happens exactly once even under concurrent settlements.
func (s *Gorm) SetPlayOutcome(ctx context.Context, playID uint, outcome models.Outcome, cashout *int64) (bool, error) {
	fields := map[string]any{"outcome": outcome}
	if cashout != nil {
		fields["cashout"] = *cashout
	}
	res := s.db.WithContext(ctx).Model(&models.Play{}).
		Where("id = ? AND outcome = ?", playID, models.OutcomeOpen).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Gorm) Recipients(ctx context.Context, sport, strategy string) ([]models.User, error) {
	sub := s.db.Model(&models.SportSubscription{}).
		Select("user_id").Where("sport = ?", sport)
	if strategy != "" && strategy != "all" {
		sub = sub.Where("strategy = ?", strategy)
	}
	var users []models.User
	err := s.preloadedUsers(ctx).Where("id IN (?)", sub).Find(&users).Error
	return users, err
}

func (s *Gorm) SportRecipients(ctx context.Context, sports []string) ([]models.User, error) {
	sub := s.db.Model(&models.SportSubscription{}).
		Select("user_id").Where("sport IN ?", sports)
	var users []models.User
	err := s.preloadedUsers(ctx).Where("id IN (?)", sub).Find(&users).Error
	return users, err
}

func (s *Gorm) AddAcceptance(ctx context.Context, a models.Acceptance) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Gorm) AddRefusal(ctx context.Context, r models.Refusal) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Gorm) AcceptancesForPlay(ctx context.Context, playID uint) ([]models.Acceptance, error) {
	var accs []models.Acceptance
	err := s.db.WithContext(ctx).Where("play_id = ?", playID).Find(&accs).Error
	return accs, err
}

// SettleAcceptance stamps the realised delta and credits the bankroll in
// one transaction. The guard on the null marker is the idempotency
// barrier for reprocessed settlements; a failed credit rolls the stamp
// back, so the acceptance stays claimable by a later pass.
func (s *Gorm) SettleAcceptance(ctx context.Context, acceptanceID, bankrollID uint, delta int64) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Acceptance{}).
			Where("id = ? AND settled_delta IS NULL", acceptanceID).
			Update("settled_delta", delta)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		adj := tx.Model(&models.Bankroll{}).
			Where("id = ?", bankrollID).
			Update("balance", gorm.Expr("balance + ?", delta))
		if adj.Error != nil {
			return adj.Error
		}
		if adj.RowsAffected == 0 {
			return ErrNotFound
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *Gorm) SettledPlaysSince(ctx context.Context, since time.Time) ([]models.Play, error) {
	var plays []models.Play
	err := s.db.WithContext(ctx).
		Where("outcome <> ? AND updated_at >= ?", models.OutcomeOpen, since).
		Order("updated_at ASC").Find(&plays).Error
	return plays, err
}

func (s *Gorm) LastSettledPlays(ctx context.Context, n int) ([]models.Play, error) {
	var plays []models.Play
	err := s.db.WithContext(ctx).
		Where("outcome <> ?", models.OutcomeOpen).
		Order("updated_at DESC").Limit(n).Find(&plays).Error
	return plays, err
}

func (s *Gorm) StatementFor(ctx context.Context, userID uint, since time.Time) ([]StatementLine, error) {
	var accs []models.Acceptance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND settled_delta IS NOT NULL AND updated_at >= ?", userID, since).
		Order("updated_at ASC").Find(&accs).Error
	if err != nil {
		return nil, err
	}
	lines := make([]StatementLine, 0, len(accs))
	for _, a := range accs {
		var play models.Play
		if err := s.db.WithContext(ctx).First(&play, a.PlayID).Error; err != nil {
			continue
		}
		lines = append(lines, StatementLine{Play: play, Delta: *a.SettledDelta, SettledAt: a.UpdatedAt})
	}
	return lines, nil
}
