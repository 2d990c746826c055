package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lotbot/internal/models"
)

// DefaultBankrollName is used when a recipient is touched before ever
// creating a bankroll.
const DefaultBankrollName = "principale"

// EnsureDefaultBankroll returns the user's default bankroll, migrating
// legacy records on first touch: an existing bankroll without the flag is
// promoted, a user with none at all gets an empty default.
func (s *Gorm) EnsureDefaultBankroll(ctx context.Context, userID uint) (*models.Bankroll, error) {
	var b models.Bankroll
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_default = true", userID).First(&b).Error
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Legacy single-bankroll record: promote the oldest.
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).Order("id ASC").First(&b).Error
	if err == nil {
		if err := s.db.WithContext(ctx).Model(&b).Update("is_default", true).Error; err != nil {
			return nil, fmt.Errorf("promote bankroll: %w", err)
		}
		b.IsDefault = true
		return &b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b = models.Bankroll{
		UserID:       userID,
		Name:         DefaultBankrollName,
		InterestType: models.InterestCompound,
		IsDefault:    true,
	}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *Gorm) AddBankroll(ctx context.Context, b *models.Bankroll) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Bankroll{}).Where("user_id = ?", b.UserID).Count(&count).Error; err != nil {
			return err
		}
		// The first bankroll becomes the default.
		if count == 0 {
			b.IsDefault = true
		}
		return translate(tx.Create(b).Error)
	})
}

// SetDefaultBankroll moves the default flag; at most one bankroll per user
// carries it.
func (s *Gorm) SetDefaultBankroll(ctx context.Context, userID uint, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Bankroll
		if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&b).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&models.Bankroll{}).
			Where("user_id = ? AND is_default = true", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&b).Update("is_default", true).Error
	})
}

func (s *Gorm) AdjustBankrollBalance(ctx context.Context, bankrollID uint, delta int64) error {
	res := s.db.WithContext(ctx).Model(&models.Bankroll{}).
		Where("id = ?", bankrollID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) StakeRules(ctx context.Context, userID uint) ([]models.StakeRule, error) {
	var rules []models.StakeRule
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).Order("id ASC").Find(&rules).Error
	return rules, err
}

func (s *Gorm) AddStakeRule(ctx context.Context, r *models.StakeRule) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Gorm) DeleteStakeRule(ctx context.Context, userID, ruleID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, ruleID).Delete(&models.StakeRule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
