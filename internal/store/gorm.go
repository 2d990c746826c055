package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lotbot/internal/models"
)

// Gorm implements Store on a gorm connection.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm { return &Gorm{db: db} }

// userPreloads loads everything the engines read off a recipient.
var userPreloads = []string{
	"PlanSubscriptions", "SportSubscriptions", "StakeRules", "Bankrolls",
}

func (s *Gorm) preloadedUsers(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx)
	for _, p := range userPreloads {
		q = q.Preload(p)
	}
	return q
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *Gorm) FindOrCreateUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where(models.User{TelegramID: telegramID}).
		Attrs(models.User{
			Username:  username,
			FirstName: firstName,
			Role:      models.RoleUser,
			// Assigned at insert so the unique column never holds the
			// empty string for two rows at once.
			ReferralCode: models.DefaultReferralCode(telegramID),
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("find or create user %d: %w", telegramID, err)
	}
	// Keep the handle fresh; operators look users up by it.
	if user.Username != username || user.FirstName != firstName {
		user.Username = username
		user.FirstName = firstName
		if err := s.db.WithContext(ctx).Model(&user).
			Updates(map[string]any{"username": username, "first_name": firstName}).Error; err != nil {
			return nil, fmt.Errorf("refresh user %d: %w", telegramID, err)
		}
	}
	return s.UserByID(ctx, user.ID)
}

func (s *Gorm) UserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := s.preloadedUsers(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.preloadedUsers(ctx).First(&user, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) UserByHandle(ctx context.Context, handle string) (*models.User, error) {
	handle = strings.TrimPrefix(handle, "@")
	var user models.User
	err := s.preloadedUsers(ctx).Where("username = ?", handle).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) UserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := s.preloadedUsers(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) ActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where("blocked = false").Find(&users).Error
	return users, err
}

func (s *Gorm) SetBlocked(ctx context.Context, userID uint, blocked bool) error {
	return s.updateUser(ctx, userID, map[string]any{"blocked": blocked})
}

func (s *Gorm) SetRole(ctx context.Context, userID uint, role string) error {
	return s.updateUser(ctx, userID, map[string]any{"role": role})
}

func (s *Gorm) SetReferralCode(ctx context.Context, userID uint, code string) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("referral_code", code).Error
	return translate(err)
}

func (s *Gorm) LinkReferral(ctx context.Context, userID uint, code string, referrerID uint) error {
	return s.updateUser(ctx, userID, map[string]any{
		"linked_referral_code": code,
		"linked_referrer_id":   referrerID,
	})
}

func (s *Gorm) updateUser(ctx context.Context, userID uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ExtendPlanSubscription(ctx context.Context, userID uint, plan string, days int, now time.Time) (float64, error) {
	var sub models.PlanSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plan_name = ?", userID, plan).First(&sub).Error

	nowTS := float64(now.Unix())
	extension := float64(days) * 24 * 3600

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.PlanSubscription{
			UserID:              userID,
			PlanName:            plan,
			ExpirationTimestamp: nowTS + extension,
		}
		if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
			return 0, fmt.Errorf("create plan subscription: %w", err)
		}
	case err != nil:
		return 0, err
	default:
		// Extend from the current expiry when still active, from now when
		// already lapsed.
		base := sub.ExpirationTimestamp
		if base < nowTS {
			base = nowTS
		}
		sub.ExpirationTimestamp = base + extension
		if err := s.db.WithContext(ctx).Model(&sub).
			Update("expiration_timestamp", sub.ExpirationTimestamp).Error; err != nil {
			return 0, fmt.Errorf("extend plan subscription: %w", err)
		}
	}
	return sub.ExpirationTimestamp, nil
}

func (s *Gorm) ExpiringPlanSubscriptions(ctx context.Context, from, to float64) ([]models.PlanSubscription, error) {
	var subs []models.PlanSubscription
	err := s.db.WithContext(ctx).
		Where("expiration_timestamp BETWEEN ? AND ?", from, to).Find(&subs).Error
	return subs, err
}

func (s *Gorm) AddSportSubscription(ctx context.Context, userID uint, sport, strategy string) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SportSubscription{UserID: userID, Sport: sport, Strategy: strategy})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Gorm) RemoveSportSubscription(ctx context.Context, userID uint, sport, strategy string) error {
	q := s.db.WithContext(ctx).Where("user_id = ? AND sport = ?", userID, sport)
	if strategy != "" {
		q = q.Where("strategy = ?", strategy)
	}
	return q.Delete(&models.SportSubscription{}).Error
}

func (s *Gorm) AddPayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}
