package repository

import (
	"context"
	"errors"
	"fmt"

	"chemsafe-go/internal/model"

	"gorm.io/gorm"
)

// ErrNoPushToken 表示用户没有登记推送令牌。
var ErrNoPushToken = errors.New("user has no fcm token")

// ProfileRepository 读取用户资料中的推送令牌。
type ProfileRepository interface {
	FindFCMToken(ctx context.Context, userID string) (string, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建一个新的 ProfileRepository 实例。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindFCMToken(ctx context.Context, userID string) (string, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Select("id", "fcm_token").Where("id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoPushToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	if profile.FCMToken == "" {
		return "", ErrNoPushToken
	}
	return profile.FCMToken, nil
}
