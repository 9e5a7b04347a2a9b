package auth

import (
	"time"

	"gorm.io/gorm"

	entity "mes.GO/model/entity"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// FindActiveToken returns the token row if it exists, is not revoked and has
// not expired.
func (r *AuthRepository) FindActiveToken(token string) (*entity.ApiToken, error) {
	var t entity.ApiToken
	err := r.db.
		Where("token = ? AND revoked = ?", token, false).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now()) {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}
