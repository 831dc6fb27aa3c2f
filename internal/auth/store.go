package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/creditdesk/authd/internal/models"
)

// RefreshTokenStore persists issued refresh-token records. Lookups and
// deletes are point operations keyed by the unique token string; the unique
// index plus the atomicity of a single DELETE is what bounds the concurrent
// double-exchange race to at most one winner.
type RefreshTokenStore struct {
	DB *gorm.DB
}

func (s *RefreshTokenStore) Save(ctx context.Context, token, subjectID, subjectKind string, expiresAt time.Time) error {
	rec := models.RefreshToken{
		Token:       token,
		SubjectID:   subjectID,
		SubjectKind: subjectKind,
		ExpiresAt:   expiresAt,
	}
	return s.DB.WithContext(ctx).Create(&rec).Error
}

func (s *RefreshTokenStore) Find(ctx context.Context, kind, token string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	err := s.DB.WithContext(ctx).
		Where("token = ? AND subject_kind = ?", token, kind).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Delete removes the record and reports how many rows went away. Rotation
// treats zero rows as "someone else already exchanged this token".
func (s *RefreshTokenStore) Delete(ctx context.Context, kind, token string) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("token = ? AND subject_kind = ?", token, kind).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
