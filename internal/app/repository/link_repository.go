package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shredlink/shredlink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that no link exists for the requested token.
	ErrLinkNotFound = errors.New("link not found")
)

// deadPredicate selects expired or consumed rows. It must mirror
// model.Link.IsDead; the in-process check and this SQL change together.
const deadPredicate = "(expires_at IS NOT NULL AND expires_at < ?) " +
	"OR (one_time_view = ? AND view_count > 0) " +
	"OR (one_time_password = ? AND password_used = ?)"

// LinkRepository defines the data access contract for share links. All
// mutations are single-statement atomic column updates so concurrent
// disclosures never lose an increment.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByToken(ctx context.Context, token string) (*model.Link, error)
	IncrementViewCount(ctx context.Context, id uint) error
	MarkPasswordUsed(ctx context.Context, id uint) error
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return err
	}
	return nil
}

func (r *linkRepository) GetByToken(ctx context.Context, token string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) IncrementViewCount(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// MarkPasswordUsed consumes a one-time-password link: password_used and the
// view counter advance in one UPDATE.
func (r *linkRepository) MarkPasswordUsed(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"password_used": true,
			"view_count":    gorm.Expr("view_count + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *linkRepository) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where(deadPredicate, now, true, true, true).
		Delete(&model.Link{})

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
