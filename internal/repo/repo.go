package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Scope = func(*gorm.DB) *gorm.DB

const NewestFirst = "created_at DESC, id DESC"

// GormRepo is the shared CRUD surface. Not-found is reported as gorm.ErrRecordNotFound.
type GormRepo[T any] struct {
	DB *gorm.DB
}

func (r *GormRepo[T]) Create(ctx context.Context, v *T) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

func (r *GormRepo[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var v T
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo[T]) FindAll(ctx context.Context, scope Scope, order string, offset, limit int) ([]T, error) {
	q := r.DB.WithContext(ctx).Model(new(T))
	if scope != nil {
		q = q.Scopes(scope)
	}
	if order != "" {
		q = q.Order(order)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	items := make([]T, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo[T]) Count(ctx context.Context, scope Scope) (int64, error) {
	q := r.DB.WithContext(ctx).Model(new(T))
	if scope != nil {
		q = q.Scopes(scope)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateByID overwrites exactly the listed columns, zero values included.
func (r *GormRepo[T]) UpdateByID(ctx context.Context, id uuid.UUID, v *T, fields ...string) error {
	q := r.DB.WithContext(ctx).Model(new(T)).Where("id = ?", id)
	if len(fields) > 0 {
		q = q.Select(fields)
	}
	res := q.Updates(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo[T]) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
