package repo

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/property_listing/internal/models"
)

// PropertyColumns are the columns a listing update overwrites.
var PropertyColumns = []string{"title", "description", "price", "location", "image_urls"}

type PropertyRepo struct {
	GormRepo[models.Property]
}

func NewPropertyRepo(db *gorm.DB) *PropertyRepo {
	return &PropertyRepo{GormRepo[models.Property]{DB: db}}
}

func ByOwner(ownerID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}

// PriceBetween is inclusive on both ends. An infinite max leaves the range open.
func PriceBetween(minPrice, maxPrice float64) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if math.IsInf(maxPrice, 1) {
			return db.Where("price >= ?", minPrice)
		}
		return db.Where("price >= ? AND price <= ?", minPrice, maxPrice)
	}
}

// LocationContains matches location case-insensitively. LIKE wildcards in text are literal.
func LocationContains(text string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		text = strings.TrimSpace(text)
		if text == "" {
			return db
		}
		return db.Where(`LOWER(location) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(text))+"%")
	}
}

func Combine(scopes ...Scope) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(scopes...)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *PropertyRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Property, int64, error) {
	total, err := r.Count(ctx, ByOwner(ownerID))
	if err != nil {
		return nil, 0, err
	}
	items, err := r.FindAll(ctx, ByOwner(ownerID), NewestFirst, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindByIDs returns the live rows among ids, in the order of ids.
func (r *PropertyRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Property, error) {
	if len(ids) == 0 {
		return []models.Property{}, nil
	}
	var rows []models.Property
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Property, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]models.Property, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
