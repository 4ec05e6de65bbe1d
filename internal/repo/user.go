package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/property_listing/internal/models"
)

type UserRepo struct {
	GormRepo[models.User]
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{GormRepo[models.User]{DB: db}}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
