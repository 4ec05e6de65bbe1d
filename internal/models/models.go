package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	Phone        string    `gorm:"not null"                 json:"phone"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	IsBlocked    bool      `gorm:"not null;default:false"   json:"isBlocked"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Property struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"              json:"id"`
	Title       string         `gorm:"not null"                          json:"title"`
	Description string         `gorm:"not null;default:''"               json:"description"`
	Price       float64        `gorm:"not null;index"                    json:"price"`
	Location    string         `gorm:"not null;index"                    json:"location"`
	ImageURLs   []string       `gorm:"column:image_urls;type:text;serializer:json;not null" json:"imageUrl"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index"          json:"owner"`
	CreatedAt   time.Time      `gorm:"index"                             json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index"                             json:"-"`
}

func (p *Property) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &Property{}}
}
