package transport

import (
	"github.com/Skotchmaster/property_listing/internal/models"
	"github.com/Skotchmaster/property_listing/internal/util"
)

type SignupRequest struct {
	Name     string `json:"name"     form:"name"     validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Phone    string `json:"phone"    form:"phone"    validate:"required"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// PropertyInput is the full listing payload for create and update.
type PropertyInput struct {
	Title       string   `json:"title"       form:"title"       validate:"required"`
	Description string   `json:"description" form:"description"`
	Price       *float64 `json:"price"       form:"price"       validate:"required,gte=0,finite"`
	Location    string   `json:"location"    form:"location"    validate:"required"`
	ImageURLs   []string `json:"imageUrl"    form:"imageUrl"    validate:"required,min=1,max=4,dive,required"`
	Owner       string   `json:"owner"       form:"owner"       validate:"omitempty,uuid"`
}

type ListQuery struct {
	Page     int
	Limit    int
	Search   string
	MinPrice float64
	MaxPrice float64
}

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type MsgResponse struct {
	Msg string `json:"msg"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Page is one window of listings plus the size of the whole filtered set.
type Page struct {
	Items []models.Property
	Total int64
	Page  int
	Limit int
}

func (p *Page) TotalPages() int64 {
	return util.TotalPages(p.Total, p.Limit)
}

type OwnerListResponse struct {
	Properties []models.Property `json:"properties"`
	Total      int64             `json:"total"`
	TotalPages int64             `json:"totalPages"`
}

type ListResponse struct {
	Data       []models.Property `json:"data"`
	Total      int64             `json:"total"`
	TotalPages int64             `json:"totalPages"`
}

func OwnerList(p *Page) OwnerListResponse {
	return OwnerListResponse{Properties: nonNil(p.Items), Total: p.Total, TotalPages: p.TotalPages()}
}

func List(p *Page) ListResponse {
	return ListResponse{Data: nonNil(p.Items), Total: p.Total, TotalPages: p.TotalPages()}
}

func nonNil(items []models.Property) []models.Property {
	if items == nil {
		return []models.Property{}
	}
	return items
}
