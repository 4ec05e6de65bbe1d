package events

import (
	"time"

	"github.com/Skotchmaster/property_listing/internal/models"
)

const (
	UserRegistered  = "user_registered"
	UserLoggedIn    = "user_logged_in"
	PropertyCreated = "property_created"
	PropertyUpdated = "property_updated"
	PropertyDeleted = "property_deleted"
)

func UserEvent(kind string, u *models.User, at time.Time) map[string]any {
	return map[string]any{
		"type":   kind,
		"userID": u.ID.String(),
		"email":  u.Email,
		"at":     at.UTC(),
	}
}

func PropertyEvent(kind string, p *models.Property, at time.Time) map[string]any {
	ev := map[string]any{
		"type":       kind,
		"propertyID": p.ID.String(),
		"ownerID":    p.OwnerID.String(),
		"at":         at.UTC(),
	}
	if kind != PropertyDeleted {
		ev["title"] = p.Title
		ev["price"] = p.Price
		ev["location"] = p.Location
	}
	return ev
}
