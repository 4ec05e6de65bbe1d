package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/events"
	"github.com/Skotchmaster/property_listing/internal/logging"
)

const (
	MsgUserNotFound     = "User Not Found"
	MsgPropertyNotFound = "Property Not Found"
	MsgUserExists       = "User Already Exists"
	MsgBadPassword      = "Incorrect Password"
	MsgUserBlocked      = "User is blocked"
	MsgNotOwner         = "You are not allowed to modify this property"

	MsgSignedUp        = "User Registration completed"
	MsgPropertyAdded   = "Property added Successfully"
	MsgPropertyUpdated = "Property updated Successfully"
	MsgPropertyDeleted = "Property Deleted successfully"
)

func storeErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, notFound, err)
	}
	return apperr.Wrap(apperr.Internal, "store failure", err)
}

// parseID treats an empty id as a missing record and a malformed one as bad input.
func parseID(raw, notFound string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, apperr.NotFoundf(notFound)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.Validation, "invalid id", err)
	}
	return id, nil
}

func publish(ctx context.Context, pub events.Publisher, topic, key string, ev map[string]any) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "topic", topic, "type", ev["type"], "error", err)
	}
}

func nowOr(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
