package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/events"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/models"
	"github.com/Skotchmaster/property_listing/internal/repo"
	"github.com/Skotchmaster/property_listing/internal/sanitize"
	"github.com/Skotchmaster/property_listing/internal/search"
	"github.com/Skotchmaster/property_listing/internal/transport"
	"github.com/Skotchmaster/property_listing/internal/util"
	"github.com/Skotchmaster/property_listing/internal/validation"
)

const (
	DefaultOwnerPageSize = 10
	DefaultListPageSize  = 6
)

type PropertyService struct {
	Properties *repo.PropertyRepo
	Users      *repo.UserRepo
	Validator  *validation.Validator
	Sanitizer  *sanitize.Text
	Index      search.Index
	Events     events.Publisher
	Now        func() time.Time
}

func (s *PropertyService) clean(in transport.PropertyInput) transport.PropertyInput {
	in.Title = s.Sanitizer.Sanitize(in.Title)
	in.Description = s.Sanitizer.Sanitize(in.Description)
	in.Location = s.Sanitizer.Sanitize(in.Location)
	in.Owner = strings.TrimSpace(in.Owner)

	images := make([]string, 0, len(in.ImageURLs))
	for _, u := range in.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	in.ImageURLs = images
	if len(images) == 0 {
		in.ImageURLs = nil
	}
	return in
}

func (s *PropertyService) Create(ctx context.Context, in transport.PropertyInput, actorID uuid.UUID, opts ...WriteOption) (transport.MsgResponse, error) {
	l := logging.FromContext(ctx).With("svc", "property.create", "actor_id", actorID)
	o := collect(opts)

	in = s.clean(in)
	if in.Owner == "" {
		in.Owner = actorID.String()
	}
	if err := s.validate(in, o); err != nil {
		return transport.MsgResponse{}, err
	}
	ownerID := uuid.MustParse(in.Owner)
	if ownerID != actorID {
		l.Warn("create_property_failed", "status", 403, "reason", "owner differs from caller", "owner_id", ownerID)
		return transport.MsgResponse{}, apperr.Forbiddenf(MsgNotOwner)
	}
	if _, err := s.Users.FindByID(ctx, ownerID); err != nil {
		return transport.MsgResponse{}, storeErr(err, MsgUserNotFound)
	}

	uploaded, err := o.store(ctx)
	if err != nil {
		l.Error("create_property_failed", "status", 500, "reason", "cannot store images", "error", err)
		return transport.MsgResponse{}, err
	}
	in.ImageURLs = append(in.ImageURLs, uploaded...)

	p := &models.Property{
		Title:       in.Title,
		Description: in.Description,
		Price:       *in.Price,
		Location:    in.Location,
		ImageURLs:   in.ImageURLs,
		OwnerID:     ownerID,
	}
	if err := s.Properties.Create(ctx, p); err != nil {
		o.discard(ctx)
		l.Error("create_property_failed", "status", 500, "reason", "cannot save property", "error", err)
		return transport.MsgResponse{}, storeErr(err, MsgPropertyNotFound)
	}

	s.reindex(ctx, p)
	publish(ctx, s.Events, events.TopicProperties, p.ID.String(), events.PropertyEvent(events.PropertyCreated, p, nowOr(s.Now)))
	l.Info("create_property_successful", "property_id", p.ID)
	return transport.MsgResponse{Msg: MsgPropertyAdded}, nil
}

func (s *PropertyService) GetByOwner(ctx context.Context, ownerRaw string, page, size int) (*transport.Page, error) {
	ownerID, err := parseID(ownerRaw, MsgUserNotFound)
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.FindByID(ctx, ownerID); err != nil {
		return nil, storeErr(err, MsgUserNotFound)
	}

	page, size = util.Normalize(page, size, DefaultOwnerPageSize)
	offset, limit := util.Calculate(page, size)

	items, total, err := s.Properties.FindByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, storeErr(err, MsgPropertyNotFound)
	}
	return &transport.Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *PropertyService) GetAll(ctx context.Context, q transport.ListQuery) (*transport.Page, error) {
	minPrice, maxPrice := q.MinPrice, q.MaxPrice
	if math.IsNaN(minPrice) || math.IsInf(minPrice, 0) || minPrice < 0 {
		return nil, apperr.Validationf("minPrice must be a non-negative number")
	}
	if math.IsNaN(maxPrice) || maxPrice <= 0 {
		maxPrice = math.Inf(1)
	}
	if minPrice > maxPrice {
		return nil, apperr.Validationf("minPrice must not exceed maxPrice")
	}

	page, size := util.Normalize(q.Page, q.Limit, DefaultListPageSize)
	offset, limit := util.Calculate(page, size)
	scope := repo.Combine(repo.PriceBetween(minPrice, maxPrice), repo.LocationContains(q.Search))

	total, err := s.Properties.Count(ctx, scope)
	if err != nil {
		return nil, storeErr(err, MsgPropertyNotFound)
	}
	items, err := s.Properties.FindAll(ctx, scope, repo.NewestFirst, offset, limit)
	if err != nil {
		return nil, storeErr(err, MsgPropertyNotFound)
	}
	return &transport.Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Search runs full-text search through the index and loads the hits from the store,
// so rows deleted since indexing never surface. Without an index it filters by location.
func (s *PropertyService) Search(ctx context.Context, text string, page, size int) (*transport.Page, error) {
	text = strings.TrimSpace(text)
	if s.Index == nil || text == "" {
		return s.GetAll(ctx, transport.ListQuery{Page: page, Limit: size, Search: text})
	}

	page, size = util.Normalize(page, size, DefaultListPageSize)
	offset, limit := util.Calculate(page, size)

	ids, total, err := s.Index.Search(ctx, text, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to store", "error", err)
		return s.GetAll(ctx, transport.ListQuery{Page: page, Limit: size, Search: text})
	}
	items, err := s.Properties.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, MsgPropertyNotFound)
	}
	return &transport.Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *PropertyService) GetByID(ctx context.Context, raw string) (*models.Property, error) {
	id, err := parseID(raw, MsgPropertyNotFound)
	if err != nil {
		return nil, err
	}
	p, err := s.Properties.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, MsgPropertyNotFound)
	}
	return p, nil
}

func (s *PropertyService) Update(ctx context.Context, raw string, in transport.PropertyInput, actorID uuid.UUID, opts ...WriteOption) (transport.MsgResponse, error) {
	l := logging.FromContext(ctx).With("svc", "property.update", "actor_id", actorID)
	o := collect(opts)

	current, err := s.owned(ctx, raw, actorID)
	if err != nil {
		return transport.MsgResponse{}, err
	}

	in = s.clean(in)
	if in.Owner == "" {
		in.Owner = current.OwnerID.String()
	}
	if err := s.validate(in, o); err != nil {
		return transport.MsgResponse{}, err
	}

	uploaded, err := o.store(ctx)
	if err != nil {
		l.Error("update_property_failed", "status", 500, "reason", "cannot store images", "error", err)
		return transport.MsgResponse{}, err
	}
	in.ImageURLs = append(in.ImageURLs, uploaded...)

	next := &models.Property{
		Title:       in.Title,
		Description: in.Description,
		Price:       *in.Price,
		Location:    in.Location,
		ImageURLs:   in.ImageURLs,
	}
	if err := s.Properties.UpdateByID(ctx, current.ID, next, repo.PropertyColumns...); err != nil {
		o.discard(ctx)
		l.Error("update_property_failed", "reason", "cannot save property", "error", err)
		return transport.MsgResponse{}, storeErr(err, MsgPropertyNotFound)
	}

	next.ID = current.ID
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt
	s.reindex(ctx, next)
	publish(ctx, s.Events, events.TopicProperties, next.ID.String(), events.PropertyEvent(events.PropertyUpdated, next, nowOr(s.Now)))
	l.Info("update_property_successful", "property_id", current.ID)
	return transport.MsgResponse{Msg: MsgPropertyUpdated}, nil
}

func (s *PropertyService) Delete(ctx context.Context, raw string, actorID uuid.UUID) (transport.MsgResponse, error) {
	l := logging.FromContext(ctx).With("svc", "property.delete", "actor_id", actorID)

	current, err := s.owned(ctx, raw, actorID)
	if err != nil {
		return transport.MsgResponse{}, err
	}
	if err := s.Properties.DeleteByID(ctx, current.ID); err != nil {
		return transport.MsgResponse{}, storeErr(err, MsgPropertyNotFound)
	}

	if s.Index != nil {
		if err := s.Index.Remove(ctx, current.ID); err != nil {
			l.Warn("unindex_failed", "property_id", current.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProperties, current.ID.String(), events.PropertyEvent(events.PropertyDeleted, current, nowOr(s.Now)))
	l.Info("delete_property_successful", "property_id", current.ID)
	return transport.MsgResponse{Msg: MsgPropertyDeleted}, nil
}

func (s *PropertyService) owned(ctx context.Context, raw string, actorID uuid.UUID) (*models.Property, error) {
	current, err := s.GetByID(ctx, raw)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != actorID {
		logging.FromContext(ctx).Warn("ownership_check_failed", "status", 403, "property_id", current.ID, "actor_id", actorID)
		return nil, apperr.Forbiddenf(MsgNotOwner)
	}
	return current, nil
}

func (s *PropertyService) reindex(ctx context.Context, p *models.Property) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_failed", "property_id", p.ID, "error", err)
	}
}
