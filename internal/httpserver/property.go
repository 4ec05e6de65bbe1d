package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/media"
	"github.com/Skotchmaster/property_listing/internal/middleware/auth"
	"github.com/Skotchmaster/property_listing/internal/service"
	"github.com/Skotchmaster/property_listing/internal/transport"
	"github.com/Skotchmaster/property_listing/internal/util"
)

type PropertyHTTP struct {
	Svc   *service.PropertyService
	Store media.Store
	Now   func() time.Time
}

func (h *PropertyHTTP) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func actor(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.UserID(c)
	if !ok {
		return uuid.Nil, apperr.Unauthorizedf("")
	}
	return id, nil
}

func withImages(p *pendingImages) []service.WriteOption {
	if p == nil {
		return nil
	}
	return []service.WriteOption{service.WithUploads(p)}
}

func (h *PropertyHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "property_create")

	actorID, err := actor(c)
	if err != nil {
		return err
	}
	in, images, err := readPropertyInput(c, h.Store, h.now())
	if err != nil {
		l.Warn("create_property_error", "status", apperr.Status(err), "error", err)
		return err
	}

	res, err := h.Svc.Create(ctx, in, actorID, withImages(images)...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PropertyHTTP) ListByOwner(c echo.Context) error {
	ctx := c.Request().Context()

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), service.DefaultOwnerPageSize)

	res, err := h.Svc.GetByOwner(ctx, c.Param("userId"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OwnerList(res))
}

// ListAll filters by price range and location. A missing, unparseable or zero maxPrice is unbounded.
func (h *PropertyHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	q := transport.ListQuery{
		Page:     util.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:    util.ParseIntDefault(c.QueryParam("limit"), service.DefaultListPageSize),
		Search:   c.QueryParam("search"),
		MinPrice: util.ParseFloatDefault(c.QueryParam("minPrice"), 0),
		MaxPrice: util.ParseFloatDefault(c.QueryParam("maxPrice"), 0),
	}

	res, err := h.Svc.GetAll(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.List(res))
}

func (h *PropertyHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	text := c.QueryParam("q")
	if text == "" {
		text = c.QueryParam("search")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), service.DefaultListPageSize)

	res, err := h.Svc.Search(ctx, text, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.List(res))
}

func (h *PropertyHTTP) Get(c echo.Context) error {
	p, err := h.Svc.GetByID(c.Request().Context(), c.Param("propertyId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PropertyHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "property_update")

	actorID, err := actor(c)
	if err != nil {
		return err
	}
	in, images, err := readPropertyInput(c, h.Store, h.now())
	if err != nil {
		l.Warn("update_property_error", "status", apperr.Status(err), "error", err)
		return err
	}

	res, err := h.Svc.Update(ctx, c.Param("propertyId"), in, actorID, withImages(images)...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PropertyHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	actorID, err := actor(c)
	if err != nil {
		return err
	}
	res, err := h.Svc.Delete(ctx, c.Param("propertyId"), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
