package httpserver

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/media"
	"github.com/Skotchmaster/property_listing/internal/transport"
)

const imageField = "propertyImage"

var errNoStore = errors.New("image storage is not configured")

// pendingImages holds multipart files until the service decides the write may proceed.
type pendingImages struct {
	store media.Store
	files []*multipart.FileHeader
	now   time.Time
	keys  []string
}

func (p *pendingImages) Len() int {
	if p == nil {
		return 0
	}
	return len(p.files)
}

func (p *pendingImages) Store(ctx context.Context) ([]string, error) {
	if p.store == nil {
		return nil, errNoStore
	}
	urls := make([]string, 0, len(p.files))
	for _, fh := range p.files {
		key := media.NewKey(fh.Filename, p.now)
		url, err := putImage(ctx, p.store, key, fh)
		if err != nil {
			p.Discard(ctx)
			return nil, err
		}
		p.keys = append(p.keys, key)
		urls = append(urls, url)
	}
	return urls, nil
}

func (p *pendingImages) Discard(ctx context.Context) {
	for _, key := range p.keys {
		if err := p.store.Delete(ctx, key); err != nil {
			logging.FromContext(ctx).Warn("image_cleanup_failed", "key", key, "error", err)
		}
	}
	p.keys = nil
}

func putImage(ctx context.Context, store media.Store, key string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return store.Put(ctx, key, media.ContentType(fh.Filename), f, fh.Size)
}

// readPropertyInput accepts JSON, url-encoded or multipart bodies. Multipart files are
// checked here but not stored; the returned pendingImages is nil when none were sent.
func readPropertyInput(c echo.Context, store media.Store, now time.Time) (transport.PropertyInput, *pendingImages, error) {
	var in transport.PropertyInput
	req := c.Request()
	ctype := req.Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		if err := c.Bind(&in); err != nil {
			return in, nil, badBody(err)
		}
		return in, nil, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return in, nil, badBody(err)
	}
	in.Title = form.Get("title")
	in.Description = form.Get("description")
	in.Location = form.Get("location")
	in.Owner = strings.TrimSpace(form.Get("owner"))
	in.ImageURLs = append(in.ImageURLs, form["imageUrl"]...)

	if raw := strings.TrimSpace(form.Get("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, nil, apperr.Validationf("price must be a number")
		}
		in.Price = &price
	}

	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return in, nil, nil
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return in, nil, badBody(err)
	}
	files := mf.File[imageField]
	if len(files) == 0 {
		return in, nil, nil
	}
	if err := checkImages(in.ImageURLs, files); err != nil {
		return in, nil, err
	}
	return in, &pendingImages{store: store, files: files, now: now}, nil
}

func checkImages(urls []string, files []*multipart.FileHeader) error {
	n := len(files)
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			n++
		}
	}
	if n > media.MaxImages {
		return apperr.Validationf(fmt.Sprintf("at most %d images are allowed", media.MaxImages))
	}
	for _, fh := range files {
		if !media.Allowed(fh.Filename) {
			return apperr.Validationf("only jpg, jpeg, png and webp images are allowed")
		}
	}
	return nil
}
