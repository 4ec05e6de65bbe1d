package service

import (
	"context"
	"slices"

	"github.com/Skotchmaster/property_listing/internal/apperr"
	"github.com/Skotchmaster/property_listing/internal/transport"
)

// Uploads are image files received with a listing write. They are stored only
// once the write is authorized and valid, and discarded if the write then fails.
type Uploads interface {
	Len() int
	Store(ctx context.Context) ([]string, error)
	Discard(ctx context.Context)
}

type WriteOption func(*writeOptions)

type writeOptions struct {
	uploads Uploads
}

func WithUploads(u Uploads) WriteOption {
	return func(o *writeOptions) { o.uploads = u }
}

func collect(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o writeOptions) pending() int {
	if o.uploads == nil {
		return 0
	}
	return o.uploads.Len()
}

// validate checks in as if the pending uploads were already referenced.
func (s *PropertyService) validate(in transport.PropertyInput, o writeOptions) error {
	if n := o.pending(); n > 0 {
		in.ImageURLs = append(slices.Clone(in.ImageURLs), slices.Repeat([]string{"pending"}, n)...)
	}
	return s.Validator.Validate(in)
}

func (o writeOptions) store(ctx context.Context) ([]string, error) {
	if o.pending() == 0 {
		return nil, nil
	}
	urls, err := o.uploads.Store(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "cannot store image", err)
	}
	return urls, nil
}

func (o writeOptions) discard(ctx context.Context) {
	if o.pending() > 0 {
		o.uploads.Discard(ctx)
	}
}
