// Package media stores product images.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/decred/slog"
)

// Image is an uploaded image. PublicID identifies it for deletion and is
// empty when the image is not managed by the uploader.
type Image struct {
	URL      string
	PublicID string
}

// Uploader stores and deletes product images.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// Cloudinary uploads images to a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	log    slog.Logger
}

// NewCloudinary configures an uploader from a cloudinary:// URL. Images are
// placed in folder when it is not empty.
func NewCloudinary(cloudURL, folder string, log slog.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder, log: log}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, filename string) (Image, error) {
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		return Image{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return Image{}, fmt.Errorf("upload %s: %s", filename, res.Error.Message)
	}
	c.log.Infof("Uploaded %s as %s", filename, res.PublicID)
	return Image{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	c.log.Infof("Deleted image %s", publicID)
	return nil
}

// Placeholder discards uploads and answers with a fixed URL. An empty URL
// lets the catalogue apply its own placeholder.
type Placeholder struct {
	URL string
}

func (p Placeholder) Upload(_ context.Context, r io.Reader, _ string) (Image, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return Image{}, err
	}
	return Image{URL: p.URL}, nil
}

func (Placeholder) Destroy(context.Context, string) error { return nil }
