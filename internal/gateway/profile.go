package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/five82/swapp/internal/imaging"
	"github.com/five82/swapp/internal/market"
)

// ProfileAPI is the part of the marketplace API the profile gateway needs.
type ProfileAPI interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (market.ImageAck, error)
}

// MaxItemImageDimension bounds item pictures before upload.
const MaxItemImageDimension = 1280

// Profile uploads item pictures.
type Profile struct {
	api    ProfileAPI
	logger *slog.Logger
}

// NewProfile builds a Profile gateway. A nil logger discards.
func NewProfile(api ProfileAPI, logger *slog.Logger) *Profile {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Profile{api: api, logger: logger}
}

// UploadImage re-encodes r and uploads it. Only a 201 response counts as
// success; the ack carries the Location of the stored image.
func (g *Profile) UploadImage(ctx context.Context, name string, r io.Reader) (market.ImageAck, error) {
	prepared, err := imaging.Prepare(r, name, MaxItemImageDimension)
	if err != nil {
		return market.ImageAck{}, fmt.Errorf("prepare image: %w", err)
	}
	ack, err := g.api.UploadImage(ctx, prepared.Filename, prepared.Reader())
	if err != nil {
		g.logger.Warn("upload image failed", "filename", prepared.Filename, "error", err)
		return market.ImageAck{}, fmt.Errorf("upload image: %w", err)
	}
	g.logger.Info("image uploaded", "image_id", ack.ID, "location", ack.Location)
	return ack, nil
}
