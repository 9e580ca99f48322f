package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultImagenModel 对应原前端使用的 Imagen 模型。
const DefaultImagenModel = "imagen-3.0-generate-002"

// ImagenClient implements ImageClient with Imagen through the genai SDK.
type ImagenClient struct {
	Model       string
	AspectRatio string
	client      *genai.Client
}

// NewImagenClient creates an Imagen image client.
func NewImagenClient(ctx context.Context, cfg *ImageSettings) (*ImagenClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: image config is nil", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: imagen api key missing; provide image.api_key", ErrInvalidConfig)
	}
	client, err := newGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultImagenModel
	}
	return &ImagenClient{Model: model, AspectRatio: cfg.AspectRatio, client: client}, nil
}

func (c *ImagenClient) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := c.client.Models.GenerateImages(ctx, c.Model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    c.AspectRatio,
	})
	if err != nil {
		return Image{}, err
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return Image{}, ErrEmptyImage
	}
	gen := resp.GeneratedImages[0]
	if gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
		if gen.RAIFilteredReason != "" {
			return Image{}, fmt.Errorf("%w: %s", ErrContentBlocked, gen.RAIFilteredReason)
		}
		return Image{}, ErrEmptyImage
	}
	mime := gen.Image.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return Image{Data: gen.Image.ImageBytes, MIMEType: mime}, nil
}
