package generator

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/openai/openai-go"
)

// OpenAIImageClient implements ImageClient with the OpenAI images endpoint.
type OpenAIImageClient struct {
	Model  string
	Size   string
	client openai.Client
}

func NewOpenAIImageClientFromConfig(cfg *ImageSettings) (*OpenAIImageClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: image config is nil", ErrInvalidConfig)
	}
	opts, err := openAIOptions(&LLMSettings{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	return &OpenAIImageClient{Model: model, Size: cfg.Size, client: openai.NewClient(opts...)}, nil
}

func (c *OpenAIImageClient) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	params := openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(c.Model),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	}
	if c.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(c.Size)
	}
	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return Image{}, err
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return Image{}, ErrEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return Image{Data: data, MIMEType: "image/png"}, nil
}
