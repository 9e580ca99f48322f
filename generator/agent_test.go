package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []Prompt
}

func (f *fakeLLM) Complete(_ context.Context, p Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

type fakeImager struct {
	img     Image
	err     error
	prompts []string
}

func (f *fakeImager) GenerateImage(_ context.Context, prompt string) (Image, error) {
	f.prompts = append(f.prompts, prompt)
	return f.img, f.err
}

type fakeFetcher struct {
	src Source
	err error
}

func (f fakeFetcher) Fetch(_ context.Context, rawURL string) (Source, error) {
	if f.err != nil {
		return Source{}, f.err
	}
	s := f.src
	s.URL = rawURL
	return s, nil
}

const contentReply = `{"blogPost":"<p>B</p>","briefingDocument":"<p>D</p>","imagePrompt":"a cat"}`

func TestNewAgentRequiresClients(t *testing.T) {
	t.Parallel()

	_, err := NewAgent(nil, &fakeImager{}, nil, nil)
	assert.Error(t, err)
	_, err = NewAgent(&fakeLLM{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestAgentGenerateContentFromText(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{reply: contentReply}
	agent, err := NewAgent(llm, &fakeImager{}, fakeFetcher{}, nil)
	require.NoError(t, err)

	got, err := agent.GenerateContent(context.Background(), InputText, "hello")
	require.NoError(t, err)
	assert.Equal(t, TextContent{BlogPost: "<p>B</p>", BriefingDocument: "<p>D</p>", ImagePrompt: "a cat"}, got)

	require.Len(t, llm.prompts, 1)
	assert.True(t, llm.prompts[0].JSON)
	assert.Contains(t, llm.prompts[0].User, "Source text:\nhello")
}

func TestAgentGenerateContentFromURL(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{reply: contentReply}
	fetcher := fakeFetcher{src: Source{Title: "Page", Text: "page body"}}
	agent, err := NewAgent(llm, &fakeImager{}, fetcher, nil)
	require.NoError(t, err)

	_, err = agent.GenerateContent(context.Background(), InputURL, "https://example.com/a")
	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].User, "Source URL: https://example.com/a")
	assert.Contains(t, llm.prompts[0].User, "Page title: Page")
	assert.Contains(t, llm.prompts[0].User, "page body")
}

func TestAgentGenerateContentErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	agent, _ := NewAgent(&fakeLLM{}, &fakeImager{}, fakeFetcher{err: ErrFetchFailed}, nil)
	_, err := agent.GenerateContent(ctx, InputURL, "https://example.com")
	assert.ErrorIs(t, err, ErrFetchFailed)

	agent, _ = NewAgent(&fakeLLM{err: errors.New("quota exceeded")}, &fakeImager{}, fakeFetcher{}, nil)
	_, err = agent.GenerateContent(ctx, InputText, "x")
	assert.EqualError(t, err, "quota exceeded")

	agent, _ = NewAgent(&fakeLLM{reply: "nope"}, &fakeImager{}, fakeFetcher{}, nil)
	_, err = agent.GenerateContent(ctx, InputText, "x")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = agent.GenerateContent(ctx, InputType("pdf"), "x")
	assert.Error(t, err)
}

func TestAgentGenerateImagePromptFromText(t *testing.T) {
	t.Parallel()

	llm := &fakeLLM{reply: "Prompt: a lighthouse at dusk"}
	agent, _ := NewAgent(llm, &fakeImager{}, fakeFetcher{}, nil)

	got, err := agent.GenerateImagePromptFromText(context.Background(), "a poem about the sea")
	require.NoError(t, err)
	assert.Equal(t, "a lighthouse at dusk", got)
	assert.False(t, llm.prompts[0].JSON)
}

func TestAgentGenerateImage(t *testing.T) {
	t.Parallel()

	imager := &fakeImager{img: Image{Data: []byte("jpeg"), MIMEType: "image/jpeg"}}
	agent, _ := NewAgent(&fakeLLM{}, imager, fakeFetcher{}, nil)

	got, err := agent.GenerateImage(context.Background(), "a cat")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg")), got)
	assert.Equal(t, []string{"a cat"}, imager.prompts)

	imager.img = Image{}
	_, err = agent.GenerateImage(context.Background(), "a cat")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = agent.GenerateImage(context.Background(), " ")
	assert.Error(t, err)
}

func TestMockClients(t *testing.T) {
	t.Parallel()

	agent, err := NewAgent(MockLLM{}, MockImager{}, fakeFetcher{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	content, err := agent.GenerateContent(ctx, InputText, "Gophers love concurrency")
	require.NoError(t, err)
	assert.Contains(t, content.BlogPost, "<h1>Sample blog post</h1>")
	assert.Contains(t, content.ImagePrompt, "Gophers love concurrency")

	prompt, err := agent.GenerateImagePromptFromText(ctx, "Gophers love concurrency")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Gophers love concurrency")

	img, err := agent.GenerateImage(ctx, prompt)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}
