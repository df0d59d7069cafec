// Package openai provides a vision captioner backed by an OpenAI multimodal
// chat model.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/fitfinder-ai/fitfinder/pkg/provider/vision"
)

// DefaultModel is the default multimodal model used for captioning.
const DefaultModel = "gpt-4o-mini"

// captionPrompt asks for a retrieval-oriented caption followed by a category
// trailer line. The trailer format keeps parsing trivial and survives models
// that pad their answers.
const captionPrompt = "Generate a descriptive caption for the clothing item in this image. " +
	"This caption will be used in an embedding database for future retrieval. " +
	"Focus only on the main clothing item, disregarding surrounding elements.\n\n" +
	"After the caption, on a new line, identify the category of the item. " +
	"The category MUST be one of the following: top, bottom, shoes, accessories. " +
	"Format the category line like this: 'Category: <chosen_category>'."

var _ vision.Captioner = (*Captioner)(nil)

// Captioner implements vision.Captioner using the OpenAI chat completions API
// with an image content part.
type Captioner struct {
	client oai.Client
	model  string
	store  vision.ImageStore
	http   *http.Client
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option configures a Captioner.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout for both the model call and
// image downloads.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a Captioner. store must not be nil: every captured image is
// persisted before the model is asked to describe it, so that a model failure
// never loses the upload. If model is empty, DefaultModel is used.
func New(apiKey, model string, store vision.ImageStore, opts ...Option) (*Captioner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai vision: apiKey must not be empty")
	}
	if store == nil {
		return nil, fmt.Errorf("openai vision: store must not be nil")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Captioner{
		client: oai.NewClient(reqOpts...),
		model:  model,
		store:  store,
		http:   httpClient,
	}, nil
}

// Describe implements vision.Captioner.
func (c *Captioner) Describe(ctx context.Context, source string) (vision.Capture, error) {
	data, filename, err := c.loadImage(ctx, source)
	if err != nil {
		return vision.Capture{}, fmt.Errorf("openai vision: load image %q: %w", source, err)
	}

	itemID := uuid.NewString()
	imageURL, err := c.store.Save(ctx, itemID, filename, data)
	if err != nil {
		return vision.Capture{}, fmt.Errorf("openai vision: store image: %w", err)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
				oai.TextContentPart(captionPrompt),
			}),
		},
	})
	if err != nil {
		return vision.Capture{}, fmt.Errorf("openai vision: caption: %w", err)
	}
	if len(resp.Choices) == 0 {
		return vision.Capture{}, fmt.Errorf("openai vision: empty choices in response")
	}

	caption, category := parseCaption(resp.Choices[0].Message.Content)
	if caption == "" {
		return vision.Capture{}, fmt.Errorf("openai vision: model returned no caption for %q", source)
	}

	return vision.Capture{
		Caption:  caption,
		Category: category,
		ItemID:   itemID,
		ImageURL: imageURL,
	}, nil
}

// loadImage reads the image bytes from a local path or an http(s) URL.
func (c *Captioner) loadImage(ctx context.Context, source string) (data []byte, filename string, err error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		return data, path.Base(req.URL.Path), nil
	}

	data, err = os.ReadFile(source)
	if err != nil {
		return nil, "", err
	}
	return data, path.Base(source), nil
}

// parseCaption splits the model output into caption and category. The first
// line is the caption; a trailing "Category: <x>" line supplies the category.
// Anything unparseable or outside the closed vocabulary falls back to
// [vision.FallbackCategory].
func parseCaption(output string) (caption, category string) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return "", vision.FallbackCategory
	}

	caption = strings.TrimSpace(lines[0])
	category = vision.FallbackCategory

	last := strings.TrimSpace(lines[len(lines)-1])
	if after, ok := strings.CutPrefix(last, "Category:"); ok {
		cat := strings.ToLower(strings.TrimSpace(after))
		if slices.Contains(vision.Categories, cat) {
			category = cat
		}
	}

	// A lone category trailer is not a caption; Describe rejects the
	// capture rather than persist the trailer as a description.
	if strings.HasPrefix(caption, "Category:") {
		caption = ""
	}
	return caption, category
}
