// Package ollama is the HTTP client for a locally hosted Ollama-compatible
// inference server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pharo-llm/pharo-copilot/logger"
	"github.com/pharo-llm/pharo-copilot/prompt"
	"github.com/pharo-llm/pharo-copilot/registry"
)

// DefaultBaseURL is the standard local Ollama address.
const DefaultBaseURL = "http://127.0.0.1:11434"

// NullModelPlaceholder is returned by Generate for the reserved null
// model, without touching the network.
const NullModelPlaceholder = "<pharo-copilot: no model configured>"

// taskOption is the option key overlaid for fill-in-the-middle calls.
const taskOption = "task"

var (
	// ErrBackend covers transport failures, timeouts, non-200 statuses and
	// malformed JSON from the inference server.
	ErrBackend = errors.New("backend request failed")

	// ErrNoTemplate means no prompt template could be resolved for the
	// active model. Fatal to the request, not retried.
	ErrNoTemplate = errors.New("no prompt template configured")
)

// Options is the backend option map sent with generate requests
// (temperature, task hint, etc.).
type Options map[string]any

// clone returns a shallow copy so per-call overlays never leak into the
// persistent option set.
func (o Options) clone() Options {
	out := make(Options, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Config holds client construction parameters.
type Config struct {
	BaseURL     string        // inference server address (default DefaultBaseURL)
	Timeout     time.Duration // per-request timeout, 0 means no client timeout
	Template    string        // explicit template override, empty to use model defaults
	TemplateTTL time.Duration // cache lifetime for model default templates
	Options     Options       // persistent backend options
}

// Client performs the JSON exchanges with the inference server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	options    Options
	templates  *templateCache
	override   string
}

// NewClient creates a client for the given server.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		options:    cfg.Options.clone(),
		templates:  newTemplateCache(cfg.TemplateTTL),
		override:   cfg.Template,
	}
}

// Close releases the template cache.
func (c *Client) Close() {
	c.templates.close()
}

// generateRequest is the /api/generate body.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the non-streaming /api/generate reply.
type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate issues one request/response generation exchange and returns the
// raw model text. The reserved null model short-circuits to a fixed
// placeholder so the pipeline works visibly before a model is configured.
func (c *Client) Generate(ctx context.Context, prompt, modelFullName string, opts Options) (string, error) {
	defer logger.Trace("ollama.Generate")()

	if modelFullName == registry.NullModelName {
		return NullModelPlaceholder, nil
	}

	reqBody := generateRequest{
		Model:   modelFullName,
		Prompt:  prompt,
		Stream:  false,
		Options: opts,
	}

	body, err := c.post(ctx, "/api/generate", reqBody)
	if err != nil {
		return "", err
	}

	// The server normally answers with a JSON object carrying the text in
	// "response"; some builds answer with plain text.
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if looksLikeJSON(body) {
			return "", fmt.Errorf("%w: malformed response: %v", ErrBackend, err)
		}
		return string(body), nil
	}
	return resp.Response, nil
}

// GenerateFillInMiddle renders the model's template against the given
// prefix, suffix and context, overlays the fill-in-the-middle task hint on
// a copy of the persistent options for this one call, and generates. The
// persistent option set is never touched, so the overlay cannot leak into
// later calls regardless of success or failure.
func (c *Client) GenerateFillInMiddle(ctx context.Context, modelFullName, prefix, suffix, contextText string) (string, error) {
	template := c.templateFor(ctx, modelFullName)
	rendered := prompt.Render(template, prefix, suffix, contextText)
	if rendered == "" {
		return "", fmt.Errorf("%w: model %q", ErrNoTemplate, modelFullName)
	}

	opts := c.options.clone()
	opts[taskOption] = "fill-in-the-middle"

	return c.Generate(ctx, rendered, modelFullName, opts)
}

// tagsResponse is the /api/tags reply.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries the server for its installed models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	defer logger.Trace("ollama.ListModels")()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("%w: malformed tags response: %v", ErrBackend, err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// showResponse is the model-details reply; only the template matters here.
type showResponse struct {
	Template string `json:"template"`
}

// ShowTemplate fetches the model's default prompt template from the
// model-details endpoint.
func (c *Client) ShowTemplate(ctx context.Context, modelFullName string) (string, error) {
	defer logger.Trace("ollama.ShowTemplate")()

	body, err := c.post(ctx, "/api/show", map[string]string{"model": modelFullName})
	if err != nil {
		return "", err
	}

	var show showResponse
	if err := json.Unmarshal(body, &show); err != nil {
		return "", fmt.Errorf("%w: malformed show response: %v", ErrBackend, err)
	}
	return show.Template, nil
}

// post issues a JSON POST and returns the response body on 200.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrBackend, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, string(body))
	}
	return body, nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
