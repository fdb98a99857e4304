package ollama

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/pharo-llm/pharo-copilot/logger"
	"github.com/pharo-llm/pharo-copilot/prompt"
	"github.com/pharo-llm/pharo-copilot/registry"
)

const defaultTemplateTTL = 15 * time.Minute

// templateCache is a TTL cache of per-model default prompt templates
// seeded from the model-details endpoint. Expiry picks up template
// changes made on the server without restarting the pipeline.
type templateCache struct {
	cache *ttlcache.Cache[string, string]
}

func newTemplateCache(ttl time.Duration) *templateCache {
	if ttl <= 0 {
		ttl = defaultTemplateTTL
	}
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &templateCache{cache: c}
}

func (tc *templateCache) get(model string) (string, bool) {
	item := tc.cache.Get(model)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (tc *templateCache) set(model, template string) {
	tc.cache.Set(model, template, ttlcache.DefaultTTL)
}

func (tc *templateCache) close() {
	tc.cache.Stop()
}

// templateFor resolves the prompt template for a model: the explicit
// configuration override wins, then the model's own default template, then
// the built-in fill-in-the-middle fallback. The model default is cached
// with a TTL; an unreachable model-details endpoint degrades to the
// built-in fallback rather than failing the request.
func (c *Client) templateFor(ctx context.Context, modelFullName string) string {
	if c.override != "" {
		return c.override
	}
	if modelFullName == registry.NullModelName {
		return prompt.DefaultFIMTemplate
	}

	if cached, ok := c.templates.get(modelFullName); ok {
		return cached
	}

	template, err := c.ShowTemplate(ctx, modelFullName)
	if err != nil {
		logger.Debug("model template unavailable for %s, using default: %v", modelFullName, err)
		return prompt.DefaultFIMTemplate
	}
	if template == "" {
		template = prompt.DefaultFIMTemplate
	}
	c.templates.set(modelFullName, template)
	return template
}
