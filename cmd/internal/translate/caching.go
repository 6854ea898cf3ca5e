package translate

import (
	"context"

	"github.com/voxlate/voxlate/cmd/internal/cache"
)

// CachedTranslator decorates a Translator with the shared cache service.
// Repeated turns with identical text (greetings, confirmations) skip the
// remote call entirely; only exact text matches are ever served.
type CachedTranslator struct {
	inner Translator
	cache *cache.Service
}

// NewCachedTranslator wraps inner. A nil cache disables caching.
func NewCachedTranslator(inner Translator, c *cache.Service) *CachedTranslator {
	return &CachedTranslator{inner: inner, cache: c}
}

// Translate consults the cache before delegating. Results are stored
// best-effort; a cache write failure never fails the translation.
func (c *CachedTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if c.cache != nil {
		if cached, ok := c.cache.GetTranslation(ctx, text, sourceLang, targetLang); ok {
			return cached, nil
		}
	}

	translated, err := c.inner.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		_ = c.cache.PutTranslation(ctx, text, sourceLang, targetLang, translated)
	}
	return translated, nil
}

// HealthCheck delegates to the wrapped translator.
func (c *CachedTranslator) HealthCheck(ctx context.Context) (bool, error) {
	return c.inner.HealthCheck(ctx)
}

// Name reports the wrapped implementation's name.
func (c *CachedTranslator) Name() string {
	return c.inner.Name()
}
