// Package translate turns vendor text fields into the store language,
// deduplicating provider calls through a persistent content-addressed
// cache.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/catsync/catsync/model"
)

// ErrEmptyInput is returned for empty or whitespace-only text when the
// caller's policy requires non-empty input. Without that policy, empty
// text passes through untouched and never reaches the provider.
var ErrEmptyInput = errors.New("translation input is empty")

// ProviderError marks a failure of the upstream translation provider,
// as distinct from local failures such as a cache read.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s translation provider failed: %s", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider is a single machine translation backend. Implementations
// exist for Google, DeepL and an LLM-backed endpoint; the Translator
// depends only on this interface.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Cache is the persistent store of completed translations.
type Cache interface {
	GetCachedTranslation(cacheKey string) (*model.TranslationCacheEntry, error)
	PutCachedTranslation(entry *model.TranslationCacheEntry) error
}

// Translator orchestrates cache lookup, provider invocation on miss,
// and cache population.
type Translator struct {
	provider        Provider
	cache           Cache
	limiter         *rate.Limiter
	logger          logrus.FieldLogger
	requireNonEmpty bool
}

// NewTranslator assembles a Translator over the given provider and
// cache. requestsPerSecond bounds how fast misses may hit the
// provider.
func NewTranslator(provider Provider, cache Cache, requestsPerSecond float64, requireNonEmpty bool, logger logrus.FieldLogger) *Translator {
	return &Translator{
		provider:        provider,
		cache:           cache,
		limiter:         rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:          logger,
		requireNonEmpty: requireNonEmpty,
	}
}

// Translate returns text in the target language. A cache hit never
// contacts the provider; repeated identical inputs therefore cost at
// most one provider call, which matters because provider calls are
// rate limited and billed. On a miss the result is written through to
// the cache before returning.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		if t.requireNonEmpty {
			return "", ErrEmptyInput
		}
		return text, nil
	}

	if sourceLang == targetLang {
		return text, nil
	}

	key := CacheKey(text, sourceLang, targetLang)
	entry, err := t.cache.GetCachedTranslation(key)
	if err != nil {
		return "", errors.Wrap(err, "failed to consult translation cache")
	}
	if entry != nil {
		return entry.TranslatedText, nil
	}

	err = t.limiter.Wait(ctx)
	if err != nil {
		return "", errors.Wrap(err, "gave up waiting for the translation rate limiter")
	}

	translated, err := t.provider.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", &ProviderError{Provider: t.provider.Name(), Err: err}
	}

	err = t.cache.PutCachedTranslation(&model.TranslationCacheEntry{
		CacheKey:       key,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		SourceText:     text,
		TranslatedText: translated,
		CreateAt:       model.Timestamp(),
	})
	if err != nil {
		// The translation itself succeeded; losing the cache entry only
		// costs a future provider call.
		t.logger.WithError(err).Warn("failed to cache translation")
	}

	return translated, nil
}

// CacheKey computes the deterministic content hash identifying a
// (text, source, target) triple in the cache. Text is normalized by
// trimming surrounding whitespace before hashing.
func CacheKey(text, sourceLang, targetLang string) string {
	h := sha256.New()
	h.Write([]byte(sourceLang))
	h.Write([]byte{0})
	h.Write([]byte(targetLang))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h.Sum(nil))
}
