package translate

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catsync/catsync/internal/testlib"
	"github.com/catsync/catsync/model"
)

type fakeProvider struct {
	calls int
	err   error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return targetLang + ":" + text, nil
}

type fakeCache struct {
	entries map[string]*model.TranslationCacheEntry
	gets    int
	puts    int
	putErr  error
}

func (c *fakeCache) GetCachedTranslation(cacheKey string) (*model.TranslationCacheEntry, error) {
	c.gets++
	return c.entries[cacheKey], nil
}

func (c *fakeCache) PutCachedTranslation(entry *model.TranslationCacheEntry) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	if c.entries == nil {
		c.entries = map[string]*model.TranslationCacheEntry{}
	}
	c.entries[entry.CacheKey] = entry
	return nil
}

func newTestTranslator(t *testing.T, provider *fakeProvider, cache *fakeCache, requireNonEmpty bool) *Translator {
	return NewTranslator(provider, cache, 1000, requireNonEmpty, testlib.MakeLogger(t))
}

func TestTranslateCachesResults(t *testing.T) {
	provider := &fakeProvider{}
	cache := &fakeCache{}
	translator := newTestTranslator(t, provider, cache, false)

	for i := 0; i < 5; i++ {
		translated, err := translator.Translate(context.Background(), "Widget", "en", "ro")
		require.NoError(t, err)
		assert.Equal(t, "ro:Widget", translated)
	}

	assert.Equal(t, 1, provider.calls, "repeated identical input costs exactly one provider call")
	assert.Equal(t, 1, cache.puts)
}

func TestTranslateDistinctInputsMissSeparately(t *testing.T) {
	provider := &fakeProvider{}
	cache := &fakeCache{}
	translator := newTestTranslator(t, provider, cache, false)

	_, err := translator.Translate(context.Background(), "Widget", "en", "ro")
	require.NoError(t, err)
	_, err = translator.Translate(context.Background(), "Widget", "en", "de")
	require.NoError(t, err)
	_, err = translator.Translate(context.Background(), "Gadget", "en", "ro")
	require.NoError(t, err)

	assert.Equal(t, 3, provider.calls)
}

func TestTranslateEmptyInput(t *testing.T) {
	t.Run("passes through by default", func(t *testing.T) {
		provider := &fakeProvider{}
		translator := newTestTranslator(t, provider, &fakeCache{}, false)

		for _, text := range []string{"", "   ", "\n\t"} {
			translated, err := translator.Translate(context.Background(), text, "en", "ro")
			require.NoError(t, err)
			assert.Equal(t, text, translated)
		}
		assert.Zero(t, provider.calls)
	})

	t.Run("rejected under the non-empty policy", func(t *testing.T) {
		provider := &fakeProvider{}
		translator := newTestTranslator(t, provider, &fakeCache{}, true)

		_, err := translator.Translate(context.Background(), "  ", "en", "ro")
		require.ErrorIs(t, err, ErrEmptyInput)
		assert.Zero(t, provider.calls)
	})
}

func TestTranslateSameLanguagePassthrough(t *testing.T) {
	provider := &fakeProvider{}
	cache := &fakeCache{}
	translator := newTestTranslator(t, provider, cache, false)

	translated, err := translator.Translate(context.Background(), "Widget", "en", "en")
	require.NoError(t, err)
	assert.Equal(t, "Widget", translated)
	assert.Zero(t, provider.calls)
	assert.Zero(t, cache.gets)
}

func TestTranslateWrapsProviderFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exhausted")}
	translator := newTestTranslator(t, provider, &fakeCache{}, false)

	_, err := translator.Translate(context.Background(), "Widget", "en", "ro")
	require.Error(t, err)

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "fake", providerErr.Provider)
	assert.Contains(t, providerErr.Error(), "quota exhausted")
}

func TestTranslateSurvivesCacheWriteFailure(t *testing.T) {
	provider := &fakeProvider{}
	cache := &fakeCache{putErr: errors.New("disk full")}
	translator := newTestTranslator(t, provider, cache, false)

	translated, err := translator.Translate(context.Background(), "Widget", "en", "ro")
	require.NoError(t, err, "a lost cache entry must not fail the translation")
	assert.Equal(t, "ro:Widget", translated)
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("Widget", "en", "ro")
	assert.Len(t, key, 64)
	assert.Equal(t, key, CacheKey("Widget", "en", "ro"))
	assert.Equal(t, key, CacheKey("  Widget  ", "en", "ro"), "surrounding whitespace is normalized away")

	assert.NotEqual(t, key, CacheKey("Widget", "en", "de"))
	assert.NotEqual(t, key, CacheKey("Widget", "ro", "en"))
	assert.NotEqual(t, key, CacheKey("Gadget", "en", "ro"))

	// The separator keeps adjacent fields from colliding.
	assert.NotEqual(t, CacheKey("c", "a", "b"), CacheKey("c", "ab", ""))
}
