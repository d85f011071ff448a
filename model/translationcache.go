package model

// TranslationCacheEntry is a content-addressed record of a completed
// translation. Entries are immutable once written: rewriting the same
// key with the same inputs is semantically a no-op, so concurrent
// writers for one key are a benign race.
type TranslationCacheEntry struct {
	CacheKey       string
	SourceLang     string
	TargetLang     string
	SourceText     string
	TranslatedText string
	CreateAt       int64
}
