package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/catsync/catsync/model"
)

// TranslationCacheTableName holds content-addressed translation
// results.
const TranslationCacheTableName = "TranslationCache"

var translationCacheSelect sq.SelectBuilder

func init() {
	translationCacheSelect = sq.
		Select(
			"CacheKey",
			"SourceLang",
			"TargetLang",
			"SourceText",
			"TranslatedText",
			"CreateAt",
		).
		From(TranslationCacheTableName)
}

// GetCachedTranslation fetches a cache entry by its content hash,
// returning nil on a miss.
func (sqlStore *SQLStore) GetCachedTranslation(cacheKey string) (*model.TranslationCacheEntry, error) {
	entry := new(model.TranslationCacheEntry)
	err := sqlStore.getBuilder(sqlStore.db, entry,
		translationCacheSelect.Where("CacheKey = ?", cacheKey))

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get cached translation")
	}

	return entry, nil
}

// PutCachedTranslation writes an entry through to the cache. The
// upsert makes concurrent writers for the same key converge on the
// last write rather than fail.
func (sqlStore *SQLStore) PutCachedTranslation(entry *model.TranslationCacheEntry) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(TranslationCacheTableName).
		SetMap(map[string]interface{}{
			"CacheKey":       entry.CacheKey,
			"SourceLang":     entry.SourceLang,
			"TargetLang":     entry.TargetLang,
			"SourceText":     entry.SourceText,
			"TranslatedText": entry.TranslatedText,
			"CreateAt":       entry.CreateAt,
		}).
		Suffix("ON CONFLICT (CacheKey) DO UPDATE SET TranslatedText = EXCLUDED.TranslatedText"),
	)
	return errors.Wrap(err, "failed to store cached translation")
}
