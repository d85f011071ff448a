package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/blang/semver"
	"github.com/pkg/errors"
)

type migration struct {
	fromVersion   semver.Version
	toVersion     semver.Version
	migrationFunc func(execer) error
}

// migrations defines the set of migrations necessary to advance the database to the latest
// expected version.
//
// Note that the canonical schema is currently obtained by applying all migrations to an empty
// database.
var migrations = []migration{
	{semver.MustParse("0.0.0"), semver.MustParse("0.1.0"),
		func(e execer) error {
			_, err := e.Exec(`
				CREATE TABLE System (
						Key    VARCHAR(64) PRIMARY KEY,
						Value  VARCHAR(1024) NULL
				);
		`)
			if err != nil {
				return err
			}

			_, err = e.Exec(`
				CREATE TABLE SyncState (
						Scope         TEXT PRIMARY KEY NOT NULL,
						Status        TEXT NOT NULL,
						RunID         TEXT,
						Cursor        BigInt,
						BatchSize     BigInt,
						FailureCount  BigInt,
						Processed     BigInt,
						Created       BigInt,
						Updated       BigInt,
						Failed        BigInt,
						ItemLimit     BigInt,
						LockedBy      TEXT,
						CreateAt      BigInt,
						UpdateAt      BigInt
				);

				CREATE TABLE SyncRun (
						ID          TEXT PRIMARY KEY NOT NULL,
						Scope       TEXT NOT NULL,
						Status      TEXT,
						Processed   BigInt,
						Created     BigInt,
						Updated     BigInt,
						Failed      BigInt,
						StartAt     BigInt,
						CompleteAt  BigInt,
						Error       TEXT
				);

				CREATE INDEX idx_syncrun_scope ON SyncRun (Scope, StartAt);
		`)
			return err
		},
	},
	{semver.MustParse("0.1.0"), semver.MustParse("0.2.0"),
		func(e execer) error {
			_, err := e.Exec(`
				CREATE TABLE TranslationCache (
						CacheKey        TEXT PRIMARY KEY NOT NULL,
						SourceLang      TEXT,
						TargetLang      TEXT,
						SourceText      TEXT,
						TranslatedText  TEXT,
						CreateAt        BigInt
				);
		`)
			return err
		},
	},
	{semver.MustParse("0.2.0"), semver.MustParse("0.3.0"),
		func(e execer) error {
			_, err := e.Exec(`
				CREATE TABLE TaxonomyTerm (
						ID          TEXT PRIMARY KEY NOT NULL,
						Kind        TEXT NOT NULL,
						ExternalID  BigInt NOT NULL,
						Name        TEXT,
						CreateAt    BigInt,
						UNIQUE (Kind, ExternalID)
				);

				CREATE TABLE Product (
						ID              TEXT PRIMARY KEY NOT NULL,
						ExternalRef     TEXT UNIQUE NOT NULL,
						Name            TEXT,
						Description     TEXT,
						Price           DOUBLE PRECISION,
						CategoryTermID  TEXT,
						ModelTermID     TEXT,
						Active          BOOLEAN,
						CreateAt        BigInt,
						UpdateAt        BigInt
				);
		`)
			return err
		},
	},
}

// Migrate advances the database schema to the latest version, applying
// each pending migration in its own transaction.
func (sqlStore *SQLStore) Migrate() error {
	currentVersion, err := sqlStore.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if !currentVersion.EQ(migration.fromVersion) {
			continue
		}

		tx, err := sqlStore.beginTransaction(sqlStore.db)
		if err != nil {
			return err
		}

		err = migration.migrationFunc(tx)
		if err != nil {
			tx.RollbackUnlessCommitted()
			return errors.Wrapf(err, "failed to migrate schema from %s to %s",
				migration.fromVersion, migration.toVersion)
		}

		err = sqlStore.setCurrentVersion(tx, migration.toVersion.String())
		if err != nil {
			tx.RollbackUnlessCommitted()
			return errors.Wrap(err, "failed to record new schema version")
		}

		err = tx.Commit()
		if err != nil {
			return err
		}

		sqlStore.logger.Infof("Migrated schema from %s to %s", migration.fromVersion, migration.toVersion)
		currentVersion = migration.toVersion
	}

	return nil
}

// getCurrentVersion reads the schema version from the System table,
// treating a missing table as an empty database.
func (sqlStore *SQLStore) getCurrentVersion() (semver.Version, error) {
	systemTableExists, err := sqlStore.tableExists("system")
	if err != nil {
		return semver.Version{}, err
	}
	if !systemTableExists {
		return semver.MustParse("0.0.0"), nil
	}

	var versionString string
	err = sqlStore.getBuilder(sqlStore.db, &versionString,
		sq.Select("Value").From("System").Where("Key = ?", "DatabaseVersion"),
	)
	if err == sql.ErrNoRows {
		return semver.MustParse("0.0.0"), nil
	} else if err != nil {
		return semver.Version{}, errors.Wrap(err, "failed to query database schema version")
	}

	return semver.Parse(versionString)
}

func (sqlStore *SQLStore) setCurrentVersion(e execer, version string) error {
	_, err := sqlStore.exec(e, "DELETE FROM System WHERE Key = ?", "DatabaseVersion")
	if err != nil {
		return err
	}

	_, err = sqlStore.execBuilder(e, sq.
		Insert("System").
		SetMap(map[string]interface{}{
			"Key":   "DatabaseVersion",
			"Value": version,
		}),
	)
	return err
}
