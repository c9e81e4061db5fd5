package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/BurntSushi/migration"
	_ "github.com/cznic/ql/driver"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ndlib/s3migrate/items"
)

// This file implements the stores on the QL embedded database. It holds the
// subset of the WordPress tables we read, plus the item table, and is intended
// for development and testing.

// QL is a store kept in a QL database.
type QL struct {
	db *sql.DB
	t  Tables
}

var _ items.ItemStore = &QL{}
var _ items.AttachmentSource = &QL{}
var _ items.SettingsProvider = &QL{}

// NewQL opens the QL database in filename, creating the tables if needed. A
// filename of "memory", or beginning with "memory:", keeps everything in
// memory. In-memory databases with the same name share their contents while
// any of them is open.
func NewQL(filename string, prefix string) (*QL, error) {
	t := NewTables(prefix)
	driver := "ql"
	if filename == "memory" || strings.HasPrefix(filename, "memory:") {
		driver = "ql-mem"
	}
	v := qlVersioning(t.Version)
	db, err := migration.OpenWith(driver, filename, qlMigrations(t), v.Get, v.Set)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("open ql")
		return nil, items.Unavailable(err)
	}
	return &QL{db: db, t: t}, nil
}

// Close closes the database.
func (qc *QL) Close() error {
	return qc.db.Close()
}

// Tables returns the table names in use.
func (qc *QL) Tables() Tables { return qc.t }

func qlMigrations(t Tables) []migration.Migrator {
	return []migration.Migrator{
		func(tx migration.LimitedTx) error {
			_, err := tx.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (ID int64, post_type string);
			CREATE INDEX IF NOT EXISTS %[1]s_id ON %[1]s (ID);
			CREATE TABLE IF NOT EXISTS %[2]s (post_id int64, meta_key string, meta_value string);
			CREATE INDEX IF NOT EXISTS %[2]s_post ON %[2]s (post_id);
			CREATE TABLE IF NOT EXISTS %[3]s (option_name string, option_value string);
			CREATE TABLE IF NOT EXISTS %[4]s (
				provider string,
				region string,
				bucket string,
				path string,
				original_path string,
				is_private bool,
				source_type string,
				source_id int64,
				source_path string,
				original_source_path string,
				extra_info string
			);
			CREATE UNIQUE INDEX IF NOT EXISTS %[4]s_source ON %[4]s (source_id);`,
				t.Posts, t.Postmeta, t.Options, t.Items))
			return err
		},
	}
}

func (qc *QL) Count() (int, error) {
	q := fmt.Sprintf(`SELECT count(*) FROM %s WHERE source_type == ?1`, qc.t.Items)
	var n int64
	if err := qc.db.QueryRow(q, items.SourceType).Scan(&n); err != nil {
		return 0, items.Unavailable(errors.Wrap(err, "count"))
	}
	return int(n), nil
}

func (qc *QL) CountMissing() (int, error) {
	ids, err := qc.ListMissing(0)
	return len(ids), err
}

// ListMissing reads the attachments and the items inside one transaction and
// takes the difference. Unlike the MySQL version this is two statements, so
// it is only as consistent as the transaction isolation QL gives.
func (qc *QL) ListMissing(limit int) ([]int64, error) {
	var result []int64
	err := qc.inTx(func(tx *sql.Tx) error {
		have := make(map[int64]bool)
		q := fmt.Sprintf(`SELECT source_id FROM %s WHERE source_type == ?1`, qc.t.Items)
		err := scanIDs(tx, q, []interface{}{items.SourceType}, func(id int64) bool {
			have[id] = true
			return true
		})
		if err != nil {
			return err
		}
		q = fmt.Sprintf(`SELECT ID FROM %s WHERE post_type == "attachment" ORDER BY ID`, qc.t.Posts)
		return scanIDs(tx, q, nil, func(id int64) bool {
			if !have[id] {
				result = append(result, id)
			}
			return limit <= 0 || len(result) < limit
		})
	})
	if err != nil {
		return nil, items.Unavailable(errors.Wrap(err, "list missing"))
	}
	return result, nil
}

// scanIDs runs q and passes each id to f until f returns false.
func scanIDs(tx *sql.Tx, q string, args []interface{}, f func(int64) bool) error {
	rows, err := tx.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if !f(id) {
			break
		}
	}
	return rows.Err()
}

func (qc *QL) Upsert(r *items.Record) (int64, error) {
	extra, err := EncodeExtraInfo(r.PrivateSizes)
	if err != nil {
		return 0, errors.Wrap(items.ErrStoreWrite, err.Error())
	}
	var itemID int64
	var rejected error
	err = qc.inTx(func(tx *sql.Tx) error {
		q := fmt.Sprintf(`SELECT id() FROM %s WHERE source_id == ?1`, qc.t.Items)
		err := tx.QueryRow(q, r.SourceID).Scan(&itemID)
		switch {
		case err == sql.ErrNoRows:
			stmt := fmt.Sprintf(`INSERT INTO %s
				(provider, region, bucket, path, original_path, is_private,
				source_type, source_id, source_path, original_source_path, extra_info)
				VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11)`, qc.t.Items)
			result, err := tx.Exec(stmt, r.Provider, r.Region, r.Bucket, r.Path,
				r.OriginalPath(), r.IsPrivate, items.SourceType, r.SourceID,
				r.SourcePath, r.OriginalSourcePath(), extra)
			if err != nil {
				rejected = err
				return err
			}
			itemID, err = result.LastInsertId()
			return err
		case err != nil:
			return err
		}
		stmt := fmt.Sprintf(`UPDATE %s
			SET provider = ?2, region = ?3, bucket = ?4, path = ?5,
			original_path = ?6, is_private = ?7, source_path = ?8,
			original_source_path = ?9, extra_info = ?10
			WHERE id() == ?1`, qc.t.Items)
		_, err = tx.Exec(stmt, itemID, r.Provider, r.Region, r.Bucket, r.Path,
			r.OriginalPath(), r.IsPrivate, r.SourcePath, r.OriginalSourcePath(), extra)
		if err != nil {
			rejected = err
		}
		return err
	})
	if rejected != nil {
		return 0, errors.Wrapf(items.ErrStoreWrite, "attachment %d: %s", r.SourceID, rejected.Error())
	}
	if err != nil {
		return 0, items.Unavailable(errors.Wrap(err, "upsert"))
	}
	r.ID = itemID
	return itemID, nil
}

// Lookup returns the item for the attachment id.
func (qc *QL) Lookup(sourceID int64) (*items.Record, bool, error) {
	q := fmt.Sprintf(`SELECT id(), provider, region, bucket, path, is_private,
		source_path, original_source_path, extra_info
		FROM %s WHERE source_id == ?1`, qc.t.Items)
	var r = items.Record{SourceID: sourceID}
	var original, extra string
	err := qc.db.QueryRow(q, sourceID).Scan(&r.ID, &r.Provider, &r.Region,
		&r.Bucket, &r.Path, &r.IsPrivate, &r.SourcePath, &original, &extra)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, items.Unavailable(errors.Wrap(err, "lookup"))
	}
	return finishRecord(&r, original, extra)
}

func (qc *QL) Truncate() error {
	err := qc.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`TRUNCATE TABLE ` + qc.t.Items)
		return err
	})
	if err != nil {
		return items.Unavailable(errors.Wrap(err, "truncate"))
	}
	return nil
}

func (qc *QL) postmeta(id int64) (map[string]string, error) {
	q := fmt.Sprintf(`SELECT meta_key, meta_value FROM %s WHERE post_id == ?1`, qc.t.Postmeta)
	rows, err := qc.db.Query(q, id)
	if err != nil {
		return nil, items.Unavailable(errors.Wrap(err, "postmeta"))
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, items.Unavailable(errors.Wrap(err, "postmeta"))
		}
		if _, ok := result[k]; !ok {
			result[k] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, items.Unavailable(errors.Wrap(err, "postmeta"))
	}
	return result, nil
}

func (qc *QL) Legacy(id int64) (items.Legacy, bool, error) {
	meta, err := qc.postmeta(id)
	if err != nil {
		return items.Legacy{}, false, err
	}
	return legacyFromMeta(meta)
}

func (qc *QL) Attachment(id int64) (items.Attachment, bool, error) {
	meta, err := qc.postmeta(id)
	if err != nil {
		return items.Attachment{}, false, err
	}
	return attachmentFromMeta(id, meta)
}

// Option returns the value of a blog option.
func (qc *QL) Option(name string) (string, bool, error) {
	q := fmt.Sprintf(`SELECT option_value FROM %s WHERE option_name == ?1 LIMIT 1`, qc.t.Options)
	var v string
	err := qc.db.QueryRow(q, name).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, items.Unavailable(errors.Wrap(err, "option"))
	}
	return v, true, nil
}

func (qc *QL) Settings() (items.Settings, error) {
	v, _, err := qc.Option(OptionSettings)
	if err != nil {
		return items.Settings{}, err
	}
	return DecodeSettings(v)
}

// TableExists reports whether the named table exists.
func (qc *QL) TableExists(name string) (bool, error) {
	var n int64
	err := qc.db.QueryRow(`SELECT count(*) FROM __Table WHERE Name == ?1`, name).Scan(&n)
	if err != nil {
		return false, items.Unavailable(errors.Wrap(err, "table exists"))
	}
	return n > 0, nil
}

// AddAttachment adds an attachment with the given meta values.
func (qc *QL) AddAttachment(id int64, meta map[string]string) error {
	return qc.inTx(func(tx *sql.Tx) error {
		q := fmt.Sprintf(`INSERT INTO %s VALUES (?1, "attachment")`, qc.t.Posts)
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
		q = fmt.Sprintf(`INSERT INTO %s VALUES (?1, ?2, ?3)`, qc.t.Postmeta)
		for k, v := range meta {
			if _, err := tx.Exec(q, id, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetOption sets the value of a blog option.
func (qc *QL) SetOption(name, value string) error {
	return qc.inTx(func(tx *sql.Tx) error {
		q := fmt.Sprintf(`DELETE FROM %s WHERE option_name == ?1`, qc.t.Options)
		if _, err := tx.Exec(q, name); err != nil {
			return err
		}
		q = fmt.Sprintf(`INSERT INTO %s VALUES (?1, ?2)`, qc.t.Options)
		_, err := tx.Exec(q, name, value)
		return err
	})
}

// inTx runs f in a transaction, which QL requires for any change.
func (qc *QL) inTx(f func(tx *sql.Tx) error) error {
	tx, err := qc.db.Begin()
	if err != nil {
		return err
	}
	if err = f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
