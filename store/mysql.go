package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/BurntSushi/migration"
	raven "github.com/getsentry/raven-go"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ndlib/s3migrate/items"
)

// MySQL reads attachments and plugin settings from a WordPress database and
// keeps items in the plugin's item table in the same database.
type MySQL struct {
	db *sql.DB
	t  Tables
}

var _ items.ItemStore = &MySQL{}
var _ items.AttachmentSource = &MySQL{}
var _ items.SettingsProvider = &MySQL{}

// NewMySQL connects to the database given by dial. prefix is the resolved
// table prefix (see TablePrefix). The item table normally belongs to the
// plugin. If createItems is true it is created when missing, and the schema
// version is tracked in its own table.
func NewMySQL(dial string, prefix string, createItems bool) (*MySQL, error) {
	t := NewTables(prefix)
	var db *sql.DB
	var err error
	if createItems {
		v := mysqlVersioning(t.Version)
		db, err = migration.OpenWith("mysql", dial, mysqlMigrations(t), v.Get, v.Set)
	} else {
		db, err = sql.Open("mysql", dial)
		if err == nil {
			err = db.Ping()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("open mysql")
		return nil, items.Unavailable(err)
	}
	return &MySQL{db: db, t: t}, nil
}

// Close closes the database connection.
func (ms *MySQL) Close() error {
	return ms.db.Close()
}

// Tables returns the table names in use.
func (ms *MySQL) Tables() Tables { return ms.t }

// List of migrations to perform. Add new ones to the end.
// DO NOT change the order of items already in this list.
func mysqlMigrations(t Tables) []migration.Migrator {
	return []migration.Migrator{
		func(tx migration.LimitedTx) error {
			_, err := tx.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id BIGINT(20) UNSIGNED NOT NULL AUTO_INCREMENT,
				provider VARCHAR(18) NOT NULL,
				region VARCHAR(255) NOT NULL,
				bucket VARCHAR(255) NOT NULL,
				path VARCHAR(1024) NOT NULL,
				original_path VARCHAR(1024) NOT NULL,
				is_private BOOLEAN NOT NULL DEFAULT 0,
				source_type VARCHAR(18) NOT NULL,
				source_id BIGINT(20) UNSIGNED NOT NULL,
				source_path VARCHAR(1024) NOT NULL,
				original_source_path VARCHAR(1024) NOT NULL,
				extra_info LONGTEXT,
				PRIMARY KEY (id),
				UNIQUE KEY uidx_source (source_type, source_id))`, t.Items))
			return err
		},
	}
}

func (ms *MySQL) Count() (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE source_type = ?`, ms.t.Items)
	var n int
	err := ms.db.QueryRow(q, items.SourceType).Scan(&n)
	if err != nil {
		return 0, ms.unavailable(err, "count")
	}
	return n, nil
}

// missingFrom is the join shared by CountMissing and ListMissing. It takes
// the source type as its only parameter.
func (ms *MySQL) missingFrom() string {
	return fmt.Sprintf(`
		FROM %s p
		LEFT JOIN %s i ON i.source_id = p.ID AND i.source_type = ?
		WHERE p.post_type = 'attachment' AND i.id IS NULL`,
		ms.t.Posts, ms.t.Items)
}

func (ms *MySQL) CountMissing() (int, error) {
	var n int
	err := ms.db.QueryRow(`SELECT COUNT(*) `+ms.missingFrom(), items.SourceType).Scan(&n)
	if err != nil {
		return 0, ms.unavailable(err, "count missing")
	}
	return n, nil
}

// ListMissing selects the candidates in a single statement, so the list is
// consistent even with other writers.
func (ms *MySQL) ListMissing(limit int) ([]int64, error) {
	q := `SELECT p.ID ` + ms.missingFrom() + ` ORDER BY p.ID`
	args := []interface{}{items.SourceType}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := ms.db.Query(q, args...)
	if err != nil {
		return nil, ms.unavailable(err, "list missing")
	}
	defer rows.Close()
	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, ms.unavailable(err, "list missing")
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, ms.unavailable(err, "list missing")
	}
	return result, nil
}

// Upsert saves r. An item already present for r.SourceID is replaced in place
// and keeps its id.
func (ms *MySQL) Upsert(r *items.Record) (int64, error) {
	extra, err := EncodeExtraInfo(r.PrivateSizes)
	if err != nil {
		return 0, errors.Wrap(items.ErrStoreWrite, err.Error())
	}
	stmt := fmt.Sprintf(`INSERT INTO %s
		(provider, region, bucket, path, original_path, is_private,
		source_type, source_id, source_path, original_source_path, extra_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id),
		provider = VALUES(provider), region = VALUES(region),
		bucket = VALUES(bucket), path = VALUES(path),
		original_path = VALUES(original_path), is_private = VALUES(is_private),
		source_path = VALUES(source_path),
		original_source_path = VALUES(original_source_path),
		extra_info = VALUES(extra_info)`, ms.t.Items)

	result, err := ms.db.Exec(stmt,
		r.Provider, r.Region, r.Bucket, r.Path, r.OriginalPath(), r.IsPrivate,
		items.SourceType, r.SourceID, r.SourcePath, r.OriginalSourcePath(), extra)
	if err != nil {
		return 0, ms.writeError(err, r.SourceID)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, ms.unavailable(err, "upsert")
	}
	r.ID = id
	return id, nil
}

// Lookup returns the item for the attachment id.
func (ms *MySQL) Lookup(sourceID int64) (*items.Record, bool, error) {
	q := fmt.Sprintf(`SELECT id, provider, region, bucket, path, is_private,
		source_path, original_source_path, extra_info
		FROM %s WHERE source_type = ? AND source_id = ?`, ms.t.Items)
	var r = items.Record{SourceID: sourceID}
	var original string
	var extra sql.NullString
	err := ms.db.QueryRow(q, items.SourceType, sourceID).Scan(&r.ID, &r.Provider,
		&r.Region, &r.Bucket, &r.Path, &r.IsPrivate, &r.SourcePath, &original, &extra)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, ms.unavailable(err, "lookup")
	}
	return finishRecord(&r, original, extra.String)
}

func (ms *MySQL) Truncate() error {
	_, err := ms.db.Exec(`TRUNCATE TABLE ` + ms.t.Items)
	return ms.unavailable(err, "truncate")
}

// postmetaSQL selects nkeys meta keys of one post, oldest row first.
func postmetaSQL(table string, nkeys int) string {
	return fmt.Sprintf(`SELECT meta_key, meta_value FROM %s
		WHERE post_id = ? AND meta_key IN (?%s)
		ORDER BY meta_id`,
		table, strings.Repeat(", ?", nkeys-1))
}

// postmeta returns the given meta values for post id. Keys without a value
// are left out.
func (ms *MySQL) postmeta(id int64, keys ...string) (map[string]string, error) {
	q := postmetaSQL(ms.t.Postmeta, len(keys))
	args := []interface{}{id}
	for _, k := range keys {
		args = append(args, k)
	}
	rows, err := ms.db.Query(q, args...)
	if err != nil {
		return nil, ms.unavailable(err, "postmeta")
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, ms.unavailable(err, "postmeta")
		}
		// the first value wins, as in get_post_meta with single = true
		if _, ok := result[k]; !ok && v.Valid {
			result[k] = v.String
		}
	}
	return result, ms.unavailable(rows.Err(), "postmeta")
}

func (ms *MySQL) Legacy(id int64) (items.Legacy, bool, error) {
	meta, err := ms.postmeta(id, metaLegacy, metaAttachedFile, metaAttachment)
	if err != nil {
		return items.Legacy{}, false, err
	}
	return legacyFromMeta(meta)
}

func (ms *MySQL) Attachment(id int64) (items.Attachment, bool, error) {
	meta, err := ms.postmeta(id, metaAttachedFile, metaAttachment)
	if err != nil {
		return items.Attachment{}, false, err
	}
	return attachmentFromMeta(id, meta)
}

// Option returns the value of a blog option.
func (ms *MySQL) Option(name string) (string, bool, error) {
	q := fmt.Sprintf(`SELECT option_value FROM %s WHERE option_name = ? LIMIT 1`, ms.t.Options)
	var v string
	err := ms.db.QueryRow(q, name).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, ms.unavailable(err, "option")
	}
	return v, true, nil
}

// Settings returns the plugin settings stored for the blog.
func (ms *MySQL) Settings() (items.Settings, error) {
	v, _, err := ms.Option(OptionSettings)
	if err != nil {
		return items.Settings{}, err
	}
	return DecodeSettings(v)
}

// TableExists reports whether the named table is in the current database.
func (ms *MySQL) TableExists(name string) (bool, error) {
	const q = `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`
	var n int
	if err := ms.db.QueryRow(q, name).Scan(&n); err != nil {
		return false, ms.unavailable(err, "table exists")
	}
	return n > 0, nil
}

// writeError sorts a failed write into a rejected record, which only affects
// this record, or an unavailable store.
func (ms *MySQL) writeError(err error, sourceID int64) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return errors.Wrapf(items.ErrStoreWrite, "attachment %d: %s", sourceID, me.Error())
	}
	return ms.unavailable(err, "upsert")
}

func (ms *MySQL) unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	raven.CaptureError(err, map[string]string{"Table": ms.t.Items, "Op": op})
	return items.Unavailable(errors.Wrap(err, op))
}
