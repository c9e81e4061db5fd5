package store

import (
	"database/sql"
	"fmt"

	"github.com/BurntSushi/migration"
	"github.com/rs/zerolog/log"
)

// dbVersion adapts the migration version functions to a table whose name
// depends on the table prefix, and to both MySQL and QL.
// This code is modified from github.com/BurntSushi/migration
type dbVersion struct {
	// SQL to create the version table if it is missing
	CreateSQL string
	// SQL to get the version of this db, returns one row and one column
	GetSQL string
	// SQL to insert a new version. takes one parameter, the new version
	SetSQL string
}

func mysqlVersioning(table string) dbVersion {
	return dbVersion{
		CreateSQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version INTEGER, applied datetime)`, table),
		GetSQL:    fmt.Sprintf(`SELECT max(version) FROM %s`, table),
		SetSQL:    fmt.Sprintf(`INSERT INTO %s (version, applied) VALUES (?, now())`, table),
	}
}

func qlVersioning(table string) dbVersion {
	return dbVersion{
		CreateSQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version int64, applied time)`, table),
		GetSQL:    fmt.Sprintf(`SELECT max(version) FROM %s`, table),
		SetSQL:    fmt.Sprintf(`INSERT INTO %s VALUES (?1, now())`, table),
	}
}

// Get returns the schema version. A failed read is taken to mean the version
// table does not exist yet, so the version is 0. The migration library calls
// Get outside of a transaction, and QL refuses to create tables there.
func (d dbVersion) Get(tx migration.LimitedTx) (int, error) {
	var version sql.NullInt64
	if err := tx.QueryRow(d.GetSQL).Scan(&version); err != nil {
		log.Debug().Err(err).Msg("no schema version")
		return 0, nil
	}
	log.Debug().Int64("version", version.Int64).Msg("schema version")
	return int(version.Int64), nil
}

// Set records the schema version, creating the version table if the first
// insert fails.
func (d dbVersion) Set(tx migration.LimitedTx, version int) error {
	if _, err := tx.Exec(d.SetSQL, version); err == nil {
		return nil
	}
	if _, err := tx.Exec(d.CreateSQL); err != nil {
		return err
	}
	_, err := tx.Exec(d.SetSQL, version)
	return err
}
