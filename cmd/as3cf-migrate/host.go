package main

import (
	"github.com/ndlib/s3migrate/config"
	"github.com/ndlib/s3migrate/items"
	"github.com/ndlib/s3migrate/precheck"
	"github.com/ndlib/s3migrate/store"
)

// host is a WordPress database. store.MySQL and store.QL are hosts.
type host interface {
	items.ItemStore
	items.AttachmentSource
	items.SettingsProvider
	precheck.Host
	Tables() store.Tables
	Close() error
}

// openHost connects to the database named in the configuration.
func openHost(c config.Database) (host, error) {
	prefix := store.TablePrefix(c.TablePrefix, c.BlogID)
	switch c.Driver {
	case "ql":
		return store.NewQL(c.DSN, prefix)
	default:
		return store.NewMySQL(c.DSN, prefix, c.CreateItemsTable)
	}
}

func overrides(s config.Settings) items.Settings {
	return items.Settings{
		Provider:     s.Provider,
		Region:       s.Region,
		Bucket:       s.Bucket,
		ObjectPrefix: s.ObjectPrefix,
	}
}
