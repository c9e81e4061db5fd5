package store

import (
	"strconv"
)

// TablePrefix returns the table prefix for the given blog. The main blog (1)
// uses base unchanged. Every other blog of a multisite network gets its id
// appended, so with base "wp_" blog 3 uses "wp_3_".
func TablePrefix(base string, blogID int) string {
	if blogID <= 1 {
		return base
	}
	return base + strconv.Itoa(blogID) + "_"
}

// Tables holds the resolved names of the tables we touch.
type Tables struct {
	Posts    string
	Postmeta string
	Options  string
	Items    string
	Version  string // schema version of tables this tool creates
}

// NewTables returns the table names for the given prefix, as returned by
// TablePrefix.
func NewTables(prefix string) Tables {
	return Tables{
		Posts:    prefix + "posts",
		Postmeta: prefix + "postmeta",
		Options:  prefix + "options",
		Items:    prefix + "as3cf_items",
		Version:  prefix + "as3cf_migrate_version",
	}
}

// meta and option keys
const (
	metaAttachedFile = "_wp_attached_file"
	metaAttachment   = "_wp_attachment_metadata"
	metaLegacy       = "amazonS3_info"

	// OptionSettings holds the plugin settings.
	OptionSettings = "tantan_wordpress_s3"
	// OptionActivePlugins lists the active plugins of a blog.
	OptionActivePlugins = "active_plugins"
	// OptionPluginVersion holds the version of the plugin last installed.
	OptionPluginVersion = "as3cf_schema_version"
)
