// Package store provides the item stores and attachment sources the migration
// runs against.
//
// Probably the most important implementation is MySQL, which works directly on
// a WordPress database. QL keeps the same tables in an embedded database and
// is useful for development. Memory is for testing.
//
// Each of them implements items.ItemStore, items.AttachmentSource and
// items.SettingsProvider. Table names are resolved once, when the store is
// made, from a table prefix (see TablePrefix).
package store
