package items

import (
	"path"
)

// SourceType is the source type of every item this package writes. The item
// table is shared with other sources, so stores scope their queries to it.
const SourceType = "media-library"

// A Record is the normalized item for one attachment.
type Record struct {
	// ID is assigned by the ItemStore. It is zero until the record is saved.
	ID int64

	Provider  string
	Region    string
	Bucket    string
	Path      string // full object key in the bucket
	IsPrivate bool

	SourceID   int64  // the attachment id. One Record per SourceID.
	SourcePath string // relative path in the uploads directory

	// OriginalFilename is the file name before the host renamed it, if
	// known. The empty string means absent.
	OriginalFilename string

	// names of image sizes which are also private
	PrivateSizes []string
}

// OriginalPath is the object key the original (pre-rename) file would have.
func (r *Record) OriginalPath() string {
	return swapBase(r.Path, r.OriginalFilename)
}

// OriginalSourcePath is the relative path of the original (pre-rename) file.
func (r *Record) OriginalSourcePath() string {
	return swapBase(r.SourcePath, r.OriginalFilename)
}

func swapBase(p, filename string) string {
	if filename == "" || p == "" {
		return p
	}
	return path.Join(path.Dir(p), path.Base(filename))
}

// A Legacy record is offload metadata saved by an older version of the plugin.
// It is read-only input.
type Legacy struct {
	Provider     string
	Region       string
	Bucket       string
	Path         string
	IsPrivate    bool
	PrivateSizes []string

	SourcePath         string // current relative path
	OriginalSourcePath string // relative path before any rename
}

// Attachment is the current file metadata the host keeps for an attachment.
type Attachment struct {
	ID   int64
	File string // path relative to the uploads directory
}

// Settings are the current default offload settings.
type Settings struct {
	Provider     string
	Region       string
	Bucket       string
	ObjectPrefix string
}

// SettingsProvider gives the current default offload settings.
type SettingsProvider interface {
	Settings() (Settings, error)
}

// An AttachmentSource looks up what the host knows about an attachment.
// Both lookups return ok == false, with a nil error, when there is nothing to
// return.
type AttachmentSource interface {
	Legacy(id int64) (rec Legacy, ok bool, err error)
	Attachment(id int64) (a Attachment, ok bool, err error)
}

// An ItemStore is the table of normalized records.
//
// Infrastructure failures should be returned as an *UnavailableError.
// Upsert should return an error wrapping ErrStoreWrite when the store rejects
// the record itself.
type ItemStore interface {
	// Count returns the number of items in the store.
	Count() (int, error)
	// CountMissing returns the number of attachments without an item.
	CountMissing() (int, error)
	// ListMissing returns up to limit attachment ids without an item, in
	// ascending order. A limit <= 0 means no limit.
	ListMissing(limit int) ([]int64, error)
	// Upsert saves r, replacing any item with the same SourceID, and returns
	// the item id.
	Upsert(r *Record) (int64, error)
	// Truncate removes every item.
	Truncate() error
}

// SettingsFunc adapts an ordinary function into a SettingsProvider.
type SettingsFunc func() (Settings, error)

// Settings calls f.
func (f SettingsFunc) Settings() (Settings, error) { return f() }

// StaticSettings is a SettingsProvider which always returns itself.
type StaticSettings Settings

// Settings returns s.
func (s StaticSettings) Settings() (Settings, error) { return Settings(s), nil }

// Override returns a provider which takes every non-empty field of o in
// preference to the matching field from p.
func Override(p SettingsProvider, o Settings) SettingsProvider {
	return SettingsFunc(func() (Settings, error) {
		s, err := p.Settings()
		if err != nil {
			return s, err
		}
		if o.Provider != "" {
			s.Provider = o.Provider
		}
		if o.Region != "" {
			s.Region = o.Region
		}
		if o.Bucket != "" {
			s.Bucket = o.Bucket
		}
		if o.ObjectPrefix != "" {
			s.ObjectPrefix = o.ObjectPrefix
		}
		return s, nil
	})
}
