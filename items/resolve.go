package items

import (
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// A Resolver builds the Record for a single attachment.
type Resolver struct {
	source   AttachmentSource
	settings SettingsProvider
}

// NewResolver returns a Resolver reading attachments from source. settings is
// only consulted for attachments without a legacy record.
func NewResolver(source AttachmentSource, settings SettingsProvider) *Resolver {
	return &Resolver{source: source, settings: settings}
}

// Resolve returns the Record for the attachment id. A legacy record, if there
// is one, is copied as is. Otherwise the record is made from the current
// settings and the attachment's file path. If neither is available the error
// wraps ErrMissingMetadata.
func (r *Resolver) Resolve(id int64) (*Record, error) {
	legacy, ok, err := r.source.Legacy(id)
	if err != nil {
		return nil, errors.Wrapf(err, "legacy lookup %d", id)
	}
	if ok {
		log.Debug().Int64("source_id", id).Msg("found legacy offload metadata")
		return fromLegacy(id, legacy), nil
	}

	log.Debug().Int64("source_id", id).Msg("no legacy offload metadata")
	a, ok, err := r.source.Attachment(id)
	if err != nil {
		return nil, errors.Wrapf(err, "attachment lookup %d", id)
	}
	if !ok || a.File == "" {
		return nil, errors.Wrapf(ErrMissingMetadata, "attachment %d", id)
	}
	s, err := r.settings.Settings()
	if err != nil {
		return nil, errors.Wrap(err, "reading settings")
	}
	return &Record{
		Provider:         s.Provider,
		Region:           s.Region,
		Bucket:           s.Bucket,
		Path:             path.Join(s.ObjectPrefix, a.File),
		SourceID:         id,
		SourcePath:       a.File,
		OriginalFilename: a.File,
		PrivateSizes:     []string{},
	}, nil
}

func fromLegacy(id int64, l Legacy) *Record {
	var original string
	if l.OriginalSourcePath != "" {
		original = path.Base(l.OriginalSourcePath)
	}
	sizes := make([]string, len(l.PrivateSizes))
	copy(sizes, l.PrivateSizes)
	return &Record{
		Provider:         l.Provider,
		Region:           l.Region,
		Bucket:           l.Bucket,
		Path:             l.Path,
		IsPrivate:        l.IsPrivate,
		SourceID:         id,
		SourcePath:       l.SourcePath,
		OriginalFilename: original,
		PrivateSizes:     sizes,
	}
}
