package store

import (
	"path"

	"github.com/ndlib/s3migrate/items"
)

// legacyFromMeta builds a legacy record from an attachment's meta values.
func legacyFromMeta(meta map[string]string) (items.Legacy, bool, error) {
	return DecodeLegacy(meta[metaLegacy], meta[metaAttachedFile], meta[metaAttachment])
}

// attachmentFromMeta finds the current file of an attachment. The file named
// in the attachment metadata is preferred over the attached file meta.
func attachmentFromMeta(id int64, meta map[string]string) (items.Attachment, bool, error) {
	a := items.Attachment{ID: id}
	file, _, err := DecodeAttachmentFile(meta[metaAttachment])
	if err != nil {
		return a, false, err
	}
	if file == "" {
		file = meta[metaAttachedFile]
	}
	if file == "" {
		return a, false, nil
	}
	a.File = file
	return a, true, nil
}

// finishRecord fills in the fields of a record read back from an item table
// which are not stored directly. Only the base name of the original file
// survives the round trip.
func finishRecord(r *items.Record, originalSourcePath, extra string) (*items.Record, bool, error) {
	if originalSourcePath != "" {
		r.OriginalFilename = path.Base(originalSourcePath)
	}
	sizes, err := DecodeExtraInfo(extra)
	if err != nil {
		return nil, false, err
	}
	r.PrivateSizes = sizes
	return r, true, nil
}
