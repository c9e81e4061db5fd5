package store

import (
	"fmt"
	"path"
	"sort"

	"github.com/elliotchance/phpserialize"
	"github.com/pkg/errors"

	"github.com/ndlib/s3migrate/items"
)

// The host keeps structured meta and option values as PHP serialized arrays.
// The functions here turn those values into our types.

// defaultProvider is assumed for settings and legacy records which do not
// name one. Only AWS was supported when those were written.
const defaultProvider = "aws"

// DecodeLegacy builds a Legacy record from the value of the legacy offload
// meta key. attachedFile is the attachment's current relative path, and
// attachmentMeta its serialized attachment metadata (it may be empty).
//
// ok is false if there is no usable legacy record: the value is empty or it
// does not name both a bucket and a key.
func DecodeLegacy(value, attachedFile, attachmentMeta string) (rec items.Legacy, ok bool, err error) {
	if value == "" {
		return rec, false, nil
	}
	info, err := phpserialize.UnmarshalAssociativeArray([]byte(value))
	if err != nil {
		return rec, false, errors.Wrap(err, "decoding legacy offload info")
	}
	rec.Bucket = str(info["bucket"])
	rec.Path = str(info["key"])
	if rec.Bucket == "" || rec.Path == "" {
		return rec, false, nil
	}
	rec.Provider = str(info["provider"])
	if rec.Provider == "" {
		rec.Provider = defaultProvider
	}
	rec.Region = str(info["region"])
	rec.IsPrivate = str(info["acl"]) == "private"
	rec.PrivateSizes = privateSizes(info["sizes"])

	rec.SourcePath = attachedFile
	rec.OriginalSourcePath = attachedFile
	if attachmentMeta != "" {
		file, original, err := DecodeAttachmentFile(attachmentMeta)
		if err != nil {
			return rec, false, err
		}
		if rec.SourcePath == "" {
			rec.SourcePath = file
			rec.OriginalSourcePath = file
		}
		if original != "" && rec.SourcePath != "" {
			rec.OriginalSourcePath = path.Join(path.Dir(rec.SourcePath), original)
		}
	}
	return rec, true, nil
}

// privateSizes returns the sorted names of the sizes whose acl is private.
func privateSizes(v interface{}) []string {
	result := []string{}
	for name, info := range array(v) {
		if str(array(info)["acl"]) == "private" {
			result = append(result, str(name))
		}
	}
	sort.Strings(result)
	return result
}

// DecodeAttachmentFile returns the relative file path and the name of the
// original (unscaled) image recorded in serialized attachment metadata.
// Either may be empty.
func DecodeAttachmentFile(value string) (file, originalImage string, err error) {
	if value == "" {
		return "", "", nil
	}
	meta, err := phpserialize.UnmarshalAssociativeArray([]byte(value))
	if err != nil {
		return "", "", errors.Wrap(err, "decoding attachment metadata")
	}
	return str(meta["file"]), str(meta["original_image"]), nil
}

// DecodeSettings reads the serialized plugin settings.
func DecodeSettings(value string) (items.Settings, error) {
	var s items.Settings
	if value != "" {
		m, err := phpserialize.UnmarshalAssociativeArray([]byte(value))
		if err != nil {
			return s, errors.Wrap(err, "decoding plugin settings")
		}
		s.Provider = str(m["provider"])
		s.Region = str(m["region"])
		s.Bucket = str(m["bucket"])
		s.ObjectPrefix = str(m["object-prefix"])
	}
	if s.Provider == "" {
		s.Provider = defaultProvider
	}
	return s, nil
}

// DecodeStringList reads a serialized list of strings, such as the active
// plugin list, in index order.
func DecodeStringList(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	m, err := phpserialize.UnmarshalAssociativeArray([]byte(value))
	if err != nil {
		return nil, errors.Wrap(err, "decoding list")
	}
	type entry struct {
		key int64
		val string
	}
	var entries []entry
	for k, v := range m {
		n, _ := k.(int64)
		entries = append(entries, entry{n, str(v)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	result := make([]string, len(entries))
	for i := range entries {
		result[i] = entries[i].val
	}
	return result, nil
}

// EncodeExtraInfo serializes the extra item information, which is only the
// list of private sizes.
func EncodeExtraInfo(privateSizes []string) (string, error) {
	if privateSizes == nil {
		privateSizes = []string{}
	}
	b, err := phpserialize.Marshal(map[string]interface{}{
		"private_sizes": privateSizes,
	}, phpserialize.DefaultMarshalOptions())
	if err != nil {
		return "", errors.Wrap(err, "encoding extra info")
	}
	return string(b), nil
}

// DecodeExtraInfo returns the private sizes listed in serialized extra item
// information.
func DecodeExtraInfo(value string) ([]string, error) {
	result := []string{}
	if value == "" {
		return result, nil
	}
	m, err := phpserialize.UnmarshalAssociativeArray([]byte(value))
	if err != nil {
		return nil, errors.Wrap(err, "decoding extra info")
	}
	for _, v := range array(m["private_sizes"]) {
		result = append(result, str(v))
	}
	sort.Strings(result)
	return result, nil
}

// array returns a decoded nested array as a map. Arrays keyed 0..n decode as
// slices, and are returned keyed by their int64 index. Anything else gives an
// empty map.
func array(v interface{}) map[interface{}]interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		return t
	case []interface{}:
		m := make(map[interface{}]interface{}, len(t))
		for i, e := range t {
			m[int64(i)] = e
		}
		return m
	}
	return map[interface{}]interface{}{}
}

// str renders a decoded scalar as a string. Missing values become "".
func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}
