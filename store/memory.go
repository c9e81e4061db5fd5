package store

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/ndlib/s3migrate/items"
)

// Memory implements a simple in-memory version of every store. It is intended
// mainly for testing.
type Memory struct {
	m           sync.RWMutex
	settings    items.Settings
	attachments map[int64]items.Attachment
	legacy      map[int64]items.Legacy
	items       map[int64]*items.Record // keyed by source id
	nextID      int64

	// Reject makes Upsert fail for the given attachment ids with the
	// paired error. Errors which are not an *items.UnavailableError are
	// wrapped in items.ErrStoreWrite.
	Reject map[int64]error
}

var (
	// ensure Memory satisfies the interfaces
	_ items.ItemStore        = &Memory{}
	_ items.AttachmentSource = &Memory{}
	_ items.SettingsProvider = &Memory{}
)

// NewMemory returns a new, empty memory store using the given settings.
func NewMemory(settings items.Settings) *Memory {
	return &Memory{
		settings:    settings,
		attachments: make(map[int64]items.Attachment),
		legacy:      make(map[int64]items.Legacy),
		items:       make(map[int64]*items.Record),
		Reject:      make(map[int64]error),
	}
}

// AddAttachment adds an attachment. A file of "" adds an attachment without
// file metadata.
func (ms *Memory) AddAttachment(id int64, file string) {
	ms.m.Lock()
	ms.attachments[id] = items.Attachment{ID: id, File: file}
	ms.m.Unlock()
}

// AddLegacy adds an attachment with a legacy record.
func (ms *Memory) AddLegacy(id int64, rec items.Legacy) {
	ms.m.Lock()
	ms.attachments[id] = items.Attachment{ID: id, File: rec.SourcePath}
	ms.legacy[id] = rec
	ms.m.Unlock()
}

func (ms *Memory) Settings() (items.Settings, error) {
	ms.m.RLock()
	defer ms.m.RUnlock()
	return ms.settings, nil
}

func (ms *Memory) Legacy(id int64) (items.Legacy, bool, error) {
	ms.m.RLock()
	rec, ok := ms.legacy[id]
	ms.m.RUnlock()
	return rec, ok, nil
}

func (ms *Memory) Attachment(id int64) (items.Attachment, bool, error) {
	ms.m.RLock()
	a, ok := ms.attachments[id]
	ms.m.RUnlock()
	if !ok || a.File == "" {
		return items.Attachment{}, false, nil
	}
	return a, true, nil
}

func (ms *Memory) Count() (int, error) {
	ms.m.RLock()
	defer ms.m.RUnlock()
	return len(ms.items), nil
}

func (ms *Memory) CountMissing() (int, error) {
	ids, err := ms.ListMissing(0)
	return len(ids), err
}

func (ms *Memory) ListMissing(limit int) ([]int64, error) {
	ms.m.RLock()
	var result []int64
	for id := range ms.attachments {
		if _, ok := ms.items[id]; !ok {
			result = append(result, id)
		}
	}
	ms.m.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (ms *Memory) Upsert(r *items.Record) (int64, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	if err, ok := ms.Reject[r.SourceID]; ok {
		if items.IsUnavailable(err) {
			return 0, err
		}
		return 0, errors.Wrapf(items.ErrStoreWrite, "attachment %d: %s", r.SourceID, err.Error())
	}
	saved := *r
	saved.PrivateSizes = append([]string{}, r.PrivateSizes...)
	if old, ok := ms.items[r.SourceID]; ok {
		saved.ID = old.ID
	} else {
		ms.nextID++
		saved.ID = ms.nextID
	}
	ms.items[r.SourceID] = &saved
	r.ID = saved.ID
	return saved.ID, nil
}

// Lookup returns a copy of the item for the attachment id.
func (ms *Memory) Lookup(sourceID int64) (*items.Record, bool, error) {
	ms.m.RLock()
	defer ms.m.RUnlock()
	r, ok := ms.items[sourceID]
	if !ok {
		return nil, false, nil
	}
	result := *r
	return &result, true, nil
}

func (ms *Memory) Truncate() error {
	ms.m.Lock()
	ms.items = make(map[int64]*items.Record)
	ms.m.Unlock()
	return nil
}

// Dump writes a listing of the items in the store to the given writer.
// This is intended for testing and debugging.
func (ms *Memory) Dump(w io.Writer) {
	ms.m.RLock()
	for k, v := range ms.items {
		fmt.Fprintf(w, "%d: %d %s/%s\n", k, v.ID, v.Bucket, v.Path)
	}
	ms.m.RUnlock()
}
