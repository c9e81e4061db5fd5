package items_test

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/ndlib/s3migrate/items"
	"github.com/ndlib/s3migrate/store"
)

var defaults = items.Settings{
	Provider:     "p",
	Region:       "r",
	Bucket:       "b",
	ObjectPrefix: "pre",
}

func TestResolveFromSettings(t *testing.T) {
	ms := store.NewMemory(defaults)
	ms.AddAttachment(7, "2023/01/img.jpg")

	rec, err := items.NewResolver(ms, ms).Resolve(7)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	expected := &items.Record{
		Provider:         "p",
		Region:           "r",
		Bucket:           "b",
		Path:             "pre/2023/01/img.jpg",
		IsPrivate:        false,
		SourceID:         7,
		SourcePath:       "2023/01/img.jpg",
		OriginalFilename: "2023/01/img.jpg",
		PrivateSizes:     []string{},
	}
	if !reflect.DeepEqual(rec, expected) {
		t.Errorf("Received %+v, expected %+v", rec, expected)
	}
}

func TestResolveEmptyPrefix(t *testing.T) {
	s := defaults
	s.ObjectPrefix = ""
	ms := store.NewMemory(s)
	ms.AddAttachment(7, "2023/01/img.jpg")

	rec, err := items.NewResolver(ms, ms).Resolve(7)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	if rec.Path != "2023/01/img.jpg" {
		t.Errorf("Received %s, expected %s", rec.Path, "2023/01/img.jpg")
	}
}

func TestResolveLegacyPrecedence(t *testing.T) {
	ms := store.NewMemory(defaults)
	legacy := items.Legacy{
		Provider:           "aws",
		Region:             "eu-west-1",
		Bucket:             "old-bucket",
		Path:               "old/2019/05/photo.jpg",
		IsPrivate:          true,
		PrivateSizes:       []string{"thumbnail"},
		SourcePath:         "2019/05/photo.jpg",
		OriginalSourcePath: "2019/05/photo.jpg",
	}
	ms.AddLegacy(3, legacy)

	rec, err := items.NewResolver(ms, ms).Resolve(3)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	var table = []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"provider", rec.Provider, "aws"},
		{"region", rec.Region, "eu-west-1"},
		{"bucket", rec.Bucket, "old-bucket"},
		{"path", rec.Path, "old/2019/05/photo.jpg"},
		{"is_private", rec.IsPrivate, true},
		{"source_id", rec.SourceID, int64(3)},
		{"source_path", rec.SourcePath, "2019/05/photo.jpg"},
		{"original_filename", rec.OriginalFilename, "photo.jpg"},
		{"private_sizes", rec.PrivateSizes, []string{"thumbnail"}},
	}
	for _, tab := range table {
		if !reflect.DeepEqual(tab.got, tab.expected) {
			t.Errorf("%s: Received %v, expected %v", tab.name, tab.got, tab.expected)
		}
	}
}

func TestResolveOriginalFilename(t *testing.T) {
	ms := store.NewMemory(defaults)
	ms.AddLegacy(9, items.Legacy{
		Bucket:             "b",
		Path:               "2022/old-name-scaled.jpg",
		SourcePath:         "2022/old-name-scaled.jpg",
		OriginalSourcePath: "2022/old-name.jpg",
	})

	rec, err := items.NewResolver(ms, ms).Resolve(9)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	if rec.OriginalFilename != "old-name.jpg" {
		t.Errorf("Received %s, expected %s", rec.OriginalFilename, "old-name.jpg")
	}
	if rec.SourcePath != "2022/old-name-scaled.jpg" {
		t.Errorf("Received %s, expected %s", rec.SourcePath, "2022/old-name-scaled.jpg")
	}
	if p := rec.OriginalSourcePath(); p != "2022/old-name.jpg" {
		t.Errorf("Received %s, expected %s", p, "2022/old-name.jpg")
	}
}

func TestResolveMissingMetadata(t *testing.T) {
	ms := store.NewMemory(defaults)
	ms.AddAttachment(5, "")

	for _, id := range []int64{5, 6} {
		_, err := items.NewResolver(ms, ms).Resolve(id)
		if !errors.Is(err, items.ErrMissingMetadata) {
			t.Errorf("%d: Received %v, expected %v", id, err, items.ErrMissingMetadata)
		}
		if items.IsUnavailable(err) {
			t.Errorf("%d: Received unavailable error", id)
		}
	}
}

func TestResolveSettingsUnavailable(t *testing.T) {
	ms := store.NewMemory(defaults)
	ms.AddAttachment(5, "a.jpg")
	down := items.SettingsFunc(func() (items.Settings, error) {
		return items.Settings{}, items.Unavailable(errors.New("connection refused"))
	})

	_, err := items.NewResolver(ms, down).Resolve(5)
	if !items.IsUnavailable(err) {
		t.Errorf("Received %v, expected an unavailable error", err)
	}
}

func TestOverride(t *testing.T) {
	p := items.Override(items.StaticSettings(defaults), items.Settings{Bucket: "other"})
	s, err := p.Settings()
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	expected := defaults
	expected.Bucket = "other"
	if s != expected {
		t.Errorf("Received %+v, expected %+v", s, expected)
	}
}

func TestRecordOriginalPath(t *testing.T) {
	var table = []struct {
		path, filename, expected string
	}{
		{"pre/2022/a-scaled.jpg", "a.jpg", "pre/2022/a.jpg"},
		{"pre/2022/a.jpg", "", "pre/2022/a.jpg"},
		{"pre/2023/01/img.jpg", "2023/01/img.jpg", "pre/2023/01/img.jpg"},
		{"img.jpg", "orig.jpg", "orig.jpg"},
	}
	for _, tab := range table {
		r := items.Record{Path: tab.path, OriginalFilename: tab.filename}
		if got := r.OriginalPath(); got != tab.expected {
			t.Errorf("%v: Received %s, expected %s", tab, got, tab.expected)
		}
	}
}
