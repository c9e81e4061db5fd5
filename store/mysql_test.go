// +build integration

package store

import (
	"flag"
	"testing"

	"github.com/ndlib/s3migrate/items"
)

var dialmysql = flag.String("mysql", "/test", "Dial for mysql")

func TestMySQLItems(t *testing.T) {
	ms, err := NewMySQL(*dialmysql, "wptest_", true)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	defer ms.Close()
	if err := ms.Truncate(); err != nil {
		t.Fatalf("Received %s", err.Error())
	}

	r := &items.Record{
		Provider:     "aws",
		Bucket:       "b",
		Path:         "pre/f.jpg",
		SourceID:     99,
		SourcePath:   "f.jpg",
		PrivateSizes: []string{},
	}
	id, err := ms.Upsert(r)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	r.Bucket = "c"
	id2, err := ms.Upsert(r)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	if id != id2 {
		t.Errorf("Received %d, expected %d", id2, id)
	}
	got, ok, err := ms.Lookup(99)
	if err != nil || !ok || got.Bucket != "c" {
		t.Errorf("Received (%+v, %v, %v)", got, ok, err)
	}
	n, err := ms.Count()
	if err != nil || n != 1 {
		t.Errorf("Received (%d, %v), expected 1", n, err)
	}
	if err := ms.Truncate(); err != nil {
		t.Errorf("Received %s", err.Error())
	}
	n, _ = ms.Count()
	if n != 0 {
		t.Errorf("Received %d, expected 0", n)
	}
}
