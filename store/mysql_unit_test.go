package store

import (
	"database/sql/driver"
	"net"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/ndlib/s3migrate/items"
)

func TestMySQLWriteError(t *testing.T) {
	var table = []struct {
		name        string
		err         error
		rejected    bool
		unavailable bool
	}{
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'uidx_source'"}, true, false},
		{"data too long", &mysql.MySQLError{Number: 1406, Message: "Data too long for column 'path'"}, true, false},
		{"wrapped rejection", errors.Wrap(&mysql.MySQLError{Number: 1062}, "exec"), true, false},
		{"invalid connection", mysql.ErrInvalidConn, false, true},
		{"bad connection", driver.ErrBadConn, false, true},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, false, true},
	}
	ms := &MySQL{t: NewTables("wp_")}
	for _, tab := range table {
		err := ms.writeError(tab.err, 7)
		if got := errors.Is(err, items.ErrStoreWrite); got != tab.rejected {
			t.Errorf("%s: Received %v, expected rejected %v", tab.name, err, tab.rejected)
		}
		if got := items.IsUnavailable(err); got != tab.unavailable {
			t.Errorf("%s: Received %v, expected unavailable %v", tab.name, err, tab.unavailable)
		}
	}
	if err := ms.unavailable(nil, "upsert"); err != nil {
		t.Errorf("Received %v, expected nil", err)
	}
}

func TestPostmetaSQL(t *testing.T) {
	q := postmetaSQL("wp_postmeta", 3)
	var table = []string{
		"FROM wp_postmeta",
		"IN (?, ?, ?)",
		"ORDER BY meta_id",
	}
	for _, want := range table {
		if !strings.Contains(q, want) {
			t.Errorf("Received %q, expected it to contain %q", q, want)
		}
	}
}
