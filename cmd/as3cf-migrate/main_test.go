package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ndlib/s3migrate/config"
	"github.com/ndlib/s3migrate/store"
)

const (
	testPlugins  = `a:1:{i:0;s:41:"amazon-s3-and-cloudfront/wordpress-s3.php";}`
	testSettings = `a:3:{s:6:"region";s:9:"us-east-2";s:6:"bucket";s:6:"bucket";s:13:"object-prefix";s:8:"uploads/";}`
)

func init() {
	color.NoColor = true
}

func newTestHost(t *testing.T, version string) *store.QL {
	qc, err := store.NewQL("memory:"+t.Name(), "wp_")
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	var options = []struct{ name, value string }{
		{store.OptionActivePlugins, testPlugins},
		{store.OptionSettings, testSettings},
		{store.OptionPluginVersion, version},
	}
	for _, opt := range options {
		if err := qc.SetOption(opt.name, opt.value); err != nil {
			t.Fatalf("Received %s", err.Error())
		}
	}
	for i, file := range []string{"2023/a.jpg", "2023/b.jpg"} {
		err := qc.AddAttachment(int64(i+1), map[string]string{"_wp_attached_file": file})
		if err != nil {
			t.Fatalf("Received %s", err.Error())
		}
	}
	return qc
}

func testConfig() config.Config {
	c := config.Default()
	c.Database.Driver = "ql"
	c.Database.DSN = "memory"
	return c
}

func TestRun(t *testing.T) {
	qc := newTestHost(t, "2.5")
	defer qc.Close()

	var stdout, stderr bytes.Buffer
	code := run(testConfig(), qc, nil, options{output: true}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("Received exit %d, expected 0. stderr %q", code, stderr.String())
	}
	out := stdout.String()
	for _, s := range []string{"PostId", "Migration done! 2 attachments"} {
		if !strings.Contains(out, s) {
			t.Errorf("Received %q, expected it to contain %q", out, s)
		}
	}
	rec, ok, err := qc.Lookup(2)
	if err != nil || !ok {
		t.Fatalf("Received (%v, %v), expected an item", ok, err)
	}
	if rec.Path != "uploads/2023/b.jpg" || rec.Region != "us-east-2" {
		t.Errorf("Received %+v", rec)
	}

	// a second run has nothing to do
	stdout.Reset()
	code = run(testConfig(), qc, nil, options{}, &stdout, &stderr)
	if code != 0 || !strings.Contains(stdout.String(), "Migration done! 0 attachments") {
		t.Errorf("Received exit %d and %q", code, stdout.String())
	}
}

func TestRunPurge(t *testing.T) {
	qc := newTestHost(t, "2.5")
	defer qc.Close()

	var stdout, stderr bytes.Buffer
	c := testConfig()
	c.Limit = 1
	if code := run(c, qc, nil, options{}, &stdout, &stderr); code != 0 {
		t.Fatalf("Received exit %d, expected 0", code)
	}
	n, _ := qc.Count()
	if n != 1 {
		t.Errorf("Received %d items, expected 1", n)
	}
	c.Limit = 0
	if code := run(c, qc, nil, options{purge: true}, &stdout, &stderr); code != 0 {
		t.Fatalf("Received exit %d, expected 0", code)
	}
	n, _ = qc.Count()
	if n != 2 {
		t.Errorf("Received %d items, expected 2", n)
	}
}

func TestRunSettingsOverride(t *testing.T) {
	qc := newTestHost(t, "2.5")
	defer qc.Close()

	c := testConfig()
	c.Settings.Bucket = "other"
	var stdout, stderr bytes.Buffer
	if code := run(c, qc, nil, options{}, &stdout, &stderr); code != 0 {
		t.Fatalf("Received exit %d, expected 0", code)
	}
	rec, _, _ := qc.Lookup(1)
	if rec == nil || rec.Bucket != "other" {
		t.Errorf("Received %+v, expected bucket other", rec)
	}
}

func TestRunPrecheckFails(t *testing.T) {
	qc := newTestHost(t, "2.1")
	defer qc.Close()

	var stdout, stderr bytes.Buffer
	code := run(testConfig(), qc, nil, options{}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("Received exit %d, expected 1", code)
	}
	if !strings.Contains(stderr.String(), "plugin version") {
		t.Errorf("Received %q", stderr.String())
	}
	n, _ := qc.Count()
	if n != 0 {
		t.Errorf("Received %d items, expected none", n)
	}
}
