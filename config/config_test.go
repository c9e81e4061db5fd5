package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, text string) string {
	dir, err := ioutil.TempDir("", "config")
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	name := filepath.Join(dir, "test.toml")
	if err := ioutil.WriteFile(name, []byte(text), 0644); err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	return name
}

func TestLoad(t *testing.T) {
	name := writeConfig(t, `
limit = 10

[database]
driver = "ql"
dsn = "memory"
blog_id = 3

[settings]
bucket = "other"

[s3]
verify_bucket = true
`)
	defer os.RemoveAll(filepath.Dir(name))

	c, err := Load(name)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	var table = []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"limit", c.Limit, 10},
		{"driver", c.Database.Driver, "ql"},
		{"dsn", c.Database.DSN, "memory"},
		{"blog", c.Database.BlogID, 3},
		{"prefix", c.Database.TablePrefix, "wp_"},
		{"min version", c.Plugin.MinVersion, "2.3"},
		{"bucket", c.Settings.Bucket, "other"},
		{"verify", c.S3.VerifyBucket, true},
	}
	for _, tab := range table {
		if tab.got != tab.expected {
			t.Errorf("%s: Received %v, expected %v", tab.name, tab.got, tab.expected)
		}
	}
}

func TestLoadEnvDSN(t *testing.T) {
	name := writeConfig(t, "[database]\ndriver = \"mysql\"\n")
	defer os.RemoveAll(filepath.Dir(name))

	if _, err := Load(name); err == nil {
		t.Errorf("Received nil, expected an error for a missing dsn")
	}
	os.Setenv(EnvDSN, "wp:pw@tcp(db:3306)/wp")
	defer os.Unsetenv(EnvDSN)
	c, err := Load(name)
	if err != nil {
		t.Fatalf("Received %s", err.Error())
	}
	if c.Database.DSN != "wp:pw@tcp(db:3306)/wp" {
		t.Errorf("Received %s", c.Database.DSN)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.toml"); err == nil {
		t.Errorf("Received nil, expected an error")
	}
}

func TestValidate(t *testing.T) {
	var table = []struct {
		change func(c *Config)
		ok     bool
	}{
		{func(c *Config) {}, true},
		{func(c *Config) { c.Database.Driver = "postgres" }, false},
		{func(c *Config) { c.Database.DSN = "" }, false},
		{func(c *Config) { c.Database.BlogID = 0 }, false},
		{func(c *Config) { c.Limit = -1 }, false},
		{func(c *Config) { c.Plugin.MinVersion = "x.y" }, false},
	}
	for i, tab := range table {
		c := Default()
		c.Database.DSN = "memory"
		tab.change(&c)
		err := c.Validate()
		if (err == nil) != tab.ok {
			t.Errorf("%d: Received %v, expected ok %v", i, err, tab.ok)
		}
	}
}
