// Package precheck verifies the host is in a state the migration can run
// against: the offload plugin is active, recent enough, and its item table
// exists. A failed check stops the command before any item is touched.
package precheck

import (
	"strings"

	raven "github.com/getsentry/raven-go"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ndlib/s3migrate/store"
)

// PluginSlug is the directory of the offload plugin in the plugin list.
const PluginSlug = "amazon-s3-and-cloudfront"

// A Check is one precondition.
type Check struct {
	Name string
	Fn   func() error
}

// PreconditionError lists every check which failed.
type PreconditionError struct {
	Errs *multierror.Error
}

func (e *PreconditionError) Error() string {
	return "preconditions failed: " + e.Errs.Error()
}

func (e *PreconditionError) Unwrap() error { return e.Errs }

// Run performs every check, even after one fails. It returns a
// *PreconditionError if any failed.
func Run(checks ...Check) error {
	var result *multierror.Error
	for _, c := range checks {
		err := c.Fn()
		if err != nil {
			log.Error().Err(err).Str("check", c.Name).Msg("precondition failed")
			result = multierror.Append(result, errors.Wrap(err, c.Name))
			continue
		}
		log.Debug().Str("check", c.Name).Msg("precondition ok")
	}
	if result == nil {
		return nil
	}
	raven.CaptureError(result, map[string]string{"Stage": "precheck"})
	return &PreconditionError{Errs: result}
}

// A Host answers questions about the WordPress installation. store.MySQL and
// store.QL are Hosts.
type Host interface {
	Option(name string) (string, bool, error)
	TableExists(name string) (bool, error)
}

// ItemsTable checks that the item table exists.
func ItemsTable(h Host, table string) Check {
	return Check{
		Name: "item table",
		Fn: func() error {
			ok, err := h.TableExists(table)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("table %s does not exist", table)
			}
			return nil
		},
	}
}

// PluginActive checks that the offload plugin is in the active plugin list of
// the blog. A plugin activated for a whole multisite network is only listed in
// the network's active_sitewide_plugins, so this check fails for it.
func PluginActive(h Host) Check {
	return Check{
		Name: "plugin active",
		Fn: func() error {
			v, _, err := h.Option(store.OptionActivePlugins)
			if err != nil {
				return err
			}
			plugins, err := store.DecodeStringList(v)
			if err != nil {
				return err
			}
			for _, p := range plugins {
				if strings.HasPrefix(p, PluginSlug+"/") {
					return nil
				}
			}
			return errors.New("offload plugin is not active on this blog (set skip_active_check if it is network activated)")
		},
	}
}

// PluginVersion checks that the installed plugin is at least min.
func PluginVersion(h Host, min string) Check {
	return Check{
		Name: "plugin version",
		Fn: func() error {
			minv, err := version.NewVersion(min)
			if err != nil {
				return errors.Wrap(err, "minimum version")
			}
			v, ok, err := h.Option(store.OptionPluginVersion)
			if err != nil {
				return err
			}
			if !ok || v == "" {
				return errors.New("installed plugin version is unknown")
			}
			installed, err := version.NewVersion(v)
			if err != nil {
				return errors.Wrapf(err, "installed version %q", v)
			}
			log.Info().Str("version", installed.String()).Msg("installed offload plugin")
			if installed.LessThan(minv) {
				return errors.Errorf("plugin version has to be at least %s, found %s", minv, installed)
			}
			return nil
		},
	}
}
