// Command as3cf-migrate copies the offload metadata of every media library
// attachment which has no item yet into the offload plugin's item table.
//
// It reads its configuration from as3cf-migrate.toml, or the file named by
// AS3CF_MIGRATE_CONFIG. See package config for the keys.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/facebookgo/clock"
	raven "github.com/getsentry/raven-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ndlib/s3migrate/config"
	"github.com/ndlib/s3migrate/items"
	"github.com/ndlib/s3migrate/logging"
	"github.com/ndlib/s3migrate/precheck"
	"github.com/ndlib/s3migrate/report"
)

type options struct {
	output bool
	purge  bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "as3cf-migrate",
	Short: "Migrate offloaded media library attachments to the item table",
	Long: `as3cf-migrate creates an item in the offload plugin's item table for
every media library attachment which does not have one yet. Attachments
offloaded by an older version of the plugin keep their bucket and path.
The rest are given the current plugin settings.

Examples:
  as3cf-migrate
  as3cf-migrate --output
  as3cf-migrate --purge`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runMain())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&opts.output, "output", false, "print a table of every attachment processed")
	rootCmd.Flags().BoolVar(&opts.purge, "purge", false, "delete every item before migrating")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain() int {
	logging.Init(os.Stderr)

	c, err := config.Load("")
	if err != nil {
		log.Error().Err(err).Msg("configuration")
		return 1
	}
	if c.SentryDSN != "" {
		raven.SetDSN(c.SentryDSN)
	}

	h, err := openHost(c.Database)
	if err != nil {
		log.Error().Err(err).Msg("opening database")
		return 1
	}
	defer h.Close()

	var bucket precheck.BucketHeader
	if c.S3.VerifyBucket {
		bucket, err = precheck.NewS3(c.S3.Region, c.S3.Endpoint)
		if err != nil {
			log.Error().Err(err).Msg("s3 client")
			return 1
		}
	}
	return run(c, h, bucket, opts, os.Stdout, os.Stderr)
}

// run performs one migration against h. bucket is only used when bucket
// verification is enabled. It returns the process exit code.
func run(c config.Config, h host, bucket precheck.BucketHeader, o options, stdout, stderr io.Writer) int {
	settings := items.Override(h, overrides(c.Settings))

	checks := []precheck.Check{
		precheck.ItemsTable(h, h.Tables().Items),
		precheck.PluginVersion(h, c.Plugin.MinVersion),
	}
	if !c.Plugin.SkipActiveCheck {
		checks = append(checks, precheck.PluginActive(h))
	}
	if c.S3.VerifyBucket && bucket != nil {
		checks = append(checks, precheck.Bucket(bucket, settings))
	}
	if err := precheck.Run(checks...); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	log.Warn().Msg("Starting media library migration")

	if o.purge {
		if err := items.Purge(h); err != nil {
			log.Error().Err(err).Msg("purge")
			return 1
		}
		log.Info().Msg("Purging finished!")
	}

	m := &items.Migrator{
		Store:    h,
		Resolver: items.NewResolver(h, settings),
		Progress: report.NewProgress(stderr),
		Clock:    clock.New(),
		Limit:    c.Limit,
	}
	ledger, err := m.Run()
	if o.output {
		if terr := report.Table(stdout, ledger); terr != nil {
			log.Error().Err(terr).Msg("writing table")
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("migration stopped")
		raven.CaptureErrorAndWait(err, map[string]string{"Stage": "migrate"})
		return 1
	}
	report.Status(stdout, ledger)
	return 0
}
