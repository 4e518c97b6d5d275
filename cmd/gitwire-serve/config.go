// Command gitwire-serve is a minimal demo wiring the sqlrepo/ossblob/
// objcache adapters into a pkg/gitwire/repo.Capabilities and running
// the clone handler (pack.GeneratePackItemStream) for the flag-selected
// branch; the ls-refs and fetch handlers are not invoked. It is not a
// network service — the RPC transport is out of scope (spec.md §1) —
// just enough assembly to prove the adapters compose, the way
// cmd/zeta-serve wires pkg/serve's collaborators together.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/zetaforge/gitwire/modules/trace"
)

// Config is the demo's TOML configuration, decoded the same way
// modules/zeta/config uses github.com/BurntSushi/toml.
type Config struct {
	Database struct {
		DSN string `toml:"dsn"`
		RID int64  `toml:"rid"`
	} `toml:"database"`
	ObjectStore struct {
		Backend string `toml:"backend"` // "s3" or "gcs"
		Bucket  string `toml:"bucket"`
		Region  string `toml:"region"`
	} `toml:"object_store"`
	Cache struct {
		NumCounters int64 `toml:"num_counters"`
		MaxCostMiB  int64 `toml:"max_cost_mib"`
		BufferItems int64 `toml:"buffer_items"`
	} `toml:"cache"`
	Concurrency struct {
		CommitWindow int `toml:"commit_window"`
		EntryWindow  int `toml:"entry_window"`
	} `toml:"concurrency"`
}

func defaultConfig() Config {
	var c Config
	c.Cache.NumCounters = 1e7
	c.Cache.MaxCostMiB = 256
	c.Cache.BufferItems = 64
	c.Concurrency.CommitWindow = 1000
	c.Concurrency.EntryWindow = 1000
	return c
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("gitwire-serve: decoding config %s: %w", path, err)
	}
	return cfg, nil
}

// fatalf logs the failure through trace.Errorf (so the last thing this
// process did before exiting is captured by whatever logrus output
// sink the deployment configures) and then terminates.
func fatalf(format string, args ...any) {
	err := trace.Errorf(format, args...)
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
