// Package cmd implements the inv command line application: it records trades
// in a JSONL ledger, reports lots and gains, projects bond cashflows and saves
// the derived data to a store.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
	"github.com/etnz/invest/store"
	"github.com/google/subcommands"
)

// Environment variables read as flag defaults, and passed to extensions.
const (
	EnvLedgerFile  = "INV_LEDGER_FILE"
	EnvStoreDriver = "INV_STORE_DRIVER"
	EnvStoreDSN    = "INV_STORE_DSN"
	EnvCacheURL    = "INV_CACHE_URL"
	EnvVerbose     = "INV_VERBOSE"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&declareCmd{}, "ledger")
	c.Register(newBuyCmd(), "ledger")
	c.Register(newSellCmd(), "ledger")
	c.Register(&deleteCmd{}, "ledger")
	c.Register(&formatLedgerCmd{}, "ledger")

	c.Register(&lotsCmd{}, "reports")
	c.Register(&gainsCmd{}, "reports")
	c.Register(&cashflowsCmd{}, "reports")

	c.Register(&recomputeCmd{}, "store")
	c.Register(&settleCmd{}, "store")

	c.Register(&topicCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	ledgerFile  = flag.String("ledger-file", "", "Path to the ledger file (JSONL format). Defaults to $"+EnvLedgerFile+" or ledger.jsonl")
	storeDriver = flag.String("store", "", "Store driver (memory, sqlite, postgres). Defaults to $"+EnvStoreDriver+" or memory")
	storeDSN    = flag.String("dsn", "", "Store data source: a file for sqlite, a connection string for postgres. Defaults to $"+EnvStoreDSN)
	cacheURL    = flag.String("cache", "", "Redis url caching store reads. Defaults to $"+EnvCacheURL)
	Verbose     = flag.Bool("v", false, "Verbose logs. Defaults to $"+EnvVerbose)
)

// cacheTTL is how long store reads stay in the cache.
const cacheTTL = 10 * time.Minute

// Config is the resolved application configuration: flags first, then
// environment, then defaults.
type Config struct {
	LedgerFile  string
	StoreDriver string
	StoreDSN    string
	CacheURL    string
	Verbose     bool
}

// LoadConfig resolves the global flags against the environment. It must be
// called after flag.Parse.
func LoadConfig() Config {
	envVerbose, _ := strconv.ParseBool(os.Getenv(EnvVerbose))
	return Config{
		LedgerFile:  firstOf(*ledgerFile, os.Getenv(EnvLedgerFile), "ledger.jsonl"),
		StoreDriver: firstOf(*storeDriver, os.Getenv(EnvStoreDriver), store.DriverMemory),
		StoreDSN:    firstOf(*storeDSN, os.Getenv(EnvStoreDSN)),
		CacheURL:    firstOf(*cacheURL, os.Getenv(EnvCacheURL)),
		Verbose:     *Verbose || envVerbose,
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Environ returns cfg as environment variables.
func (cfg Config) Environ() []string {
	return []string{
		EnvLedgerFile + "=" + cfg.LedgerFile,
		EnvStoreDriver + "=" + cfg.StoreDriver,
		EnvStoreDSN + "=" + cfg.StoreDSN,
		EnvCacheURL + "=" + cfg.CacheURL,
		EnvVerbose + "=" + strconv.FormatBool(cfg.Verbose),
	}
}

// DecodeLedger decodes the ledger file. A missing file is an empty ledger.
func DecodeLedger() (*invest.Ledger, error) {
	filename := LoadConfig().LedgerFile
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		if LoadConfig().Verbose {
			log.Printf("warning, ledger %q does not exist, starting from an empty ledger", filename)
		}
		return invest.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening ledger file %q: %w", filename, err)
	}
	defer f.Close()

	ledger, err := invest.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding ledger %q: %w", filename, err)
	}
	return ledger, nil
}

// EncodeLedger rewrites the ledger file in canonical form.
func EncodeLedger(ledger *invest.Ledger) error {
	filename := LoadConfig().LedgerFile
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q for writing: %w", filename, err)
	}
	if err := invest.EncodeLedger(f, ledger); err != nil {
		f.Close()
		return fmt.Errorf("error writing ledger file %q: %w", filename, err)
	}
	return f.Close()
}

// appendLedger appends lines written by encode to the ledger file, creating it
// if it doesn't exist.
func appendLedger(encode func(f *os.File) error) error {
	filename := LoadConfig().LedgerFile
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q: %w", filename, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("error writing to ledger file %q: %w", filename, err)
	}
	return f.Close()
}

// OpenStore opens the configured store, behind a cache when one is configured.
func OpenStore(ctx context.Context) (store.Store, error) {
	cfg := LoadConfig()
	s, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, err
	}
	if cfg.CacheURL == "" {
		return s, nil
	}
	cached, err := store.WithCache(ctx, s, cfg.CacheURL, cacheTTL)
	if err != nil {
		s.Close()
		return nil, err
	}
	return cached, nil
}

// parseDate parses a date flag, "" and "today" both mean today.
func parseDate(s string) (date.Date, error) {
	if s == "" || s == "today" {
		return date.Today(), nil
	}
	return date.Parse(s)
}

// securities returns the ledger securities selected by id, all of them when id is empty.
func securities(ledger *invest.Ledger, id string) ([]invest.Security, error) {
	if id != "" {
		sec := ledger.Security(id)
		if sec == nil {
			return nil, fmt.Errorf("security %q is not declared", id)
		}
		return []invest.Security{*sec}, nil
	}
	var all []invest.Security
	for sec := range ledger.Securities() {
		all = append(all, sec)
	}
	return all, nil
}
