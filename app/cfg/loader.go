package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Data source configuration
	SourceKind string `long:"source" env:"SOURCE_KIND" default:"rest" choice:"rest" choice:"sqlite" description:"Remote data source kind"`
	SourceURL  string `long:"source-url" env:"SOURCE_URL" default:"http://localhost:3000" description:"Base URL of the REST row-query endpoint"`
	SourceDB   string `long:"source-db" env:"SOURCE_DB" default:"./pulse.db" description:"Path to the sqlite database when --source=sqlite"`

	// Application configuration
	Port              string   `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string   `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	TaxonomyFile      string   `long:"taxonomy-file" env:"TAXONOMY_FILE" description:"Path to a taxonomy YAML file overriding the built-in tables"`
	IngestFeeds       []string `long:"ingest-feed" env:"INGEST_FEEDS" env-delim:"," description:"Venue RSS/Atom feed URLs to ingest as submissions"`
	IngestInterval    int      `long:"ingest-interval" env:"INGEST_INTERVAL" default:"3600" description:"Feed ingest interval in seconds"`
	WorkerCount       int      `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for collection processing"`
	SchedulerInterval int      `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`

	// Aggregation policy
	Timezone        string `long:"timezone" env:"TZ" default:"America/Vancouver" description:"Canonical IANA timezone for all civil-time math"`
	PageSize        int    `long:"page-size" env:"PAGE_SIZE" default:"1000" description:"Hard per-request row cap of the remote source"`
	MaxRows         int    `long:"max-rows" env:"MAX_ROWS" default:"50000" description:"Safety ceiling on total rows fetched per collection"`
	EventsTTL       int    `long:"events-ttl" env:"EVENTS_TTL" default:"300" description:"Events collection cache TTL in seconds"`
	DealsTTL        int    `long:"deals-ttl" env:"DEALS_TTL" default:"300" description:"Deals collection cache TTL in seconds"`
	BusinessesTTL   int    `long:"businesses-ttl" env:"BUSINESSES_TTL" default:"300" description:"Businesses collection cache TTL in seconds"`
	RepairHourMax   int    `long:"repair-hour-max" env:"REPAIR_HOUR_MAX" default:"4" description:"Hours in [0,N] are treated as scraper artifacts"`
	StartRepairHour int    `long:"start-repair-hour" env:"START_REPAIR_HOUR" default:"9" description:"Replacement hour for repaired start times"`
	EndRepairHour   int    `long:"end-repair-hour" env:"END_REPAIR_HOUR" default:"10" description:"Replacement hour for repaired end times"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Pulse/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourceKind:        raw.SourceKind,
		SourceURL:         raw.SourceURL,
		SourceDB:          raw.SourceDB,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		TaxonomyFile:      raw.TaxonomyFile,
		IngestFeeds:       raw.IngestFeeds,
		IngestInterval:    raw.IngestInterval,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		Timezone:          raw.Timezone,
		PageSize:          raw.PageSize,
		MaxRows:           raw.MaxRows,
		EventsTTL:         raw.EventsTTL,
		DealsTTL:          raw.DealsTTL,
		BusinessesTTL:     raw.BusinessesTTL,
		RepairHourMax:     raw.RepairHourMax,
		StartRepairHour:   raw.StartRepairHour,
		EndRepairHour:     raw.EndRepairHour,
		UserAgent:         raw.UserAgent,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Location resolves the canonical timezone, falling back to UTC when the
// configured zone cannot be loaded.
func (c *Cfg) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Cfg) TTLFor(collection string) time.Duration {
	switch collection {
	case "deals":
		return time.Duration(c.DealsTTL) * time.Second
	case "businesses":
		return time.Duration(c.BusinessesTTL) * time.Second
	default:
		return time.Duration(c.EventsTTL) * time.Second
	}
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
