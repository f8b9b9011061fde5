// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// Config holds configuration knobs for the HTTP server, the machine's
// initial coin setup, and the ledger worker pool.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Denominations []model.Denomination
	CoinFloat     uint32
	SeedCatalog   bool

	InitialWorkerCount      int
	WorkerMin               int
	WorkerMax               int
	ScaleInterval           time.Duration
	ScaleUpBacklogPerWorker int
	ScaleDownIdleTicks      int
	QueueHighWatermark      int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// denomsenv parses a comma-separated denomination list such as
// "0.5,1,2,5,10". Unparseable or non-positive entries fall back to def.
func denomsenv(key, def string) []model.Denomination {
	parse := func(s string) []model.Denomination {
		var out []model.Denomination
		for _, part := range strings.Split(s, ",") {
			a, err := money.Parse(strings.TrimSpace(part))
			if err != nil || a <= 0 {
				return nil
			}
			out = append(out, model.Denomination(a))
		}
		return out
	}
	if ds := parse(getenv(key, "")); len(ds) > 0 {
		return ds
	}
	return parse(def)
}

// Load collects configuration from environment with defaults.
func Load() Config {
	minWorkers := atoienv("WORKER_MIN", 2)
	maxWorkers := atoienv("WORKER_MAX", 4)
	initialWorkers := atoienv("WORKER_COUNT", minWorkers)
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),

		Denominations: denomsenv("DENOMINATIONS", "1,2,5,10"),
		CoinFloat:     uint32(atoienv("COIN_FLOAT", 10)),
		SeedCatalog:   boolenv("SEED_CATALOG", true),

		InitialWorkerCount:      initialWorkers,
		WorkerMin:               minWorkers,
		WorkerMax:               maxWorkers,
		ScaleInterval:           durenvms("SCALE_INTERVAL_MS", 500),
		ScaleUpBacklogPerWorker: atoienv("SCALE_UP_BACKLOG_PER_WORKER", 100),
		ScaleDownIdleTicks:      atoienv("SCALE_DOWN_IDLE_TICKS", 6),
		QueueHighWatermark:      atoienv("QUEUE_HIGH_WATERMARK", 5000),
	}
}
