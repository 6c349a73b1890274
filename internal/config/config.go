// Package config loads pairscan settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pairscan/pkg/logging"
	"github.com/ethereum/go-ethereum/common"
)

// Settings keeps all configuration options.
type Settings struct {
	RPCURL         string
	FactoryAddress string
	BatchLimit     int
	CallTimeout    time.Duration
	OutputPath     string

	RedisURL     string
	NameCacheTTL time.Duration

	LogLevel    string
	LogPretty   bool
	MetricsAddr string

	// parseErrs holds values Load could not parse; Validate reports them.
	parseErrs []error
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
// A value that does not parse keeps the default and is reported by Validate.
func Load() Settings {
	st := Settings{}

	lookup := func(keys []string) (string, string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return k, v
			}
		}
		return "", ""
	}
	get := func(keys []string, def string) string {
		if _, v := lookup(keys); v != "" {
			return v
		}
		return def
	}
	invalid := func(key, value, want string) {
		st.parseErrs = append(st.parseErrs, fmt.Errorf("%s=%q is not %s", key, value, want))
	}
	getInt := func(keys []string, def int) int {
		k, s := lookup(keys)
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			invalid(k, s, "an integer")
			return def
		}
		return n
	}
	getDuration := func(keys []string, def time.Duration) time.Duration {
		k, s := lookup(keys)
		if s == "" {
			return def
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			invalid(k, s, "a duration (e.g. 15s)")
			return def
		}
		return d
	}
	getBool := func(keys []string, def bool) bool {
		k, s := lookup(keys)
		switch strings.ToLower(s) {
		case "":
			return def
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		invalid(k, s, "a boolean")
		return def
	}

	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "https://eth.llamarpc.com")
	st.FactoryAddress = get([]string{"factory_address", "FACTORY_ADDRESS"}, "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	st.BatchLimit = getInt([]string{"batch_limit", "BATCH_LIMIT"}, 5)
	st.CallTimeout = getDuration([]string{"call_timeout", "CALL_TIMEOUT"}, 15*time.Second)
	st.OutputPath = get([]string{"output_path", "OUTPUT_PATH"}, "pairs.csv")

	st.RedisURL = get([]string{"redis_url", "REDIS_URL"}, "")
	st.NameCacheTTL = getDuration([]string{"name_cache_ttl", "NAME_CACHE_TTL"}, 24*time.Hour)

	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "info")
	st.LogPretty = getBool([]string{"log_pretty", "LOG_PRETTY"}, false)
	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")

	return st
}

// Validate checks the settings needed to start a run.
func (s Settings) Validate() error {
	if err := errors.Join(s.parseErrs...); err != nil {
		return err
	}
	if s.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if !common.IsHexAddress(s.FactoryAddress) {
		return fmt.Errorf("factory_address %q is not a hex address", s.FactoryAddress)
	}
	if s.BatchLimit < 1 {
		return fmt.Errorf("batch_limit must be >= 1 (got %d)", s.BatchLimit)
	}
	if s.CallTimeout < 0 {
		return fmt.Errorf("call_timeout must not be negative (got %s)", s.CallTimeout)
	}
	if s.OutputPath == "" {
		return fmt.Errorf("output_path is required")
	}
	if !logging.ValidLevel(logging.LogLevel(s.LogLevel)) {
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", s.LogLevel)
	}
	if s.RedisURL != "" && s.NameCacheTTL <= 0 {
		return fmt.Errorf("name_cache_ttl must be positive when redis_url is set")
	}
	return nil
}
