package scb_casa

import (
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const configKey = "statement.SCB_CASA"

// Config drives detection and the layout state machine for Standard Chartered
// current/savings statements.
type Config struct {
	Signatures      []string
	StopKeywords    []string
	SkipKeywords    []string
	TableHeader     *regexp.Regexp
	ReferencePrefix string
	DayFirst        bool
}

func DefaultConfig() Config {
	return Config{
		Signatures:      []string{"standard chartered", "stanchart", "sc.com"},
		StopKeywords:    []string{"total", "summary", "closing balance", "interest"},
		SkipKeywords:    []string{"balance brought forward", "balance forward", "opening balance", "brought forward"},
		TableHeader:     regexp.MustCompile(`(?i)\bdate\b.*\bbalance\b`),
		ReferencePrefix: "SC",
		DayFirst:        true,
	}
}

// LoadConfig overlays the statement.SCB_CASA section of v on the defaults.
// An invalid table_header pattern keeps the default.
func LoadConfig(v *viper.Viper) Config {
	cfg := DefaultConfig()
	if v == nil {
		return cfg
	}
	if s := v.GetStringSlice(configKey + ".signatures"); len(s) > 0 {
		cfg.Signatures = lower(s)
	}
	if s := v.GetStringSlice(configKey + ".stop_keywords"); len(s) > 0 {
		cfg.StopKeywords = lower(s)
	}
	if s := v.GetStringSlice(configKey + ".skip_keywords"); len(s) > 0 {
		cfg.SkipKeywords = lower(s)
	}
	if p := v.GetString(configKey + ".table_header"); p != "" {
		if re, err := regexp.Compile(p); err == nil {
			cfg.TableHeader = re
		}
	}
	if p := v.GetString(configKey + ".reference_prefix"); p != "" {
		cfg.ReferencePrefix = p
	}
	if v.IsSet(configKey + ".day_first") {
		cfg.DayFirst = v.GetBool(configKey + ".day_first")
	}
	return cfg
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
