package common

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MetadataConfig lists the institutions recognised by ExtractMetadata. Each entry
// maps a lowercase signature phrase to the canonical bank name.
type MetadataConfig struct {
	KnownBanks []KnownBank `mapstructure:"known_banks"`
}

type KnownBank struct {
	Signature string `mapstructure:"signature"`
	Name      string `mapstructure:"name"`
}

// DefaultMetadataConfig returns the built-in institution list. Longer, more
// specific signatures come first so "Bank of America" wins over "America".
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{KnownBanks: []KnownBank{
		{"standard chartered", "Standard Chartered"},
		{"bank of america", "Bank of America"},
		{"wells fargo", "Wells Fargo"},
		{"jpmorgan chase", "Chase"},
		{"chase", "Chase"},
		{"citibank", "Citibank"},
		{"capital one", "Capital One"},
		{"american express", "American Express"},
		{"td bank", "TD Bank"},
		{"us bank", "U.S. Bank"},
		{"pnc bank", "PNC Bank"},
		{"hsbc", "HSBC"},
		{"barclays", "Barclays"},
		{"metro bank", "Metro Bank"},
		{"lloyds", "Lloyds Bank"},
		{"natwest", "NatWest"},
		{"santander", "Santander"},
		{"maybank", "Maybank"},
		{"cimb", "CIMB"},
		{"dbs bank", "DBS"},
		{"ocbc", "OCBC"},
		{"hdfc bank", "HDFC Bank"},
		{"icici bank", "ICICI Bank"},
		{"state bank of india", "State Bank of India"},
	}}
}

// LoadMetadataConfig reads metadata.known_banks from v, keeping the defaults
// when the key is absent or malformed.
func LoadMetadataConfig(v *viper.Viper) MetadataConfig {
	cfg := DefaultMetadataConfig()
	if v == nil || !v.IsSet("metadata.known_banks") {
		return cfg
	}
	var banks []KnownBank
	if err := v.UnmarshalKey("metadata.known_banks", &banks); err != nil || len(banks) == 0 {
		return cfg
	}
	for i := range banks {
		banks[i].Signature = strings.ToLower(banks[i].Signature)
	}
	cfg.KnownBanks = banks
	return cfg
}

const periodDate = `(?:\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}\s+[A-Za-z]{3,9}\.?,?\s+\d{2,4}|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`

var (
	holderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[ \t]*(?:account\s+holder|customer\s+name|account\s+name|name\s+of\s+customer)[ \t]*(?:name)?[ \t]*[:\-]?[ \t]*([A-Za-z0-9][A-Za-z0-9 .,'\-]{1,60}?)[ \t]*$`),
		regexp.MustCompile(`(?im)(?:account\s+holder|customer\s+name|account\s+name)[ \t]*[:\-][ \t]*([A-Za-z0-9][A-Za-z0-9 .'\-]{1,40}?)(?:[ \t]{2,}|$)`),
		regexp.MustCompile(`(?m)^[ \t]*((?:MR|MRS|MS|MISS|DR|ENCIK|PUAN)\.?[ \t]+[A-Z][A-Z .'\-]{2,50}?)[ \t]*$`),
	}
	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)account\s*(?:number|no\.?|num|#)\s*[:\-]?\s*([0-9][0-9\- ]{4,22}[0-9])`),
		regexp.MustCompile(`(?i)a/c\s*(?:no\.?)?\s*[:\-]?\s*([0-9][0-9\- ]{4,22}[0-9])`),
		regexp.MustCompile(`((?:[Xx*]{2,}[\s\-]?)+\d{3,})`),
	}
	periodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)statement\s+period\s*[:\-]?\s*(` + periodDate + `\s*(?:to|through|until|-|–)\s*` + periodDate + `)`),
		regexp.MustCompile(`(?i)(?:period|from)\s*[:\-]?\s*(` + periodDate + `\s*(?:to|through|until|-|–)\s*` + periodDate + `)`),
		regexp.MustCompile(`(?i)(` + periodDate + `\s*(?:to|through|until|–)\s*` + periodDate + `)`),
	}
	currencyPattern = regexp.MustCompile(`\b(USD|EUR|GBP|MYR|SGD|INR|AUD|CAD|JPY|CHF|NZD|HKD|ZAR|AED|CNY|IDR|THB|PHP)\b`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// ExtractMetadata pulls statement metadata out of text using the built-in
// institution list. Fields without a match keep their defaults.
func ExtractMetadata(text string) StatementMetadata {
	return ExtractMetadataWith(text, DefaultMetadataConfig())
}

// ExtractMetadataWith is ExtractMetadata with an explicit institution list.
func ExtractMetadataWith(text string, cfg MetadataConfig) StatementMetadata {
	meta := DefaultMetadata()
	lower := strings.ToLower(text)

	for _, bank := range cfg.KnownBanks {
		if ContainsSignature(lower, bank.Signature) {
			meta.BankName = bank.Name
			break
		}
	}

	for _, p := range holderPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if name := cleanHolderName(m[1]); len(name) >= 3 {
				meta.AccountHolder = name
				break
			}
		}
	}

	for _, p := range accountPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			meta.AccountNumber = strings.TrimSpace(spaceRun.ReplaceAllString(m[1], " "))
			break
		}
	}

	for _, p := range periodPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			meta.StatementPeriod = strings.TrimSpace(spaceRun.ReplaceAllString(m[1], " "))
			break
		}
	}

	if m := currencyPattern.FindString(text); m != "" {
		meta.Currency = m
	}

	return meta
}

// ContainsSignature reports whether the lowercase text holds sig as a whole
// phrase: the characters on either side of the match must not be letters or
// digits, so "chase" does not match inside "purchase".
func ContainsSignature(lower, sig string) bool {
	if sig == "" {
		return false
	}
	for start := 0; start <= len(lower)-len(sig); {
		i := strings.Index(lower[start:], sig)
		if i < 0 {
			return false
		}
		i += start
		before, _ := utf8.DecodeLastRuneInString(lower[:i])
		after, _ := utf8.DecodeRuneInString(lower[i+len(sig):])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

var nameDigits = strings.NewReplacer("0", "o", "1", "i", "5", "s", "8", "b", "3", "e", "4", "a")

func cleanHolderName(raw string) string {
	name := strings.Trim(spaceRun.ReplaceAllString(raw, " "), " .,-")
	name = nameDigits.Replace(strings.ToLower(name))
	// Casers carry state and must not be shared across goroutines.
	return cases.Title(language.English).String(name)
}
