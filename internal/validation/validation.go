package validation

import (
	"regexp"
	"strings"
)

// Result is what every validator returns. Validators are pure: no I/O and
// no panics, even on empty input.
type Result struct {
	Valid   bool   `json:"valid"`
	Field   string `json:"field"`
	Message string `json:"message,omitempty"`
}

func valid(field string) Result {
	return Result{Valid: true, Field: field}
}

func invalid(field, message string) Result {
	return Result{Valid: false, Field: field, Message: message}
}

type charset int

const (
	charsetAny charset = iota
	charsetHex
	charsetBase58
)

type networkRule struct {
	prefixes []string
	minLen   int
	maxLen   int
	charset  charset
}

var networkRules = map[string]networkRule{
	"ERC20": {prefixes: []string{"0x"}, minLen: 42, maxLen: 42, charset: charsetHex},
	"BEP20": {prefixes: []string{"0x"}, minLen: 42, maxLen: 42, charset: charsetHex},
	"TRC20": {prefixes: []string{"T"}, minLen: 34, maxLen: 34, charset: charsetBase58},
	"SOL":   {minLen: 32, maxLen: 44, charset: charsetBase58},
	"BTC":   {prefixes: []string{"bc1", "1", "3"}, minLen: 26, maxLen: 62},
}

var (
	hexBodyRe  = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	base58Re   = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postcodeRe = regexp.MustCompile(`^[0-9]{5}$`)
	phoneRe    = regexp.MustCompile(`^(\+?6)?01[0-9]{8,9}$`)
)

// WalletAddress checks address format against the target network's rules:
// prefix, length and charset. It does not verify checksums.
func WalletAddress(address, network string) Result {
	const field = "walletAddress"

	address = strings.TrimSpace(address)
	if address == "" {
		return invalid(field, "wallet address is required")
	}

	rule, ok := networkRules[strings.ToUpper(strings.TrimSpace(network))]
	if !ok {
		return invalid(field, "unsupported network: "+network)
	}

	if len(rule.prefixes) > 0 {
		matched := false
		for _, p := range rule.prefixes {
			if strings.HasPrefix(address, p) {
				matched = true
				break
			}
		}
		if !matched {
			return invalid(field, "address has an invalid prefix for "+strings.ToUpper(network))
		}
	}

	if len(address) < rule.minLen || len(address) > rule.maxLen {
		return invalid(field, "address has an invalid length for "+strings.ToUpper(network))
	}

	switch rule.charset {
	case charsetHex:
		if !hexBodyRe.MatchString(address) {
			return invalid(field, "address must be 0x followed by hex characters")
		}
	case charsetBase58:
		if !base58Re.MatchString(address) {
			return invalid(field, "address contains characters outside the base58 set")
		}
	}

	return valid(field)
}

// Phone accepts Malaysian mobile numbers with an optional +6/6 country code;
// spaces and dashes are ignored.
func Phone(input string) Result {
	const field = "phone"

	if strings.TrimSpace(input) == "" {
		return invalid(field, "phone number is required")
	}

	stripped := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(input))
	if !phoneRe.MatchString(stripped) {
		return invalid(field, "phone must be a valid Malaysian mobile number")
	}

	return valid(field)
}

func Email(input string) Result {
	const field = "email"

	input = strings.TrimSpace(input)
	if input == "" {
		return invalid(field, "email is required")
	}
	if !emailRe.MatchString(input) {
		return invalid(field, "email must be a valid address")
	}
	if strings.Count(input, "@") != 1 {
		return invalid(field, "email must contain exactly one @")
	}

	return valid(field)
}

func Postcode(input string) Result {
	const field = "postcode"

	input = strings.TrimSpace(input)
	if input == "" {
		return invalid(field, "postcode is required")
	}
	if !postcodeRe.MatchString(input) {
		return invalid(field, "postcode must be exactly 5 digits")
	}

	return valid(field)
}
