package password

import (
	"fmt"
	"time"
	"unicode"
)

// Rule identifies one complexity rule. Validation walks the rules in a
// fixed order and reports the first violation, so error messages are
// deterministic for a given input.
type Rule string

const (
	// RuleLengthLow is violated when the candidate is too short.
	RuleLengthLow Rule = "length-low"
	// RuleLengthHigh is violated when the candidate is too long.
	RuleLengthHigh Rule = "length-high"
	// RuleLowercase is violated when no lowercase letter is present.
	RuleLowercase Rule = "lowercase"
	// RuleUppercase is violated when no uppercase letter is present.
	RuleUppercase Rule = "uppercase"
	// RuleDigit is violated when no digit is present.
	RuleDigit Rule = "digit"
	// RuleSymbol is violated when no non-alphanumeric rune is present.
	RuleSymbol Rule = "symbol"
)

// PolicyError reports the first complexity rule a candidate password
// violates, with a message suitable for direct display to the user.
type PolicyError struct {
	Rule    Rule
	Message string
}

func (e *PolicyError) Error() string {
	return e.Message
}

// HistoryEntry is one retired password hash with the time it was set.
type HistoryEntry struct {
	Hash      string
	ChangedAt time.Time
}

// Policy holds the credential lifecycle parameters. The zero value is
// not usable; start from DefaultPolicy.
type Policy struct {
	MinLength    int
	MaxLength    int
	HistoryCount int
	ExpiryDays   int
}

// DefaultPolicy returns the platform policy: length 8..128, all four
// character classes required, reuse blocked over the last 5 hashes,
// expiry after 90 days.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    8,
		MaxLength:    128,
		HistoryCount: 5,
		ExpiryDays:   90,
	}
}

// ValidateComplexity checks candidate against the rule set and returns
// a *PolicyError for the first failing rule, in the fixed order
// length-low, length-high, lowercase, uppercase, digit, symbol.
func (p Policy) ValidateComplexity(candidate string) error {
	if len(candidate) < p.MinLength {
		return &PolicyError{
			Rule:    RuleLengthLow,
			Message: fmt.Sprintf("Password must be at least %d characters", p.MinLength),
		}
	}
	if len(candidate) > p.MaxLength {
		return &PolicyError{
			Rule:    RuleLengthHigh,
			Message: fmt.Sprintf("Password must be at most %d characters", p.MaxLength),
		}
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range candidate {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLower {
		return &PolicyError{Rule: RuleLowercase, Message: "Password must include a lowercase letter"}
	}
	if !hasUpper {
		return &PolicyError{Rule: RuleUppercase, Message: "Password must include an uppercase letter"}
	}
	if !hasDigit {
		return &PolicyError{Rule: RuleDigit, Message: "Password must include a number"}
	}
	if !hasSymbol {
		return &PolicyError{Rule: RuleSymbol, Message: "Password must include a symbol"}
	}

	return nil
}

// ComputeExpiry returns the expiry timestamp for a password set at the
// reference time. Pure function, no clock access.
func (p Policy) ComputeExpiry(from time.Time) time.Time {
	return from.AddDate(0, 0, p.ExpiryDays)
}

// IsReused reports whether candidate matches the current hash or any of
// the last HistoryCount historical hashes. Comparison goes through the
// one-way verify primitive and short-circuits on the first match.
func (p Policy) IsReused(h *Hasher, candidate, currentHash string, history []HistoryEntry) bool {
	if currentHash != "" && h.Verify(candidate, currentHash) {
		return true
	}

	recent := history
	if p.HistoryCount > 0 && len(recent) > p.HistoryCount {
		recent = recent[len(recent)-p.HistoryCount:]
	}
	for _, entry := range recent {
		if entry.Hash == "" {
			continue
		}
		if h.Verify(candidate, entry.Hash) {
			return true
		}
	}

	return false
}

// AppendHistory appends a retired hash and evicts the oldest entries so
// the history never exceeds HistoryCount.
func (p Policy) AppendHistory(history []HistoryEntry, hash string, at time.Time) []HistoryEntry {
	out := append(append([]HistoryEntry(nil), history...), HistoryEntry{Hash: hash, ChangedAt: at})
	if p.HistoryCount > 0 && len(out) > p.HistoryCount {
		out = out[len(out)-p.HistoryCount:]
	}
	return out
}
