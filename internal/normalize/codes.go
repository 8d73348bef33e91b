package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maggiexgao/explain-my-bills/internal/model"
)

// Prefixes that extraction commonly glues onto a code token.
var codePrefixes = []string{"CPT", "HCPCS", "CODE", "PROC"}

// billingWords are ordinary billing-document words that naive pattern
// matching over free text would otherwise treat as codes. A token containing
// any of these as a whole segment is rejected outright.
var billingWords = map[string]bool{
	"ACCOUNT":   true,
	"ADJUST":    true,
	"AMOUNT":    true,
	"BALANCE":   true,
	"CHARGE":    true,
	"CHARGES":   true,
	"CLAIM":     true,
	"COPAY":     true,
	"CREDIT":    true,
	"DATE":      true,
	"DUE":       true,
	"INSURANCE": true,
	"INVOICE":   true,
	"LEVEL":     true,
	"OFFICE":    true,
	"PAGE":      true,
	"PATIENT":   true,
	"PAYMENT":   true,
	"PLEASE":    true,
	"REMIT":     true,
	"SERVICE":   true,
	"STATEMENT": true,
	"SUBTOTAL":  true,
	"TOTAL":     true,
	"UNITS":     true,
	"VISIT":     true,
}

// Two-digit numeric pricing modifiers that appear concatenated onto a code
// (e.g. "9921325"). An unknown all-digit suffix is more likely an account
// or reference number fragment, so only these are split off.
var numericModifiers = map[string]bool{
	"22": true, "24": true, "25": true, "26": true,
	"50": true, "51": true, "52": true, "53": true,
	"59": true, "76": true, "77": true, "78": true, "79": true,
	"80": true, "81": true, "82": true,
	"91": true, "95": true, "99": true,
}

var (
	cptPlain        = regexp.MustCompile(`^\d{5}$`)
	hcpcsPlain      = regexp.MustCompile(`^[A-Z]\d{4}$`)
	revenuePlain    = regexp.MustCompile(`^\d{4}$`)
	cptSeparated    = regexp.MustCompile(`^(\d{5})[\- ]([A-Z0-9]{2})$`)
	hcpcsSeparated  = regexp.MustCompile(`^([A-Z]\d{4})[\- ]([A-Z0-9]{2})$`)
	cptGlued        = regexp.MustCompile(`^(\d{5})([A-Z0-9]{2})$`)
	hcpcsGlued      = regexp.MustCompile(`^([A-Z]\d{4})([A-Z0-9]{2})$`)
	edgePunctuation = regexp.MustCompile(`^[^A-Za-z0-9]+|[^A-Za-z0-9]+$`)
	innerSpace      = regexp.MustCompile(`\s+`)
	nonAlphanum     = regexp.MustCompile(`[^A-Z0-9]`)
	allAlpha        = regexp.MustCompile(`^[A-Z]+$`)
)

// CleanToken uppercases a raw token and strips known prefixes, a leading
// "#", and surrounding punctuation. Inner whitespace collapses to one space.
func CleanToken(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = edgePunctuation.ReplaceAllString(s, "")
	for _, p := range codePrefixes {
		if strings.HasPrefix(s, p) {
			rest := s[len(p):]
			trimmed := strings.TrimLeft(rest, ":# .-")
			// Strip only when a delimiter followed the prefix or the
			// remainder starts with a digit; a bare "CPT" stays intact and
			// fails validation on its own merits.
			if trimmed != "" && (trimmed != rest || trimmed[0] >= '0' && trimmed[0] <= '9') {
				s = trimmed
			}
			break
		}
	}
	s = edgePunctuation.ReplaceAllString(s, "")
	return innerSpace.ReplaceAllString(s, " ")
}

// ValidateCode turns a raw extracted token into a typed ServiceCode or a
// rejection with reason. Deterministic, side-effect free, no I/O.
// Exactly one of the two returns is non-nil.
func ValidateCode(raw string) (*model.ServiceCode, *model.CodeRejection) {
	cleaned := CleanToken(raw)
	if cleaned == "" {
		return nil, &model.CodeRejection{Token: raw, Reason: "empty after normalization"}
	}

	for _, seg := range strings.FieldsFunc(cleaned, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		if billingWords[seg] {
			return nil, &model.CodeRejection{
				Token:  raw,
				Reason: fmt.Sprintf("matches common billing word %q", seg),
			}
		}
	}

	compact := nonAlphanum.ReplaceAllString(cleaned, "")
	if allAlpha.MatchString(compact) {
		return nil, &model.CodeRejection{Token: raw, Reason: "purely alphabetic token"}
	}
	if len(compact) < 4 {
		return nil, &model.CodeRejection{Token: raw, Reason: "shorter than 4 characters"}
	}
	if len(compact) > 10 {
		return nil, &model.CodeRejection{Token: raw, Reason: "longer than 10 characters"}
	}

	if code, mod, system, ok := matchFamily(cleaned, compact); ok {
		return &model.ServiceCode{Code: code, Modifier: mod, System: system, Raw: raw}, nil
	}
	return nil, &model.CodeRejection{Token: raw, Reason: "does not match any known code pattern"}
}

// matchFamily recognizes the three code families, with an optional 2-char
// modifier split off when syntactically plausible.
func matchFamily(cleaned, compact string) (code, modifier string, system model.CodeSystem, ok bool) {
	switch {
	case cptPlain.MatchString(compact):
		return compact, "", model.SystemCPT, true
	case hcpcsPlain.MatchString(compact):
		return compact, "", model.SystemHCPCS, true
	case revenuePlain.MatchString(compact):
		return compact, "", model.SystemRevenue, true
	}

	// Delimiter-separated modifier: "99213-25", "J1100 JW".
	if m := cptSeparated.FindStringSubmatch(cleaned); m != nil {
		return m[1], m[2], model.SystemCPT, true
	}
	if m := hcpcsSeparated.FindStringSubmatch(cleaned); m != nil {
		return m[1], m[2], model.SystemHCPCS, true
	}

	// Glued modifier: letters in the suffix are unambiguous; an all-digit
	// suffix must be a recognized pricing modifier.
	if m := cptGlued.FindStringSubmatch(compact); m != nil && plausibleModifier(m[2]) {
		return m[1], m[2], model.SystemCPT, true
	}
	if m := hcpcsGlued.FindStringSubmatch(compact); m != nil && plausibleModifier(m[2]) {
		return m[1], m[2], model.SystemHCPCS, true
	}
	return "", "", model.SystemUnknown, false
}

func plausibleModifier(mod string) bool {
	if strings.IndexFunc(mod, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0 {
		return true
	}
	return numericModifiers[mod]
}

// ValidateCodes validates a batch of raw tokens, deduplicating by normalized
// code+modifier while preserving first-seen order. Rejections are returned
// alongside for transparency; duplicates are silently collapsed.
func ValidateCodes(tokens []string) ([]model.ServiceCode, []model.CodeRejection) {
	var accepted []model.ServiceCode
	var rejected []model.CodeRejection
	seen := make(map[string]bool, len(tokens))

	for _, tok := range tokens {
		sc, rej := ValidateCode(tok)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		if seen[sc.Key()] {
			continue
		}
		seen[sc.Key()] = true
		accepted = append(accepted, *sc)
	}
	return accepted, rejected
}
