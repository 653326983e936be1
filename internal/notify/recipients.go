package notify

import (
	"strings"
	"unicode"
)

// Resolver chooses recipients for a PO: the base list plus the addresses
// registered for the longest prefix matching the PO's leading initials.
type Resolver struct {
	base     []string
	prefixes map[string][]string
}

// NewResolver creates a resolver. Prefix keys are matched case-insensitively.
func NewResolver(base []string, prefixes map[string][]string) *Resolver {
	r := &Resolver{base: base, prefixes: make(map[string][]string, len(prefixes))}
	for k, v := range prefixes {
		r.prefixes[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return r
}

// For returns the deduplicated recipients for po
func (r *Resolver) For(po string) []string {
	out := dedupe(nil, r.base)

	initials := Initials(po)
	best := ""
	for prefix := range r.prefixes {
		if prefix != "" && strings.HasPrefix(initials, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		out = dedupe(out, r.prefixes[best])
	}
	return out
}

// Initials returns the upper-cased characters of po before the first digit or hyphen
func Initials(po string) string {
	po = strings.TrimSpace(po)
	end := strings.IndexFunc(po, func(c rune) bool { return unicode.IsDigit(c) || c == '-' })
	if end >= 0 {
		po = po[:end]
	}
	return strings.ToUpper(po)
}

func dedupe(into []string, add []string) []string {
	seen := make(map[string]bool, len(into)+len(add))
	for _, a := range into {
		seen[strings.ToLower(a)] = true
	}
	for _, a := range add {
		a = strings.TrimSpace(a)
		if a == "" || seen[strings.ToLower(a)] {
			continue
		}
		seen[strings.ToLower(a)] = true
		into = append(into, a)
	}
	return into
}
