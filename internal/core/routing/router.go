package routing

import (
	"sort"
	"strings"
)

// LawCodeSet is an unordered set of law codes.
type LawCodeSet map[string]struct{}

func (s LawCodeSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in lexical order, for stable logs and responses.
func (s LawCodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Router maps query text to the law codes whose sources must be represented in the result.
// A Router is immutable after construction and safe for concurrent use.
type Router struct {
	rules []Rule
}

// NewRouter copies rules, lowercasing patterns and dropping empty entries.
func NewRouter(rules []Rule) *Router {
	normalized := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.ToLower(strings.TrimSpace(rule.Pattern))
		if pattern == "" || len(rule.LawCodes) == 0 {
			continue
		}
		codes := make([]string, 0, len(rule.LawCodes))
		for _, code := range rule.LawCodes {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		if len(codes) == 0 {
			continue
		}
		normalized = append(normalized, Rule{Pattern: pattern, LawCodes: codes})
	}
	return &Router{rules: normalized}
}

// NewDefaultRouter builds a router over DefaultRules.
func NewDefaultRouter() *Router {
	return NewRouter(DefaultRules)
}

// Route returns every law code whose rule pattern occurs in text. Matching is a plain
// substring scan over the table; every hit counts and duplicates collapse.
func (r *Router) Route(text string) LawCodeSet {
	out := make(LawCodeSet)
	for _, code := range r.matchInOrder(text) {
		out[code] = struct{}{}
	}
	return out
}

// Prioritized returns at most limit routed law codes, in the order they are first reached
// while walking the table. limit <= 0 means no cap.
func (r *Router) Prioritized(text string, limit int) []string {
	codes := r.matchInOrder(text)
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	return codes
}

// Rules returns a copy of the routing table.
func (r *Router) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	for i, rule := range r.rules {
		out[i] = Rule{Pattern: rule.Pattern, LawCodes: append([]string(nil), rule.LawCodes...)}
	}
	return out
}

func (r *Router) matchInOrder(text string) []string {
	query := strings.ToLower(text)
	if strings.TrimSpace(query) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var codes []string
	for _, rule := range r.rules {
		if !strings.Contains(query, rule.Pattern) {
			continue
		}
		for _, code := range rule.LawCodes {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}
