// Package router classifies free-text queries into a response mode.
//
// Classification is a decision list: an ordered table of keyword sets is
// scanned top to bottom and the first matching rule wins. Incident language
// outranks analysis language because incident response is the higher-stakes
// path; anything unmatched falls through to customer care.
package router

import "strings"

// Mode is the routing classification for a user query.
type Mode string

const (
	ModeAnalysis Mode = "analysis"
	ModeIncident Mode = "incident"
	ModeCare     Mode = "care"
)

// Rule maps a keyword set onto a mode. Matching is case-insensitive
// substring containment.
type Rule struct {
	Mode     Mode
	Keywords []string
}

// DefaultRules is the production rule table, in priority order.
var DefaultRules = []Rule{
	{
		Mode: ModeIncident,
		Keywords: []string{
			"incident", "alert", "error", "failure", "failing", "latency",
			"timeout", "crash", "outage", "down", "degraded", "page",
		},
	},
	{
		Mode: ModeAnalysis,
		Keywords: []string{
			"analyze", "analysis", "health", "score", "review", "assess",
			"improve", "recommend", "audit", "quality",
		},
	},
}

// Router classifies queries against an ordered rule table.
type Router struct {
	rules    []Rule
	fallback Mode
}

// New creates a Router with the given rules. The fallback mode applies when
// no rule matches.
func New(rules []Rule, fallback Mode) *Router {
	return &Router{rules: rules, fallback: fallback}
}

// Default returns a Router with the production rule table and care fallback.
func Default() *Router {
	return New(DefaultRules, ModeCare)
}

// Classify returns the mode of the first rule whose keyword set matches the
// query. Classification is deterministic: rule order is the only priority.
func (r *Router) Classify(query string) Mode {
	lower := strings.ToLower(query)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Mode
			}
		}
	}
	return r.fallback
}
