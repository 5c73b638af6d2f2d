// Package classify tags parsed documents with a kind by running XPath rules
// against them, e.g. telling ESL billing exports from SDAT metering data.
package classify

import (
	"fmt"
	"sort"

	"github.com/antchfx/xpath"
	"github.com/vrsandeep/xmlup/internal/markup"
)

// DefaultRules recognise the two meter export formats the collector knows.
var DefaultRules = map[string]string{
	"esl":  "/*[local-name()='ESLBillingData']",
	"sdat": "/*[local-name()='ValidatedMeteredData']",
}

type rule struct {
	kind string
	expr *xpath.Expr
}

// Classifier holds compiled rules. Rules are tried in kind order so the
// result is stable when several match.
type Classifier struct {
	rules []rule
}

// New compiles rules keyed by kind.
func New(rules map[string]string) (*Classifier, error) {
	kinds := make([]string, 0, len(rules))
	for kind := range rules {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	c := &Classifier{}
	for _, kind := range kinds {
		expr, err := xpath.Compile(rules[kind])
		if err != nil {
			return nil, fmt.Errorf("invalid rule for kind '%s': %w", kind, err)
		}
		c.rules = append(c.rules, rule{kind: kind, expr: expr})
	}
	return c, nil
}

// Classify returns the first matching kind, or "" when nothing matches.
func (c *Classifier) Classify(doc *markup.Node) string {
	if c == nil {
		return ""
	}
	for _, r := range c.rules {
		if markup.Matches(doc, r.expr) {
			return r.kind
		}
	}
	return ""
}
