package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var embedded []byte

// Rule lists the roles allowed on one route. Public routes set Skip.
type Rule struct {
	Path   string   `json:"path"`
	Method string   `json:"method"`
	Roles  []string `json:"permissions"`
	Skip   bool     `json:"skip"`
}

// Allows reports whether role may call the route. A rule without roles only
// requires an authenticated caller.
func (r Rule) Allows(role string) bool {
	return len(r.Roles) == 0 || slices.Contains(r.Roles, role)
}

// Table is the route permission set keyed by method and route pattern.
type Table struct {
	rules map[string]Rule
	// Disabled turns off role checks for every route.
	Disabled bool
}

func ruleKey(method, path string) string {
	return strings.ToUpper(method) + " " + strings.TrimSuffix(path, "/")
}

// Lookup returns the rule registered for the route pattern.
func (t *Table) Lookup(method, path string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}

	rule, ok := t.rules[ruleKey(method, path)]

	return rule, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.rules)
}

func Parse(data []byte) (*Table, error) {
	var doc struct {
		Skip      bool   `json:"skip"`
		Endpoints []Rule `json:"endpoints"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	table := &Table{
		rules:    make(map[string]Rule, len(doc.Endpoints)),
		Disabled: doc.Skip,
	}

	for _, rule := range doc.Endpoints {
		key := ruleKey(rule.Method, rule.Path)
		if _, dup := table.rules[key]; dup {
			return nil, fmt.Errorf("duplicate permission for %s", key)
		}

		table.rules[key] = rule
	}

	return table, nil
}

// Get parses the permissions bundled with the binary.
func Get() *Table {
	table, err := Parse(embedded)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to decode embedded permissions")
	}

	log.Info().Int("endpoints", table.Len()).Msg("Loaded route permissions")

	return table
}
