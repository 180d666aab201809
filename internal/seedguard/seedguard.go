// Package seedguard filters known placeholder records out of reference-data
// batches before they are persisted.
//
// Backend environments seed demo clients and products for UI testing; without
// this guard a full-table download would pollute the device with fixtures.
// The predicates are pure string checks so they stay trivially unit-testable
// and never touch storage or network code. The guard never runs on orders,
// which are always user-originated.
package seedguard

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dcampos/fieldsync/internal/model"
)

// defaultPatterns is the built-in deny-list. Matching is case-insensitive
// substring against record name/company fields.
var defaultPatterns = []string{
	"test",
	"teste",
	"mock",
	"demo",
	"sample",
	"example",
	"exemplo",
	"placeholder",
	"produto premium",
	"empresa modelo",
	"cliente padrao",
	"lorem ipsum",
}

// Guard holds the active deny-list. The zero value is not usable; construct
// with New or LoadFile.
type Guard struct {
	patterns []string
}

// New builds a guard from the built-in deny-list plus extra patterns.
// Patterns are normalized to lower case; empty extras are dropped.
func New(extra []string) *Guard {
	patterns := make([]string, 0, len(defaultPatterns)+len(extra))
	patterns = append(patterns, defaultPatterns...)
	for _, p := range extra {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return &Guard{patterns: patterns}
}

// denyListFile is the YAML shape for user-supplied extra patterns.
type denyListFile struct {
	Patterns []string `yaml:"patterns"`
}

// LoadFile builds a guard extended with patterns from a YAML file:
//
//	patterns:
//	  - "acme fixtures"
//	  - "qa only"
//
// A missing file yields the default guard.
func LoadFile(path string) (*Guard, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deny-list file: %w", err)
	}

	var f denyListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse deny-list file: %w", err)
	}
	return New(f.Patterns), nil
}

// matches reports whether any deny-list pattern occurs in s.
func (g *Guard) matches(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, p := range g.patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// IsMockClient reports whether a client record matches the deny-list on its
// name or company field.
func (g *Guard) IsMockClient(c *model.Client) bool {
	return g.matches(c.Name) || g.matches(c.Company)
}

// IsMockProduct reports whether a product record matches the deny-list on its
// name field.
func (g *Guard) IsMockProduct(p *model.Product) bool {
	return g.matches(p.Name)
}

// IsValidRealProduct is the stricter structural check: the product must carry
// a non-placeholder name and a plausible code. A product failing this is
// excluded even when it matches no literal mock pattern.
func (g *Guard) IsValidRealProduct(p *model.Product) bool {
	if g.IsMockProduct(p) {
		return false
	}
	if strings.TrimSpace(p.Name) == "" {
		return false
	}
	code := strings.TrimSpace(p.Code)
	if code == "" {
		return false
	}
	// Codes of only zeros or dashes are exporter placeholders.
	if strings.Trim(code, "0-") == "" {
		return false
	}
	return true
}

// FilterClients returns the batch without deny-listed clients. Idempotent:
// running it twice on already-clean data is a no-op.
func (g *Guard) FilterClients(batch []model.Client) []model.Client {
	out := batch[:0:0]
	for _, c := range batch {
		if g.IsMockClient(&c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterProducts returns the batch without deny-listed or structurally
// implausible products.
func (g *Guard) FilterProducts(batch []model.Product) []model.Product {
	out := batch[:0:0]
	for _, p := range batch {
		if !g.IsValidRealProduct(&p) {
			continue
		}
		out = append(out, p)
	}
	return out
}
