package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yml
var defaultTaxonomyYAML []byte

type CategoryRule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type TaxonomyConfig struct {
	Fallback      string         `yaml:"fallback"`
	Categories    []CategoryRule `yaml:"categories"`
	KidsPatterns  []string       `yaml:"kids_patterns"`
	AdultPatterns []string       `yaml:"adult_patterns"`
}

type categoryMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

// Taxonomy maps free text onto the closed category set and infers an age
// group from kid/adult indicator patterns. Classification is a heuristic:
// content matching neither set defaults to "All Ages", and missed kids
// content is an accepted failure mode.
type Taxonomy struct {
	file string

	mu       sync.RWMutex
	matchers []categoryMatcher
	kids     []*regexp.Regexp
	adults   []*regexp.Regexp
	fallback string
	names    []string
}

// NewTaxonomy creates a classifier backed by the built-in tables, or by
// an override YAML file when one is configured.
func NewTaxonomy(file string) *Taxonomy {
	return &Taxonomy{file: file}
}

func (t *Taxonomy) Run() error {
	data := defaultTaxonomyYAML

	if t.file != "" {
		fileData, err := os.ReadFile(t.file)
		if err != nil {
			return fmt.Errorf("failed to read taxonomy file: %w", err)
		}
		data = fileData
	}

	var config TaxonomyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse taxonomy YAML: %w", err)
	}

	if err := t.apply(&config); err != nil {
		return err
	}

	slog.Debug("Taxonomy loaded", "categories", len(config.Categories),
		"kids_patterns", len(config.KidsPatterns), "adult_patterns", len(config.AdultPatterns))

	return nil
}

// Reload re-reads the taxonomy tables; the previous tables stay active if
// the new ones fail to load or compile.
func (t *Taxonomy) Reload() error {
	return t.Run()
}

func (t *Taxonomy) apply(config *TaxonomyConfig) error {
	if len(config.Categories) == 0 {
		return fmt.Errorf("taxonomy has no categories")
	}

	fallback := config.Fallback
	if fallback == "" {
		fallback = "Other"
	}

	matchers := make([]categoryMatcher, 0, len(config.Categories))
	for i, rule := range config.Categories {
		if rule.Name == "" {
			return fmt.Errorf("category at index %d has no name", i)
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("category %q has no patterns", rule.Name)
		}
		matcher := categoryMatcher{name: rule.Name}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern for category %q: %w", rule.Name, err)
			}
			matcher.patterns = append(matcher.patterns, re)
		}
		matchers = append(matchers, matcher)
	}

	kids, err := compilePatterns(config.KidsPatterns)
	if err != nil {
		return fmt.Errorf("invalid kids pattern: %w", err)
	}
	adults, err := compilePatterns(config.AdultPatterns)
	if err != nil {
		return fmt.Errorf("invalid adult pattern: %w", err)
	}

	names := make([]string, 0, len(matchers)+1)
	for _, m := range matchers {
		names = append(names, m.name)
	}
	names = append(names, fallback)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.matchers = matchers
	t.kids = kids
	t.adults = adults
	t.fallback = fallback
	t.names = names

	return nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Normalize is total: every input, including empty text, maps to exactly
// one canonical category. First matching table entry wins.
func (t *Taxonomy) Normalize(raw string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return t.fallback
	}

	// Canonical names map to themselves, so normalization is idempotent.
	for _, name := range t.names {
		if strings.EqualFold(raw, name) {
			return name
		}
	}

	for _, matcher := range t.matchers {
		for _, re := range matcher.patterns {
			if re.MatchString(raw) {
				return matcher.name
			}
		}
	}

	return t.fallback
}

func (t *Taxonomy) InferAgeGroup(title, description string) AgeGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()

	text := title + " " + description

	kids := matchesAny(t.kids, text)
	adults := matchesAny(t.adults, text)

	switch {
	case kids && adults:
		return AgeAllAges
	case kids:
		return AgeKids
	case adults:
		return AgeAdults
	default:
		return AgeAllAges
	}
}

// Categories returns every reachable canonical category, fallback bucket
// included, so filter UIs never expose an unreachable option.
func (t *Taxonomy) Categories() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
