package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/common"
	"github.com/Veraticus/the-spice-must-sort/internal/merchant"
	"gopkg.in/yaml.v3"
)

// ValidationError lists every problem found in a rule file. A rule file with any
// problem is rejected as a whole.
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	source := e.Source
	if source == "" {
		source = "rules"
	}
	return fmt.Sprintf("%s: %d invalid rule definition(s): %s", source, len(e.Problems), strings.Join(e.Problems, "; "))
}

// Unwrap lets callers match ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return common.ErrInvalidConfig
}

func (e *ValidationError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

type ruleFile struct {
	Rules []yaml.Node `yaml:"rules"`
}

type ruleHeader struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

type amountDoc struct {
	Operator string `yaml:"operator"`
	Value    string `yaml:"value"`
}

// UnmarshalYAML accepts either {operator, value} or the shorthand "> 100".
func (a *amountDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		fields := strings.Fields(node.Value)
		if len(fields) != 2 {
			return fmt.Errorf("line %d: amount shorthand must look like \"> 100\", got %q", node.Line, node.Value)
		}
		a.Operator, a.Value = fields[0], fields[1]
		return nil
	}

	type plain amountDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = amountDoc(p)
	return nil
}

type categoryRuleDoc struct {
	Amount     *amountDoc `yaml:"amount"`
	Confidence *int       `yaml:"confidence"`
	Name       string     `yaml:"name"`
	Category   string     `yaml:"category"`
	Patterns   []string   `yaml:"patterns"`
	Exclusions []string   `yaml:"exclusions"`
	Accounts   []string   `yaml:"accounts"`
}

type labelConditionsDoc struct {
	Amount            *amountDoc `yaml:"amount"`
	Categories        []string   `yaml:"categories"`
	Accounts          []string   `yaml:"accounts"`
	OnlyUncategorized bool       `yaml:"only_uncategorized"`
}

type labelRuleDoc struct {
	Name       string             `yaml:"name"`
	Labels     []string           `yaml:"labels"`
	Conditions labelConditionsDoc `yaml:"conditions"`
}

// LoadOption configures rule loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	normalize merchant.Normalizer
}

// WithPatternNormalizer sets the normalizer patterns are checked against.
// Pass the same normalizer given to the engine through WithNormalizer.
func WithPatternNormalizer(n merchant.Normalizer) LoadOption {
	return func(c *loadConfig) {
		if n != nil {
			c.normalize = n
		}
	}
}

// LoadFile reads and validates a YAML rule file.
func LoadFile(path string, opts ...LoadOption) (*RuleSet, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(path, bytes.NewReader(data), opts...)
}

// Parse decodes a YAML rule document. Each entry is dispatched on its "type"
// tag; unknown tags and missing required fields fail the whole load.
func Parse(source string, r io.Reader, opts ...LoadOption) (*RuleSet, error) {
	cfg := loadConfig{normalize: merchant.Normalize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var doc ruleFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Source: source, Problems: []string{fmt.Sprintf("malformed YAML: %v", err)}}
	}

	verr := &ValidationError{Source: source}
	set := &RuleSet{Source: source}
	names := make(map[string]int)

	for i := range doc.Rules {
		node := &doc.Rules[i]
		where := fmt.Sprintf("rule #%d (line %d)", i+1, node.Line)

		var header ruleHeader
		if err := node.Decode(&header); err != nil {
			verr.addf("%s: %v", where, err)
			continue
		}

		if header.Name == "" {
			verr.addf("%s: missing name", where)
		} else {
			where = fmt.Sprintf("rule %q (line %d)", header.Name, node.Line)
			if first, dup := names[header.Name]; dup {
				verr.addf("%s: duplicate name, first defined on line %d", where, first)
			} else {
				names[header.Name] = node.Line
			}
		}

		switch Kind(strings.ToLower(strings.TrimSpace(header.Type))) {
		case KindCategory:
			var d categoryRuleDoc
			if err := node.Decode(&d); err != nil {
				verr.addf("%s: %v", where, err)
				continue
			}
			if rule, ok := buildCategoryRule(d, where, cfg.normalize, verr); ok {
				set.CategoryRules = append(set.CategoryRules, rule)
			}
		case KindLabel:
			var d labelRuleDoc
			if err := node.Decode(&d); err != nil {
				verr.addf("%s: %v", where, err)
				continue
			}
			if rule, ok := buildLabelRule(d, where, verr); ok {
				set.LabelRules = append(set.LabelRules, rule)
			}
		case "":
			verr.addf("%s: missing type (expected %q or %q)", where, KindCategory, KindLabel)
		default:
			verr.addf("%s: unknown type %q (expected %q or %q)", where, header.Type, KindCategory, KindLabel)
		}
	}

	if len(verr.Problems) > 0 {
		return nil, verr
	}

	return set, nil
}

func buildCategoryRule(d categoryRuleDoc, where string, normalize merchant.Normalizer, verr *ValidationError) (CategoryRule, bool) {
	before := len(verr.Problems)

	rule := CategoryRule{
		Name:       d.Name,
		Category:   strings.TrimSpace(d.Category),
		Patterns:   trimAll(d.Patterns),
		Exclusions: trimAll(d.Exclusions),
		Accounts:   trimAll(d.Accounts),
		Confidence: DefaultConfidence,
	}

	if len(rule.Patterns) == 0 {
		verr.addf("%s: at least one pattern is required", where)
	}
	for _, p := range append(append([]string{}, rule.Patterns...), rule.Exclusions...) {
		if normalize(p) == "" {
			verr.addf("%s: pattern %q is empty after normalization", where, p)
		}
	}
	if rule.Category == "" {
		verr.addf("%s: missing category", where)
	}
	if d.Confidence != nil {
		if *d.Confidence < 0 || *d.Confidence > 100 {
			verr.addf("%s: confidence %d outside 0-100", where, *d.Confidence)
		}
		rule.Confidence = *d.Confidence
	}
	if d.Amount != nil {
		cond, err := NewAmountCondition(d.Amount.Operator, d.Amount.Value)
		if err != nil {
			verr.addf("%s: %v", where, err)
		}
		rule.Amount = cond
	}

	return rule, len(verr.Problems) == before
}

func buildLabelRule(d labelRuleDoc, where string, verr *ValidationError) (LabelRule, bool) {
	before := len(verr.Problems)

	rule := LabelRule{
		Name:   d.Name,
		Labels: dedupe(trimAll(d.Labels)),
		Conditions: LabelConditions{
			Categories:        trimAll(d.Conditions.Categories),
			Accounts:          trimAll(d.Conditions.Accounts),
			OnlyUncategorized: d.Conditions.OnlyUncategorized,
		},
	}

	if len(rule.Labels) == 0 {
		verr.addf("%s: at least one label is required", where)
	}
	if d.Conditions.Amount != nil {
		cond, err := NewAmountCondition(d.Conditions.Amount.Operator, d.Conditions.Amount.Value)
		if err != nil {
			verr.addf("%s: %v", where, err)
		}
		rule.Conditions.Amount = cond
	}

	return rule, len(verr.Problems) == before
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
