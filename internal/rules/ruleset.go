package rules

// RuleSet is an immutable, ordered collection of rules. Category rules keep file
// order because that order is their priority; never store them in a map.
type RuleSet struct {
	Source        string         `json:"source,omitempty"`
	CategoryRules []CategoryRule `json:"category_rules"`
	LabelRules    []LabelRule    `json:"label_rules"`
}

// NewRuleSet builds a rule set from rules in load order.
func NewRuleSet(source string, rules ...Rule) *RuleSet {
	set := &RuleSet{Source: source}
	for _, r := range rules {
		switch rule := r.(type) {
		case CategoryRule:
			set.CategoryRules = append(set.CategoryRules, rule)
		case LabelRule:
			set.LabelRules = append(set.LabelRules, rule)
		}
	}
	return set
}

// Len returns the total number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.CategoryRules) + len(s.LabelRules)
}

// Categories returns the distinct target categories in rule order.
func (s *RuleSet) Categories() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.CategoryRules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Lookup finds a rule by name.
func (s *RuleSet) Lookup(name string) (Rule, bool) {
	if s == nil {
		return nil, false
	}
	for _, r := range s.CategoryRules {
		if r.Name == name {
			return r, true
		}
	}
	for _, r := range s.LabelRules {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}
