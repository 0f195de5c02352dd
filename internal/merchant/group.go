package merchant

// DefaultGroupThreshold is the similarity at which two payees are considered the same merchant.
const DefaultGroupThreshold = 0.85

// Group is a set of payees believed to belong to one merchant.
type Group struct {
	Key     string   `json:"key"`
	Payees  []string `json:"payees"`
	Count   int      `json:"count"`
	Similar bool     `json:"similar"` // True when at least one member joined by fuzzy similarity
}

// GroupPayees clusters payees by merchant. Payees with identical normalized forms
// always share a group; otherwise a payee joins the first existing group whose key
// is at least threshold similar. Groups keep first-seen order and payees that
// normalize to nothing are ignored.
func GroupPayees(payees []string, threshold float64) []Group {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultGroupThreshold
	}

	var groups []Group
	index := make(map[string]int)
	seen := make(map[int]map[string]bool)

	add := func(i int, payee string) {
		groups[i].Count++
		if !seen[i][payee] {
			seen[i][payee] = true
			groups[i].Payees = append(groups[i].Payees, payee)
		}
	}

	for _, payee := range payees {
		key := Normalize(payee)
		if key == "" {
			continue
		}

		if i, ok := index[key]; ok {
			add(i, payee)
			continue
		}

		joined := false
		for i := range groups {
			if ratio(key, groups[i].Key) >= threshold {
				index[key] = i
				groups[i].Similar = true
				add(i, payee)
				joined = true
				break
			}
		}
		if joined {
			continue
		}

		groups = append(groups, Group{Key: key})
		i := len(groups) - 1
		index[key] = i
		seen[i] = make(map[string]bool)
		add(i, payee)
	}

	return groups
}
