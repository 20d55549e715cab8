package profile

// Profile is a named bundle of scoping rules attached to a delegate. A profile
// with zero rules places no additional restriction on assignment.
type Profile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ScopingRules []ScopingRule `json:"scoping_rules,omitempty"`
}

// ScopingRule is a conjunction of (key -> allowed values) constraints
// evaluated against a task's setup metadata.
type ScopingRule struct {
	Description string              `json:"description"`
	Entries     map[string][]string `json:"entries"`
}

// Allows reports whether value is in the rule's allowed set for key.
func (r ScopingRule) Allows(key, value string) bool {
	for _, allowed := range r.Entries[key] {
		if allowed == value {
			return true
		}
	}
	return false
}
