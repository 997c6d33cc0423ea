package legalcase

// Playbook is the configurable rule set for one case type.
type Playbook struct {
	ID              string                   `json:"id" yaml:"id" toml:"id"`
	CaseType        string                   `json:"case_type" yaml:"case_type" toml:"case_type"`
	Name            string                   `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Rules           []PlaybookRule           `json:"rules" yaml:"rules" toml:"rules"`
	DecisionTree    DecisionTree             `json:"decision_tree" yaml:"decision_tree" toml:"decision_tree"`
	MonetaryRanges  map[string]MonetaryRange `json:"monetary_ranges" yaml:"monetary_ranges" toml:"monetary_ranges"`
	EscalationPaths []EscalationPath         `json:"escalation_paths,omitempty" yaml:"escalation_paths,omitempty" toml:"escalation_paths"`
	KeyStatutes     []string                 `json:"key_statutes,omitempty" yaml:"key_statutes,omitempty" toml:"key_statutes"`
	SuccessFactors  []string                 `json:"success_factors,omitempty" yaml:"success_factors,omitempty" toml:"success_factors"`
}

// PlaybookRule is a condition/action/weight triple.  Condition is either a
// registered condition name or free text.
type PlaybookRule struct {
	ID               string   `json:"id" yaml:"id" toml:"id"`
	Condition        string   `json:"condition" yaml:"condition" toml:"condition"`
	Action           string   `json:"action" yaml:"action" toml:"action"`
	Weight           float64  `json:"weight" yaml:"weight" toml:"weight"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description"`
	LegalBasis       string   `json:"legal_basis,omitempty" yaml:"legal_basis,omitempty" toml:"legal_basis"`
	EvidenceRequired []string `json:"evidence_required,omitempty" yaml:"evidence_required,omitempty" toml:"evidence_required"`
}

// DecisionTree is a graph of yes/no nodes reachable from Root.
type DecisionTree struct {
	Root  string                  `json:"root,omitempty" yaml:"root,omitempty" toml:"root"`
	Nodes map[string]DecisionNode `json:"nodes,omitempty" yaml:"nodes,omitempty" toml:"nodes"`
}

// FillNodeIDs sets every node's ID to its map key when the definition left
// it blank.
func (t *DecisionTree) FillNodeIDs() {
	for id, node := range t.Nodes {
		if node.ID == "" {
			node.ID = id
			t.Nodes[id] = node
		}
	}
}

// IsEmpty reports whether the tree has no nodes at all.
func (t DecisionTree) IsEmpty() bool {
	return len(t.Nodes) == 0
}

// DecisionNode is either a branch (Condition plus Yes/No edges) or a leaf
// (Result set, no edges).
type DecisionNode struct {
	ID                 string   `json:"id" yaml:"id" toml:"id"`
	Question           string   `json:"question,omitempty" yaml:"question,omitempty" toml:"question"`
	Condition          string   `json:"condition,omitempty" yaml:"condition,omitempty" toml:"condition"`
	Yes                string   `json:"yes,omitempty" yaml:"yes,omitempty" toml:"yes"`
	No                 string   `json:"no,omitempty" yaml:"no,omitempty" toml:"no"`
	Result             string   `json:"result,omitempty" yaml:"result,omitempty" toml:"result"`
	MonetaryRange      string   `json:"monetary_range,omitempty" yaml:"monetary_range,omitempty" toml:"monetary_range"`
	RecommendedActions []string `json:"recommended_actions,omitempty" yaml:"recommended_actions,omitempty" toml:"recommended_actions"`
}

// IsLeaf reports whether the node has no outgoing edges.
func (n DecisionNode) IsLeaf() bool {
	return n.Yes == "" && n.No == ""
}

// MonetaryRange is the numeric range and rationale for one strength tier.
type MonetaryRange struct {
	Range       [2]float64 `json:"range" yaml:"range" toml:"range"`
	Description string     `json:"description" yaml:"description" toml:"description"`
	Factors     []string   `json:"factors" yaml:"factors" toml:"factors"`
}

// EscalationPath describes when a matter should move to another forum.
type EscalationPath struct {
	Trigger string `json:"trigger" yaml:"trigger" toml:"trigger"`
	Action  string `json:"action" yaml:"action" toml:"action"`
	Forum   string `json:"forum,omitempty" yaml:"forum,omitempty" toml:"forum"`
}

//Personal.AI order the ending
