package task

import "strings"

// ScopeWildcard in a task's appId or envId means "any" and passes the
// corresponding scope restriction without a lookup.
const ScopeWildcard = "*"

// Setup-metadata field names. Legacy tasks may carry envId where envType is
// expected, or infrastructureMappingId where serviceId is expected; the
// profile matcher resolves those through documented workarounds.
const (
	FieldAppID          = "appId"
	FieldEnvID          = "envId"
	FieldEnvType        = "envType"
	FieldServiceID      = "serviceId"
	FieldInfraMappingID = "infrastructureMappingId"
)

type CapabilityKind string

const (
	KindSelector       CapabilityKind = "SELECTOR"
	KindHTTPConnection CapabilityKind = "HTTP_CONNECTION"
	KindGeneric        CapabilityKind = "GENERIC"
)

// EvaluationMode declares whether a capability must be probed on the agent or
// is decidable by the control plane alone.
type EvaluationMode string

const (
	ModeAgent  EvaluationMode = "AGENT"
	ModeDirect EvaluationMode = "DIRECT"
)

// Capability is a tagged variant over the capability kinds a task may declare.
// Basis carries the criteria string for agent-probed kinds; Selectors and
// SelectorOrigin are populated only for KindSelector.
type Capability struct {
	Kind           CapabilityKind `json:"kind"`
	Mode           EvaluationMode `json:"mode"`
	Basis          string         `json:"basis,omitempty"`
	Selectors      []string       `json:"selectors,omitempty"`
	SelectorOrigin string         `json:"selector_origin,omitempty"`
}

// Task carries the eligibility inputs for one unit of work.
type Task struct {
	ID                      string            `json:"id"`
	AccountID               string            `json:"account_id"`
	AppID                   string            `json:"app_id,omitempty"`
	EnvID                   string            `json:"env_id,omitempty"`
	InfraMappingID          string            `json:"infra_mapping_id,omitempty"`
	TaskGroup               string            `json:"task_group,omitempty"`
	Capabilities            []Capability      `json:"capabilities,omitempty"`
	Tags                    []string          `json:"tags,omitempty"`
	SetupMetadata           map[string]string `json:"setup_metadata,omitempty"`
	MustExecuteOnDelegateID string            `json:"must_execute_on_delegate_id,omitempty"`
}

// Criteria returns the non-blank probe bases of every agent-evaluated
// capability, in declaration order.
func (t Task) Criteria() []string {
	var out []string
	for _, c := range t.Capabilities {
		if c.Mode != ModeAgent {
			continue
		}
		if strings.TrimSpace(c.Basis) == "" {
			continue
		}
		out = append(out, c.Basis)
	}
	return out
}

// SelectorCapabilities returns the selector-kind entries of the capability list.
func (t Task) SelectorCapabilities() []Capability {
	var out []Capability
	for _, c := range t.Capabilities {
		if c.Kind == KindSelector {
			out = append(out, c)
		}
	}
	return out
}
