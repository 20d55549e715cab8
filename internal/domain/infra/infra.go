package infra

// EnvironmentType values mirror what deployments record on an environment.
const (
	EnvTypeProd    = "PROD"
	EnvTypeNonProd = "NON_PROD"
)

// Environment is the scope-relevant projection of a deployment environment.
type Environment struct {
	ID    string `json:"id"`
	AppID string `json:"app_id"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type"`
}

// InfraMapping links an environment to the infra definition and service it
// deploys. The scope matcher resolves it to check infra and service
// restrictions.
type InfraMapping struct {
	ID                string `json:"id"`
	AppID             string `json:"app_id"`
	EnvID             string `json:"env_id,omitempty"`
	InfraDefinitionID string `json:"infra_definition_id,omitempty"`
	ServiceID         string `json:"service_id,omitempty"`
}
