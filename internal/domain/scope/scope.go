package scope

import "errors"

// ErrInvalid signals a structurally broken scope reference. It indicates
// operator misconfiguration and is surfaced to the caller rather than masked.
var ErrInvalid = errors.New("scope: invalid delegate scope")

// Scope is a named predicate restricting which (app, env, infra, task-group)
// combinations a delegate may serve. A scope with every predicate field empty
// matches everything.
type Scope struct {
	Name                   string   `json:"name"`
	EnvironmentTypes       []string `json:"environment_types,omitempty"`
	TaskGroups             []string `json:"task_groups,omitempty"`
	Applications           []string `json:"applications,omitempty"`
	Environments           []string `json:"environments,omitempty"`
	InfraDefinitions       []string `json:"infra_definitions,omitempty"`
	Services               []string `json:"services,omitempty"`
	ServiceInfrastructures []string `json:"service_infrastructures,omitempty"`
}

// IsEmpty reports whether no predicate field is populated.
func (s *Scope) IsEmpty() bool {
	return len(s.EnvironmentTypes) == 0 &&
		len(s.TaskGroups) == 0 &&
		len(s.Applications) == 0 &&
		len(s.Environments) == 0 &&
		len(s.InfraDefinitions) == 0 &&
		len(s.Services) == 0 &&
		len(s.ServiceInfrastructures) == 0
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// RestrictsEnvironmentTypes and friends exist so the matcher reads as the
// evaluation order it implements.
func (s *Scope) RestrictsEnvironmentTypes() bool { return len(s.EnvironmentTypes) > 0 }
func (s *Scope) RestrictsTaskGroups() bool       { return len(s.TaskGroups) > 0 }
func (s *Scope) RestrictsApplications() bool     { return len(s.Applications) > 0 }
func (s *Scope) RestrictsEnvironments() bool     { return len(s.Environments) > 0 }
func (s *Scope) RestrictsInfra() bool {
	return len(s.InfraDefinitions) > 0 || len(s.Services) > 0
}
func (s *Scope) RestrictsServiceInfrastructures() bool { return len(s.ServiceInfrastructures) > 0 }

func (s *Scope) AllowsEnvironmentType(envType string) bool {
	return contains(s.EnvironmentTypes, envType)
}
func (s *Scope) AllowsTaskGroup(group string) bool { return contains(s.TaskGroups, group) }
func (s *Scope) AllowsApplication(appID string) bool {
	return contains(s.Applications, appID)
}
func (s *Scope) AllowsEnvironment(envID string) bool { return contains(s.Environments, envID) }
func (s *Scope) AllowsInfraDefinition(id string) bool {
	return len(s.InfraDefinitions) == 0 || contains(s.InfraDefinitions, id)
}
func (s *Scope) AllowsService(id string) bool {
	return len(s.Services) == 0 || contains(s.Services, id)
}
func (s *Scope) AllowsServiceInfrastructure(infraMappingID string) bool {
	return contains(s.ServiceInfrastructures, infraMappingID)
}
