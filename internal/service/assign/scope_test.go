package assign_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	domaininfra "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/infra"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/scope"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
)

func prodScope() *scope.Scope {
	return &scope.Scope{Name: "prod-only", EnvironmentTypes: []string{domaininfra.EnvTypeProd}}
}

func nonProdScope() *scope.Scope {
	return &scope.Scope{Name: "non-prod-only", EnvironmentTypes: []string{domaininfra.EnvTypeNonProd}}
}

func TestCanAssign_ScopeMatrix(t *testing.T) {
	tests := []struct {
		name       string
		include    []*scope.Scope
		exclude    []*scope.Scope
		assignable bool
	}{
		{name: "no scopes", assignable: true},
		{name: "matching include", include: []*scope.Scope{prodScope()}, assignable: true},
		{name: "matching include, non-matching exclude", include: []*scope.Scope{prodScope()}, exclude: []*scope.Scope{nonProdScope()}, assignable: true},
		{name: "exclude overrides include", include: []*scope.Scope{prodScope()}, exclude: []*scope.Scope{prodScope()}, assignable: false},
		{name: "non-matching exclude only", exclude: []*scope.Scope{nonProdScope()}, assignable: true},
		{name: "matching exclude only", exclude: []*scope.Scope{prodScope()}, assignable: false},
		{name: "non-matching include", include: []*scope.Scope{nonProdScope()}, assignable: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, d := newService(t)
			d.envs.Put(domaininfra.Environment{ID: "ENV_ID", AppID: "APP_ID", Type: domaininfra.EnvTypeProd})
			d.delegates.Add(domaindelegate.Delegate{
				ID:            "DELEGATE_ID",
				AccountID:     "ACCOUNT_ID",
				Status:        domaindelegate.StatusEnabled,
				IncludeScopes: tc.include,
				ExcludeScopes: tc.exclude,
			})

			task := domaintask.Task{ID: "task-1", AccountID: "ACCOUNT_ID", AppID: "APP_ID", EnvID: "ENV_ID"}
			batch := svc.NewBatch(task)

			got, err := svc.CanAssign(context.Background(), batch, "DELEGATE_ID", task)
			require.NoError(t, err)
			assert.Equal(t, tc.assignable, got)
		})
	}
}

func TestCanAssign_NilScopeEntriesTolerated(t *testing.T) {
	svc, d := newService(t)
	d.envs.Put(domaininfra.Environment{ID: "ENV_ID", AppID: "APP_ID", Type: domaininfra.EnvTypeProd})
	d.delegates.Add(domaindelegate.Delegate{
		ID:            "DELEGATE_ID",
		AccountID:     "ACCOUNT_ID",
		Status:        domaindelegate.StatusEnabled,
		IncludeScopes: []*scope.Scope{nil, prodScope()},
		ExcludeScopes: []*scope.Scope{nil},
	})

	task := domaintask.Task{ID: "task-1", AccountID: "ACCOUNT_ID", AppID: "APP_ID", EnvID: "ENV_ID"}

	got, err := svc.CanAssign(context.Background(), svc.NewBatch(task), "DELEGATE_ID", task)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestScopeMatch_EmptyScopeMatchesEverything(t *testing.T) {
	svc, _ := newService(t)

	got, err := svc.ScopeMatch(context.Background(), &scope.Scope{Name: "anything"}, "app", "env", "im", "HTTP", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestScopeMatch_NilScopeIsConfigurationError(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ScopeMatch(context.Background(), nil, "app", "env", "", "", "ACCOUNT_ID")
	require.Error(t, err)
	assert.True(t, errors.Is(err, scope.ErrInvalid))
}

func TestScopeMatch_Wildcard(t *testing.T) {
	svc, _ := newService(t)

	appScope := &scope.Scope{Name: "one-app", Applications: []string{"APPLICATION_ID"}}
	got, err := svc.ScopeMatch(context.Background(), appScope, domaintask.ScopeWildcard, "ENV_ID", "", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got, "wildcard appId must pass an application restriction")

	envScope := &scope.Scope{Name: "one-env", Environments: []string{"ENVIRONMENT_ID"}}
	got, err = svc.ScopeMatch(context.Background(), envScope, "APP_ID", domaintask.ScopeWildcard, "", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got, "wildcard envId must pass an environment restriction")
}

func TestScopeMatch_TaskGroup(t *testing.T) {
	svc, _ := newService(t)
	sc := &scope.Scope{Name: "http-only", TaskGroups: []string{"HTTP"}}

	got, err := svc.ScopeMatch(context.Background(), sc, "", "", "", "HTTP", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = svc.ScopeMatch(context.Background(), sc, "", "", "", "JENKINS", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestScopeMatch_EnvironmentTypeNeedsResolvableEnvironment(t *testing.T) {
	svc, d := newService(t)
	sc := prodScope()

	// No appId/envId on the task: the restriction cannot hold.
	got, err := svc.ScopeMatch(context.Background(), sc, "", "", "", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.False(t, got)

	// Unknown environment: mismatch, not an error.
	got, err = svc.ScopeMatch(context.Background(), sc, "APP_ID", "MISSING_ENV", "", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.False(t, got)

	d.envs.Put(domaininfra.Environment{ID: "ENV_ID", AppID: "APP_ID", Type: domaininfra.EnvTypeProd})
	got, err = svc.ScopeMatch(context.Background(), sc, "APP_ID", "ENV_ID", "", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestScopeMatch_InfraRestrictions(t *testing.T) {
	svc, d := newService(t)
	d.infra.Put(domaininfra.InfraMapping{
		ID:                "INFRA_MAPPING_ID",
		AppID:             "APP_ID",
		InfraDefinitionID: "INFRA_DEFINITION_ID",
		ServiceID:         "SERVICE_ID",
	})

	sc := &scope.Scope{
		Name:             "one-service",
		InfraDefinitions: []string{"INFRA_DEFINITION_ID"},
		Services:         []string{"SERVICE_ID"},
	}

	got, err := svc.ScopeMatch(context.Background(), sc, "APP_ID", "", "INFRA_MAPPING_ID", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got)

	// An unresolvable mapping is a hard mismatch.
	got, err = svc.ScopeMatch(context.Background(), sc, "APP_ID", "", "WRONG_INFRA_MAPPING_ID", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.False(t, got)

	// Mapping resolves but the service is not in the allowed set.
	other := &scope.Scope{Name: "other-service", Services: []string{"OTHER_SERVICE_ID"}}
	got, err = svc.ScopeMatch(context.Background(), other, "APP_ID", "", "INFRA_MAPPING_ID", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestScopeMatch_ServiceInfrastructures(t *testing.T) {
	svc, _ := newService(t)
	sc := &scope.Scope{Name: "raw-infra", ServiceInfrastructures: []string{"INFRA_MAPPING_ID"}}

	got, err := svc.ScopeMatch(context.Background(), sc, "APP_ID", "", "INFRA_MAPPING_ID", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = svc.ScopeMatch(context.Background(), sc, "APP_ID", "", "OTHER_ID", "", "ACCOUNT_ID")
	require.NoError(t, err)
	assert.False(t, got)
}
