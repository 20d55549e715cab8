package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domainconn "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/connection"
	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	domaininfra "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/infra"
	domainprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/profile"
	portconnection "github.com/vigneswara-propelo/harness-core-sub004/internal/port/connection"
	portdelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/port/delegate"
	portinfra "github.com/vigneswara-propelo/harness-core-sub004/internal/port/infra"
	portprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/port/profile"
)

// StubDelegateStore is an in-memory DelegateStore test-double. Roster loads
// are counted so cache behavior can be asserted.
type StubDelegateStore struct {
	mu          sync.Mutex
	Delegates   map[string]domaindelegate.Delegate
	RosterByAcc map[string][]domaindelegate.RosterEntry
	RosterErr   error
	GetErr      error
	rosterCalls int
}

func NewStubDelegateStore() *StubDelegateStore {
	return &StubDelegateStore{
		Delegates:   make(map[string]domaindelegate.Delegate),
		RosterByAcc: make(map[string][]domaindelegate.RosterEntry),
	}
}

// Add registers the delegate and mirrors it into the account roster.
func (s *StubDelegateStore) Add(d domaindelegate.Delegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delegates[d.ID] = d
	s.RosterByAcc[d.AccountID] = append(s.RosterByAcc[d.AccountID], domaindelegate.RosterEntry{
		ID:            d.ID,
		Status:        d.Status,
		LastHeartbeat: d.LastHeartbeat,
		GroupName:     d.GroupName,
	})
}

func (s *StubDelegateStore) Get(_ context.Context, accountID, delegateID string) (domaindelegate.Delegate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return domaindelegate.Delegate{}, s.GetErr
	}
	d, ok := s.Delegates[delegateID]
	if !ok || d.AccountID != accountID {
		return domaindelegate.Delegate{}, portdelegate.ErrNotFound
	}
	return d, nil
}

func (s *StubDelegateStore) Roster(_ context.Context, accountID string) ([]domaindelegate.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosterCalls++
	if s.RosterErr != nil {
		return nil, s.RosterErr
	}
	return s.RosterByAcc[accountID], nil
}

func (s *StubDelegateStore) Selectors(_ context.Context, d domaindelegate.Delegate) ([]string, error) {
	out := append([]string(nil), d.Selectors...)
	if d.HostName != "" {
		out = append(out, strings.ToLower(d.HostName))
	}
	if d.GroupName != "" {
		out = append(out, strings.ToLower(d.GroupName))
	}
	return out, nil
}

// RosterCalls reports how many times Roster was loaded.
func (s *StubDelegateStore) RosterCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterCalls
}

// StubEnvironmentStore serves environments keyed by (appId, envId).
type StubEnvironmentStore struct {
	Environments map[string]domaininfra.Environment
	Err          error
}

func NewStubEnvironmentStore() *StubEnvironmentStore {
	return &StubEnvironmentStore{Environments: make(map[string]domaininfra.Environment)}
}

func (s *StubEnvironmentStore) Put(env domaininfra.Environment) {
	s.Environments[env.AppID+"/"+env.ID] = env
}

func (s *StubEnvironmentStore) Get(_ context.Context, appID, envID string) (domaininfra.Environment, error) {
	if s.Err != nil {
		return domaininfra.Environment{}, s.Err
	}
	env, ok := s.Environments[appID+"/"+envID]
	if !ok {
		return domaininfra.Environment{}, portinfra.ErrNotFound
	}
	return env, nil
}

// StubInfraMappingStore serves infra mappings keyed by (appId, infraMappingId).
type StubInfraMappingStore struct {
	Mappings map[string]domaininfra.InfraMapping
	Err      error
}

func NewStubInfraMappingStore() *StubInfraMappingStore {
	return &StubInfraMappingStore{Mappings: make(map[string]domaininfra.InfraMapping)}
}

func (s *StubInfraMappingStore) Put(m domaininfra.InfraMapping) {
	s.Mappings[m.AppID+"/"+m.ID] = m
}

func (s *StubInfraMappingStore) Get(_ context.Context, appID, infraMappingID string) (domaininfra.InfraMapping, error) {
	if s.Err != nil {
		return domaininfra.InfraMapping{}, s.Err
	}
	m, ok := s.Mappings[appID+"/"+infraMappingID]
	if !ok {
		return domaininfra.InfraMapping{}, portinfra.ErrNotFound
	}
	return m, nil
}

// StubProfileStore serves profiles by id.
type StubProfileStore struct {
	Profiles map[string]domainprofile.Profile
	Err      error
}

func NewStubProfileStore() *StubProfileStore {
	return &StubProfileStore{Profiles: make(map[string]domainprofile.Profile)}
}

func (s *StubProfileStore) Get(_ context.Context, profileID string) (domainprofile.Profile, error) {
	if s.Err != nil {
		return domainprofile.Profile{}, s.Err
	}
	p, ok := s.Profiles[profileID]
	if !ok {
		return domainprofile.Profile{}, portprofile.ErrNotFound
	}
	return p, nil
}

// StubConnectionStore is an in-memory ConnectionResultStore that records
// touches and deletes for assertions.
type StubConnectionStore struct {
	mu      sync.Mutex
	Results map[string]domainconn.Result
	FindErr error
	Touched []string
	Deleted []string
}

func NewStubConnectionStore() *StubConnectionStore {
	return &StubConnectionStore{Results: make(map[string]domainconn.Result)}
}

func resultKey(delegateID, criteria string) string {
	return delegateID + "|" + criteria
}

func (s *StubConnectionStore) Put(r domainconn.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results[resultKey(r.DelegateID, r.Criteria)] = r
}

func (s *StubConnectionStore) Find(_ context.Context, delegateID, criteria string) (domainconn.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return domainconn.Result{}, s.FindErr
	}
	r, ok := s.Results[resultKey(delegateID, criteria)]
	if !ok {
		return domainconn.Result{}, portconnection.ErrNotFound
	}
	return r, nil
}

func (s *StubConnectionStore) Insert(_ context.Context, r domainconn.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resultKey(r.DelegateID, r.Criteria)
	if _, exists := s.Results[key]; exists {
		return portconnection.ErrDuplicate
	}
	s.Results[key] = r
	return nil
}

func (s *StubConnectionStore) SetValidity(_ context.Context, delegateID, criteria string, validated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resultKey(delegateID, criteria)
	r, ok := s.Results[key]
	if !ok {
		return fmt.Errorf("no result for %s", key)
	}
	r.Validated = validated
	s.Results[key] = r
	return nil
}

func (s *StubConnectionStore) Touch(_ context.Context, delegateID, criteria string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := resultKey(delegateID, criteria)
	r, ok := s.Results[key]
	if !ok {
		return fmt.Errorf("no result for %s", key)
	}
	r.LastUpdatedAt = at.UnixMilli()
	s.Results[key] = r
	s.Touched = append(s.Touched, key)
	return nil
}

func (s *StubConnectionStore) BulkDelete(_ context.Context, accountID, delegateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, r := range s.Results {
		if r.AccountID != accountID {
			continue
		}
		if delegateID != "" && r.DelegateID != delegateID {
			continue
		}
		delete(s.Results, key)
		s.Deleted = append(s.Deleted, key)
	}
	return nil
}

// TouchCount reports how many timestamp bumps were persisted.
func (s *StubConnectionStore) TouchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Touched)
}

// Result returns the stored result for the key, for assertions.
func (s *StubConnectionStore) Result(delegateID, criteria string) (domainconn.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Results[resultKey(delegateID, criteria)]
	return r, ok
}

// FixedRand returns a fixed value, making first-attempt selection
// deterministic in tests.
type FixedRand struct{ Value int }

func (f FixedRand) Intn(n int) (int, error) {
	if f.Value >= n {
		return n - 1, nil
	}
	return f.Value, nil
}
