package assign_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
)

func selectorTask(selectors ...string) domaintask.Task {
	return domaintask.Task{
		ID:        "task-1",
		AccountID: "acct",
		Capabilities: []domaintask.Capability{{
			Kind:           domaintask.KindSelector,
			Selectors:      selectors,
			SelectorOrigin: "TASK_SELECTORS",
		}},
	}
}

func taggedDelegate(id string, selectors ...string) domaindelegate.Delegate {
	return domaindelegate.Delegate{
		ID:            id,
		AccountID:     "acct",
		Status:        domaindelegate.StatusEnabled,
		LastHeartbeat: time.Now().UnixMilli(),
		Selectors:     selectors,
	}
}

func TestCanAssign_Selectors(t *testing.T) {
	tests := []struct {
		name       string
		advertised []string
		required   []string
		assignable bool
	}{
		{name: "exact match", advertised: []string{"linux"}, required: []string{"linux"}, assignable: true},
		{name: "case and whitespace insensitive", advertised: []string{"Linux"}, required: []string{" LINUX "}, assignable: true},
		{name: "all required must be present", advertised: []string{"linux"}, required: []string{"linux", "gpu"}, assignable: false},
		{name: "superset advertised", advertised: []string{"linux", "gpu", "west"}, required: []string{"gpu"}, assignable: true},
		{name: "miss", advertised: []string{"windows"}, required: []string{"linux"}, assignable: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, d := newService(t)
			d.delegates.Add(taggedDelegate("d1", tc.advertised...))

			task := selectorTask(tc.required...)
			batch := svc.NewBatch(task)

			got, err := svc.CanAssign(context.Background(), batch, "d1", task)
			require.NoError(t, err)
			assert.Equal(t, tc.assignable, got)
		})
	}
}

func TestCanAssign_HostAndGroupNamesAreImplicitSelectors(t *testing.T) {
	svc, d := newService(t)
	d.delegates.Add(domaindelegate.Delegate{
		ID:            "d1",
		AccountID:     "acct",
		HostName:      "Worker-7.example.com",
		GroupName:     "Pool-A",
		Status:        domaindelegate.StatusEnabled,
		LastHeartbeat: time.Now().UnixMilli(),
	})

	task := selectorTask("worker-7.example.com", "pool-a")

	got, err := svc.CanAssign(context.Background(), svc.NewBatch(task), "d1", task)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCanAssign_NoAdvertisedSelectors(t *testing.T) {
	svc, d := newService(t)
	d.delegates.Add(taggedDelegate("d1"))

	task := selectorTask("linux")
	batch := svc.NewBatch(task)

	got, err := svc.CanAssign(context.Background(), batch, "d1", task)
	require.NoError(t, err)
	assert.False(t, got)
	require.Len(t, batch.Entries, 1)
	assert.Equal(t, selection.ConclusionMissingAllSelectors, batch.Entries[0].Conclusion)
}

func TestCanAssign_EveryMissIsLogged(t *testing.T) {
	svc, d := newService(t)
	d.delegates.Add(taggedDelegate("d1", "linux"))

	task := selectorTask("gpu", "west")
	batch := svc.NewBatch(task)

	// Evaluation does not stop at the first miss; both are recorded.
	got, err := svc.CanAssign(context.Background(), batch, "d1", task)
	require.NoError(t, err)
	assert.False(t, got)
	require.Len(t, batch.Entries, 2)
	for _, entry := range batch.Entries {
		assert.Equal(t, selection.ConclusionMissingSelector, entry.Conclusion)
	}
}
