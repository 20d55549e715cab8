package assign_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/service/assign"
)

func TestAssignmentErrorMessage_NoActiveDelegates(t *testing.T) {
	svc, _ := newService(t)
	task := httpTask("task-1", "acct", "https://one.example.com")

	got := svc.ActiveDelegateAssignmentErrorMessage(context.Background(), assign.ReasonDelegateTimeout, task)
	assert.Equal(t, "There were no active delegates to complete the task.", got)
}

func TestAssignmentErrorMessage_MissingCapabilities(t *testing.T) {
	svc, d := newService(t)
	d.delegates.Add(activeDelegate("d1", "acct"))
	task := httpTask("task-1", "acct", "https://one.example.com", "https://two.example.com")

	failed := validResult("acct", "d1", "https://one.example.com", time.Minute)
	failed.Validated = false
	d.conns.Put(failed)

	got := svc.ActiveDelegateAssignmentErrorMessage(context.Background(), assign.ReasonNoEligible, task)
	assert.Equal(t,
		"None of the active delegates were eligible to complete the task.\n\n"+
			" ===> d1.example.com: \"Missing Capabilities: [https://one.example.com]\"\n",
		got)
}

func TestAssignmentErrorMessage_UnknownError(t *testing.T) {
	svc, d := newService(t)
	d.delegates.Add(activeDelegate("d1", "acct"))
	task := httpTask("task-1", "acct", "https://one.example.com")
	d.conns.Put(validResult("acct", "d1", "https://one.example.com", time.Minute))

	got := svc.ActiveDelegateAssignmentErrorMessage(context.Background(), assign.ReasonNoEligible, task)
	assert.Equal(t,
		"None of the active delegates were eligible to complete the task.\n\n"+
			" ===> d1.example.com: Unknown error\n",
		got)
}

func TestAssignmentErrorMessage_PrefersSelectionLogs(t *testing.T) {
	svc, d := newService(t)
	d.sink.TaskLogs = []selection.Params{{
		DelegateID:     "d1",
		DelegateName:   "delegate-one",
		HostName:       "d1.example.com",
		ProfileName:    "default",
		Conclusion:     string(selection.ConclusionMissingSelector),
		Message:        "gpu (TASK_SELECTORS)",
		EventTimestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	}}
	task := httpTask("task-1", "acct", "https://one.example.com")

	got := svc.ActiveDelegateAssignmentErrorMessage(context.Background(), assign.ReasonNoEligible, task)
	assert.Contains(t, got, "delegate id: d1")
	assert.Contains(t, got, "conclusion: MISSING_SELECTOR")
	assert.Contains(t, got, "message: gpu (TASK_SELECTORS)")
}

func TestAssignmentErrorMessage_ExpiredIgnoresSelectionLogs(t *testing.T) {
	svc, d := newService(t)
	d.sink.TaskLogs = []selection.Params{{DelegateID: "d1", Conclusion: string(selection.ConclusionMissingSelector)}}
	task := httpTask("task-1", "acct", "https://one.example.com")

	got := svc.ActiveDelegateAssignmentErrorMessage(context.Background(), assign.ReasonExpired, task)
	assert.Equal(t, "There were no active delegates to complete the task.", got)
}
