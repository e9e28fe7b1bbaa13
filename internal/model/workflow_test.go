package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialZoneStatus(t *testing.T) {
	assert.Equal(t, ZonePending, InitialZoneStatus(RoleUser))
	assert.Equal(t, ZoneApproved, InitialZoneStatus(RoleAdmin))
	assert.Equal(t, ZoneApproved, InitialZoneStatus(RoleCreator))
}

func TestModerate(t *testing.T) {
	assert.NoError(t, Moderate(RoleAdmin, ZonePending, ZoneApproved))
	assert.NoError(t, Moderate(RoleCreator, ZonePending, ZoneRejected))
	assert.ErrorIs(t, Moderate(RoleUser, ZonePending, ZoneApproved), ErrNotPermitted)

	// moderation is one-way
	assert.ErrorIs(t, Moderate(RoleAdmin, ZoneApproved, ZonePending), ErrInvalidTransition)
	assert.ErrorIs(t, Moderate(RoleAdmin, ZoneRejected, ZoneApproved), ErrInvalidTransition)
	assert.ErrorIs(t, Moderate(RoleAdmin, ZoneApproved, ZoneRejected), ErrInvalidTransition)
}

func TestCanSetTaskStatus(t *testing.T) {
	tests := []struct {
		name  string
		actor Role
		from  TaskStatus
		to    TaskStatus
		err   error
	}{
		{"UserRequestsVerification", RoleUser, TaskInProgress, TaskVerificationRequested, nil},
		{"UserCannotComplete", RoleUser, TaskVerificationRequested, TaskCompleted, ErrNotPermitted},
		{"UserCannotStart", RoleUser, TaskPending, TaskInProgress, ErrNotPermitted},
		{"UserCannotReopen", RoleUser, TaskCompleted, TaskPending, ErrNotPermitted},
		{"AdminJumpsToCompleted", RoleAdmin, TaskPending, TaskCompleted, nil},
		{"AdminReopens", RoleAdmin, TaskCompleted, TaskPending, nil},
		{"CreatorStarts", RoleCreator, TaskPending, TaskInProgress, nil},
		{"UnknownTarget", RoleAdmin, TaskPending, TaskStatus("archived"), ErrUnknownStatus},
		{"AnonymousDenied", Role(""), TaskPending, TaskVerificationRequested, ErrNotPermitted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanSetTaskStatus(tt.actor, tt.from, tt.to)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	assert.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestHealthCategory(t *testing.T) {
	assert.Equal(t, HealthExcellent, HealthCategory(80))
	assert.Equal(t, HealthGood, HealthCategory(79.9))
	assert.Equal(t, HealthGood, HealthCategory(60))
	assert.Equal(t, HealthFair, HealthCategory(40))
	assert.Equal(t, HealthPoor, HealthCategory(39))
}

func TestTransitionsTargetsIsCopy(t *testing.T) {
	targets := ZoneTransitions.Targets(ZonePending)
	targets[0] = ZoneRejected
	assert.Equal(t, ZoneApproved, ZoneTransitions[ZonePending][0])
}
