package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusCheckedIn, true},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusScheduled, AppointmentStatusNoShow, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, false},
		{AppointmentStatusCheckedIn, AppointmentStatusInProgress, true},
		{AppointmentStatusCheckedIn, AppointmentStatusCancelled, true},
		{AppointmentStatusCheckedIn, AppointmentStatusNoShow, false},
		{AppointmentStatusInProgress, AppointmentStatusCompleted, true},
		{AppointmentStatusInProgress, AppointmentStatusCancelled, false},
		{AppointmentStatusCompleted, AppointmentStatusScheduled, false},
		{AppointmentStatusCancelled, AppointmentStatusScheduled, false},
		{AppointmentStatusNoShow, AppointmentStatusCheckedIn, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestAppointmentTerminalStates(t *testing.T) {
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
	assert.True(t, AppointmentStatusNoShow.Terminal())
	assert.False(t, AppointmentStatusScheduled.Terminal())
	assert.False(t, AppointmentStatusCheckedIn.Terminal())
	assert.False(t, AppointmentStatusInProgress.Terminal())
}

func TestSurgicalCaseTransitionsAreOneDirectional(t *testing.T) {
	order := []SurgicalCaseStatus{
		SurgicalCaseStatusDraft,
		SurgicalCaseStatusPlanning,
		SurgicalCaseStatusScheduled,
		SurgicalCaseStatusInTheater,
		SurgicalCaseStatusRecovery,
		SurgicalCaseStatusCompleted,
	}

	// Each stage reaches only the next one, never an earlier one.
	for i, from := range order[:len(order)-1] {
		assert.True(t, from.CanTransitionTo(order[i+1]), "%s -> %s", from, order[i+1])
		for _, earlier := range order[:i+1] {
			assert.False(t, from.CanTransitionTo(earlier), "%s -> %s must be blocked", from, earlier)
		}
		for _, later := range order[i+2:] {
			assert.False(t, from.CanTransitionTo(later), "%s -> %s must not skip stages", from, later)
		}
	}
}

func TestSurgicalCaseCancellation(t *testing.T) {
	nonTerminal := []SurgicalCaseStatus{
		SurgicalCaseStatusDraft,
		SurgicalCaseStatusPlanning,
		SurgicalCaseStatusScheduled,
		SurgicalCaseStatusInTheater,
		SurgicalCaseStatusRecovery,
	}
	for _, from := range nonTerminal {
		assert.True(t, from.CanTransitionTo(SurgicalCaseStatusCancelled), "%s must be cancellable", from)
	}

	assert.True(t, SurgicalCaseStatusCompleted.Terminal())
	assert.True(t, SurgicalCaseStatusCancelled.Terminal())
	assert.False(t, SurgicalCaseStatusCompleted.CanTransitionTo(SurgicalCaseStatusCancelled))
	assert.False(t, SurgicalCaseStatusCancelled.CanTransitionTo(SurgicalCaseStatusDraft))
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, RoleSurgeon.Valid())
	assert.False(t, Role("janitor").Valid())

	assert.True(t, RoleNurse.In(RoleDoctor, RoleNurse))
	assert.False(t, RolePatient.In(RoleDoctor, RoleNurse))
	assert.False(t, RoleAdmin.In())
}
