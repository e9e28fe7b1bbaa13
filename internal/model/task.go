package model

import "time"

// TaskStatus is the lifecycle state of a maintenance task.
type TaskStatus string

const (
	TaskPending               TaskStatus = "pending"
	TaskInProgress            TaskStatus = "in_progress"
	TaskVerificationRequested TaskStatus = "verification_requested"
	TaskCompleted             TaskStatus = "completed"
)

var allTaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskVerificationRequested, TaskCompleted}

// TaskTransitions is permissive: moderators may jump between any states,
// e.g. pending -> completed. Access is narrowed by TaskTargetRole.
var TaskTransitions = Transitions[TaskStatus]{
	TaskPending:               allTaskStatuses,
	TaskInProgress:            allTaskStatuses,
	TaskVerificationRequested: allTaskStatuses,
	TaskCompleted:             allTaskStatuses,
}

// TaskTargetRole is the minimum role allowed to put a task into a status.
var TaskTargetRole = map[TaskStatus]Role{
	TaskVerificationRequested: RoleUser,
	TaskPending:               RoleAdmin,
	TaskInProgress:            RoleAdmin,
	TaskCompleted:             RoleAdmin,
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range allTaskStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStatus
}

// CanSetTaskStatus combines the transition table with the role gate.
func CanSetTaskStatus(actor Role, from, to TaskStatus) error {
	min, ok := TaskTargetRole[to]
	if !ok {
		return ErrUnknownStatus
	}
	if !actor.AtLeast(min) {
		return ErrNotPermitted
	}
	if !TaskTransitions.Allows(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// Priority of a maintenance task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts low/medium/high; empty means medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", ErrUnknownStatus
}

// Task is a row of maintenance_tasks joined with display names.
type Task struct {
	ID                        uint64     `json:"id"`
	ZoneID                    uint64     `json:"zone_id"`
	ZoneName                  string     `json:"zone_name,omitempty"`
	CityID                    uint64     `json:"city_id"`
	CityName                  string     `json:"city_name,omitempty"`
	TaskType                  string     `json:"task_type"`
	Status                    TaskStatus `json:"status"`
	Priority                  Priority   `json:"priority"`
	Description               *string    `json:"description,omitempty"`
	CreatedBy                 *uint64    `json:"created_by,omitempty"`
	CreatorName               string     `json:"creator_name,omitempty"`
	AssignedOrganization      *uint64    `json:"assigned_organization,omitempty"`
	OrganizationName          string     `json:"organization_name,omitempty"`
	DueDate                   *time.Time `json:"due_date,omitempty"`
	CompletedDate             *time.Time `json:"completed_date,omitempty"`
	CompletedBy               *uint64    `json:"completed_by,omitempty"`
	VerificationRequestedBy   *uint64    `json:"verification_requested_by,omitempty"`
	VerificationRequesterName string     `json:"verification_requester_name,omitempty"`
	VerificationRequestedDate *time.Time `json:"verification_requested_date,omitempty"`
	CreatedDate               time.Time  `json:"created_date"`
}
