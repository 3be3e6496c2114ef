package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditEvent is an append-only record of who did what. Rows are never
// updated or deleted by request paths; retention cleanup runs in the worker.
type AuditEvent struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	ActorRole  Role            `json:"actor_role" db:"actor_role"`
	ClinicID   uuid.UUID       `json:"clinic_id" db:"clinic_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate     = "create"
	AuditActionRead       = "read"
	AuditActionUpdate     = "update"
	AuditActionTransition = "transition"
	AuditActionFinalize   = "finalize"
	AuditActionCheckIn    = "check_in"
	AuditActionLogin      = "login"

	// Entity types
	AuditEntityUser         = "user"
	AuditEntityPatient      = "patient"
	AuditEntityAppointment  = "appointment"
	AuditEntitySurgicalCase = "surgical_case"
	AuditEntityCasePlan     = "case_plan"
	AuditEntityFormResponse = "form_response"
	AuditEntityAuth         = "auth"
)

type AuditFilter struct {
	ClinicID   uuid.UUID `form:"clinic_id"`
	ActorID    uuid.UUID `form:"actor_id"`
	EntityType string    `form:"entity_type"`
	EntityID   uuid.UUID `form:"entity_id"`
	Action     string    `form:"action"`
	From       time.Time `form:"from" time_format:"2006-01-02"`
	To         time.Time `form:"to" time_format:"2006-01-02"`
	Pagination
}
