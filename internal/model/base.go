package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// DateRange bounds read-model queries
type DateRange struct {
	From time.Time `json:"from" form:"from" time_format:"2006-01-02"`
	To   time.Time `json:"to" form:"to" time_format:"2006-01-02"`
}

// JSONMap maps a postgres jsonb column onto a generic JSON object.
// Scan and Value live in types.go.
type JSONMap map[string]interface{}
