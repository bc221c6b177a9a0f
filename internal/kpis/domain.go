package kpis

import (
	"time"

	"github.com/google/uuid"
)

// Kpi is a named reporting snapshot.
type Kpi struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}
