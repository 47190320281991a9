package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MetricValue is the canonical JSON object stored for a metric entry.
type MetricValue json.RawMessage

func (v MetricValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

func (v MetricValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return string(v), nil
}

func (v *MetricValue) Scan(src any) error {
	switch b := src.(type) {
	case []byte:
		*v = append(MetricValue(nil), b...)
	case string:
		*v = MetricValue(b)
	case nil:
		*v = nil
	default:
		return fmt.Errorf("cannot scan %T into MetricValue", src)
	}
	return nil
}

// MetricEntry is one measurement of a registered metric type on a date.
type MetricEntry struct {
	ID         int64       `json:"id" db:"id"`
	UserID     int64       `json:"user_id" db:"user_id"`
	MetricType string      `json:"metric_type" db:"metric_type"`
	Date       Date        `json:"date" db:"date"`
	Value      MetricValue `json:"value" db:"value"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

func (m *MetricEntry) OwnerID() int64 { return m.UserID }

type MetricCreate struct {
	MetricType string          `json:"metric_type"`
	Date       string          `json:"date"`
	Value      json.RawMessage `json:"value"`
}

// MetricUpdate changes the value and/or date of an entry. A nil Value is absent.
type MetricUpdate struct {
	Value json.RawMessage `json:"value"`
	Date  *string         `json:"date"`
}

// MetricQuery holds the raw list filters as received.
type MetricQuery struct {
	MetricType string
	DateFrom   string
	DateTo     string
}

// MetricFilter is a parsed MetricQuery scoped to one user.
type MetricFilter struct {
	UserID     int64
	MetricType string
	From       *Date
	To         *Date
}
