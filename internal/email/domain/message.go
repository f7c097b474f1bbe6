package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EmailMessage is a normalized message as returned by a provider gateway.
type EmailMessage struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject"`
	From         string    `json:"from"`
	ReceivedDate time.Time `json:"receivedDate"`
	Preview      string    `json:"preview"`
	Source       string    `json:"source"`
}

// EmailDocument is the persisted form of a fetched message, including its
// embedding once the ingest pipeline has processed it.
type EmailDocument struct {
	ID           string      `gorm:"type:uuid;primaryKey" json:"id"`
	Provider     string      `gorm:"uniqueIndex:idx_provider_email;not null" json:"provider"`
	EmailID      string      `gorm:"uniqueIndex:idx_provider_email;not null" json:"emailId"`
	Subject      string      `json:"subject"`
	From         string      `json:"from"`
	Content      string      `gorm:"type:text" json:"content"`
	ReceivedDate time.Time   `json:"receivedDate"`
	FetchedAt    time.Time   `json:"fetchedAt"`
	AnalyzedAt   *time.Time  `json:"analyzedAt,omitempty"`
	Labels       StringArray `gorm:"type:text" json:"labels"`
	Embedding    FloatVector `gorm:"type:text" json:"-"`
	Similarity   float64     `gorm:"-" json:"similarity,omitempty"`
}

// BatchSummary holds the summary of one batch from a map-reduce analysis.
type BatchSummary struct {
	BatchNumber int         `json:"batchNumber"`
	EmailCount  int         `json:"emailCount"`
	EmailIDs    []string    `json:"emailIds"`
	Summary     string      `json:"summary"`
	Embedding   FloatVector `json:"-"`
}

// AnalysisResult is an append-only record of a completed corpus analysis.
// Batch summaries are stored in full so the record stands alone after the
// underlying documents expire.
type AnalysisResult struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	Provider       string         `gorm:"index;not null" json:"provider"`
	StartDate      time.Time      `json:"startDate"`
	EndDate        time.Time      `json:"endDate"`
	TotalEmails    int            `json:"totalEmails"`
	BatchSummaries BatchSummaries `gorm:"type:text" json:"batchSummaries"`
	FinalSummary   string         `gorm:"type:text" json:"finalSummary"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// StringArray stores a slice of strings as JSON in a text column.
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
}

// FloatVector stores an embedding as JSON in a text column.
type FloatVector []float32

func (f FloatVector) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *FloatVector) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("cannot scan %T into FloatVector", value)
	}
}

// BatchSummaries stores the per-batch summaries of an analysis as JSON.
type BatchSummaries []BatchSummary

func (b BatchSummaries) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *BatchSummaries) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("cannot scan %T into BatchSummaries", value)
	}
}
