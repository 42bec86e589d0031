package models

import "time"

// ReportKind enumerates the report families the service can generate.
type ReportKind string

const (
	ReportIrrigation    ReportKind = "irrigation"
	ReportFertilization ReportKind = "fertilization"
	ReportPesticides    ReportKind = "pesticides"
	ReportCompost       ReportKind = "compost"
	ReportAnimals       ReportKind = "animals"
)

// AnimalFilters are the optional remote query filters of an animal report.
type AnimalFilters struct {
	Group  string
	Name   string
	Parcel string
	Status *int
}

// ReportRequest carries everything one report-generation invocation needs.
// Each invocation receives its own copy; nothing is shared between jobs.
type ReportRequest struct {
	ReportID     string
	UserID       string
	Kind         ReportKind
	Token        string
	OperationID  string
	ParcelID     string
	ActivityType string
	FromDate     *time.Time
	ToDate       *time.Time
	Upload       []byte
	Animal       AnimalFilters
}

// JobStatus tracks a report job through the registry.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobRecord is the registry document for one report id. It exists for
// out-of-band observability only; the polling contract never reads it.
type JobRecord struct {
	ReportID  string     `bson:"report_id" json:"report_id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Kind      ReportKind `bson:"kind" json:"kind"`
	Status    JobStatus  `bson:"status" json:"status"`
	Error     string     `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}
