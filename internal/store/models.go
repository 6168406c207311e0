package store

import "time"

type User struct {
	ID        string
	Name      string
	IsAdmin   bool
	CreatedAt time.Time
}

type Project struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Task struct {
	ID        string
	UserID    string
	ProjectID string
	Name      string
	CreatedAt time.Time
}

// EntryKind discriminates the work entry sum type.
type EntryKind string

const (
	KindHourly EntryKind = "hourly"
	KindPanels EntryKind = "panels"
)

// EntryMeta holds the fields shared by every work entry kind.
type EntryMeta struct {
	ID        string
	UserID    string
	ProjectID string
	TaskID    *string
	Notes     string
	CreatedAt time.Time
}

// WorkEntry is a sealed sum of TimeEntry and PanelEntry. Consumers are
// expected to type-switch on the concrete type for kind-specific fields.
type WorkEntry interface {
	Kind() EntryKind
	Meta() EntryMeta
	// When returns the instant used to order entries in history views.
	When() time.Time
	sealed()
}

// TimeEntry is a completed timed session.
type TimeEntry struct {
	EntryMeta
	StartTime time.Time
	EndTime   time.Time
	Duration  int64 // seconds
}

func (TimeEntry) Kind() EntryKind   { return KindHourly }
func (e TimeEntry) Meta() EntryMeta { return e.EntryMeta }
func (e TimeEntry) When() time.Time { return e.StartTime }
func (TimeEntry) sealed()           {}

// PanelEntry is a completed piece-work log: units installed on a given day.
type PanelEntry struct {
	EntryMeta
	Date  time.Time
	Count int
}

func (PanelEntry) Kind() EntryKind   { return KindPanels }
func (e PanelEntry) Meta() EntryMeta { return e.EntryMeta }
func (e PanelEntry) When() time.Time { return e.Date }
func (PanelEntry) sealed()           {}

// EntryFilter is used to filter work entries in queries.
type EntryFilter struct {
	ProjectID *string
	TaskID    *string
	Kind      *EntryKind
	From      *time.Time
	To        *time.Time
	Limit     int
}

// DailySummary represents aggregated time per project per day.
type DailySummary struct {
	Date         string
	ProjectID    string
	ProjectName  string
	ProjectColor string
	TotalSeconds int64
	EntryCount   int
}

// Settings are the per-user billing configuration.
type Settings struct {
	HourlyRate float64
	PanelRate  float64
	Currency   string
}

const (
	DefaultHourlyRate = 200
	DefaultPanelRate  = 35
	DefaultCurrency   = "CZK"
)
