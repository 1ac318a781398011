package core

import "time"

// RunRecord is the persisted form of a RunResults.
type RunRecord struct {
	ID         string      `gorm:"primaryKey;size:36"`
	Queue      string      `gorm:"index;size:255;not null"`
	Status     bool        `gorm:"index;default:false"`
	Early      bool        `gorm:"default:false"`
	Input      []byte      `gorm:"type:bytes"`
	Data       []byte      `gorm:"type:bytes"`
	StartedAt  time.Time   `gorm:"index"`
	FinishedAt time.Time
	CreatedAt  time.Time   `gorm:"autoCreateTime"`
	Jobs       []JobRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default table name.
func (RunRecord) TableName() string { return "queue_runs" }

// JobRecord is the persisted result of one job within a run.
type JobRecord struct {
	ID       string `gorm:"primaryKey;size:36"`
	RunID    string `gorm:"index;size:36;not null"`
	Position int    `gorm:"not null"`
	Name     string `gorm:"size:255;not null"`
	Status   bool   `gorm:"default:false"`
	Msg      string `gorm:"type:text"`
	Data     []byte `gorm:"type:bytes"`
}

// TableName overrides the default table name.
func (JobRecord) TableName() string { return "queue_run_jobs" }
