package models

import (
	"time"

	"gorm.io/datatypes"
)

type SyntheticDataset struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	Name        string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Description string         `json:"description" gorm:"type:text"`
	Fields      datatypes.JSON `json:"fields" gorm:"type:jsonb"`
	RowCount    int            `json:"rowCount" gorm:"not null;default:100"`
	Format      string         `json:"format" gorm:"type:text;not null;default:'csv'"`
	Status      string         `json:"status" gorm:"type:text;not null;default:'draft';index"`
	StatusError string         `json:"statusError,omitempty" gorm:"type:text"`
	ObjectKey   string         `json:"objectKey,omitempty" gorm:"type:text"`
	ByteSize    int64          `json:"byteSize" gorm:"type:bigint"`
	GeneratedAt *time.Time     `json:"generatedAt,omitempty" gorm:"type:timestamp with time zone"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time      `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}

type QueryLog struct {
	ID         string         `json:"id" gorm:"primaryKey;type:text"`
	Query      string         `json:"query" gorm:"type:text;not null"`
	Summary    string         `json:"summary" gorm:"type:text"`
	MatchCount int            `json:"matchCount"`
	Matches    datatypes.JSON `json:"matches" gorm:"type:jsonb"`
	CDate      time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
