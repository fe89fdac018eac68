package models

import (
	"time"

	"gorm.io/datatypes"
)

type QualityRule struct {
	ID       string         `json:"id" gorm:"primaryKey;type:text"`
	Name     string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	FieldID  string         `json:"fieldID" gorm:"type:text;not null;index"`
	Field    CatalogField   `json:"-" gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE;"`
	RuleType string         `json:"ruleType" gorm:"type:text;not null"`
	Config   datatypes.JSON `json:"config" gorm:"type:jsonb"`
	Severity string         `json:"severity" gorm:"type:text;not null;default:'medium'"`
	Enabled  bool           `json:"enabled" gorm:"not null;default:true;index"`
	CDate    time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate    time.Time      `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}

type QualityRun struct {
	ID           string         `json:"id" gorm:"primaryKey;type:text"`
	DataSourceID string         `json:"dataSourceID" gorm:"type:text;not null;index"`
	DataSource   DataSource     `json:"-" gorm:"foreignKey:DataSourceID;constraint:OnDelete:CASCADE;"`
	Score        float64        `json:"score" gorm:"type:double precision"`
	RuleCount    int            `json:"ruleCount"`
	PassedCount  int            `json:"passedCount"`
	SampleSize   int            `json:"sampleSize"`
	Details      datatypes.JSON `json:"details" gorm:"type:jsonb"`
	CDate        time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
