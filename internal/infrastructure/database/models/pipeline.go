package models

import (
	"time"

	"gorm.io/datatypes"
)

type Pipeline struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	Name        string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Description string         `json:"description" gorm:"type:text"`
	Stages      datatypes.JSON `json:"stages" gorm:"type:jsonb"`
	Status      string         `json:"status" gorm:"type:text;not null;default:'draft';index"`
	StatusError string         `json:"statusError,omitempty" gorm:"type:text"`
	LastRunAt   *time.Time     `json:"lastRunAt,omitempty" gorm:"type:timestamp with time zone"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time      `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}
