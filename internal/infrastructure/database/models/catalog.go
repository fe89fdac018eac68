package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type DataSource struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	Name        string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Type        string         `json:"type" gorm:"type:text;not null;index"`
	Description string         `json:"description" gorm:"type:text"`
	Config      datatypes.JSON `json:"config" gorm:"type:jsonb"`
	Status      string         `json:"status" gorm:"type:text;not null;default:'pending';index"`
	StatusError string         `json:"statusError,omitempty" gorm:"type:text"`
	RecordCount int64          `json:"recordCount" gorm:"type:bigint"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	LastSyncAt  *time.Time     `json:"lastSyncAt,omitempty" gorm:"type:timestamp with time zone"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time      `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}

type Pattern struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	Name        string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Category    string         `json:"category" gorm:"type:text;index"`
	Expression  string         `json:"expression" gorm:"type:text;not null"`
	Sensitivity string         `json:"sensitivity" gorm:"type:text;not null;default:'medium'"`
	Examples    pq.StringArray `json:"examples" gorm:"type:text[]"`
	Enabled     bool           `json:"enabled" gorm:"not null;default:true;index"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time      `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}

type CatalogField struct {
	ID             string            `json:"id" gorm:"primaryKey;type:text"`
	DataSourceID   string            `json:"dataSourceID" gorm:"type:text;not null;index;uniqueIndex:idx_field_source_name"`
	DataSource     DataSource        `json:"-" gorm:"foreignKey:DataSourceID;constraint:OnDelete:CASCADE;"`
	Name           string            `json:"name" gorm:"type:text;not null;uniqueIndex:idx_field_source_name"`
	DataType       string            `json:"dataType" gorm:"type:text"`
	Description    string            `json:"description" gorm:"type:text"`
	Classification string            `json:"classification" gorm:"type:text;index"`
	PII            bool              `json:"pii" gorm:"not null;default:false;index"`
	Tags           pq.StringArray    `json:"tags" gorm:"type:text[]"`
	Annotations    []FieldAnnotation `json:"annotations,omitempty" gorm:"foreignKey:FieldID"`
	CDate          time.Time         `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate          time.Time         `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}

type FieldAnnotation struct {
	ID            string       `json:"id" gorm:"primaryKey;type:text"`
	FieldID       string       `json:"fieldID" gorm:"type:text;not null;index;uniqueIndex:idx_annotation_field_name"`
	Field         CatalogField `json:"-" gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE;"`
	CanonicalName string       `json:"canonicalName" gorm:"type:text;not null;uniqueIndex:idx_annotation_field_name"`
	Source        string       `json:"source" gorm:"type:text;not null;default:'user'"`
	Confidence    float64      `json:"confidence" gorm:"type:double precision"`
	Note          string       `json:"note" gorm:"type:text"`
	CDate         time.Time    `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type ApiConnection struct {
	ID       string         `json:"id" gorm:"primaryKey;type:text"`
	Name     string         `json:"name" gorm:"type:text;not null;uniqueIndex"`
	BaseURL  string         `json:"baseURL" gorm:"type:text;not null"`
	AuthType string         `json:"authType" gorm:"type:text;not null;default:'none'"`
	Headers  datatypes.JSON `json:"headers" gorm:"type:jsonb"`
	Status   string         `json:"status" gorm:"type:text;not null;default:'pending'"`
	CDate    time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate    time.Time      `json:"mdate" gorm:"type:timestamp with time zone;autoUpdateTime"`
}
