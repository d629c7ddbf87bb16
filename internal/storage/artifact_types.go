package storage

import "time"

// Artifact is one downloadable file row in the artifacts table.
type Artifact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Version    string    `gorm:"not null;index:idx_artifact_version_os;uniqueIndex:idx_unique_artifact" json:"version"`
	OSKey      string    `gorm:"column:os_key;not null;index:idx_artifact_version_os;uniqueIndex:idx_unique_artifact" json:"os_key"`
	Name       string    `gorm:"not null;uniqueIndex:idx_unique_artifact" json:"name"`
	Size       int64     `gorm:"not null" json:"size"`
	ModifiedAt time.Time `gorm:"not null" json:"modified_at"`
}

// TableName overrides the table name for GORM.
func (Artifact) TableName() string {
	return "artifacts"
}
