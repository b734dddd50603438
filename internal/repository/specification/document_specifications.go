package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByFileID struct {
	FileID uuid.UUID
}

func (s ByFileID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_id = ?", s.FileID)
}

type ByFileIDs struct {
	FileIDs []uuid.UUID
}

func (s ByFileIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_id IN ?", s.FileIDs)
}

type ByJobStatus struct {
	Status string
}

func (s ByJobStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
