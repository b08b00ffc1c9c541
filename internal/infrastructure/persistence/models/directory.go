package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/backend/internal/domain/directory"
)

// LinkedUserModel is the persistence model for a directory link.
type LinkedUserModel struct {
	BaseModel
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_link,priority:1;index"`
	LinkedUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_link,priority:2"`
	Alias        string    `gorm:"type:varchar(100)"`
	LinkedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LinkedUserModel) TableName() string {
	return "linked_users"
}

// ToDomain converts the persistence model to a domain LinkedUser.
func (m *LinkedUserModel) ToDomain() *directory.LinkedUser {
	return &directory.LinkedUser{
		BaseEntity:   m.BaseModel.ToDomain(),
		OwnerID:      m.OwnerID,
		LinkedUserID: m.LinkedUserID,
		Alias:        m.Alias,
		LinkedAt:     m.LinkedAt,
	}
}

// FromDomain populates the persistence model from a domain LinkedUser.
func (m *LinkedUserModel) FromDomain(l *directory.LinkedUser) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.OwnerID = l.OwnerID
	m.LinkedUserID = l.LinkedUserID
	m.Alias = l.Alias
	m.LinkedAt = l.LinkedAt
}
