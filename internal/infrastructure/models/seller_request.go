package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"marketplace.backend/internal/domain/entities"
)

type SellerRequest struct {
	ID                uuid.UUID                                      `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID                                      `gorm:"type:uuid;not null;index"`
	Type              string                                         `gorm:"type:varchar(20);not null"`
	Status            string                                         `gorm:"type:varchar(20);not null;index"`
	PersonalInfo      datatypes.JSONType[entities.PersonalInfo]      `gorm:"type:jsonb;not null"`
	BusinessInfo      datatypes.JSONType[entities.BusinessInfo]      `gorm:"type:jsonb;not null"`
	Documents         datatypes.JSONType[entities.Documents]         `gorm:"type:jsonb;not null"`
	Compliance        datatypes.JSONType[entities.Compliance]        `gorm:"type:jsonb;not null"`
	Contract          datatypes.JSONType[entities.Contract]          `gorm:"type:jsonb;not null"`
	VideoVerification datatypes.JSONType[entities.VideoVerification] `gorm:"type:jsonb;not null"`
	RejectionReason   *string                                        `gorm:"type:text"`
	ReviewedBy        *uuid.UUID                                     `gorm:"type:uuid"`
	ReviewedAt        *time.Time
	VerifiedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
