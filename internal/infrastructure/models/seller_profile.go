package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"marketplace.backend/internal/domain/entities"
)

type SellerProfile struct {
	ID                 uuid.UUID                                 `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID                                 `gorm:"type:uuid;uniqueIndex;not null"`
	SellerRequestID    *uuid.UUID                                `gorm:"type:uuid"`
	BusinessInfo       datatypes.JSONType[entities.BusinessInfo] `gorm:"type:jsonb;not null"`
	Documents          datatypes.JSONType[entities.Documents]    `gorm:"type:jsonb;not null"`
	Status             string                                    `gorm:"type:varchar(20);not null"`
	VerificationStatus string                                    `gorm:"type:varchar(20);not null"`
	VerifiedAt         *time.Time
	Settings           datatypes.JSONType[entities.SellerSettings] `gorm:"type:jsonb;not null"`
	SubscriptionActive bool                                        `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
