package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProviderConfig stores the credentials and settings for one payment
// provider integration.
type ProviderConfig struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Provider    string            `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payment_provider_configs_provider"`
	APIKey      string            `json:"-" gorm:"column:api_key;type:text;not null"`
	Config      datatypes.JSONMap `json:"config" gorm:"type:jsonb;not null;default:'{}'"`
	RedirectURL string            `json:"redirect_url" gorm:"type:text"`
	IsActive    bool              `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProviderConfig) TableName() string { return "payment_provider_configs" }
