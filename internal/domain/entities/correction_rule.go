package entities

import (
	"time"

	"github.com/google/uuid"
)

// CorrectionRule is a user-owned find/replace rule applied to corrected
// transcript text. Rules are managed by the settings surface; the
// pipeline only reads them, ordered by ascending priority.
type CorrectionRule struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID       uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	FindText      string    `json:"find_text" gorm:"type:text;not null"`
	ReplaceText   string    `json:"replace_text" gorm:"type:text"`
	IsRegex       bool      `json:"is_regex" gorm:"default:false"`
	CaseSensitive bool      `json:"case_sensitive" gorm:"default:false"`
	Priority      int       `json:"priority" gorm:"type:integer;default:100;index"` // ascending = applied first

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (CorrectionRule) TableName() string {
	return "correction_rules"
}
