package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	parts := strings.Split(str, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, `"`)
	}
	*a = parts
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	quoted := make([]string, len(a))
	for i, s := range a {
		if strings.ContainsAny(s, `, {}"`) {
			quoted[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		} else {
			quoted[i] = s
		}
	}
	return "{" + strings.Join(quoted, ",") + "}", nil
}

// User is a registered account. CollaborativeEmbedding caches the last user vector
// returned by the recommendation engine and is only written after a successful
// collaborative recommendation call.
type User struct {
	ID                     string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name                   string           `gorm:"not null" json:"name"`
	Email                  string           `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash           string           `gorm:"not null" json:"-"`
	CollaborativeEmbedding *pgvector.Vector `gorm:"type:vector" json:"-"`
	OnboardingCompleted    bool             `gorm:"default:false" json:"onboardingCompleted"`

	Preferences []UserPreference `gorm:"foreignKey:UserID" json:"preferences,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id when the database default is unavailable (sqlite in tests)
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
