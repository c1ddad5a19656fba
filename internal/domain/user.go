package domain

import "time" // Time for audit timestamps

// User roles
const (
	RoleAdmin   = "Admin"   // Full access, sees every user's data
	RolePremium = "Premium" // Access to summaries and analytics
	RoleUser    = "User"    // Default role for new registrations
)

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePremium, RoleUser:
		return true
	}
	return false
}

// User Model
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`                            // Primary key
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`    // Unique username
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`      // Unique email
	PasswordHash string     `gorm:"not null" json:"-"`                               // Hashed password
	Role         string     `gorm:"size:20;not null;default:User" json:"role"`       // Role: Admin, Premium or User
	CreatedAt    time.Time  `json:"createdAt"`                                       // Timestamp of creation
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"` // Timestamp of the last profile change
}
