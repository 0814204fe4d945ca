package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole enum
type UserRole string

const (
	RoleCitizen   UserRole = "citizen"
	RoleAuthority UserRole = "authority"
	RoleAdmin     UserRole = "admin"
)

// MaxTrustScore caps the reputation counter.
const MaxTrustScore = 100

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	FirebaseUID    *string            `bson:"firebaseUid,omitempty" json:"firebaseUid,omitempty"`
	Role           UserRole           `bson:"role" json:"role"`
	Department     string             `bson:"department,omitempty" json:"department,omitempty"`
	IssuesReported int                `bson:"issuesReported" json:"issuesReported"`
	IssuesVerified int                `bson:"issuesVerified" json:"issuesVerified"`
	TrustScore     int                `bson:"trustScore" json:"trustScore"`
	LastLoginAt    *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}

// IsStaff reports whether the user may perform status transitions.
func (u *User) IsStaff() bool {
	return u.Role == RoleAuthority || u.Role == RoleAdmin
}
