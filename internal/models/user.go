package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account in the user directory. Friends is kept symmetric by
// the friend pair mutations: if A lists B, B lists A.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FullName     string             `bson:"fullName" json:"fullName"`
	Username     string             `bson:"username,omitempty" json:"username,omitempty"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`

	// signup academic metadata
	Qualification string   `bson:"qualification" json:"qualification"`
	Branch        string   `bson:"branch" json:"branch"`
	Year          string   `bson:"year" json:"year"`
	Subjects      []string `bson:"subjects" json:"subjects"`

	College         string `bson:"college" json:"college"`
	Bio             string `bson:"bio" json:"bio"`
	ProfileImageURL string `bson:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"`
	ProfileCreated  bool   `bson:"profileCreated" json:"profileCreated"`

	Friends   []primitive.ObjectID `bson:"friends" json:"friends"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasFriend reports whether id is in the user's friend list.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// PublicUser is the subset of a user visible to other accounts.
type PublicUser struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	FullName        string             `bson:"fullName" json:"fullName"`
	Username        string             `bson:"username,omitempty" json:"username,omitempty"`
	Email           string             `bson:"email" json:"email"`
	ProfileImageURL string             `bson:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		FullName:        u.FullName,
		Username:        u.Username,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// Profile is the requester's own account with friends expanded.
type Profile struct {
	ID              primitive.ObjectID `json:"_id"`
	FullName        string             `json:"fullName"`
	Username        string             `json:"username,omitempty"`
	Email           string             `json:"email"`
	Qualification   string             `json:"qualification"`
	Branch          string             `json:"branch"`
	Year            string             `json:"year"`
	Subjects        []string           `json:"subjects"`
	College         string             `json:"college"`
	Bio             string             `json:"bio"`
	ProfileImageURL string             `json:"profileImageUrl,omitempty"`
	ProfileCreated  bool               `json:"profileCreated"`
	Friends         []PublicUser       `json:"friends"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// ProfileOf builds a Profile from u and its already-loaded friends.
func ProfileOf(u *User, friends []PublicUser) *Profile {
	if friends == nil {
		friends = []PublicUser{}
	}
	return &Profile{
		ID:              u.ID,
		FullName:        u.FullName,
		Username:        u.Username,
		Email:           u.Email,
		Qualification:   u.Qualification,
		Branch:          u.Branch,
		Year:            u.Year,
		Subjects:        u.Subjects,
		College:         u.College,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		ProfileCreated:  u.ProfileCreated,
		Friends:         friends,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
