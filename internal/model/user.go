package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Roles. Each role has its own directory collection.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RoleTeacher || r == RoleStudent
}

// Profile fields shared by both kinds of user.
type Profile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	Email        string             `bson:"email,omitempty"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Institution  string             `bson:"institution"`
	Role         string             `bson:"role"`
	Timestamps   `bson:",inline"`
}

// User is a teacher or a student. The variant is fixed at registration.
type User interface {
	GetProfile() *Profile
	GetRole() string
}

// Teacher is stored in teacherDirectory.
type Teacher struct {
	Profile `bson:",inline"`
}

func (t *Teacher) GetProfile() *Profile { return &t.Profile }

func (t *Teacher) GetRole() string { return RoleTeacher }

// Student is stored in studentDirectory.
type Student struct {
	Profile `bson:",inline"`
}

func (s *Student) GetProfile() *Profile { return &s.Profile }

func (s *Student) GetRole() string { return RoleStudent }

// NewUser returns an empty user of the given role, or nil for an unknown role.
func NewUser(role string) User {
	switch role {
	case RoleTeacher:
		return &Teacher{Profile: Profile{Role: RoleTeacher}}
	case RoleStudent:
		return &Student{Profile: Profile{Role: RoleStudent}}
	default:
		return nil
	}
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
