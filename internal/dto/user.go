package dto

// UserResponse is a profile without the password hash.
type UserResponse struct {
	ID          string `json:"_id"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Institution string `json:"institution"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// UpdateUserRequest changes profile fields. Nil fields are left alone.
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName"   binding:"omitempty,max=100"`
	LastName    *string `json:"lastName"    binding:"omitempty,max=100"`
	Email       *string `json:"email"       binding:"omitempty,email"`
	Institution *string `json:"institution" binding:"omitempty,max=200"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}
