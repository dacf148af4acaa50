package dto

// ── auth requests ──

// RegisterRequest creates a teacher or a student.
type RegisterRequest struct {
	Username    string `json:"username"    binding:"required,max=64"`
	Password    string `json:"password"    binding:"required,min=6,max=72"`
	Role        string `json:"role"        binding:"required,oneof=teacher student"`
	FirstName   string `json:"firstName"   binding:"max=100"`
	LastName    string `json:"lastName"    binding:"max=100"`
	Email       string `json:"email"       binding:"omitempty,email"`
	Institution string `json:"institution" binding:"max=200"`
}

// LoginRequest authenticates against one role's directory.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"     binding:"required,oneof=teacher student"`
}

// ── auth responses ──

// RegisterResponse is returned with 201.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginResponse is the caller's profile plus the access token. ID and UserID
// carry the same value.
type LoginResponse struct {
	UserResponse
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}
