package user

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// UpdateProfileParams lists the fields a user may change on their own
// account. Nil fields are left untouched.
type UpdateProfileParams struct {
	Username *string
	Email    *string
}

func (p UpdateProfileParams) IsEmpty() bool {
	return p.Username == nil && p.Email == nil
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

type ListFilter struct {
	Offset   int
	Limit    int
	IsActive *bool
	IsAdmin  *bool
}

type Stats struct {
	Total    int `json:"total_users"`
	Active   int `json:"active_users"`
	Inactive int `json:"inactive_users"`
	Admins   int `json:"admin_users"`
	Regular  int `json:"regular_users"`
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
}

type LoginResult struct {
	TokenPair
	User *User
}
