package domain

// User is the identity the storefront API returns for an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt Timestamp `json:"created_at"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResponse carries the bearer credential issued on login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// StatusMessage is the generic acknowledgement body, e.g. from DELETE /cart/clear.
type StatusMessage struct {
	Message string `json:"message"`
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}
