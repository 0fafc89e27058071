package model

// User represents the authenticated user's identity record.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Address represents a shipping address owned by the user.
type Address struct {
	ID            string `json:"id"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	Detail        string `json:"detail"`
	PostalCode    string `json:"postal_code,omitempty"`
	IsDefault     bool   `json:"is_default"`
}

// LoginRequest is the payload for POST /auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the token pair plus identity returned on login.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// RegisterRequest is the payload for POST /auth/register/.
// Registration does not authenticate; callers log in afterwards.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Nickname        string `json:"nickname,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// RefreshRequest is the payload for POST /auth/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the newly minted access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// AddressRequest is the payload for POST /auth/addresses/.
type AddressRequest struct {
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	Detail        string `json:"detail"`
	PostalCode    string `json:"postal_code,omitempty"`
	IsDefault     bool   `json:"is_default,omitempty"`
}
