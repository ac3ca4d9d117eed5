package dto

import "github.com/elifred2022/bokadillo/internal/entity"

// ClientRequest is the staff create/update payload for clients.
type ClientRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Email   string  `json:"email"`
	Address *string `json:"address"`
}

// Entity converts the request.
func (r ClientRequest) Entity() entity.Client {
	return entity.Client{
		Name:    r.Name,
		Phone:   blankToNil(r.Phone),
		Email:   r.Email,
		Address: blankToNil(r.Address),
	}
}

// ClientResponse never includes the password hash.
type ClientResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Phone       *string `json:"phone,omitempty"`
	Email       string  `json:"email"`
	Address     *string `json:"address,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	HasPassword bool    `json:"hasPassword"`
}

// Client converts an entity for output.
func Client(c entity.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		Address:     c.Address,
		CreatedAt:   c.CreatedAt,
		HasPassword: c.HasPassword(),
	}
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	Email    string  `json:"email"`
	Address  *string `json:"address"`
	Password string  `json:"password"`
}

// PasswordRequest sets a client's password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// Profile is what a logged-in client sees about itself.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfileOf converts an entity for output.
func ProfileOf(c entity.Client) Profile {
	return Profile{ID: c.ID, Name: c.Name, Email: c.Email}
}
