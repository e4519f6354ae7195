package identity

import (
	"context"
	"encoding/json"
	"fmt"
)

// Routing keys the user-identity service listens on. The whole suite shares
// one direct exchange; these keys select the identity service's queues.
const (
	KeyExistByEmail = "keyExistByEmail"
	KeyCreateUser   = "keySaveUserFromOtherServices"
)

// DefaultRole is assigned to accounts provisioned for employees.
const DefaultRole = "MEMBER"

// Caller is the request/reply half of the RPC gateway.
type Caller interface {
	Call(ctx context.Context, exchange, routingKey string, payload any) ([]byte, error)
}

type existByEmailRequest struct {
	Email string `json:"email"`
}

// CreateAccountRequest is the account-creation contract of the identity
// service.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Client talks to the user-identity service, which is reachable only over
// the broker.
type Client interface {
	// ExistsByEmail reports whether an account already uses email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// CreateAccount registers a new account and returns its id. Once this
	// returns successfully the remote account exists regardless of what the
	// caller does next.
	CreateAccount(ctx context.Context, req CreateAccountRequest) (int64, error)
}

type clientImpl struct {
	caller   Caller
	exchange string
}

func NewClient(caller Caller, exchange string) Client {
	return &clientImpl{caller: caller, exchange: exchange}
}

// ExistsByEmail implements Client.
func (c *clientImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	body, err := c.caller.Call(ctx, c.exchange, KeyExistByEmail, existByEmailRequest{Email: email})
	if err != nil {
		return false, err
	}

	var exists bool
	if err := json.Unmarshal(body, &exists); err != nil {
		return false, fmt.Errorf("failed to decode exist-by-email reply: %w", err)
	}
	return exists, nil
}

// CreateAccount implements Client.
func (c *clientImpl) CreateAccount(ctx context.Context, req CreateAccountRequest) (int64, error) {
	if req.Role == "" {
		req.Role = DefaultRole
	}

	body, err := c.caller.Call(ctx, c.exchange, KeyCreateUser, req)
	if err != nil {
		return 0, err
	}

	var accountID int64
	if err := json.Unmarshal(body, &accountID); err != nil {
		return 0, fmt.Errorf("failed to decode create-account reply: %w", err)
	}
	return accountID, nil
}
