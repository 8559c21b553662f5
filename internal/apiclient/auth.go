package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bengalcodingacademy-dev/admin/pkg/model"
)

// Backend paths, relative to the base URL.
const (
	PathWhoAmI     = "/me/summary"
	PathLogin      = "/auth/login"
	PathAdminLogin = "/auth/admin/login"
	PathLogout     = "/auth/logout"
)

// Credentials is the body of the login exchange.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes the email and checks both fields are present.
func (c *Credentials) Validate() error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	var errs []error
	if c.Email == "" {
		errs = append(errs, errors.New("email is required"))
	} else if !strings.Contains(c.Email, "@") {
		errs = append(errs, fmt.Errorf("invalid email %q", c.Email))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// WhoAmI asks the backend which account the current cookies belong to.
func (c *Client) WhoAmI(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.Get(ctx, PathWhoAmI, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a backend session. The backend sets the
// session cookies. A reply for a non-admin account drops the cookies it set
// and returns ErrNotAdmin.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	creds := Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var result model.LoginResult
	if err := c.Post(ctx, c.loginPath, creds, &result); err != nil {
		return nil, err
	}
	if !result.User.IsAdmin() {
		if err := c.ResetCredentials(ctx); err != nil {
			c.logger.Warn("drop non-admin session", "error", err)
		}
		return nil, ErrNotAdmin
	}
	return &result, nil
}

// Logout asks the backend to invalidate the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, PathLogout, nil, nil)
}
