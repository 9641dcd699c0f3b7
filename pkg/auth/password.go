package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Register creates a password account. The password is stored only as a
// bcrypt hash. A taken username surfaces as store.ErrConflict.
func Register(ctx context.Context, users store.UserStore, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, &model.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if password == "" {
		return model.User{}, &model.ValidationError{Field: "password", Reason: "must not be empty"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	return users.CreateUser(ctx, model.User{Username: username, PasswordHash: string(hash)})
}

// Authenticate checks a username and password against the stored hash.
func Authenticate(ctx context.Context, users store.UserStore, username, password string) (model.User, error) {
	u, err := users.UserByName(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if u.PasswordHash == "" {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}
