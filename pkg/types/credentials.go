// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is the sentinel error wrapped by MissingCredentialsError.
var ErrMissingCredentials = errors.New("missing credentials")

type (
	// Credentials is a username/password pair for HTTP basic auth or form login.
	Credentials struct {
		Username string `mapstructure:"username" toml:"username"`
		Password string `mapstructure:"password" toml:"password"`
	}

	// MissingCredentialsError names the config section and field that is empty.
	MissingCredentialsError struct {
		Section string
		Field   string
	}
)

// Validate checks that both fields are set. section is used in the error.
func (c Credentials) Validate(section string) error {
	if c.Username == "" {
		return &MissingCredentialsError{Section: section, Field: "username"}
	}
	if c.Password == "" {
		return &MissingCredentialsError{Section: section, Field: "password"}
	}
	return nil
}

// String hides the password.
func (c Credentials) String() string {
	if c.Password == "" {
		return c.Username
	}
	return c.Username + ":***"
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s.%s is not configured", e.Section, e.Field)
}

// Unwrap returns ErrMissingCredentials.
func (e *MissingCredentialsError) Unwrap() error { return ErrMissingCredentials }
