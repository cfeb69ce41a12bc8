package accounts

import (
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	errs "github.com/careplus/onboarding/errors"
)

// Credentials is stored with the enrollment session and the merged profile.
// The password never leaves this package unhashed.
type Credentials struct {
	AccountID    string `json:"accountId"`
	PasswordHash string `json:"passwordHash"`
}

var accountIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

func ValidateAccountID(accountID string) error {
	if len(accountID) < 4 {
		return fmt.Errorf("%w: account id must be at least 4 characters", errs.BadRequest)
	}
	if !accountIDPattern.MatchString(accountID) {
		return fmt.Errorf("%w: account id must contain only letters and digits", errs.BadRequest)
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", errs.BadRequest)
	}
	return nil
}

// NewCredentials validates the inputs and hashes the password.
func NewCredentials(accountID, password string) (Credentials, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return Credentials{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return Credentials{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credentials{}, fmt.Errorf("error hashing password: %w", err)
	}

	return Credentials{
		AccountID:    accountID,
		PasswordHash: string(hash),
	}, nil
}

// Verify checks a login attempt against stored credentials.
func (c Credentials) Verify(accountID, password string) error {
	if c.AccountID != accountID {
		return fmt.Errorf("%w: unknown account", errs.Unauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("%w: invalid password", errs.Unauthorized)
	}
	return nil
}
