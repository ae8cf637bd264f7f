package models

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// AdminCredential is the single operator account, seeded from the environment.
// Only the bcrypt hash is ever held in memory.
type AdminCredential struct {
	Username     string
	PasswordHash string
}

// NewAdminCredential builds a credential from a plaintext password
func NewAdminCredential(username, password string) (*AdminCredential, error) {
	if username == "" || password == "" {
		return nil, errors.New("admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AdminCredential{Username: username, PasswordHash: string(hash)}, nil
}

// CheckPassword verifies the provided password against the stored hash
func (c *AdminCredential) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	return err == nil
}
