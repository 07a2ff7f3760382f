package utils

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

var (
	ErrPasswordTooShort   = errors.New("This password is too short. It must contain at least 8 characters.")
	ErrPasswordTooLong    = errors.New("This password is too long. It must contain at most 72 bytes.")
	ErrPasswordAllNumeric = errors.New("This password is entirely numeric.")
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	for _, char := range password {
		if !unicode.IsDigit(char) {
			return nil
		}
	}

	return ErrPasswordAllNumeric
}
