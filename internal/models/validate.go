package models

import (
	"fmt"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// ValidateUsername checks username syntax: 3-30 ASCII letters, digits or underscores.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: got %d characters", ErrInvalidUsername, len(username))
	}
	for i := 0; i < len(username); i++ {
		if !isUsernameChar(username[i]) {
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidUsername, username[i])
		}
	}
	return nil
}

func ValidateMessage(message string) error {
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

func isUsernameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return true
	}
	return false
}
