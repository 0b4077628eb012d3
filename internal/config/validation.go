package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct-level constraints and the message catalog.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}
	if _, ok := c.Messages[FallbackLanguage]; !ok {
		return fmt.Errorf("message catalog has no %q table", FallbackLanguage)
	}
	return nil
}

// IsAdmin reports whether userID may use admin-only commands.
// A zero AdminUserID disables them for everyone.
func (c *Config) IsAdmin(userID int64) bool {
	return c.Telegram.AdminUserID != 0 && userID == c.Telegram.AdminUserID
}
