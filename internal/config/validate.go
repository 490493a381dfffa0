package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Server.UseTLS && (strings.TrimSpace(c.Server.TLSCert) == "" || strings.TrimSpace(c.Server.TLSKey) == "") {
		return fmt.Errorf("server.use_tls requires tls_cert and tls_key")
	}
	c.Content.BaseURL = strings.TrimRight(strings.TrimSpace(c.Content.BaseURL), "/")
	return nil
}
