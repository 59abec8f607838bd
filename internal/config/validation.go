package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Avatar.FetchStrategy == "proxied" {
		u, err := url.Parse(strings.ReplaceAll(c.Avatar.ProxyURL, "{url}", "x"))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("avatar.proxy_url %q is not an absolute URL", c.Avatar.ProxyURL)
		}
	}
	if c.Telegram.AdminUserID < 0 {
		return fmt.Errorf("telegram.admin_user_id must be positive")
	}

	return nil
}
