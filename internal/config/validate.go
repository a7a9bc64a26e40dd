package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *GatewayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Service.URL == "" {
		return errors.New("service.url is required")
	}
	if c.Service.KeyID != "" && c.Service.PrivateKeyPath == "" {
		return errors.New("service.private_key_path is required when service.key_id is set")
	}

	if c.Reconnect.BaseDelay > c.Reconnect.MaxDelay {
		return fmt.Errorf("reconnect.base_delay (%v) cannot exceed max_delay (%v)",
			c.Reconnect.BaseDelay, c.Reconnect.MaxDelay)
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	for i, p := range c.Refresh.Products {
		if p.ID == "" {
			return fmt.Errorf("refresh.products[%d].id is required", i)
		}
		if p.Type != "inapp" && p.Type != "subs" {
			return fmt.Errorf("refresh.products[%d].type must be \"inapp\" or \"subs\", got %q", i, p.Type)
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
