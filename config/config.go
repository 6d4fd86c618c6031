// Package config loads the server configuration from the environment.
package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"postboard/domain"
)

const (
	DevEnv = "dev"
	ProEnv = "pro"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreSQL    = "sql"
)

const (
	UploadMemory = "memory"
	UploadDisk   = "disk"
)

type Config struct {
	Env           string `envconfig:"ENV" default:"pro"`
	Address       string `envconfig:"ADDRESS_LISTEN"`
	WhitelistHost string `envconfig:"WHITELIST_HOST"`
	SiteTitle     string `envconfig:"SITE_TITLE" default:"Blog"`

	Store           string `envconfig:"STORE" default:"memory"`
	MongoURL        string `envconfig:"MONGO_URL"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"blog"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"posts"`
	DBDriver        string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBURL           string `envconfig:"DB_URL"`
	ListOrder       string `envconfig:"LIST_ORDER"`

	UploadStorage  string `envconfig:"UPLOAD_STORAGE"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"public/uploads"`
	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`

	// ConfirmDelete is nil when CONFIRM_DELETE is unset.
	ConfirmDelete *bool `envconfig:"CONFIRM_DELETE"`

	Ordering domain.Ordering `ignored:"true"`
}

// Load reads the environment, fills in store dependent defaults and
// validates the result.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}
	if err := c.complete(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) complete() error {
	if c.Env != DevEnv && c.Env != ProEnv {
		return errors.Errorf("unknown ENV %q", c.Env)
	}
	if c.Env == DevEnv && c.Address == "" {
		c.Address = ":8080"
	}

	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURL == "" {
			return errors.New("MONGO_URL environment variable is not set")
		}
	case StoreSQL:
		if c.DBDriver == "postgres" && c.DBURL == "" {
			return errors.New("DB_URL environment variable is not set")
		}
	default:
		return errors.Errorf("unknown STORE %q", c.Store)
	}

	order, err := domain.ParseOrdering(c.ListOrder)
	if err != nil {
		return err
	}
	c.Ordering = order

	if c.UploadStorage == "" {
		c.UploadStorage = UploadDisk
		if c.Store == StoreMemory {
			c.UploadStorage = UploadMemory
		}
	}
	if c.UploadStorage != UploadMemory && c.UploadStorage != UploadDisk {
		return errors.Errorf("unknown UPLOAD_STORAGE %q", c.UploadStorage)
	}

	if c.ConfirmDelete == nil {
		confirm := c.Store != StoreMemory
		c.ConfirmDelete = &confirm
	}
	return nil
}
