package main

import (
	"context"
	"os"
	"time"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/internal/configfile"
	"github.com/montekkundan/newsapi/internal/database"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/pkg/errors"
)

const DefaultConfigPath = "config.yaml"

const (
	PrettyLogFormat = "pretty"
	JSONLogFormat   = "json"
)

type StorageType string

const (
	StorageTypePostgres StorageType = "POSTGRES"
	StorageTypeDynamoDB StorageType = "DYNAMODB"
)

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	API API `mapstructure:"api"`

	PrometheusExportAddress string `mapstructure:"prometheus_address"`

	Storage Storage `mapstructure:"storage"`

	Limits Limits `mapstructure:"limits"`
}

type API struct {
	ListeningAddress string        `mapstructure:"address"`
	ServerTimeout    time.Duration `mapstructure:"server_timeout"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	MaxPageSize      int           `mapstructure:"max_page_size"`
}

type Storage struct {
	Type StorageType `mapstructure:"type"`

	Postgres Postgres `mapstructure:"postgres"`
	DynamoDB DynamoDB `mapstructure:"dynamodb"`
}

type Postgres struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	StatsFrequency time.Duration `mapstructure:"stats_frequency"`
}

type DynamoDB struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`

	TableName string `mapstructure:"table"`
}

type Limits struct {
	MaxTitleLength   int `mapstructure:"max_title_length"`
	MaxContentLength int `mapstructure:"max_content_length"`
	MaxSourceLength  int `mapstructure:"max_source_length"`
}

func (l Limits) Article() article.Limits {
	return article.Limits{
		MaxTitleLength:   l.MaxTitleLength,
		MaxContentLength: l.MaxContentLength,
		MaxSourceLength:  l.MaxSourceLength,
	}
}

// LoadConfig reads the file pointed by CONFIG_PATH. The file is optional:
// without it the server starts with defaults and DATABASE_URL from the environment.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := new(Config)
	_, err := configfile.Load("newsapi", path, explicit, cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// validate verifies the loaded config and sets default values for missed fields.
func (c *Config) validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.LogFormat {
	case "":
		c.LogFormat = JSONLogFormat
	case JSONLogFormat, PrettyLogFormat:
	default:
		return errors.Errorf("unknown log_format %s (supported: %s, %s)", c.LogFormat, JSONLogFormat, PrettyLogFormat)
	}

	if c.API.ListeningAddress == "" {
		c.API.ListeningAddress = "0.0.0.0:8080"
	}
	if c.API.ServerTimeout == 0 {
		c.API.ServerTimeout = 30 * time.Second
	}
	if c.API.MaxBodySize == 0 {
		c.API.MaxBodySize = 1 << 20
	}
	if c.API.MaxBodySize < 0 {
		return errors.New("api.max_body_size must be positive")
	}
	if c.API.MaxPageSize < 0 {
		return errors.New("api.max_page_size cannot be negative")
	}

	if c.PrometheusExportAddress == "" {
		c.PrometheusExportAddress = ":2112"
	}

	if c.Limits.MaxTitleLength < 0 || c.Limits.MaxContentLength < 0 || c.Limits.MaxSourceLength < 0 {
		return errors.New("limits cannot be negative")
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageTypePostgres
	}

	switch c.Storage.Type {
	case StorageTypePostgres:
		pg := &c.Storage.Postgres
		if pg.URL == "" {
			pg.URL = os.Getenv("DATABASE_URL")
		}
		if pg.URL == "" {
			return errors.New("storage.postgres.url or DATABASE_URL is required")
		}
		if pg.MaxConns == 0 {
			pg.MaxConns = database.DefaultMaxConns
		}
		if pg.ConnectTimeout == 0 {
			pg.ConnectTimeout = database.DefaultConnectTimeout
		}
		if pg.StatsFrequency == 0 {
			pg.StatsFrequency = database.DefaultStatsFrequency
		}

	case StorageTypeDynamoDB:
		if c.Storage.DynamoDB.Region == "" {
			return errors.New("storage.dynamodb.region is required")
		}
		if c.Storage.DynamoDB.TableName == "" {
			c.Storage.DynamoDB.TableName = "articles"
		}

	default:
		return errors.Errorf("unknown storage type %s (supported: %s, %s)", c.Storage.Type, StorageTypePostgres, StorageTypeDynamoDB)
	}

	return nil
}

func (c *Config) Retrieve(_ context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     c.Storage.DynamoDB.AccessKeyID,
		SecretAccessKey: c.Storage.DynamoDB.SecretAccessKey,
		Source:          "local config",
	}, nil
}
