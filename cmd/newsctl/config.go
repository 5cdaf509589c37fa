package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/montekkundan/newsapi/internal/compose"
	"github.com/montekkundan/newsapi/internal/configfile"
	"github.com/montekkundan/newsapi/internal/dockerops"
	"github.com/montekkundan/newsapi/internal/loadtest"
	"github.com/montekkundan/newsapi/pkg/newsclient"

	"github.com/pkg/errors"
)

const DefaultConfigPath = "newsctl.yaml"

type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// DatabaseURL is passed to the image build. DATABASE_URL is used when empty.
	DatabaseURL string `mapstructure:"database_url"`

	API     API     `mapstructure:"api"`
	Compose Compose `mapstructure:"compose"`
	Docker  Docker  `mapstructure:"docker"`
	Bench   Bench   `mapstructure:"bench"`
}

type API struct {
	BaseURL string        `mapstructure:"base_url"`
	MaxRPS  int           `mapstructure:"max_rps"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Compose struct {
	Binary     string `mapstructure:"binary"`
	File       string `mapstructure:"file"`
	ProjectDir string `mapstructure:"project_dir"`

	// Project is the compose project name. It defaults to the project directory name.
	Project string `mapstructure:"project"`
}

type Docker struct {
	DaemonURL  string `mapstructure:"daemon_url"`
	Image      string `mapstructure:"image"`
	Dockerfile string `mapstructure:"dockerfile"`
	ContextDir string `mapstructure:"context_dir"`
}

type Bench struct {
	Mode        loadtest.Mode `mapstructure:"mode"`
	PlanPath    string        `mapstructure:"plan_path"`
	OutputPath  string        `mapstructure:"output_path"`
	Concurrency int           `mapstructure:"concurrency"`
	Percentiles []int         `mapstructure:"percentiles"`
}

// LoadConfig reads the file pointed by NEWSCTL_CONFIG_PATH, falling back to an optional newsctl.yaml.
func LoadConfig() (*Config, error) {
	path := os.Getenv("NEWSCTL_CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := new(Config)
	_, err := configfile.Load("newsctl", path, explicit, cfg)
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
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = newsclient.DefaultBaseURL
	}
	if c.API.MaxRPS < 0 {
		return errors.New("api.max_rps cannot be negative")
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = newsclient.DefaultTimeout
	}

	if c.Compose.Binary == "" {
		c.Compose.Binary = compose.DefaultBinary
	}
	if c.Compose.File == "" {
		c.Compose.File = compose.DefaultFile
	}
	if c.Compose.ProjectDir == "" {
		c.Compose.ProjectDir = "."
	}
	if c.Compose.Project == "" {
		abs, err := filepath.Abs(c.Compose.ProjectDir)
		if err != nil {
			return errors.Wrap(err, "compose.project_dir cannot be resolved")
		}

		c.Compose.Project = projectName(filepath.Base(abs))
	}

	if c.Docker.Image == "" {
		c.Docker.Image = dockerops.DefaultImage
	}
	if c.Docker.Dockerfile == "" {
		c.Docker.Dockerfile = dockerops.DefaultDockerfile
	}
	if c.Docker.ContextDir == "" {
		c.Docker.ContextDir = c.Compose.ProjectDir
	}

	if c.Bench.Mode == "" {
		c.Bench.Mode = loadtest.SerialWithoutDelaysMode
	}
	if c.Bench.PlanPath == "" {
		c.Bench.PlanPath = "bench_plan.yml"
	}
	if c.Bench.OutputPath == "" {
		c.Bench.OutputPath = "bench_results.yml"
	}
	if len(c.Bench.Percentiles) == 0 {
		c.Bench.Percentiles = []int{50, 90, 95, 99}
	}

	return nil
}

// projectName normalizes a directory name the way compose derives default project names.
func projectName(dir string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(dir) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}

	return strings.TrimLeft(b.String(), "_-")
}
