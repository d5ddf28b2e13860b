package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

const RepoInMemory = "inmemory"
const RepoFile = "file"
const RepoSQLite = "sqlite"
const RepoPostgres = "postgres"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Reminders  RemindersConfig  `yaml:"reminders"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	Host      string `yaml:"host"`
	RateLimit int    `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	MaxConnections int32         `yaml:"max_connections"`
	MinConnections int32         `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // inmemory, file, sqlite or postgres
	Key  string `yaml:"key"`
	Path string `yaml:"path"` // data dir for file, db file for sqlite
	URL  string `yaml:"url"`
}

type RemindersConfig struct {
	Interval time.Duration `yaml:"interval"`
	Title    string        `yaml:"title"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:      "8080",
			RateLimit: 100,
		},
		Database: DatabaseConfig{
			WriteTimeout: 5 * time.Second,
		},
		Repository: RepositoryConfig{
			Type: RepoFile,
			Key:  "tasks",
			Path: "data",
		},
		Reminders: RemindersConfig{
			Interval: 30 * time.Second,
			Title:    "Task Reminder",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepoInMemory:
	case RepoFile, RepoSQLite:
		if c.Repository.Path == "" {
			return fmt.Errorf("repository.path is required for %s", c.Repository.Type)
		}
	case RepoPostgres:
		if c.Repository.URL == "" {
			return errors.New("repository.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown repository.type %q", c.Repository.Type)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
