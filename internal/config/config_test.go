package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "chatbot_db", cfg.Database.Database)
				assert.Equal(t, "chatbot_metrics", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "chatbot-service", cfg.App.Name)
				assert.Equal(t, 4, cfg.Queue.MaxConcurrent)
				assert.Equal(t, 100*time.Millisecond, cfg.Queue.PollInterval)
				assert.Equal(t, 3, cfg.Queue.DefaultMaxAttempts)
				assert.Equal(t, 5*time.Second, cfg.Queue.DrainTimeout)
				assert.Equal(t, 200*time.Millisecond, cfg.Character.ThinkDelay)
				assert.True(t, cfg.Monitor.Enabled)
				assert.Equal(t, 15*time.Second, cfg.Monitor.Interval)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "chatbot_db",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "chatbot_metrics"},
			Queue:    QueueBindConfig{Name: "chatbot_metrics_queue"},
		},
		Queue: QueueConfig{
			MaxConcurrent:      4,
			PollInterval:       100 * time.Millisecond,
			DefaultMaxAttempts: 3,
			DrainTimeout:       5 * time.Second,
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: 15 * time.Second,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "missing database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "missing database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "zero queue concurrency",
			mutate:    func(c *Config) { c.Queue.MaxConcurrent = 0 },
			wantErr:   true,
			errString: "max_concurrent must be greater than 0",
		},
		{
			name:      "zero poll interval",
			mutate:    func(c *Config) { c.Queue.PollInterval = 0 },
			wantErr:   true,
			errString: "poll_interval must be greater than 0",
		},
		{
			name:      "zero retry budget",
			mutate:    func(c *Config) { c.Queue.DefaultMaxAttempts = 0 },
			wantErr:   true,
			errString: "default_max_attempts must be greater than 0",
		},
		{
			name:      "zero drain timeout",
			mutate:    func(c *Config) { c.Queue.DrainTimeout = 0 },
			wantErr:   true,
			errString: "drain_timeout must be greater than 0",
		},
		{
			name:      "monitor enabled without interval",
			mutate:    func(c *Config) { c.Monitor.Interval = 0 },
			wantErr:   true,
			errString: "monitor interval",
		},
		{
			name:      "monitor enabled without rabbitmq exchange",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name: "monitor disabled skips rabbitmq checks",
			mutate: func(c *Config) {
				c.Monitor.Enabled = false
				c.RabbitMQ = RabbitMQConfig{}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
