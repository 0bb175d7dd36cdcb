/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// BaseDatabaseFactory creates a configured database manager and connects it.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a new database factory using the global logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetLogger(),
	}
}

// CreateFromConfig constructs a database manager from the given connection
// configuration after applying environment overrides.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	overrideFromEnv(cfg)
	if _, ok := dialects[cfg.Type]; !ok {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, SupportedTypes())
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)
	f.manager = manager
	return manager, nil
}

type envOverride struct {
	key   string
	apply func(cfg *ConnectionConfig, value string) error
}

func intSetter(dst func(*ConnectionConfig) *int) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, value string) error {
		n, err := strconv.Atoi(value)
		if err == nil {
			*dst(cfg) = n
		}
		return err
	}
}

func secondsSetter(dst func(*ConnectionConfig) *time.Duration) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, value string) error {
		n, err := strconv.Atoi(value)
		if err == nil {
			*dst(cfg) = time.Duration(n) * time.Second
		}
		return err
	}
}

func stringSetter(dst func(*ConnectionConfig) *string) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, value string) error {
		*dst(cfg) = value
		return nil
	}
}

func boolSetter(dst func(*ConnectionConfig) *bool) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, value string) error {
		*dst(cfg) = value == "true" || value == "1"
		return nil
	}
}

var envOverrides = []envOverride{
	{"DB_TYPE", stringSetter(func(c *ConnectionConfig) *string { return &c.Type })},
	{"DB_DSN", stringSetter(func(c *ConnectionConfig) *string { return &c.DSN })},
	{"DB_HOST", stringSetter(func(c *ConnectionConfig) *string { return &c.Host })},
	{"DB_PORT", intSetter(func(c *ConnectionConfig) *int { return &c.Port })},
	{"DB_USERNAME", stringSetter(func(c *ConnectionConfig) *string { return &c.Username })},
	{"DB_PASSWORD", stringSetter(func(c *ConnectionConfig) *string { return &c.Password })},
	{"DB_NAME", stringSetter(func(c *ConnectionConfig) *string { return &c.DBName })},
	{"DB_SSLMODE", stringSetter(func(c *ConnectionConfig) *string { return &c.SSLMode })},
	{"DB_MAX_IDLE_CONNS", intSetter(func(c *ConnectionConfig) *int { return &c.MaxIdleConns })},
	{"DB_MAX_OPEN_CONNS", intSetter(func(c *ConnectionConfig) *int { return &c.MaxOpenConns })},
	{"DB_CONN_MAX_LIFETIME", secondsSetter(func(c *ConnectionConfig) *time.Duration { return &c.ConnMaxLifetime })},
	{"DB_ENABLE_RECONNECT", boolSetter(func(c *ConnectionConfig) *bool { return &c.EnableReconnect })},
	{"DB_RECONNECT_INTERVAL", secondsSetter(func(c *ConnectionConfig) *time.Duration { return &c.ReconnectInterval })},
	{"DB_ENABLE_QUERY_LOG", boolSetter(func(c *ConnectionConfig) *bool { return &c.EnableQueryLog })},
}

// overrideFromEnv overrides configuration values from DB_* environment
// variables. Malformed numbers are logged and ignored.
func overrideFromEnv(cfg *ConnectionConfig) {
	for _, o := range envOverrides {
		value := os.Getenv(o.key)
		if value == "" {
			continue
		}
		if err := o.apply(cfg, value); err != nil {
			GetLogger().Warn("Ignoring malformed environment override", "key", o.key, "error", err)
		}
	}
}

// InitializeDatabase connects to the database and, when migrate enables it,
// creates the tables of the registered models.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, registry ModelRegistry, migrate MigrateConfig) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate.EnableMigrateOnStartup {
		if err := f.manager.RunMigrations(ctx, registry, migrate.EnableForeignKey); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}
