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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Connection.MaxOpenConns)
	assert.Equal(t, 2*time.Second, cfg.Connection.SlowQueryTime)
	assert.False(t, cfg.Migrate.EnableMigrateOnStartup)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  type: postgres
  host: db.internal
  port: 5432
  username: app
  dbname: blog
  max_open_conns: 20
  slow_query_time: 500ms
migrate:
  enable_migrate_on_startup: true
  enable_foreign_key: true
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Connection.Type)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 5432, cfg.Connection.Port)
	assert.Equal(t, 20, cfg.Connection.MaxOpenConns)
	assert.Equal(t, 10, cfg.Connection.MaxIdleConns)
	assert.Equal(t, 500*time.Millisecond, cfg.Connection.SlowQueryTime)
	assert.True(t, cfg.Migrate.EnableMigrateOnStartup)
	assert.True(t, cfg.Migrate.EnableForeignKey)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection: [1, 2"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "10.0.0.1")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_CONN_MAX_LIFETIME", "60")
	t.Setenv("DB_ENABLE_QUERY_LOG", "1")

	cfg := DefaultConnectionConfig()
	overrideFromEnv(cfg)
	assert.Equal(t, "mysql", cfg.Type)
	assert.Equal(t, "10.0.0.1", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
}

func TestCreateFromConfig(t *testing.T) {
	f := NewDatabaseFactory()
	_, err := f.CreateFromConfig(nil)
	assert.Error(t, err)

	_, err = f.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
	assert.Nil(t, f.GetDB())
	assert.NoError(t, f.Close())

	m, err := f.CreateFromConfig(&ConnectionConfig{Type: "sqlite"})
	require.NoError(t, err)
	assert.Same(t, m, f.GetManager())
}

func TestDialectDSN(t *testing.T) {
	cfg := &ConnectionConfig{Username: "u", Password: "p", Host: "h", Port: 1, DBName: "d", ConnectTimeout: 5 * time.Second}
	assert.Equal(t, "postgres://u:p@h:1/d?sslmode=disable&connect_timeout=5", dialects["postgres"].dsn(cfg))
	assert.Contains(t, dialects["mysql"].dsn(cfg), "u:p@tcp(h:1)/d?")
	assert.Equal(t, "d.db", dialects["sqlite"].dsn(cfg))
	assert.Equal(t, "file::memory:?cache=shared", dialects["sqlite3"].dsn(&ConnectionConfig{}))
	assert.Equal(t, []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"}, SupportedTypes())
}
