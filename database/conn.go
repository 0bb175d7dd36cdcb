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
	"sync"
	"time"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
)

// GetDB returns the global Bun database instance, or nil before InitDB.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil {
		return nil
	}
	return globalFactory.GetDB()
}

// InitDB connects the global database described by cfg and, when enabled,
// creates the tables of the models in registry.
func InitDB(ctx context.Context, cfg *Config, registry ModelRegistry) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if registry == nil {
		registry = defaultRegistry
	}
	factory := NewDatabaseFactory()
	if _, err := factory.CreateFromConfig(&cfg.Connection); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx, registry, cfg.Migrate); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := factory.GetDB()
	RegisterWithDB(db, registry)

	globalMu.Lock()
	globalFactory = factory
	globalMu.Unlock()
	return db, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalFactory == nil {
		return nil
	}
	err := globalFactory.Close()
	globalFactory = nil
	return err
}

// GetHealthStatus returns the current health of the global database.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory == nil || factory.GetManager() == nil {
		return &HealthStatus{LastError: "Database not initialized", LastCheckTime: time.Now()}
	}
	return factory.GetManager().HealthCheck(ctx)
}

// GetDatabaseStats returns connection statistics of the global database.
func GetDatabaseStats() *DBStats {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory == nil || factory.GetManager() == nil {
		return &DBStats{}
	}
	return factory.GetManager().GetStats()
}
