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
	"sort"
	"time"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/utils"
)

// MigrationManager creates the tables of registered models and records the
// applied steps.
type MigrationManager struct {
	db          *bun.DB
	registry    ModelRegistry
	logger      Logger
	foreignKeys bool
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:quarry_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// NewMigrationManager constructs a MigrationManager for the models of
// registry. A nil registry selects the default registry.
func NewMigrationManager(db *bun.DB, registry ModelRegistry, logger Logger) *MigrationManager {
	if registry == nil {
		registry = defaultRegistry
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{db: db, registry: registry, logger: logger}
}

// WithForeignKeys declares the foreign keys of bun relations when tables are
// created.
func (mm *MigrationManager) WithForeignKeys(enabled bool) *MigrationManager {
	mm.foreignKeys = enabled
	return mm
}

// RunMigrations creates the migration tracking table if needed and executes
// the pending migrations in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if !utils.EnvDefaultBool("BUNDEBUG_MIGRATION", false) {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}

	RegisterWithDB(mm.db, mm.registry)
	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := []MigrationItem{{
		Version:     "001",
		Name:        "create_model_tables",
		Description: "Create tables of registered models",
		Up:          mm.createTables,
	}}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}
	mm.logger.Info("Database migrations completed!")
	return nil
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil || exists {
		return err
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createTables(ctx context.Context, db bun.IDB) error {
	for _, model := range Instances(mm.registry) {
		q := db.NewCreateTable().Model(model).IfNotExists()
		if mm.foreignKeys {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
