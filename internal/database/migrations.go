package database

import (
	"fmt"

	"github.com/aonuma/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// Migrate runs schema migrations and adds secondary indexes.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Task{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return addIndexes(DB)
}

// addIndexes creates the indexes the task list query depends on.
func addIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		{&models.Task{}, "tasks", "idx_tasks_user_id", "user_id"},
		{&models.Task{}, "tasks", "idx_tasks_due_date", "due_date"},
		{&models.Task{}, "tasks", "idx_tasks_priority", "priority"},
		{&models.Task{}, "tasks", "idx_tasks_status", "status"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
