// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. The pool is pinned to a
// single connection so every query sees the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskComment{},
		&models.Team{},
		&models.TeamMember{},
		&models.ChatMessage{},
	)
	require.NoError(t, err)

	return db
}

// CreateUser inserts a user with the given role
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		Name:         email,
		PasswordHash: "hashedpassword",
		Role:         role,
		Admin:        role == models.RoleAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
