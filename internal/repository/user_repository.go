package repository

import (
	"context"
	"slices"

	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole lists users holding the given role
func (r *GormUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// PromotePending promotes a pending user. The role condition makes a second
// promotion of the same user a no-op.
func (r *GormUserRepository) PromotePending(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RolePending).
		Updates(map[string]interface{}{
			"role":  models.RoleAdmin,
			"admin": true,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddTeamID appends a team ID to the user's team list. The read-modify-write
// is not transactional.
func (r *GormUserRepository) AddTeamID(ctx context.Context, userID, teamID string) error {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if slices.Contains(user.TeamIDs, teamID) {
		return nil
	}
	teamIDs := append(datatypes.JSONSlice[string]{}, user.TeamIDs...)
	teamIDs = append(teamIDs, teamID)
	return r.db.WithContext(ctx).Model(user).Update("team_ids", teamIDs).Error
}

// RemoveTeamID removes a team ID from the user's team list
func (r *GormUserRepository) RemoveTeamID(ctx context.Context, userID, teamID string) error {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	teamIDs := make(datatypes.JSONSlice[string], 0, len(user.TeamIDs))
	for _, id := range user.TeamIDs {
		if id != teamID {
			teamIDs = append(teamIDs, id)
		}
	}
	return r.db.WithContext(ctx).Model(user).Update("team_ids", teamIDs).Error
}
