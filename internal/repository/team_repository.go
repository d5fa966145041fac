package repository

import (
	"context"

	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team
func (r *GormTeamRepository) Create(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Omit("Members").Create(team).Error
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Delete deletes a team and its member list in a transaction. Tasks of the
// members are left untouched.
func (r *GormTeamRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&models.Team{}).Error
	})
}

// AddMember adds a member to a team with set-union semantics
func (r *GormTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).
		Omit("Team", "User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member).Error
}

// RemoveMember removes a member from a team
func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error
}

// IsMember reports whether the user belongs to the team
func (r *GormTeamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListMembers lists all members of a team
func (r *GormTeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListByAdmin lists the teams owned by an admin
func (r *GormTeamRepository) ListByAdmin(ctx context.Context, adminID string) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at ASC").
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ListByMember lists the teams a user has joined
func (r *GormTeamRepository) ListByMember(ctx context.Context, userID string) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.created_at ASC").
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}
