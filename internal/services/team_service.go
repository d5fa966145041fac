package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameRequired  = errors.New("team name cannot be empty")
	ErrNotTeamOwner      = errors.New("only the team owner can perform this action")
	ErrTeamMemberMissing = errors.New("user is not a member of this team")
	ErrCascadeIncomplete = errors.New("failed to delete every task of the removed member")
)

// TeamService provides business logic for team operations.
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	events   eventPublisher
}

// NewTeamService creates a new TeamService.
func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	broker realtime.Broker,
	log logrus.FieldLogger,
) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		taskRepo: taskRepo,
		events:   eventPublisher{broker: broker, log: log},
	}
}

// CreateTeam creates an empty team owned by an admin and records it on the
// owner's team list.
func (s *TeamService) CreateTeam(ctx context.Context, name, adminID string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	if _, err := requireAdmin(ctx, s.userRepo, adminID); err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:    name,
		AdminID: adminID,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if err := s.userRepo.AddTeamID(ctx, adminID, team.ID); err != nil {
		return nil, fmt.Errorf("failed to record team on owner: %w", err)
	}

	s.events.publish(ctx, realtime.EventTeamUpdated, team.ID, realtime.TeamTopic(team.ID))
	return team, nil
}

// JoinTeam adds the user to the team. Joining twice is a no-op.
func (s *TeamService) JoinTeam(ctx context.Context, teamID, userID string) (*models.Team, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.events.publish(ctx, realtime.EventTeamUpdated, team.ID, realtime.TeamTopic(team.ID))
	return team, nil
}

// RemoveMember deletes every task assigned to the member and then removes
// them from the team. Each task deletion is independent; if any fails the
// member stays on the team and one aggregate error is returned.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, actorID, userID string) error {
	team, err := s.ownedTeam(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	isMember, err := s.teamRepo.IsMember(ctx, team.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return ErrTeamMemberMissing
	}

	tasks, err := s.taskRepo.ListByAssignee(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list member tasks: %w", err)
	}

	var errs []error
	for i := range tasks {
		task := &tasks[i]
		if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		s.events.publish(ctx, realtime.EventTaskDeleted, task.ID, taskTopics(task)...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCascadeIncomplete, errors.Join(errs...))
	}

	if err := s.teamRepo.RemoveMember(ctx, team.ID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.events.publish(ctx, realtime.EventTeamMemberRemoved, userID, realtime.TeamTopic(team.ID))
	return nil
}

// DeleteTeam removes the team and its member list. Tasks of former members
// are kept.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, actorID string) error {
	team, err := s.ownedTeam(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	if err := s.userRepo.RemoveTeamID(ctx, team.AdminID, team.ID); err != nil {
		return fmt.Errorf("failed to remove team from owner: %w", err)
	}

	if err := s.teamRepo.Delete(ctx, team.ID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.events.publish(ctx, realtime.EventTeamDeleted, team.ID, realtime.TeamTopic(team.ID))
	return nil
}

// ListTeams lists the teams an admin owns or an employee has joined
func (s *TeamService) ListTeams(ctx context.Context, user *models.User) ([]models.Team, error) {
	var (
		teams []models.Team
		err   error
	)
	if user.IsAdmin() {
		teams, err = s.teamRepo.ListByAdmin(ctx, user.ID)
	} else {
		teams, err = s.teamRepo.ListByMember(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a team with its members
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	members, err := s.teamRepo.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	team.Members = members

	return team, nil
}

func (s *TeamService) findTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

func (s *TeamService) ownedTeam(ctx context.Context, teamID, actorID string) (*models.Team, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.AdminID != actorID {
		return nil, ErrNotTeamOwner
	}
	return team, nil
}
