package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/testutil"
	"gorm.io/gorm"
)

type TeamServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	broker   *fakeBroker
	taskRepo repository.TaskRepository
	service  *TeamService
	admin    *models.User
	employee *models.User
}

func (suite *TeamServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.ctx = context.Background()
	suite.broker = &fakeBroker{}
	suite.taskRepo = repository.NewTaskRepository(suite.db)
	suite.service = suite.newService(suite.taskRepo)

	suite.admin = testutil.CreateUser(suite.T(), suite.db, "admin@example.com", models.RoleAdmin)
	suite.employee = testutil.CreateUser(suite.T(), suite.db, "emp@example.com", models.RoleEmployee)
}

func (suite *TeamServiceTestSuite) newService(taskRepo repository.TaskRepository) *TeamService {
	logger, _ := test.NewNullLogger()
	return NewTeamService(
		repository.NewTeamRepository(suite.db),
		repository.NewUserRepository(suite.db),
		taskRepo,
		suite.broker,
		logger,
	)
}

func (suite *TeamServiceTestSuite) createTeam() *models.Team {
	team, err := suite.service.CreateTeam(suite.ctx, "Audit", suite.admin.ID)
	suite.Require().NoError(err)
	return team
}

func (suite *TeamServiceTestSuite) assignTask(userID string) *models.Task {
	task := &models.Task{
		Title:       "task",
		Description: "desc",
		AssignedTo:  userID,
		AssignedBy:  suite.admin.ID,
		Status:      models.TaskStatusPending,
		Deadline:    time.Now().Add(time.Hour),
	}
	suite.Require().NoError(suite.taskRepo.Create(suite.ctx, task))
	return task
}

func (suite *TeamServiceTestSuite) countTasks(userID string) int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("assigned_to = ?", userID).Count(&count).Error)
	return count
}

func (suite *TeamServiceTestSuite) TestCreateTeam_RecordsOnOwner() {
	team := suite.createTeam()

	var owner models.User
	suite.Require().NoError(suite.db.Where("id = ?", suite.admin.ID).First(&owner).Error)
	assert.Equal(suite.T(), []string{team.ID}, []string(owner.TeamIDs))
	assert.Contains(suite.T(), suite.broker.topics(), realtime.TeamTopic(team.ID))

	got, err := suite.service.GetTeam(suite.ctx, team.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), got.Members)
}

func (suite *TeamServiceTestSuite) TestCreateTeam_Validation() {
	_, err := suite.service.CreateTeam(suite.ctx, "  ", suite.admin.ID)
	assert.ErrorIs(suite.T(), err, ErrTeamNameRequired)

	_, err = suite.service.CreateTeam(suite.ctx, "Audit", suite.employee.ID)
	assert.ErrorIs(suite.T(), err, ErrNotAdmin)
}

func (suite *TeamServiceTestSuite) TestJoinTeam_Idempotent() {
	team := suite.createTeam()

	for i := 0; i < 2; i++ {
		_, err := suite.service.JoinTeam(suite.ctx, team.ID, suite.employee.ID)
		suite.Require().NoError(err)
	}

	got, err := suite.service.GetTeam(suite.ctx, team.ID)
	suite.Require().NoError(err)
	suite.Require().Len(got.Members, 1)
	assert.Equal(suite.T(), suite.employee.ID, got.Members[0].UserID)

	teams, err := suite.service.ListTeams(suite.ctx, suite.employee)
	suite.Require().NoError(err)
	assert.Len(suite.T(), teams, 1)
}

func (suite *TeamServiceTestSuite) TestJoinTeam_UnknownTeam() {
	_, err := suite.service.JoinTeam(suite.ctx, "missing", suite.employee.ID)
	assert.ErrorIs(suite.T(), err, ErrTeamNotFound)
}

func (suite *TeamServiceTestSuite) TestRemoveMember_CascadesTasks() {
	team := suite.createTeam()
	_, err := suite.service.JoinTeam(suite.ctx, team.ID, suite.employee.ID)
	suite.Require().NoError(err)
	suite.assignTask(suite.employee.ID)
	suite.assignTask(suite.employee.ID)
	bystander := testutil.CreateUser(suite.T(), suite.db, "other@example.com", models.RoleEmployee)
	suite.assignTask(bystander.ID)

	suite.Require().NoError(suite.service.RemoveMember(suite.ctx, team.ID, suite.admin.ID, suite.employee.ID))

	assert.Zero(suite.T(), suite.countTasks(suite.employee.ID))
	assert.Equal(suite.T(), int64(1), suite.countTasks(bystander.ID))

	got, err := suite.service.GetTeam(suite.ctx, team.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), got.Members)
}

func (suite *TeamServiceTestSuite) TestRemoveMember_NotifiesAssignerAndTeam() {
	team := suite.createTeam()
	_, err := suite.service.JoinTeam(suite.ctx, team.ID, suite.employee.ID)
	suite.Require().NoError(err)
	task := suite.assignTask(suite.employee.ID)
	suite.broker.events = nil

	suite.Require().NoError(suite.service.RemoveMember(suite.ctx, team.ID, suite.admin.ID, suite.employee.ID))

	var deletedOn []string
	var removed *realtime.Event
	for _, p := range suite.broker.events {
		switch p.event.Type {
		case realtime.EventTaskDeleted:
			assert.Equal(suite.T(), task.ID, p.event.ID)
			deletedOn = append(deletedOn, p.topic)
		case realtime.EventTeamMemberRemoved:
			event := p.event
			removed = &event
			assert.Equal(suite.T(), realtime.TeamTopic(team.ID), p.topic)
		}
	}
	assert.ElementsMatch(suite.T(), []string{
		realtime.UserTasksTopic(suite.employee.ID),
		realtime.UserTasksTopic(suite.admin.ID),
	}, deletedOn)
	suite.Require().NotNil(removed)
	assert.Equal(suite.T(), suite.employee.ID, removed.ID)
}

func (suite *TeamServiceTestSuite) TestRemoveMember_PartialCascadeFailureKeepsMember() {
	team := suite.createTeam()
	_, err := suite.service.JoinTeam(suite.ctx, team.ID, suite.employee.ID)
	suite.Require().NoError(err)
	kept := suite.assignTask(suite.employee.ID)
	suite.assignTask(suite.employee.ID)

	service := suite.newService(&failingTaskRepo{
		TaskRepository: suite.taskRepo,
		failIDs:        map[string]bool{kept.ID: true},
	})

	err = service.RemoveMember(suite.ctx, team.ID, suite.admin.ID, suite.employee.ID)
	suite.Require().Error(err)
	assert.True(suite.T(), errors.Is(err, ErrCascadeIncomplete))
	assert.True(suite.T(), errors.Is(err, errStoreUnavailable))

	assert.Equal(suite.T(), int64(1), suite.countTasks(suite.employee.ID))
	got, err := suite.service.GetTeam(suite.ctx, team.ID)
	suite.Require().NoError(err)
	assert.Len(suite.T(), got.Members, 1)
}

func (suite *TeamServiceTestSuite) TestRemoveMember_Guards() {
	team := suite.createTeam()

	err := suite.service.RemoveMember(suite.ctx, team.ID, suite.employee.ID, suite.employee.ID)
	assert.ErrorIs(suite.T(), err, ErrNotTeamOwner)

	suite.assignTask(suite.employee.ID)
	err = suite.service.RemoveMember(suite.ctx, team.ID, suite.admin.ID, suite.employee.ID)
	assert.ErrorIs(suite.T(), err, ErrTeamMemberMissing)
	assert.Equal(suite.T(), int64(1), suite.countTasks(suite.employee.ID))
}

func (suite *TeamServiceTestSuite) TestDeleteTeam_KeepsTasks() {
	team := suite.createTeam()
	_, err := suite.service.JoinTeam(suite.ctx, team.ID, suite.employee.ID)
	suite.Require().NoError(err)
	suite.assignTask(suite.employee.ID)

	err = suite.service.DeleteTeam(suite.ctx, team.ID, suite.employee.ID)
	assert.ErrorIs(suite.T(), err, ErrNotTeamOwner)

	suite.Require().NoError(suite.service.DeleteTeam(suite.ctx, team.ID, suite.admin.ID))

	_, err = suite.service.GetTeam(suite.ctx, team.ID)
	assert.ErrorIs(suite.T(), err, ErrTeamNotFound)
	assert.Equal(suite.T(), int64(1), suite.countTasks(suite.employee.ID))

	var owner models.User
	suite.Require().NoError(suite.db.Where("id = ?", suite.admin.ID).First(&owner).Error)
	assert.Empty(suite.T(), owner.TeamIDs)

	teams, err := suite.service.ListTeams(suite.ctx, suite.admin)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), teams)
}

func TestTeamServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TeamServiceTestSuite))
}
