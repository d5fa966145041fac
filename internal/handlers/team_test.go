package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-task-api/internal/dto"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/testutil"
)

type TeamHandlerTestSuite struct {
	suite.Suite
	env      *testEnv
	admin    *models.User
	employee *models.User
	outsider *models.User
}

func (suite *TeamHandlerTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T(), nil)
	suite.admin = testutil.CreateUser(suite.T(), suite.env.db, "admin@example.com", models.RoleAdmin)
	suite.employee = testutil.CreateUser(suite.T(), suite.env.db, "u1@example.com", models.RoleEmployee)
	suite.outsider = testutil.CreateUser(suite.T(), suite.env.db, "u2@example.com", models.RoleEmployee)
}

func (suite *TeamHandlerTestSuite) createTeam(name string) dto.TeamDTO {
	w := suite.env.do(http.MethodPost, "/api/teams", map[string]string{"name": name}, suite.admin)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var team dto.TeamDTO
	decode(suite.T(), w, &team)
	return team
}

func (suite *TeamHandlerTestSuite) join(teamID string, user *models.User) {
	w := suite.env.do(http.MethodPost, "/api/teams/"+teamID+"/join", nil, user)
	suite.Require().Equal(http.StatusOK, w.Code)
}

func (suite *TeamHandlerTestSuite) TestCreateTeam() {
	team := suite.createTeam("Platform")
	assert.Equal(suite.T(), "Platform", team.Name)
	assert.Equal(suite.T(), suite.admin.ID, team.Admin)

	var owner models.User
	suite.Require().NoError(suite.env.db.Where("id = ?", suite.admin.ID).First(&owner).Error)
	assert.Contains(suite.T(), []string(owner.TeamIDs), team.ID)

	w := suite.env.do(http.MethodPost, "/api/teams", map[string]string{"name": "Nope"}, suite.employee)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.env.do(http.MethodPost, "/api/teams", map[string]string{"name": "  "}, suite.admin)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TeamHandlerTestSuite) TestJoinAndGetTeam() {
	team := suite.createTeam("Platform")
	suite.join(team.ID, suite.employee)
	// Joining twice is a no-op
	suite.join(team.ID, suite.employee)

	w := suite.env.do(http.MethodGet, "/api/teams/"+team.ID, nil, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail dto.TeamDetailDTO
	decode(suite.T(), w, &detail)
	suite.Require().Len(detail.Employees, 1)
	assert.Equal(suite.T(), suite.employee.ID, detail.Employees[0].User.ID)

	w = suite.env.do(http.MethodGet, "/api/teams/"+team.ID, nil, suite.outsider)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.env.do(http.MethodPost, "/api/teams/missing/join", nil, suite.employee)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TeamHandlerTestSuite) TestListTeams() {
	team := suite.createTeam("Platform")
	suite.createTeam("Design")
	suite.join(team.ID, suite.employee)

	w := suite.env.do(http.MethodGet, "/api/teams", nil, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code)
	var owned struct {
		Teams []dto.TeamDTO `json:"teams"`
	}
	decode(suite.T(), w, &owned)
	assert.Len(suite.T(), owned.Teams, 2)

	w = suite.env.do(http.MethodGet, "/api/teams", nil, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code)
	var joined struct {
		Teams []dto.TeamDTO `json:"teams"`
	}
	decode(suite.T(), w, &joined)
	suite.Require().Len(joined.Teams, 1)
	assert.Equal(suite.T(), team.ID, joined.Teams[0].ID)
}

func (suite *TeamHandlerTestSuite) TestRemoveMember_DeletesTheirTasks() {
	team := suite.createTeam("Platform")
	suite.join(team.ID, suite.employee)
	suite.env.createTask(suite.T(), suite.admin, suite.employee)
	suite.env.createTask(suite.T(), suite.admin, suite.employee)
	kept := suite.env.createTask(suite.T(), suite.admin, suite.outsider)

	// Members cannot remove each other
	w := suite.env.do(http.MethodDelete, "/api/teams/"+team.ID+"/members/"+suite.employee.ID, nil, suite.employee)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.env.do(http.MethodDelete, "/api/teams/"+team.ID+"/members/"+suite.employee.ID, nil, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code)

	var remaining []models.Task
	suite.Require().NoError(suite.env.db.Find(&remaining).Error)
	suite.Require().Len(remaining, 1)
	assert.Equal(suite.T(), kept.ID, remaining[0].ID)

	detail, err := suite.env.teamService.GetTeam(context.Background(), team.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), detail.Members)

	w = suite.env.do(http.MethodDelete, "/api/teams/"+team.ID+"/members/"+suite.employee.ID, nil, suite.admin)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TeamHandlerTestSuite) TestDeleteTeam_KeepsTasks() {
	team := suite.createTeam("Platform")
	suite.join(team.ID, suite.employee)
	task := suite.env.createTask(suite.T(), suite.admin, suite.employee)

	w := suite.env.do(http.MethodDelete, "/api/teams/"+team.ID, nil, suite.employee)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.env.do(http.MethodDelete, "/api/teams/"+team.ID, nil, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.env.do(http.MethodGet, "/api/teams/"+team.ID, nil, suite.admin)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.env.do(http.MethodGet, "/api/tasks/"+task.ID, nil, suite.employee)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func TestTeamHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TeamHandlerTestSuite))
}
