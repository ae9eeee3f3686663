package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type deploymentSQLiteStoreSuite struct {
	deploymentStore *DeploymentSQLiteStore
	projectStore    *ProjectSQLiteStore
	db              *sql.DB
	project         *Project
	suite.Suite
}

func TestDeploymentSQLiteStore(t *testing.T) {
	suite.Run(t, new(deploymentSQLiteStoreSuite))
}

func (suite *deploymentSQLiteStoreSuite) SetupSuite() {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	suite.db = db
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		log.Fatal(err)
	}

	RunMigrations(db, "../../migrations")

	suite.deploymentStore = NewDeploymentSQLiteStore(db, db)
	suite.projectStore = NewProjectSQLiteStore(db, db)
	p, err := suite.projectStore.CreateProject(
		context.Background(),
		&Project{
			Slug:       "deployment-project",
			Name:       "deploymentproject",
			Repository: "git@github.com:acme/web-app.git",
			Branch:     "main",
			Provider:   ProviderCustom,
		},
	)
	if err != nil {
		log.Fatal(err)
	}
	suite.project = p
}

func (suite *deploymentSQLiteStoreSuite) TearDownSuite() {
	_ = suite.db.Close()
}

func (suite *deploymentSQLiteStoreSuite) newProject(slug string) *Project {
	p, err := suite.projectStore.CreateProject(
		context.Background(),
		&Project{
			Slug:       slug,
			Name:       slug,
			Repository: "git@github.com:acme/web-app.git",
			Branch:     "main",
			Provider:   ProviderCustom,
		},
	)
	suite.NoError(err)
	return p
}

func (suite *deploymentSQLiteStoreSuite) TestDeploymentSQLiteStore_CreateDeployment() {
	suite.Run("success - deployment created pending", func() {
		// act
		d, err := suite.deploymentStore.CreateDeployment(
			context.Background(),
			suite.project.ProjectID,
			"abc123",
			"main",
			TriggerManual,
			nil,
		)

		// assert
		suite.NoError(err)
		suite.NotNil(d)
		suite.Equal(DeploymentPending, d.Status)
		suite.Equal("abc123", d.CommitHash)
	})
}

func (suite *deploymentSQLiteStoreSuite) TestDeploymentSQLiteStore_UpdateDeploymentStatus() {
	suite.Run("success - deployment marked successful", func() {
		// arrange
		d, err := suite.deploymentStore.CreateDeployment(
			context.Background(), suite.project.ProjectID, "def456", "main", TriggerManual, nil,
		)
		suite.NoError(err)

		// act
		err = suite.deploymentStore.UpdateDeploymentStatus(
			context.Background(), d.DeploymentID, DeploymentSuccess,
		)

		// assert
		suite.NoError(err)
		found, err := suite.deploymentStore.ReadDeploymentByID(context.Background(), d.DeploymentID)
		suite.NoError(err)
		suite.Equal(DeploymentSuccess, found.Status)
	})
}

func (suite *deploymentSQLiteStoreSuite) TestDeploymentSQLiteStore_ReadLastSuccessfulDeploymentBefore() {
	suite.Run("success - latest successful deployment before the given one", func() {
		// arrange
		p := suite.newProject("rollback-target-project")
		first, err := suite.deploymentStore.CreateDeployment(
			context.Background(), p.ProjectID, "commit1", "main", TriggerManual, nil,
		)
		suite.NoError(err)
		suite.NoError(suite.deploymentStore.UpdateDeploymentStatus(
			context.Background(), first.DeploymentID, DeploymentSuccess,
		))
		second, err := suite.deploymentStore.CreateDeployment(
			context.Background(), p.ProjectID, "commit2", "main", TriggerManual, nil,
		)
		suite.NoError(err)
		suite.NoError(suite.deploymentStore.UpdateDeploymentStatus(
			context.Background(), second.DeploymentID, DeploymentSuccess,
		))
		third, err := suite.deploymentStore.CreateDeployment(
			context.Background(), p.ProjectID, "commit3", "main", TriggerManual, nil,
		)
		suite.NoError(err)
		suite.NoError(suite.deploymentStore.UpdateDeploymentStatus(
			context.Background(), third.DeploymentID, DeploymentFailed,
		))

		// act
		target, err := suite.deploymentStore.ReadLastSuccessfulDeploymentBefore(
			context.Background(), p.ProjectID, third.DeploymentID,
		)

		// assert
		suite.NoError(err)
		suite.Equal(second.DeploymentID, target.DeploymentID)
		suite.Equal("commit2", target.CommitHash)
	})
	suite.Run("success - failed deployments are never rollback targets", func() {
		// arrange
		p := suite.newProject("rollback-failed-project")
		d, err := suite.deploymentStore.CreateDeployment(
			context.Background(), p.ProjectID, "commit1", "main", TriggerManual, nil,
		)
		suite.NoError(err)
		suite.NoError(suite.deploymentStore.UpdateDeploymentStatus(
			context.Background(), d.DeploymentID, DeploymentFailed,
		))

		// act
		target, err := suite.deploymentStore.ReadLastSuccessfulDeploymentBefore(
			context.Background(), p.ProjectID, math.MaxInt64,
		)

		// assert
		suite.Error(err)
		suite.True(errors.Is(err, sql.ErrNoRows))
		suite.Nil(target)
	})
	suite.Run("failure - no deployments at all", func() {
		// arrange
		p := suite.newProject("rollback-empty-project")

		// act
		target, err := suite.deploymentStore.ReadLastSuccessfulDeploymentBefore(
			context.Background(), p.ProjectID, math.MaxInt64,
		)

		// assert
		suite.True(errors.Is(err, sql.ErrNoRows))
		suite.Nil(target)
	})
}

func (suite *deploymentSQLiteStoreSuite) TestDeploymentSQLiteStore_ListProjectDeployments() {
	suite.Run("success - deployments listed", func() {
		// arrange
		p := suite.newProject("list-deployments-project")
		_, err := suite.deploymentStore.CreateDeployment(
			context.Background(), p.ProjectID, "commit1", "main", TriggerSchedule, nil,
		)
		suite.NoError(err)

		// act
		deployments, err := suite.deploymentStore.ListProjectDeployments(
			context.Background(), p.ProjectID,
		)

		// assert
		suite.NoError(err)
		suite.Len(deployments, 1)
		suite.Equal(TriggerSchedule, deployments[0].TriggerSource)
	})
}
