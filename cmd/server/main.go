package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal"
	"github.com/MohamedRoshdi/devflow-sub024/internal/handler"
	"github.com/MohamedRoshdi/devflow-sub024/internal/security"
	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/MohamedRoshdi/devflow-sub024/internal/settings"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	internal.InitializeConfiguration()
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()

	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, internal.MigrationsDir)

	scheduler := service.NewScheduler()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Println("err shutting down scheduler: ", err)
		}
	}()

	projectStore := store.NewProjectSQLiteStore(rdb, rwdb)
	runStore := store.NewRunSQLiteStore(rdb, rwdb)
	stageStore := store.NewStageSQLiteStore(rdb, rwdb)
	stageRunStore := store.NewStageRunSQLiteStore(rdb, rwdb)
	deploymentStore := store.NewDeploymentSQLiteStore(rdb, rwdb)
	credentialStore := store.NewCredentialSQLiteStore(rdb, rwdb)
	serverStore := store.NewServerSQLiteStore(rdb, rwdb)

	aesEncrypter := security.NewAESEncrypter(security.NewHashKey())
	credentialSvc := service.NewCredentialService(credentialStore, aesEncrypter)
	serverSvc := service.NewServerService(serverStore, credentialSvc)

	providerClient := &http.Client{
		Timeout: time.Duration(internal.Config.ProviderRequestSeconds),
	}
	broadcaster := service.NewBroadcaster(nil)
	orchestrator := service.NewOrchestrator(
		projectStore,
		runStore,
		stageStore,
		stageRunStore,
		deploymentStore,
		service.NewSSHStageExecutor(),
		broadcaster,
		providerClient,
		aesEncrypter,
	).WithArtifactCollector(service.NewSFTPArtifactCollector())

	pipelineSvc := service.NewPipelineService(
		projectStore,
		runStore,
		stageStore,
		stageRunStore,
		deploymentStore,
		scheduler,
		orchestrator,
		broadcaster,
	)
	if err := pipelineSvc.InitializeRunQueues(context.Background()); err != nil {
		log.Fatal(err)
	}
	if err := pipelineSvc.InitializeSchedules(context.Background()); err != nil {
		log.Fatal(err)
	}
	defer pipelineSvc.ShutdownAll()
	scheduler.Start()

	e := setupEcho()
	api := e.Group("/api")
	handler.SetupProjectRoutes(api, pipelineSvc, aesEncrypter)
	handler.SetupRunRoutes(api, pipelineSvc)
	handler.SetupCredentialRoutes(api, credentialSvc)
	handler.SetupServerRoutes(api, serverSvc)

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}
