package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/issuetracker/tracker/config"
	"github.com/issuetracker/tracker/internal/apidoc"
	"github.com/issuetracker/tracker/internal/handler"
	"github.com/issuetracker/tracker/internal/pkg/database"
	"github.com/issuetracker/tracker/internal/repository"
	"github.com/issuetracker/tracker/internal/router"
	"github.com/issuetracker/tracker/internal/service"
)

func main() {
	klog.InitFlags(nil)
	configPath := pflag.String("config", "", "配置文件路径（yaml 或 toml），默认读取 CONFIG_PATH")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	defer klog.Flush()

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}
	cfg := config.GetConfig()
	ctx := context.Background()

	repo, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	if err := repository.Seed(ctx, repo); err != nil {
		log.Fatalf("Failed to seed issues: %v", err)
	}

	doc, err := apidoc.Load(ctx, cfg.APIServer.MaxPageSize)
	if err != nil {
		log.Fatalf("Failed to load OpenAPI document: %v", err)
	}

	issueService := service.NewIssueService(repo, cfg.APIServer.MaxPageSize)
	r := router.SetupAPI(cfg, handler.NewIssueHandler(issueService, doc))

	log.Printf("Issues API starting on port %s (store=%s)...", cfg.APIServer.Port, cfg.APIServer.Store)
	if err := r.Run(":" + cfg.APIServer.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openRepository 按配置选择 gorm 或 JSON 文件存储
func openRepository(cfg *config.Config) (repository.IssueRepository, error) {
	if cfg.APIServer.Store == "json" {
		klog.V(6).Infof("使用 JSON 文件存储: %s", cfg.APIServer.DataDir)
		return repository.NewFileIssueRepository(cfg.APIServer.DataDir)
	}
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return repository.NewIssueRepository(db), nil
}
