package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/issuetracker/tracker/config"
	"github.com/issuetracker/tracker/internal/client"
	"github.com/issuetracker/tracker/internal/handler"
	"github.com/issuetracker/tracker/internal/router"
	"github.com/issuetracker/tracker/internal/session"
	"github.com/issuetracker/tracker/internal/view"
)

func main() {
	// 初始化 klog，-v 等参数通过 pflag 一并解析
	klog.InitFlags(nil)
	configPath := pflag.String("config", "", "配置文件路径（yaml 或 toml），默认读取 CONFIG_PATH")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	defer klog.Flush()

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}
	cfg := config.GetConfig()

	issues, err := client.New(cfg.API)
	if err != nil {
		log.Fatalf("Failed to create issues API client: %v", err)
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := issues.Ping(pingCtx); err != nil {
		klog.Warningf("issues API 暂不可用: %s, error=%v", issues.BaseURL(), err)
	}
	cancelPing()

	// 每个浏览器会话一个 Shell
	sessions := session.NewStore(func() *view.Shell {
		return view.NewShell(issues, cfg.UI.DefaultPageSize)
	}, cfg.UI.SessionTTL.Duration)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.Run(ctx, time.Minute)
	defer sessions.Close()

	r, err := router.SetupWeb(cfg, handler.NewPageHandler(sessions, cfg.UI))
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	log.Printf("Server starting on port %s, issues API %s ...", cfg.Server.Port, issues.BaseURL())
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
