package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"marblerail/config"
	"marblerail/level"
	"marblerail/server"
)

// MarbleRail 入口：启动 HTTP + WebSocket 服务，并初始化房间管理器
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "marblerail",
		Short: "Authoritative marble party server with rail grinding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, configFile)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.BindFlags(cmd.Flags())

	cmd.AddCommand(newValidateLevelCmd())
	return cmd
}

func newValidateLevelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-level <file>",
		Short: "Parse a level file and report its rails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := level.Load(args[0])
			if err != nil {
				return err
			}
			for _, d := range l.Rails {
				cmd.Printf("%-16s %6.1f units  %d points\n", d.ID, d.Curve().Length(), len(d.Points))
			}
			cmd.Printf("level %q ok: %d rails\n", l.Name, len(l.Rails))
			return nil
		},
	}
}

// loadSettings 合并配置（默认值 → 配置文件 → 命令行）并加载关卡
func loadSettings(cmd *cobra.Command, configFile string) (config.Config, *level.Level, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	if cfg.LevelFile == "" {
		return cfg, level.Default(), nil
	}
	lvl, err := level.Load(cfg.LevelFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, lvl, nil
}

func runServe(cmd *cobra.Command, configFile string) error {
	cfg, lvl, err := loadSettings(cmd, configFile)
	if err != nil {
		return err
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer server.SyncLogger()

	server.Configure(server.RoomOptions{
		TicksPerSecond:   cfg.TicksPerSecond,
		BroadcastEvery:   cfg.BroadcastEvery,
		MaxInputsPerTick: cfg.MaxInputsPerTick,
		AutoAttach:       cfg.AutoAttach,
		Tuning:           cfg.Grind,
		Level:            lvl,
	})
	rm := server.GetRoomManager()
	rm.SetDefaultRoom(cfg.DefaultRoom)
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom(cfg.DefaultRoom)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server.RegisterMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 大厅、管理与监控接口
	mux.HandleFunc("/rooms", rm.HandleRooms)
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.Handle("/metrics/prom", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		server.Log.Infof("MarbleRail listening on %s; level=%q rails=%d", cfg.Addr, lvl.Name, len(lvl.Rails))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		server.Log.Errorw("listen", "err", err)
		return err
	}
	server.Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	rm.StopAll()
	return nil
}
