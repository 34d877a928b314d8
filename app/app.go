package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"transcription-service/ddd/adapter/component"
	healthGrpc "transcription-service/ddd/adapter/grpc"
	videoHttp "transcription-service/ddd/adapter/http"
	videoApp "transcription-service/ddd/application/app"
	"transcription-service/ddd/domain/gateway"
	"transcription-service/ddd/domain/repo"
	"transcription-service/ddd/domain/service"
	"transcription-service/ddd/infrastructure/database/persistence"
	"transcription-service/ddd/infrastructure/event"
	"transcription-service/ddd/infrastructure/lock"
	"transcription-service/ddd/infrastructure/storage"
	"transcription-service/ddd/infrastructure/transcriber"
	"transcription-service/internal/resource"
	"transcription-service/pkg/config"
	"transcription-service/pkg/logger"
	"transcription-service/pkg/manager"
	"transcription-service/pkg/registry"
	"transcription-service/pkg/task"
)

// infra 已打开的外部资源，未启用的为 nil
type infra struct {
	db        *gorm.DB
	redis     redis.UniversalClient
	storage   gateway.StorageGateway
	events    gateway.EventPublisher
	discovery *registry.ServiceDiscovery
}

// container 组装完成的服务
type container struct {
	videoApp videoApp.VideoApp
	service  service.TranscriptionService
	router   *videoHttp.Router
	health   *healthGrpc.HealthServer
	reaper   task.BackgroundTask
}

func Run() {
	fmt.Println("[STARTUP] Starting transcription service...")

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})

	logger.Infof("Initializing resource manager...")
	manager.MustInitResources()
	defer manager.CloseResources()

	in, err := openInfra(cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to prepare infrastructure error=%v", err))
	}
	if in.discovery != nil {
		defer in.discovery.Close()
	}

	c, err := assemble(cfg, in)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to assemble services error=%v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task.Register(c.reaper)
	task.Register(task.NewPeriodicTask("healthRefresher", 15*time.Second, c.health.Refresh))
	if err := task.StartAll(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start background tasks error=%v", err))
	}

	// gRPC 健康检查
	grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPCServer.Host, cfg.GRPCServer.Port)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to listen on gRPC port address=%s error=%v", grpcAddr, err))
	}
	grpcServer := grpc.NewServer()
	c.health.Register(grpcServer)
	go func() {
		logger.Infof("gRPC server started address=%s", grpcAddr)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Errorf("gRPC server encountered an error error=%v", err)
		}
	}()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()
	c.router.SetupMiddleware(engine)
	c.router.SetupRoutes(engine)

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         httpAddr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started address=%s api_url=%s", httpAddr, "/api/v1/videos")

	var serviceRegistry *registry.ServiceRegistry
	if cfg.ServiceRegistry.Enabled {
		serviceRegistry, err = registry.NewServiceRegistry(cfg.Registry, cfg.ServiceRegistry, advertiseAddr(cfg))
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to create service registry error=%v", err))
		}
		if err := serviceRegistry.Register(); err != nil {
			logger.Fatal(fmt.Sprintf("Failed to register service error=%v", err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	if serviceRegistry != nil {
		if err := serviceRegistry.Deregister(); err != nil {
			logger.Warnf("Failed to deregister service error=%v", err)
		}
	}

	c.health.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}

	cancel()
	task.StopAll()

	logger.Infof("Server exited safely")
	logService.Close()
	fmt.Println("[SHUTDOWN] Transcription service exited safely")
}

// openInfra 从资源管理器取出已打开的连接
func openInfra(cfg *config.Config) (infra, error) {
	in := infra{db: resource.DefaultDatabaseResource().MainDB()}

	if rr := resource.DefaultRedisResource(); rr.Enabled() {
		in.redis = rr.Client()
	}

	mr := resource.DefaultMinioResource()
	in.storage = storage.NewMinioStorage(mr.GetClient(), mr.GetBucketName(), mr.PresignExpiry())

	if kr := resource.DefaultKafkaResource(); kr.Enabled() {
		in.events = event.NewKafkaPublisher(kr.Client(), cfg.Kafka.Topics.VideoEvents)
	}

	if cfg.Transcription.BaseURL == "" && cfg.Transcription.ServiceName != "" {
		sd, err := registry.NewServiceDiscovery(cfg.Registry)
		if err != nil {
			return infra{}, fmt.Errorf("service discovery: %w", err)
		}
		in.discovery = sd
	}
	return in, nil
}

// assemble 按配置组装仓储、领域服务、应用服务与适配器
func assemble(cfg *config.Config, in infra) (*container, error) {
	videoRepo, err := newVideoRepository(cfg, in.db)
	if err != nil {
		return nil, err
	}
	if in.storage == nil {
		return nil, errors.New("storage is not configured")
	}

	var resolver transcriber.EndpointResolver
	switch {
	case cfg.Transcription.BaseURL != "":
		resolver = transcriber.StaticEndpoint(cfg.Transcription.BaseURL)
	case in.discovery != nil:
		resolver = transcriber.NewDiscoveryEndpoint(in.discovery, cfg.Transcription.ServiceName)
	default:
		return nil, errors.New("transcription.base_url or transcription.service_name is required")
	}
	tr := transcriber.NewHTTPTranscriber(resolver, cfg.Transcription.APIKey, &http.Client{})

	var processingLock gateway.ProcessingLock = lock.NopLock{}
	if cfg.Transcription.Lock.Enabled && in.redis != nil {
		processingLock = lock.NewRedisLock(in.redis)
	}

	var events gateway.EventPublisher = event.NopPublisher{}
	if in.events != nil {
		events = in.events
	}

	svc := service.NewTranscriptionService(videoRepo, in.storage, tr, processingLock, events, service.TranscriptionOptions{
		Timeout:    cfg.Transcription.Timeout,
		StaleAfter: cfg.Transcription.StaleAfter,
		LockGrace:  cfg.Transcription.Lock.Grace,
	})
	va := videoApp.NewVideoAppWith(videoRepo, in.storage, svc, events, videoApp.VideoAppOptions{
		MaxFileSize: cfg.Upload.MaxFileSize,
		KeyPrefix:   cfg.Upload.KeyPrefix,
	})

	checks := map[string]healthGrpc.HealthCheck{}
	if in.db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := in.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if in.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return in.redis.Ping(ctx).Err()
		}
	}

	return &container{
		videoApp: va,
		service:  svc,
		router:   videoHttp.NewRouter(va, cfg.Upload.MaxFileSize, cfg.JWT.Secret, cfg.JWT.Issuer),
		health:   healthGrpc.NewHealthServer(checks, 3*time.Second),
		reaper:   component.NewStaleProcessingReaper(svc, cfg.Transcription.ReapEvery),
	}, nil
}

func newVideoRepository(cfg *config.Config, db *gorm.DB) (repo.VideoRepository, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warnf("Using in-memory video repository, data is lost on restart")
		return persistence.NewMemoryVideoRepository(nil), nil
	}
	if db == nil {
		return nil, fmt.Errorf("database driver %q is not connected", cfg.Database.Driver)
	}
	return persistence.NewVideoRepository(db), nil
}

// advertiseAddr 注册到 etcd 的 HTTP 地址
func advertiseAddr(cfg *config.Config) string {
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host = cfg.Server.Host
	}
	if host == "" || host == "0.0.0.0" {
		if h, err := os.Hostname(); err == nil {
			host = h
		}
	}
	return fmt.Sprintf("%s:%d", host, cfg.Server.Port)
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
