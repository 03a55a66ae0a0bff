// BanBiao 护士排班引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/banbiao/banbiao/internal/config"
	"github.com/banbiao/banbiao/internal/database"
	"github.com/banbiao/banbiao/internal/handler"
	"github.com/banbiao/banbiao/internal/holiday"
	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/google/uuid"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	format := "console"
	if cfg.IsProduction() {
		format = "json"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: format,
	})

	// 打印版本信息
	fmt.Printf("BanBiao 护士排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 连接数据库
	// 连接失败时降级为无存储模式：排班计算仍可用，保存与发布不可用
	var db *database.DB
	var scheduleRepo *repository.ScheduleRepository
	var orgRepo *repository.OrganizationRepository
	var nurseRepo *repository.NurseRepository
	var swapRepo *repository.SwapRequestRepository
	if d, err := database.New(&cfg.Database); err != nil {
		logger.Warn().Err(err).Msg("数据库连接失败，以无存储模式运行")
	} else {
		db = d
		defer db.Close()
		scheduleRepo = repository.NewScheduleRepository(db)
		orgRepo = repository.NewOrganizationRepository(db)
		nurseRepo = repository.NewNurseRepository(db)
		swapRepo = repository.NewSwapRequestRepository(db)
	}

	// 节假日服务
	holidays := holiday.NewService(os.Getenv("HOLIDAY_COUNTRY"))

	// 创建处理器
	rosterHandler := handler.NewRosterHandler(cfg.Scheduler, holidays, scheduleRepo, orgRepo, nurseRepo)
	statsHandler := handler.NewStatsHandler()
	swapHandler := handler.NewSwapHandler(swapRepo)
	orgHandler := handler.NewOrgHandler(db, orgRepo)
	nurseHandler := handler.NewNurseHandler(nurseRepo)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		dbStatus := "disabled"
		if db != nil {
			dbStatus = "ok"
			if err := db.Health(r.Context()); err != nil {
				dbStatus = "error"
			}
			s := db.Stats()
			metrics.SetDBConnections("open", s.OpenConnections)
			metrics.SetDBConnections("idle", s.Idle)
			metrics.SetDBConnections("in_use", s.InUse)
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"banbiao","database":"%s"}`, dbStatus)
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "BanBiao 护士排班引擎 API v1",
			"endpoints": {
				"roster": {
					"generate": "POST /api/v1/roster/generate",
					"validate": "POST /api/v1/roster/validate",
					"audit": "POST /api/v1/roster/audit",
					"publish": "POST /api/v1/roster/publish",
					"rules": "GET /api/v1/roster/rules",
					"schedule": "GET /api/v1/roster/schedule",
					"schedules": "GET /api/v1/roster/schedules",
					"update": "POST /api/v1/roster/update",
					"delete": "POST /api/v1/roster/delete"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage",
					"charge": "POST /api/v1/stats/charge"
				},
				"swap": {
					"evaluate": "POST /api/v1/swap/evaluate",
					"recommend": "POST /api/v1/swap/recommend",
					"submit": "POST /api/v1/swap/submit",
					"pending": "GET /api/v1/swap/pending",
					"decide": "POST /api/v1/swap/decide"
				},
				"org": {
					"create": "POST /api/v1/org/create",
					"get": "GET /api/v1/org/get",
					"update": "POST /api/v1/org/update",
					"delete": "POST /api/v1/org/delete"
				},
				"nurses": {
					"create": "POST /api/v1/nurses/create",
					"list": "GET /api/v1/nurses/list",
					"update": "POST /api/v1/nurses/update",
					"delete": "POST /api/v1/nurses/delete"
				}
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/roster/generate", rosterHandler.Generate)

	// 排班校验 API
	mux.HandleFunc("/api/v1/roster/validate", rosterHandler.Validate)

	// 排班审计 API
	mux.HandleFunc("/api/v1/roster/audit", handler.Audit)

	// 排班发布 API
	mux.HandleFunc("/api/v1/roster/publish", rosterHandler.Publish)

	// 规则目录 API - 返回引擎支持的所有规则及参数定义
	mux.HandleFunc("/api/v1/roster/rules", handler.RuleLibrary)

	// 排班表查询 API
	mux.HandleFunc("/api/v1/roster/schedule", rosterHandler.GetSchedule)
	mux.HandleFunc("/api/v1/roster/schedules", rosterHandler.ListSchedules)

	// 草稿排班更新与删除 API
	mux.HandleFunc("/api/v1/roster/update", rosterHandler.UpdateDraft)
	mux.HandleFunc("/api/v1/roster/delete", rosterHandler.DeleteSchedule)

	// ========================================
	// 统计分析 API
	// ========================================

	// 公平性分析 API
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)

	// 覆盖分析 API
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)

	// 责任组长班分布 API
	mux.HandleFunc("/api/v1/stats/charge", statsHandler.ChargeDistribution)

	// ========================================
	// 换班 API
	// ========================================

	// 换班评估 API
	mux.HandleFunc("/api/v1/swap/evaluate", swapHandler.Evaluate)

	// 接班推荐 API
	mux.HandleFunc("/api/v1/swap/recommend", swapHandler.Recommend)

	// 换班请求登记 API
	mux.HandleFunc("/api/v1/swap/submit", swapHandler.Submit)

	// 待处理换班请求 API
	mux.HandleFunc("/api/v1/swap/pending", swapHandler.Pending)

	// 换班审批 API
	mux.HandleFunc("/api/v1/swap/decide", swapHandler.Decide)

	// ========================================
	// 组织与护士管理 API
	// ========================================

	mux.HandleFunc("/api/v1/org/create", orgHandler.Create)
	mux.HandleFunc("/api/v1/org/get", orgHandler.Get)
	mux.HandleFunc("/api/v1/org/update", orgHandler.Update)
	mux.HandleFunc("/api/v1/org/delete", orgHandler.Delete)

	mux.HandleFunc("/api/v1/nurses/create", nurseHandler.Create)
	mux.HandleFunc("/api/v1/nurses/list", nurseHandler.List)
	mux.HandleFunc("/api/v1/nurses/update", nurseHandler.Update)
	mux.HandleFunc("/api/v1/nurses/delete", nurseHandler.Delete)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	rateLimiter := NewRateLimiter(float64(cfg.API.RateLimit))

	// 中间件执行顺序：requestID -> rateLimit -> cors -> logging -> handler
	root := requestIDMiddleware(rateLimitMiddleware(rateLimiter, corsMiddleware(loggingMiddleware(mux))))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 尝试从请求头获取 Request ID，没有则生成新的
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// 设置响应头
		w.Header().Set("X-Request-ID", requestID)

		// 将 Request ID 存储到 context 中
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 获取 Request ID
		requestID, _ := r.Context().Value("request_id").(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		// 记录Prometheus指标
		metrics.RecordRequest(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
