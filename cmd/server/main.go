package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyhall-backend/internal/assignment"
	"studyhall-backend/internal/config"
	"studyhall-backend/internal/database"
	"studyhall-backend/internal/handlers"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/priority"
	"studyhall-backend/internal/repository"
	"studyhall-backend/internal/router"
	"studyhall-backend/internal/services"
	"studyhall-backend/internal/websocket"
	"studyhall-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting StudyHall Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	studentRepo := repository.NewStudentRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	teacherRepo := repository.NewTeacherAgentRepo(pool)
	managerRepo := repository.NewManagerRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)

	// ──── Initialize Core Engines ────
	priorityService := priority.NewService(studentRepo, priority.DefaultScorer())
	assignmentService := assignment.NewService(courseRepo, courseRepo)

	// ──── Step 5: Initialize Gemini Evaluator ────
	evaluationService, err := services.NewEvaluationService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		sessionRepo,
		messageRepo,
		studentRepo,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer evaluationService.Close()
	log.Println("✓ Gemini evaluator initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(studentRepo, managerRepo, jwtAuth)
	notifier := services.NewRedisNotifier(redisClients.PubSub)
	evaluationTrigger := services.NewQueueEvaluationTrigger(redisClients.Queue)
	lifecycle := services.NewLifecycle(
		pool,
		sessionRepo,
		studentRepo,
		courseRepo,
		teacherRepo,
		priorityService,
		assignmentService,
		notifier,
		evaluationTrigger,
		cfg,
	)
	bulk := services.NewBulk(lifecycle, sessionRepo, notifier)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(lifecycle, sessionRepo, messageRepo)
	classroomHandler := handlers.NewClassroomHandler(lifecycle, bulk, sessionRepo)
	courseHandler := handlers.NewCourseHandler(priorityService)

	// ──── Step 6: Start Evaluation Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, evaluationService, cfg.EvaluationWorkers)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.EvaluationWorkers)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		sessionHandler,
		classroomHandler,
		courseHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyHall Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
