package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/services"
)

// Pool consumes session evaluation jobs from Redis. Workers block on the
// queue and hand each job to the evaluation service; a per-job lock keeps
// multiple workers off the same job.
type Pool struct {
	redis       *redis.Client
	evaluator   *services.EvaluationService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, evaluator *services.EvaluationService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		evaluator:   evaluator,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d evaluation worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.EvaluationQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.EvaluationJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: evaluating session %d for student %d", id, job.SessionID, job.StudentID)

		if err := p.evaluator.EvaluateSession(ctx, &job); err != nil {
			// Evaluation is best-effort after completion; log and move on.
			log.Printf("Worker %d: evaluation of session %d failed: %v", id, job.SessionID, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}
