package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
)

const EvaluationQueue = "queue:session-evaluation"

// EvaluationTrigger enqueues post-session evaluation work. Lifecycle code
// treats enqueue failures as non-fatal.
type EvaluationTrigger interface {
	TriggerEvaluation(ctx context.Context, session *models.StudySession, studentIDs []int64) error
}

// QueueEvaluationTrigger pushes one evaluation job per participant onto the
// Redis work queue.
type QueueEvaluationTrigger struct {
	redis *redis.Client
}

func NewQueueEvaluationTrigger(redisClient *redis.Client) *QueueEvaluationTrigger {
	return &QueueEvaluationTrigger{redis: redisClient}
}

func (t *QueueEvaluationTrigger) TriggerEvaluation(ctx context.Context, session *models.StudySession, studentIDs []int64) error {
	for _, studentID := range studentIDs {
		job := models.EvaluationJob{
			ID:        uuid.New().String(),
			SessionID: session.ID,
			StudentID: studentID,
			Kind:      session.Kind,
			CreatedAt: time.Now(),
		}
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal evaluation job: %w", err)
		}
		if err := t.redis.RPush(ctx, EvaluationQueue, string(data)).Err(); err != nil {
			return fmt.Errorf("failed to enqueue evaluation job: %w", err)
		}
	}
	return nil
}

// Storage seams for EvaluateSession, satisfied by the concrete repos.
type evaluationSessionSource interface {
	GetByID(ctx context.Context, id int64, kind models.SessionKind) (*models.StudySession, error)
}

type evaluationStudentSource interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
}

type evaluationMessageStore interface {
	ListBySession(ctx context.Context, sessionID int64) ([]models.SessionMessage, error)
	InsertEvaluation(ctx context.Context, e *models.SessionEvaluation) error
}

// EvaluationService scores a completed session's transcript with Gemini:
// one proficiency and one investment evaluation per participant.
type EvaluationService struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	sessionRepo evaluationSessionSource
	messageRepo evaluationMessageStore
	studentRepo evaluationStudentSource
	rateChan    chan struct{} // Token bucket
}

func NewEvaluationService(
	apiKey string,
	concurrentReqs int,
	sessionRepo *repository.SessionRepo,
	messageRepo *repository.MessageRepo,
	studentRepo *repository.StudentRepo,
) (*EvaluationService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &EvaluationService{
		client:      client,
		model:       model,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		studentRepo: studentRepo,
		rateChan:    rateChan,
	}, nil
}

func (s *EvaluationService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *EvaluationService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *EvaluationService) releaseRate() {
	s.rateChan <- struct{}{}
}

// EvaluateSession runs both evaluations for one participant of a completed
// session and persists the results.
func (s *EvaluationService) EvaluateSession(ctx context.Context, job *models.EvaluationJob) error {
	session, err := s.sessionRepo.GetByID(ctx, job.SessionID, "")
	if err != nil {
		return fmt.Errorf("failed to load session %d: %w", job.SessionID, err)
	}
	if session == nil {
		return fmt.Errorf("session %d no longer exists", job.SessionID)
	}
	if session.Status != models.StatusCompleted {
		return fmt.Errorf("session %d is %s, only completed sessions are evaluated", session.ID, session.Status)
	}

	student, err := s.studentRepo.GetByID(ctx, job.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load student %d: %w", job.StudentID, err)
	}
	if student == nil {
		return fmt.Errorf("student %d no longer exists", job.StudentID)
	}

	messages, err := s.messageRepo.ListBySession(ctx, job.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load session messages: %w", err)
	}
	if len(messages) == 0 {
		log.Printf("evaluation: session %d has no transcript, skipping", job.SessionID)
		return nil
	}

	transcript := buildTranscript(student.FullName, messages)

	for _, kind := range []models.EvaluationKind{models.EvaluationProficiency, models.EvaluationInvestment} {
		eval, err := s.evaluate(ctx, session, job.StudentID, kind, transcript)
		if err != nil {
			return fmt.Errorf("%s evaluation for session %d: %w", kind, session.ID, err)
		}
		if err := s.messageRepo.InsertEvaluation(ctx, eval); err != nil {
			return fmt.Errorf("failed to save %s evaluation: %w", kind, err)
		}
	}
	return nil
}

func (s *EvaluationService) evaluate(ctx context.Context, session *models.StudySession, studentID int64, kind models.EvaluationKind, transcript string) (*models.SessionEvaluation, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildEvaluationPrompt(kind, session, transcript)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini request failed: %w", err)
	}

	raw := extractText(resp)
	score, description, err := parseEvaluationResponse(raw)
	if err != nil {
		return nil, err
	}

	return &models.SessionEvaluation{
		SessionID:   session.ID,
		StudentID:   studentID,
		Kind:        kind,
		Score:       score,
		Description: description,
	}, nil
}

func buildTranscript(studentName string, messages []models.SessionMessage) string {
	var b strings.Builder
	for _, m := range messages {
		speaker := "Tutor"
		if m.Sender == "student" {
			speaker = studentName
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	return b.String()
}

func buildEvaluationPrompt(kind models.EvaluationKind, session *models.StudySession, transcript string) string {
	var focus string
	switch kind {
	case models.EvaluationProficiency:
		focus = `Assess the student's PROFICIENCY in the material covered:
- correctness and depth of their answers
- whether misconceptions were resolved during the session
- how independently they worked through problems`
	case models.EvaluationInvestment:
		focus = `Assess the student's INVESTMENT in the session:
- engagement and responsiveness throughout
- effort on difficult questions vs giving up
- initiative (questions asked, ideas volunteered)`
	}

	return fmt.Sprintf(`You are reviewing a %s study session (%s) between an AI tutor and a student.

%s

Transcript:
%s

Respond with ONLY a JSON object, no other text:
{"score": <integer 1-10>, "description": "<2-4 sentence justification>"}`,
		session.Type, session.Kind, focus, transcript)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}

// parseEvaluationResponse decodes the model's JSON verdict, tolerating
// markdown code fences around it.
func parseEvaluationResponse(raw string) (int, string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var verdict struct {
		Score       int    `json:"score"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return 0, "", fmt.Errorf("failed to parse evaluation response: %w", err)
	}
	if verdict.Score < 1 || verdict.Score > 10 {
		return 0, "", fmt.Errorf("evaluation score %d out of range", verdict.Score)
	}
	return verdict.Score, verdict.Description, nil
}
