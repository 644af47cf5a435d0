package services

import (
	"context"
	"strings"
	"testing"

	"studyhall-backend/internal/models"
)

type stubSessionSource struct{ session *models.StudySession }

func (s *stubSessionSource) GetByID(context.Context, int64, models.SessionKind) (*models.StudySession, error) {
	return s.session, nil
}

type stubStudentSource struct{ student *models.Student }

func (s *stubStudentSource) GetByID(context.Context, int64) (*models.Student, error) {
	return s.student, nil
}

type stubMessageStore struct{ messages []models.SessionMessage }

func (s *stubMessageStore) ListBySession(context.Context, int64) ([]models.SessionMessage, error) {
	return s.messages, nil
}
func (s *stubMessageStore) InsertEvaluation(context.Context, *models.SessionEvaluation) error {
	return nil
}

// A queued job can outlive its student row; the evaluator must surface that
// as an error for the worker to log, never dereference a missing student.
func TestEvaluateSessionMissingStudent(t *testing.T) {
	svc := &EvaluationService{
		sessionRepo: &stubSessionSource{session: &models.StudySession{ID: 4, Status: models.StatusCompleted}},
		studentRepo: &stubStudentSource{},
		messageRepo: &stubMessageStore{messages: []models.SessionMessage{{Sender: "student", Content: "hi"}}},
	}

	err := svc.EvaluateSession(context.Background(), &models.EvaluationJob{ID: "j1", SessionID: 4, StudentID: 308})
	if err == nil {
		t.Fatal("EvaluateSession() with a vanished student expected error, got nil")
	}
	if !strings.Contains(err.Error(), "student 308") {
		t.Errorf("error = %v, want mention of student 308", err)
	}
}

func TestEvaluateSessionRequiresCompleted(t *testing.T) {
	svc := &EvaluationService{
		sessionRepo: &stubSessionSource{session: &models.StudySession{ID: 4, Status: models.StatusActive}},
		studentRepo: &stubStudentSource{student: &models.Student{ID: 308, FullName: "Aida"}},
		messageRepo: &stubMessageStore{},
	}

	if err := svc.EvaluateSession(context.Background(), &models.EvaluationJob{ID: "j1", SessionID: 4, StudentID: 308}); err == nil {
		t.Fatal("EvaluateSession() on an ACTIVE session expected error, got nil")
	}
}

func TestParseEvaluationResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		wantDesc string
		want     int
	}{
		{
			name:     "plain json",
			raw:      `{"score": 7, "description": "Solid grasp of fractions."}`,
			want:     7,
			wantDesc: "Solid grasp of fractions.",
		},
		{
			name:     "json fenced",
			raw:      "```json\n{\"score\": 4, \"description\": \"Needed heavy prompting.\"}\n```",
			want:     4,
			wantDesc: "Needed heavy prompting.",
		},
		{
			name:     "bare fence",
			raw:      "```\n{\"score\": 10, \"description\": \"Excellent.\"}\n```",
			want:     10,
			wantDesc: "Excellent.",
		},
		{name: "not json", raw: "The student did well.", wantErr: true},
		{name: "score too low", raw: `{"score": 0, "description": "x"}`, wantErr: true},
		{name: "score too high", raw: `{"score": 11, "description": "x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, desc, err := parseEvaluationResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEvaluationResponse() error = %v", err)
			}
			if score != tt.want {
				t.Errorf("score = %d, want %d", score, tt.want)
			}
			if desc != tt.wantDesc {
				t.Errorf("description = %q, want %q", desc, tt.wantDesc)
			}
		})
	}
}

func TestBuildTranscript(t *testing.T) {
	messages := []models.SessionMessage{
		{Sender: "teacher", Content: "What is 3/4 + 1/4?"},
		{Sender: "student", Content: "One whole."},
	}

	got := buildTranscript("Dana Levi", messages)
	if !strings.Contains(got, "Tutor: What is 3/4 + 1/4?") {
		t.Errorf("transcript missing tutor line:\n%s", got)
	}
	if !strings.Contains(got, "Dana Levi: One whole.") {
		t.Errorf("transcript missing student line:\n%s", got)
	}
}

func TestBuildEvaluationPromptMentionsFocus(t *testing.T) {
	session := &models.StudySession{ID: 1, Kind: models.KindHome, Type: models.TypeHomework}

	prof := buildEvaluationPrompt(models.EvaluationProficiency, session, "...")
	if !strings.Contains(prof, "PROFICIENCY") {
		t.Error("proficiency prompt does not name its focus")
	}
	inv := buildEvaluationPrompt(models.EvaluationInvestment, session, "...")
	if !strings.Contains(inv, "INVESTMENT") {
		t.Error("investment prompt does not name its focus")
	}
}
