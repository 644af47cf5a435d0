package models

import "time"

type EnrollmentState string

const (
	EnrollmentNotStarted EnrollmentState = "not_started"
	EnrollmentInProgress EnrollmentState = "in_progress"
	EnrollmentCompleted  EnrollmentState = "completed"
)

type Course struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Subject     string  `json:"subject"`
	GradeLevel  *string `json:"grade_level,omitempty"`
	Description *string `json:"description,omitempty"`
}

// LearningUnit is one link in a course's unit chain. PreviousUnit/NextUnit
// hold unit names, not array positions; sequence order is reconstructed by
// walking the chain from its head.
type LearningUnit struct {
	CourseID                 int64  `json:"course_id"`
	Name                     string `json:"name"`
	PreviousUnit             string `json:"previous_unit,omitempty"`
	NextUnit                 string `json:"next_unit,omitempty"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
}

// Enrollment is the student-course record.
type Enrollment struct {
	StudentID int64           `json:"student_id"`
	CourseID  int64           `json:"course_id"`
	State     EnrollmentState `json:"state"`
	Progress  float64         `json:"progress"`
}

// UnitProgress is the student-unit record, same shape as Enrollment.
type UnitProgress struct {
	StudentID int64           `json:"student_id"`
	CourseID  int64           `json:"course_id"`
	UnitName  string          `json:"unit_name"`
	State     EnrollmentState `json:"state"`
	Progress  float64         `json:"progress"`
}

type Test struct {
	ID           int64     `json:"id"`
	CourseID     int64     `json:"course_id"`
	Name         string    `json:"name"`
	ScheduledFor time.Time `json:"scheduled_for"`
}
