package resource

import (
	"time"
)

type Resource struct {
	ID         string    `json:"resourceId"`
	ClassID    string    `json:"classId"`
	UploaderID string    `json:"uploaderId"`
	Title      string    `json:"title"`
	FileURL    string    `json:"fileUrl"`
	FileKey    string    `json:"-"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StoredFile is a file attached to a lecture or a submission.
type StoredFile struct {
	ID       string `json:"fileId"`
	FileURL  string `json:"fileUrl"`
	FileKey  string `json:"-"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type Lecture struct {
	ID          string       `json:"lectureId"`
	ClassID     string       `json:"classId"`
	TeacherID   string       `json:"teacherId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Files       []StoredFile `json:"files"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type Assignment struct {
	ID          string     `json:"assignmentId"`
	ClassID     string     `json:"classId"`
	TeacherID   string     `json:"teacherId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Submission struct {
	ID           string       `json:"submissionId"`
	AssignmentID string       `json:"assignmentId"`
	StudentID    string       `json:"studentId"`
	Content      string       `json:"content"`
	Files        []StoredFile `json:"files"`
	SubmittedAt  time.Time    `json:"submittedAt"`
}

type NewResource struct {
	ClassID string `form:"classId" validate:"required"`
	Title   string `form:"title" validate:"required,max=255"`
	File    *File  `form:"-"`
}

type NewLecture struct {
	ClassID     string  `form:"classId" validate:"required"`
	Title       string  `form:"title" validate:"required,max=255"`
	Description string  `form:"description" validate:"max=5000"`
	Files       []*File `form:"-"`
}

type NewAssignment struct {
	ClassID     string     `json:"classId" validate:"required"`
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=5000"`
	DueDate     *time.Time `json:"dueDate"`
}

type NewSubmission struct {
	Content string  `form:"content" validate:"max=10000"`
	Files   []*File `form:"-"`
}

type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
}
