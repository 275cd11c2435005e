package resource

import (
	"context"
	"path"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
)

var (
	ErrNotFound           = core.NewNotFoundError("resource")
	ErrLectureNotFound    = core.NewNotFoundError("lecture")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment")
)

type (
	Repository interface {
		CreateResource(ctx context.Context, res Resource) (Resource, error)
		GetResource(ctx context.Context, id string) (Resource, error)
		QueryResources(ctx context.Context, classID string) ([]Resource, error)
		DeleteResource(ctx context.Context, id string) error

		// CreateLecture inserts the lecture together with its files.
		CreateLecture(ctx context.Context, lec Lecture) (Lecture, error)
		GetLecture(ctx context.Context, id string) (Lecture, error)
		QueryLectures(ctx context.Context, classID string) ([]Lecture, error)
		DeleteLecture(ctx context.Context, id string) error

		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, classID string) ([]Assignment, error)

		// CreateSubmission inserts the submission together with its files.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
	}

	Service interface {
		UploadResource(ctx context.Context, actor user.User, nr NewResource) (Resource, error)
		Resources(ctx context.Context, classID string) ([]Resource, error)
		DeleteResource(ctx context.Context, actor user.User, id string) error

		CreateLecture(ctx context.Context, actor user.User, nl NewLecture) (Lecture, error)
		Lectures(ctx context.Context, classID string) ([]Lecture, error)
		DeleteLecture(ctx context.Context, actor user.User, id string) error

		CreateAssignment(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error)
		Assignments(ctx context.Context, classID string) ([]Assignment, error)

		Submit(ctx context.Context, actor user.User, assignmentID string, ns NewSubmission) (Submission, error)
		Submissions(ctx context.Context, actor user.User, assignmentID string) ([]Submission, error)
	}

	service struct {
		repo     Repository
		classSvc class.Service
		validate *validator.Validate
		logger   core.Logger
		up       uploader
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	classSvc class.Service,
	store core.BlobStore,
	logger core.Logger,
	validate *validator.Validate,
) Service {
	return &service{
		repo:     repo,
		classSvc: classSvc,
		validate: validate,
		logger:   logger,
		up:       uploader{store: store, logger: logger},
	}
}

// teachesClass fails with core.ErrForbidden unless actor is a manager or the teacher of the class.
func (svc *service) teachesClass(ctx context.Context, actor user.User, classID string, allowManager bool) (class.Class, error) {
	cls, err := svc.classSvc.GetByID(ctx, classID)
	if err != nil {
		if core.IsNotFound(err) {
			return class.Class{}, core.NewValidationError(err, core.FieldError{Field: "classId", Error: err.Error()})
		}
		return class.Class{}, errors.Wrap(err, "getting class")
	}
	if (allowManager && actor.IsManager()) || (actor.IsTeacher() && cls.TeacherID == actor.ID) {
		return cls, nil
	}
	return class.Class{}, core.ErrForbidden
}

// Resources

func (svc *service) UploadResource(ctx context.Context, actor user.User, nr NewResource) (Resource, error) {
	nr.Title = core.CleanString(nr.Title)
	if err := svc.validate.Struct(nr); err != nil {
		return Resource{}, err
	}
	if err := ValidateResourceFile(nr.File); err != nil {
		return Resource{}, err
	}
	if _, err := svc.teachesClass(ctx, actor, nr.ClassID, true); err != nil {
		return Resource{}, err
	}

	sf, err := svc.up.put(ctx, "resource", path.Join("resources", nr.ClassID), nr.File)
	if err != nil {
		return Resource{}, err
	}

	res, err := svc.repo.CreateResource(ctx, Resource{
		ID:         uuid.NewString(),
		ClassID:    nr.ClassID,
		UploaderID: actor.ID,
		Title:      nr.Title,
		FileURL:    sf.FileURL,
		FileKey:    sf.FileKey,
		FileName:   sf.FileName,
		MimeType:   sf.MimeType,
		Size:       sf.Size,
		CreatedAt:  core.NowFunc().UTC(),
	})
	if err != nil {
		svc.up.discard(ctx, []StoredFile{sf})
		return Resource{}, errors.Wrap(err, "creating resource")
	}
	return res, nil
}

func (svc *service) Resources(ctx context.Context, classID string) ([]Resource, error) {
	return svc.repo.QueryResources(ctx, classID)
}

// DeleteResource removes the blob then the row. The row goes even if the blob could not be deleted.
func (svc *service) DeleteResource(ctx context.Context, actor user.User, id string) error {
	res, err := svc.repo.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if !(actor.IsManager() || res.UploaderID == actor.ID) {
		return core.ErrForbidden
	}

	svc.up.discard(ctx, []StoredFile{{FileKey: res.FileKey}})
	return errors.Wrap(svc.repo.DeleteResource(ctx, id), "deleting resource")
}

// Lectures

func (svc *service) CreateLecture(ctx context.Context, actor user.User, nl NewLecture) (Lecture, error) {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	if err := svc.validate.Struct(nl); err != nil {
		return Lecture{}, err
	}
	if err := ValidateLectureFiles(nl.Files); err != nil {
		return Lecture{}, err
	}
	if _, err := svc.teachesClass(ctx, actor, nl.ClassID, false); err != nil {
		return Lecture{}, err
	}

	files, err := svc.up.putAll(ctx, "lecture", path.Join("lectures", nl.ClassID), nl.Files)
	if err != nil {
		return Lecture{}, err
	}

	lec, err := svc.repo.CreateLecture(ctx, Lecture{
		ID:          uuid.NewString(),
		ClassID:     nl.ClassID,
		TeacherID:   actor.ID,
		Title:       nl.Title,
		Description: nl.Description,
		Files:       files,
		CreatedAt:   core.NowFunc().UTC(),
	})
	if err != nil {
		svc.up.discard(ctx, files)
		return Lecture{}, errors.Wrap(err, "creating lecture")
	}
	return lec, nil
}

func (svc *service) Lectures(ctx context.Context, classID string) ([]Lecture, error) {
	return svc.repo.QueryLectures(ctx, classID)
}

func (svc *service) DeleteLecture(ctx context.Context, actor user.User, id string) error {
	lec, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return err
	}
	if !(actor.IsManager() || lec.TeacherID == actor.ID) {
		return core.ErrForbidden
	}

	svc.up.discard(ctx, lec.Files)
	return errors.Wrap(svc.repo.DeleteLecture(ctx, id), "deleting lecture")
}

// Assignments & Submissions

func (svc *service) CreateAssignment(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if err := svc.validate.Struct(na); err != nil {
		return Assignment{}, err
	}
	if _, err := svc.teachesClass(ctx, actor, na.ClassID, false); err != nil {
		return Assignment{}, err
	}

	asg, err := svc.repo.CreateAssignment(ctx, Assignment{
		ID:          uuid.NewString(),
		ClassID:     na.ClassID,
		TeacherID:   actor.ID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate,
		CreatedAt:   core.NowFunc().UTC(),
	})
	return asg, errors.Wrap(err, "creating assignment")
}

func (svc *service) Assignments(ctx context.Context, classID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, classID)
}

func (svc *service) Submit(ctx context.Context, actor user.User, assignmentID string, ns NewSubmission) (Submission, error) {
	ns.Content = core.CleanString(ns.Content)
	if err := svc.validate.Struct(ns); err != nil {
		return Submission{}, err
	}
	if err := ValidateSubmissionFiles(ns.Files); err != nil {
		return Submission{}, err
	}

	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	enrolled, err := svc.classSvc.IsEnrolled(ctx, asg.ClassID, actor.ID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Submission{}, core.ErrForbidden
	}

	files, err := svc.up.putAll(ctx, "submission", path.Join("submissions", asg.ID, actor.ID), ns.Files)
	if err != nil {
		return Submission{}, err
	}

	sub, err := svc.repo.CreateSubmission(ctx, Submission{
		ID:           uuid.NewString(),
		AssignmentID: asg.ID,
		StudentID:    actor.ID,
		Content:      ns.Content,
		Files:        files,
		SubmittedAt:  core.NowFunc().UTC(),
	})
	if err != nil {
		svc.up.discard(ctx, files)
		return Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}

// Submissions lists the submissions of an assignment: all of them for its teacher (or a manager),
// only their own for a student.
func (svc *service) Submissions(ctx context.Context, actor user.User, assignmentID string) ([]Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	filter := SubmissionFilter{AssignmentID: asg.ID}
	switch {
	case actor.IsManager(), actor.IsTeacher() && asg.TeacherID == actor.ID:
	case actor.IsStudent():
		filter.StudentID = actor.ID
	default:
		return nil, core.ErrForbidden
	}
	return svc.repo.QuerySubmissions(ctx, filter)
}
