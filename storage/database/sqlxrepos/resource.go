package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core/resource"
)

type (
	resourceRow struct {
		ID         string    `db:"resource_id"`
		ClassID    string    `db:"class_id"`
		UploaderID string    `db:"uploader_id"`
		Title      string    `db:"title"`
		FileURL    string    `db:"file_url"`
		FileKey    string    `db:"file_key"`
		FileName   string    `db:"file_name"`
		MimeType   string    `db:"mime_type"`
		Size       int64     `db:"size"`
		CreatedAt  time.Time `db:"created_at"`
	}

	lectureRow struct {
		ID          string    `db:"lecture_id"`
		ClassID     string    `db:"class_id"`
		TeacherID   string    `db:"teacher_id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
	}

	assignmentRow struct {
		ID          string    `db:"assignment_id"`
		ClassID     string    `db:"class_id"`
		TeacherID   string    `db:"teacher_id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		DueDate     null.Time `db:"due_date"`
		CreatedAt   time.Time `db:"created_at"`
	}

	submissionRow struct {
		ID           string    `db:"submission_id"`
		AssignmentID string    `db:"assignment_id"`
		StudentID    string    `db:"student_id"`
		Content      string    `db:"content"`
		SubmittedAt  time.Time `db:"submitted_at"`
	}

	fileRow struct {
		ID           string      `db:"file_id"`
		LectureID    null.String `db:"lecture_id"`
		SubmissionID null.String `db:"submission_id"`
		FileURL      string      `db:"file_url"`
		FileKey      string      `db:"file_key"`
		FileName     string      `db:"file_name"`
		MimeType     string      `db:"mime_type"`
		Size         int64       `db:"size"`
		Position     int         `db:"position"`
	}
)

func (r resourceRow) toResource() resource.Resource {
	res := resource.Resource(r)
	res.CreatedAt = r.CreatedAt.UTC()
	return res
}

func (r fileRow) toFile() resource.StoredFile {
	return resource.StoredFile{
		ID:       r.ID,
		FileURL:  r.FileURL,
		FileKey:  r.FileKey,
		FileName: r.FileName,
		MimeType: r.MimeType,
		Size:     r.Size,
	}
}

func (r assignmentRow) toAssignment() resource.Assignment {
	return resource.Assignment{
		ID:          r.ID,
		ClassID:     r.ClassID,
		TeacherID:   r.TeacherID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate.Ptr(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type resourceRepository struct {
	db *sqlx.DB
}

var _ resource.Repository = (*resourceRepository)(nil) // interface compliance check

func NewResourceRepository(db *sqlx.DB) resource.Repository {
	return &resourceRepository{db: db}
}

// Resources

func (repo resourceRepository) CreateResource(ctx context.Context, res resource.Resource) (resource.Resource, error) {
	const q = `
		INSERT INTO resources
		    (resource_id, class_id, uploader_id, title, file_url, file_key, file_name, mime_type, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *`

	var row resourceRow
	err := repo.db.QueryRowxContext(ctx, q,
		res.ID, res.ClassID, res.UploaderID, res.Title, res.FileURL, res.FileKey, res.FileName, res.MimeType, res.Size, res.CreatedAt,
	).StructScan(&row)
	if err != nil {
		return resource.Resource{}, errors.Wrap(err, "inserting resource")
	}
	return row.toResource(), nil
}

func (repo resourceRepository) GetResource(ctx context.Context, id string) (resource.Resource, error) {
	var row resourceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM resources WHERE resource_id = $1`, id); err != nil {
		return resource.Resource{}, trapNoRowsErr(err, resource.ErrNotFound, "getting resource")
	}
	return row.toResource(), nil
}

func (repo resourceRepository) QueryResources(ctx context.Context, classID string) ([]resource.Resource, error) {
	var rows []resourceRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM resources WHERE class_id = $1 ORDER BY created_at DESC`, classID)
	if empty, err := trapListErr(err, "querying resources"); empty || err != nil {
		return []resource.Resource{}, err
	}

	resources := make([]resource.Resource, 0, len(rows))
	for _, r := range rows {
		resources = append(resources, r.toResource())
	}
	return resources, nil
}

func (repo resourceRepository) DeleteResource(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM resources WHERE resource_id = $1`, id)
	return trapNoRowsErr(err, resource.ErrNotFound, "deleting resource")
}

// Files

func insertFiles(ctx context.Context, tx *sqlx.Tx, ownerColumn, ownerID string, files []resource.StoredFile) error {
	q := `INSERT INTO stored_files (file_id, ` + ownerColumn + `, file_url, file_key, file_name, mime_type, size, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, f := range files {
		if _, err := tx.ExecContext(ctx, q, f.ID, ownerID, f.FileURL, f.FileKey, f.FileName, f.MimeType, f.Size, i); err != nil {
			return errors.Wrapf(err, "inserting file %q", f.FileName)
		}
	}
	return nil
}

// queryFiles returns the files of the given owners, grouped by owner id.
func (repo resourceRepository) queryFiles(ctx context.Context, ownerColumn string, ownerIDs []string) (map[string][]resource.StoredFile, error) {
	files := make(map[string][]resource.StoredFile, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return files, nil
	}

	var rows []fileRow
	q := `SELECT * FROM stored_files WHERE ` + ownerColumn + ` = ANY($1) ORDER BY position`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(ownerIDs)); err != nil {
		return nil, errors.Wrap(err, "querying files")
	}
	for _, r := range rows {
		owner := r.LectureID.String
		if ownerColumn == "submission_id" {
			owner = r.SubmissionID.String
		}
		files[owner] = append(files[owner], r.toFile())
	}
	return files, nil
}

// Lectures

func (repo resourceRepository) CreateLecture(ctx context.Context, lec resource.Lecture) (resource.Lecture, error) {
	const q = `
		INSERT INTO lectures (lecture_id, class_id, teacher_id, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, q, lec.ID, lec.ClassID, lec.TeacherID, lec.Title, lec.Description, lec.CreatedAt); err != nil {
			return errors.Wrap(err, "inserting lecture")
		}
		return insertFiles(ctx, tx, "lecture_id", lec.ID, lec.Files)
	})
	if err != nil {
		return resource.Lecture{}, err
	}
	return repo.GetLecture(ctx, lec.ID)
}

func (repo resourceRepository) lectures(ctx context.Context, rows []lectureRow) ([]resource.Lecture, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	files, err := repo.queryFiles(ctx, "lecture_id", ids)
	if err != nil {
		return nil, err
	}

	lectures := make([]resource.Lecture, 0, len(rows))
	for _, r := range rows {
		lecFiles := files[r.ID]
		if lecFiles == nil {
			lecFiles = []resource.StoredFile{}
		}
		lectures = append(lectures, resource.Lecture{
			ID:          r.ID,
			ClassID:     r.ClassID,
			TeacherID:   r.TeacherID,
			Title:       r.Title,
			Description: r.Description,
			Files:       lecFiles,
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return lectures, nil
}

func (repo resourceRepository) GetLecture(ctx context.Context, id string) (resource.Lecture, error) {
	var row lectureRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lectures WHERE lecture_id = $1`, id); err != nil {
		return resource.Lecture{}, trapNoRowsErr(err, resource.ErrLectureNotFound, "getting lecture")
	}
	lectures, err := repo.lectures(ctx, []lectureRow{row})
	if err != nil {
		return resource.Lecture{}, err
	}
	return lectures[0], nil
}

func (repo resourceRepository) QueryLectures(ctx context.Context, classID string) ([]resource.Lecture, error) {
	var rows []lectureRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM lectures WHERE class_id = $1 ORDER BY created_at DESC`, classID)
	if empty, err := trapListErr(err, "querying lectures"); empty || err != nil {
		return []resource.Lecture{}, err
	}
	return repo.lectures(ctx, rows)
}

func (repo resourceRepository) DeleteLecture(ctx context.Context, id string) error {
	// files go with it (ON DELETE CASCADE)
	_, err := repo.db.ExecContext(ctx, `DELETE FROM lectures WHERE lecture_id = $1`, id)
	return trapNoRowsErr(err, resource.ErrLectureNotFound, "deleting lecture")
}

// Assignments

func (repo resourceRepository) CreateAssignment(ctx context.Context, asg resource.Assignment) (resource.Assignment, error) {
	const q = `
		INSERT INTO assignments (assignment_id, class_id, teacher_id, title, description, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`

	var row assignmentRow
	err := repo.db.QueryRowxContext(ctx, q,
		asg.ID, asg.ClassID, asg.TeacherID, asg.Title, asg.Description, null.TimeFromPtr(asg.DueDate), asg.CreatedAt,
	).StructScan(&row)
	if err != nil {
		return resource.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return row.toAssignment(), nil
}

func (repo resourceRepository) GetAssignment(ctx context.Context, id string) (resource.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignments WHERE assignment_id = $1`, id); err != nil {
		return resource.Assignment{}, trapNoRowsErr(err, resource.ErrAssignmentNotFound, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo resourceRepository) QueryAssignments(ctx context.Context, classID string) ([]resource.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM assignments WHERE class_id = $1 ORDER BY created_at DESC`, classID)
	if empty, err := trapListErr(err, "querying assignments"); empty || err != nil {
		return []resource.Assignment{}, err
	}

	assignments := make([]resource.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.toAssignment())
	}
	return assignments, nil
}

// Submissions

func (repo resourceRepository) CreateSubmission(ctx context.Context, sub resource.Submission) (resource.Submission, error) {
	const q = `
		INSERT INTO submissions (submission_id, assignment_id, student_id, content, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, q, sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, sub.SubmittedAt); err != nil {
			return errors.Wrap(err, "inserting submission")
		}
		return insertFiles(ctx, tx, "submission_id", sub.ID, sub.Files)
	})
	if err != nil {
		return resource.Submission{}, err
	}

	subs, err := repo.QuerySubmissions(ctx, resource.SubmissionFilter{AssignmentID: sub.AssignmentID, StudentID: sub.StudentID})
	if err != nil {
		return resource.Submission{}, err
	}
	for _, s := range subs {
		if s.ID == sub.ID {
			return s, nil
		}
	}
	return resource.Submission{}, errors.New("submission vanished after insert")
}

func submissionsQuery(filter resource.SubmissionFilter) sq.SelectBuilder {
	q := psql.Select("*").From("submissions")
	if filter.AssignmentID != "" {
		q = q.Where(sq.Eq{"assignment_id": filter.AssignmentID})
	}
	if filter.StudentID != "" {
		q = q.Where(sq.Eq{"student_id": filter.StudentID})
	}
	return q.OrderBy("submitted_at DESC")
}

func (repo resourceRepository) QuerySubmissions(ctx context.Context, filter resource.SubmissionFilter) ([]resource.Submission, error) {
	var rows []submissionRow
	err := selectBuilt(ctx, repo.db, &rows, submissionsQuery(filter))
	if empty, err := trapListErr(err, "querying submissions"); empty || err != nil {
		return []resource.Submission{}, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	files, err := repo.queryFiles(ctx, "submission_id", ids)
	if err != nil {
		return nil, err
	}

	subs := make([]resource.Submission, 0, len(rows))
	for _, r := range rows {
		subFiles := files[r.ID]
		if subFiles == nil {
			subFiles = []resource.StoredFile{}
		}
		subs = append(subs, resource.Submission{
			ID:           r.ID,
			AssignmentID: r.AssignmentID,
			StudentID:    r.StudentID,
			Content:      r.Content,
			Files:        subFiles,
			SubmittedAt:  r.SubmittedAt.UTC(),
		})
	}
	return subs, nil
}
