package dummydb

import (
	"context"
	"sort"

	"github.com/napthedev/edura/core/resource"
)

type resourceRepository struct {
	db *resourceTable
}

var _ resource.Repository = (*resourceRepository)(nil) // interface compliance check

func NewResourceRepository(db *DB) resource.Repository {
	return &resourceRepository{db: db.resource}
}

func copyFiles(files []resource.StoredFile) []resource.StoredFile {
	return append(make([]resource.StoredFile, 0, len(files)), files...)
}

// Resources

func (repo *resourceRepository) CreateResource(_ context.Context, res resource.Resource) (resource.Resource, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.resources[res.ID] = &res
	return res, nil
}

func (repo *resourceRepository) GetResource(_ context.Context, id string) (resource.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if res, ok := repo.db.resources[id]; ok {
		return *res, nil
	}
	return resource.Resource{}, resource.ErrNotFound
}

func (repo *resourceRepository) QueryResources(_ context.Context, classID string) ([]resource.Resource, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	resources := make([]resource.Resource, 0)
	for _, r := range repo.db.resources {
		if r.ClassID == classID {
			resources = append(resources, *r)
		}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.After(resources[j].CreatedAt) })
	return resources, nil
}

func (repo *resourceRepository) DeleteResource(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.resources, id)
	return nil
}

// Lectures

func (repo *resourceRepository) CreateLecture(_ context.Context, lec resource.Lecture) (resource.Lecture, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lec.Files = copyFiles(lec.Files)
	repo.db.lectures[lec.ID] = &lec
	return lec, nil
}

func (repo *resourceRepository) GetLecture(_ context.Context, id string) (resource.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lec, ok := repo.db.lectures[id]; ok {
		return *lec, nil
	}
	return resource.Lecture{}, resource.ErrLectureNotFound
}

func (repo *resourceRepository) QueryLectures(_ context.Context, classID string) ([]resource.Lecture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lectures := make([]resource.Lecture, 0)
	for _, l := range repo.db.lectures {
		if l.ClassID == classID {
			lectures = append(lectures, *l)
		}
	}
	sort.Slice(lectures, func(i, j int) bool { return lectures[i].CreatedAt.After(lectures[j].CreatedAt) })
	return lectures, nil
}

func (repo *resourceRepository) DeleteLecture(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.lectures, id)
	return nil
}

// Assignments

func (repo *resourceRepository) CreateAssignment(_ context.Context, asg resource.Assignment) (resource.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *resourceRepository) GetAssignment(_ context.Context, id string) (resource.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return resource.Assignment{}, resource.ErrAssignmentNotFound
}

func (repo *resourceRepository) QueryAssignments(_ context.Context, classID string) ([]resource.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]resource.Assignment, 0)
	for _, a := range repo.db.assignments {
		if a.ClassID == classID {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].CreatedAt.After(assignments[j].CreatedAt) })
	return assignments, nil
}

// Submissions

func (repo *resourceRepository) CreateSubmission(_ context.Context, sub resource.Submission) (resource.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.Files = copyFiles(sub.Files)
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *resourceRepository) QuerySubmissions(_ context.Context, filter resource.SubmissionFilter) ([]resource.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]resource.Submission, 0)
	for _, s := range repo.db.submissions {
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}
