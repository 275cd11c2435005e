//go:build integration

package sqlxrepos_test

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
	"github.com/napthedev/edura/storage/database"
	"github.com/napthedev/edura/storage/database/sqlxrepos"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostgres runs a throwaway postgres container and returns a migrated connection to it.
func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "edura",
				"POSTGRES_PASSWORD": "edura",
				"POSTGRES_DB":       "edura",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	conf := core.NewTestConfig()
	conf.Database.Engine = "postgres"
	conf.Database.User = "edura"
	conf.Database.Password = "edura"
	conf.Database.Host = host
	conf.Database.Port = port.Port()
	conf.Database.Name = "edura"
	conf.Database.DisableTLS = true

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Ping(ctx, db))
	require.NoError(t, database.Migrate(ctx, db.DB))
	return db
}

type fixture struct {
	cls      class.Class
	schedule class.Schedule
	students []user.User
}

func seed(t *testing.T, db *sqlx.DB, nStudents int) fixture {
	t.Helper()
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	classes := sqlxrepos.NewClassRepository(db)
	now := time.Now().UTC()

	teacher, err := users.SaveUser(ctx, user.User{ID: "t1", Name: "Teacher", Email: "t1@edura.test", Role: user.RoleTeacher, CreatedAt: now})
	require.NoError(t, err)

	rate := int64(500000)
	cls, err := classes.CreateClass(ctx, class.Class{
		ID: uuid.NewString(), Name: "Math", Subject: "Math", TeacherID: teacher.ID, TuitionRate: &rate, CreatedAt: now,
	})
	require.NoError(t, err)

	sch, err := classes.CreateSchedule(ctx, class.Schedule{
		ID: uuid.NewString(), ClassID: cls.ID, DayOfWeek: int(time.Monday), StartTime: "08:00", EndTime: "09:00",
	})
	require.NoError(t, err)

	f := fixture{cls: cls, schedule: sch}
	for i := 0; i < nStudents; i++ {
		id := uuid.NewString()
		st, err := users.SaveUser(ctx, user.User{ID: id, Name: "Student", Email: id + "@edura.test", Role: user.RoleStudent, CreatedAt: now})
		require.NoError(t, err)
		_, err = classes.SaveEnrollment(ctx, class.Enrollment{
			ID: uuid.NewString(), StudentID: st.ID, ClassID: cls.ID, Active: true, EnrolledAt: now,
		})
		require.NoError(t, err)
		f.students = append(f.students, st)
	}
	return f
}

func TestBillingRepository_concurrentGeneration(t *testing.T) {
	db := startPostgres(t)
	f := seed(t, db, 5)
	repo := sqlxrepos.NewBillingRepository(db)
	svc := billing.NewService(repo, nil, nil, nil, billing.Options{Location: time.UTC, DueDay: 15})
	now := time.Date(2024, time.June, 1, 2, 0, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.GenerateMonthlyBills(context.Background(), now)
			assert.NoError(t, err)
			mu.Lock()
			created += res.Created
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, len(f.students), created)
	bills, err := repo.QueryBillings(context.Background(), billing.QueryFilter{Month: "2024-06"})
	require.NoError(t, err)
	assert.Len(t, bills, len(f.students))
	for _, b := range bills {
		assert.Equal(t, f.cls.ID, b.ClassID)
		assert.Equal(t, "2024-06-15", b.DueDate)
		assert.Equal(t, billing.StatusPending, b.Status)
	}

	res, err := svc.GenerateMonthlyBills(context.Background(), now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, len(f.students), res.Skipped)
}

func TestBillingRepository_UpdateBillingStatus(t *testing.T) {
	db := startPostgres(t)
	f := seed(t, db, 1)
	repo := sqlxrepos.NewBillingRepository(db)
	ctx := context.Background()

	inserted, err := repo.CreateBillings(ctx, []billing.Billing{{
		ID: uuid.NewString(), StudentID: f.students[0].ID, ClassID: f.cls.ID, Amount: 500000,
		BillingMonth: "2024-06", DueDate: "2024-06-15", Status: billing.StatusPending,
		InvoiceNumber: "INV-202406-ABC123", CreatedAt: time.Now().UTC(),
	}})
	require.NoError(t, err)
	require.Len(t, inserted, 1)

	paidAt := time.Date(2024, time.June, 10, 3, 0, 0, 0, time.UTC)
	paid, err := repo.UpdateBillingStatus(ctx, inserted[0].ID, billing.StatusPaid, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paidAt.Equal(*paid.PaidAt))

	_, err = repo.UpdateBillingStatus(ctx, uuid.NewString(), billing.StatusPaid, nil)
	assert.Equal(t, billing.ErrNotFound, err)
	_, err = repo.UpdateBillingStatus(ctx, "not-a-uuid", billing.StatusPaid, nil)
	assert.Equal(t, billing.ErrNotFound, err)
}

func TestAttendanceRepository_logs(t *testing.T) {
	db := startPostgres(t)
	f := seed(t, db, 0)
	repo := sqlxrepos.NewAttendanceRepository(db)
	ctx := context.Background()

	newLog := func(status, notes string) attendance.Log {
		return attendance.Log{
			ID: uuid.NewString(), ScheduleID: f.schedule.ID, ClassID: f.cls.ID, TeacherID: f.cls.TeacherID,
			SessionDate: "2024-06-03", Status: status, Notes: notes, CreatedAt: time.Now().UTC(),
		}
	}

	sessions, err := repo.QuerySessionsByDay(ctx, int(time.Monday))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, f.cls.TeacherID, sessions[0].TeacherID)

	t.Run("missed log is created once", func(t *testing.T) {
		ok, err := repo.CreateMissedLog(ctx, newLog(attendance.StatusMissed, ""))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.CreateMissedLog(ctx, newLog(attendance.StatusMissed, ""))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("teacher's record overwrites it", func(t *testing.T) {
		saved, err := repo.SaveLog(ctx, newLog(attendance.StatusPresent, "all good"))
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, saved.Status)
		assert.Equal(t, "2024-06-03", saved.SessionDate)

		logs, err := repo.QueryLogs(ctx, attendance.QueryFilter{ClassID: f.cls.ID})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, attendance.StatusPresent, logs[0].Status)
		assert.Equal(t, "all good", logs[0].Notes)
	})

	t.Run("scoped to the class teacher", func(t *testing.T) {
		logs, err := repo.QueryLogs(ctx, attendance.QueryFilter{TeacherID: f.cls.TeacherID, From: "2024-06-01"})
		require.NoError(t, err)
		assert.Len(t, logs, 1)

		logs, err = repo.QueryLogs(ctx, attendance.QueryFilter{TeacherID: "t2"})
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("missed log never overwrites a record", func(t *testing.T) {
		ok, err := repo.CreateMissedLog(ctx, newLog(attendance.StatusMissed, ""))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed class id", func(t *testing.T) {
		logs, err := repo.QueryLogs(ctx, attendance.QueryFilter{ClassID: "nope"})
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}
