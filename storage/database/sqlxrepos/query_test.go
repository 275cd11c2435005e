package sqlxrepos

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/resource"
)

func TestListQueries(t *testing.T) {
	tests := []struct {
		name     string
		query    sq.Sqlizer
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "All billings",
			query:   billingsQuery(billing.QueryFilter{}, nil),
			wantSQL: "SELECT * FROM tuition_billing ORDER BY created_at DESC, invoice_number",
		},
		{
			name:     "Billings of a student for a month",
			query:    billingsQuery(billing.QueryFilter{Month: "2024-06", StudentID: "s1", Status: billing.StatusPending}, nil),
			wantSQL:  "SELECT * FROM tuition_billing WHERE billing_month = $1 AND student_id = $2 AND status = $3 ORDER BY created_at DESC, invoice_number",
			wantArgs: []interface{}{"2024-06", "s1", billing.StatusPending},
		},
		{
			name: "Billings ordered by known fields only",
			query: billingsQuery(billing.QueryFilter{ClassID: "c1"}, []core.DBOrdering{
				{Field: "dueDate", Ascending: true},
				{Field: "password"},
				{Field: "amount"},
			}),
			wantSQL:  "SELECT * FROM tuition_billing WHERE class_id = $1 ORDER BY due_date ASC, amount DESC",
			wantArgs: []interface{}{"c1"},
		},
		{
			name:     "Attendance logs of a teacher within a range",
			query:    logsQuery(attendance.QueryFilter{TeacherID: "t1", From: "2024-06-01", To: "2024-06-30"}),
			wantSQL:  "SELECT * FROM attendance_logs WHERE teacher_id = $1 AND session_date >= $2 AND session_date <= $3 ORDER BY session_date DESC, created_at DESC",
			wantArgs: []interface{}{"t1", "2024-06-01", "2024-06-30"},
		},
		{
			name:     "Attendance logs of a class",
			query:    logsQuery(attendance.QueryFilter{ClassID: "c1"}),
			wantSQL:  "SELECT * FROM attendance_logs WHERE class_id = $1 ORDER BY session_date DESC, created_at DESC",
			wantArgs: []interface{}{"c1"},
		},
		{
			name:     "Classes of a student",
			query:    classesQuery(class.QueryFilter{StudentID: "s1"}),
			wantSQL:  "SELECT c.* FROM classes c WHERE EXISTS (SELECT 1 FROM enrollments e WHERE e.class_id = c.class_id AND e.active AND e.student_id = $1) ORDER BY c.name, c.class_id",
			wantArgs: []interface{}{"s1"},
		},
		{
			name:     "Classes of a teacher",
			query:    classesQuery(class.QueryFilter{TeacherID: "t1"}),
			wantSQL:  "SELECT c.* FROM classes c WHERE c.teacher_id = $1 ORDER BY c.name, c.class_id",
			wantArgs: []interface{}{"t1"},
		},
		{
			name:     "Submissions of a student to an assignment",
			query:    submissionsQuery(resource.SubmissionFilter{AssignmentID: "a1", StudentID: "s1"}),
			wantSQL:  "SELECT * FROM submissions WHERE assignment_id = $1 AND student_id = $2 ORDER BY submitted_at DESC",
			wantArgs: []interface{}{"a1", "s1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if len(tt.wantArgs) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}
