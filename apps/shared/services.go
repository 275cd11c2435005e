package shared

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/resource"
	"github.com/napthedev/edura/core/user"
	blobsvc "github.com/napthedev/edura/services/blob"
	emailsvc "github.com/napthedev/edura/services/email"
	"github.com/napthedev/edura/storage/database/sqlxrepos"
)

type Services struct {
	User       user.Service
	Class      class.Service
	Billing    billing.Service
	Attendance attendance.Service
	Resource   resource.Service
}

// NewServices builds every domain service on top of the Postgres repositories.
func NewServices(ctx context.Context, conf *core.Config, db *sqlx.DB, logger core.Logger, validate *validator.Validate) (Services, error) {
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	store, err := blobsvc.NewStore(ctx, conf, logger)
	if err != nil {
		return Services{}, errors.Wrap(err, "setting up blob store")
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), validate)
	classSvc := class.NewService(sqlxrepos.NewClassRepository(db), usrSvc, validate)

	return Services{
		User:  usrSvc,
		Class: classSvc,
		Billing: billing.NewService(sqlxrepos.NewBillingRepository(db), mailSvc, logger, validate, billing.Options{
			Location: conf.Timezone,
			DueDay:   conf.Billing.DueDay,
			Notify:   conf.Billing.Notify,
		}),
		Attendance: attendance.NewService(sqlxrepos.NewAttendanceRepository(db), logger, validate, attendance.Options{
			Location:     conf.Timezone,
			GraceMinutes: conf.Attendance.GraceMinutes,
		}),
		Resource: resource.NewService(sqlxrepos.NewResourceRepository(db), classSvc, store, logger, validate),
	}, nil
}
