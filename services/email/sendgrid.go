package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/services/metrics"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"

	// the billing job can queue one invoice per enrollment at once
	maxConcurrentSends = 4
)

var sendgridAPIFunc = sendgrid.API // mockable

type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
	cb         *gobreaker.CircuitBreaker[*rest.Response]
	sem        chan struct{}
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return newSendgridService(conf, logger)
}

func newSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	cb := gobreaker.NewCircuitBreaker[*rest.Response](gobreaker.Settings{
		Name:    "sendgrid",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(fmt.Sprintf("mail circuit breaker %q: %s -> %s", name, from, to))
		},
	})
	return &sendgridService{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(conf.AppName, conf.DefaultFromEmail),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		cb:         cb,
		sem:        make(chan struct{}, maxConcurrentSends),
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			svc.sem <- struct{}{}
			defer func() { <-svc.sem }()

			if err := svc.send(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending %q email: %v", msg.Subject, err), err)
			}
		}()
	}
}

// send renders msg and posts it; messages with nothing to send are dropped silently.
func (svc *sendgridService) send(msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	_, err := svc.cb.Execute(func() (*rest.Response, error) {
		res, err := sendgridAPIFunc(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusBadRequest {
			return res, errors.Errorf("status: %d - body: %s", res.StatusCode, res.Body)
		}
		return res, nil
	})
	metrics.EmailsSent.WithLabelValues(metrics.Outcome(err)).Inc()
	return err
}

func (svc *sendgridService) prepare(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgEmails(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}
