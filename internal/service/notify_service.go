package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"aqve/internal/config"
	"aqve/internal/entities"
)

type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Event is the outcome of a mutation as shown to the user. Booking is set
// for booking outcomes, with Status naming what happened to it.
type Event struct {
	Level   Level
	Message string
	Booking *entities.Booking
	Status  string
}

// Notifier delivers mutation outcomes.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// LogNotifier writes every event to the log.
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (n LogNotifier) Notify(ctx context.Context, e Event) {
	log := n.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if e.Level == LevelError {
		log.Errorw(e.Message)
		return
	}
	log.Infow(e.Message)
}

// MultiNotifier sends every event to each of its notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier mails booking confirmations, cancellations and extensions
// through SendGrid. Other events are ignored.
type EmailNotifier struct {
	sender    mailSender
	fromEmail string
	fromName  string
	to        string
	toName    string
	log       *zap.SugaredLogger
}

func NewEmailNotifier(cfg *config.Config, toName string, log *zap.SugaredLogger) *EmailNotifier {
	return newEmailNotifier(sendgrid.NewSendClient(cfg.SendGrid.APIKey), cfg, toName, log)
}

func newEmailNotifier(sender mailSender, cfg *config.Config, toName string, log *zap.SugaredLogger) *EmailNotifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &EmailNotifier{
		sender:    sender,
		fromEmail: cfg.SendGrid.FromEmail,
		fromName:  cfg.SendGrid.FromName,
		to:        cfg.Notify.Email,
		toName:    toName,
		log:       log,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, e Event) {
	if e.Booking == nil || e.Level != LevelSuccess {
		return
	}
	if err := n.send(ctx, *e.Booking, e.Status); err != nil {
		n.log.Warnf("booking %s: email not sent: %v", e.Booking.ID, err)
	}
}

func (n *EmailNotifier) send(ctx context.Context, b entities.Booking, status string) error {
	msg, err := RenderBookingMessage(b, n.toName, status)
	if err != nil {
		return err
	}

	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(n.toName, n.to)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := n.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	n.log.Debugf("booking %s: email sent to %s (status %d)", b.ID, n.to, resp.StatusCode)
	return nil
}

type smsSender interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSNotifier texts booking outcomes through Twilio.
type SMSNotifier struct {
	sender smsSender
	from   string
	to     string
	log    *zap.SugaredLogger
}

func NewSMSNotifier(cfg *config.Config, log *zap.SugaredLogger) *SMSNotifier {
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.Twilio.AccountSID,
		Password:   cfg.Twilio.AuthToken,
		AccountSid: cfg.Twilio.AccountSID,
	})
	return newSMSNotifier(c.Api, cfg, log)
}

func newSMSNotifier(sender smsSender, cfg *config.Config, log *zap.SugaredLogger) *SMSNotifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SMSNotifier{
		sender: sender,
		from:   cfg.Twilio.FromNumber,
		to:     cfg.Notify.Phone,
		log:    log,
	}
}

var errNotE164 = errors.New("recipient is not in E.164 format")

func (n *SMSNotifier) Notify(ctx context.Context, e Event) {
	if e.Booking == nil || e.Level != LevelSuccess {
		return
	}
	if !strings.HasPrefix(n.to, "+") {
		n.log.Warnf("booking %s: sms not sent: %v", e.Booking.ID, errNotE164)
		return
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(RenderBookingSMS(*e.Booking, e.Status))

	resp, err := n.sender.CreateMessage(params)
	if err != nil {
		n.log.Warnf("booking %s: sms not sent: %v", e.Booking.ID, err)
		return
	}
	if resp != nil && resp.Sid != nil {
		n.log.Debugf("booking %s: sms sent, sid %s", e.Booking.ID, *resp.Sid)
	}
}

// NewNotifier builds the notifier chain the configuration enables. display
// comes first and shows every event to the user; nil logs them instead.
func NewNotifier(cfg *config.Config, recipient string, display Notifier, log *zap.SugaredLogger) Notifier {
	if display == nil {
		display = LogNotifier{Log: log}
	}
	chain := MultiNotifier{display}
	if cfg.SendGridEnabled() {
		chain = append(chain, NewEmailNotifier(cfg, recipient, log))
	}
	if cfg.TwilioEnabled() {
		chain = append(chain, NewSMSNotifier(cfg, log))
	}
	return chain
}
