package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"retailhub/internal/events"
)

var ErrInvalidInput = errors.New("invalid input")

// ValidationError несёт сообщение, которое показывается пользователю как есть.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Publisher принимает события об изменениях. *events.Bus удовлетворяет интерфейсу.
type Publisher interface {
	Publish(ev events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// deps shared by every service
type deps struct {
	bus Publisher
	log logrus.FieldLogger
	now func() time.Time
}

// Option configures a service.
type Option func(*deps)

func WithPublisher(p Publisher) Option {
	return func(d *deps) { d.bus = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(d *deps) { d.log = l }
}

// WithClock overrides time.Now; tests pin dates with it.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func newDeps(opts []Option) deps {
	d := deps{bus: nopPublisher{}, log: logrus.StandardLogger(), now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}
	if d.bus == nil {
		d.bus = nopPublisher{}
	}
	return d
}
