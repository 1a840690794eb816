package testfixtures

import (
	"time"

	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *zap.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory whose clock ticks one second
// per read, so schedules created in sequence sort deterministically.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewTickingClock(time.Time{}, time.Second),
		IDGenerator: NewIDGenerator("schedule"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Logger == nil {
		factory.Logger = zap.NewNop()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator. Passing nil makes the
// schedule service issue random UUIDs.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *zap.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// ScheduleServiceDeps captures dependencies for constructing a schedule service.
type ScheduleServiceDeps struct {
	Repositories application.Repositories
	Transactor   application.Transactor
	Options      application.ScheduleOptions
}

// NewScheduleService builds a schedule service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewScheduleService(deps ScheduleServiceDeps) *application.ScheduleService {
	return application.NewScheduleServiceWithLogger(
		deps.Repositories,
		deps.Transactor,
		deps.Options,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// NewAvailabilityService builds an availability service.
func (f *ServiceFactory) NewAvailabilityService(repos application.Repositories, strict bool) *application.AvailabilityService {
	return application.NewAvailabilityServiceWithLogger(repos, strict, f.Logger)
}

// NewViewBuilder builds a view builder.
func (f *ServiceFactory) NewViewBuilder(repos application.Repositories) *application.ViewBuilder {
	return application.NewViewBuilderWithLogger(repos, f.Logger)
}

// NewUserService builds a user service.
func (f *ServiceFactory) NewUserService(repos application.Repositories) *application.UserService {
	return application.NewUserServiceWithLogger(repos.Users, f.Logger)
}
