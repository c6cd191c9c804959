package gateway

import (
	"log/slog"
	"time"

	httpadapter "nodegate/internal/gateway/adapters/http"
	"nodegate/internal/gateway/adapters/memory"
	"nodegate/internal/gateway/application"
	"nodegate/internal/gateway/application/workers"
	"nodegate/internal/gateway/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Service   application.Service
	Recorder  workers.EventRecorder
	Publisher workers.OutboxPublisher

	// Populated only by NewInMemoryModule for tests and local runs.
	Engine *memory.Engine
	Outbox *memory.OutboxStore
	Sink   *memory.Sink
}

type Dependencies struct {
	Engine    ports.NodeEngine
	Source    ports.EventSource
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock

	PageSize       int
	EventsTopic    string
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Engine:   deps.Engine,
		PageSize: deps.PageSize,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		Recorder: workers.EventRecorder{
			Source: deps.Source,
			Outbox: deps.Outbox,
			Logger: deps.Logger,
		},
		Publisher: workers.OutboxPublisher{
			Outbox:         deps.Outbox,
			Publisher:      deps.Publisher,
			Clock:          deps.Clock,
			Topic:          deps.EventsTopic,
			PollInterval:   deps.PollInterval,
			InitialBackoff: deps.InitialBackoff,
			MaxBackoff:     deps.MaxBackoff,
			Logger:         deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory engine, outbox and
// event sink.
func NewInMemoryModule(logger *slog.Logger) Module {
	engine := memory.NewEngine()
	outbox := memory.NewOutboxStore()
	sink := memory.NewSink()
	module := NewModule(Dependencies{
		Engine:    engine,
		Source:    engine,
		Outbox:    outbox,
		Publisher: sink,
		Clock:     systemClock{},
		Logger:    logger,
	})
	module.Engine = engine
	module.Outbox = outbox
	module.Sink = sink
	return module
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
