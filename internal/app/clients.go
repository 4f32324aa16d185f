package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/cache"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/sendgrid"
	"github.com/yungbote/deelicious-bakes-backend/internal/realtime"
	"github.com/yungbote/deelicious-bakes-backend/internal/realtime/bus"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

const cacheKeyPrefix = "bakes:"

// Clients holds the outbound integrations. Cache, Bus and Metrics are
// optional; EmailSender falls back to logging and Emitter to the local hub.
type Clients struct {
	Cache        cache.Cache
	EmailSender  email.Sender
	Hub          *realtime.Hub
	Bus          bus.Bus
	Emitter      services.Emitter
	Metrics      *observability.Metrics
	otelShutdown func(context.Context) error
	closers      []func() error
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		c, err := cache.NewRedis(log, cfg.RedisAddr, cacheKeyPrefix)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		out.Cache = c
		if closer, ok := c.(interface{ Close() error }); ok {
			out.closers = append(out.closers, closer.Close)
		}
	} else {
		log.Info("REDIS_ADDR not set, catalog caching disabled")
	}

	// Realtime
	out.Hub = realtime.NewHub(log)
	out.Emitter = &services.HubEmitter{Hub: out.Hub}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := bus.NewRedisBus(log, cfg.RedisAddr, cfg.RealtimeChannel)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init realtime bus: %w", err)
		}
		out.Bus = b
		out.closers = append(out.closers, b.Close)
		fwdCtx, stopForwarder := context.WithCancel(context.Background())
		if err := b.StartForwarder(fwdCtx, out.Hub.Broadcast); err != nil {
			stopForwarder()
			out.Close()
			return Clients{}, fmt.Errorf("start realtime forwarder: %w", err)
		}
		out.closers = append(out.closers, func() error { stopForwarder(); return nil })
		out.Emitter = &services.BusEmitter{Bus: b, Log: log}
	}

	// SendGrid
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		client, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		out.EmailSender = email.NewSendGridSender(client, cfg.SendGrid.DefaultFromEmail, cfg.SendGrid.DefaultFromName, cfg.Branding.SupportEmail)
	} else {
		out.EmailSender = email.NewLogSender(log)
	}

	// Observability
	if cfg.MetricsEnabled {
		out.Metrics = observability.Init(log)
	}
	if cfg.OtelEnabled {
		out.otelShutdown = observability.InitOTel(context.Background(), log, cfg.Otel)
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
	if c.otelShutdown != nil {
		_ = c.otelShutdown(context.Background())
		c.otelShutdown = nil
	}
}
