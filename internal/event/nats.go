// Package event publishes gateway events (logged messages, chat syncs) to
// NATS JetStream. When NATS is not configured or unreachable a no-op
// publisher is used, so publishing never blocks the gateway.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

const (
	// StreamName is the JetStream stream holding every gateway event.
	StreamName = "GATEWAY_EVENTS"

	SubjectMessageLogged = "gateway.messages.logged"
	SubjectChatsSynced   = "gateway.chats.synced"

	envelopeVersion = "1.0.0"
)

// Publisher publishes gateway events.
type Publisher interface {
	PublishMessageLogged(ctx context.Context, entry domain.MessageLog) error
	PublishChatsSynced(ctx context.Context, botTokenID domain.ID, res domain.SyncResult) error
	Close() error
}

// Envelope wraps every published event.
type Envelope struct {
	Type          string    `json:"type"`
	Version       string    `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId"`
	Payload       any       `json:"payload"`
}

// ChatsSynced is the payload of SubjectChatsSynced.
type ChatsSynced struct {
	BotTokenID domain.ID `json:"bot_token_id"`
	domain.SyncResult
}

type noop struct{}

// Noop returns a Publisher that drops every event.
func Noop() Publisher { return noop{} }

func (noop) PublishMessageLogged(context.Context, domain.MessageLog) error          { return nil }
func (noop) PublishChatsSynced(context.Context, domain.ID, domain.SyncResult) error { return nil }
func (noop) Close() error                                                           { return nil }

// jetStream is the subset of nats.JetStreamContext used here.
type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

type natsPub struct {
	nc *nats.Conn
	js jetStream
}

// NewPublisher connects to url and ensures the gateway stream exists. An empty
// url, a failed connection or a failed stream setup yield the no-op publisher.
func NewPublisher(url string) Publisher {
	if url == "" {
		return Noop()
	}

	nc, err := nats.Connect(url, nats.Name("telegram-gateway"), nats.Timeout(5*time.Second))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("NATS connect failed, using noop publisher")
		return Noop()
	}
	js, err := nc.JetStream()
	if err != nil {
		log.Warn().Err(err).Msg("NATS JetStream context creation failed, using noop publisher")
		nc.Close()
		return Noop()
	}
	if err := initStream(js); err != nil {
		log.Warn().Err(err).Msg("NATS stream initialization failed, using noop publisher")
		nc.Close()
		return Noop()
	}

	log.Info().Str("url", url).Str("stream", StreamName).Msg("NATS publisher ready")
	return &natsPub{nc: nc, js: js}
}

func initStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{"gateway.>"},
		Retention:  nats.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Discard:    nats.DiscardOld,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create %s stream: %w", StreamName, err)
	}
	return nil
}

func (p *natsPub) PublishMessageLogged(ctx context.Context, entry domain.MessageLog) error {
	// Log ids are unique per document, so they double as JetStream dedup ids.
	return p.publish(ctx, SubjectMessageLogged, "message-log-"+entry.ID.String(), entry)
}

func (p *natsPub) PublishChatsSynced(ctx context.Context, botTokenID domain.ID, res domain.SyncResult) error {
	return p.publish(ctx, SubjectChatsSynced, "", ChatsSynced{BotTokenID: botTokenID, SyncResult: res})
}

func (p *natsPub) publish(ctx context.Context, subject, msgID string, payload any) error {
	b, err := json.Marshal(Envelope{
		Type:          subject,
		Version:       envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.NewString(),
		Payload:       payload,
	})
	if err != nil {
		return err
	}

	opts := []nats.PubOpt{nats.Context(ctx)}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}
	if _, err := p.js.Publish(subject, b, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
