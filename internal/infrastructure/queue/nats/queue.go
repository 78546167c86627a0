package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rulevii/compliance-rag/internal/infrastructure/resilience"
)

const defaultQueueGroup = "corpus-workers"

// ingestEvent is the message published after a corpus file is stored and recorded.
type ingestEvent struct {
	DocumentID  string    `json:"document_id"`
	PublishedAt time.Time `json:"published_at"`
}

type Queue struct {
	conn       *nats.Conn
	subject    string
	queueGroup string
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	QueueGroup           string
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queueGroup := strings.TrimSpace(options.QueueGroup)
	if queueGroup == "" {
		queueGroup = defaultQueueGroup
	}

	conn, err := nats.Connect(
		url,
		nats.Name("compliance-rag"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:       conn,
		subject:    subject,
		queueGroup: queueGroup,
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	payload, err := encodeEvent(documentID, time.Now().UTC())
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeDocumentIngested blocks until ctx is done, handing every event to handler. The
// subscription is drained before returning so in-flight documents finish.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := decodeEnvelope(msg.Data)
		if err != nil {
			q.logger.Error("drop malformed ingest event", "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if !event.PublishedAt.IsZero() {
			handlerCtx = context.WithValue(handlerCtx, publishedAtKey{}, event.PublishedAt)
		}
		if err := handler(handlerCtx, event.DocumentID); err != nil {
			q.logger.Error("ingest handler failed", "document_id", event.DocumentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeEvent(documentID string, at time.Time) ([]byte, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("encode ingest event: empty document id")
	}
	payload, err := json.Marshal(ingestEvent{DocumentID: documentID, PublishedAt: at})
	if err != nil {
		return nil, fmt.Errorf("encode ingest event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (string, error) {
	event, err := decodeEnvelope(data)
	if err != nil {
		return "", err
	}
	return event.DocumentID, nil
}

// decodeEnvelope also accepts a bare document id, which is what older publishers sent.
func decodeEnvelope(data []byte) (ingestEvent, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return ingestEvent{}, fmt.Errorf("decode ingest event: empty payload")
	}
	if !strings.HasPrefix(raw, "{") {
		return ingestEvent{DocumentID: raw}, nil
	}

	var event ingestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ingestEvent{}, fmt.Errorf("decode ingest event: %w", err)
	}
	if strings.TrimSpace(event.DocumentID) == "" {
		return ingestEvent{}, fmt.Errorf("decode ingest event: missing document_id")
	}
	return event, nil
}

type publishedAtKey struct{}

// PublishedAt reports when the event being handled was published, if the publisher said so.
func PublishedAt(ctx context.Context) (time.Time, bool) {
	at, ok := ctx.Value(publishedAtKey{}).(time.Time)
	return at, ok
}
