package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// ErrClosed is returned by operations submitted after Close.
var ErrClosed = errors.New("store: closed")

var (
	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of document store operations.",
		},
		[]string{"operation", "status"},
	)

	storeLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds (reload, apply, save).",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(storeOps, storeLat)
}

// Store serializes every access to the document through one owner goroutine.
//
// Each operation reloads the document from the backend, applies the caller's
// function to that fresh copy and, for Update, saves the whole document
// before replying. Reloading keeps edits from other processes visible; the
// owner goroutine keeps operations of this process from interleaving.
// Writers in different processes remain last-writer-wins.
type Store struct {
	backend Backend
	reqs    chan *request
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

type request struct {
	ctx    context.Context
	op     string
	write  bool
	fn     func(*domain.Document) error
	result chan error
}

// Open loads the document once, runs the startup migration and starts the
// owner goroutine.
//
// Migration: a backend with no document gets the default one written; a
// document without the chats collection gets it backfilled and saved.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	doc, found, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	chatsMissing := doc.Normalize()

	switch {
	case !found:
		if err := backend.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("store: initialize document: %w", err)
		}
		log.Info().Msg("store: document initialized")
	case chatsMissing:
		if err := backend.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("store: migrate chats: %w", err)
		}
		log.Info().Msg("store: chats collection added to existing document")
	default:
		log.Info().
			Int("bot_tokens", len(doc.BotTokens)).
			Int("settings", len(doc.Settings)).
			Int("message_logs", len(doc.MessageLogs)).
			Int("chats", len(doc.Chats)).
			Msg("store: document loaded")
	}

	s := &Store{
		backend: backend,
		reqs:    make(chan *request),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// View runs fn against a freshly loaded document. Changes fn makes are not
// persisted. op labels metrics and logs.
func (s *Store) View(ctx context.Context, op string, fn func(*domain.Document) error) error {
	return s.do(ctx, op, false, fn)
}

// Update runs fn against a freshly loaded document and saves the result.
// Nothing is saved when fn returns an error. ctx bounds the wait for the
// owner goroutine; a nil error means the document was saved, and ctx.Err()
// means fn never ran.
func (s *Store) Update(ctx context.Context, op string, fn func(*domain.Document) error) error {
	return s.do(ctx, op, true, fn)
}

// Close stops the owner goroutine and closes the backend when it holds
// resources. It is safe to call more than once.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		<-s.done
		if c, ok := s.backend.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (s *Store) do(ctx context.Context, op string, write bool, fn func(*domain.Document) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req := &request{ctx: ctx, op: op, write: write, fn: fn, result: make(chan error, 1)}

	select {
	case <-s.quit:
		return ErrClosed
	default:
	}

	select {
	case s.reqs <- req:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// Once handed over the op runs to completion, or stops at its own ctx
	// check before loading, so the caller always learns whether it committed.
	return <-req.result
}

func (s *Store) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.reqs:
			req.result <- s.exec(req)
		}
	}
}

func (s *Store) exec(req *request) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store: %s panicked: %v", req.op, r)
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		storeOps.WithLabelValues(req.op, status).Inc()
		storeLat.WithLabelValues(req.op).Observe(time.Since(start).Seconds())
	}()

	// The caller gave up while queued.
	if err := req.ctx.Err(); err != nil {
		return err
	}

	doc, _, err := s.backend.Load(req.ctx)
	if err != nil {
		return err
	}
	doc.Normalize()

	if err := req.fn(doc); err != nil {
		return err
	}
	if !req.write {
		return nil
	}
	// fn already ran; a cancellation now must not leave half an operation.
	if err := s.backend.Save(context.WithoutCancel(req.ctx), doc); err != nil {
		log.Error().Err(err).Str("op", req.op).Msg("store: save failed")
		return err
	}
	return nil
}
