// Package services – ChatReconciler
//
// The reconciler merges three views of a credential's chats into one listing:
// the chat ids seen in its traffic logs, the cached chat identities, and the
// authoritative metadata fetched live from the messaging platform.
//
// For every candidate chat a lookup is attempted. Success refreshes the cached
// identity; failure never aborts the listing and falls back to the cached
// record, or to a placeholder whose type is inferred from the id shape. Each
// summary carries a Source telling which of the three it came from. Only
// storage failures abort.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/event"
	"github.com/tbourn/go-telegram-gateway/internal/repo"
	"github.com/tbourn/go-telegram-gateway/internal/store"
	"github.com/tbourn/go-telegram-gateway/internal/sysutil"
)

// MaxErrorDetails caps SyncResult.ErrorDetails.
const MaxErrorDetails = 5

// ChatReconciler lists and refreshes the chats of a credential.
type ChatReconciler struct {
	Store  *store.Store
	Relay  Relay
	Events event.Publisher

	// LogScanLimit bounds how many of the newest logs are scanned for chat
	// ids (<= 0 scans all).
	LogScanLimit int
}

// NewChatReconciler constructs a ChatReconciler. A nil publisher drops events.
func NewChatReconciler(st *store.Store, relay Relay, ev event.Publisher, logScanLimit int) *ChatReconciler {
	if ev == nil {
		ev = event.Noop()
	}
	return &ChatReconciler{Store: st, Relay: relay, Events: ev, LogScanLimit: logScanLimit}
}

// ListChats returns the reconciled chats of a credential, most recently
// active first.
func (r *ChatReconciler) ListChats(ctx context.Context, botTokenID domain.ID) ([]domain.ChatSummary, error) {
	tr := otel.Tracer("services/ChatReconciler")
	ctx, span := tr.Start(ctx, "ListChats",
		trace.WithAttributes(attribute.Int64("bot_token.id", int64(botTokenID))),
	)
	defer span.End()

	out, _, err := r.reconcile(ctx, botTokenID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("chats.count", len(out)))
	return out, nil
}

// RefreshChats runs the same reconciliation and reports counts instead of the
// listing. Per-chat lookup failures are counted, with at most
// MaxErrorDetails samples.
func (r *ChatReconciler) RefreshChats(ctx context.Context, botTokenID domain.ID) (domain.SyncResult, error) {
	tr := otel.Tracer("services/ChatReconciler")
	ctx, span := tr.Start(ctx, "RefreshChats",
		trace.WithAttributes(attribute.Int64("bot_token.id", int64(botTokenID))),
	)
	defer span.End()

	_, res, err := r.reconcile(ctx, botTokenID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.SyncResult{}, err
	}
	span.SetAttributes(
		attribute.Int("chats.synced", res.SyncedCount),
		attribute.Int("chats.errors", res.ErrorCount),
	)

	if err := r.Events.PublishChatsSynced(ctx, botTokenID, res); err != nil {
		log.Warn().Err(err).Int64("bot_token_id", int64(botTokenID)).Msg("publish chats synced failed")
	}
	return res, nil
}

func (r *ChatReconciler) reconcile(ctx context.Context, botTokenID domain.ID) ([]domain.ChatSummary, domain.SyncResult, error) {
	res := domain.SyncResult{ErrorDetails: []string{}}

	tok, err := repo.GetBotToken(ctx, r.Store, botTokenID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, res, ErrBotTokenNotFound
		}
		return nil, res, err
	}

	logChats, err := repo.ListLogChats(ctx, r.Store, botTokenID, r.LogScanLimit)
	if err != nil {
		return nil, res, err
	}
	cached, err := repo.ListChats(ctx, r.Store, &botTokenID)
	if err != nil {
		return nil, res, err
	}

	// Candidates: log-derived ids (most recent first), then cache-only ids.
	fromLogs := make(map[domain.ChatID]repo.LogChat, len(logChats))
	byID := make(map[domain.ChatID]domain.Chat, len(cached))
	candidates := make([]domain.ChatID, 0, len(logChats)+len(cached))
	for _, lc := range logChats {
		id := lc.ChatID.Key()
		if _, dup := fromLogs[id]; dup {
			continue
		}
		fromLogs[id] = lc
		candidates = append(candidates, id)
	}
	for _, c := range cached {
		id := c.ChatID.Key()
		if _, dup := byID[id]; dup {
			continue
		}
		byID[id] = c
		if _, seen := fromLogs[id]; !seen {
			candidates = append(candidates, id)
		}
	}
	res.TotalCandidates = len(candidates)
	if len(candidates) == 0 {
		return []domain.ChatSummary{}, res, nil
	}

	// A failed connection makes every lookup fail.
	client, dialErr := r.Relay.Dial(ctx, tok.Token)
	if dialErr != nil {
		log.Warn().Err(dialErr).Int64("bot_token_id", int64(botTokenID)).Msg("relay connect failed, using cached chat data")
	}

	out := make([]domain.ChatSummary, 0, len(candidates))
	for _, id := range candidates {
		lookupErr := dialErr
		var info domain.ChatInfo
		if lookupErr == nil {
			info, lookupErr = client.GetChatInfo(ctx, id)
		}

		if lookupErr == nil {
			if err := r.refresh(ctx, botTokenID, id, info, byID, fromLogs); err != nil {
				return nil, res, err
			}
			chatLookups.WithLabelValues(string(domain.SourceAuthoritative)).Inc()
			res.SyncedCount++
			out = append(out, authoritativeSummary(id, info))
			continue
		}

		chatLookups.WithLabelValues("error").Inc()
		res.ErrorCount++
		if len(res.ErrorDetails) < MaxErrorDetails {
			res.ErrorDetails = append(res.ErrorDetails, fmt.Sprintf("Chat %s: %v", id, lookupErr))
		}
		if dialErr == nil {
			log.Debug().Err(lookupErr).Str("chat_id", id.String()).Msg("chat lookup failed, falling back")
		}

		if c, ok := byID[id]; ok {
			chatLookups.WithLabelValues(string(domain.SourceCached)).Inc()
			out = append(out, cachedSummary(c))
			continue
		}
		chatLookups.WithLabelValues(string(domain.SourceInferred)).Inc()
		out = append(out, placeholderSummary(id, fromLogs[id]))
	}

	if err := r.sortByActivity(ctx, botTokenID, out); err != nil {
		return nil, res, err
	}
	return out, res, nil
}

// refresh stores authoritative metadata. last_message_at is only seeded for
// chats not cached yet, from their latest log.
func (r *ChatReconciler) refresh(ctx context.Context, botTokenID domain.ID, id domain.ChatID, info domain.ChatInfo,
	byID map[domain.ChatID]domain.Chat, fromLogs map[domain.ChatID]repo.LogChat) error {
	up := domain.ChatUpsert{
		BotTokenID: botTokenID,
		ChatID:     id,
		Title:      domain.StringPtr(info.Title),
		Username:   domain.StringPtr(info.Username),
		FirstName:  domain.StringPtr(info.FirstName),
	}
	if info.Type != "" {
		t := info.Type
		up.Type = &t
	}
	if _, cachedAlready := byID[id]; !cachedAlready {
		if lc, ok := fromLogs[id]; ok {
			at := lc.LastMessageAt
			up.LastMessageAt = &at
		}
	}
	_, err := repo.UpsertChat(ctx, r.Store, up)
	return err
}

// sortByActivity orders summaries by the stored last_message_at, newest
// first. Chats without a stored record sort last; ties keep their order.
func (r *ChatReconciler) sortByActivity(ctx context.Context, botTokenID domain.ID, out []domain.ChatSummary) error {
	stored, err := repo.ListChats(ctx, r.Store, &botTokenID)
	if err != nil {
		return err
	}
	last := make(map[domain.ChatID]time.Time, len(stored))
	for _, c := range stored {
		last[c.ChatID.Key()] = c.LastMessageAt
	}
	slices.SortStableFunc(out, func(a, b domain.ChatSummary) int {
		return last[b.ChatID.Key()].Compare(last[a.ChatID.Key()])
	})
	return nil
}

func authoritativeSummary(id domain.ChatID, info domain.ChatInfo) domain.ChatSummary {
	typ := info.Type
	if typ == "" {
		typ = domain.InferChatType(id)
	}
	return domain.ChatSummary{
		ID:        id,
		ChatID:    id,
		Title:     sysutil.FirstNonEmpty(info.Title, info.FirstName, "Unknown"),
		Username:  domain.StringPtr(info.Username),
		FirstName: domain.StringPtr(info.FirstName),
		Type:      typ,
		Source:    domain.SourceAuthoritative,
	}
}

func cachedSummary(c domain.Chat) domain.ChatSummary {
	id := c.ChatID.Key()
	typ := c.Type
	if typ == "" {
		typ = domain.InferChatType(id)
	}
	return domain.ChatSummary{
		ID:        id,
		ChatID:    id,
		Title:     sysutil.FirstNonEmpty(domain.Deref(c.Title), domain.Deref(c.FirstName), "Chat "+id.String()),
		Username:  c.Username,
		FirstName: c.FirstName,
		Type:      typ,
		Source:    domain.SourceCached,
	}
}

func placeholderSummary(id domain.ChatID, lc repo.LogChat) domain.ChatSummary {
	return domain.ChatSummary{
		ID:       id,
		ChatID:   id,
		Title:    "Chat " + id.String(),
		Username: lc.Username,
		Type:     domain.InferChatType(id),
		Source:   domain.SourceInferred,
	}
}
