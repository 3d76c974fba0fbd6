// Package session manages conversation sessions and their message log, with a
// sealed read-through cache for session documents.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lingopal/conversation-service/internal/core/cache"
	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/pkg/encryption"
)

const (
	// DefaultSessionTTL is the default TTL for cached session documents.
	DefaultSessionTTL = 3 * time.Minute

	// DefaultListLimit caps list operations when no limit is given.
	DefaultListLimit = 100
)

// CreateInput describes a new session.
type CreateInput struct {
	Title    string
	Metadata models.SessionMetadata
}

// Service provides session and message operations.
type Service interface {
	// Create stores a new active session owned by userID.
	Create(ctx context.Context, userID string, in *CreateInput) (*models.Session, error)

	// Get returns a session or a not found error.
	Get(ctx context.Context, id string) (*models.Session, error)

	// GetOwned returns a session owned by userID. Sessions of other users are forbidden.
	GetOwned(ctx context.Context, id, userID string) (*models.Session, error)

	// ListByUser lists the sessions of a user, most recently updated first.
	ListByUser(ctx context.Context, userID string, skip, limit int64) ([]*models.Session, error)

	// UpdateTitle renames a session owned by userID.
	UpdateTitle(ctx context.Context, id, userID, title string) (*models.Session, error)

	// Touch marks a session as updated now.
	Touch(ctx context.Context, id string) error

	// Delete removes a session owned by userID together with its messages.
	Delete(ctx context.Context, id, userID string) error

	// AppendMessage persists a message with an ID and a timestamp that never goes
	// backwards.
	AppendMessage(ctx context.Context, message *models.Message) error

	// ListMessages lists the messages of a session in timestamp order.
	ListMessages(ctx context.Context, sessionID string, skip, limit int64) ([]*models.Message, error)

	// BuildCacheKey generates the cache key for a session.
	BuildCacheKey(id string) string
}

// Config holds the configuration for the session service.
type Config struct {
	Sessions    docdb.SessionsCollection
	Messages    docdb.MessagesCollection
	CacheClient cache.Client
	Sealer      encryption.Sealer
	TTL         time.Duration
}

// service implements the Service interface.
type service struct {
	sessions    docdb.SessionsCollection
	messages    docdb.MessagesCollection
	cacheClient cache.Client
	sealer      encryption.Sealer
	ttl         time.Duration
	clock       *monotonicClock
}

// NewService creates a new session service. The cache client is optional.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("sessions collection is required")
	}
	if cfg.Messages == nil {
		return nil, fmt.Errorf("messages collection is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}

	sealer := cfg.Sealer
	if sealer == nil {
		sealer = encryption.PlainSealer{}
	}

	return &service{
		sessions:    cfg.Sessions,
		messages:    cfg.Messages,
		cacheClient: cfg.CacheClient,
		sealer:      sealer,
		ttl:         ttl,
		clock:       &monotonicClock{},
	}, nil
}

func (s *service) Create(ctx context.Context, userID string, in *CreateInput) (*models.Session, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID is required", "")
	}
	if in == nil {
		in = &CreateInput{}
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = models.DefaultSessionTitle
	}

	now := s.clock.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		IsActive:  true,
		Metadata:  in.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, errors.NewPersistenceError("create session", err)
	}

	s.setCached(ctx, session)
	return session, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Session, error) {
	if session := s.getCached(ctx, id); session != nil {
		return session, nil
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, errors.NewPersistenceError("load session", err)
	}
	if session == nil {
		return nil, errors.NewNotFoundError("Session", id)
	}

	s.setCached(ctx, session)
	return session, nil
}

func (s *service) GetOwned(ctx context.Context, id, userID string) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsOwnedBy(userID) {
		return nil, errors.NewForbiddenError("Not authorized to access this session")
	}
	return session, nil
}

func (s *service) ListByUser(ctx context.Context, userID string, skip, limit int64) ([]*models.Session, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	sessions, err := s.sessions.ListByUser(ctx, &docdb.ListSessionsOptions{
		UserID: userID,
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		return nil, errors.NewPersistenceError("list sessions", err)
	}
	return sessions, nil
}

func (s *service) UpdateTitle(ctx context.Context, id, userID, title string) (*models.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidationError("title is required", "")
	}

	session, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	found, err := s.sessions.UpdateTitle(ctx, id, title, now)
	if err != nil {
		return nil, errors.NewPersistenceError("update session", err)
	}
	s.invalidate(ctx, id)
	if !found {
		return nil, errors.NewNotFoundError("Session", id)
	}

	updated := *session
	updated.Title = title
	updated.UpdatedAt = now
	return &updated, nil
}

func (s *service) Touch(ctx context.Context, id string) error {
	if err := s.sessions.Touch(ctx, id, s.clock.Now()); err != nil {
		return errors.NewPersistenceError("touch session", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.GetOwned(ctx, id, userID); err != nil {
		return err
	}

	if _, err := s.messages.DeleteBySession(ctx, id); err != nil {
		return errors.NewPersistenceError("delete session messages", err)
	}
	if _, err := s.sessions.Delete(ctx, id); err != nil {
		return errors.NewPersistenceError("delete session", err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *service) AppendMessage(ctx context.Context, message *models.Message) error {
	if message == nil || message.SessionID == "" {
		return errors.NewValidationError("message session is required", "")
	}
	if !message.Role.IsValid() {
		return errors.NewValidationError("invalid message role", string(message.Role))
	}

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.Timestamp = s.clock.Next(message.Timestamp)

	if err := s.messages.Insert(ctx, message); err != nil {
		return errors.NewPersistenceError("save message", err)
	}
	return nil
}

func (s *service) ListMessages(ctx context.Context, sessionID string, skip, limit int64) ([]*models.Message, error) {
	messages, err := s.messages.ListBySession(ctx, &docdb.ListMessagesOptions{
		SessionID: sessionID,
		Skip:      skip,
		Limit:     limit,
		OrderBy:   docdb.SortOrderAsc,
	})
	if err != nil {
		return nil, errors.NewPersistenceError("load messages", err)
	}
	return messages, nil
}

func (s *service) BuildCacheKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// getCached returns nil on any miss. Entries that cannot be opened (for example
// after a key rotation) or decoded are dropped.
func (s *service) getCached(ctx context.Context, id string) *models.Session {
	if s.cacheClient == nil {
		return nil
	}

	key := s.BuildCacheKey(id)
	sealed, err := s.cacheClient.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("session cache read failed")
		return nil
	}
	if sealed == nil {
		return nil
	}

	data, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil
	}
	return &session
}

func (s *service) setCached(ctx context.Context, session *models.Session) {
	if s.cacheClient == nil {
		return
	}

	data, err := json.Marshal(session)
	if err != nil {
		return
	}

	key := s.BuildCacheKey(session.ID)
	sealed, err := s.sealer.Seal(data, []byte(key))
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to seal session")
		return
	}
	if err := s.cacheClient.Set(ctx, key, sealed, s.ttl); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("session cache write failed")
	}
}

func (s *service) invalidate(ctx context.Context, id string) {
	if s.cacheClient == nil {
		return
	}
	if _, err := s.cacheClient.Delete(ctx, s.BuildCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("session cache invalidation failed")
	}
}

// monotonicClock hands out UTC timestamps at the store's millisecond precision
// that never go backwards within the process.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

// Now returns the current time, bumped past the last issued timestamp if needed.
func (c *monotonicClock) Now() time.Time {
	return c.Next(time.Time{})
}

// Next returns the later of want (or now, when want is zero) and one millisecond
// after the last issued timestamp.
func (c *monotonicClock) Next(want time.Time) time.Time {
	if want.IsZero() {
		want = time.Now()
	}
	want = want.UTC().Truncate(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !want.After(c.last) {
		want = c.last.Add(time.Millisecond)
	}
	c.last = want
	return want
}
