package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rinknet/pkg/domain"
)

// AuthorRole tags who wrote a thread message.
type AuthorRole string

const (
	RoleDisputant AuthorRole = "disputant"
	RoleUser      AuthorRole = "user"
	RoleSupport   AuthorRole = "support"
	RoleAdmin     AuthorRole = "admin"
)

// ThreadMessage is one entry in an append-only conversation. Threads are
// keyed by an owner id (a dispute or a support ticket) and preserve creation
// order.
type ThreadMessage struct {
	ID        domain.MessageID
	OwnerID   string
	Role      AuthorRole
	AuthorID  domain.AccountID
	Text      string
	CreatedAt time.Time
}

// ThreadStore persists message threads. Shared between the dispute workflow
// and support tickets.
type ThreadStore interface {
	Append(ctx context.Context, msg *ThreadMessage) error
	List(ctx context.Context, ownerID string) ([]*ThreadMessage, error)
}

// MemoryThreadStore is an in-memory ThreadStore.
type MemoryThreadStore struct {
	mu       sync.RWMutex
	messages map[string][]*ThreadMessage
}

func NewMemoryThreadStore() *MemoryThreadStore {
	return &MemoryThreadStore{messages: make(map[string][]*ThreadMessage)}
}

func (s *MemoryThreadStore) Append(_ context.Context, msg *ThreadMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.OwnerID] = append(s.messages[msg.OwnerID], &cp)
	return nil
}

func (s *MemoryThreadStore) List(_ context.Context, ownerID string) ([]*ThreadMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[ownerID]
	out := make([]*ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PostgresThreadStore persists one thread table. The table name is fixed at
// construction so disputes and support keep separate tables over the same
// code.
type PostgresThreadStore struct {
	db    *sql.DB
	table string
}

func NewPostgresThreadStore(db *sql.DB, table string) *PostgresThreadStore {
	return &PostgresThreadStore{db: db, table: table}
}

func (s *PostgresThreadStore) Append(ctx context.Context, msg *ThreadMessage) error {
	if msg == nil {
		return errors.New("thread message is required")
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, author_role, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, s.table)
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(msg.ID), msg.OwnerID, string(msg.Role), uuid.UUID(msg.AuthorID),
		msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append thread message: %w", err)
	}
	return nil
}

func (s *PostgresThreadStore) List(ctx context.Context, ownerID string) ([]*ThreadMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, author_role, author_id, text, created_at
		FROM %s WHERE owner_id = $1 ORDER BY created_at, id`, s.table)
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}
	defer rows.Close()

	var out []*ThreadMessage
	for rows.Next() {
		var (
			msg      ThreadMessage
			id       uuid.UUID
			authorID uuid.UUID
			role     string
		)
		if err := rows.Scan(&id, &msg.OwnerID, &role, &authorID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread message: %w", err)
		}
		msg.ID = domain.MessageID(id)
		msg.Role = AuthorRole(role)
		msg.AuthorID = domain.AccountID(authorID)
		out = append(out, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread messages: %w", err)
	}
	return out, nil
}
