package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

// RefreshTokenRepository persists opaque refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID int64) error
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	const q = `
        INSERT INTO refresh_tokens (user_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, token.UserID, token.Token, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	const q = `
        SELECT id, user_id, token, expires_at, created_at
        FROM refresh_tokens
        WHERE token = $1`
	var t domain.RefreshToken
	err := r.pool.QueryRow(ctx, q, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *refreshTokenRepository) DeleteForUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

// MemoryTokenStore is the in-memory RefreshTokenRepository.
type MemoryTokenStore struct {
	mu     sync.Mutex
	nextID int64
	byTok  map[string]domain.RefreshToken
}

// NewMemoryTokenStore builds an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{nextID: 1, byTok: make(map[string]domain.RefreshToken)}
}

func (s *MemoryTokenStore) Create(_ context.Context, token *domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.ID = s.nextID
	s.nextID++
	token.CreatedAt = time.Now()
	s.byTok[token.Token] = *token
	return nil
}

func (s *MemoryTokenStore) GetByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byTok[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := t
	return &cp, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTok[token]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.byTok, token)
	return nil
}

func (s *MemoryTokenStore) DeleteForUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, t := range s.byTok {
		if t.UserID == userID {
			delete(s.byTok, tok)
		}
	}
	return nil
}
