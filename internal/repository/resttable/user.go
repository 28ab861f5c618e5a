package resttable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/MumuCarrot/bestpractices-bc/pkg/errors"
	"github.com/MumuCarrot/bestpractices-bc/pkg/httpclient"

	"github.com/MumuCarrot/bestpractices-bc/internal/domain"
)

const usersTable = "users"

// Config holds the connection settings for the hosted table service.
type Config struct {
	// BaseURL is the root of the REST rows API, e.g. "https://x.example.com/rest/v1".
	BaseURL string
	// APIKey authenticates every request.
	APIKey string
	// Client settings for the underlying HTTP client.
	Client httpclient.Config
}

// UserRepository implements repository.UserRepository against a hosted
// table service exposing a PostgREST-style rows API. The store is treated
// as an opaque network-backed table: lookups are filtered GETs, creation is
// a single POST, and login uniqueness is enforced remotely.
type UserRepository struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

// NewUserRepository creates a repository over the remote rows API.
func NewUserRepository(cfg Config) *UserRepository {
	return &UserRepository{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpclient.New(cfg.Client),
	}
}

// userRow is the wire representation of a row in the users table.
type userRow struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Login:        r.Login,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
	}
}

// Create inserts a new user row. The remote unique index on login rejects
// duplicates with 409, which maps to ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	body, err := json.Marshal(userRow{
		ID:        u.ID,
		Login:     u.Login,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal user row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tableURL(nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	r.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	// Row creation is not idempotent, so it is never retried.
	resp, err := r.client.DoOnce(ctx, req)
	if err != nil {
		return fmt.Errorf("post user row: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return apperrors.AlreadyExists("user", "login", u.Login)
	default:
		return fmt.Errorf("create user row: unexpected status %d", resp.StatusCode)
	}
}

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByLogin retrieves a user by login.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.findOne(ctx, "login", login)
}

// Ping reports whether the table service answers at all.
func (r *UserRepository) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.tableURL(url.Values{"limit": {"1"}}), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ping table service: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping table service: status %d", resp.StatusCode)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*domain.User, error) {
	params := url.Values{
		column:   {"eq." + value},
		"limit":  {"1"},
		"select": {"*"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.tableURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get user rows: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get user rows: unexpected status %d", resp.StatusCode)
	}

	var rows []userRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode user rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}

	return rows[0].toDomain(), nil
}

func (r *UserRepository) tableURL(params url.Values) string {
	u := r.baseURL + "/" + usersTable
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (r *UserRepository) setHeaders(req *http.Request) {
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
}

// drainAndClose consumes the rest of the body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
