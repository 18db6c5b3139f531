//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/config"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/db"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	setTestEnv()

	if err := dockerCompose(ctx, root, "up", "-d", "postgres", "mongo"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestPostLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	author, err := signup(t, baseURL, "Ada", fmt.Sprintf("ada_%d@example.com", suffix))
	if err != nil {
		t.Fatalf("signup author: %v", err)
	}
	reader, err := signup(t, baseURL, "Grace", fmt.Sprintf("grace_%d@example.com", suffix))
	if err != nil {
		t.Fatalf("signup reader: %v", err)
	}

	var created postResponse
	status, err := call(t, http.MethodPost, baseURL+"/posts", author.Token, map[string]string{"text": "hello"}, &created)
	if err != nil || status != http.StatusCreated {
		t.Fatalf("create post: status %d err %v", status, err)
	}
	if created.UserID != author.User.ID || created.UserName != "Ada" || len(created.Likes) != 0 {
		t.Fatalf("unexpected created post: %+v", created)
	}

	var feed []postResponse
	if _, err := call(t, http.MethodGet, baseURL+"/posts", "", nil, &feed); err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if !containsPost(feed, created.ID) {
		t.Fatalf("created post missing from feed")
	}

	var liked postResponse
	if _, err := call(t, http.MethodPost, baseURL+"/posts/"+created.ID+"/like", reader.Token, nil, &liked); err != nil {
		t.Fatalf("like post: %v", err)
	}
	if len(liked.Likes) != 1 || liked.Likes[0] != reader.User.ID {
		t.Fatalf("unexpected likes after like: %v", liked.Likes)
	}

	var unliked postResponse
	if _, err := call(t, http.MethodPost, baseURL+"/posts/"+created.ID+"/like", reader.Token, nil, &unliked); err != nil {
		t.Fatalf("unlike post: %v", err)
	}
	if len(unliked.Likes) != 0 {
		t.Fatalf("unexpected likes after unlike: %v", unliked.Likes)
	}

	var rejected errorResponse
	status, _ = call(t, http.MethodPut, baseURL+"/posts/"+created.ID, reader.Token, map[string]string{"text": "hijacked"}, &rejected)
	if status != http.StatusUnauthorized || rejected.Error != "AuthorizationError" {
		t.Fatalf("expected authorization error, got %d %+v", status, rejected)
	}

	var byAuthor []postResponse
	if _, err := call(t, http.MethodGet, baseURL+"/posts/by-author/"+author.User.ID, "", nil, &byAuthor); err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].Text != "hello" {
		t.Fatalf("unexpected author posts: %+v", byAuthor)
	}

	var deleted struct {
		ID string `json:"id"`
	}
	if status, err := call(t, http.MethodDelete, baseURL+"/posts/"+created.ID, author.Token, nil, &deleted); err != nil || status != http.StatusOK {
		t.Fatalf("delete post: status %d err %v", status, err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("unexpected deleted id %q", deleted.ID)
	}

	var missing errorResponse
	status, _ = call(t, http.MethodDelete, baseURL+"/posts/"+created.ID, author.Token, nil, &missing)
	if status != http.StatusBadRequest || missing.Error != "NotFoundError" {
		t.Fatalf("expected not found on second delete, got %d %+v", status, missing)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("dup_%d@example.com", time.Now().UnixNano())

	if _, err := signup(t, baseURL, "First", email); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	var conflict errorResponse
	body := map[string]string{"name": "Second", "email": email, "password": "testpass123!"}
	status, _ := call(t, http.MethodPost, baseURL+"/users/signup", "", body, &conflict)
	if status != http.StatusConflict || conflict.Error != "ConflictError" {
		t.Fatalf("expected conflict, got %d %+v", status, conflict)
	}
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type postResponse struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	UserID   string   `json:"userId"`
	UserName string   `json:"userName"`
	Likes    []string `json:"likes"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func signup(t *testing.T, baseURL, name, email string) (authResponse, error) {
	t.Helper()

	var parsed authResponse
	body := map[string]string{"name": name, "email": email, "password": "testpass123!"}
	status, err := call(t, http.MethodPost, baseURL+"/users/signup", "", body, &parsed)
	if err != nil {
		return authResponse{}, err
	}
	if status != http.StatusCreated {
		return authResponse{}, fmt.Errorf("signup status %d", status)
	}
	if parsed.Token == "" {
		return authResponse{}, fmt.Errorf("missing token in signup response")
	}
	return parsed, nil
}

func call(t *testing.T, method, url, token string, body, out any) (int, error) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", strings.TrimSpace(string(data)), err)
		}
	}
	return resp.StatusCode, nil
}

func containsPost(posts []postResponse, id string) bool {
	for _, p := range posts {
		if p.ID == id {
			return true
		}
	}
	return false
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(cfg.Database))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setTestEnv() {
	uploadDir, _ := os.MkdirTemp("", "connectsphere-e2e-uploads")

	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("STORE_BACKEND", "postgres")
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "connectsphere")
	_ = os.Setenv("DB_PASSWORD", "connectsphere")
	_ = os.Setenv("DB_NAME", "connectsphere")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "local")
	_ = os.Setenv("UPLOAD_DIR", uploadDir)
	_ = os.Setenv("MQ_BACKEND", "")
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
