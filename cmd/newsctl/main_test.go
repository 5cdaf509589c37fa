package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/internal/compose"
	"github.com/montekkundan/newsapi/pkg/restapi"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRepo struct {
	mu       sync.Mutex
	articles map[int32]article.Article
	nextID   int32
}

func (m *mapRepo) Create(_ context.Context, a *article.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	a.ID = m.nextID
	m.articles[a.ID] = *a

	return nil
}

func (m *mapRepo) Get(_ context.Context, id int32) (*article.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok {
		return nil, article.ErrNotFound
	}

	return &a, nil
}

func (m *mapRepo) List(_ context.Context, _ article.Page) ([]article.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]article.Article, 0, len(m.articles))
	for id := int32(1); id <= m.nextID; id++ {
		if a, ok := m.articles[id]; ok {
			result = append(result, a)
		}
	}

	return result, nil
}

func (m *mapRepo) Update(_ context.Context, a *article.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[a.ID]; !ok {
		return article.ErrNotFound
	}
	m.articles[a.ID] = *a

	return nil
}

func (m *mapRepo) Delete(_ context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[id]; !ok {
		return article.ErrNotFound
	}
	delete(m.articles, id)

	return nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func useConfig(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "newsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("NEWSCTL_CONFIG_PATH", path)
}

func TestArticlesCommands(t *testing.T) {
	srv := httptest.NewServer(restapi.NewRouter(restapi.RouterOpts{
		Logger: zerolog.Nop(),
		Repo:   &mapRepo{articles: map[int32]article.Article{}},
	}))
	defer srv.Close()

	useConfig(t, "log_level: error\n")

	out, err := execute(t, "--api-url", srv.URL, "articles", "create", "--title", "T", "--content", "C", "--source", "S")
	require.NoError(t, err)

	var created article.Article
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, article.Article{ID: 1, Title: "T", Content: "C", Source: "S"}, created)

	_, err = execute(t, "--api-url", srv.URL, "articles", "update", "1", "--title", "T2", "--content", "C2", "--source", "S2")
	require.NoError(t, err)

	out, err = execute(t, "--api-url", srv.URL, "articles", "list")
	require.NoError(t, err)

	var list []article.Article
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, []article.Article{{ID: 1, Title: "T2", Content: "C2", Source: "S2"}}, list)

	out, err = execute(t, "--api-url", srv.URL, "articles", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Article 1 has been deleted\n", out)

	_, err = execute(t, "--api-url", srv.URL, "articles", "get", "1")
	assert.Error(t, err)

	_, err = execute(t, "--api-url", srv.URL, "articles", "get", "one")
	assert.Error(t, err)

	_, err = execute(t, "--api-url", srv.URL, "articles", "create", "--title", "T")
	assert.Error(t, err)
}

func TestLifecycleCommands_UseCompose(t *testing.T) {
	useConfig(t, `
log_level: error
compose:
  binary: echo
  project_dir: `+t.TempDir()+`
`)

	cases := []struct {
		args []string
		want string
	}{
		{args: []string{"run"}, want: "-f docker-compose.yml up -d\n"},
		{args: []string{"stop"}, want: "-f docker-compose.yml down\n"},
		{args: []string{"db-shell"}, want: "-f docker-compose.yml exec db psql -U postgres\n"},
	}

	for _, tc := range cases {
		out, err := execute(t, tc.args...)
		require.NoError(t, err, tc.args)
		assert.Equal(t, tc.want, out, tc.args)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 3, exitCode(errors.Wrap(&compose.ExitError{Command: "psql", Code: 3}, "db-view-tables")))
	assert.Equal(t, 1, exitCode(errors.New("connection refused")))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("NEWSCTL_TEST_API_HOST", "news.internal")
	useConfig(t, `
api:
  base_url: http://${NEWSCTL_TEST_API_HOST}:8080
  timeout: 3s
compose:
  binary: docker compose
  project_dir: /srv/News API
bench:
  mode: parallel
  percentiles: [50, 99]
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://news.internal:8080", cfg.API.BaseURL)
	assert.Equal(t, "3s", cfg.API.Timeout.String())
	assert.Equal(t, "docker compose", cfg.Compose.Binary)
	assert.Equal(t, "docker-compose.yml", cfg.Compose.File)
	assert.Equal(t, "newsapi", cfg.Compose.Project)
	assert.Equal(t, "/srv/News API", cfg.Docker.ContextDir)
	assert.Equal(t, "montekkundan/rustapp:1.0.0", cfg.Docker.Image)
	assert.Equal(t, []int{50, 99}, cfg.Bench.Percentiles)
	assert.Equal(t, "parallel", string(cfg.Bench.Mode))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("NEWSCTL_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "newsapi", projectName("NewsAPI"))
	assert.Equal(t, "myapp_-2", projectName("My App!_-2"))
	assert.Equal(t, "news", projectName("_news"))
	assert.Equal(t, "news_1", projectName("-_News_1"))
}
