package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

type memUsers struct {
	byName map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{byName: make(map[string]model.User)} }

func (m *memUsers) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if _, ok := m.byName[u.Username]; ok {
		return model.User{}, store.Conflict("create user", nil)
	}
	u.ID = fmt.Sprintf("id-%d", len(m.byName)+1)
	m.byName[u.Username] = u
	return u, nil
}

func (m *memUsers) UserByName(ctx context.Context, name string) (model.User, error) {
	if u, ok := m.byName[name]; ok {
		return u, nil
	}
	return model.User{}, store.NotFound("user by name", nil)
}

func (m *memUsers) UserByGitHubID(ctx context.Context, id string) (model.User, error) {
	for _, u := range m.byName {
		if u.GitHubID == id {
			return u, nil
		}
	}
	return model.User{}, store.NotFound("user by github id", nil)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()

	u, err := Register(ctx, users, " alice ", "s3cret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Fatalf("Expected a bcrypt hash, got %q", u.PasswordHash)
	}

	if _, err := Register(ctx, users, "alice", "other"); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	got, err := Authenticate(ctx, users, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("Expected user %s, got %s", u.ID, got.ID)
	}

	if _, err := Authenticate(ctx, users, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := Authenticate(ctx, users, "mallory", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	var verr *model.ValidationError
	if _, err := Register(context.Background(), newMemUsers(), "  ", "pw"); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for blank username, got %v", err)
	}
	if _, err := Register(context.Background(), newMemUsers(), "bob", ""); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for blank password, got %v", err)
	}
}

func TestFetchGitHubProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"id": 42, "login": "octocat"}`)
	}))
	defer srv.Close()

	p, err := FetchGitHubProfile(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchGitHubProfile failed: %v", err)
	}
	if p.ID != 42 || p.Login != "octocat" {
		t.Errorf("Unexpected profile %+v", p)
	}
}

func TestLinkGitHubUser(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	if _, err := Register(ctx, users, "octocat", "pw"); err != nil {
		t.Fatal(err)
	}

	u, err := LinkGitHubUser(ctx, users, GitHubProfile{ID: 42, Login: "octocat"})
	if err != nil {
		t.Fatalf("LinkGitHubUser failed: %v", err)
	}
	if u.Username != "octocat@github" || u.GitHubID != "42" {
		t.Errorf("Expected fallback username, got %+v", u)
	}

	again, err := LinkGitHubUser(ctx, users, GitHubProfile{ID: 42, Login: "octocat"})
	if err != nil || again.ID != u.ID {
		t.Errorf("Expected the same account on second login, got %+v, %v", again, err)
	}
}

func TestCallbackHandlerChecksState(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("expected", codeCh, errCh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=forged&code=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for forged state, got %d", rec.Code)
	}
	if err := <-errCh; !strings.Contains(err.Error(), "state") {
		t.Errorf("Expected state error, got %v", err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?state=expected&code=abc", nil))
	if got := <-codeCh; got != "abc" {
		t.Errorf("Expected code abc, got %q", got)
	}
}

func TestLocalRedirect(t *testing.T) {
	tests := map[string]string{
		"":                          "http://localhost:6789/oauth2callback",
		"urn:ietf:wg:oauth:2.0:oob": "http://localhost:6789/oauth2callback",
		"http://localhost":          "http://localhost:6789",
		"http://127.0.0.1:8080/cb":  "http://127.0.0.1:6789/cb",
		"https://example.com/cb":    "https://example.com/cb",
	}
	for in, want := range tests {
		if got := localRedirect(in); got != want {
			t.Errorf("localRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
