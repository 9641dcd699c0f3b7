package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/harrisonrobin/evertask/pkg/config"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/store"
)

const GitHubAPI = "https://api.github.com"

// GitHubProfile is the part of GET /user we use.
type GitHubProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// GitHubConfig builds the OAuth2 config for GitHub sign-in.
func GitHubConfig(c config.GitHubConfig) (*oauth2.Config, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("github client id and secret are required (set GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET)")
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     github.Endpoint,
		RedirectURL:  localRedirect(""),
		Scopes:       []string{"read:user"},
	}, nil
}

// GitHubLogin signs the user in through the browser and returns the local
// account linked to their GitHub identity, creating it on first login.
func GitHubLogin(ctx context.Context, c config.GitHubConfig, users store.UserStore) (model.User, error) {
	cfg, err := GitHubConfig(c)
	if err != nil {
		return model.User{}, err
	}
	tok, err := TokenFromWeb(ctx, cfg)
	if err != nil {
		return model.User{}, err
	}
	profile, err := FetchGitHubProfile(ctx, cfg.Client(ctx, tok), GitHubAPI)
	if err != nil {
		return model.User{}, err
	}
	return LinkGitHubUser(ctx, users, profile)
}

// FetchGitHubProfile calls GET {apiBase}/user with an authorized client.
func FetchGitHubProfile(ctx context.Context, client *http.Client, apiBase string) (GitHubProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/user", nil)
	if err != nil {
		return GitHubProfile{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return GitHubProfile{}, fmt.Errorf("github profile request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GitHubProfile{}, fmt.Errorf("github profile request failed: %s", resp.Status)
	}

	var p GitHubProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return GitHubProfile{}, fmt.Errorf("failed to decode github profile: %w", err)
	}
	if p.ID == 0 || p.Login == "" {
		return GitHubProfile{}, fmt.Errorf("github profile is missing id or login")
	}
	return p, nil
}

// LinkGitHubUser finds the account for a GitHub profile or creates one
// named after the login. If a password account already owns that name the
// new account is named login@github.
func LinkGitHubUser(ctx context.Context, users store.UserStore, p GitHubProfile) (model.User, error) {
	githubID := strconv.FormatInt(p.ID, 10)
	u, err := users.UserByGitHubID(ctx, githubID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, err
	}

	u, err = users.CreateUser(ctx, model.User{Username: p.Login, GitHubID: githubID})
	if errors.Is(err, store.ErrConflict) {
		u, err = users.CreateUser(ctx, model.User{Username: p.Login + "@github", GitHubID: githubID})
	}
	return u, err
}
