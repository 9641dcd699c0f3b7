package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/evertask/pkg/config"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// Cloud Console, placed in ~/.config/evertask.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the Google OAuth token (access + refresh) next to it.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local callback server listens for the
	// OAuth redirect. The provider's registered redirect URI must match it.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// GoogleConfig creates an oauth2.Config from the client secrets file, forcing
// the redirect onto the local callback port.
func GoogleConfig(scopes []string) (*oauth2.Config, error) {
	xdgConfigBase, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}

	clientSecretsFile := filepath.Join(xdgConfigBase, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	cfg.RedirectURL = localRedirect(cfg.RedirectURL)
	return cfg, nil
}

// localRedirect rewrites a redirect URL so it points at LocalhostAuthPort.
func localRedirect(redirect string) string {
	if redirect == "" || redirect == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	parsedURL, err := url.Parse(redirect)
	if err != nil {
		log.Printf("Warning: could not parse RedirectURL '%s': %v. Using it as is.", redirect, err)
		return redirect
	}
	if parsedURL.Hostname() != "localhost" && parsedURL.Hostname() != "127.0.0.1" {
		log.Printf("Warning: RedirectURL is not a localhost callback: %s. Ensure this is correct for your setup.", redirect)
		return redirect
	}
	if parsedURL.Port() != LocalhostAuthPort {
		parsedURL.Host = net.JoinHostPort(parsedURL.Hostname(), LocalhostAuthPort)
	}
	return parsedURL.String()
}

// GoogleClient returns an authenticated *http.Client for the given scopes.
// A cached token is reused and refreshed; otherwise the browser flow runs.
func GoogleClient(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := GoogleConfig(scopes)
	if err != nil {
		return nil, err
	}

	xdgConfigBase, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}
	tokenFile := filepath.Join(xdgConfigBase, TokenFile)

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Printf("No existing token found at %s. Initiating web authorization flow...", tokenFile)
		tok, err = TokenFromWeb(ctx, cfg, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	// The token source refreshes expired access tokens; persist the result
	// so the next run starts from the newest token.
	src := cfg.TokenSource(ctx, tok)
	current, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		log.Println("Token was refreshed. Saving new token to file.")
		if err := saveToken(tokenFile, current); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(current, src)), nil
}

// CalendarService creates an authenticated Google Calendar service.
func CalendarService(ctx context.Context) (*calendar.Service, error) {
	scopes := []string{
		calendar.CalendarEventsScope,
		calendar.CalendarReadonlyScope,
	}
	client, err := GoogleClient(ctx, scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Calendar API: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}

// RemoveGoogleToken deletes the cached token so the next call re-authorizes.
func RemoveGoogleToken() error {
	xdgConfigBase, err := config.GetXdgHome()
	if err != nil {
		return err
	}
	tokenFile := filepath.Join(xdgConfigBase, TokenFile)
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file '%s': %w", tokenFile, err)
	}
	return nil
}

// TokenFromWeb runs the authorization code flow through a local callback
// server: it prints the consent URL, waits for the redirect and exchanges
// the code.
func TokenFromWeb(ctx context.Context, cfg *oauth2.Config, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler:      callbackHandler(state, codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Shutdown(context.Background())

	go func() {
		log.Printf("Local server listening on %s for OAuth2 redirect...", cfg.RedirectURL)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	authURL := cfg.AuthCodeURL(state, opts...)
	fmt.Printf("Please open the following URL in your browser to authorize evertask:\n%s\n", authURL)
	log.Println("Waiting for authorization code...")

	select {
	case code := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := cfg.Exchange(exCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("oauth state mismatch in redirect URL"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("authorization code not found in redirect URL"))
			return
		}
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken writes an oauth2.Token to a JSON file readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	log.Printf("Saving authentication token to: %s", path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
