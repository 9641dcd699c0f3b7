package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/evertask/pkg/auth"
	"github.com/harrisonrobin/evertask/pkg/store"
)

func setupEnv(t *testing.T, driver string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("EVERTASK_CONFIG", filepath.Join(dir, "config.json"))
	t.Setenv("EVERTASK_DB_DRIVER", driver)
	dsn := filepath.Join(dir, "tasks.json")
	if driver == "sqlite3" {
		dsn = filepath.Join(dir, "evertask.db")
	}
	t.Setenv("DATABASE_URL", dsn)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var createdID = regexp.MustCompile(`Created task (\S+):`)

func mustAdd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", append([]string{"add"}, args...)...)
	if err != nil {
		t.Fatalf("add %v failed: %v", args, err)
	}
	m := createdID.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("Unexpected add output %q", out)
	}
	return m[1]
}

func TestRequiresLogin(t *testing.T) {
	setupEnv(t, "json")
	if _, err := run(t, "", "list"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("Expected not-logged-in error, got %v", err)
	}
}

func TestTaskCommands(t *testing.T) {
	setupEnv(t, "json")
	if _, err := run(t, "", "login", "ada"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	milk := mustAdd(t, "Buy", "milk", "--due", "2025-05-10", "-c", "Home")
	report := mustAdd(t, "--title", "Quarterly report", "--due", "2025-05-09", "-c", "Work", "-p", "1")

	if _, err := run(t, "", "add", "--due", "tomorrow", "No date"); err == nil {
		t.Errorf("Expected validation error for bad due date")
	}

	out, err := run(t, "", "list", "--sort", "due")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Index(out, "Quarterly report") > strings.Index(out, "Buy milk") {
		t.Errorf("Expected earliest due first:\n%s", out)
	}

	out, _ = run(t, "", "list", "--filter", "Home")
	if strings.Contains(out, "Quarterly") || !strings.Contains(out, "Buy milk") {
		t.Errorf("Expected only Home tasks:\n%s", out)
	}

	if out, err := run(t, "", "toggle", report[:8]); err != nil || !strings.Contains(out, "complete") {
		t.Fatalf("toggle failed: %v %q", err, out)
	}
	out, _ = run(t, "", "report")
	if !strings.Contains(out, "Complete") || !strings.Contains(out, "Home") {
		t.Errorf("Unexpected report:\n%s", out)
	}

	if _, err := run(t, "", "edit", milk, "--title", "Buy oat milk", "--time", "18:00"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	out, _ = run(t, "", "list")
	if !strings.Contains(out, "Buy oat milk") || !strings.Contains(out, "2025-05-10 18:00") {
		t.Errorf("Expected edited task:\n%s", out)
	}

	if out, _ := run(t, "n\n", "rm", milk); !strings.Contains(out, "Cancelled") {
		t.Errorf("Expected cancelled delete, got %q", out)
	}
	if _, err := run(t, "", "rm", milk, "--yes"); err != nil {
		t.Fatalf("rm failed: %v", err)
	}
	if _, err := run(t, "", "rm", milk, "--yes"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestPDFReport(t *testing.T) {
	setupEnv(t, "json")
	run(t, "", "login", "ada")
	mustAdd(t, "Plan trip", "--due", "2025-06-01", "-c", "Travel")

	pdf := filepath.Join(t.TempDir(), "report.pdf")
	out, err := run(t, "", "report", "--pdf", pdf)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "Wrote "+pdf) {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestAccountsWithSQLite(t *testing.T) {
	setupEnv(t, "sqlite3")

	if _, err := run(t, "", "register", "grace", "--password", "hopper"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := run(t, "", "register", "grace", "--password", "again"); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected conflict on duplicate username, got %v", err)
	}
	mustAdd(t, "Compile", "--due", "2025-05-10")

	if _, err := run(t, "", "logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := run(t, "wrong\n", "login", "grace"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials, got %v", err)
	}
	if _, err := run(t, "hopper\n", "login", "grace"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	out, err := run(t, "", "list")
	if err != nil || !strings.Contains(out, "Compile") {
		t.Errorf("Expected grace's task after login, got %v %q", err, out)
	}
}

func TestRegisterNeedsSQLDriver(t *testing.T) {
	setupEnv(t, "json")
	if _, err := run(t, "", "register", "ada", "--password", "x"); err == nil {
		t.Errorf("Expected register to fail on the json driver")
	}
}

func TestReadPasswordFromPipe(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("s3cret\r\nignored\n"))

	pw, err := readPassword(cmd)
	if err != nil {
		t.Fatalf("readPassword failed: %v", err)
	}
	if pw != "s3cret" {
		t.Errorf("Expected s3cret, got %q", pw)
	}
	if out.String() != "Password: " {
		t.Errorf("Expected only the prompt on output, got %q", out.String())
	}

	cmd.SetIn(strings.NewReader(""))
	if _, err := readPassword(cmd); err == nil {
		t.Errorf("Expected an error on empty input")
	}
}
