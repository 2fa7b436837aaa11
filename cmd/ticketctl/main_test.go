package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func baseArgs() []string {
	return []string{
		"--title", "Printer offline",
		"--description", "The 3rd floor printer does not respond",
		"--category", "technical",
		"--priority", "medium",
		"--type", "incident",
		"--email", "ops@example.com",
	}
}

func TestRunSimulated(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := append(baseArgs(), "--simulate", "--delay", "0s")
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v (stderr: %s)", err, stderr.String())
	}
	if !regexp.MustCompile(`^TK-\d{6}\n$`).MatchString(stdout.String()) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "[success] Ticket created") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunValidationFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := append(baseArgs(), "--email", "not-an-email", "--simulate", "--delay", "0s")
	err := run(context.Background(), args, &stdout, &stderr)
	var exit exitError
	if !errors.As(err, &exit) || exit.ExitCode() != 1 {
		t.Fatalf("run() error = %v, want exit status 1", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if strings.Count(stderr.String(), "[error] Validation error") != 1 {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunAgainstBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer cli-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"missing token"}`)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse: %v", err)
		}
		if _, _, err := r.FormFile("attachments[0]"); err != nil {
			t.Errorf("attachment missing: %v", err)
		}
		_, _ = io.WriteString(w, `{"data":{"external_key":"TCK-CLI"}}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := os.WriteFile(path, []byte("trace"), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	args := append(baseArgs(), "--endpoint", srv.URL, "--token", "cli-token", "--require-auth", "--simulate=false", "--attach", path)
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v (stderr: %s)", err, stderr.String())
	}
	if stdout.String() != "TCK-CLI\n" {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	stderr.Reset()
	args = append(baseArgs(), "--endpoint", srv.URL, "--token", "wrong", "--require-auth", "--simulate=false")
	if err := run(context.Background(), args, &stdout, &stderr); err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(stderr.String(), "[error] Ticket creation failed: missing token") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunRejectsUnknownPriority(t *testing.T) {
	args := append(baseArgs(), "--priority", "critical", "--simulate")
	if err := run(context.Background(), args, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--help"}, io.Discard, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr.String(), "--attach") {
		t.Errorf("help output = %q", stderr.String())
	}
}
