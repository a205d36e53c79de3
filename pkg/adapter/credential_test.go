package adapter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/m-mizutani/gt"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credentials.yml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCredentialPrecedence(t *testing.T) {
	path := writeCredentials(t, "api_key: from-file\n")

	t.Run("static flag wins over everything", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "from-env")

		source := adapter.NewFileCredential(path, adapter.WithStaticKey("from-flag"))
		gt.True(t, source.HasCredential())
		gt.V(t, source.APIKey()).Equal("from-flag")
	})

	t.Run("env var wins over file", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "from-env")

		source := adapter.NewFileCredential(path)
		gt.True(t, source.HasCredential())
		gt.V(t, source.APIKey()).Equal("from-env")
	})

	t.Run("file is the last resort", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		source := adapter.NewFileCredential(path)
		gt.True(t, source.HasCredential())
		gt.V(t, source.APIKey()).Equal("from-file")
	})
}

func TestCredentialAbsence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	t.Run("missing file", func(t *testing.T) {
		source := adapter.NewFileCredential(filepath.Join(t.TempDir(), "nope.yml"))
		gt.False(t, source.HasCredential())
		gt.V(t, source.APIKey()).Equal("")
	})

	t.Run("empty path", func(t *testing.T) {
		source := adapter.NewFileCredential("")
		gt.False(t, source.HasCredential())
	})

	t.Run("file without api_key", func(t *testing.T) {
		path := writeCredentials(t, "something_else: value\n")
		source := adapter.NewFileCredential(path)
		gt.False(t, source.HasCredential())
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeCredentials(t, "api_key: [unterminated\n")
		source := adapter.NewFileCredential(path)
		gt.False(t, source.HasCredential())
	})
}

func TestCredentialRederivation(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "credentials.yml")
	source := adapter.NewFileCredential(path)
	gt.False(t, source.HasCredential())

	// Created after the first check, e.g. by another terminal.
	gt.NoError(t, os.WriteFile(path, []byte("api_key: late-arrival\n"), 0o600))
	gt.True(t, source.HasCredential())
	gt.V(t, source.APIKey()).Equal("late-arrival")

	gt.NoError(t, os.Remove(path))
	gt.False(t, source.HasCredential())
	gt.V(t, source.APIKey()).Equal("")
}
