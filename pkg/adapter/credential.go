package adapter

import (
	"context"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// CredentialSource abstracts where the API credential comes from. Presence
// checks never error: a missing capability simply means "no credential".
type CredentialSource interface {
	// HasCredential re-derives credential presence from the host
	// environment (flag, env var, credentials file, in that order).
	HasCredential() bool
	// APIKey returns the currently resolved key, empty when absent.
	APIKey() string
	// Pick interactively asks for a key and persists it. An empty answer
	// is a cancel, not an error.
	Pick(ctx context.Context) error
}

// credentialFile is the on-disk YAML shape.
type credentialFile struct {
	APIKey string `yaml:"api_key"`
}

// FileCredential resolves the API key from a static override, the
// GEMINI_API_KEY environment variable, or a YAML credentials file.
type FileCredential struct {
	path   string
	static string
	key    string
}

type CredentialOption func(*FileCredential)

// WithStaticKey makes an explicitly passed key (e.g. a CLI flag) win over
// environment and file.
func WithStaticKey(key string) CredentialOption {
	return func(c *FileCredential) {
		c.static = key
	}
}

func NewFileCredential(path string, opts ...CredentialOption) *FileCredential {
	c := &FileCredential{path: path}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultCredentialsPath returns ~/.config/libris/credentials.yml, or empty
// when the home directory cannot be resolved.
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "libris", "credentials.yml")
}

func (c *FileCredential) HasCredential() bool {
	if c.static != "" {
		c.key = c.static
		return true
	}

	if env := os.Getenv("GEMINI_API_KEY"); env != "" {
		c.key = env
		return true
	}

	if c.path == "" {
		c.key = ""
		return false
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		c.key = ""
		return false
	}

	var file credentialFile
	if err := yaml.Unmarshal(raw, &file); err != nil || file.APIKey == "" {
		c.key = ""
		return false
	}

	c.key = file.APIKey
	return true
}

func (c *FileCredential) APIKey() string {
	return c.key
}

func (c *FileCredential) Pick(ctx context.Context) error {
	rl, err := readline.New("")
	if err != nil {
		return goerr.Wrap(err, "failed to open terminal for credential input")
	}
	defer rl.Close()

	answer, err := rl.ReadPassword("Gemini API key (empty to cancel): ")
	if err != nil {
		if err == readline.ErrInterrupt {
			return nil
		}
		return goerr.Wrap(err, "failed to read credential")
	}

	key := string(answer)
	if key == "" {
		return nil
	}

	return c.save(key)
}

func (c *FileCredential) save(key string) error {
	if c.path == "" {
		return goerr.New("no credentials file path configured")
	}

	raw, err := yaml.Marshal(&credentialFile{APIKey: key})
	if err != nil {
		return goerr.Wrap(err, "failed to encode credentials")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return goerr.Wrap(err, "failed to create credentials directory", goerr.V("path", c.path))
	}
	if err := os.WriteFile(c.path, raw, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write credentials file", goerr.V("path", c.path))
	}

	c.key = key
	return nil
}
