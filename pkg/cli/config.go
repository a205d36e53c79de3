package cli

import (
	"context"
	"os"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/usecase/credential"
	"github.com/libris-dev/libris/pkg/usecase/library"
	"github.com/libris-dev/libris/pkg/usecase/session"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	apiKey    string
	credFile  string
	modelName string
	endpoint  string
	logLevel  string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-key",
			Aliases:     []string{"k"},
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.apiKey,
		},
		&cli.StringFlag{
			Name:        "credentials-file",
			Usage:       "Path to the YAML credentials file",
			Sources:     cli.EnvVars("LIBRIS_CREDENTIALS"),
			Destination: &cfg.credFile,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Generative model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("LIBRIS_MODEL"),
			Destination: &cfg.modelName,
		},
		&cli.StringFlag{
			Name:        "endpoint",
			Usage:       "Override the File Search API endpoint",
			Sources:     cli.EnvVars("LIBRIS_ENDPOINT"),
			Destination: &cfg.endpoint,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("LIBRIS_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// setup installs the logger and returns a context carrying it.
func (cfg *config) setup(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newGate creates the credential gate over flag, env and credentials file.
func (cfg *config) newGate() *credential.Gate {
	path := cfg.credFile
	if path == "" {
		path = adapter.DefaultCredentialsPath()
	}
	source := adapter.NewFileCredential(path, adapter.WithStaticKey(cfg.apiKey))
	return credential.New(source)
}

// requireKey resolves the API key or fails with selection guidance.
func (cfg *config) requireKey(gate *credential.Gate) (string, error) {
	if !gate.Check() {
		return "", goerr.Wrap(model.ErrNoCredential,
			"set GEMINI_API_KEY, pass --api-key, or run 'libris session' to pick one")
	}
	return gate.APIKey(), nil
}

// newFileSearch creates the store gateway adapter.
func (cfg *config) newFileSearch(key string) (*adapter.FileSearchClient, error) {
	opts := []adapter.FileSearchOption{}
	if cfg.endpoint != "" {
		opts = append(opts, adapter.WithBaseURL(cfg.endpoint))
	}

	fs, err := adapter.NewFileSearch(key, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create file search client")
	}
	return fs, nil
}

// newGemini creates the generation adapter.
func (cfg *config) newGemini(ctx context.Context, key string) (*adapter.GeminiClient, error) {
	gemini, err := adapter.NewGemini(ctx, key, adapter.WithGenerativeModel(cfg.modelName))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newController wires the full session stack for a given gate.
func (cfg *config) newController(ctx context.Context, gate *credential.Gate, opts ...session.Option) (*session.Controller, error) {
	key, err := cfg.requireKey(gate)
	if err != nil {
		return nil, err
	}

	fs, err := cfg.newFileSearch(key)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx, key)
	if err != nil {
		return nil, err
	}

	lib := library.New(fs)
	return session.New(gate, lib, fs, gemini, opts...), nil
}
