package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Accepted extensions for staging, enforced at the selection boundary.
var stagingMIMETypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".rtf":      "application/rtf",
}

// loadStagedFile reads a local file into a staged file, rejecting types the
// store cannot ingest.
func loadStagedFile(path string) (*model.StagedFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := stagingMIMETypes[ext]
	if !ok {
		return nil, goerr.New("unsupported file type", goerr.V("path", path), goerr.V("ext", ext))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}

	return &model.StagedFile{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
