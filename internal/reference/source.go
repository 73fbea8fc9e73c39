package reference

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/common/validation"
	"export-friction/pkg/catalog"
)

// Source produces a reference document from some backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) (*catalog.Document, error)
}

// FileSource reads a JSON document from disk.
type FileSource struct {
	path      string
	validator *validation.Validator
}

// NewFileSource validates the raw file against validator when it is non-nil,
// so missing fields are caught before they decode to zero values.
func NewFileSource(path string, validator *validation.Validator) *FileSource {
	return &FileSource{path: path, validator: validator}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) (*catalog.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}

	if s.validator != nil {
		res, err := s.validator.ValidateBytes(data)
		if err != nil {
			return nil, apperrors.NewCatalogDecodeFailedError(s.path, err)
		}
		if !res.Valid {
			msgs := res.GetErrorMessages()
			return nil, apperrors.NewDataIntegrityError(strings.Join(msgs, "; "), msgs...)
		}
	}

	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewCatalogDecodeFailedError(s.path, err)
	}
	return &doc, nil
}
