package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"meshscope/internal/domain"
)

// ModelExporter writes the finalized render model for external renderers
type ModelExporter interface {
	Export(model *domain.RenderModel, w io.Writer) error
	Format() string
}

// JSONExporter is the default render-model interchange format
type JSONExporter struct{}

// NewJSONExporter creates a JSON model exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Format returns the codec format identifier
func (c *JSONExporter) Format() string {
	return "json"
}

// Export writes the model as indented JSON
func (c *JSONExporter) Export(model *domain.RenderModel, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ParseModel reads a render model back from its JSON interchange form
func ParseModel(r io.Reader) (*domain.RenderModel, error) {
	var model domain.RenderModel
	if err := json.NewDecoder(r).Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &model, nil
}
