package history

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func (s *Store) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.List())
}

func (s *Store) ExportYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.List()); err != nil {
		return err
	}
	return enc.Close()
}

func (s *Store) Export(w io.Writer, format string) error {
	switch format {
	case FormatJSON, "":
		return s.ExportJSON(w)
	case FormatYAML:
		return s.ExportYAML(w)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
