package definition

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Error codes for definition loading, unified across CLI commands.
const (
	ErrCodeNotFound   = "D001" // definition file not found
	ErrCodeParse      = "D002" // syntax error in source format
	ErrCodeBuild      = "D003" // CUE build/evaluation failed
	ErrCodeDecode     = "D004" // value does not fit the Document shape
	ErrCodeValidation = "D005" // referential/policy validation failed
)

// LoadError is a definition loading failure with a stable code and,
// for CUE sources, file positions in the message.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// Load reads and validates a definition document. Dispatch is by
// extension: .cue is compiled with CUE, everything else is parsed as
// YAML (which accepts JSON documents unchanged).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "definition file not found"}
		}
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}

	var doc *Document
	switch filepath.Ext(path) {
	case ".cue":
		doc, err = parseCUE(path, data)
	default:
		doc, err = parseYAML(path, data)
	}
	if err != nil {
		return nil, err
	}

	if doc.Dependencies == nil {
		doc.Dependencies = map[string][]string{}
	}
	if err := doc.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeValidation, Path: path, Message: err.Error()}
	}
	return doc, nil
}

func parseYAML(path string, data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error()}
	}
	return &doc, nil
}

// parseCUE compiles the file and decodes the resulting value into a
// Document. CUE positions are preserved in diagnostics via
// errors.Details.
func parseCUE(path string, data []byte) (*Document, error) {
	ctx := cuecontext.New()

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuild, Path: path, Message: errors.Details(err, nil)}
	}

	var doc Document
	if err := value.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Path: path, Message: errors.Details(err, nil)}
	}
	return &doc, nil
}
