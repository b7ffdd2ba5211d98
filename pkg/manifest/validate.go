package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/schema"

	schemasassets "github.com/3leaps/gofutures/internal/assets/schemas"
)

// SchemaID identifies the embedded job manifest schema.
const SchemaID = "gofutures/v1.0.0/job-manifest"

var (
	ErrSchemaNotFound   = errors.New("manifest schema not found")
	ErrValidationFailed = errors.New("manifest validation failed")
)

// ValidationError is one problem with a manifest field. Field uses the
// dotted form of the manifest path, e.g. "contracts.symbols".
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found in a manifest. It matches
// ErrValidationFailed with errors.Is.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ErrValidationFailed.Error()
	case 1:
		return e[0].Error()
	}
	lines := make([]string, 0, len(e)+1)
	lines = append(lines, fmt.Sprintf("%s with %d errors:", ErrValidationFailed, len(e)))
	for _, ve := range e {
		lines = append(lines, "  - "+ve.Error())
	}
	return strings.Join(lines, "\n")
}

func (e ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// Validate checks a decoded manifest against the schema and the rules the
// schema cannot express. Unknown fields are only caught by ValidateRaw on
// the original document.
func Validate(m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest for validation: %w", err)
	}
	if err := ValidateRaw(data); err != nil {
		return err
	}
	if errs := checkRules(m); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateRaw checks a JSON document against the embedded schema.
func ValidateRaw(jsonData []byte) error {
	v, err := compiledSchema()
	if err != nil {
		return err
	}

	diags, err := v.ValidateJSON(jsonData)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	var errs ValidationErrors
	for _, d := range diags {
		if d.Severity != schema.SeverityError {
			continue
		}
		errs = append(errs, ValidationError{Field: fieldName(d.Pointer), Message: d.Message})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// checkRules covers cross-field constraints.
func checkRules(m *Manifest) ValidationErrors {
	var errs ValidationErrors
	if m.Storage.Provider == "s3" && strings.TrimSpace(m.Storage.Bucket) == "" {
		errs = append(errs, ValidationError{Field: "storage.bucket", Message: "required when provider is s3"})
	}
	if m.Storage.Provider != "s3" && m.Storage.Bucket != "" {
		errs = append(errs, ValidationError{Field: "storage.bucket", Message: "only valid with provider s3"})
	}
	// Dates are YYYY-MM-DD prefixed, so string order is date order.
	start, end := datePart(m.Contracts.Start), datePart(m.Contracts.End)
	if start != "" && end != "" && end < start {
		errs = append(errs, ValidationError{Field: "contracts.end", Message: fmt.Sprintf("%s is before start %s", end, start)})
	}
	if m.Batch.OnExists != "" && m.Operation != OperationDownload {
		errs = append(errs, ValidationError{Field: "batch.on_exists", Message: "only applies to download"})
	}
	return errs
}

func datePart(s string) string {
	if len(s) < len("2006-01-02") {
		return ""
	}
	return s[:len("2006-01-02")]
}

// fieldName turns a JSON pointer ("/contracts/symbols/0") into a dotted
// field name ("contracts.symbols[0]").
func fieldName(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "manifest"
	}
	var b strings.Builder
	for i, part := range strings.Split(pointer, "/") {
		part = strings.NewReplacer("~1", "/", "~0", "~").Replace(part)
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var (
	schemaOnce sync.Once
	validator  *schema.Validator
	schemaErr  error
)

func compiledSchema() (*schema.Validator, error) {
	schemaOnce.Do(func() {
		if len(schemasassets.JobManifestSchema) == 0 {
			schemaErr = fmt.Errorf("%w: embedded %s schema is empty", ErrSchemaNotFound, SchemaID)
			return
		}
		validator, schemaErr = schema.NewValidator(schemasassets.JobManifestSchema)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile manifest schema: %w", schemaErr)
		}
	})
	return validator, schemaErr
}
