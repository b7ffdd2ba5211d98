package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/history"
)

// validManifestYAML returns a minimal valid manifest in YAML format.
func validManifestYAML() string {
	return `version: "1.0"
operation: estimate
contracts:
  symbols: [CL]
  start: "2023-01-01"
  end: "2023-12-31"
`
}

// validManifestJSON returns a minimal valid manifest in JSON format.
func validManifestJSON() string {
	return `{
  "version": "1.0",
  "operation": "estimate",
  "contracts": {
    "symbols": ["CL"],
    "start": "2023-01-01",
    "end": "2023-12-31"
  }
}`
}

// fullManifestYAML returns a complete manifest with all optional fields.
func fullManifestYAML() string {
	return `$schema: https://schemas.3leaps.dev/gofutures/v1.0.0/job-manifest.schema.json
version: "1.0"
operation: download
contracts:
  symbols: ["CL", "E?"]
  start: 2023-01-01
  end: 2023-06-30
  selection: contract-month
  year_digits: 2
data:
  dataset: GLBX.MDP3
  schema: ohlcv-1h
batch:
  concurrency: 8
  rate_limit: 2.5
  on_exists: overwrite
storage:
  provider: s3
  bucket: futures-data
  prefix: raw/
  region: us-east-2
  endpoint: http://localhost:9000
  profile: research
  force_path_style: true
  report_path: reports/errors.txt
output:
  destination: file:/tmp/run.jsonl
  progress: false
`
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		wantErr  bool
		validate func(t *testing.T, m *Manifest)
	}{
		{
			name:     "valid YAML manifest",
			content:  validManifestYAML(),
			filename: "job.yaml",
			validate: func(t *testing.T, m *Manifest) {
				assert.Equal(t, "1.0", m.Version)
				assert.Equal(t, OperationEstimate, m.Operation)
				assert.Equal(t, []string{"CL"}, m.Contracts.Symbols)
				assert.Equal(t, "expiry", m.Contracts.Selection)
				assert.Equal(t, DefaultStorageProvider, m.Storage.Provider)
				assert.Equal(t, DefaultStoragePath, m.Storage.Path)
				assert.Equal(t, DefaultDestination, m.Output.Destination)
				assert.True(t, m.Output.ProgressEnabled())
			},
		},
		{
			name:     "valid JSON manifest",
			content:  validManifestJSON(),
			filename: "job.json",
			validate: func(t *testing.T, m *Manifest) {
				assert.Equal(t, "2023-12-31", m.Contracts.End)
			},
		},
		{
			name:     "full manifest",
			content:  fullManifestYAML(),
			filename: "job.yml",
			validate: func(t *testing.T, m *Manifest) {
				assert.Equal(t, OperationDownload, m.Operation)
				assert.Equal(t, "2023-01-01", m.Contracts.Start)
				assert.Equal(t, 2, m.Contracts.YearDigits)
				assert.Equal(t, "ohlcv-1h", m.Data.Schema)
				assert.Equal(t, 8, m.Batch.Concurrency)
				assert.InDelta(t, 2.5, m.Batch.RateLimit, 1e-9)
				assert.Equal(t, "overwrite", m.Batch.OnExists)
				assert.Equal(t, "s3", m.Storage.Provider)
				assert.Equal(t, "futures-data", m.Storage.Bucket)
				assert.True(t, m.Storage.ForcePathStyle)
				assert.Empty(t, m.Storage.Path)
				assert.Equal(t, "file:/tmp/run.jsonl", m.Output.Destination)
				assert.False(t, m.Output.ProgressEnabled())
			},
		},
		{
			name: "unknown field rejected",
			content: validManifestYAML() + `crawl:
  concurrency: 4
`,
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "missing contracts",
			content:  "version: \"1.0\"\noperation: estimate\n",
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "unknown operation",
			content:  strings.Replace(validManifestYAML(), "operation: estimate", "operation: backfill", 1),
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "wrong version",
			content:  strings.Replace(validManifestYAML(), `version: "1.0"`, `version: "2.0"`, 1),
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "concurrency out of range",
			content:  validManifestYAML() + "batch:\n  concurrency: 0\n",
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "empty symbols",
			content:  strings.Replace(validManifestYAML(), "symbols: [CL]", "symbols: []", 1),
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "malformed YAML",
			content:  "version: [unclosed",
			filename: "job.yaml",
			wantErr:  true,
		},
		{
			name:     "malformed JSON",
			content:  `{"version": "1.0",`,
			filename: "job.json",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			m, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, m)
			}
		})
	}
}

func TestLoad_SchemaErrorsUnwrap(t *testing.T) {
	_, err := LoadFromBytes([]byte(validManifestYAML()+"extra: true\n"), "job.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}

func TestLoad_FileErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := Load("/nonexistent/path/job.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("whitespace only", func(t *testing.T) {
		_, err := LoadFromBytes([]byte("\n  \n"), "job.yaml")
		assert.EqualError(t, err, "manifest file is empty")
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadFromBytes(nil, "job.yaml")
		assert.EqualError(t, err, "manifest file is empty")
	})
}

func TestLoadFromBytes_FormatDetection(t *testing.T) {
	for _, tc := range []struct{ name, content, path string }{
		{"YAML by extension", validManifestYAML(), "job.yaml"},
		{"JSON by extension", validManifestJSON(), "job.json"},
		{"auto-detect YAML", validManifestYAML(), ""},
		{"auto-detect JSON", validManifestJSON(), ""},
		{"unknown extension", validManifestYAML(), "job.txt"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := LoadFromBytes([]byte(tc.content), tc.path)
			require.NoError(t, err)
			assert.Equal(t, []string{"CL"}, m.Contracts.Symbols)
		})
	}
}

func TestLoadFromReader(t *testing.T) {
	m, err := LoadFromReader(strings.NewReader(validManifestYAML()), "job.yaml")
	require.NoError(t, err)
	assert.Equal(t, OperationEstimate, m.Operation)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	progress := false
	m := &Manifest{
		Contracts: ContractsConfig{Selection: "contract-month", YearDigits: 2},
		Storage:   StorageConfig{Provider: "s3", Bucket: "b"},
		Output:    OutputConfig{Destination: "file:/tmp/out.jsonl", Progress: &progress},
	}
	m.ApplyDefaults()

	assert.Equal(t, "contract-month", m.Contracts.Selection)
	assert.Equal(t, 2, m.Contracts.YearDigits)
	assert.Empty(t, m.Storage.Path)
	assert.Equal(t, "file:/tmp/out.jsonl", m.Output.Destination)
	assert.False(t, *m.Output.Progress)
}

func TestPlan(t *testing.T) {
	m, err := LoadFromBytes([]byte(fullManifestYAML()), "job.yaml")
	require.NoError(t, err)

	plan, err := m.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"CL", "ES"}, plan.Symbols)
	assert.Equal(t, calendar.Date(2023, time.January, 1), plan.Start)
	assert.Equal(t, calendar.Date(2023, time.June, 30), plan.End)
	assert.Equal(t, calendar.SelectByContractMonth, plan.Selection)
}

func TestPlan_Errors(t *testing.T) {
	base := func() *Manifest {
		m := &Manifest{Contracts: ContractsConfig{Symbols: []string{"CL"}, Start: "2023-01-01", End: "2023-12-31"}}
		m.ApplyDefaults()
		return m
	}

	m := base()
	m.Contracts.Symbols = []string{"ZZ"}
	_, err := m.Plan()
	assert.True(t, calendar.IsUnsupportedAsset(err))

	m = base()
	m.Contracts.End = "2022-12-31"
	_, err = m.Plan()
	assert.ErrorContains(t, err, "before start")

	m = base()
	m.Contracts.Start = "2023-13-01"
	_, err = m.Plan()
	assert.ErrorContains(t, err, "contracts.start")

	m = base()
	m.Contracts.Selection = "roll"
	_, err = m.Plan()
	assert.ErrorContains(t, err, "invalid selection")
}

func TestHistoryConfig(t *testing.T) {
	m, err := LoadFromBytes([]byte(fullManifestYAML()), "job.yaml")
	require.NoError(t, err)

	assert.Equal(t, history.Config{
		Dataset:     "GLBX.MDP3",
		Schema:      "ohlcv-1h",
		Concurrency: 8,
		RateLimit:   2.5,
		OnExists:    "overwrite",
		ReportPath:  "reports/errors.txt",
		YearDigits:  2,
	}, m.HistoryConfig())
}

func TestValidationErrors(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{{Field: "version", Message: "required"}}
		assert.Equal(t, "version: required", errs.Error())
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "version", Message: "required"},
			{Field: "contracts.symbols", Message: "must not be empty"},
		}
		assert.Equal(t, "manifest validation failed with 2 errors:\n  - version: required\n  - contracts.symbols: must not be empty", errs.Error())
	})

	t.Run("matches ErrValidationFailed", func(t *testing.T) {
		errs := ValidationErrors{{Field: "batch.concurrency", Message: "bad"}}
		assert.True(t, errors.Is(errs, ErrValidationFailed))
	})
}

func TestValidateRaw_FieldNames(t *testing.T) {
	err := ValidateRaw([]byte(`{"version":"1.0","operation":"estimate","contracts":{"symbols":[""],"start":"2023-01-01","end":"2023-12-31"},"batch":{"concurrency":99}}`))
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)

	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "contracts.symbols[0]")
	assert.Contains(t, fields, "batch.concurrency")
}

func TestFieldName(t *testing.T) {
	tests := map[string]string{
		"":                          "manifest",
		"/":                         "manifest",
		"/version":                  "version",
		"/contracts/symbols":        "contracts.symbols",
		"/contracts/symbols/2":      "contracts.symbols[2]",
		"/storage/force_path_style": "storage.force_path_style",
		"/a~1b/c~0d":                "a/b.c~d",
	}
	for in, want := range tests {
		assert.Equal(t, want, fieldName(in), "pointer %q", in)
	}
}

func TestLoad_CrossFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "s3 without bucket",
			content: validManifestYAML() + "storage:\n  provider: s3\n  prefix: raw/\n",
			field:   "storage.bucket",
		},
		{
			name:    "bucket on file storage",
			content: validManifestYAML() + "storage:\n  bucket: futures-data\n",
			field:   "storage.bucket",
		},
		{
			name:    "end before start",
			content: strings.Replace(validManifestYAML(), `end: "2023-12-31"`, "end: 2022-06-30", 1),
			field:   "contracts.end",
		},
		{
			name:    "on_exists outside download",
			content: validManifestYAML() + "batch:\n  on_exists: overwrite\n",
			field:   "batch.on_exists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content), "job.yaml")
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestLoad_UnquotedTimestamps(t *testing.T) {
	content := strings.NewReplacer(
		`start: "2023-01-01"`, "start: 2023-01-01",
		`end: "2023-12-31"`, "end: 2023-12-31T18:30:00Z",
	).Replace(validManifestYAML())

	m, err := LoadFromBytes([]byte(content), "job.yaml")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", m.Contracts.Start)
	assert.Equal(t, "2023-12-31T18:30:00Z", m.Contracts.End)

	plan, err := m.Plan()
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2023, time.December, 31), plan.End)
}

func TestValidate(t *testing.T) {
	m := &Manifest{
		Version:   "1.0",
		Operation: OperationInventory,
		Contracts: ContractsConfig{Symbols: []string{"NQ"}, Start: "2024-01-01", End: "2024-12-31"},
	}
	assert.NoError(t, Validate(m))

	m.Storage.Provider = "gcs"
	err := Validate(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}

func TestValidate_EmbeddedSchema(t *testing.T) {
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })

	m := &Manifest{
		Version:   "1.0",
		Operation: OperationEstimate,
		Contracts: ContractsConfig{Symbols: []string{"ES"}, Start: "2024-01-01", End: "2024-03-31"},
	}
	assert.NoError(t, Validate(m), "validation should not depend on the working directory")
}
