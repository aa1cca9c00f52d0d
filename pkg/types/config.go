// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MergeConfig holds settings for the merge command.
type MergeConfig struct {
	// Strategy selects the merge policy: majority, average, or strict.
	// Unrecognised strategies fall back to the first annotator's value.
	Strategy string `json:"strategy" yaml:"strategy"`

	// OutputPath is where the merge output JSON is written.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// MinAnnotators is the minimum number of result files the CLI accepts (default 2).
	MinAnnotators int `json:"min_annotators" yaml:"min_annotators"`

	// Archive saves every merge run in the store at store.path.
	Archive bool `json:"archive" yaml:"archive"`
}

// AgreementConfig holds settings for the iaa command.
type AgreementConfig struct {
	// JSON prints the report as JSON instead of a table.
	JSON bool `json:"json" yaml:"json"`

	// Color enables coloured kappa cells in the table output.
	Color bool `json:"color" yaml:"color"`
}

// ExportFormat selects the file format for exported responses.
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatJSONL ExportFormat = "jsonl"
	FormatCSV   ExportFormat = "csv"
	FormatYAML  ExportFormat = "yaml"
	FormatXLSX  ExportFormat = "xlsx"
)

// ExportConfig holds settings for the export command.
type ExportConfig struct {
	// Format is the output format.
	Format ExportFormat `json:"format" yaml:"format"`

	// SheetName is the worksheet used for xlsx output (default "responses").
	SheetName string `json:"sheet_name" yaml:"sheet_name"`
}

// StoreConfig holds settings for the SQLite run archive.
type StoreConfig struct {
	// Path is the database file (default "datalabel.db").
	Path string `json:"path" yaml:"path"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Host is the listen address (default "0.0.0.0").
	Host string `json:"host" yaml:"host"`

	// Port is the listen port (default 8210).
	Port int `json:"port" yaml:"port"`

	// MaxBodyBytes caps request bodies (default 32 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// ReadTimeout bounds reading a request (default 30s).
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing a response (default 60s).
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format"`
}

// Config groups all settings read from datalabel.yaml and the environment.
type Config struct {
	Merge     MergeConfig     `json:"merge" yaml:"merge"`
	Agreement AgreementConfig `json:"agreement" yaml:"agreement"`
	Export    ExportConfig    `json:"export" yaml:"export"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Log       LogConfig       `json:"log" yaml:"log"`
}
