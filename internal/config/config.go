package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "lorescan"

	// DefaultConfidenceThreshold separates auto-classified entities from
	// those flagged for review. 50 keeps gazetteer and strong context
	// hits while sending weak shape-only classifications to review.
	DefaultConfidenceThreshold = 50

	// DefaultLLMModel is the chat model used for remote enhancement.
	DefaultLLMModel = "gpt-4o-mini"

	// DefaultLLMTimeout bounds one enhancement run end to end. Remote
	// batches are small, so two minutes covers retries comfortably.
	DefaultLLMTimeout = 2 * time.Minute

	// DefaultConcurrency is the number of manuscripts detected in
	// parallel during full-project detection. SQLite serializes writes,
	// so higher values mostly help when chapters are large.
	DefaultConcurrency = 4

	// DefaultAPIKeyEnv is the environment variable consulted for the
	// enhancement API key. Keys never live in the config file itself.
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
)

// Config holds all configuration options for lorescan. It is populated
// from defaults, the optional config file, and CLI flags, then passed
// through the application via dependency injection.
//
// Design decision: a single flat struct instead of nested sub-configs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// DBDir is the directory holding the SQLite database. Defaults to
	// the XDG data directory.
	DBDir string

	// ProjectName selects the project commands operate on.
	ProjectName string

	// ConfidenceThreshold is the needs-review boundary in [0, 100].
	ConfidenceThreshold int

	// GazetteerPath points to an optional YAML gazetteer extension.
	GazetteerPath string

	// EnhanceEnabled turns on the remote enhancement phase.
	EnhanceEnabled bool

	// LLMModel is the chat model for remote enhancement.
	LLMModel string

	// LLMAPIKeyEnv names the environment variable holding the API key.
	LLMAPIKeyEnv string

	// LLMBaseURL overrides the API endpoint, mainly for tests and
	// OpenAI-compatible proxies.
	LLMBaseURL string

	// LLMTimeout bounds one enhancement run.
	LLMTimeout time.Duration

	// Concurrency is the manuscript-level parallelism for full-project
	// detection.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONReport selects JSON output instead of human-readable text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output instead of human-readable
	// text. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile, when set, receives a copy of the report in addition
	// to stdout.
	ReportFile string

	// ConfigFilePath is an explicit config file location. If empty, the
	// tool searches for .lorescan in the current directory and then in
	// the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of relying on zero values,
// because many defaults are non-zero. It also documents what the
// defaults are.
func NewConfig() *Config {
	return &Config{
		DBDir:               XDGDataDir(),
		ConfidenceThreshold: DefaultConfidenceThreshold,
		LLMModel:            DefaultLLMModel,
		LLMAPIKeyEnv:        DefaultAPIKeyEnv,
		LLMTimeout:          DefaultLLMTimeout,
		Concurrency:         DefaultConcurrency,
	}
}

// XDGDataDir returns the XDG data directory for lorescan.
// On Linux: ~/.local/share/lorescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for lorescan.
// On Linux: ~/.config/lorescan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a sentinel error for
// the first problem found. Called once after CLI parsing, before any
// command work begins.
func (c *Config) Validate() error {
	if c.ProjectName == "" {
		return ErrNoProject
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return ErrInvalidThreshold
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.LLMTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// ApplyFile overlays file values onto the config. Only fields the file
// actually sets are applied; flag values applied after this call win.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.Project != "" {
		c.ProjectName = f.Project
	}
	if f.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *f.ConfidenceThreshold
	}
	if f.Gazetteer != "" {
		c.GazetteerPath = f.Gazetteer
	}
	if f.Concurrency != nil {
		c.Concurrency = *f.Concurrency
	}
	if f.Enhance.Enabled != nil {
		c.EnhanceEnabled = *f.Enhance.Enabled
	}
	if f.Enhance.Model != "" {
		c.LLMModel = f.Enhance.Model
	}
	if f.Enhance.APIKeyEnv != "" {
		c.LLMAPIKeyEnv = f.Enhance.APIKeyEnv
	}
	if f.Enhance.BaseURL != "" {
		c.LLMBaseURL = f.Enhance.BaseURL
	}
	if d := f.Enhance.ParsedTimeout(); d > 0 {
		c.LLMTimeout = d
	}
}
