package config

import (
	"fmt"
	"time"
)

// Config represents a drayage.yaml configuration file.
// CLI flags always override config values.
type Config struct {
	FTP       FTPConfig       `yaml:"ftp"`
	Poll      PollConfig      `yaml:"poll"`
	EDI       EDIConfig       `yaml:"edi"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
	EDINation EDINationConfig `yaml:"edination"`
	FlowSync  FlowSyncConfig  `yaml:"flowsync"`
}

// FTPConfig holds the trading partner FTP drop settings.
type FTPConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	Directory    string   `yaml:"directory"`
	AckDirectory string   `yaml:"ack_directory"`
	Timeout      Duration `yaml:"timeout"`
}

// PollConfig holds the discovery loop settings.
type PollConfig struct {
	Interval Duration `yaml:"interval"`
}

// EDIConfig selects and tunes the parse path.
type EDIConfig struct {
	// Mode is "service" (EDINation) or "local" (built-in parser).
	Mode string `yaml:"mode"`
	// StrictSequence enforces canonical segment order in local mode.
	StrictSequence bool `yaml:"strict_sequence"`
	// ElementSeparator and SegmentTerminator override the X12 defaults.
	ElementSeparator  string `yaml:"element_separator"`
	SegmentTerminator string `yaml:"segment_terminator"`
}

// RedisConfig holds the document ledger settings.
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ArchiveConfig holds raw document storage settings.
type ArchiveConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// EDINationConfig holds the remote EDI service settings.
type EDINationConfig struct {
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// FlowSyncConfig holds the downstream order service settings.
type FlowSyncConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
