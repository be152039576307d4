package config

import "time"

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault ValueSource = "default"
	SourceFile    ValueSource = "file"
	SourceEnv     ValueSource = "environment"
)

// EnvLookup resolves the value for an environment variable.
type EnvLookup func(string) (string, bool)

// Config is the resolved runtime configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Tokenizer TokenizerConfig `yaml:"tokenizer" json:"tokenizer"`
	Stream    StreamConfig    `yaml:"stream" json:"stream"`
	Batch     BatchConfig     `yaml:"batch" json:"batch"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
	IDs       IDConfig        `yaml:"ids" json:"ids"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	Dir   string `yaml:"dir" json:"dir"`
}

// TokenizerConfig selects the vocabulary used to resolve marker token ids
// and to cut text into token-sized fragments. VocabFile, when set, is a JSON
// object of literal to id and takes precedence over Encoding.
type TokenizerConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Encoding  string `yaml:"encoding" json:"encoding"`
	VocabFile string `yaml:"vocab_file" json:"vocab_file"`
}

type StreamConfig struct {
	ChunkSize int  `yaml:"chunk_size" json:"chunk_size"`
	ByTokens  bool `yaml:"by_tokens" json:"by_tokens"`
}

type BatchConfig struct {
	Workers   int `yaml:"workers" json:"workers"`
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Exporter   string  `yaml:"exporter" json:"exporter"`
	Endpoint   string  `yaml:"endpoint" json:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

// IDConfig selects how tool call and batch ids are generated: random or
// uuidv7 (time ordered).
type IDConfig struct {
	Strategy string `yaml:"strategy" json:"strategy"`
}

// Metadata records the provenance of each configuration field.
type Metadata struct {
	path     string
	sources  map[string]ValueSource
	loadedAt time.Time
}

// Path returns the config file that was consulted, which may not exist.
func (m Metadata) Path() string {
	return m.path
}

// Sources returns a copy of the provenance map.
func (m Metadata) Sources() map[string]ValueSource {
	out := make(map[string]ValueSource, len(m.sources))
	for key, value := range m.sources {
		out[key] = value
	}
	return out
}

// Source returns the origin for the given configuration field.
func (m Metadata) Source(field string) ValueSource {
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

// LoadedAt returns the timestamp when the configuration was constructed.
func (m Metadata) LoadedAt() time.Time {
	return m.loadedAt
}
