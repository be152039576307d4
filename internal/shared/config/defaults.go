package config

const (
	DefaultLogLevel          = "info"
	DefaultEncoding          = "cl100k_base"
	DefaultStreamChunkSize   = 4
	DefaultBatchWorkers      = 4
	DefaultBatchCacheSize    = 1024
	DefaultTracingExporter   = "otlp"
	DefaultTracingSampleRate = 1.0
	DefaultIDStrategy        = "random"
)

// Default returns the configuration used when no file or env overrides apply.
func Default() Config {
	return Config{
		Logging:   LoggingConfig{Level: DefaultLogLevel},
		Tokenizer: TokenizerConfig{Encoding: DefaultEncoding},
		Stream:    StreamConfig{ChunkSize: DefaultStreamChunkSize},
		Batch:     BatchConfig{Workers: DefaultBatchWorkers, CacheSize: DefaultBatchCacheSize},
		Tracing:   TracingConfig{Exporter: DefaultTracingExporter, SampleRate: DefaultTracingSampleRate},
		IDs:       IDConfig{Strategy: DefaultIDStrategy},
	}
}
