package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"trinity/internal/infra/observability"
	"trinity/internal/parser"
	"trinity/internal/shared/config"
	"trinity/internal/shared/logging"
	tokenutil "trinity/internal/shared/token"
	"trinity/internal/shared/utils"
	"trinity/internal/shared/utils/id"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	v    *viper.Viper
	cfg  config.Config
	meta config.Metadata

	obs    *observability.Observability
	logger logging.Logger
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, v: viper.New()}

	root := &cobra.Command{
		Use:   "trinity",
		Short: "Extract <tool_call> blocks from Trinity model output",
		Long: fmt.Sprintf(`%s

Reads model output text and turns <tool_call>{json}</tool_call> blocks into
chat-completions tool calls, either from a complete text or fragment by
fragment as a stream would deliver it.

%s
  trinity extract output.txt
  trinity stream --chunk-size 3 output.txt
  trinity batch --in outputs.jsonl --out messages.jsonl
  trinity validate --tools tools.json output.txt`,
			bold("trinity "+appVersion()), bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.finish(cmd)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default $TRINITY_CONFIG_PATH or ~/.trinity/config.yaml)")
	flags.StringP("output", "o", "json", "Output format: json, yaml or text")
	flags.Bool("no-color", false, "Disable colored text output")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-dir", "", "Directory for trinity-parser.log and trinity-service.log")
	flags.Bool("metrics", false, "Collect metrics and print them to stderr on exit")
	flags.Bool("tokenizer", false, "Resolve marker token ids with the tokenizer")
	flags.String("vocab", "", "JSON vocabulary file (literal -> id) used instead of the tokenizer encoding")

	mustBind(a.v, "logging.level", flags.Lookup("log-level"))
	mustBind(a.v, "logging.dir", flags.Lookup("log-dir"))
	mustBind(a.v, "metrics.enabled", flags.Lookup("metrics"))
	mustBind(a.v, "tokenizer.enabled", flags.Lookup("tokenizer"))
	mustBind(a.v, "tokenizer.vocab_file", flags.Lookup("vocab"))

	root.AddCommand(
		newExtractCommand(a),
		newStreamCommand(a),
		newBatchCommand(a),
		newValidateCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, meta, err := config.Load(config.WithConfigPath(configPath))
	if err != nil {
		return err
	}
	a.meta = meta

	a.v.SetEnvPrefix("TRINITY")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	setDefaults(a.v, cfg)
	if err := a.bindCommandFlags(cmd); err != nil {
		return err
	}

	a.cfg = resolveConfig(a.v)
	if err := config.Validate(a.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	strategy, err := id.ParseStrategy(a.cfg.IDs.Strategy)
	if err != nil {
		return err
	}
	id.SetStrategy(strategy)

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || !isTerminal(a.stdout) {
		color.NoColor = true
	}

	level := utils.ParseLevel(a.cfg.Logging.Level)
	for _, category := range []utils.LogCategory{utils.LogCategoryParser, utils.LogCategoryService} {
		utils.Configure(category, utils.LogOptions{
			Level:     level,
			Dir:       a.cfg.Logging.Dir,
			Echo:      a.stderr,
			EchoLevel: max(level, utils.WARN),
		})
	}
	a.logger = logging.NewComponentLogger("cli")
	a.logger.Debug("configuration loaded from %s", meta.Path())

	a.obs = observability.New(observability.Config{
		Metrics: observability.MetricsConfig{Enabled: a.cfg.Metrics.Enabled},
		Tracing: observability.TracingConfig{
			Enabled:        a.cfg.Tracing.Enabled,
			Exporter:       a.cfg.Tracing.Exporter,
			Endpoint:       a.cfg.Tracing.Endpoint,
			SampleRate:     a.cfg.Tracing.SampleRate,
			ServiceVersion: appVersion(),
		},
	}, a.logger)
	return nil
}

// bindCommandFlags binds the flags a subcommand declares for config keys.
func (a *app) bindCommandFlags(cmd *cobra.Command) error {
	bindings := map[string]string{
		"chunk-size": "stream.chunk_size",
		"by-tokens":  "stream.by_tokens",
		"workers":    "batch.workers",
		"cache-size": "batch.cache_size",
	}
	for flag, key := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	return nil
}

func (a *app) finish(cmd *cobra.Command) error {
	if a.obs == nil {
		return nil
	}
	if a.obs.Metrics.Enabled() {
		fmt.Fprintln(a.stderr, gray("# metrics"))
		if err := a.obs.Metrics.WriteText(a.stderr); err != nil {
			return err
		}
	}
	return a.obs.Shutdown(cmd.Context())
}

// newParser builds a parser wired to the configured vocabulary, metrics and
// parser log.
func (a *app) newParser() (*parser.Parser, error) {
	opts := []parser.Option{parser.WithObserver(a.obs.Metrics)}
	vocab, err := a.vocabulary()
	if err != nil {
		return nil, err
	}
	if vocab != nil {
		opts = append(opts, parser.WithVocabulary(vocab))
	}
	return parser.New(opts...), nil
}

// vocabulary returns the configured vocabulary, or nil when neither a vocab
// file nor the tokenizer is enabled.
func (a *app) vocabulary() (tokenutil.Vocabulary, error) {
	if path := strings.TrimSpace(a.cfg.Tokenizer.VocabFile); path != "" {
		vocab, err := tokenutil.LoadMapVocabulary(path)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		return vocab, nil
	}
	if !a.cfg.Tokenizer.Enabled {
		return nil, nil
	}
	vocab, err := tokenutil.NewTiktokenVocabulary(a.cfg.Tokenizer.Encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", a.cfg.Tokenizer.Encoding, err)
	}
	return vocab, nil
}

func (a *app) format(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return strings.ToLower(strings.TrimSpace(format))
}

func setDefaults(v *viper.Viper, cfg config.Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.dir", cfg.Logging.Dir)
	v.SetDefault("tokenizer.enabled", cfg.Tokenizer.Enabled)
	v.SetDefault("tokenizer.encoding", cfg.Tokenizer.Encoding)
	v.SetDefault("tokenizer.vocab_file", cfg.Tokenizer.VocabFile)
	v.SetDefault("stream.chunk_size", cfg.Stream.ChunkSize)
	v.SetDefault("stream.by_tokens", cfg.Stream.ByTokens)
	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("batch.cache_size", cfg.Batch.CacheSize)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.exporter", cfg.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", cfg.Tracing.Endpoint)
	v.SetDefault("tracing.sample_rate", cfg.Tracing.SampleRate)
	v.SetDefault("ids.strategy", cfg.IDs.Strategy)
}

func resolveConfig(v *viper.Viper) config.Config {
	return config.Config{
		Logging: config.LoggingConfig{
			Level: v.GetString("logging.level"),
			Dir:   v.GetString("logging.dir"),
		},
		Tokenizer: config.TokenizerConfig{
			Enabled:   v.GetBool("tokenizer.enabled"),
			Encoding:  v.GetString("tokenizer.encoding"),
			VocabFile: v.GetString("tokenizer.vocab_file"),
		},
		Stream: config.StreamConfig{
			ChunkSize: v.GetInt("stream.chunk_size"),
			ByTokens:  v.GetBool("stream.by_tokens"),
		},
		Batch: config.BatchConfig{
			Workers:   v.GetInt("batch.workers"),
			CacheSize: v.GetInt("batch.cache_size"),
		},
		Metrics: config.MetricsConfig{Enabled: v.GetBool("metrics.enabled")},
		Tracing: config.TracingConfig{
			Enabled:    v.GetBool("tracing.enabled"),
			Exporter:   v.GetString("tracing.exporter"),
			Endpoint:   v.GetString("tracing.endpoint"),
			SampleRate: v.GetFloat64("tracing.sample_rate"),
		},
		IDs: config.IDConfig{Strategy: v.GetString("ids.strategy")},
	}
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
