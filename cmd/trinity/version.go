package main

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"trinity/internal/shared/config"
)

var (
	versionOnce   sync.Once
	cachedVersion string
)

// appVersion returns the best-effort version of the binary:
//  1. Explicit TRINITY_VERSION environment variable.
//  2. Go build information when available.
//  3. A development fallback string.
func appVersion() string {
	versionOnce.Do(func() {
		cachedVersion = detectVersion(config.DefaultEnvLookup, debug.ReadBuildInfo)
	})
	return cachedVersion
}

func detectVersion(lookup config.EnvLookup, buildInfo func() (*debug.BuildInfo, bool)) string {
	if v, ok := lookup("TRINITY_VERSION"); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}

	if info, ok := buildInfo(); ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return fmt.Sprintf("dev-%s", setting.Value)
			}
		}
	}

	return "development"
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "trinity %s\n", appVersion())
			return err
		},
	}
}
