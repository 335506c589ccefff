package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of lore (overridden by ldflags at build time)
	Version = "0.1.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
	// Commit and Branch record the git revision the binary was built from (optional ldflags)
	Commit = ""
	Branch = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		commit := buildSetting(Commit, "vcs.revision")
		branch := Branch

		if jsonOutput {
			result := map[string]string{
				"version": Version,
				"build":   Build,
			}
			if commit != "" {
				result["commit"] = commit
			}
			if branch != "" {
				result["branch"] = branch
			}
			outputJSON(result)
			return
		}

		switch {
		case commit != "" && branch != "":
			fmt.Printf("lore version %s (%s: %s@%s)\n", Version, Build, branch, shortCommit(commit))
		case commit != "":
			fmt.Printf("lore version %s (%s: %s)\n", Version, Build, shortCommit(commit))
		default:
			fmt.Printf("lore version %s (%s)\n", Version, Build)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildSetting returns override when set, otherwise the named setting from
// the binary's embedded build info.
func buildSetting(override, key string) string {
	if override != "" {
		return override
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == key && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return ""
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
