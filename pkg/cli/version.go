package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/getmockd/wsecho/pkg/cli/internal/output"
	"github.com/spf13/cobra"
)

// VersionOutput is the JSON form of the version command.
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show wsecho version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := currentVersion(debug.ReadBuildInfo)
		return printVersion(cmd.OutOrStdout(), info, jsonOutput, versionShort)
	},
}

func printVersion(w io.Writer, info VersionOutput, asJSON, short bool) error {
	switch {
	case asJSON:
		return output.JSON(w, info)
	case short:
		_, err := fmt.Fprintln(w, displayVersion(info.Version))
		return err
	}
	fmt.Fprintf(w, "wsecho %s (%s, %s)\n", displayVersion(info.Version), info.Commit, info.Date)
	fmt.Fprintf(w, "%s %s/%s\n", info.Go, info.OS, info.Arch)
	return nil
}

// displayVersion prefixes release numbers with "v".
func displayVersion(v string) string {
	switch {
	case v == "", v == "dev", v == "(devel)", v[0] == 'v':
		return v
	}
	return "v" + v
}

// currentVersion starts from the ldflags values and fills whatever was
// left at its placeholder from the module build info.
func currentVersion(readBuildInfo func() (*debug.BuildInfo, bool)) VersionOutput {
	out := VersionOutput{
		Version: Version,
		Commit:  Commit,
		Date:    BuildDate,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}

	info, ok := readBuildInfo()
	if !ok {
		return out
	}
	if out.Version == "dev" && info.Main.Version != "" {
		out.Version = info.Main.Version
	}

	vcs := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}
	if rev, ok := vcs["vcs.revision"]; ok && out.Commit == "none" {
		out.Commit = rev
		if vcs["vcs.modified"] == "true" {
			out.Commit += "-dirty"
		}
	}
	if t, ok := vcs["vcs.time"]; ok && out.Date == "unknown" {
		out.Date = t
	}
	return out
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}
