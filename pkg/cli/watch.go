package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/craigrmccown/apollo-cli/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the project for configuration and document changes",
	Long: `Watch the project folder and print one line per change: configuration
reloads, documents entering or leaving a document set and failed reloads.
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := watch.New(projectRoot(), watch.WithLogger(logger))
		if err != nil {
			return err
		}

		done := make(chan error, 1)
		go func() { done <- w.Run(cmd.Context()) }()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "watching %s\n", w.Config().ProjectFolder)
		for ev := range w.Events() {
			switch ev.Kind {
			case watch.EventConfigChanged:
				fmt.Fprintf(out, "%s %s (%d schemas, %d document sets)\n", ev.Kind, ev.Path, len(ev.Config.Schemas), len(ev.Config.Queries))
			case watch.EventError:
				fmt.Fprintf(out, "%s %s: %v\n", ev.Kind, ev.Path, ev.Err)
			default:
				fmt.Fprintf(out, "%s %s\n", ev.Kind, ev.Path)
			}
		}
		return <-done
	},
}

// projectRoot returns the folder --project points at, which may name a
// config file.
func projectRoot() string {
	if info, err := os.Stat(projectDir); err == nil && !info.IsDir() {
		return filepath.Dir(projectDir)
	}
	return projectDir
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
