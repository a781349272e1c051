package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror song posts from the upstream checkout into the source directory",
		Long: `Copies every song post from the first existing upstream directory
(sync.upstream_dir, then sync.fallbacks) into source.dir, pretty-printing
each record and removing posts that no longer exist upstream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer closeApp(cmd)
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := appInstance.Sync(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "synced from %s: %d copied, %d skipped, %d removed\n",
				res.Upstream, res.Copied, res.Skipped, res.Removed)
			for _, issue := range res.Issues {
				fmt.Fprintf(out, "  skipped %s: %s\n", issue.File, issue.Reason)
			}
			return nil
		},
	}
}
