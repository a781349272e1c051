package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coroscristianos/contentgen/internal/generate"
)

type stepCommand struct {
	use     string
	short   string
	steps   []generate.Step
	perPage bool
	// selectable lets --steps narrow the steps to run.
	selectable bool
}

var stepCommands = []stepCommand{
	{use: "artists", short: "Write one document per artist plus the artist index", steps: []generate.Step{generate.StepArtists}},
	{use: "home", short: "Write the paginated home listing, its index and the recent songs", steps: []generate.Step{generate.StepHome}, perPage: true},
	{use: "search", short: "Write the compact client-side search index", steps: []generate.Step{generate.StepSearch}},
	{use: "videos", short: "Write the curated video gallery", steps: []generate.Step{generate.StepVideos}},
	{use: "lyrics", short: "Write one lyrics document per song", steps: []generate.Step{generate.StepLyrics}},
	{use: "all", short: "Run every generation step over one read of the source", steps: generate.AllSteps, perPage: true, selectable: true},
}

func newStepCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(stepCommands))
	for _, def := range stepCommands {
		cmds = append(cmds, newStepCmd(def))
	}
	return cmds
}

func newStepCmd(def stepCommand) *cobra.Command {
	var (
		perPage int
		only    []string
	)
	cmd := &cobra.Command{
		Use:   def.use,
		Short: def.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer closeApp(cmd)
			steps, err := selectSteps(def.steps, only)
			if err != nil {
				return err
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := appInstance.Generate(cmd.Context(), perPage, steps...)
			if summary.RunID != "" {
				printSummary(cmd.OutOrStdout(), summary)
			}
			return err
		},
	}
	if def.perPage {
		cmd.Flags().IntVar(&perPage, "per-page", 0, "songs per home page (0 uses generate.per_page)")
	}
	if def.selectable {
		cmd.Flags().StringSliceVar(&only, "steps", nil, "comma separated subset of steps to run, in pipeline order")
	}
	return cmd
}

// selectSteps keeps the steps named in only, preserving pipeline order.
func selectSteps(steps []generate.Step, only []string) ([]generate.Step, error) {
	if len(only) == 0 {
		return steps, nil
	}
	wanted := make(map[generate.Step]bool, len(only))
	for _, name := range only {
		step, err := generate.ParseStep(name)
		if err != nil {
			return nil, err
		}
		wanted[step] = true
	}
	var out []generate.Step
	for _, step := range steps {
		if wanted[step] {
			out = append(out, step)
		}
	}
	return out, nil
}

func printSummary(w io.Writer, s generate.Summary) {
	fmt.Fprintf(w, "run %s at %s\n", s.RunID, s.GeneratedAt)
	fmt.Fprintf(w, "source: %d files, %d songs, %d skipped\n", s.FilesRead, s.SongsLoaded, s.Skipped)
	for _, issue := range s.Issues {
		fmt.Fprintf(w, "  skipped %s: %s\n", issue.File, issue.Reason)
	}
	for _, step := range s.Steps {
		status := "ok"
		if step.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(w, "%-8s %-6s written=%d failed=%d removed=%d bytes=%d\n",
			step.Step, status, step.Written, step.Failed, step.Cleared, step.Bytes)
	}
	fmt.Fprintf(w, "total: %d written, %d failed\n", s.Written(), s.Failed())
}
