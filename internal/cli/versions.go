package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/extplan/internal/repository"
	"github.com/agentx-labs/extplan/internal/version"
)

var (
	versionsOffset     int
	versionsLimit      int
	versionsRepository string
)

var versionsCmd = &cobra.Command{
	Use:   "versions <id>",
	Short: "List the versions of an extension",
	Long: `List the versions of an extension known to the configured repositories.
The first repository, in configuration order, that knows the extension answers.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

func init() {
	versionsCmd.Flags().IntVar(&versionsOffset, "offset", 0, "Index of the first version to list")
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", -1, "Maximum number of versions to list (-1 for all)")
	versionsCmd.Flags().StringVar(&versionsRepository, "repository", "", "Query only the repository with this id")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	var repo repository.RemoteRepository = rt.chain
	if versionsRepository != "" {
		r, ok := rt.chain.Repository(versionsRepository)
		if !ok {
			return fmt.Errorf("no repository with id %q", versionsRepository)
		}
		repo = r
	}

	res, err := repo.ResolveVersions(ctx, args[0], versionsOffset, versionsLimit)
	if err != nil {
		return err
	}
	printVersions(cmd, args[0], res)
	return nil
}

func printVersions(cmd *cobra.Command, id string, res *repository.IterableResult[version.Version]) {
	out := cmd.OutOrStdout()
	n := 0
	for v := range res.All() {
		fmt.Fprintln(out, v.String())
		n++
	}
	if n == 0 {
		fmt.Fprintf(out, "No versions of %s at offset %d.\n", id, res.Offset())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Listed %d of %d versions from offset %d.\n", n, res.TotalHits(), res.Offset())
}
