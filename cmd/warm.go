package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukidney/docchat/internal/progress"
	"github.com/ukidney/docchat/internal/resolver"
)

var warmOwner string

var warmCmd = &cobra.Command{
	Use:   "warm [doc...]",
	Short: "Prefetch document configurations into the cache",
	Long: `Fetches document configurations from the upstream API and stores them in
the local cache, so the first widget render after a deploy does not pay the
upstream round trip. Pass document slugs, or --owner to warm an owner's
whole catalog.`,
	RunE: runWarm,
}

func init() {
	warmCmd.Flags().StringVar(&warmOwner, "owner", "", "warm every document of this owner")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := openDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	slugs := args
	if warmOwner != "" {
		res, err := d.resolver.Resolve(ctx, resolver.Request{Owner: warmOwner, Refresh: true})
		if err != nil {
			return fmt.Errorf("listing documents for %s: %w", warmOwner, err)
		}
		for _, doc := range res.Documents {
			slugs = append(slugs, doc.Slug)
		}
	}
	if len(slugs) == 0 {
		return fmt.Errorf("nothing to warm: pass document slugs or --owner")
	}

	reporter := progress.NewReporter()
	reporter.Start(len(slugs))

	var warmed, missing int
	for i, slug := range slugs {
		reporter.Update(i+1, slug)
		doc, err := d.resolver.Document(ctx, slug, true)
		if err != nil {
			reporter.Finish()
			return fmt.Errorf("fetching %s: %w", slug, err)
		}
		if doc == nil {
			missing++
			fmt.Fprintf(os.Stderr, "Warning: document %q does not exist, skipping\n", slug)
			continue
		}
		warmed++
	}
	reporter.Finish()

	// Owner branding rides along so the first render is fully cache-hot.
	if warmOwner != "" {
		if _, err := d.resolver.OwnerBranding(ctx, warmOwner); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not warm owner branding: %v\n", err)
		}
	}

	fmt.Printf("Warmed %d document(s)", warmed)
	if missing > 0 {
		fmt.Printf(", %d unknown", missing)
	}
	fmt.Println()
	return nil
}
