package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/normacomex/normabot/pkg/cli"
	"github.com/normacomex/normabot/pkg/norms"
	"github.com/normacomex/normabot/pkg/storage"
)

// DefaultShareBaseURL is the public address of the NormaComex web app.
const DefaultShareBaseURL = "https://normacomex.co"

var (
	normsInMemory bool
	normsCategory string
	normsFull     bool
	normsDir      string
	normsPublish  bool
	normsShareURL string
)

var normsCmd = &cobra.Command{
	Use:   "norms",
	Short: "Browse the regulatory catalog",
	Long: `Browse, search, export and share the Colombian regulatory catalog.

Categories: Aduanera, Cambiaria, Tributaria, Comercio Exterior.`,
}

var normsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			cat, err := norms.ParseCategory(normsCategory)
			if err != nil {
				return err
			}
			list, err := store.Search(cmd.Context(), norms.Query{Category: cat})
			if err != nil {
				return err
			}
			return outputResult(summaries(list))
		})
	},
}

var normsSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search titles, numbers, summaries, authorities and full texts",
	Long: `Search the catalog. Matching is case-insensitive and covers the title,
number, summary, type, issuing authority and full text.

Examples:
  normabot norms search "zonas francas"
  normabot norms search dian --category Tributaria --json -q '.[].id'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		}
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			cat, err := norms.ParseCategory(normsCategory)
			if err != nil {
				return err
			}
			list, err := store.Search(cmd.Context(), norms.Query{Text: text, Category: cat})
			if err != nil {
				return err
			}
			if len(list) == 0 {
				cli.PrintInfo("No se encontraron normas")
				return nil
			}
			return outputResult(summaries(list))
		})
	},
}

var normsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one norm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			n, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !normsFull {
				n.FullText = ""
			}
			return outputResult(n)
		})
	},
}

var normsNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List newly published norms",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			list, err := store.Notifications(cmd.Context())
			if err != nil {
				return err
			}
			printVerbose("%d nuevas alertas", len(list))
			return outputResult(map[string]any{
				"count":         len(list),
				"notifications": summaries(list),
			})
		})
	},
}

var normsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return outputResult(st)
		})
	},
}

var normsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a norm as PDF",
	Long: `Export a norm as an A4 PDF named Norma_<type>_<number>_<title>.pdf.

The file is written to --dir, the context's export_dir, or
~/.normacomex/normabot/exports. With --publish it is uploaded to the
configured file store (s3_bucket, or the export directory) and its URL is
printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := optionalContext()
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			n, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := norms.ExportPDF(&buf, n); err != nil {
				return err
			}
			name := norms.PDFFileName(n)

			dir := normsDir
			if dir == "" {
				if dir, err = exportDir(ctx); err != nil {
					return err
				}
			}
			if _, err := cli.Ensure(dir); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if outputFile != "" {
				path = outputFile
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			cli.PrintSuccess("Archivo guardado exitosamente: %s (%s)", path, cli.FormatBytes(int64(buf.Len())))

			if !normsPublish {
				return nil
			}
			fs, err := createFileStore(ctx)
			if err != nil {
				return err
			}
			u, err := storage.Publish(cmd.Context(), fs, name, buf.Bytes(), "application/pdf")
			if err != nil {
				return err
			}
			cli.PrintSuccess("Publicado: %s", u)
			return nil
		})
	},
}

var normsShareCmd = &cobra.Command{
	Use:   "share <id>",
	Short: "Print share links for a norm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := optionalContext()
		base := normsShareURL
		if base == "" {
			base = ctx.ExtraOr(cli.ExtraShareBaseURL, DefaultShareBaseURL)
		}
		return withCatalog(cmd.Context(), func(store *norms.Store) error {
			n, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return outputResult(norms.Share(n, norms.NormURL(base, n)))
		})
	},
}

func withCatalog(ctx context.Context, fn func(*norms.Store) error) error {
	store, closeFn, err := openCatalog(ctx, normsInMemory)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(store)
}

// summaries drops the full texts for listing.
func summaries(list []norms.Norm) []norms.Norm {
	out := make([]norms.Norm, len(list))
	for i, n := range list {
		n.FullText = ""
		out[i] = n
	}
	return out
}

func init() {
	normsCmd.PersistentFlags().BoolVar(&normsInMemory, "in-memory", false, "use a throwaway in-memory catalog")
	normsListCmd.Flags().StringVar(&normsCategory, "category", "", "filter by category")
	normsSearchCmd.Flags().StringVar(&normsCategory, "category", "", "filter by category")
	normsShowCmd.Flags().BoolVar(&normsFull, "full", false, "include the full text")
	normsExportCmd.Flags().StringVar(&normsDir, "dir", "", "output directory")
	normsExportCmd.Flags().BoolVar(&normsPublish, "publish", false, "upload the PDF and print its URL")
	normsShareCmd.Flags().StringVar(&normsShareURL, "base-url", "", "public web app URL (default: context share_base_url or "+DefaultShareBaseURL+")")

	normsCmd.AddCommand(normsListCmd)
	normsCmd.AddCommand(normsSearchCmd)
	normsCmd.AddCommand(normsShowCmd)
	normsCmd.AddCommand(normsNotificationsCmd)
	normsCmd.AddCommand(normsStatsCmd)
	normsCmd.AddCommand(normsExportCmd)
	normsCmd.AddCommand(normsShareCmd)
}
