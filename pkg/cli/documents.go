package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/craigrmccown/apollo-cli/pkg/cli/internal/output"
	"github.com/craigrmccown/apollo-cli/pkg/resolve"
)

var (
	documentsWithSchema bool
	documentsOutput     string
	documentsSource     string
)

// documentSetView is the printed form of a resolved document set.
type documentSetView struct {
	Schema    string   `json:"schema,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty"`
	Documents []string `json:"documents"`
	// Root fields are listed only with --with-schema.
	Queries       []string `json:"queries,omitempty"`
	Mutations     []string `json:"mutations,omitempty"`
	Subscriptions []string `json:"subscriptions,omitempty"`
	ClientFields  []string `json:"clientFields,omitempty"`
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the operation documents of every document set",
	Long: `Expand the include and exclude globs of every document set and list the
matching files relative to the project folder. Schema documents of a set's
extends chain are never listed.

With --with-schema each set's schema is composed too and its root fields
are listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(documentsOutput, output.FormatText, output.FormatJSON)
		if err != nil {
			return err
		}
		source, err := resolve.ParseSource(documentsSource)
		if err != nil {
			return err
		}
		cfg, err := loadProject(true)
		if err != nil {
			return err
		}

		sets, err := newResolver().ResolveDocumentSets(cmd.Context(), cfg, documentsWithSchema, source)
		if err != nil {
			return err
		}

		views := make([]documentSetView, len(sets))
		for i, set := range sets {
			views[i] = viewOf(cfg.ProjectFolder, set)
		}

		if format == output.FormatJSON {
			return output.JSON(cmd.OutOrStdout(), views)
		}

		w := cmd.OutOrStdout()
		for i, v := range views {
			header := fmt.Sprintf("queries[%d]", i)
			if v.Schema != "" {
				header += " schema=" + v.Schema
			}
			if v.Endpoint != "" {
				header += " endpoint=" + v.Endpoint
			}
			fmt.Fprintln(w, header)
			for _, doc := range v.Documents {
				fmt.Fprintln(w, "  "+doc)
			}
			for _, root := range []struct {
				label  string
				fields []string
			}{
				{"queries", v.Queries},
				{"mutations", v.Mutations},
				{"subscriptions", v.Subscriptions},
				{"client fields", v.ClientFields},
			} {
				if len(root.fields) > 0 {
					fmt.Fprintf(w, "  %s: %s\n", root.label, strings.Join(root.fields, ", "))
				}
			}
		}
		return nil
	},
}

func viewOf(root string, set *resolve.ResolvedDocumentSet) documentSetView {
	v := documentSetView{
		Schema:    set.OriginalSet.Schema,
		Documents: make([]string, 0, len(set.DocumentPaths)),
	}
	if set.Endpoint != nil {
		v.Endpoint = set.Endpoint.URL
	}
	for _, path := range set.DocumentPaths {
		if rel, err := filepath.Rel(root, path); err == nil {
			path = rel
		}
		v.Documents = append(v.Documents, filepath.ToSlash(path))
	}
	if set.Schema != nil {
		v.Queries = set.Schema.ListQueries()
		v.Mutations = set.Schema.ListMutations()
		v.Subscriptions = set.Schema.ListSubscriptions()
		v.ClientFields = set.Schema.ClientFields()
	}
	return v
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsWithSchema, "with-schema", false, "Compose each set's schema and list its root fields")
	documentsCmd.Flags().StringVarP(&documentsOutput, "output", "o", "text", "Output format (text, json)")
	documentsCmd.Flags().StringVar(&documentsSource, "source", "", "Force the schema origin (engine)")
	rootCmd.AddCommand(documentsCmd)
}
