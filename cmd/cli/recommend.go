package main

import (
	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get movie recommendations",
	Long: `Fetch recommendations for the logged in account. The collaborative
recommender is used by default; --content switches to TF-IDF similarity.

Examples:
  cinematch recommend
  cinematch recommend --limit 20 --content`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		content, _ := cmd.Flags().GetBool("content")

		c, err := authedClient()
		if err != nil {
			return err
		}

		recs, err := c.Recommend(limit, content)
		if err != nil {
			return err
		}
		if output == "json" {
			return printJSON(recs)
		}
		if recs.IsNewUser {
			printInfo("No ratings yet. Rate a few movies with `cinematch rate` first.")
			return nil
		}
		return printMovies(recs.Movies, true)
	},
}

func init() {
	recommendCmd.Flags().IntP("limit", "l", 10, "Maximum number of recommendations (1-100)")
	recommendCmd.Flags().Bool("content", false, "Use content-based (TF-IDF) recommendations")
}
