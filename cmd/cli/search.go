package main

import (
	"strings"

	"github.com/cinematch/backend/internal/client"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the movie catalog",
	Long: `Search TMDB through the backend. Use the TMDB ID from the results
with the rate command.

Examples:
  cinematch search "the matrix"
  cinematch search matrix --page 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		movies, err := client.New(apiURL, "", timeout).Search(strings.Join(args, " "), page)
		if err != nil {
			return err
		}
		return printMovies(movies, false)
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List popular movies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		movies, err := client.New(apiURL, "", timeout).Popular(page)
		if err != nil {
			return err
		}
		return printMovies(movies, false)
	},
}

func init() {
	searchCmd.Flags().IntP("page", "p", 1, "Result page")
	popularCmd.Flags().IntP("page", "p", 1, "Result page")
}
