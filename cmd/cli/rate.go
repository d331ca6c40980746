package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cinematch/backend/internal/client"
	"github.com/spf13/cobra"
)

var rateCmd = &cobra.Command{
	Use:   "rate <tmdbId>=<rating>...",
	Short: "Rate one or more movies",
	Long: `Submit ratings as tmdbId=rating pairs. Ratings overwrite earlier ones
for the same movie.

Examples:
  cinematch rate 603=5
  cinematch rate 603=5 550=4 680=3 --seen
  cinematch rate 603=5 --done`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seen, _ := cmd.Flags().GetBool("seen")
		done, _ := cmd.Flags().GetBool("done")

		ratings, err := parseRatings(args, seen)
		if err != nil {
			return err
		}

		c, err := authedClient()
		if err != nil {
			return err
		}

		result, err := c.SavePreferences(ratings)
		if result != nil && output == "json" {
			if jsonErr := printJSON(result); jsonErr != nil {
				return jsonErr
			}
		} else if result != nil {
			printRatingResult(result)
		}
		if err != nil {
			return err
		}

		if done {
			if err := c.CompleteOnboarding(); err != nil {
				return err
			}
			printSuccess("Onboarding marked complete")
		}
		return nil
	},
}

func init() {
	rateCmd.Flags().Bool("seen", false, "Mark the movies as seen")
	rateCmd.Flags().Bool("done", false, "Mark onboarding complete after saving")
}

// parseRatings turns "603=5" arguments into rating entries
func parseRatings(args []string, seen bool) ([]client.Rating, error) {
	ratings := make([]client.Rating, 0, len(args))
	for _, arg := range args {
		idPart, ratingPart, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rating %q: expected tmdbId=rating", arg)
		}
		id, err := strconv.Atoi(idPart)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid tmdbId in %q", arg)
		}
		rating, err := strconv.Atoi(ratingPart)
		if err != nil {
			return nil, fmt.Errorf("invalid rating in %q", arg)
		}
		ratings = append(ratings, client.Rating{TmdbID: id, Rating: rating, Seen: seen})
	}
	return ratings, nil
}

func printRatingResult(result *client.PreferencesResult) {
	for _, s := range result.Saved {
		printSuccess("  ✓ %d rated %d", s.TmdbID, s.Rating)
	}
	for _, f := range result.Rejected {
		id := "?"
		if f.TmdbID != nil {
			id = strconv.Itoa(*f.TmdbID)
		}
		printWarning("%s skipped: %s", id, f.Reason)
	}
	printInfo("%d saved, %d failed", result.Successful, result.Failed)
}
