package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cinematch/backend/internal/client"
	"github.com/fatih/color"
)

var (
	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	info    = color.New(color.FgCyan)
	warning = color.New(color.FgYellow)
)

func printSuccess(format string, args ...interface{}) {
	success.Printf(format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	failure.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	info.Printf(format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	warning.Printf("Warning: "+format+"\n", args...)
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(color.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printMovies renders a movie list as a table; ranked adds the rank and score columns
func printMovies(movies []client.Movie, ranked bool) error {
	if output == "json" {
		return printJSON(movies)
	}
	if len(movies) == 0 {
		printInfo("No movies found")
		return nil
	}

	w := tabwriter.NewWriter(color.Output, 0, 0, 2, ' ', 0)
	if ranked {
		bold.Fprintln(w, "#\tTMDB ID\tTITLE\tYEAR\tGENRES\tSCORE")
	} else {
		bold.Fprintln(w, "TMDB ID\tTITLE\tYEAR\tGENRES\tRATING")
	}
	for _, m := range movies {
		year := "-"
		if m.Year != nil {
			year = fmt.Sprintf("%d", *m.Year)
		}
		genres := strings.Join(m.Genres, ", ")
		if ranked {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.3f\n", m.Rank, m.TmdbID, m.Title, year, genres, m.Score)
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\n", m.TmdbID, m.Title, year, genres, m.VoteAverage)
		}
	}
	return w.Flush()
}
