package board

import (
	"fmt"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/good-deeds/board/cmd/cli/apiclient"
	"github.com/good-deeds/board/cmd/cli/output"
	"github.com/good-deeds/board/internal/models"
)

// InitBoard registers rating, search, location and audit on the root command.
func InitBoard(rootCmd *cobra.Command) {
	rootCmd.AddCommand(ratingCmd(), searchCmd(), locationCmd(), auditCmd())
}

type rating struct {
	ByMarkers  []models.UserCount     `json:"by_markers"`
	ByComments []models.UserCount     `json:"by_comments"`
	Locations  []models.LocationCount `json:"locations"`
}

func ratingCmd() *cobra.Command {
	var top int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rating",
		Short: "Show the most active users and locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			var out struct {
				Rating rating `json:"rating"`
			}
			if err := client.Get("/api/rating", &out); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out.Rating)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Top users by markers")
			output.RenderTable(w, []string{"#", "User", "Markers"}, userRows(out.Rating.ByMarkers, top))
			fmt.Fprintln(w, "Top users by comments")
			output.RenderTable(w, []string{"#", "User", "Comments"}, userRows(out.Rating.ByComments, top))

			fmt.Fprintln(w, "Top locations")
			var rows [][]interface{}
			for i, l := range out.Rating.Locations {
				if i == top {
					break
				}
				rows = append(rows, []interface{}{humanize.Ordinal(i + 1), l.Location, humanize.Comma(int64(l.Count))})
			}
			output.RenderTable(w, []string{"#", "Location", "Markers"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 10, "Rows per board")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output raw JSON (all rows)")
	return cmd
}

func userRows(counts []models.UserCount, top int) [][]interface{} {
	var rows [][]interface{}
	for i, c := range counts {
		if i == top {
			break
		}
		rows = append(rows, []interface{}{humanize.Ordinal(i + 1), c.Username, humanize.Comma(int64(c.Count))})
	}
	return rows
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [text]",
		Short: "Search users by name and markers by location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			var out struct {
				Users   []models.User   `json:"users"`
				Markers []models.Marker `json:"markers"`
			}
			if err := client.Get("/api/search?q="+url.QueryEscape(args[0]), &out); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(out.Users) == 0 && len(out.Markers) == 0 {
				fmt.Fprintf(w, "Nothing found for %q.\n", args[0])
				return nil
			}
			if len(out.Users) > 0 {
				rows := make([][]interface{}, 0, len(out.Users))
				for _, u := range out.Users {
					rows = append(rows, []interface{}{u.ID, u.Username, u.City})
				}
				output.RenderTable(w, []string{"ID", "User", "City"}, rows)
			}
			if len(out.Markers) > 0 {
				rows := make([][]interface{}, 0, len(out.Markers))
				for _, m := range out.Markers {
					rows = append(rows, []interface{}{m.ID, output.Truncate(m.HelpNeeded, 40), m.LocationText, m.Deadline.String()})
				}
				output.RenderTable(w, []string{"ID", "Help needed", "Location", "Deadline"}, rows)
			}
			return nil
		},
	}
}

func locationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "location [city]",
		Short: "Set your city; the map opens there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			var out struct {
				City string  `json:"city"`
				Lat  float64 `json:"lat"`
				Lng  float64 `json:"lng"`
			}
			if err := client.Post("/api/location", map[string]string{"city": args[0]}, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Location set to %s (%.4f, %.4f)\n", out.City, out.Lat, out.Lng)
			return nil
		},
	}
}

func auditCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent marker and comment changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			var out struct {
				Entries []models.AuditEntry `json:"entries"`
			}
			if err := client.Get(fmt.Sprintf("/api/audit?limit=%d&offset=%d", limit, offset), &out); err != nil {
				return err
			}
			rows := make([][]interface{}, 0, len(out.Entries))
			for _, e := range out.Entries {
				rows = append(rows, []interface{}{
					output.Ago(e.CreatedAt), e.UserID, e.Action, fmt.Sprintf("%s %d", e.ResourceType, e.ResourceID), e.Details,
				})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"When", "User", "Action", "Resource", "Details"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	return cmd
}
