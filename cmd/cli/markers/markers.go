package markers

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/good-deeds/board/cmd/cli/apiclient"
	"github.com/good-deeds/board/cmd/cli/output"
	"github.com/good-deeds/board/internal/models"
)

// ==========================
// Init Markers
// ==========================
func InitMarkers(rootCmd *cobra.Command) {
	markersCmd := &cobra.Command{
		Use:     "markers",
		Aliases: []string{"m"},
		Short:   "Browse and manage help requests on the map",
	}

	markersCmd.AddCommand(
		listMarkersCmd(),
		showMarkerCmd(),
		addMarkerCmd(),
		editMarkerCmd(),
		deleteMarkerCmd(),
	)

	rootCmd.AddCommand(markersCmd, commentCmd())
}

// ==========================
// LIST
// ==========================
func listMarkersCmd() *cobra.Command {
	var query string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active markers",
		Long:  "List markers whose deadline is today or later, optionally filtered by a substring of the location.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}

			path := "/api/markers"
			if query != "" {
				path += "?q=" + url.QueryEscape(query)
			}
			var out struct {
				Markers []models.Marker `json:"markers"`
			}
			if err := client.Get(path, &out); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out.Markers)
			}
			if len(out.Markers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active markers.")
				return nil
			}
			rows := make([][]interface{}, 0, len(out.Markers))
			for _, m := range out.Markers {
				rows = append(rows, []interface{}{
					m.ID, output.Truncate(m.HelpNeeded, 40), m.LocationText, m.Deadline.String(), m.Username,
				})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Help needed", "Location", "Deadline", "Author"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by location substring")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output raw JSON instead of a table")
	return cmd
}

// ==========================
// SHOW
// ==========================
func showMarkerCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one marker with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := markerID(args[0])
			if err != nil {
				return err
			}
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}

			var out struct {
				Marker   models.Marker    `json:"marker"`
				Comments []models.Comment `json:"comments"`
			}
			if err := client.Get(fmt.Sprintf("/api/markers/%d", id), &out); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			m := out.Marker
			fmt.Fprintf(w, "#%d  %s\n", m.ID, m.HelpNeeded)
			if m.Offer != "" {
				fmt.Fprintf(w, "Offer:     %s\n", m.Offer)
			}
			fmt.Fprintf(w, "Location:  %s (%.4f, %.4f)\n", m.LocationText, m.Latitude, m.Longitude)
			fmt.Fprintf(w, "Deadline:  %s\n", m.Deadline)
			fmt.Fprintf(w, "Contact:   %s\n", m.Contact)
			if m.Username != "" {
				fmt.Fprintf(w, "Author:    %s, %s\n", m.Username, output.Ago(m.CreatedAt))
			}
			if len(out.Comments) == 0 {
				return nil
			}
			rows := make([][]interface{}, 0, len(out.Comments))
			for _, c := range out.Comments {
				rows = append(rows, []interface{}{c.Username, c.Text, output.Ago(c.CreatedAt)})
			}
			output.RenderTable(w, []string{"Author", "Comment", "When"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output raw JSON")
	return cmd
}

// ==========================
// ADD
// ==========================
func addMarkerCmd() *cobra.Command {
	var help, offer, location, deadline, contact string
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a new help request",
		Example: `  deeds markers add --help-needed "Нужна помощь с переездом" --location Алматы \
    --deadline 2026-12-01 --contact t.me/anna --lat 43.24 --lng 76.89`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			payload := map[string]any{
				"help_needed": help,
				"offer":       offer,
				"location":    location,
				"deadline":    deadline,
				"contact":     contact,
				"lat":         lat,
				"lng":         lng,
			}
			var out struct {
				MarkerID int `json:"marker_id"`
			}
			if err := client.Post("/api/markers", payload, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marker %d created\n", out.MarkerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&help, "help-needed", "", "What help is needed (required)")
	cmd.Flags().StringVar(&offer, "offer", "", "What you offer in return")
	cmd.Flags().StringVar(&location, "location", "", "Location text (required)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Last day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&contact, "contact", "", "How to reach you (required)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude (required)")
	for _, name := range []string{"help-needed", "location", "deadline", "contact", "lat", "lng"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

// ==========================
// EDIT
// ==========================
func editMarkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change fields of your own marker",
		Long:  "Only the flags given are sent; everything else stays as it is.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := markerID(args[0])
			if err != nil {
				return err
			}
			payload := map[string]any{}
			for flag, field := range editableFields {
				if !cmd.Flags().Changed(flag) {
					continue
				}
				if flag == "lat" || flag == "lng" {
					v, _ := cmd.Flags().GetFloat64(flag)
					payload[field] = v
					continue
				}
				v, _ := cmd.Flags().GetString(flag)
				payload[field] = v
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to change: pass at least one field flag")
			}

			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			if err := client.Do("PATCH", fmt.Sprintf("/api/markers/%d", id), payload, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marker %d updated\n", id)
			return nil
		},
	}

	cmd.Flags().String("help-needed", "", "What help is needed")
	cmd.Flags().String("offer", "", "What you offer in return")
	cmd.Flags().String("location", "", "Location text")
	cmd.Flags().String("deadline", "", "Last day, YYYY-MM-DD")
	cmd.Flags().String("contact", "", "How to reach you")
	cmd.Flags().Float64("lat", 0, "Latitude")
	cmd.Flags().Float64("lng", 0, "Longitude")
	return cmd
}

// editableFields maps edit flags to JSON fields.
var editableFields = map[string]string{
	"help-needed": "help_needed",
	"offer":       "offer",
	"location":    "location",
	"deadline":    "deadline",
	"contact":     "contact",
	"lat":         "lat",
	"lng":         "lng",
}

// ==========================
// DELETE
// ==========================
func deleteMarkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete your marker and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := markerID(args[0])
			if err != nil {
				return err
			}
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			if err := client.Do("DELETE", fmt.Sprintf("/api/markers/%d", id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marker %d deleted\n", id)
			return nil
		},
	}
}

// ==========================
// COMMENT
// ==========================
func commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment [marker id] [text]",
		Short: "Comment on a marker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := markerID(args[0])
			if err != nil {
				return err
			}
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			var out struct {
				CommentID int `json:"comment_id"`
			}
			if err := client.Post(fmt.Sprintf("/api/markers/%d/comments", id), map[string]string{"text": args[1]}, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment %d added to marker %d\n", out.CommentID, id)
			return nil
		},
	}
}

func markerID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid marker id %q", s)
	}
	return id, nil
}
