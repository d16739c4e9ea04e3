package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kalmbach/toolrack/internal/backup"
	"github.com/kalmbach/toolrack/internal/config"
	"github.com/kalmbach/toolrack/internal/export"
	"github.com/kalmbach/toolrack/internal/heads"
	"github.com/kalmbach/toolrack/internal/settings"
	"github.com/kalmbach/toolrack/internal/storage"
)

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage moulder profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/profiles?q="+url.QueryEscape(query))
		if err != nil {
			return err
		}
		var profiles []storage.Profile
		if err := decodeJSON(resp, &profiles); err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("no profiles")
			return nil
		}
		for _, p := range profiles {
			fmt.Printf("%4d  %-30s %.1f m/min  %s\n", p.ID, p.Name, p.FeedRate, p.Description)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one profile with its tools and head assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profiles/"+args[0])
		if err != nil {
			return err
		}
		var p storage.Profile
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		fmt.Printf("%s (id %d)\n", colorize(colorBold, p.Name), p.ID)
		if p.Description != "" {
			fmt.Printf("  %s\n", p.Description)
		}
		fmt.Printf("  feed rate: %.1f m/min\n", p.FeedRate)
		if p.DrawingID != "" {
			fmt.Printf("  drawing: %s\n", p.DrawingID)
		}

		resp, err = client.get(cmd.Context(), "/profiles/"+args[0]+"/tools")
		if err != nil {
			return err
		}
		var tools []storage.Tool
		if err := decodeJSON(resp, &tools); err != nil {
			return err
		}
		if len(tools) > 0 {
			fmt.Println("\ntools:")
			for _, t := range tools {
				fmt.Printf("  %s  %-7s %-9s set %d  %d knives  [%s]\n",
					t.Code, t.Position, t.Type, t.SetNumber, t.KnivesCount, t.Status)
			}
		}

		resp, err = client.get(cmd.Context(), "/profiles/"+args[0]+"/heads")
		if err != nil {
			return err
		}
		var byHead map[int]storage.Assignment
		if err := decodeJSON(resp, &byHead); err != nil {
			return err
		}
		if len(byHead) > 0 {
			fmt.Println("\nheads:")
			for head := 1; head <= heads.HeadCount; head++ {
				a, ok := byHead[head]
				if !ok {
					continue
				}
				fmt.Printf("  %-10s %s", heads.Name(head), a.ToolCode)
				if a.RPM != 0 {
					fmt.Printf("  %d rpm", a.RPM)
				}
				if a.Remarks != "" {
					fmt.Printf("  %s", a.Remarks)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		feedRate, _ := cmd.Flags().GetFloat64("feed-rate")
		materialID, _ := cmd.Flags().GetInt64("material")

		if name == "" {
			return fmt.Errorf("--name is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/profiles", map[string]any{
			"name":        name,
			"description": description,
			"feed_rate":   feedRate,
			"material_id": materialID,
		})
		if err != nil {
			return err
		}
		var p storage.Profile
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}
		printSuccess("Created profile %q (id %d)", p.Name, p.ID)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile and everything attached to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("deleting a profile removes its tools and assignments; re-run with --confirm")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/profiles/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Profile %s deleted", args[0])
		return nil
	},
}

var profileStatsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show tool inventory statistics for a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/profiles/"+args[0]+"/stats")
		if err != nil {
			return err
		}
		var st struct {
			Profile     storage.Profile `json:"profile"`
			ToolCount   int             `json:"tool_count"`
			TotalKnives int             `json:"total_knives"`
			ByStatus    map[string]int  `json:"by_status"`
			ByPosition  map[string]int  `json:"by_position"`
		}
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}

		printStatus("Profile", "%s", st.Profile.Name)
		printStatus("Tools", "%d", st.ToolCount)
		printStatus("Knives", "%d", st.TotalKnives)
		for status, n := range st.ByStatus {
			printStatus("  "+status, "%d", n)
		}
		for pos, n := range st.ByPosition {
			printStatus("  "+pos, "%d", n)
		}
		return nil
	},
}

var profileDrawingCmd = &cobra.Command{
	Use:   "drawing <id> <file.pdf>",
	Short: "Attach a PDF drawing to a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading drawing: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/profiles/"+args[0]+"/drawing", map[string]string{
			"filename": filepath.Base(args[1]),
			"content":  base64.StdEncoding.EncodeToString(data),
		})
		if err != nil {
			return err
		}
		var a storage.Attachment
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}
		printSuccess("Drawing %s attached (%d bytes), queued for indexing", a.Filename, a.Size)
		return nil
	},
}

func init() {
	profileListCmd.Flags().String("query", "", "filter by name substring")
	profileCreateCmd.Flags().String("name", "", "profile name (required)")
	profileCreateCmd.Flags().String("description", "", "free-form description")
	profileCreateCmd.Flags().Float64("feed-rate", 0, "feed rate in m/min (0 = machine default)")
	profileCreateCmd.Flags().Int64("material", 0, "material size id from the catalog")
	profileDeleteCmd.Flags().Bool("confirm", false, "confirm deletion")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileStatsCmd)
	profileCmd.AddCommand(profileDrawingCmd)
}

// --- tool ---

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Manage tools",
}

var toolAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a tool to a profile",
	Long: `Add a tool to a profile. The 6-digit code is generated from the
cutting position, tool type, profile, and set number.

Example:
  toolrack tool add --profile 7 --position Bottom --type Profile --set 1 --knives 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, _ := cmd.Flags().GetInt64("profile")
		position, _ := cmd.Flags().GetString("position")
		toolType, _ := cmd.Flags().GetString("type")
		set, _ := cmd.Flags().GetInt("set")
		knives, _ := cmd.Flags().GetInt("knives")
		notes, _ := cmd.Flags().GetString("notes")

		if profileID == 0 || position == "" || toolType == "" {
			return fmt.Errorf("--profile, --position, and --type are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/tools", map[string]any{
			"profile_id":   profileID,
			"position":     position,
			"tool_type":    toolType,
			"set_number":   set,
			"knives_count": knives,
			"notes":        notes,
		})
		if err != nil {
			return err
		}
		var t storage.Tool
		if err := decodeJSON(resp, &t); err != nil {
			return err
		}
		printSuccess("Tool %s created (id %d)", t.Code, t.ID)
		return nil
	},
}

var toolShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show a tool by its 6-digit code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/tools/code/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var t storage.Tool
		if err := decodeJSON(resp, &t); err != nil {
			return err
		}

		fmt.Printf("%s (id %d)\n", colorize(colorBold, t.Code), t.ID)
		printStatus("Profile", "%d", t.ProfileID)
		printStatus("Position", "%s", t.Position)
		printStatus("Type", "%s", t.Type)
		printStatus("Set", "%d", t.SetNumber)
		printStatus("Knives", "%d", t.KnivesCount)
		printStatus("Status", "%s", t.Status)
		if t.Notes != "" {
			printStatus("Notes", "%s", t.Notes)
		}
		return nil
	},
}

var toolStatusCmd = &cobra.Command{
	Use:   "set-status <id> <ready|in_service|worn>",
	Short: "Change a tool's condition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/tools/"+args[0]+"/status", map[string]string{
			"status": args[1],
		})
		if err != nil {
			return err
		}
		var t storage.Tool
		if err := decodeJSON(resp, &t); err != nil {
			return err
		}
		printSuccess("Tool %s is now %s", t.Code, t.Status)
		return nil
	},
}

var toolDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/tools/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Tool %s deleted", args[0])
		return nil
	},
}

var toolPhotoCmd = &cobra.Command{
	Use:   "photo <id> <file>",
	Short: "Attach a photo to a tool (propagates to its whole set)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/tools/"+args[0]+"/photo", map[string]string{
			"filename": filepath.Base(args[1]),
			"content":  base64.StdEncoding.EncodeToString(data),
		})
		if err != nil {
			return err
		}
		var a storage.Attachment
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}
		printSuccess("Photo %s attached", a.Filename)
		return nil
	},
}

func init() {
	toolAddCmd.Flags().Int64("profile", 0, "profile id (required)")
	toolAddCmd.Flags().String("position", "", "cutting position: Bottom, Top, Right, Left (required)")
	toolAddCmd.Flags().String("type", "", "tool type: Straight or Profile (required)")
	toolAddCmd.Flags().Int("set", 0, "set number 1-9 (0 = machine default)")
	toolAddCmd.Flags().Int("knives", 0, "knives count (0 = machine default)")
	toolAddCmd.Flags().String("notes", "", "free-form notes")

	toolCmd.AddCommand(toolAddCmd)
	toolCmd.AddCommand(toolShowCmd)
	toolCmd.AddCommand(toolStatusCmd)
	toolCmd.AddCommand(toolDeleteCmd)
	toolCmd.AddCommand(toolPhotoCmd)
}

// --- assign ---

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Manage head assignments",
}

var assignSetCmd = &cobra.Command{
	Use:   "set <profile> <head> <tool-id>",
	Short: "Mount a tool on a head (replaces any previous tool on that head)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tool id %q", args[2])
		}
		rpm, _ := cmd.Flags().GetInt("rpm")
		depth, _ := cmd.Flags().GetFloat64("depth")
		workMaterial, _ := cmd.Flags().GetString("material")
		remarks, _ := cmd.Flags().GetString("remarks")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/profiles/"+args[0]+"/heads/"+args[1], map[string]any{
			"tool_id":       toolID,
			"rpm":           rpm,
			"pass_depth":    depth,
			"work_material": workMaterial,
			"remarks":       remarks,
		})
		if err != nil {
			return err
		}
		var a storage.Assignment
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}
		printSuccess("Tool %s mounted on %s", a.ToolCode, heads.Name(a.HeadNumber))
		return nil
	},
}

var assignClearCmd = &cobra.Command{
	Use:   "clear <profile> <head>",
	Short: "Clear a head assignment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/profiles/"+args[0]+"/heads/"+args[1])
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Head %s cleared", args[1])
		return nil
	},
}

func init() {
	assignSetCmd.Flags().Int("rpm", 0, "spindle speed")
	assignSetCmd.Flags().Float64("depth", 0, "pass depth in mm")
	assignSetCmd.Flags().String("material", "", "work material")
	assignSetCmd.Flags().String("remarks", "", "operator remarks")

	assignCmd.AddCommand(assignSetCmd)
	assignCmd.AddCommand(assignClearCmd)
}

// --- material ---

var materialCmd = &cobra.Command{
	Use:   "material",
	Short: "Manage the stock material size catalog",
}

var materialListCmd = &cobra.Command{
	Use:   "list",
	Short: "List material sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/materials")
		if err != nil {
			return err
		}
		var materials []storage.MaterialSize
		if err := decodeJSON(resp, &materials); err != nil {
			return err
		}
		for _, m := range materials {
			fmt.Printf("%4d  %.1f x %.1f mm  %s\n", m.ID, m.Width, m.Thickness, m.Name)
		}
		return nil
	},
}

var materialAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a material size (dedups on width x thickness)",
	RunE: func(cmd *cobra.Command, args []string) error {
		width, _ := cmd.Flags().GetFloat64("width")
		thickness, _ := cmd.Flags().GetFloat64("thickness")
		name, _ := cmd.Flags().GetString("name")

		if width == 0 || thickness == 0 {
			return fmt.Errorf("--width and --thickness are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/materials", storage.MaterialSize{
			Width: width, Thickness: thickness, Name: name,
		})
		if err != nil {
			return err
		}
		var m storage.MaterialSize
		if err := decodeJSON(resp, &m); err != nil {
			return err
		}
		printSuccess("Material %.1f x %.1f mm (id %d)", m.Width, m.Thickness, m.ID)
		return nil
	},
}

func init() {
	materialAddCmd.Flags().Float64("width", 0, "width in mm (required)")
	materialAddCmd.Flags().Float64("thickness", 0, "thickness in mm (required)")
	materialAddCmd.Flags().String("name", "", "display name")

	materialCmd.AddCommand(materialListCmd)
	materialCmd.AddCommand(materialAddCmd)
}

// --- export / import ---

var exportCmd = &cobra.Command{
	Use:   "export <profile-id>",
	Short: "Export a profile bundle",
	Long: `Export a profile with its tools, head assignments, and size variants.

Formats: json, csv, yaml, text (machine setup sheet).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		if _, err := export.Extension(format); err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/profiles/"+args[0]+"/export?format="+url.QueryEscape(format))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		out := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if _, err := io.Copy(out, resp.Body); err != nil {
			return err
		}
		if output != "" {
			printSuccess("Exported profile %s to %s", args[0], output)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a profile bundle exported as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading bundle: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/import", json.RawMessage(data))
		if err != nil {
			return err
		}
		var p storage.Profile
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}
		printSuccess("Imported profile %q (id %d)", p.Name, p.ID)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "export format: json, csv, yaml, text")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search tools, profiles, and drawings",
}

var searchToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Search tools by attributes",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		for flag, param := range map[string]string{
			"status": "status", "position": "position", "type": "type", "code": "code", "notes": "notes",
		} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				q.Set(param, v)
			}
		}
		if v, _ := cmd.Flags().GetInt64("profile"); v != 0 {
			q.Set("profile_id", strconv.FormatInt(v, 10))
		}
		if v, _ := cmd.Flags().GetInt("head"); v != 0 {
			q.Set("head", strconv.Itoa(v))
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/tools?"+q.Encode())
		if err != nil {
			return err
		}
		var tools []storage.Tool
		if err := decodeJSON(resp, &tools); err != nil {
			return err
		}

		if len(tools) == 0 {
			fmt.Println("no matching tools")
			return nil
		}
		for _, t := range tools {
			fmt.Printf("%s  profile %-4d %-7s %-9s [%s]  %s\n",
				t.Code, t.ProfileID, t.Position, t.Type, t.Status, t.Notes)
		}
		return nil
	},
}

var searchDrawingsCmd = &cobra.Command{
	Use:   "drawings <query>",
	Short: "Search profiles by text inside their attached drawings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/search/drawings?q="+url.QueryEscape(args[0]))
		if err != nil {
			return err
		}
		var profiles []storage.Profile
		if err := decodeJSON(resp, &profiles); err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("no matching drawings")
			return nil
		}
		for _, p := range profiles {
			fmt.Printf("%4d  %s\n", p.ID, p.Name)
		}
		return nil
	},
}

func init() {
	searchToolsCmd.Flags().String("status", "", "filter by status")
	searchToolsCmd.Flags().String("position", "", "filter by position")
	searchToolsCmd.Flags().String("type", "", "filter by tool type")
	searchToolsCmd.Flags().String("code", "", "filter by code prefix")
	searchToolsCmd.Flags().String("notes", "", "filter by notes substring")
	searchToolsCmd.Flags().Int64("profile", 0, "filter by profile id")
	searchToolsCmd.Flags().Int("head", 0, "filter by mounted head")

	searchCmd.AddCommand(searchToolsCmd)
	searchCmd.AddCommand(searchDrawingsCmd)
}

// --- backup ---

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a manual backup now",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/backups", nil)
		if err != nil {
			return err
		}
		var info backup.Info
		if err := decodeJSON(resp, &info); err != nil {
			return err
		}
		printSuccess("Backup written to %s (%d bytes)", info.Path, info.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/backups")
		if err != nil {
			return err
		}
		var backups []backup.Info
		if err := decodeJSON(resp, &backups); err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("no backups")
			return nil
		}
		for _, b := range backups {
			fmt.Printf("%s  %-12s %10d  %s\n",
				b.CreatedAt.Format("2006-01-02 15:04:05"), b.Type, b.Size, b.Path)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <archive.zip>",
	Short: "Restore a backup (run while the server is stopped)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("restoring replaces the current database; re-run with --confirm")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		svc, err := backup.NewService(cfg.Storage.DataDir, nil)
		if err != nil {
			return err
		}
		printStep("Taking safety backup, then restoring %s", args[0])
		if err := svc.Restore(args[0]); err != nil {
			return err
		}
		printSuccess("Restored %s", args[0])
		return nil
	},
}

func init() {
	backupRestoreCmd.Flags().Bool("confirm", false, "confirm restore")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}

// --- settings ---

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update machine settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show machine settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/settings")
		if err != nil {
			return err
		}
		var s settings.Settings
		if err := decodeJSON(resp, &s); err != nil {
			return err
		}

		printStatus("Mode", "%s", s.SecurityMode)
		printStatus("Feed rate", "%.1f m/min", s.DefaultFeedRate)
		printStatus("Knives", "%d", s.DefaultKnivesCount)
		printStatus("Set number", "%d", s.DefaultSetNumber)
		printStatus("Tolerance", "±%.1f mm", s.DefaultTolerance)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a machine setting (e.g. security.mode full_access)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/settings", map[string]string{
			"key":   args[0],
			"value": args[1],
		})
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
