package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/kalmbach/toolrack/internal/heads"
	"github.com/kalmbach/toolrack/internal/storage"
)

// writeSetupSheet renders the operator-facing machine setup sheet: one
// line per head, in head order, with the mounted tool and its run
// parameters.
func writeSetupSheet(w io.Writer, b Bundle) error {
	var sb strings.Builder

	line := strings.Repeat("=", 62)
	fmt.Fprintln(&sb, line)
	fmt.Fprintf(&sb, "MACHINE SETUP SHEET  -  %s\n", b.Profile.Name)
	fmt.Fprintln(&sb, line)
	if b.Profile.Description != "" {
		fmt.Fprintf(&sb, "Description : %s\n", b.Profile.Description)
	}
	fmt.Fprintf(&sb, "Feed rate   : %.1f m/min\n", b.Profile.FeedRate)
	if b.Material != nil {
		fmt.Fprintf(&sb, "Material    : %.1f x %.1f mm", b.Material.Width, b.Material.Thickness)
		if b.Material.Name != "" {
			fmt.Fprintf(&sb, " (%s)", b.Material.Name)
		}
		fmt.Fprintln(&sb)
	}
	if len(b.Variants) > 0 {
		fmt.Fprint(&sb, "Products    : ")
		for i, v := range b.Variants {
			if i > 0 {
				fmt.Fprint(&sb, ", ")
			}
			fmt.Fprintf(&sb, "%.1fx%.1f", v.Width, v.Thickness)
			if v.IsDefault {
				fmt.Fprint(&sb, "*")
			}
		}
		fmt.Fprintln(&sb)
	}
	fmt.Fprintf(&sb, "Exported    : %s\n\n", b.ExportedAt.Format("2006-01-02 15:04"))

	byHead := make(map[int]storage.Assignment)
	for _, a := range b.Assignments {
		byHead[a.HeadNumber] = a
	}
	toolByID := make(map[int64]storage.Tool)
	for _, t := range b.Tools {
		toolByID[t.ID] = t
	}

	fmt.Fprintf(&sb, "%-12s %-8s %-10s %-8s %-7s %s\n",
		"HEAD", "TOOL", "TYPE", "KNIVES", "RPM", "REMARKS")
	fmt.Fprintln(&sb, strings.Repeat("-", 62))
	for head := 1; head <= heads.HeadCount; head++ {
		name := heads.Name(head)
		a, ok := byHead[head]
		if !ok {
			fmt.Fprintf(&sb, "%-12s %s\n", name, "-")
			continue
		}
		t := toolByID[a.ToolID]
		rpm := "-"
		if a.RPM != 0 {
			rpm = fmt.Sprintf("%d", a.RPM)
		}
		fmt.Fprintf(&sb, "%-12s %-8s %-10s %-8d %-7s %s\n",
			name, t.Code, t.Type, t.KnivesCount, rpm, a.Remarks)
	}

	fmt.Fprintf(&sb, "\nHeads in use: %d/%d\n", len(b.Assignments), heads.HeadCount)

	_, err := io.WriteString(w, sb.String())
	return err
}
