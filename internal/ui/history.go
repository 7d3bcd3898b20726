package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/iishyfishyy/cmdpal/internal/history"
)

// RenderHistory prints entries as given, newest first when they come from Store.Recent
func RenderHistory(w io.Writer, entries []history.Entry) {
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, entry := range entries {
		gray.Fprintf(w, "%s ago  ", FormatAge(time.Since(entry.Timestamp)))
		fmt.Fprintln(w, entry.Request)
		for _, cmd := range entry.Commands {
			fmt.Fprintf(w, "    %s\n", cmd)
		}
		switch {
		case entry.Error != "":
			red.Fprintf(w, "    %s\n", entry.Error)
		case entry.Executed:
			green.Fprintln(w, "    executed")
		}
	}
}

// FormatAge renders a duration the way people say it
func FormatAge(d time.Duration) string {
	if d < time.Minute {
		return "moments"
	} else if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
