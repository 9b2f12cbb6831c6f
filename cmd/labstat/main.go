package main

import (
	"code-lab/infrastructure/server"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// saturationRatio matches the fill level the server itself warns about.
const saturationRatio = 0.8

func main() {
	addr := flag.String("addr", "http://localhost:10000", "Base URL of the code-lab server")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	flag.Parse()

	stats, err := fetch(*addr, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.FgRed.Render(err.Error()))
		os.Exit(1)
	}
	render(os.Stdout, stats)
}

func fetch(addr string, timeout time.Duration) (server.Stats, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(addr + "/stats")
	if err != nil {
		return server.Stats{}, fmt.Errorf("stats unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return server.Stats{}, fmt.Errorf("stats answered %s", resp.Status)
	}
	var stats server.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return server.Stats{}, fmt.Errorf("stats unreadable: %w", err)
	}
	return stats, nil
}

func render(w io.Writer, s server.Stats) {
	header := color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf(" code-lab, up %s ", s.Uptime))
	fmt.Fprintln(w, header)

	overview := newTable(w, []string{"Metric", "Value"})
	overview.AppendBulk([][]string{
		{"Rooms", strconv.Itoa(s.Registry.Rooms)},
		{"Participants", strconv.Itoa(s.Registry.Participants)},
		{"Control connections", strconv.Itoa(s.Registry.Connections)},
		{"Documents", strconv.Itoa(s.Registry.Documents)},
		{"Sync clients", strconv.Itoa(s.Registry.SyncClients)},
		{"Executions in flight", strconv.FormatInt(s.Load.InFlight, 10)},
		{"Executions queued", strconv.Itoa(s.Load.Queued)},
		{"Dropped events", warnIf(s.Load.DroppedEvents > 0, strconv.FormatInt(s.Load.DroppedEvents, 10))},
		{"Running programs", strconv.Itoa(s.Processes.Running)},
		{"Programs CPU", fmt.Sprintf("%.1f%%", s.Processes.CPUPercent)},
		{"Programs RSS", humanize.IBytes(s.Processes.RSSBytes)},
		{"Peak RSS", humanize.IBytes(s.Processes.PeakRSSBytes)},
		{"Worker restarts", warnIf(s.Restarts > 0, strconv.Itoa(s.Restarts))},
		{"Diagnostic breaker", warnIf(s.Breaker != "closed", s.Breaker)},
	})
	overview.Render()

	if len(s.Channels) == 0 {
		return
	}
	fmt.Fprintln(w)
	channels := newTable(w, []string{"Channel", "Length", "Capacity", "Fill"})
	for _, c := range s.Channels {
		fill := 0.0
		if c.Capacity > 0 {
			fill = float64(c.Length) / float64(c.Capacity)
		}
		channels.Append([]string{
			c.Name,
			strconv.Itoa(c.Length),
			strconv.Itoa(c.Capacity),
			warnIf(fill >= saturationRatio, fmt.Sprintf("%.0f%%", fill*100)),
		})
	}
	channels.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func warnIf(cond bool, s string) string {
	if cond {
		return color.FgYellow.Render(s)
	}
	return s
}
