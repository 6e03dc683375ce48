package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// renderReport prints one row per check and returns how many failed.
func renderReport(w io.Writer, results []checkResult) int {
	sort.Slice(results, func(i, j int) bool { return results[i].Label < results[j].Label })

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Check", "HTTP", "Outcome", "Duration", "Result"})
	table.SetAutoWrapText(false)

	failed := 0
	for _, res := range results {
		verdict := "ok"
		if res.Problem != "" {
			failed++
			verdict = shorten(res.Problem, 80)
		}
		table.Append([]string{
			res.Label,
			strconv.Itoa(res.StatusCode),
			res.Outcome,
			res.Duration.Round(1e6).String(),
			verdict,
		})
	}
	table.SetFooter([]string{"", "", "", "failed", fmt.Sprintf("%d / %d", failed, len(results))})
	table.Render()
	return failed
}

func shorten(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
