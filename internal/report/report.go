// Package report renders scheduling results for people: a deck-grouped
// terminal table, a spreadsheet-friendly CSV and a JSON dump.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"houseduty/internal/domain"
	"houseduty/internal/engine"
)

// Table writes a deck-grouped table of one run. Decks follow deckOrder;
// decks not listed there come last, alphabetically.
func Table(w io.Writer, result engine.Result, deckOrder []string) {
	fmt.Fprintf(w, "Week of %s (week %d)\n", result.WeekStart.Format("2006-01-02"), result.WeekIndex)

	byDeck := map[string][]domain.Assignment{}
	for _, item := range result.Items {
		byDeck[item.Deck] = append(byDeck[item.Deck], item)
	}
	for _, deck := range orderedDecks(byDeck, deckOrder) {
		items := byDeck[deck]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Due.Before(items[j].Due) })

		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetTitle(deck)
		tw.AppendHeader(table.Row{"Day", "Task", "Assigned", "Notes"})
		for _, item := range items {
			day := domain.Weekdays[int(item.Due.Weekday())]
			tw.AppendRow(table.Row{day, item.Label, strings.Join(item.Assigned, ", "), notes(item)})
		}
		tw.Render()
	}

	for _, warning := range result.Warnings {
		fmt.Fprintln(w, "warning:", warning)
	}
}

func notes(item domain.Assignment) string {
	var parts []string
	if item.Bonus {
		parts = append(parts, "bonus")
	}
	if item.Understaffed {
		parts = append(parts, fmt.Sprintf("understaffed %d/%d", len(item.Assigned), item.PeopleNeeded))
	}
	return strings.Join(parts, ", ")
}

func orderedDecks(byDeck map[string][]domain.Assignment, deckOrder []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, deck := range deckOrder {
		if _, ok := byDeck[deck]; ok {
			out = append(out, deck)
			seen[deck] = true
		}
	}
	var rest []string
	for deck := range byDeck {
		if !seen[deck] {
			rest = append(rest, deck)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// WriteCSV writes all runs as flat rows, one per assignment.
func WriteCSV(path string, results []engine.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"week_start", "due_date", "day", "deck", "task_key", "label", "category", "assigned", "people_needed", "weight", "bonus", "understaffed"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, result := range results {
		for _, item := range result.Items {
			row := []string{
				result.WeekStart.Format("2006-01-02"),
				item.Due.Format("2006-01-02"),
				domain.Weekdays[int(item.Due.Weekday())],
				item.Deck,
				item.TaskKey,
				item.Label,
				string(item.Category),
				strings.Join(item.Assigned, "; "),
				strconv.Itoa(item.PeopleNeeded),
				strconv.FormatFloat(item.Weight, 'f', 2, 64),
				strconv.FormatBool(item.Bonus),
				strconv.FormatBool(item.Understaffed),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes all runs as one indented JSON document.
func WriteJSON(path string, results []engine.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
