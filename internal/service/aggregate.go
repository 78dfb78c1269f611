package service

import (
	"sort"
	"time"

	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/sentiment"
)

// DayLayout is the calendar-day format used for grouping and filtering.
const DayLayout = "2006-01-02"

// DayOf is the one place a timestamp is truncated to a calendar day. Days
// are UTC so that grouping does not depend on the server's zone.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// CalendarCells builds one heatmap cell per UTC day, processing entries in
// the order given. A day's Mood is the mood of the last entry processed for
// it; with List's newest-first order that is the day's earliest entry.
// Cells are returned in ascending date order.
func CalendarCells(entries []model.JournalEntry) []model.CalendarDay {
	byDay := make(map[string]*model.CalendarDay)
	for _, e := range entries {
		day := DayOf(e.CreatedAt)
		cell, ok := byDay[day]
		if !ok {
			cell = &model.CalendarDay{Date: day, Moods: []model.Mood{}, EntryIDs: []string{}}
			byDay[day] = cell
		}
		cell.Count++
		cell.Mood = e.SelectedMood
		cell.Moods = append(cell.Moods, e.SelectedMood)
		cell.EntryIDs = append(cell.EntryIDs, e.ID)
	}

	cells := make([]model.CalendarDay, 0, len(byDay))
	for _, c := range byDay {
		cells = append(cells, *c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Date < cells[j].Date })
	return cells
}

// SentimentSeries counts entries per label per UTC day. The series is
// sparse: days without entries are absent, and zero counters on present
// days are still reported. Points are in ascending date order.
func SentimentSeries(entries []model.JournalEntry) []model.DailySentiment {
	byDay := make(map[string]*model.DailySentiment)
	for _, e := range entries {
		day := DayOf(e.CreatedAt)
		point, ok := byDay[day]
		if !ok {
			point = &model.DailySentiment{Date: day}
			byDay[day] = point
		}
		switch e.SentimentLabel {
		case sentiment.Positive:
			point.Positive++
		case sentiment.Negative:
			point.Negative++
		default:
			point.Neutral++
		}
	}

	series := make([]model.DailySentiment, 0, len(byDay))
	for _, p := range byDay {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}
