package model

// CalendarDay is one heatmap cell: every entry that falls on Date (UTC,
// YYYY-MM-DD). Mood is the mood of the last entry processed for the day;
// Moods and EntryIDs keep the full day in processing order.
type CalendarDay struct {
	Date     string   `json:"date"`
	Count    int      `json:"count"`
	Mood     Mood     `json:"mood"`
	Moods    []Mood   `json:"moods"`
	EntryIDs []string `json:"entryIds"`
}

// DailySentiment counts entries per sentiment label on one UTC day.
type DailySentiment struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
}

// Total is the number of entries counted for the day.
func (d DailySentiment) Total() int {
	return d.Positive + d.Negative + d.Neutral
}
