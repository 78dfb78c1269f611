// Package model defines the data structures used throughout the application.
package model

import (
	"time"

	"github.com/sakif/mood-journal/internal/sentiment"
)

// Mood is the feeling the author picked for an entry. It is independent of
// the computed sentiment label; an entry may be "happy" and score negative.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

// Moods lists the accepted values in display order.
var Moods = []Mood{MoodHappy, MoodNeutral, MoodSad}

// Valid reports whether m is one of the accepted moods.
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad:
		return true
	}
	return false
}

// JournalEntry is one short piece of writing owned by a single user.
//
// SentimentScore and SentimentLabel are always written together from one
// scoring pass over Text, so the label can be recomputed from the score with
// sentiment.LabelFor. OwnerID and CreatedAt never change after insert.
type JournalEntry struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	Text           string          `json:"text"`
	SelectedMood   Mood            `json:"selectedMood"`
	SentimentScore int             `json:"sentimentScore"`
	SentimentLabel sentiment.Label `json:"sentimentLabel"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
