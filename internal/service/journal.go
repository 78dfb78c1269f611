// Package service contains the business logic layer of the application.
//
//	Handler (HTTP) → Service (rules) → Repository (storage)
//
// Services take repository interfaces, never concrete stores, so the same
// code runs on SQLite, Postgres or MongoDB and under in-memory fakes in tests.
// They know nothing about HTTP: inputs are plain values, failures are
// apperror kinds that the handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/repository"
	"github.com/sakif/mood-journal/internal/sentiment"
)

// Scorer turns text into a score and label. *sentiment.Analyzer satisfies it.
type Scorer interface {
	Analyze(text string) sentiment.Result
}

// Observer receives business events for metrics. A nil Observer is ignored.
type Observer interface {
	EntryScored(label sentiment.Label)
	StoreFailed(op string)
}

type nopObserver struct{}

func (nopObserver) EntryScored(sentiment.Label) {}
func (nopObserver) StoreFailed(string)          {}

// JournalService owns the entry lifecycle: scoring on every write and
// scoping every read and write to the caller.
type JournalService struct {
	repo     repository.EntryRepository
	scorer   Scorer
	observer Observer
	logger   *slog.Logger
}

func NewJournalService(repo repository.EntryRepository, scorer Scorer, observer Observer, logger *slog.Logger) *JournalService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &JournalService{
		repo:     repo,
		scorer:   scorer,
		observer: observer,
		logger:   logger,
	}
}

// Create scores text and stores a new entry for ownerID.
//
// The owner check comes first, then the mood; neither the scorer nor the
// store is touched when either fails. Text is stored exactly as given.
func (s *JournalService) Create(ctx context.Context, ownerID, text string, mood model.Mood) (*model.JournalEntry, error) {
	if err := checkInput(ownerID, mood); err != nil {
		return nil, err
	}

	result := s.scorer.Analyze(text)
	entry := &model.JournalEntry{
		OwnerID:        ownerID,
		Text:           text,
		SelectedMood:   mood,
		SentimentScore: result.Score,
		SentimentLabel: result.Label,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, s.storeError(ctx, "create", err, slog.String("owner_id", ownerID))
	}

	s.observer.EntryScored(entry.SentimentLabel)
	s.logger.InfoContext(ctx, "journal entry created",
		slog.String("id", entry.ID),
		slog.String("owner_id", ownerID),
		slog.Int("score", entry.SentimentScore),
		slog.String("label", string(entry.SentimentLabel)),
	)

	return entry, nil
}

// List returns the owner's entries, newest first. No entries is an empty
// slice, not an error.
func (s *JournalService) List(ctx context.Context, ownerID string) ([]model.JournalEntry, error) {
	if ownerID == "" {
		return nil, errNoOwner()
	}

	entries, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.storeError(ctx, "list", err, slog.String("owner_id", ownerID))
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	return entries, nil
}

func (s *JournalService) Get(ctx context.Context, ownerID, id string) (*model.JournalEntry, error) {
	if ownerID == "" {
		return nil, errNoOwner()
	}

	entry, err := s.repo.FindOwned(ctx, ownerID, id)
	if err != nil {
		return nil, s.storeError(ctx, "get", err, slog.String("id", id))
	}
	return entry, nil
}

// Update rescores text and replaces the entry's text, mood, score and label
// in one write. ID and CreatedAt are preserved. An id that is missing and an
// id owned by someone else both yield NotFound.
//
// Concurrent updates of one entry are last-write-wins.
func (s *JournalService) Update(ctx context.Context, ownerID, id, text string, mood model.Mood) (*model.JournalEntry, error) {
	if err := checkInput(ownerID, mood); err != nil {
		return nil, err
	}

	result := s.scorer.Analyze(text)
	entry := &model.JournalEntry{
		ID:             id,
		OwnerID:        ownerID,
		Text:           text,
		SelectedMood:   mood,
		SentimentScore: result.Score,
		SentimentLabel: result.Label,
	}

	if err := s.repo.ReplaceOwned(ctx, entry); err != nil {
		return nil, s.storeError(ctx, "update", err, slog.String("id", id))
	}

	s.observer.EntryScored(entry.SentimentLabel)
	s.logger.InfoContext(ctx, "journal entry updated",
		slog.String("id", entry.ID),
		slog.Int("score", entry.SentimentScore),
		slog.String("label", string(entry.SentimentLabel)),
	)

	return entry, nil
}

func (s *JournalService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return errNoOwner()
	}

	if err := s.repo.DeleteOwned(ctx, ownerID, id); err != nil {
		return s.storeError(ctx, "delete", err, slog.String("id", id))
	}

	s.logger.InfoContext(ctx, "journal entry deleted", slog.String("id", id))
	return nil
}

// EntriesOn returns the owner's entries whose UTC day is date (YYYY-MM-DD),
// newest first. It backs the heatmap's day detail.
func (s *JournalService) EntriesOn(ctx context.Context, ownerID, date string) ([]model.JournalEntry, error) {
	if ownerID == "" {
		return nil, errNoOwner()
	}
	if _, err := time.Parse(DayLayout, date); err != nil {
		return nil, apperror.ValidationFailed("date", "date must be formatted as YYYY-MM-DD")
	}

	entries, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	day := []model.JournalEntry{}
	for _, e := range entries {
		if DayOf(e.CreatedAt) == date {
			day = append(day, e)
		}
	}
	return day, nil
}

// Calendar groups the owner's entries into heatmap cells.
func (s *JournalService) Calendar(ctx context.Context, ownerID string) ([]model.CalendarDay, error) {
	entries, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return CalendarCells(entries), nil
}

// Trends counts the owner's entries per label per day.
func (s *JournalService) Trends(ctx context.Context, ownerID string) ([]model.DailySentiment, error) {
	entries, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return SentimentSeries(entries), nil
}

// Score runs the scorer without storing anything.
func (s *JournalService) Score(text string) sentiment.Result {
	return s.scorer.Analyze(text)
}

func checkInput(ownerID string, mood model.Mood) error {
	if ownerID == "" {
		return errNoOwner()
	}
	if !mood.Valid() {
		return apperror.ValidationFailed("selectedMood", "selectedMood must be one of happy, neutral, sad")
	}
	return nil
}

func errNoOwner() error {
	return apperror.Unauthorized("authenticated user required")
}

// storeError passes apperror kinds through and wraps anything else as a
// StorageFailure. NotFound is an expected outcome and is not logged.
func (s *JournalService) storeError(ctx context.Context, op string, err error, attrs ...any) error {
	if apperror.Is(err, apperror.ErrNotFound) {
		return err
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		err = apperror.StorageFailure("journal "+op, err)
	}
	if apperror.Is(err, apperror.ErrStorage) {
		s.observer.StoreFailed(op)
	}

	s.logger.ErrorContext(ctx, "journal store operation failed",
		append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)...,
	)
	return err
}
