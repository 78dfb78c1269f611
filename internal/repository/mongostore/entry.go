package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/sentiment"
)

type entryDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID        string             `bson:"userId"`
	Text           string             `bson:"text"`
	SelectedMood   string             `bson:"selectedMood"`
	SentimentScore int                `bson:"sentimentScore"`
	SentimentLabel string             `bson:"sentimentLabel"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d entryDocument) toModel() model.JournalEntry {
	return model.JournalEntry{
		ID:             d.ID.Hex(),
		OwnerID:        d.OwnerID,
		Text:           d.Text,
		SelectedMood:   model.Mood(d.SelectedMood),
		SentimentScore: d.SentimentScore,
		SentimentLabel: sentiment.Label(d.SentimentLabel),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func ownedFilter(oid primitive.ObjectID, ownerID string) bson.D {
	return bson.D{{Key: "_id", Value: oid}, {Key: "userId", Value: ownerID}}
}

func (s *Store) Insert(ctx context.Context, entry *model.JournalEntry) error {
	now := s.now()
	doc := entryDocument{
		ID:             primitive.NewObjectID(),
		OwnerID:        entry.OwnerID,
		Text:           entry.Text,
		SelectedMood:   string(entry.SelectedMood),
		SentimentScore: entry.SentimentScore,
		SentimentLabel: string(entry.SentimentLabel),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.entries.InsertOne(ctx, doc); err != nil {
		return apperror.StorageFailure("insert journal entry", err)
	}

	entry.ID = doc.ID.Hex()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (s *Store) FindByOwner(ctx context.Context, ownerID string) ([]model.JournalEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.entries.Find(ctx, bson.D{{Key: "userId", Value: ownerID}}, opts)
	if err != nil {
		return nil, apperror.StorageFailure("list journal entries", err)
	}
	defer cur.Close(ctx)

	entries := []model.JournalEntry{}
	for cur.Next(ctx) {
		var doc entryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, apperror.StorageFailure("list journal entries", err)
		}
		entries = append(entries, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, apperror.StorageFailure("list journal entries", err)
	}

	return entries, nil
}

func (s *Store) FindOwned(ctx context.Context, ownerID, id string) (*model.JournalEntry, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperror.NotFound("journal entry", id)
	}

	var doc entryDocument
	err := s.entries.FindOne(ctx, ownedFilter(oid, ownerID)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("journal entry", id)
		}
		return nil, apperror.StorageFailure("get journal entry", err)
	}

	e := doc.toModel()
	return &e, nil
}

// ReplaceOwned is a single findOneAndUpdate returning the new document.
func (s *Store) ReplaceOwned(ctx context.Context, entry *model.JournalEntry) error {
	oid, ok := parseID(entry.ID)
	if !ok {
		return apperror.NotFound("journal entry", entry.ID)
	}
	now := s.now()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "text", Value: entry.Text},
		{Key: "selectedMood", Value: string(entry.SelectedMood)},
		{Key: "sentimentScore", Value: entry.SentimentScore},
		{Key: "sentimentLabel", Value: string(entry.SentimentLabel)},
		{Key: "updatedAt", Value: now},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc entryDocument
	err := s.entries.FindOneAndUpdate(ctx, ownedFilter(oid, entry.OwnerID), update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperror.NotFound("journal entry", entry.ID)
		}
		return apperror.StorageFailure("update journal entry", err)
	}

	*entry = doc.toModel()
	return nil
}

func (s *Store) DeleteOwned(ctx context.Context, ownerID, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return apperror.NotFound("journal entry", id)
	}

	err := s.entries.FindOneAndDelete(ctx, ownedFilter(oid, ownerID)).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperror.NotFound("journal entry", id)
		}
		return apperror.StorageFailure("delete journal entry", err)
	}
	return nil
}
