package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
)

type noteDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	UserID      interface{}        `bson:"userId"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *noteDoc) toModel() model.Note {
	return model.Note{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		UserID:      ownerString(d.UserID),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// ownerValue is the stored form of a note owner: an ObjectID when the id is
// one (every account created here), otherwise the raw string.
func ownerValue(userID string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		return oid
	}
	return userID
}

// ownerString turns either stored form back into the id used by the API.
func ownerString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// ownerFilter matches notes whose owner was stored in either form, so
// collections holding string owners keep listing.
func ownerFilter(userID string) bson.M {
	if oid, ok := ownerValue(userID).(primitive.ObjectID); ok {
		return bson.M{"userId": bson.M{"$in": bson.A{oid, userID}}}
	}
	return bson.M{"userId": userID}
}

func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	ts := now()
	doc := noteDoc{
		ID:          primitive.NewObjectID(),
		Title:       note.Title,
		Description: note.Description,
		UserID:      ownerValue(note.UserID),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if _, err := db.notes.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: creating note: %w", err)
	}

	note.ID = doc.ID.Hex()
	note.CreatedAt = ts
	note.UpdatedAt = ts
	return nil
}

func (db *DB) GetNote(ctx context.Context, id string) (*model.Note, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("note", id)
	}

	var doc noteDoc
	err = db.notes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if isNoDocuments(err) {
		return nil, apperror.NotFound("note", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: getting note %s: %w", id, err)
	}
	n := doc.toModel()
	return &n, nil
}

// ListNotesByOwner sorts by createdAt then _id, both descending; ObjectIDs
// grow monotonically so notes created in the same millisecond keep order.
func (db *DB) ListNotesByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cur, err := db.notes.Find(ctx, ownerFilter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing notes: %w", err)
	}

	var docs []noteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding notes: %w", err)
	}

	notes := make([]model.Note, 0, len(docs))
	for i := range docs {
		notes = append(notes, docs[i].toModel())
	}
	return notes, nil
}

// DeleteNote removes the note if present. An id that is not valid hex cannot
// name any document, so it is treated like any other absent note.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := db.notes.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("mongo: deleting note %s: %w", id, err)
	}
	return nil
}
