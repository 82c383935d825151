package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

// sentCommand returns the last command with the given name seen by the mock client
func sentCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	var found *event.CommandStartedEvent
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName == name {
			found = evt
		}
	}
	if found == nil {
		mt.Fatalf("no %s command was sent", name)
	}
	return found.Command
}

func TestMongoAdjustAvailable(t *testing.T) {
	mt := newMockT(t)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("clamps and derives inStock in one pipeline update", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: "p5"}, {Key: "available", Value: 0.5}}},
		})

		change, err := store.AdjustAvailable(context.Background(), "p5", -2, at)
		if err != nil {
			mt.Fatalf("adjust: %v", err)
		}
		if change.Before != 0.5 || change.After != 0 || change.Delta != -0.5 || change.InStock {
			mt.Fatalf("unexpected change %+v", change)
		}
		if !change.UpdatedAt.Equal(at) {
			mt.Fatalf("updatedAt=%v, want %v", change.UpdatedAt, at)
		}

		cmd := sentCommand(mt, "findAndModify")
		if id := cmd.Lookup("query", "_id"); id.StringValue() != "p5" {
			mt.Fatalf("unexpected filter %s", cmd.Lookup("query"))
		}
		if n, ok := cmd.Lookup("new").BooleanOK(); ok && n {
			mt.Fatalf("the pre-image must be returned")
		}
		update := cmd.Lookup("update")
		if update.Type != bsontype.Array {
			mt.Fatalf("update must be a pipeline, got %s", update.Type)
		}
		pipeline := update.String()
		for _, op := range []string{`"$max"`, `"$add"`, `"$ifNull"`, `"$gt"`, `"updatedAt"`} {
			if !strings.Contains(pipeline, op) {
				mt.Fatalf("pipeline %s is missing %s", pipeline, op)
			}
		}
		if proj := cmd.Lookup("fields", "available"); proj.Type == 0 {
			mt.Fatalf("projection should only fetch available")
		}
	})

	mt.Run("restores on top of the stored amount", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: "p5"}, {Key: "available", Value: 9.0}}},
		})

		change, err := store.AdjustAvailable(context.Background(), "p5", 1, at)
		if err != nil {
			mt.Fatalf("adjust: %v", err)
		}
		if change.Before != 9 || change.After != 10 || change.Delta != 1 || !change.InStock {
			mt.Fatalf("unexpected change %+v", change)
		}
	})

	mt.Run("hex keys also match ObjectID documents", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "available", Value: 3.0}}},
		})

		key := "65f0a1b2c3d4e5f6a7b8c9d0"
		if _, err := store.AdjustAvailable(context.Background(), key, -1, at); err != nil {
			mt.Fatalf("adjust: %v", err)
		}
		in := sentCommand(mt, "findAndModify").Lookup("query", "_id", "$in")
		if in.Type != bsontype.Array {
			mt.Fatalf("expected an $in filter, got %s", in)
		}
		values, _ := in.Array().Values()
		if len(values) != 2 || values[0].StringValue() != key || values[1].ObjectID().Hex() != key {
			mt.Fatalf("unexpected $in values %v", values)
		}
	})

	mt.Run("missing product", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		if _, err := store.AdjustAvailable(context.Background(), "nope", -1, at); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("err=%v, want ErrNotFound", err)
		}
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad pipeline",
		}))

		_, err := store.AdjustAvailable(context.Background(), "p5", -1, at)
		if err == nil || errors.Is(err, ErrNotFound) {
			mt.Fatalf("err=%v, want a store failure", err)
		}
	})
}

func TestMongoMarkCancelled(t *testing.T) {
	mt := newMockT(t)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("only matches cancellable orders", func(mt *mtest.T) {
		store := NewMongoOrderStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := store.MarkCancelled(context.Background(), "order-1", at); err != nil {
			mt.Fatalf("cancel: %v", err)
		}

		updates, _ := sentCommand(mt, "update").Lookup("updates").Array().Values()
		if len(updates) != 1 {
			mt.Fatalf("expected one update statement, got %d", len(updates))
		}
		stmt := updates[0].Document()
		if id := stmt.Lookup("q", "_id"); id.StringValue() != "order-1" {
			mt.Fatalf("unexpected filter %s", stmt.Lookup("q"))
		}
		pattern, options := stmt.Lookup("q", "status", "$not").Regex()
		if pattern != finalStatus.Pattern || options != "i" {
			mt.Fatalf("status guard %q/%q", pattern, options)
		}
		if status := stmt.Lookup("u", "$set", "status"); status.StringValue() != "Cancelled" {
			mt.Fatalf("unexpected status update %s", status)
		}
		if ts := stmt.Lookup("u", "$set", "cancelledAt"); ts.Type != bsontype.DateTime {
			mt.Fatalf("cancelledAt not set: %s", ts)
		}
	})

	mt.Run("existing order that is no longer cancellable", func(mt *mtest.T) {
		store := NewMongoOrderStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "storefront.orders", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		if err := store.MarkCancelled(context.Background(), "order-1", at); !errors.Is(err, ErrConflict) {
			mt.Fatalf("err=%v, want ErrConflict", err)
		}
	})

	mt.Run("unknown order", func(mt *mtest.T) {
		store := NewMongoOrderStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "storefront.orders", mtest.FirstBatch),
		)

		if err := store.MarkCancelled(context.Background(), "missing", at); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("err=%v, want ErrNotFound", err)
		}
	})
}
