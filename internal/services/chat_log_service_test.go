package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func chatDoc(text string, createdAt time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "userId", Value: "user-1"},
		{Key: "role", Value: "user"},
		{Key: "parts", Value: bson.A{bson.D{{Key: "text", Value: text}}}},
		{Key: "createdAt", Value: createdAt},
	}
}

func TestChatLogHistory_WindowsTheTailOfTheConversation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("newest-first query, chronological result", func(mt *mtest.T) {
		svc := &ChatLogService{collection: mt.Coll}
		ns := fmt.Sprintf("%s.%s", mt.DB.Name(), mt.Coll.Name())

		// The server returns the window newest-first; History must hand it
		// back oldest-first for replay.
		now := time.Now()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			chatDoc("third", now),
			chatDoc("second", now.Add(-time.Minute)),
			chatDoc("first", now.Add(-2*time.Minute)),
		))

		messages, err := svc.History(context.Background(), "user-1", 50)
		if err != nil {
			mt.Fatalf("History failed: %v", err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "find" {
			mt.Fatalf("expected a find command, got %+v", evt)
		}
		sortVal, ok := evt.Command.Lookup("sort", "createdAt").AsInt64OK()
		if !ok || sortVal != -1 {
			mt.Errorf("expected sort createdAt=-1, got %v (ok=%v)", sortVal, ok)
		}
		limitVal, ok := evt.Command.Lookup("limit").AsInt64OK()
		if !ok || limitVal != 50 {
			mt.Errorf("expected limit 50, got %v (ok=%v)", limitVal, ok)
		}

		want := []string{"first", "second", "third"}
		if len(messages) != len(want) {
			mt.Fatalf("expected %d messages, got %d", len(want), len(messages))
		}
		for i, w := range want {
			if got := messages[i].FirstText(); got != w {
				mt.Errorf("message %d: expected %q, got %q", i, w, got)
			}
		}
	})

	mt.Run("no cap leaves limit unset", func(mt *mtest.T) {
		svc := &ChatLogService{collection: mt.Coll}
		ns := fmt.Sprintf("%s.%s", mt.DB.Name(), mt.Coll.Name())

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := svc.History(context.Background(), "user-1", 0); err != nil {
			mt.Fatalf("History failed: %v", err)
		}

		evt := mt.GetStartedEvent()
		if _, ok := evt.Command.Lookup("limit").AsInt64OK(); ok {
			mt.Errorf("expected no limit in find command, got %v", evt.Command.Lookup("limit"))
		}
	})
}
