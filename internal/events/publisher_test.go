package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMessageKeyedByPost(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := message(Activity{Type: PostLiked, PostID: "p1", UserID: "u1", Count: 3, At: at})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Key) != "p1" || !msg.Time.Equal(at) {
		t.Fatalf("unexpected message %+v", msg)
	}
	var got Activity
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != PostLiked || got.Count != 3 || got.UserID != "u1" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), Activity{Type: PostViewed}); err != nil {
		t.Fatalf("nop returned %v", err)
	}
}
