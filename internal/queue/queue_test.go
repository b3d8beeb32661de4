package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	want := CheckInMessage{
		RecordID: "rec1",
		UserID:   "u1",
		EventID:  "evt1",
		ImageURL: "https://cdn.example/u1.jpg",
		At:       time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
	}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	select {
	case got := <-msgs:
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("no message before timeout")
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	if err := q.Publish(ctx, CheckInMessage{RecordID: "a"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Queue full: a cancelled context unblocks the publisher.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(cancelled, CheckInMessage{RecordID: "b"}); err == nil {
		t.Fatal("publish into a full queue with cancelled context must fail")
	}
}

func TestCheckInMessageEncoding(t *testing.T) {
	msg := CheckInMessage{RecordID: "rec1", UserID: "u1", At: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)}
	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCheckIn(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != msg {
		t.Fatalf("round trip: got %+v, want %+v", got, msg)
	}
	if _, err := DecodeCheckIn([]byte("{broken")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
