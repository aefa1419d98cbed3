package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestDecodeMessageDefaultsLegacyKind(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"fileId":"cv-1","enqueuedAt":"2026-01-30T22:00:00Z"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != KindIngest {
		t.Fatalf("expected ingest kind, got %q", msg.Kind)
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "ingest", msg: Message{Kind: KindIngest, FileID: "cv-1"}},
		{name: "ingest without file", msg: Message{Kind: KindIngest}, wantErr: true},
		{name: "match", msg: Message{Kind: KindMatch, FileID: "cv-1", ProjectID: "p1"}},
		{name: "match without project", msg: Message{Kind: KindMatch, FileID: "cv-1"}, wantErr: true},
		{name: "unknown", msg: Message{Kind: "resize", FileID: "cv-1"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

type recordingClient struct {
	mu   sync.Mutex
	sent []Message
}

func (r *recordingClient) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func TestDispatcherStampsMessages(t *testing.T) {
	client := &recordingClient{}
	d := &Dispatcher{Client: client, Now: func() time.Time { return time.Date(2026, 1, 30, 22, 0, 0, 0, time.UTC) }}

	ctx := WithRequestID(context.Background(), "req-1")
	if err := d.DispatchIngest(ctx, "cv-1", "p1"); err != nil {
		t.Fatalf("dispatch ingest: %v", err)
	}
	if err := d.DispatchMatch(context.Background(), "cv-1", "p1", "g1", ""); err != nil {
		t.Fatalf("dispatch match: %v", err)
	}

	if len(client.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.sent))
	}
	ingest := client.sent[0]
	if ingest.Kind != KindIngest || ingest.RequestID != "req-1" || ingest.EnqueuedAt != "2026-01-30T22:00:00Z" || ingest.Version != MessageVersion {
		t.Fatalf("unexpected ingest message %+v", ingest)
	}
	match := client.sent[1]
	if match.Kind != KindMatch || match.FilterGroupID != "g1" || match.RequestID == "" {
		t.Fatalf("unexpected match message %+v", match)
	}
}

func TestLocalQueueProcessesMessages(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	q := NewLocal(func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen[msg.FileID] = true
		if msg.FileID == "bad" {
			return errors.New("boom")
		}
		return nil
	}, 10, 3)
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "bad", "c"} {
		if err := q.Send(context.Background(), Message{Kind: KindIngest, FileID: id}); err != nil {
			t.Fatalf("send %s: %v", id, err)
		}
	}
	q.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 4 {
		t.Fatalf("expected 4 handled messages, got %v", seen)
	}
	if err := q.Send(context.Background(), Message{Kind: KindIngest, FileID: "late"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestLocalQueueRejectsWhenFull(t *testing.T) {
	q := NewLocal(func(ctx context.Context, msg Message) error { return nil }, 1, 1)
	if err := q.Send(context.Background(), Message{Kind: KindIngest, FileID: "a"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := q.Send(context.Background(), Message{Kind: KindIngest, FileID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if err := q.Send(context.Background(), Message{Kind: "other"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

type fakeSender struct {
	input *sqs.SendMessageInput
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{MessageId: aws.String("m1")}, nil
}

func TestSQSClientSend(t *testing.T) {
	sender := &fakeSender{}
	client := NewSQSClientWith(sender, "https://sqs.local/queue")

	if err := client.Send(context.Background(), Message{Kind: KindIngest, FileID: "cv-1", Version: 1}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if aws.ToString(sender.input.QueueUrl) != "https://sqs.local/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(sender.input.QueueUrl))
	}
	decoded, err := DecodeMessage([]byte(aws.ToString(sender.input.MessageBody)))
	if err != nil || decoded.FileID != "cv-1" {
		t.Fatalf("unexpected body %q (%v)", aws.ToString(sender.input.MessageBody), err)
	}
}
