package compaction

import "testing"

func TestNewTokenCounterFallsBackToCl100kBase(t *testing.T) {
	tc, err := NewTokenCounter("claude-sonnet-unknown-to-tiktoken")
	if err != nil {
		t.Fatalf("NewTokenCounter() error = %v", err)
	}
	if tc.Count("hello world") <= 0 {
		t.Fatal("expected a positive token count")
	}
}

func TestTokenCounterCountMessagesIncludesOverhead(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter() error = %v", err)
	}

	messages := []*Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}

	single := tc.CountMessages(messages[:1])
	both := tc.CountMessages(messages)
	if both <= single {
		t.Fatalf("expected CountMessages to grow with more messages: single=%d both=%d", single, both)
	}
}

func TestNewTokenCounterCachesEncodingPerModel(t *testing.T) {
	a, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter() error = %v", err)
	}
	b, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter() error = %v", err)
	}
	if a.Count("the quick brown fox") != b.Count("the quick brown fox") {
		t.Fatal("expected identical counts from cached encoding")
	}
}
