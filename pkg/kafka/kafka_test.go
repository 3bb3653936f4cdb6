package kafka

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/config"
)

type payload struct {
	Corpus string `json:"corpus"`
	Words  int    `json:"words"`
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"corpus":"books","words":7}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Corpus != "books" || got.Words != 7 {
		t.Errorf("unexpected payload %+v", got)
	}
	if _, err := DecodeJSON[payload]([]byte(`{`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}}, "unused")
	defer p.Close()
	if err := p.PublishBatch(context.Background(), nil); err != nil {
		t.Errorf("expected nil for empty batch, got %v", err)
	}
}
