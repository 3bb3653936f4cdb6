package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "distance", "")
	if root.TraceID == "" {
		t.Fatal("expected generated trace id")
	}
	_, child := StartChildSpan(ctx, "cache_lookup")
	child.SetAttr("hit", false)
	child.End()
	root.End()

	if child.TraceID != root.TraceID {
		t.Errorf("child should inherit trace id")
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected one child, got %d", len(root.Children))
	}
	if v, ok := child.Attr("hit"); !ok || v != false {
		t.Errorf("expected hit=false, got %v", v)
	}

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out := buf.String()
	if strings.Count(out, "msg=span") != 2 || !strings.Contains(out, "span=cache_lookup") {
		t.Errorf("unexpected log output:\n%s", out)
	}
}

func TestChildWithoutParent(t *testing.T) {
	ctx, span := StartChildSpan(context.Background(), "orphan")
	if SpanFromContext(ctx) != span {
		t.Error("span should be retrievable from its context")
	}
	if span.TraceID != "" {
		t.Error("orphan span has no trace id")
	}
}
