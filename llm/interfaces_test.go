package llm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestChain_Order(t *testing.T) {
	var calls []string
	trace := func(name string) Middleware {
		return func(next Client) Client {
			return ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
				calls = append(calls, "before:"+name)
				resp, err := next.Synchronous(ctx, req)
				calls = append(calls, "after:"+name)
				return resp, err
			})
		}
	}

	client := Chain(&fakeClient{}, trace("a"), trace("b"))
	if _, err := client.Synchronous(context.Background(), &Request{}); err != nil {
		t.Fatalf("Synchronous: %v", err)
	}

	want := []string{"before:a", "before:b", "after:b", "after:a"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, calls)
	}
}

func TestChain_NoMiddleware(t *testing.T) {
	base := &fakeClient{}
	if Chain(base) != Client(base) {
		t.Error("Expected the client to be returned unchanged")
	}
}

func TestWithLogging_DoesNotAlterCall(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	fake := &fakeClient{resp: &Response{Text: "hi", Usage: &Usage{InputTokens: 3, OutputTokens: 1}}}
	client := Chain(fake, WithLogging(logger, ProviderGPT))

	req := &Request{Model: "gpt-4o-mini"}
	resp, err := client.Synchronous(context.Background(), req)
	if err != nil {
		t.Fatalf("Synchronous: %v", err)
	}
	if resp.Text != "hi" {
		t.Errorf("Expected response to pass through, got %q", resp.Text)
	}
	if fake.requests[0] != req {
		t.Error("Expected the request to pass through unchanged")
	}
	if !strings.Contains(buf.String(), `"provider":"gpt"`) || !strings.Contains(buf.String(), `"inputTokens":3`) {
		t.Errorf("Expected provider and usage in log, got %s", buf.String())
	}

	fake.err = errors.New("down")
	if _, err := client.Synchronous(context.Background(), req); !errors.Is(err, fake.err) {
		t.Errorf("Expected error to pass through, got %v", err)
	}
	if !strings.Contains(buf.String(), "LLM request failed") {
		t.Error("Expected failure to be logged")
	}
}
