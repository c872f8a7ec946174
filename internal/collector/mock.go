package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/qepting91/recordsync/internal/domain"
)

// MockClient implements domain.Source but returns fake data
type MockClient struct {
	count   int
	latency time.Duration
}

func NewMockClient(count int, latency time.Duration) *MockClient {
	if count <= 0 {
		count = 5
	}
	return &MockClient{count: count, latency: latency}
}

func (mc *MockClient) Fetch(ctx context.Context, kind domain.Kind) (domain.Collection, error) {
	// Simulate network latency
	if mc.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, &NetworkError{Kind: kind, URL: "mock://" + string(kind), Err: ctx.Err()}
		case <-time.After(mc.latency):
		}
	}

	records := make(domain.Collection, 0, mc.count)
	for i := 1; i <= mc.count; i++ {
		id := json.Number(strconv.Itoa(i))
		switch kind {
		case domain.KindUsers:
			records = append(records, domain.Record{
				"id":       id,
				"name":     fmt.Sprintf("Simulated User %d", i),
				"username": fmt.Sprintf("user%d", i),
				"email":    fmt.Sprintf("user%d@example.test", i),
			})
		case domain.KindComments:
			records = append(records, domain.Record{
				"id":     id,
				"postId": json.Number("1"),
				"name":   fmt.Sprintf("Simulated comment %d", i),
				"email":  fmt.Sprintf("commenter%d@example.test", i),
				"body":   fmt.Sprintf("Comment body #%d", i),
			})
		case domain.KindPosts:
			records = append(records, domain.Record{
				"id":     id,
				"userId": json.Number("1"),
				"title":  fmt.Sprintf("Simulated post %d", i),
				"body":   fmt.Sprintf("Post body #%d", i),
			})
		default:
			return nil, fmt.Errorf("no endpoint configured for %q", kind)
		}
	}
	return records, nil
}
