package tests

import (
	"context"
	"log"
	"sync"
	"testing"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupTestDB spins up a fresh MongoDB container and returns the database connection
// along with a cleanup function.
func SetupTestDB(t *testing.T) (*mongo.Database, func()) {
	ctx := context.Background()

	mongodbContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	endpoint, err := mongodbContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	return mongoClient.Database("test_db"), func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
		if err := mongodbContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
}

// MockAssistant implements domain.AssistantClient with a canned reply and
// records every request it receives.
type MockAssistant struct {
	mu       sync.Mutex
	Answer   string
	Err      error
	Requests []domain.ChatRequest
}

func NewMockAssistant(reply string) *MockAssistant {
	return &MockAssistant{Answer: reply}
}

func (m *MockAssistant) Reply(_ context.Context, req domain.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	return m.Answer, m.Err
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockAssistant) LastRequest() domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return domain.ChatRequest{}
	}
	return m.Requests[len(m.Requests)-1]
}
