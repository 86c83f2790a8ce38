package factory

import (
	"time"

	"github.com/mkarls/gatekeeper/internal/dependencies/mocks"
	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, Config{}, nil)
	app.LinkLimiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultLinkConfig(), mockClock)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
