package factory

import (
	"time"

	"github.com/mathrush/mathrush-go/internal/dependencies/mocks"
	"github.com/mathrush/mathrush-go/internal/registry"
	"github.com/mathrush/mathrush-go/internal/storage/memory"
	"github.com/mathrush/mathrush-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies and in-memory storage. The turn deadline is long enough
// to never fire during a test.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, registry.DefaultRetention, time.Hour, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
