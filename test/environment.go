package test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/require"

	"github.com/atelierml/atelier/internal/api/v1/handlers"
	"github.com/atelierml/atelier/internal/api/v1/routes"
	"github.com/atelierml/atelier/internal/engine"
	"github.com/atelierml/atelier/internal/jobs"
	"github.com/atelierml/atelier/internal/services"
	"github.com/atelierml/atelier/pkg/api/v1/client"
)

// DefaultTestTimeout bounds a single test environment's context.
const DefaultTestTimeout = 30 * time.Second

// testClientTimeout is the timeout for test API client requests.
const testClientTimeout = 5 * time.Second

// TestEnvironment encapsulates all components needed for integration
// testing: a real API server backed by the mock execution engine, and a
// real API client pointed at it.
type TestEnvironment struct {
	t *testing.T

	// Server components
	App    *fiber.App
	Server *httptest.Server

	// Client components
	APIClient client.Client

	// Engine and stores, exposed so tests can tune or inspect them
	Engine    *engine.MockEngine
	Images    *services.Images
	Artifacts *services.Artifacts
	ModelRoot string

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	cleanup func()
}

// NewTestEnvironment creates a new test environment. The environment must
// be cleaned up after use by calling Cleanup.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	env := &TestEnvironment{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
	}

	// Fast engine by default so full job runs stay well under the
	// environment timeout.
	env.Engine = engine.NewMockEngine()
	env.Engine.StepDelay = 0
	env.Engine.SampleSteps = 5

	env.ModelRoot = t.TempDir()
	store := jobs.NewStatusStore()
	ctrl := jobs.NewController(store)

	artifacts, err := services.NewArtifactsService(env.ModelRoot)
	require.NoError(t, err, "Failed to create artifacts service")
	env.Artifacts = artifacts

	env.Images = services.NewImageStore(0)

	training := services.NewTrainingService(env.Engine, store, ctrl, env.ModelRoot)
	inference := services.NewInferenceService(env.Engine, store, ctrl, env.Images)

	env.App = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	routes.RegisterRoutes(
		env.App,
		handlers.NewTrainingHandler(training, filepath.Join(t.TempDir(), "staging")),
		handlers.NewInferenceHandler(inference, env.Images),
		handlers.NewModelHandler(artifacts),
	)

	// Serve the Fiber app over a real listener so the client exercises
	// the actual HTTP transport.
	env.Server = httptest.NewServer(adaptor.FiberApp(env.App))

	apiClient, err := client.NewClient(&client.Options{
		BaseURL: env.Server.URL,
		Timeout: testClientTimeout,
	})
	require.NoError(t, err, "Failed to create API client")
	env.APIClient = apiClient

	env.cleanup = func() {
		if env.Server != nil {
			env.Server.Close()
		}
		if env.Images != nil {
			env.Images.Close()
		}
		if env.cancelFunc != nil {
			env.cancelFunc()
		}
	}

	return env
}

// Context returns the environment's context, which is automatically
// canceled when the environment is cleaned up.
func (e *TestEnvironment) Context() context.Context {
	return e.ctx
}

// Cleanup tears down the test environment, releasing all resources.
// This should be deferred immediately after creating the environment.
func (e *TestEnvironment) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}
