package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierml/atelier/internal/api/v1/handlers"
	"github.com/atelierml/atelier/internal/api/v1/routes"
	"github.com/atelierml/atelier/internal/engine"
	"github.com/atelierml/atelier/internal/jobs"
	"github.com/atelierml/atelier/internal/services"
	"github.com/atelierml/atelier/internal/types"
)

type testServer struct {
	app     *fiber.App
	root    string
	dataDir string
	images  *services.Images
}

func newTestServer(t *testing.T, eng *engine.MockEngine) *testServer {
	t.Helper()

	root := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "staging")
	store := jobs.NewStatusStore()
	ctrl := jobs.NewController(store)

	artifacts, err := services.NewArtifactsService(root)
	require.NoError(t, err)

	images := services.NewImageStore(0)
	t.Cleanup(images.Close)

	training := services.NewTrainingService(eng, store, ctrl, root)
	inference := services.NewInferenceService(eng, store, ctrl, images)

	app := fiber.New()
	routes.RegisterRoutes(
		app,
		handlers.NewTrainingHandler(training, dataDir),
		handlers.NewInferenceHandler(inference, images),
		handlers.NewModelHandler(artifacts),
	)

	return &testServer{app: app, root: root, dataDir: dataDir, images: images}
}

func (s *testServer) request(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, 15000)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// pollStatus polls the given status endpoint until the job reaches a
// terminal, non-idle state.
func (s *testServer) pollStatus(t *testing.T, path string) types.JobStatus {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp := s.request(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status types.JobStatus
		decodeJSON(t, resp, &status)
		if status.Status.Terminal() && status.Status != types.JobStateIdle {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out polling %s", path)
	return types.JobStatus{}
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	resp := s.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestGenerateFlow(t *testing.T) {
	eng := engine.NewMockEngine()
	eng.StepDelay = 0
	eng.SampleSteps = 5
	s := newTestServer(t, eng)

	resp := s.request(t, http.MethodPost, "/api/v1/generate", types.GenerateRequest{Prompt: "a castle"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var start types.StartResponse
	decodeJSON(t, resp, &start)
	assert.Equal(t, "accepted", start.Status)

	status := s.pollStatus(t, "/api/v1/generate/status")
	require.Equal(t, types.JobStateCompleted, status.Status)
	require.NotEmpty(t, status.ImageID)

	// Fetch the generated image.
	imgResp := s.request(t, http.MethodGet, "/api/v1/images/"+status.ImageID, nil)
	require.Equal(t, http.StatusOK, imgResp.StatusCode)
	assert.Equal(t, "image/png", imgResp.Header.Get("Content-Type"))

	payload, err := io.ReadAll(imgResp.Body)
	require.NoError(t, err)
	imgResp.Body.Close()
	assert.NotEmpty(t, payload)
}

func TestGenerateValidation(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	resp := s.request(t, http.MethodPost, "/api/v1/generate", types.GenerateRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp types.ErrorResponse
	decodeJSON(t, resp, &errResp)
	assert.Equal(t, types.ErrKindValidation, errResp.Kind)
}

func TestGenerateConflict(t *testing.T) {
	eng := engine.NewMockEngine()
	eng.StepDelay = 20 * time.Millisecond
	eng.SampleSteps = 200
	s := newTestServer(t, eng)

	resp := s.request(t, http.MethodPost, "/api/v1/generate", types.GenerateRequest{Prompt: "first"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.request(t, http.MethodPost, "/api/v1/generate", types.GenerateRequest{Prompt: "second"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Cancel so the worker does not outlive the test.
	resp = s.request(t, http.MethodPost, "/api/v1/generate/terminate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.pollStatus(t, "/api/v1/generate/status")
}

func TestGetImageNotFound(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	resp := s.request(t, http.MethodGet, "/api/v1/images/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTerminateWithoutActiveJob(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	resp := s.request(t, http.MethodPost, "/api/v1/train/terminate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.request(t, http.MethodPost, "/api/v1/generate/terminate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// buildTrainingForm builds a multipart request body with one small image per
// name and the given form fields.
func buildTrainingForm(t *testing.T, names []string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func trainingFormFields() map[string]string {
	return map[string]string{
		"baseModel":      "runwayml/stable-diffusion-v1-5",
		"instancePrompt": "a photo of sks dog",
		"steps":          "4",
		"learningRate":   "0.0001",
		"resolution":     "512",
		"trainBatchSize": "1",
	}
}

func (s *testServer) postTraining(t *testing.T, names []string, fields map[string]string) *http.Response {
	t.Helper()

	body, contentType := buildTrainingForm(t, names, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/train", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.app.Test(req, 15000)
	require.NoError(t, err)
	return resp
}

// stagedFiles returns the base names of all files under the staging root.
func stagedFiles(t *testing.T, root string) []string {
	t.Helper()

	var names []string
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, d.Name())
		}
		return nil
	})
	require.NoError(t, err)
	return names
}

func TestTrainingFlow(t *testing.T) {
	eng := engine.NewMockEngine()
	eng.StepDelay = 0
	s := newTestServer(t, eng)

	resp := s.postTraining(t, []string{"one.png", "two.png"}, trainingFormFields())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var start types.StartResponse
	decodeJSON(t, resp, &start)
	assert.Equal(t, "accepted", start.Status)
	assert.NotEmpty(t, start.OutputDir)

	status := s.pollStatus(t, "/api/v1/train/status")
	require.Equal(t, types.JobStateCompleted, status.Status)

	// The artifact is on disk and listed by the models endpoint.
	_, statErr := os.Stat(start.OutputDir)
	assert.NoError(t, statErr)

	listResp := s.request(t, http.MethodGet, "/api/v1/models/", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list types.ListModelsResponse
	decodeJSON(t, listResp, &list)
	require.Len(t, list.Models, 1)
	assert.Equal(t, "a photo of sks dog", list.Models[0].Prompt)
}

func TestTrainingRequiresImages(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	resp := s.postTraining(t, nil, trainingFormFields())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrainingValidation(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	fields := trainingFormFields()
	fields["steps"] = "0"
	resp := s.postTraining(t, []string{"one.png"}, fields)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrainingConflictKeepsStagedDataset(t *testing.T) {
	eng := engine.NewMockEngine()
	eng.StepDelay = 20 * time.Millisecond
	s := newTestServer(t, eng)

	fields := trainingFormFields()
	fields["steps"] = "500"
	resp := s.postTraining(t, []string{"first.png"}, fields)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The conflicting request is rejected and must not touch the dataset
	// the running job is training on.
	resp = s.postTraining(t, []string{"second.png"}, fields)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	staged := stagedFiles(t, s.dataDir)
	assert.Contains(t, staged, "first.png")
	assert.NotContains(t, staged, "second.png")

	resp = s.request(t, http.MethodPost, "/api/v1/train/terminate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.pollStatus(t, "/api/v1/train/status")
}

func TestModelEndpoints(t *testing.T) {
	s := newTestServer(t, engine.NewMockEngine())

	// Empty root lists no models.
	resp := s.request(t, http.MethodGet, "/api/v1/models/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list types.ListModelsResponse
	decodeJSON(t, resp, &list)
	assert.Empty(t, list.Models)

	// Seed one model directory.
	dir := filepath.Join(s.root, "a_dog-20240101-120000")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weights.bin"), []byte("w"), 0o644))

	// Download returns a zip archive.
	resp = s.request(t, http.MethodGet, "/api/v1/models/a_dog-20240101-120000/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	// Download of a missing model is a 404.
	resp = s.request(t, http.MethodGet, "/api/v1/models/missing-20240101-120000/download", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete then verify it is gone.
	resp = s.request(t, http.MethodDelete, "/api/v1/models/a_dog-20240101-120000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.request(t, http.MethodDelete, "/api/v1/models/a_dog-20240101-120000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
