// Package client provides the API client for interacting with the Atelier API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/atelierml/atelier/internal/types"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// DefaultBaseURL is the default base URL for the API
const DefaultBaseURL = "http://localhost:8080"

// Client is the interface for the API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Training endpoints
	StartTraining(ctx context.Context, req types.TrainingRequest, imagePaths []string) (types.StartResponse, error)
	TrainingStatus(ctx context.Context) (types.JobStatus, error)
	TerminateTraining(ctx context.Context) error

	// Generation endpoints
	StartGeneration(ctx context.Context, req types.GenerateRequest) error
	GenerationStatus(ctx context.Context) (types.JobStatus, error)
	TerminateGeneration(ctx context.Context) error
	FetchImage(ctx context.Context, id string) ([]byte, error)

	// Model endpoints
	ListModels(ctx context.Context) ([]types.ModelArtifact, error)
	DownloadModel(ctx context.Context, name string) ([]byte, error)
	DeleteModel(ctx context.Context, name string) error
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Accept", "application/json")
	if body != nil {
		agent.Set("Content-Type", "application/json")
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and decodes the response into v when v is
// non-nil.
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		var errResp types.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return &fiber.Error{Code: statusCode, Message: errResp.Error}
		}
		return &fiber.Error{Code: statusCode, Message: string(body)}
	}

	if v == nil {
		return nil
	}
	if raw, ok := v.(*[]byte); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// HealthCheck checks the health of the API server
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]string
	if err := c.doRequest(agent, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StartTraining starts a new fine-tuning job, uploading the images at the
// given paths as the training dataset.
func (c *APIClient) StartTraining(ctx context.Context, req types.TrainingRequest, imagePaths []string) (types.StartResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodPost, "/api/v1/train", nil)
	if err != nil {
		return types.StartResponse{}, err
	}

	files := make([]*fiber.FormFile, 0, len(imagePaths))
	for _, path := range imagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return types.StartResponse{}, fmt.Errorf("error reading image %s: %w", path, err)
		}
		files = append(files, &fiber.FormFile{
			Fieldname: "images",
			Name:      filepath.Base(path),
			Content:   data,
		})
	}
	agent.FileData(files...)

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("baseModel", req.BaseModel)
	args.Set("instancePrompt", req.InstancePrompt)
	args.Set("steps", strconv.Itoa(req.Steps))
	args.Set("learningRate", strconv.FormatFloat(req.LearningRate, 'f', -1, 64))
	args.Set("resolution", strconv.Itoa(req.Resolution))
	args.Set("trainBatchSize", strconv.Itoa(req.TrainBatchSize))
	agent.MultipartForm(args)

	var resp types.StartResponse
	if err := c.doRequest(agent, &resp); err != nil {
		return types.StartResponse{}, err
	}
	return resp, nil
}

// TrainingStatus returns the current training job status
func (c *APIClient) TrainingStatus(ctx context.Context) (types.JobStatus, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/api/v1/train/status", nil)
	if err != nil {
		return types.JobStatus{}, err
	}

	var status types.JobStatus
	if err := c.doRequest(agent, &status); err != nil {
		return types.JobStatus{}, err
	}
	return status, nil
}

// TerminateTraining requests cancellation of the active training job
func (c *APIClient) TerminateTraining(ctx context.Context) error {
	agent, err := c.createAgent(ctx, http.MethodPost, "/api/v1/train/terminate", nil)
	if err != nil {
		return err
	}
	return c.doRequest(agent, nil)
}

// StartGeneration starts a new image-generation job
func (c *APIClient) StartGeneration(ctx context.Context, req types.GenerateRequest) error {
	agent, err := c.createAgent(ctx, http.MethodPost, "/api/v1/generate", req)
	if err != nil {
		return err
	}
	return c.doRequest(agent, nil)
}

// GenerationStatus returns the current generation job status
func (c *APIClient) GenerationStatus(ctx context.Context) (types.JobStatus, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/api/v1/generate/status", nil)
	if err != nil {
		return types.JobStatus{}, err
	}

	var status types.JobStatus
	if err := c.doRequest(agent, &status); err != nil {
		return types.JobStatus{}, err
	}
	return status, nil
}

// TerminateGeneration requests cancellation of the active generation job
func (c *APIClient) TerminateGeneration(ctx context.Context) error {
	agent, err := c.createAgent(ctx, http.MethodPost, "/api/v1/generate/terminate", nil)
	if err != nil {
		return err
	}
	return c.doRequest(agent, nil)
}

// FetchImage returns the PNG payload of a generated image
func (c *APIClient) FetchImage(ctx context.Context, id string) ([]byte, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/api/v1/images/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if err := c.doRequest(agent, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ListModels returns the persisted model artifacts, newest first
func (c *APIClient) ListModels(ctx context.Context) ([]types.ModelArtifact, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/api/v1/models/", nil)
	if err != nil {
		return nil, err
	}

	var resp types.ListModelsResponse
	if err := c.doRequest(agent, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// DownloadModel returns the named model artifact as a zip archive
func (c *APIClient) DownloadModel(ctx context.Context, name string) ([]byte, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, "/api/v1/models/"+url.PathEscape(name)+"/download", nil)
	if err != nil {
		return nil, err
	}

	var archive []byte
	if err := c.doRequest(agent, &archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// DeleteModel deletes a persisted model artifact by name
func (c *APIClient) DeleteModel(ctx context.Context, name string) error {
	agent, err := c.createAgent(ctx, http.MethodDelete, "/api/v1/models/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	return c.doRequest(agent, nil)
}
