package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTrainingRequest() TrainingRequest {
	return TrainingRequest{
		BaseModel:      "runwayml/stable-diffusion-v1-5",
		InstancePrompt: "a photo of sks dog",
		Steps:          500,
		LearningRate:   1e-4,
		Resolution:     512,
		TrainBatchSize: 1,
	}
}

func TestTrainingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TrainingRequest)
		wantErr bool
	}{
		{
			name:    "valid request",
			mutate:  func(*TrainingRequest) {},
			wantErr: false,
		},
		{
			name:    "missing base model",
			mutate:  func(r *TrainingRequest) { r.BaseModel = "" },
			wantErr: true,
		},
		{
			name:    "missing prompt",
			mutate:  func(r *TrainingRequest) { r.InstancePrompt = "" },
			wantErr: true,
		},
		{
			name:    "zero steps",
			mutate:  func(r *TrainingRequest) { r.Steps = 0 },
			wantErr: true,
		},
		{
			name:    "negative learning rate",
			mutate:  func(r *TrainingRequest) { r.LearningRate = -1 },
			wantErr: true,
		},
		{
			name:    "zero resolution",
			mutate:  func(r *TrainingRequest) { r.Resolution = 0 },
			wantErr: true,
		},
		{
			name:    "zero batch size",
			mutate:  func(r *TrainingRequest) { r.TrainBatchSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTrainingRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, ErrKindValidation, KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerateRequest
		wantErr bool
	}{
		{
			name:    "valid request",
			req:     GenerateRequest{Prompt: "a castle at dusk"},
			wantErr: false,
		},
		{
			name:    "with negative prompt and steps",
			req:     GenerateRequest{Prompt: "a castle", NegativePrompt: "blurry", Steps: 30},
			wantErr: false,
		},
		{
			name:    "missing prompt",
			req:     GenerateRequest{},
			wantErr: true,
		},
		{
			name:    "negative steps",
			req:     GenerateRequest{Prompt: "a castle", Steps: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
