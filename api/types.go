package api

import (
	"context"

	"taskflow-api/genai"
	"taskflow-api/store"
)

// Sessions hands out per-user state and tears it down on sign-out.
type Sessions interface {
	Session(ctx context.Context, userID string) *store.Session
	Deactivate(userID string)
}

// FlowRunner is the AI flow surface the handlers call.
type FlowRunner interface {
	Describe(ctx context.Context, req genai.DescribeRequest) (genai.DescribeResponse, error)
	SuggestSubtasks(ctx context.Context, req genai.SubtasksRequest) (genai.SubtasksResponse, error)
	DraftTask(ctx context.Context, req genai.DraftTaskRequest) (genai.DraftTaskResponse, error)
	GenerateImage(ctx context.Context, req genai.ImageRequest) (genai.ImageResponse, error)
	ParseTask(ctx context.Context, req genai.ParseTaskRequest) (genai.ParseTaskResponse, error)
	SummarizeDashboard(ctx context.Context, req genai.SummaryRequest) (genai.SummaryResponse, error)
	Reprioritize(ctx context.Context, req genai.ReprioritizeRequest) (genai.ReprioritizeResponse, error)
	NarrateSummary(ctx context.Context, req genai.NarrateRequest) (genai.NarrateResponse, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
