package genai

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"taskflow-api/domain"
)

// Canned reply for an empty board; no model call is made.
const emptyBoardSummary = "No tasks yet! Add a new task to get started and see your progress here."

// Flows exposes the AI-assisted operations. Each one validates its input,
// issues the model call(s) and coerces the reply into the declared output
// shape.
type Flows struct {
	gen Generator
}

// NewFlows binds the flow set to a generation collaborator.
func NewFlows(gen Generator) *Flows {
	if gen == nil {
		panic("genai.NewFlows: generator is nil")
	}
	return &Flows{gen: gen}
}

// DescribeRequest asks for a description of a task title.
type DescribeRequest struct {
	Title string `json:"title"`
}

// DescribeResponse carries the drafted description.
type DescribeResponse struct {
	Description string `json:"description"`
}

func (f *Flows) Describe(ctx context.Context, req DescribeRequest) (DescribeResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return DescribeResponse{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	raw, err := f.gen.GenerateText(ctx, describePrompt(req.Title))
	if err != nil {
		return DescribeResponse{}, generationFailed("describe", err)
	}
	var out DescribeResponse
	if err := decodeModelJSON(raw, &out); err != nil {
		return DescribeResponse{}, generationFailed("describe", err)
	}
	if out.Description == "" {
		return DescribeResponse{}, generationFailed("describe", ErrNoOutput)
	}
	return out, nil
}

// SubtasksRequest asks for a checklist for an existing task.
type SubtasksRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SubtasksResponse lists suggested subtask texts in display order.
type SubtasksResponse struct {
	Subtasks []string `json:"subtasks"`
}

func (f *Flows) SuggestSubtasks(ctx context.Context, req SubtasksRequest) (SubtasksResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return SubtasksResponse{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	raw, err := f.gen.GenerateText(ctx, subtasksPrompt(req.Title, req.Description))
	if err != nil {
		return SubtasksResponse{}, generationFailed("suggest-subtasks", err)
	}
	var out SubtasksResponse
	if err := decodeModelJSON(raw, &out); err != nil {
		return SubtasksResponse{}, generationFailed("suggest-subtasks", err)
	}
	if len(out.Subtasks) == 0 {
		return SubtasksResponse{}, generationFailed("suggest-subtasks", ErrNoOutput)
	}
	return out, nil
}

// DraftTaskRequest asks for a full task draft from just a title.
type DraftTaskRequest struct {
	Title string `json:"title"`
}

// DraftTaskResponse combines the text details with a generated cover image.
type DraftTaskResponse struct {
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Subtasks    []string        `json:"subtasks"`
	ImageURL    string          `json:"imageUrl"`
}

type taskDetails struct {
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Subtasks    []string        `json:"subtasks"`
}

// DraftTask issues the text-detail call and the image call concurrently and
// joins on both. The join is all-or-nothing: if either branch fails, the
// whole flow fails and no partial result is returned.
func (f *Flows) DraftTask(ctx context.Context, req DraftTaskRequest) (DraftTaskResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return DraftTaskResponse{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	var (
		wg       sync.WaitGroup
		details  taskDetails
		imageURL string
		textErr  error
		imageErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		details, textErr = f.taskDetails(ctx, req.Title)
	}()
	go func() {
		defer wg.Done()
		imageURL, imageErr = f.gen.GenerateImage(ctx, imagePrompt(req.Title))
	}()
	wg.Wait()

	if textErr != nil {
		return DraftTaskResponse{}, generationFailed("draft-task", textErr)
	}
	if imageErr != nil {
		return DraftTaskResponse{}, generationFailed("draft-task", imageErr)
	}
	return DraftTaskResponse{
		Description: details.Description,
		Priority:    details.Priority,
		Subtasks:    details.Subtasks,
		ImageURL:    imageURL,
	}, nil
}

func (f *Flows) taskDetails(ctx context.Context, title string) (taskDetails, error) {
	raw, err := f.gen.GenerateText(ctx, taskDetailsPrompt(title))
	if err != nil {
		return taskDetails{}, err
	}
	var out taskDetails
	if err := decodeModelJSON(raw, &out); err != nil {
		return taskDetails{}, err
	}
	if out.Description == "" || !out.Priority.Valid() {
		return taskDetails{}, ErrNoOutput
	}
	return out, nil
}

// ImageRequest asks for a cover image for a task title.
type ImageRequest struct {
	Title string `json:"title"`
}

// ImageResponse carries the generated image reference.
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (f *Flows) GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return ImageResponse{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	url, err := f.gen.GenerateImage(ctx, imagePrompt(req.Title))
	if err != nil {
		return ImageResponse{}, generationFailed("generate-image", err)
	}
	return ImageResponse{ImageURL: url}, nil
}

// ParseTaskRequest is free text plus the reference date for resolving
// relative expressions like "next Friday".
type ParseTaskRequest struct {
	Text        string    `json:"text"`
	CurrentDate time.Time `json:"currentDate"`
}

// ParseTaskResponse is the structured task extracted from the text.
// Priority and DueDate are nil when the text does not imply them.
type ParseTaskResponse struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
}

func (f *Flows) ParseTask(ctx context.Context, req ParseTaskRequest) (ParseTaskResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return ParseTaskResponse{}, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if req.CurrentDate.IsZero() {
		return ParseTaskResponse{}, &ValidationError{Field: "currentDate", Reason: "must be set"}
	}

	raw, err := f.gen.GenerateText(ctx, parseTaskPrompt(req.Text, req.CurrentDate.Format("2006-01-02")))
	if err != nil {
		return ParseTaskResponse{}, generationFailed("parse-task", err)
	}
	var wire struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"dueDate"`
	}
	if err := decodeModelJSON(raw, &wire); err != nil {
		return ParseTaskResponse{}, generationFailed("parse-task", err)
	}
	if wire.Title == "" {
		return ParseTaskResponse{}, generationFailed("parse-task", ErrNoOutput)
	}

	out := ParseTaskResponse{Title: wire.Title, Description: wire.Description}
	if wire.Priority != "" {
		p := domain.Priority(wire.Priority)
		if !p.Valid() {
			return ParseTaskResponse{}, generationFailed("parse-task", ErrNoOutput)
		}
		out.Priority = &p
	}
	if wire.DueDate != "" {
		due, err := time.Parse("2006-01-02", wire.DueDate)
		if err != nil {
			return ParseTaskResponse{}, generationFailed("parse-task", ErrNoOutput)
		}
		out.DueDate = &due
	}
	return out, nil
}

// SummaryRequest carries the dashboard counts to narrate.
type SummaryRequest struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	OverdueTasks   int `json:"overdueTasks"`
	UpcomingTasks  int `json:"upcomingTasks"`
}

// SummaryResponse is the short motivational summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// SummarizeDashboard short-circuits to a canned message for an empty board
// without calling the generation service.
func (f *Flows) SummarizeDashboard(ctx context.Context, req SummaryRequest) (SummaryResponse, error) {
	if req.TotalTasks < 0 || req.CompletedTasks < 0 || req.OverdueTasks < 0 || req.UpcomingTasks < 0 {
		return SummaryResponse{}, &ValidationError{Field: "counts", Reason: "must not be negative"}
	}
	if req.TotalTasks == 0 {
		return SummaryResponse{Summary: emptyBoardSummary}, nil
	}

	raw, err := f.gen.GenerateText(ctx, dashboardSummaryPrompt(req.TotalTasks, req.CompletedTasks, req.OverdueTasks, req.UpcomingTasks))
	if err != nil {
		return SummaryResponse{}, generationFailed("summarize-dashboard", err)
	}
	var out SummaryResponse
	if err := decodeModelJSON(raw, &out); err != nil {
		return SummaryResponse{}, generationFailed("summarize-dashboard", err)
	}
	if out.Summary == "" {
		return SummaryResponse{}, generationFailed("summarize-dashboard", ErrNoOutput)
	}
	return out, nil
}

// TaskInfo is the slice of a task the reprioritization flow sees.
type TaskInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskPriority pairs a task id with its newly assigned priority.
type TaskPriority struct {
	ID       string          `json:"id"`
	Priority domain.Priority `json:"priority"`
}

// ReprioritizeRequest is the board slice to re-rank.
type ReprioritizeRequest struct {
	Tasks []TaskInfo `json:"tasks"`
}

// ReprioritizeResponse lists the new priorities.
type ReprioritizeResponse struct {
	PrioritizedTasks []TaskPriority `json:"prioritizedTasks"`
}

// Reprioritize short-circuits to an empty result for an empty board without
// calling the generation service.
func (f *Flows) Reprioritize(ctx context.Context, req ReprioritizeRequest) (ReprioritizeResponse, error) {
	if len(req.Tasks) == 0 {
		return ReprioritizeResponse{PrioritizedTasks: []TaskPriority{}}, nil
	}
	for _, t := range req.Tasks {
		if t.ID == "" {
			return ReprioritizeResponse{}, &ValidationError{Field: "tasks", Reason: "every task needs an id"}
		}
	}

	raw, err := f.gen.GenerateText(ctx, reprioritizePrompt(req.Tasks))
	if err != nil {
		return ReprioritizeResponse{}, generationFailed("reprioritize", err)
	}
	var out ReprioritizeResponse
	if err := decodeModelJSON(raw, &out); err != nil {
		return ReprioritizeResponse{}, generationFailed("reprioritize", err)
	}
	if len(out.PrioritizedTasks) == 0 {
		return ReprioritizeResponse{}, generationFailed("reprioritize", ErrNoOutput)
	}
	for _, t := range out.PrioritizedTasks {
		if t.ID == "" || !t.Priority.Valid() {
			return ReprioritizeResponse{}, generationFailed("reprioritize", ErrNoOutput)
		}
	}
	return out, nil
}

// NarrateRequest carries the summary text to render as speech.
type NarrateRequest struct {
	Summary string `json:"summary"`
}

// NarrateResponse carries the audio reference.
type NarrateResponse struct {
	AudioURL string `json:"audioUrl"`
}

func (f *Flows) NarrateSummary(ctx context.Context, req NarrateRequest) (NarrateResponse, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return NarrateResponse{}, &ValidationError{Field: "summary", Reason: "must not be empty"}
	}
	url, err := f.gen.GenerateSpeech(ctx, req.Summary)
	if err != nil {
		return NarrateResponse{}, generationFailed("narrate-summary", err)
	}
	return NarrateResponse{AudioURL: url}, nil
}

// decodeModelJSON coerces raw model text into the target shape. Models
// sometimes wrap JSON in markdown fences despite instructions, so those are
// stripped first.
func decodeModelJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		return ErrNoOutput
	}
	return sonic.UnmarshalString(raw, v)
}
