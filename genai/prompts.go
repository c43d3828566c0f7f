package genai

import (
	"fmt"
	"strings"
)

const jsonReplyInstruction = "Reply with a single JSON object and nothing else."

func describePrompt(title string) string {
	return fmt.Sprintf(`You are an expert project manager. Your goal is to take a task title and write a detailed, helpful description for it.
The description should clarify the task's purpose and scope.

Task Title: %s

%s The object must have one field: "description" (string).`, title, jsonReplyInstruction)
}

func subtasksPrompt(title, description string) string {
	return fmt.Sprintf(`You are an expert project manager. Based on the task title and description, break it down into a list of smaller, actionable subtasks. Each subtask should be a short phrase.

Task Title: %s
Task Description: %s

Generate a list of subtasks. If the description is brief, create general subtasks appropriate for the title.
%s The object must have one field: "subtasks" (array of strings).`, title, description, jsonReplyInstruction)
}

func taskDetailsPrompt(title string) string {
	return fmt.Sprintf(`You are an expert project manager. Your goal is to take a simple task title and flesh it out into a detailed, actionable task.
Based on the provided title, generate a detailed description, determine an appropriate priority (High, Medium, or Low), and break it down into a list of 2-4 smaller, actionable subtasks.

Task Title: %s

%s The object must have the fields: "description" (string), "priority" ("High", "Medium" or "Low") and "subtasks" (array of strings).`, title, jsonReplyInstruction)
}

func imagePrompt(title string) string {
	return fmt.Sprintf(`Generate a clean, modern, and professional image that visually represents the following task: "%s". The image should be suitable for a project management application. Avoid text and logos.`, title)
}

func parseTaskPrompt(text, currentDate string) string {
	return fmt.Sprintf(`You are an intelligent task parsing assistant. Your job is to extract structured information from a user's text input to create a task.

Current Date: %s

Analyze the user's text and extract the following information:
- A concise title for the task.
- A detailed description, if one is provided.
- The priority (High, Medium, or Low). If not specified, you can infer it from keywords (e.g., 'urgent' implies High). If no inference can be made, leave it blank.
- The due date. If relative dates like "tomorrow", "next Friday", or "in 2 weeks" are used, convert them to a specific 'YYYY-MM-DD' format based on the current date.

User Input: "%s"

%s The object must have the fields: "title" (string, required), "description" (string, optional), "priority" ("High", "Medium" or "Low", optional) and "dueDate" ("YYYY-MM-DD", optional). Omit optional fields you cannot fill.`, currentDate, text, jsonReplyInstruction)
}

func dashboardSummaryPrompt(total, completed, overdue, upcoming int) string {
	return fmt.Sprintf(`You are a friendly and encouraging productivity assistant. Based on the following task statistics, write a short, insightful, and motivational summary for the user.

Your tone should be positive and encouraging, even when mentioning overdue tasks.
Keep the summary to 2-3 sentences.

Statistics:
- Total Tasks: %d
- Completed Tasks: %d
- Overdue Tasks: %d
- Upcoming Tasks: %d

%s The object must have one field: "summary" (string).`, total, completed, overdue, upcoming, jsonReplyInstruction)
}

func reprioritizePrompt(tasks []TaskInfo) string {
	var list strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&list, "- ID: %s, Title: %q, Description: %q\n", t.ID, t.Title, t.Description)
	}
	return fmt.Sprintf(`You are an expert project manager. Your goal is to intelligently prioritize a list of tasks.

Analyze the provided list of tasks, paying close attention to keywords in the title and description that imply urgency or importance (e.g., "bug", "urgent", "critical", "ASAP" vs. "plan", "research", "later").

Based on your analysis, assign a priority (High, Medium, or Low) to each task.
Return the full list of tasks with their newly assigned priorities.

Tasks to prioritize:
%s
%s The object must have one field: "prioritizedTasks" (array of objects with "id" and "priority").`, list.String(), jsonReplyInstruction)
}
