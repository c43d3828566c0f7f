package domain

import "time"

// SeedTasks returns the example board a first-time user starts with. The
// reference time anchors the relative due dates.
func SeedTasks(now time.Time) []Task {
	inAWeek := now.AddDate(0, 0, 7)
	fiveDaysAgo := now.AddDate(0, 0, -5)
	return []Task{
		{
			ID:          "task-1",
			Title:       "Design the new landing page",
			Description: "Create a modern and responsive design for the new landing page, focusing on user engagement and conversion.",
			Status:      StatusToDo,
			Priority:    PriorityHigh,
			DueDate:     &inAWeek,
			Subtasks: []Subtask{
				{ID: "sub-1-1", Text: "Define color palette", Completed: true},
				{ID: "sub-1-2", Text: "Create wireframes", Completed: true},
				{ID: "sub-1-3", Text: "Design hero section", Completed: false},
			},
			ImageURL: "https://images.pexels.com/photos/285814/pexels-photo-285814.jpeg",
		},
		{
			ID:          "task-2",
			Title:       "Develop user authentication",
			Description: "Implement secure user authentication using JWT and password hashing. Include sign-up, login, and logout functionality.",
			Status:      StatusInProgress,
			Priority:    PriorityHigh,
			Subtasks:    []Subtask{},
			ImageURL:    "https://images.pexels.com/photos/5380664/pexels-photo-5380664.jpeg",
		},
		{
			ID:          "task-3",
			Title:       "Set up CI/CD pipeline",
			Description: "Configure a continuous integration and continuous deployment pipeline to automate testing and deployment.",
			Status:      StatusInProgress,
			Priority:    PriorityMedium,
			Subtasks:    []Subtask{},
		},
		{
			ID:          "task-4",
			Title:       "Write documentation for the API",
			Description: "Create comprehensive documentation for all API endpoints, including request/response examples.",
			Status:      StatusDone,
			Priority:    PriorityMedium,
			DueDate:     &fiveDaysAgo,
			Subtasks:    []Subtask{},
		},
		{
			ID:          "task-5",
			Title:       "Update footer with new links",
			Description: "Add the new social media links and privacy policy link to the website footer.",
			Status:      StatusToDo,
			Priority:    PriorityLow,
			Subtasks:    []Subtask{},
		},
	}
}
