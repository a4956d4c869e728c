package domain

// GoalType identifies what a next goal targets.
type GoalType string

const (
	GoalTime        GoalType = "time"
	GoalConsistency GoalType = "consistency"
	GoalAccuracy    GoalType = "accuracy"
	GoalStreak      GoalType = "streak"
)

// Goal is the next recommended target for the player.
type Goal struct {
	Type     GoalType `json:"type"`
	Target   float64  `json:"target"`
	Current  float64  `json:"current"`
	Progress float64  `json:"progress"` // 0-100
}

// UserInsights is the qualitative derived view over the metrics.
type UserInsights struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	BestHour        int      `json:"best_hour"`
	BestHourAverage float64  `json:"best_hour_average"`
	BestMode        GameMode `json:"best_mode"`
	RecommendedMode GameMode `json:"recommended_mode"`
	NextGoal        Goal     `json:"next_goal"`
}

// MessageType categorizes a personalized message.
type MessageType string

const (
	MessageAchievement   MessageType = "achievement"
	MessageEncouragement MessageType = "encouragement"
	MessageAdvice        MessageType = "advice"
	MessageGoal          MessageType = "goal"
)

// Priority orders messages; high sorts before medium before low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight returns the sort weight of a priority; lower sorts first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// MessageAction is an optional follow-up the UI can offer with a message.
type MessageAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// PersonalizedMessage is one generated message. Messages are ephemeral:
// regenerated per analysis, never persisted individually.
type PersonalizedMessage struct {
	Type       MessageType    `json:"type"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Priority   Priority       `json:"priority"`
	Actionable *MessageAction `json:"actionable,omitempty"`
}
