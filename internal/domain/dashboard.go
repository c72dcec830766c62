package domain

import "time"

// OverallStats is the headline dashboard block: total answers and accuracy.
type OverallStats struct {
	TotalAnswers int
	Correct      int
	Accuracy     float64
}

// SubjectAccuracy is per-subject answer accuracy.
type SubjectAccuracy struct {
	SubjectName string
	Total       int
	Correct     int
	Accuracy    float64
}

// TopicAccuracy is per-topic answer accuracy, used for the weakest-topics
// ("vulnerabilities") rollup.
type TopicAccuracy struct {
	TopicName   string
	SubjectName string
	Total       int
	Correct     int
	Accuracy    float64
}

// DayActivity is one day of answering activity.
type DayActivity struct {
	Date    time.Time
	Total   int
	Correct int
}

// DashboardStats bundles the rollups served by the dashboard endpoint.
type DashboardStats struct {
	Overall   OverallStats
	BySubject []SubjectAccuracy
	Daily     []DayActivity
	DueCount  int
}
