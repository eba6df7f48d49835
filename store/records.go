package store

import "time"

// CandidateInfo is captured once at interview start and never mutated.
type CandidateInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type CategoryScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// InterviewRecord is created exactly once per completed interview and
// never mutated afterwards.
type InterviewRecord struct {
	ID             int64           `json:"id"`
	Candidate      CandidateInfo   `json:"candidate"`
	OverallScore   float64         `json:"overall_score"`
	Timestamp      time.Time       `json:"timestamp"`
	QAPairs        []QAPair        `json:"qa_pairs"`
	DetailedScores []CategoryScore `json:"detailed_scores"`
}
