package api

// Scores is the payload returned by the scoring endpoint. The backend
// labels each category with a "progress" key.
type Scores struct {
	Overall float64         `json:"overall"`
	Scores  []CategoryScore `json:"scores"`
}

type CategoryScore struct {
	Label string  `json:"progress"`
	Score float64 `json:"score"`
}

type RegistrationStatus struct {
	Status  string `json:"status"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Warnings struct {
	Warnings         int `json:"warnings"`
	MaxWarnings      int `json:"max_warnings"`
	MalpracticeCount int `json:"malpractice_count"`
	MaxMalpractice   int `json:"max_malpractice"`
}

type InterviewStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type UploadResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Result  UploadResult `json:"result"`
}

type UploadResult struct {
	Questions []string `json:"questions"`
}

type saveTranscriptRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type startRegistrationRequest struct {
	Duration int `json:"duration"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type scoreResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Scores  Scores `json:"scores"`
}

type registrationStatusResponse struct {
	Registration RegistrationStatus `json:"registration"`
}

type warningsResponse struct {
	Status           string `json:"status"`
	Warnings         int    `json:"warnings"`
	MaxWarnings      int    `json:"max_warnings"`
	MalpracticeCount int    `json:"malpractice_count"`
	MaxMalpractice   int    `json:"max_malpractice"`
}

type interviewStatusResponse struct {
	InterviewStatus InterviewStatus `json:"interview_status"`
}
