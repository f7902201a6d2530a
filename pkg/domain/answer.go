package domain

// AnswerVerdict is the result of checking a learner answer against lesson content.
type AnswerVerdict struct {
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"additional_explanation"`
}
