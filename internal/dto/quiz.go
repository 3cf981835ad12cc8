package dto

// QuizItemResponse is a quiz question without its answer.
// @Description Quiz question with its four options
type QuizItemResponse struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// GenerateQuizResponse is returned after a document was turned into a quiz.
// @Description Generated quiz and the token needed to check answers
type GenerateQuizResponse struct {
	BatchID string             `json:"batch_id"`
	Items   []QuizItemResponse `json:"items"`
	Token   string             `json:"token"`
}

// CheckAnswerRequest asks which rationale to show for a selected option.
// @Description Request body for revealing an answer
type CheckAnswerRequest struct {
	Token    string `json:"token" form:"token"`
	Item     int    `json:"item" form:"item"`
	Selected int    `json:"selected" form:"selected"`
}

// RevealResponse is the result of selecting an option.
type RevealResponse struct {
	Item         int    `json:"item"`
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correct_index"`
	Correct      bool   `json:"correct"`
	Rationale    string `json:"rationale"`
}

// ExportRequest asks for a downloadable copy of a quiz.
type ExportRequest struct {
	Token  string `json:"token" form:"token"`
	Format string `json:"format" form:"format" example:"docx"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}
