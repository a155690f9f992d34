package model

import "fmt"

// QA is a question answer pair about an image
type QA struct {
	ID              int         `json:"qa_id"`
	Image           *Image      `json:"-"`
	ImageID         int         `json:"image_id"`
	Question        string      `json:"question"`
	Answer          string      `json:"answer"`
	QuestionObjects []*QAObject `json:"question_objects"`
	AnswerObjects   []*QAObject `json:"answer_objects"`
}

func (q *QA) String() string {
	return fmt.Sprintf("id: %d, image: %d, question: %s, answer: %s", q.ID, q.ImageID, q.Question, q.Answer)
}

// QAObject is an entity mentioned in a question or answer,
// addressed by its character span in the text.
type QAObject struct {
	StartIdx int     `json:"entity_idx_start"`
	EndIdx   int     `json:"entity_idx_end"`
	Name     string  `json:"entity_name"`
	Synset   *Synset `json:"synset,omitempty"`
}

func (o *QAObject) String() string {
	return fmt.Sprintf("%s[%d:%d]", o.Name, o.StartIdx, o.EndIdx)
}
