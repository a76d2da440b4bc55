package models

import "github.com/yourusername/quiz-forge/internal/store"

// コレクション名
const (
	QuizTemplatesCollection = "quiz_templates"
	QuestionsCollection     = "questions"
)

// QuizTemplate はクイズのひな形です。作成したアカウントが所有します。
type QuizTemplate struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	UserID string `bson:"user_id" json:"userId"`
}

// EntityID は store.Entity を実装します。
func (q QuizTemplate) EntityID() string { return q.ID }

// QuizTemplateUpdateDoc は QuizTemplate の更新ペイロードを組み立てます。
func QuizTemplateUpdateDoc(q QuizTemplate) store.Document {
	return store.Document{
		"name":    q.Name,
		"user_id": q.UserID,
	}
}

// Question はクイズテンプレートに属する問題です。
type Question struct {
	ID             string `bson:"_id" json:"id"`
	Answer         string `bson:"answer" json:"answer"`
	Question       string `bson:"question" json:"question"`
	QuizTemplateID string `bson:"quiz_template_id" json:"quizTemplateId"`
}

// EntityID は store.Entity を実装します。
func (q Question) EntityID() string { return q.ID }

// QuestionUpdateDoc は Question の更新ペイロードを組み立てます。
func QuestionUpdateDoc(q Question) store.Document {
	return store.Document{
		"answer":           q.Answer,
		"question":         q.Question,
		"quiz_template_id": q.QuizTemplateID,
	}
}
