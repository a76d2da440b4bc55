package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// タスク種別
const (
	TypePurgeQuestions = "quiz_template:purge_questions"
	TypePurgeOrphan    = "account:purge_orphan"
)

// キュー設定
const (
	QueueName   = "maintenance"
	Concurrency = 2
	MaxRetry    = 3
)

// Status はジョブの実行状態を表します。
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "done"
	StatusFailed    Status = "error"
)

// PurgeQuestionsPayload は削除済みテンプレートに残った問題を消すタスクのペイロードです。
type PurgeQuestionsPayload struct {
	JobID          string `json:"jobId"`
	QuizTemplateID string `json:"quizTemplateId"`
}

// PurgeOrphanPayload は資格情報のないアカウントを消すタスクのペイロードです。
type PurgeOrphanPayload struct {
	JobID     string `json:"jobId"`
	AccountID string `json:"accountId"`
}

// NewPurgeQuestionsTask はタスクを作成します。
func NewPurgeQuestionsTask(payload PurgeQuestionsPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePurgeQuestions, body, taskOptions(payload.JobID)...), nil
}

// NewPurgeOrphanTask はタスクを作成します。
func NewPurgeOrphanTask(payload PurgeOrphanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePurgeOrphan, body, taskOptions(payload.JobID)...), nil
}

func taskOptions(jobID string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueName),
		asynq.MaxRetry(MaxRetry),
		asynq.TaskID(jobID),
	}
}

// ErrorInfo はジョブ失敗時のエラー情報を保持します。
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Record はジョブの現在状態を表します。
type Record struct {
	JobID     string     `json:"jobId"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject"` // 対象のテンプレートIDまたはアカウントID
	Status    Status     `json:"status"`
	Deleted   int64      `json:"deleted"`
	Error     *ErrorInfo `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}
