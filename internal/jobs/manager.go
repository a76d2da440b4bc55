package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/samber/oops"
)

// enqueuer は asynq.Client のうち Manager が使う部分です。
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Manager はジョブの投入と状態管理を担います。
type Manager struct {
	client enqueuer
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *Store
	logger *slog.Logger
}

// NewManager は Manager を初期化します。
func NewManager(opt asynq.RedisConnOpt, worker *Worker, store *Store, logger *slog.Logger) (*Manager, error) {
	if worker == nil {
		return nil, errors.New("worker is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: Concurrency,
		Queues: map[string]int{
			QueueName: 1,
		},
		Logger: newAsynqLogger(logger),
	})

	mux := asynq.NewServeMux()
	worker.Register(mux)

	return &Manager{
		client: asynq.NewClient(opt),
		server: server,
		mux:    mux,
		store:  store,
		logger: logger,
	}, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			m.logger.Error("asynq server stopped with error", "error", err)
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.server.Shutdown()
	return m.client.Close()
}

// ScheduleQuestionPurge はテンプレートに属する問題の削除を予約します。
func (m *Manager) ScheduleQuestionPurge(ctx context.Context, quizTemplateID string) error {
	jobID := uuid.NewString()
	task, err := NewPurgeQuestionsTask(PurgeQuestionsPayload{JobID: jobID, QuizTemplateID: quizTemplateID})
	if err != nil {
		return err
	}
	_, err = m.enqueue(ctx, task, &Record{JobID: jobID, Type: TypePurgeQuestions, Subject: quizTemplateID})
	return err
}

// ScheduleOrphanPurge は資格情報のないアカウントの削除を予約します。
func (m *Manager) ScheduleOrphanPurge(ctx context.Context, accountID string) error {
	jobID := uuid.NewString()
	task, err := NewPurgeOrphanTask(PurgeOrphanPayload{JobID: jobID, AccountID: accountID})
	if err != nil {
		return err
	}
	_, err = m.enqueue(ctx, task, &Record{JobID: jobID, Type: TypePurgeOrphan, Subject: accountID})
	return err
}

// GetRecord はジョブ情報を取得します。
func (m *Manager) GetRecord(ctx context.Context, jobID string) (*Record, error) {
	return m.store.Get(ctx, jobID)
}

func (m *Manager) enqueue(ctx context.Context, task *asynq.Task, record *Record) (string, error) {
	record.Status = StatusQueued
	if err := m.store.Upsert(ctx, record); err != nil {
		return "", oops.Code("JOB_RECORD_FAILED").With("job_id", record.JobID).Wrap(err)
	}

	info, err := m.client.EnqueueContext(ctx, task)
	if err != nil {
		if markErr := m.store.MarkFailed(ctx, record.JobID, &ErrorInfo{Code: "ENQUEUE_FAILED", Message: err.Error()}); markErr != nil {
			m.logger.WarnContext(ctx, "failed to update job record", "job_id", record.JobID, "error", markErr)
		}
		return "", oops.Code("JOB_ENQUEUE_FAILED").
			With("job_id", record.JobID).
			With("type", task.Type()).
			Wrap(err)
	}

	m.logger.InfoContext(ctx, "job enqueued", "job_id", info.ID, "type", task.Type(), "subject", record.Subject)
	return info.ID, nil
}
