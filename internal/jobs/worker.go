// Package jobs は非同期のメンテナンスジョブを提供します。
//
// テンプレート削除後の問題の一括削除と、サインアップ途中で残った
// 資格情報のないアカウントの削除を asynq のタスクとして実行します。
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/store"
)

// Worker はタスクを処理します。
type Worker struct {
	questions   store.Repository[models.Question]
	accounts    store.Repository[models.Account]
	credentials store.Repository[models.Credential]
	records     *Store
	logger      *slog.Logger
}

// NewWorker は Worker を作成します。records が nil の場合、ジョブ状態は記録しません。
func NewWorker(
	questions store.Repository[models.Question],
	accounts store.Repository[models.Account],
	credentials store.Repository[models.Credential],
	records *Store,
	logger *slog.Logger,
) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		questions:   questions,
		accounts:    accounts,
		credentials: credentials,
		records:     records,
		logger:      logger,
	}
}

// Register はタスク種別ごとのハンドラーを登録します。
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePurgeQuestions, w.HandlePurgeQuestions)
	mux.HandleFunc(TypePurgeOrphan, w.HandlePurgeOrphan)
}

// HandlePurgeQuestions はテンプレートに属する問題をすべて削除します。
func (w *Worker) HandlePurgeQuestions(ctx context.Context, task *asynq.Task) error {
	var payload PurgeQuestionsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.QuizTemplateID == "" {
		return fmt.Errorf("missing quizTemplateId in payload: %w", asynq.SkipRetry)
	}

	return w.run(ctx, payload.JobID, func() (int64, error) {
		return w.questions.DeleteByFilter(ctx, store.Filter{"quiz_template_id": payload.QuizTemplateID})
	})
}

// HandlePurgeOrphan はアカウントに資格情報がまだない場合だけアカウントを削除します。
func (w *Worker) HandlePurgeOrphan(ctx context.Context, task *asynq.Task) error {
	var payload PurgeOrphanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.AccountID == "" {
		return fmt.Errorf("missing accountId in payload: %w", asynq.SkipRetry)
	}

	return w.run(ctx, payload.JobID, func() (int64, error) {
		creds, err := w.credentials.ReadByFilter(ctx, store.Filter{"account_id": payload.AccountID})
		if err != nil {
			return 0, err
		}
		if len(creds) > 0 {
			w.logger.InfoContext(ctx, "account has credential, keeping it", "account_id", payload.AccountID)
			return 0, nil
		}
		deleted, err := w.accounts.DeleteByID(ctx, payload.AccountID)
		if err != nil || !deleted {
			return 0, err
		}
		return 1, nil
	})
}

// run はジョブ状態を更新しながら処理を実行します。
func (w *Worker) run(ctx context.Context, jobID string, fn func() (int64, error)) error {
	w.mark(ctx, jobID, func() error { return w.records.MarkRunning(ctx, jobID) })

	deleted, err := fn()
	if err != nil {
		logging.Error(ctx, w.logger, "maintenance job failed", err)
		w.mark(ctx, jobID, func() error {
			return w.records.MarkFailed(ctx, jobID, &ErrorInfo{Code: "INTERNAL_ERROR", Message: err.Error()})
		})
		return err
	}

	w.logger.InfoContext(ctx, "maintenance job finished", "job_id", jobID, "deleted", deleted)
	w.mark(ctx, jobID, func() error { return w.records.MarkDone(ctx, jobID, deleted) })
	return nil
}

func (w *Worker) mark(ctx context.Context, jobID string, update func() error) {
	if w.records == nil || jobID == "" {
		return
	}
	if err := update(); err != nil {
		w.logger.WarnContext(ctx, "failed to update job record", "job_id", jobID, "error", err)
	}
}
