// Package schema は GraphQL のクエリ・ミューテーションを提供します。
//
// クイズテンプレートと問題の読み書きは誰でも参照でき、変更はログイン中の
// アカウントだけが自分のテンプレートに対して行えます。
package schema

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/yourusername/quiz-forge/internal/auth"
	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/store"
)

// APIVersion は apiVersion クエリが返す値です。
const APIVersion = "1.0"

// クライアントに返すエラーです。内部エラーの詳細は返しません。
var (
	ErrLoginRequired    = errors.New("login required")
	ErrForbidden        = errors.New("not allowed to modify this quiz template")
	ErrTemplateNotFound = errors.New("quiz template not found")
	ErrInvalidInput     = errors.New("invalid input")
	errInternal         = errors.New("internal server error")
)

// QuestionPurger はテンプレート削除後に残った問題の削除を非同期に予約します。
type QuestionPurger interface {
	ScheduleQuestionPurge(ctx context.Context, quizTemplateID string) error
}

// Resolver は GraphQL のリゾルバーが使うリポジトリをまとめたものです。
type Resolver struct {
	Questions     store.Repository[models.Question]
	QuizTemplates store.Repository[models.QuizTemplate]
	// Purger が nil の場合、問題の削除はリクエスト内で行います。
	Purger QuestionPurger
	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// requireAccount はログイン中のアカウントを返します。
func requireAccount(ctx context.Context) (*models.Account, error) {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return nil, ErrLoginRequired
	}
	return account, nil
}

// ownedTemplate はテンプレートを読み込み、アカウントの所有であることを確認します。
func (r *Resolver) ownedTemplate(ctx context.Context, account *models.Account, id string) (*models.QuizTemplate, error) {
	tmpl, err := r.QuizTemplates.ReadByID(ctx, id)
	if err != nil {
		return nil, r.internal(ctx, "failed to read quiz template", err)
	}
	if tmpl == nil {
		return nil, ErrTemplateNotFound
	}
	if tmpl.UserID != account.ID {
		return nil, ErrForbidden
	}
	return tmpl, nil
}

// internal はエラーを記録し、クライアント向けの汎用エラーに置き換えます。
func (r *Resolver) internal(ctx context.Context, msg string, err error) error {
	logging.Error(ctx, r.logger(), msg, oops.Code("GRAPHQL_STORE_FAILED").Wrap(err))
	return errInternal
}

// purgeQuestions はテンプレートに属する問題を削除します。
// 予約に失敗した場合はその場で削除します。
func (r *Resolver) purgeQuestions(ctx context.Context, quizTemplateID string) error {
	if r.Purger != nil {
		err := r.Purger.ScheduleQuestionPurge(ctx, quizTemplateID)
		if err == nil {
			return nil
		}
		r.logger().WarnContext(ctx, "failed to schedule question purge, deleting inline",
			"quiz_template_id", quizTemplateID, "error", err)
	}
	n, err := r.Questions.DeleteByFilter(ctx, store.Filter{"quiz_template_id": quizTemplateID})
	if err != nil {
		return err
	}
	r.logger().DebugContext(ctx, "purged questions", "quiz_template_id", quizTemplateID, "deleted", n)
	return nil
}
