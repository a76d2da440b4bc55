package schema

import (
	"errors"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/yourusername/quiz-forge/internal/auth"
	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/store"
)

func (r *Resolver) currentUser(p graphql.ResolveParams) (any, error) {
	account, ok := auth.AccountFromContext(p.Context)
	if !ok {
		return nil, nil
	}
	return userValue(account), nil
}

func (r *Resolver) allQuestions(p graphql.ResolveParams) (any, error) {
	qs, err := r.Questions.ReadAll(p.Context)
	if err != nil {
		return nil, r.internal(p.Context, "failed to read questions", err)
	}
	return questionValues(qs), nil
}

func (r *Resolver) questionByID(p graphql.ResolveParams) (any, error) {
	q, err := r.Questions.ReadByID(p.Context, stringArg(p.Args, "id"))
	if err != nil {
		return nil, r.internal(p.Context, "failed to read question", err)
	}
	if q == nil {
		return nil, nil
	}
	return questionValue(*q), nil
}

func (r *Resolver) allQuizTemplates(p graphql.ResolveParams) (any, error) {
	ts, err := r.QuizTemplates.ReadAll(p.Context)
	if err != nil {
		return nil, r.internal(p.Context, "failed to read quiz templates", err)
	}
	return quizTemplateValues(ts), nil
}

func (r *Resolver) quizTemplateByID(p graphql.ResolveParams) (any, error) {
	t, err := r.QuizTemplates.ReadByID(p.Context, stringArg(p.Args, "id"))
	if err != nil {
		return nil, r.internal(p.Context, "failed to read quiz template", err)
	}
	if t == nil {
		return nil, nil
	}
	return quizTemplateValue(*t), nil
}

// templateQuestions は QuizTemplate.questions のリゾルバーです。
func (r *Resolver) templateQuestions(p graphql.ResolveParams) (any, error) {
	source, _ := p.Source.(map[string]any)
	id, _ := source["id"].(string)
	qs, err := r.Questions.ReadByFilter(p.Context, store.Filter{"quiz_template_id": id})
	if err != nil {
		return nil, r.internal(p.Context, "failed to read template questions", err)
	}
	return questionValues(qs), nil
}

func (r *Resolver) createQuestion(p graphql.ResolveParams) (any, error) {
	account, err := requireAccount(p.Context)
	if err != nil {
		return nil, err
	}
	q := questionFromInput(inputArg(p))
	if strings.TrimSpace(q.Question) == "" {
		return nil, ErrInvalidInput
	}
	if _, err := r.ownedTemplate(p.Context, account, q.QuizTemplateID); err != nil {
		return nil, err
	}

	q.ID = newID()
	created, err := r.Questions.Create(p.Context, q)
	if err != nil {
		return nil, r.internal(p.Context, "failed to create question", err)
	}
	return questionValue(created), nil
}

func (r *Resolver) editQuestion(p graphql.ResolveParams) (any, error) {
	account, err := requireAccount(p.Context)
	if err != nil {
		return nil, err
	}
	id := stringArg(p.Args, "id")
	q := questionFromInput(inputArg(p))
	if strings.TrimSpace(q.Question) == "" {
		return nil, ErrInvalidInput
	}

	current, err := r.Questions.ReadByID(p.Context, id)
	if err != nil {
		return nil, r.internal(p.Context, "failed to read question", err)
	}
	if current == nil {
		return false, nil
	}
	// 移動元と移動先の両方が自分のテンプレートである必要がある
	if _, err := r.ownedTemplate(p.Context, account, current.QuizTemplateID); err != nil {
		return nil, err
	}
	if q.QuizTemplateID != current.QuizTemplateID {
		if _, err := r.ownedTemplate(p.Context, account, q.QuizTemplateID); err != nil {
			return nil, err
		}
	}

	q.ID = id
	updated, err := r.Questions.UpdateByID(p.Context, id, q)
	if err != nil {
		return nil, r.internal(p.Context, "failed to update question", err)
	}
	return updated, nil
}

func (r *Resolver) deleteQuestion(p graphql.ResolveParams) (any, error) {
	account, err := requireAccount(p.Context)
	if err != nil {
		return nil, err
	}
	id := stringArg(p.Args, "id")

	current, err := r.Questions.ReadByID(p.Context, id)
	if err != nil {
		return nil, r.internal(p.Context, "failed to read question", err)
	}
	if current == nil {
		return false, nil
	}
	if _, err := r.ownedTemplate(p.Context, account, current.QuizTemplateID); err != nil {
		return nil, err
	}

	deleted, err := r.Questions.DeleteByID(p.Context, id)
	if err != nil {
		return nil, r.internal(p.Context, "failed to delete question", err)
	}
	return deleted, nil
}

func (r *Resolver) createQuizTemplate(p graphql.ResolveParams) (any, error) {
	account, err := requireAccount(p.Context)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(stringArg(inputArg(p), "name"))
	if name == "" {
		return nil, ErrInvalidInput
	}

	created, err := r.QuizTemplates.Create(p.Context, models.QuizTemplate{
		ID:     newID(),
		Name:   name,
		UserID: account.ID,
	})
	if err != nil {
		return nil, r.internal(p.Context, "failed to create quiz template", err)
	}
	return quizTemplateValue(created), nil
}

func (r *Resolver) editQuizTemplate(p graphql.ResolveParams) (any, error) {
	account, err := requireAccount(p.Context)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(stringArg(inputArg(p), "name"))
	if name == "" {
		return nil, ErrInvalidInput
	}

	tmpl, err := r.ownedTemplate(p.Context, account, stringArg(p.Args, "id"))
	if err != nil {
		return nil, err
	}
	tmpl.Name = name

	ok, err := r.QuizTemplates.UpdateByID(p.Context, tmpl.ID, *tmpl)
	if err != nil {
		return nil, r.internal(p.Context, "failed to update quiz template", err)
	}
	if !ok {
		return nil, nil
	}
	return quizTemplateValue(*tmpl), nil
}

func (r *Resolver) deleteQuizTemplate(p graphql.ResolveParams) (any, error) {
	account, err := requireAccount(p.Context)
	if err != nil {
		return nil, err
	}
	tmpl, err := r.ownedTemplate(p.Context, account, stringArg(p.Args, "id"))
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return false, nil
		}
		return nil, err
	}

	deleted, err := r.QuizTemplates.DeleteByID(p.Context, tmpl.ID)
	if err != nil {
		return nil, r.internal(p.Context, "failed to delete quiz template", err)
	}
	if !deleted {
		return false, nil
	}
	if err := r.purgeQuestions(p.Context, tmpl.ID); err != nil {
		return nil, r.internal(p.Context, "failed to purge questions", err)
	}
	return true, nil
}

func questionFromInput(input map[string]any) models.Question {
	return models.Question{
		Answer:         stringArg(input, "answer"),
		Question:       stringArg(input, "question"),
		QuizTemplateID: stringArg(input, "quizTemplateId"),
	}
}
