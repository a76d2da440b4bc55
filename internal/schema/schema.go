package schema

import (
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"github.com/yourusername/quiz-forge/internal/models"
)

// New は Resolver を使う GraphQL スキーマを組み立てます。
func New(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"username": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	questionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Question",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"answer":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"question":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"quizTemplateId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	quizTemplateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuizTemplate",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"questions": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(questionType))),
				Resolve: r.templateQuestions,
			},
		},
	})

	questionInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "QuestionInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"answer":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"question":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"quizTemplateId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	quizTemplateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "QuizTemplateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	idArgs := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
	}
	inputArgs := func(input *graphql.InputObject) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)},
		}
	}
	editArgs := func(input *graphql.InputObject) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)},
		}
	}

	questionQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuestionQuery",
		Fields: graphql.Fields{
			"all": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(questionType))),
				Resolve: r.allQuestions,
			},
			"byId": &graphql.Field{
				Type:    questionType,
				Args:    idArgs,
				Resolve: r.questionByID,
			},
		},
	})

	quizTemplateQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuizTemplateQuery",
		Fields: graphql.Fields{
			"all": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(quizTemplateType))),
				Resolve: r.allQuizTemplates,
			},
			"byId": &graphql.Field{
				Type:    quizTemplateType,
				Args:    idArgs,
				Resolve: r.quizTemplateByID,
			},
		},
	})

	questionMutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuestionMutation",
		Fields: graphql.Fields{
			"create": &graphql.Field{
				Type:    graphql.NewNonNull(questionType),
				Args:    inputArgs(questionInput),
				Resolve: r.createQuestion,
			},
			"edit": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    editArgs(questionInput),
				Resolve: r.editQuestion,
			},
			"deleteById": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    idArgs,
				Resolve: r.deleteQuestion,
			},
		},
	})

	quizTemplateMutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuizTemplateMutation",
		Fields: graphql.Fields{
			"create": &graphql.Field{
				Type:    graphql.NewNonNull(quizTemplateType),
				Args:    inputArgs(quizTemplateInput),
				Resolve: r.createQuizTemplate,
			},
			"edit": &graphql.Field{
				Type:    quizTemplateType,
				Args:    editArgs(quizTemplateInput),
				Resolve: r.editQuizTemplate,
			},
			"deleteById": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    idArgs,
				Resolve: r.deleteQuizTemplate,
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"apiVersion": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(graphql.ResolveParams) (any, error) {
					return APIVersion, nil
				},
			},
			"user": &graphql.Field{
				Type:    userType,
				Resolve: r.currentUser,
			},
			"question":     &graphql.Field{Type: graphql.NewNonNull(questionQuery), Resolve: namespace},
			"quizTemplate": &graphql.Field{Type: graphql.NewNonNull(quizTemplateQuery), Resolve: namespace},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"question":     &graphql.Field{Type: graphql.NewNonNull(questionMutation), Resolve: namespace},
			"quizTemplate": &graphql.Field{Type: graphql.NewNonNull(quizTemplateMutation), Resolve: namespace},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// namespace は question / quizTemplate のようなまとめ用フィールドのリゾルバーです。
func namespace(graphql.ResolveParams) (any, error) {
	return struct{}{}, nil
}

func userValue(a *models.Account) map[string]any {
	return map[string]any{
		"id":       a.ID,
		"username": a.Username,
	}
}

func questionValue(q models.Question) map[string]any {
	return map[string]any{
		"id":             q.ID,
		"answer":         q.Answer,
		"question":       q.Question,
		"quizTemplateId": q.QuizTemplateID,
	}
}

func quizTemplateValue(t models.QuizTemplate) map[string]any {
	return map[string]any{
		"id":     t.ID,
		"name":   t.Name,
		"userId": t.UserID,
	}
}

func questionValues(qs []models.Question) []map[string]any {
	out := make([]map[string]any, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionValue(q))
	}
	return out
}

func quizTemplateValues(ts []models.QuizTemplate) []map[string]any {
	out := make([]map[string]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, quizTemplateValue(t))
	}
	return out
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func inputArg(p graphql.ResolveParams) map[string]any {
	input, _ := p.Args["input"].(map[string]any)
	return input
}

func newID() string {
	return uuid.NewString()
}
