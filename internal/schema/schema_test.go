package schema

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-forge/internal/auth"
	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/models"
	"github.com/yourusername/quiz-forge/internal/store"
	"github.com/yourusername/quiz-forge/internal/store/memory"
)

var (
	alice = &models.Account{ID: "acc-alice", Username: "alice"}
	bob   = &models.Account{ID: "acc-bob", Username: "bob"}
)

type recordingPurger struct {
	scheduled []string
	err       error
}

func (p *recordingPurger) ScheduleQuestionPurge(_ context.Context, id string) error {
	if p.err != nil {
		return p.err
	}
	p.scheduled = append(p.scheduled, id)
	return nil
}

type fixture struct {
	schema    graphql.Schema
	resolver  *Resolver
	questions *memory.Repository[models.Question]
	templates *memory.Repository[models.QuizTemplate]
}

func newFixture(t *testing.T, purger QuestionPurger) *fixture {
	t.Helper()
	f := &fixture{
		questions: memory.New(models.QuestionUpdateDoc),
		templates: memory.New(models.QuizTemplateUpdateDoc),
	}
	f.resolver = &Resolver{
		Questions:     f.questions,
		QuizTemplates: f.templates,
		Purger:        purger,
		Logger:        logging.Discard(),
	}
	s, err := New(f.resolver)
	require.NoError(t, err)
	f.schema = s
	return f
}

func (f *fixture) exec(t *testing.T, account *models.Account, query string, vars map[string]any) *graphql.Result {
	t.Helper()
	ctx := context.Background()
	if account != nil {
		ctx = auth.WithAccount(ctx, account)
	}
	return graphql.Do(graphql.Params{
		Schema:         f.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}

func (f *fixture) seedTemplate(t *testing.T, id string, owner *models.Account) {
	t.Helper()
	_, err := f.templates.Create(context.Background(), models.QuizTemplate{ID: id, Name: "tmpl " + id, UserID: owner.ID})
	require.NoError(t, err)
}

func (f *fixture) seedQuestion(t *testing.T, id, templateID string) {
	t.Helper()
	_, err := f.questions.Create(context.Background(), models.Question{
		ID: id, Question: "q " + id, Answer: "a " + id, QuizTemplateID: templateID,
	})
	require.NoError(t, err)
}

func data(t *testing.T, res *graphql.Result) map[string]any {
	t.Helper()
	require.False(t, res.HasErrors(), "unexpected errors: %v", res.Errors)
	d, ok := res.Data.(map[string]any)
	require.True(t, ok)
	return d
}

func path(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func errorMessage(res *graphql.Result) string {
	if len(res.Errors) == 0 {
		return ""
	}
	return res.Errors[0].Message
}

func TestQueryAPIVersionAndUser(t *testing.T) {
	f := newFixture(t, nil)

	d := data(t, f.exec(t, nil, `{ apiVersion user { id username } }`, nil))
	assert.Equal(t, APIVersion, d["apiVersion"])
	assert.Nil(t, d["user"])

	d = data(t, f.exec(t, alice, `{ user { id username } }`, nil))
	assert.Equal(t, "alice", path(d, "user", "username"))
	assert.Equal(t, alice.ID, path(d, "user", "id"))
}

func TestQueryTemplatesWithQuestions(t *testing.T) {
	f := newFixture(t, nil)
	f.seedTemplate(t, "t1", alice)
	f.seedTemplate(t, "t2", bob)
	f.seedQuestion(t, "q1", "t1")
	f.seedQuestion(t, "q2", "t1")
	f.seedQuestion(t, "q3", "t2")

	d := data(t, f.exec(t, nil, `{ quizTemplate { byId(id: "t1") { name userId questions { id } } } }`, nil))
	tmpl := path(d, "quizTemplate", "byId").(map[string]any)
	assert.Equal(t, "tmpl t1", tmpl["name"])
	assert.Equal(t, alice.ID, tmpl["userId"])
	assert.Len(t, tmpl["questions"], 2)

	d = data(t, f.exec(t, nil, `{ quizTemplate { all { id } } question { all { id } } }`, nil))
	assert.Len(t, path(d, "quizTemplate", "all"), 2)
	assert.Len(t, path(d, "question", "all"), 3)

	d = data(t, f.exec(t, nil, `{ question { byId(id: "missing") { id } } quizTemplate { byId(id: "missing") { id } } }`, nil))
	assert.Nil(t, path(d, "question", "byId"))
	assert.Nil(t, path(d, "quizTemplate", "byId"))
}

func TestMutationsRequireLogin(t *testing.T) {
	f := newFixture(t, nil)

	res := f.exec(t, nil, `mutation { quizTemplate { create(input: {name: "x"}) { id } } }`, nil)
	require.True(t, res.HasErrors())
	assert.Equal(t, ErrLoginRequired.Error(), errorMessage(res))

	all, err := f.templates.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQuizTemplateLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	d := data(t, f.exec(t, alice, `mutation { quizTemplate { create(input: {name: "Capitals"}) { id name userId } } }`, nil))
	created := path(d, "quizTemplate", "create").(map[string]any)
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, alice.ID, created["userId"])

	vars := map[string]any{"id": id}
	d = data(t, f.exec(t, alice, `mutation($id: ID!) { quizTemplate { edit(id: $id, input: {name: "World capitals"}) { name } } }`, vars))
	assert.Equal(t, "World capitals", path(d, "quizTemplate", "edit", "name"))

	res := f.exec(t, bob, `mutation($id: ID!) { quizTemplate { edit(id: $id, input: {name: "mine"}) { name } } }`, vars)
	assert.Equal(t, ErrForbidden.Error(), errorMessage(res))

	res = f.exec(t, bob, `mutation($id: ID!) { quizTemplate { deleteById(id: $id) } }`, vars)
	assert.Equal(t, ErrForbidden.Error(), errorMessage(res))

	d = data(t, f.exec(t, alice, `mutation($id: ID!) { quizTemplate { deleteById(id: $id) } }`, vars))
	assert.Equal(t, true, path(d, "quizTemplate", "deleteById"))

	d = data(t, f.exec(t, alice, `mutation($id: ID!) { quizTemplate { deleteById(id: $id) } }`, vars))
	assert.Equal(t, false, path(d, "quizTemplate", "deleteById"))
}

func TestQuestionLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	f.seedTemplate(t, "t1", alice)
	f.seedTemplate(t, "t2", alice)
	f.seedTemplate(t, "t3", bob)

	create := `mutation($t: ID!) { question { create(input: {question: "2+2?", answer: "4", quizTemplateId: $t}) { id quizTemplateId } } }`
	d := data(t, f.exec(t, alice, create, map[string]any{"t": "t1"}))
	id := path(d, "question", "create", "id").(string)

	res := f.exec(t, alice, create, map[string]any{"t": "unknown"})
	assert.Equal(t, ErrTemplateNotFound.Error(), errorMessage(res))

	res = f.exec(t, alice, create, map[string]any{"t": "t3"})
	assert.Equal(t, ErrForbidden.Error(), errorMessage(res))

	edit := `mutation($id: ID!, $t: ID!) { question { edit(id: $id, input: {question: "3+3?", answer: "6", quizTemplateId: $t}) } }`
	d = data(t, f.exec(t, alice, edit, map[string]any{"id": id, "t": "t2"}))
	assert.Equal(t, true, path(d, "question", "edit"))

	moved, err := f.questions.ReadByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "t2", moved.QuizTemplateID)
	assert.Equal(t, "3+3?", moved.Question)

	res = f.exec(t, alice, edit, map[string]any{"id": id, "t": "t3"})
	assert.Equal(t, ErrForbidden.Error(), errorMessage(res))

	d = data(t, f.exec(t, alice, edit, map[string]any{"id": "missing", "t": "t1"}))
	assert.Equal(t, false, path(d, "question", "edit"))

	res = f.exec(t, bob, `mutation($id: ID!) { question { deleteById(id: $id) } }`, map[string]any{"id": id})
	assert.Equal(t, ErrForbidden.Error(), errorMessage(res))

	d = data(t, f.exec(t, alice, `mutation($id: ID!) { question { deleteById(id: $id) } }`, map[string]any{"id": id}))
	assert.Equal(t, true, path(d, "question", "deleteById"))
}

func TestDeleteTemplatePurgesQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("inline without purger", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedTemplate(t, "t1", alice)
		f.seedQuestion(t, "q1", "t1")
		f.seedQuestion(t, "q2", "t1")

		data(t, f.exec(t, alice, `mutation { quizTemplate { deleteById(id: "t1") } }`, nil))
		left, err := f.questions.ReadByFilter(ctx, store.Filter{"quiz_template_id": "t1"})
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("scheduled through purger", func(t *testing.T) {
		purger := &recordingPurger{}
		f := newFixture(t, purger)
		f.seedTemplate(t, "t1", alice)
		f.seedQuestion(t, "q1", "t1")

		data(t, f.exec(t, alice, `mutation { quizTemplate { deleteById(id: "t1") } }`, nil))
		assert.Equal(t, []string{"t1"}, purger.scheduled)
		left, err := f.questions.ReadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, left, 1)
	})

	t.Run("falls back inline when scheduling fails", func(t *testing.T) {
		f := newFixture(t, &recordingPurger{err: errors.New("redis: connection refused")})
		f.seedTemplate(t, "t1", alice)
		f.seedQuestion(t, "q1", "t1")

		data(t, f.exec(t, alice, `mutation { quizTemplate { deleteById(id: "t1") } }`, nil))
		left, err := f.questions.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Account") == "alice" {
			c.Request = c.Request.WithContext(auth.WithAccount(c.Request.Context(), alice))
		}
		c.Next()
	})
	h := Handler(f.schema, logging.Discard())
	r.GET("/graphql", h)
	r.POST("/graphql", h)

	t.Run("GET", func(t *testing.T) {
		q := url.Values{"query": {"{ apiVersion }"}}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"apiVersion":"1.0"}}`, w.Body.String())
	})

	t.Run("POST with variables", func(t *testing.T) {
		body := `{"query":"mutation($n: String!) { quizTemplate { create(input: {name: $n}) { name } } }","variables":{"n":"Rivers"}}`
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Account", "alice")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"quizTemplate":{"create":{"name":"Rivers"}}}}`, w.Body.String())
	})

	t.Run("empty query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad variables", func(t *testing.T) {
		q := url.Values{"query": {"{ apiVersion }"}, "variables": {"{not json"}}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
