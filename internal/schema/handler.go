package schema

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"github.com/yourusername/quiz-forge/internal/logging"
)

type graphQLRequest struct {
	Query         string         `json:"query" form:"query"`
	OperationName string         `json:"operationName" form:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler は GET / POST /graphql のハンドラーを返します。
// auth.Middleware.LoadAccount の後に置くと、リゾルバーからログイン中のアカウントを参照できます。
func Handler(s graphql.Schema, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		var req graphQLRequest
		if c.Request.Method == http.MethodGet {
			req.Query = c.Query("query")
			req.OperationName = c.Query("operationName")
			if raw := c.Query("variables"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{
						"code":    "INVALID_INPUT",
						"message": "variables は JSON で指定してください",
					})
					return
				}
			}
		} else if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "query を JSON で送ってください",
			})
			return
		}

		if req.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "query が空です",
			})
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         s,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Request.Context(),
		})
		if result.HasErrors() {
			logging.FromContext(c, logger).DebugContext(c.Request.Context(), "graphql errors",
				"operation", req.OperationName, "errors", len(result.Errors))
		}
		c.JSON(http.StatusOK, result)
	}
}
