package main

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/quiz-forge/internal/config"
	"github.com/yourusername/quiz-forge/internal/jobs"
	"github.com/yourusername/quiz-forge/internal/logging"
)

func setupJobs(cfg *config.Config, rdb redis.UniversalClient, repos *repositories, logger *slog.Logger) (*jobs.Manager, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	ttlMinutes := cfg.JobExpireMinutes
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	records := jobs.NewStore(rdb, time.Duration(ttlMinutes)*time.Minute)
	worker := jobs.NewWorker(repos.questions, repos.accounts, repos.credentials, records, logger)
	return jobs.NewManager(opt, worker, records, logger)
}

func jobStatusHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		if strings.TrimSpace(jobID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "jobId を指定してください。",
			})
			return
		}

		record, err := manager.GetRecord(c.Request.Context(), jobID)
		if err != nil {
			logging.Error(c.Request.Context(), logging.FromContext(c, slog.Default()), "failed to load job record", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ジョブ情報の取得に失敗しました。",
			})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "JOB_NOT_FOUND",
				"message": "指定されたジョブは存在しません。",
			})
			return
		}

		payload := gin.H{
			"jobId":     record.JobID,
			"type":      record.Type,
			"subject":   record.Subject,
			"status":    record.Status,
			"deleted":   record.Deleted,
			"updatedAt": record.UpdatedAt,
		}
		if record.Error != nil {
			payload["error"] = record.Error
		}

		c.JSON(http.StatusOK, payload)
	}
}
