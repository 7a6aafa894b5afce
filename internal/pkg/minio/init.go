package minio

import (
	"Courier/internal/api/config"
	"Courier/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const archiveRuleID = "WebhookArchiveExpireRule"

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
	// ArchiveBucket webhook 原始负载归档桶
	ArchiveBucket string
)

// Init 初始化 MinIO 客户端，确保归档桶与过期策略存在
func Init(cfg config.MinIOConfig) error {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("Created archive bucket", "bucket", cfg.Bucket)
	}

	Client = client
	ArchiveBucket = cfg.Bucket

	if cfg.RetentionDays <= 0 {
		return nil
	}
	return ensureArchiveLifecycle(ctx, cfg.RetentionDays)
}

// ensureArchiveLifecycle 归档前缀下的对象按天过期
func ensureArchiveLifecycle(ctx context.Context, days int) error {
	lcConfig, err := Client.GetBucketLifecycle(ctx, ArchiveBucket)
	if err != nil {
		lcConfig = lifecycle.NewConfiguration()
	}

	for _, rule := range lcConfig.Rules {
		if rule.Status == "Enabled" &&
			rule.RuleFilter.Prefix == consts.WebhookArchivePrefix &&
			int(rule.Expiration.Days) == days {
			log.Info("Archive lifecycle rule already present", "ruleID", rule.ID)
			return nil
		}
	}

	rules := make([]lifecycle.Rule, 0, len(lcConfig.Rules)+1)
	for _, rule := range lcConfig.Rules {
		if rule.ID != archiveRuleID {
			rules = append(rules, rule)
		}
	}
	rules = append(rules, lifecycle.Rule{
		ID:         archiveRuleID,
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: consts.WebhookArchivePrefix},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
	})
	lcConfig.Rules = rules

	if err = Client.SetBucketLifecycle(ctx, ArchiveBucket, lcConfig); err != nil {
		return fmt.Errorf("failed to set archive lifecycle: %w", err)
	}
	log.Info("Archive lifecycle rule installed", "days", days)
	return nil
}
