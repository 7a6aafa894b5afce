package minio

import (
	"Courier/internal/pkg/consts"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ArchiveObjectName 归档对象按日期分目录：webhooks/2006/01/02/<uuid>.json
func ArchiveObjectName(now time.Time, id string) string {
	return fmt.Sprintf("%s%s/%s.json", consts.WebhookArchivePrefix, now.UTC().Format("2006/01/02"), id)
}

// ArchivePayload 保存原始 webhook 负载，返回对象名
func ArchivePayload(ctx context.Context, raw []byte) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	objectName := ArchiveObjectName(time.Now(), uuid.NewString())
	info, err := Client.PutObject(ctx, ArchiveBucket, objectName, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive payload: %w", err)
	}
	return info.Key, nil
}
