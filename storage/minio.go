package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AirCue/config"
	"AirCue/logger"
	"AirCue/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio 初始化 MinIO 客户端并确保归档桶存在
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %v", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("创建存储桶失败: %v", err)
		}
		logger.Info("Created archive bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO connected",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient 返回全局 MinIO 客户端
func GetMinioClient() *minio.Client {
	return minioClient
}

// asRunRecord 播出归档文档
type asRunRecord struct {
	PlaylistID   string      `json:"playlistId"`
	PlaylistName string      `json:"playlistName"`
	StudioID     string      `json:"studioId"`
	ActivationID string      `json:"activationId"`
	Rehearsal    bool        `json:"rehearsal"`
	TakeCount    int         `json:"takeCount"`
	ArchivedAt   time.Time   `json:"archivedAt"`
	Parts        []asRunPart `json:"parts"`
}

type asRunPart struct {
	PartInstanceID string     `json:"partInstanceId"`
	PartID         string     `json:"partId"`
	Name           string     `json:"name"`
	TakeNumber     int        `json:"takeNumber"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	StoppedAt      *time.Time `json:"stoppedAt,omitempty"`
}

// AsRunArchiver 把一次播出会话的实例轨迹写入对象存储
type AsRunArchiver struct {
	client *minio.Client
	bucket string
}

func NewAsRunArchiver(client *minio.Client, bucket string) *AsRunArchiver {
	return &AsRunArchiver{client: client, bucket: bucket}
}

// Archive 上传 asrun/<playlistID>/<activationID>.json
func (a *AsRunArchiver) Archive(ctx context.Context, playlist *model.RundownPlaylist, activationID string, instances []*model.PartInstance) error {
	if a.client == nil {
		return fmt.Errorf("minio client not initialized")
	}

	record := asRunRecord{
		PlaylistID:   playlist.ID,
		PlaylistName: playlist.Name,
		StudioID:     playlist.StudioID,
		ActivationID: activationID,
		Rehearsal:    playlist.Rehearsal,
		TakeCount:    playlist.TakeCount,
		ArchivedAt:   time.Now(),
		Parts:        make([]asRunPart, 0, len(instances)),
	}
	for _, pi := range instances {
		record.Parts = append(record.Parts, asRunPart{
			PartInstanceID: pi.ID,
			PartID:         pi.PartID,
			Name:           pi.Name,
			TakeNumber:     pi.TakeNumber,
			StartedAt:      pi.StartedAt,
			StoppedAt:      pi.StoppedAt,
		})
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化归档记录失败: %v", err)
	}

	objectName := fmt.Sprintf("asrun/%s/%s.json", playlist.ID, activationID)
	_, err = a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("上传归档记录失败: %v", err)
	}

	logger.Info("Archived as-run record",
		logger.String("object", objectName),
		logger.Int("parts", len(record.Parts)))
	return nil
}
