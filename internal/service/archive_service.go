package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"exam_sync_backend/internal/config"
	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/util"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider 原始报告快照的存储后端
type StorageProvider interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// LocalStorageProvider 本地目录实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	dst := filepath.Join(p.Config.LocalPath, objectName)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// MinioStorageProvider MinIO 实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// ArchiveService 把门户原始 JSON 快照归档，便于事后排查解析问题。
// 归档失败只产生 warning，不影响同步本身。
type ArchiveService struct {
	Provider StorageProvider
	Enabled  bool
}

func NewArchiveService(cfg *config.Config) (*ArchiveService, error) {
	switch cfg.Storage.Type {
	case util.StorageMinio:
		provider, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			return nil, err
		}
		return &ArchiveService{Provider: provider, Enabled: true}, nil
	case util.StorageLocal:
		return &ArchiveService{Provider: &LocalStorageProvider{Config: &cfg.Storage}, Enabled: true}, nil
	default:
		return &ArchiveService{Enabled: false}, nil
	}
}

func (s *ArchiveService) ArchiveReport(ctx context.Context, userID uint, report *model.RawExamReport) error {
	if !s.Enabled || s.Provider == nil {
		return nil
	}
	objectName := fmt.Sprintf("reports/%d/%s/%s-%s.json",
		userID,
		time.Now().Format(util.DateFormat),
		report.ExternalExamID,
		uuid.New().String(),
	)
	return s.Provider.Put(ctx, objectName, report.RawPayload, "application/json")
}
