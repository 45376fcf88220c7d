package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"exam_sync_backend/internal/config"
	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/normalize"
	"exam_sync_backend/internal/util"
)

// PortalClient 考试门户的 HTTP 取数端。登录流程由外部浏览器自动化完成后
// 换发的 API 凭据走这里；本端只负责拿到 JSON 并交给探针层解码。
type PortalClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewPortalClient(cfg *config.PortalConfig) *PortalClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PortalClient{
		BaseURL: cfg.BaseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type portalLoginResponse struct {
	Token string `json:"token"`
}

func (c *PortalClient) login(ctx context.Context, creds model.SyncCredentials) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", util.ErrCredentialFailure
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("portal login returned status %d", resp.StatusCode)
	}

	var out portalLoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", util.ErrCredentialFailure
	}
	return out.Token, nil
}

// FetchReports 登录后拉取全部考试结果并逐份解码。
// 单份报告解码失败记 warning 跳过；缺失考试 ID 属硬错误，整批中止。
func (c *PortalClient) FetchReports(ctx context.Context, creds model.SyncCredentials, filters model.SyncFilters) ([]model.RawExamReport, []string, error) {
	token, err := c.login(ctx, creds)
	if err != nil {
		return nil, nil, err
	}

	url := c.BaseURL + "/api/results"
	sep := "?"
	if filters.From != "" {
		url += sep + "from=" + filters.From
		sep = "&"
	}
	if filters.To != "" {
		url += sep + "to=" + filters.To
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("portal results returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var envelope normalize.Payload
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("undecodable results envelope: %w", err)
	}

	var (
		reports  []model.RawExamReport
		warnings []string
	)
	for i, item := range normalize.ProbeList(envelope, "results", "tests", "data") {
		raw, err := json.Marshal(item)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("result %d: re-encode failed: %v", i+1, err))
			continue
		}
		report, decodeWarnings, err := normalize.DecodeReport(raw)
		if errors.Is(err, normalize.ErrMissingExamID) {
			return nil, warnings, err
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("result %d: %v", i+1, err))
			continue
		}
		warnings = append(warnings, decodeWarnings...)
		reports = append(reports, *report)
	}
	return reports, warnings, nil
}
