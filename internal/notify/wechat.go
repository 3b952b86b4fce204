package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/models"
)

const (
	DefaultWeChatBaseURL = "https://api.weixin.qq.com"

	tokenRefreshBuffer = 5 * time.Minute
	defaultTokenTTL    = 7200
)

// Error codes meaning the access token is no longer valid.
const (
	wechatInvalidToken = 40001
	wechatExpiredToken = 42001
)

type (
	wechatTokenResponse struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		ErrCode     int    `json:"errcode"`
		ErrMsg      string `json:"errmsg"`
	}

	wechatTemplateMessage struct {
		ToUser     string                     `json:"touser"`
		TemplateID string                     `json:"template_id"`
		URL        string                     `json:"url,omitempty"`
		Data       map[string]wechatDataValue `json:"data"`
	}

	wechatDataValue struct {
		Value string `json:"value"`
	}

	wechatSendResponse struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
		MsgID   int64  `json:"msgid"`
	}
)

// WeChatNotifier sends an official-account template message. Each instance owns its
// access token cache.
type WeChatNotifier struct {
	cfg     config.WeChatConfig
	baseURL string
	client  *http.Client
	now     func() time.Time
	getenv  func(string) string
	// Used when the CI environment does not name the repository or branch.
	repoName string
	branch   string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type WeChatOption func(*WeChatNotifier)

func WithWeChatBaseURL(u string) WeChatOption {
	return func(n *WeChatNotifier) { n.baseURL = strings.TrimSuffix(u, "/") }
}

func WithWeChatHTTPClient(c *http.Client) WeChatOption {
	return func(n *WeChatNotifier) { n.client = c }
}

func WithWeChatClock(now func() time.Time) WeChatOption {
	return func(n *WeChatNotifier) { n.now = now }
}

func WithWeChatEnv(getenv func(string) string) WeChatOption {
	return func(n *WeChatNotifier) { n.getenv = getenv }
}

// WithWeChatRepository sets the repository and branch shown when the environment leaves them unset.
func WithWeChatRepository(name, branch string) WeChatOption {
	return func(n *WeChatNotifier) {
		n.repoName = name
		n.branch = branch
	}
}

func NewWeChatNotifier(cfg config.WeChatConfig, opts ...WeChatOption) *WeChatNotifier {
	n := &WeChatNotifier{
		cfg:     cfg,
		baseURL: DefaultWeChatBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *WeChatNotifier) Name() string { return "wechat" }

func (n *WeChatNotifier) IsEnabled() bool {
	return n.cfg.Enabled && n.cfg.AppID != "" && n.cfg.AppSecret != "" &&
		n.cfg.OpenID != "" && n.cfg.TemplateID != ""
}

func (n *WeChatNotifier) Send(ctx context.Context, msg models.NotificationMessage) error {
	token, err := n.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(n.templateMessage(msg))
	if err != nil {
		return fmt.Errorf("encoding template message: %w", err)
	}

	endpoint := n.baseURL + "/cgi-bin/message/template/send?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var result wechatSendResponse
	if err := n.do(req, &result); err != nil {
		return fmt.Errorf("sending template message: %w", err)
	}

	if result.ErrCode != 0 {
		if result.ErrCode == wechatInvalidToken || result.ErrCode == wechatExpiredToken {
			n.invalidateToken()
		}
		return fmt.Errorf("wechat rejected message: errcode=%d errmsg=%s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

func (n *WeChatNotifier) templateMessage(msg models.NotificationMessage) wechatTemplateMessage {
	branch := n.env("BRANCH_NAME")
	if branch == "" {
		branch = strings.TrimPrefix(n.getenv("GITHUB_REF"), "refs/heads/")
	}
	repo := orDefault(n.env("REPO_NAME"), n.repoName)
	branch = orDefault(branch, n.branch)

	data := map[string]wechatDataValue{
		"repo_name":      {Value: orDefault(repo, "unknown")},
		"branch_name":    {Value: orDefault(branch, "unknown")},
		"commit_author":  {Value: orDefault(n.env("COMMIT_AUTHOR"), msg.Metadata[models.MetaAuthorName])},
		"commit_message": {Value: orDefault(n.env("COMMIT_MESSAGE"), msg.Metadata[models.MetaCommitMessage])},
		"issue_stats":    {Value: msg.Metadata[models.MetaIssueStats]},
		"summary":        {Value: msg.Summary},
	}

	return wechatTemplateMessage{
		ToUser:     n.cfg.OpenID,
		TemplateID: n.cfg.TemplateID,
		URL:        msg.Link(),
		Data:       data,
	}
}

// accessToken returns the cached token, fetching a new one once now >= expiresAt.
func (n *WeChatNotifier) accessToken(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.token != "" && n.now().Before(n.expiresAt) {
		return n.token, nil
	}

	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", n.cfg.AppID)
	q.Set("secret", n.cfg.AppSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/cgi-bin/token?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	var result wechatTokenResponse
	if err := n.do(req, &result); err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	if result.ErrCode != 0 || result.AccessToken == "" {
		return "", fmt.Errorf("wechat token request failed: errcode=%d errmsg=%s", result.ErrCode, result.ErrMsg)
	}

	expiresIn := result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultTokenTTL
	}
	n.token = result.AccessToken
	n.expiresAt = n.now().Add(time.Duration(expiresIn)*time.Second - tokenRefreshBuffer)

	return n.token, nil
}

func (n *WeChatNotifier) invalidateToken() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.token = ""
	n.expiresAt = time.Time{}
}

func (n *WeChatNotifier) do(req *http.Request, out interface{}) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (n *WeChatNotifier) env(key string) string {
	return strings.TrimSpace(n.getenv(key))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
