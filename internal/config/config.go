package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/thomas-vilte/matereview/internal/errors"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Language     string             `toml:"language" yaml:"language"`
		RepoPath     string             `toml:"repo_path,omitempty" yaml:"repo_path,omitempty"`
		AI           AIConfig           `toml:"ai" yaml:"ai"`
		Report       ReportConfig       `toml:"report" yaml:"report"`
		Notification NotificationConfig `toml:"notification" yaml:"notification"`
		Cache        CacheConfig        `toml:"cache" yaml:"cache"`

		// PathFile is the file the configuration was loaded from, "" when only defaults and env apply.
		PathFile string `toml:"-" yaml:"-"`
	}

	AIConfig struct {
		APIURL         string        `toml:"api_url" yaml:"api_url"`
		Model          string        `toml:"model" yaml:"model"`
		APIKey         string        `toml:"api_key,omitempty" yaml:"api_key,omitempty"`
		APIKeyEnv      string        `toml:"api_key_env" yaml:"api_key_env"`
		Temperature    float64       `toml:"temperature" yaml:"temperature"`
		MaxTokens      int           `toml:"max_tokens" yaml:"max_tokens"`
		RetryLimit     int           `toml:"retry_limit" yaml:"retry_limit"`
		BaseDelay      time.Duration `toml:"base_delay" yaml:"base_delay"`
		ConnectTimeout time.Duration `toml:"connect_timeout" yaml:"connect_timeout"`
		ReadTimeout    time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	}

	ReportConfig struct {
		Backend  string `toml:"backend" yaml:"backend"` // "local", "github" or "none"
		Dir      string `toml:"dir" yaml:"dir"`
		RepoURL  string `toml:"repo_url,omitempty" yaml:"repo_url,omitempty"`
		Branch   string `toml:"branch" yaml:"branch"`
		Token    string `toml:"token,omitempty" yaml:"token,omitempty"`
		TokenEnv string `toml:"token_env" yaml:"token_env"`
	}

	NotificationConfig struct {
		WeChat        WeChatConfig        `toml:"wechat" yaml:"wechat"`
		Webhook       WebhookConfig       `toml:"webhook" yaml:"webhook"`
		CommitComment CommitCommentConfig `toml:"commit_comment" yaml:"commit_comment"`
	}

	WeChatConfig struct {
		Enabled    bool   `toml:"enabled" yaml:"enabled"`
		AppID      string `toml:"app_id,omitempty" yaml:"app_id,omitempty"`
		AppSecret  string `toml:"app_secret,omitempty" yaml:"app_secret,omitempty"`
		OpenID     string `toml:"open_id,omitempty" yaml:"open_id,omitempty"`
		TemplateID string `toml:"template_id,omitempty" yaml:"template_id,omitempty"`
	}

	WebhookConfig struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		URL     string `toml:"url,omitempty" yaml:"url,omitempty"`
	}

	// CommitCommentConfig posts on the reviewed commit. Owner and Repo default to the origin remote.
	CommitCommentConfig struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Owner   string `toml:"owner,omitempty" yaml:"owner,omitempty"`
		Repo    string `toml:"repo,omitempty" yaml:"repo,omitempty"`
	}

	CacheConfig struct {
		Enabled bool          `toml:"enabled" yaml:"enabled"`
		Dir     string        `toml:"dir,omitempty" yaml:"dir,omitempty"`
		TTL     time.Duration `toml:"ttl" yaml:"ttl"`
	}
)

const (
	BackendLocal  = "local"
	BackendGitHub = "github"
	BackendNone   = "none"
)

const (
	defaultAPIURL         = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultModel          = "qwen-flash"
	defaultAPIKeyEnv      = "OPENAI_API_KEY"
	defaultTemperature    = 0.7
	defaultMaxTokens      = 4000
	defaultRetryLimit     = 3
	defaultBaseDelay      = time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultReportBackend  = BackendLocal
	defaultReportDir      = "code-review-records"
	defaultBranch         = "main"
	defaultTokenEnv       = "CODE_TOKEN"
	defaultCacheTTL       = 24 * time.Hour
	maxRetryLimit         = 10
)

// FileNames are searched, in order, in the working directory when no explicit path is given.
var FileNames = []string{".matereview.toml", ".matereview.yaml", ".matereview.yml"}

// Default returns a configuration holding only built-in defaults.
func Default() *Config {
	return &Config{
		Language: LangEN,
		AI: AIConfig{
			APIURL:         defaultAPIURL,
			Model:          defaultModel,
			APIKeyEnv:      defaultAPIKeyEnv,
			Temperature:    defaultTemperature,
			MaxTokens:      defaultMaxTokens,
			RetryLimit:     defaultRetryLimit,
			BaseDelay:      defaultBaseDelay,
			ConnectTimeout: defaultConnectTimeout,
			ReadTimeout:    defaultReadTimeout,
		},
		Report: ReportConfig{
			Backend:  defaultReportBackend,
			Dir:      defaultReportDir,
			Branch:   defaultBranch,
			TokenEnv: defaultTokenEnv,
		},
		Cache: CacheConfig{
			TTL: defaultCacheTTL,
		},
	}
}

// LoadConfig resolves the configuration from defaults, the config file and the environment, in that order.
// An empty path searches FileNames under dir; a missing file is not an error.
func LoadConfig(path, dir string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile(dir)
	}

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.PathFile = path
	}

	applyEnv(cfg, os.LookupEnv)
	return cfg, nil
}

// Load resolves and validates the configuration. Any failure is a ConfigInvalid error.
func Load(path, dir string) (*Config, error) {
	cfg, err := LoadConfig(path, dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ErrConfigInvalid.WithError(err).WithContext("path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return errors.ErrConfigInvalid.
			WithMessage(fmt.Sprintf("Cannot parse config file %s", path)).
			WithError(err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	keyEnv := cfg.AI.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultAPIKeyEnv
	}
	str(keyEnv, &cfg.AI.APIKey)
	str("CODE_REVIEW_API_URL", &cfg.AI.APIURL)
	str("CODE_REVIEW_MODEL", &cfg.AI.Model)

	str("CODE_REVIEW_REPORT_DIR", &cfg.Report.Dir)
	str("CODE_REVIEW_REPORT_BACKEND", &cfg.Report.Backend)
	str("CODE_REVIEW_GITHUB_REPO_URL", &cfg.Report.RepoURL)
	tokenEnv := cfg.Report.TokenEnv
	if tokenEnv == "" {
		tokenEnv = defaultTokenEnv
	}
	str(tokenEnv, &cfg.Report.Token)

	if v, ok := lookup("CODE_REVIEW_WEBHOOK_URL"); ok && v != "" {
		cfg.Notification.Webhook.URL = v
		cfg.Notification.Webhook.Enabled = true
	}

	wc := &cfg.Notification.WeChat
	str("WECHAT_APP_ID", &wc.AppID)
	str("WECHAT_APP_SECRET", &wc.AppSecret)
	str("WECHAT_OPEN_ID", &wc.OpenID)
	str("WECHAT_TEMPLATE_ID", &wc.TemplateID)
	if v, ok := lookup("WECHAT_ENABLED"); ok {
		if enabled, err := strconv.ParseBool(v); err == nil {
			wc.Enabled = enabled
		}
	}

	str("CODE_REVIEW_LANG", &cfg.Language)
}

// Validate checks every field the pipeline relies on and reports the first problem as ConfigInvalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) *errors.AppError {
		return errors.ErrConfigInvalid.WithMessage(fmt.Sprintf(format, args...))
	}

	if c.AI.APIKey == "" {
		return invalid("API key is missing, set %s", c.apiKeyEnv()).
			WithSuggestion(fmt.Sprintf("export %s=<your key>", c.apiKeyEnv()))
	}
	if !isHTTPURL(c.AI.APIURL) {
		return invalid("API URL %q is not a valid http(s) URL", c.AI.APIURL)
	}
	if strings.TrimSpace(c.AI.Model) == "" {
		return invalid("model name must not be empty")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return invalid("temperature %.2f must be between 0 and 2", c.AI.Temperature)
	}
	if c.AI.MaxTokens <= 0 {
		return invalid("max tokens must be greater than 0")
	}
	if c.AI.RetryLimit < 0 || c.AI.RetryLimit > maxRetryLimit {
		return invalid("retry limit %d must be between 0 and %d", c.AI.RetryLimit, maxRetryLimit)
	}
	if c.AI.BaseDelay < 0 {
		return invalid("base delay must not be negative")
	}

	switch c.Report.Backend {
	case BackendLocal, BackendNone:
	case BackendGitHub:
		if c.Report.Token == "" {
			return invalid("report backend %q needs a token, set %s", BackendGitHub, c.tokenEnv())
		}
		if !isHTTPURL(c.Report.RepoURL) {
			return invalid("report backend %q needs a repository URL, set CODE_REVIEW_GITHUB_REPO_URL", BackendGitHub)
		}
	default:
		return invalid("unsupported report backend: %s", c.Report.Backend)
	}

	if wc := c.Notification.WeChat; wc.Enabled {
		if wc.AppID == "" || wc.AppSecret == "" || wc.OpenID == "" || wc.TemplateID == "" {
			return invalid("wechat notifications need app_id, app_secret, open_id and template_id")
		}
	}
	if wh := c.Notification.Webhook; wh.Enabled && !isHTTPURL(wh.URL) {
		return invalid("webhook URL %q is not a valid http(s) URL", wh.URL)
	}
	if cc := c.Notification.CommitComment; cc.Enabled {
		if c.Report.Token == "" {
			return invalid("commit comments need a token, set %s", c.tokenEnv())
		}
	}

	return nil
}

func (c *Config) apiKeyEnv() string {
	if c.AI.APIKeyEnv == "" {
		return defaultAPIKeyEnv
	}
	return c.AI.APIKeyEnv
}

func (c *Config) tokenEnv() string {
	if c.Report.TokenEnv == "" {
		return defaultTokenEnv
	}
	return c.Report.TokenEnv
}

// ReportBaseURL returns the repository URL used to build report links, "" when reports are not remote.
func (c *Config) ReportBaseURL() string {
	if c.Report.Backend != BackendGitHub {
		return ""
	}
	return c.Report.RepoURL
}

// Masked returns a copy with every secret replaced, suitable for printing.
func (c *Config) Masked() *Config {
	out := *c
	out.AI.APIKey = maskSecret(c.AI.APIKey)
	out.Report.Token = maskSecret(c.Report.Token)
	out.Notification.WeChat.AppSecret = maskSecret(c.Notification.WeChat.AppSecret)
	return &out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SaveConfig writes cfg to path as TOML or YAML depending on the extension.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}
