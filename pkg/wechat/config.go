package wechat

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds WeChat provider configuration. Build one with
// [DefaultConfig] or [LoadConfig] and treat it as immutable afterwards.
type Config struct {
	AppID     string `env:"WECHAT_APP_ID" yaml:"app_id"`
	AppSecret string `env:"WECHAT_APP_SECRET" yaml:"app_secret"`

	// AuthorizeEndpoint serves standard browsers (QR-code login);
	// EmbeddedAuthorizeEndpoint serves the in-app MicroMessenger browser.
	AuthorizeEndpoint         string `env:"WECHAT_AUTHORIZE_ENDPOINT" yaml:"authorize_endpoint"`
	EmbeddedAuthorizeEndpoint string `env:"WECHAT_EMBEDDED_AUTHORIZE_ENDPOINT" yaml:"embedded_authorize_endpoint"`
	TokenEndpoint             string `env:"WECHAT_TOKEN_ENDPOINT" yaml:"token_endpoint"`
	ProfileEndpoint           string `env:"WECHAT_PROFILE_ENDPOINT" yaml:"profile_endpoint"`

	// CallbackPath is where the provider redirects back on the host.
	// CallbackURL, when set, is sent to the provider verbatim instead of the
	// computed redirect URI, letting one canonical URL serve every login
	// while the real post-login destination rides inside the state blob.
	CallbackPath string `env:"WECHAT_CALLBACK_PATH" yaml:"callback_path"`
	CallbackURL  string `env:"WECHAT_CALLBACK_URL" yaml:"callback_url"`

	// Scopes apply to standard browsers, EmbeddedScopes to the in-app one.
	Scopes         []string `env:"WECHAT_SCOPES" envSeparator:"," yaml:"scopes"`
	EmbeddedScopes []string `env:"WECHAT_EMBEDDED_SCOPES" envSeparator:"," yaml:"embedded_scopes"`

	// SaveTokens stores access/refresh tokens on the issued ticket's
	// properties.
	SaveTokens bool `env:"WECHAT_SAVE_TOKENS" yaml:"save_tokens"`

	// ProfileLanguage is a BCP 47 tag for localizing profile fields; it is
	// normalized to the nearest WeChat-supported value (zh_CN, zh_TW, en).
	ProfileLanguage string `env:"WECHAT_PROFILE_LANGUAGE" yaml:"profile_language"`
}

// Default endpoints and scopes, per WeChat open-platform documentation.
const (
	defaultAuthorizeEndpoint         = "https://open.weixin.qq.com/connect/qrconnect"
	defaultEmbeddedAuthorizeEndpoint = "https://open.weixin.qq.com/connect/oauth2/authorize"
	defaultTokenEndpoint             = "https://api.weixin.qq.com/sns/oauth2/access_token"
	defaultProfileEndpoint           = "https://api.weixin.qq.com/sns/userinfo"
	defaultCallbackPath              = "/signin-wechat"
)

// DefaultConfig returns a Config with every endpoint, scope list, and path
// set to its WeChat default. AppID and AppSecret are left empty.
func DefaultConfig() Config {
	return Config{
		AuthorizeEndpoint:         defaultAuthorizeEndpoint,
		EmbeddedAuthorizeEndpoint: defaultEmbeddedAuthorizeEndpoint,
		TokenEndpoint:             defaultTokenEndpoint,
		ProfileEndpoint:           defaultProfileEndpoint,
		CallbackPath:              defaultCallbackPath,
		Scopes:                    []string{"snsapi_login"},
		EmbeddedScopes:            []string{"snsapi_userinfo"},
		ProfileLanguage:           "zh-CN",
	}
}

// LoadConfig builds a Config from defaults, an optional YAML file, and
// environment variables, in that order (environment wins). Pass path == ""
// to skip the file overlay.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("wechat: read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("wechat: parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("wechat: parse environment: %w", err)
	}

	return cfg, nil
}

// Validate checks that the credentials required for any call are present.
func (c Config) Validate() error {
	if c.AppID == "" {
		return ErrMissingAppID
	}
	if c.AppSecret == "" {
		return ErrMissingAppSecret
	}
	return nil
}

// scopesFor returns the scope list matching the client variant.
func (c Config) scopesFor(v ClientVariant) []string {
	if v == EmbeddedBrowser {
		return c.EmbeddedScopes
	}
	return c.Scopes
}

// authorizeEndpointFor returns the authorization endpoint matching the
// client variant.
func (c Config) authorizeEndpointFor(v ClientVariant) string {
	if v == EmbeddedBrowser {
		return c.EmbeddedAuthorizeEndpoint
	}
	return c.AuthorizeEndpoint
}
