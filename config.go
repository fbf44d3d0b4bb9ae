package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBackendURL  = "http://localhost:8000"
	defaultListenAddr  = "127.0.0.1:8080"
	defaultHTTPTimeout = 120 * time.Second

	outlineSourceBackend = "backend"
	outlineSourceOpenAI  = "openai"
)

type Config struct {
	RootPath    string
	BackendURL  string
	SettingsURL string
	HTTPTimeout time.Duration
	ListenAddr  string

	Premium         bool
	SendDefaultTone bool

	OutlineSource string
	OpenAIAPIKey  string
	OpenAIModel   string

	S3Bucket   string
	S3Prefix   string
	AWSProfile string

	Debug bool
}

func envBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return b, nil
}

// loadConfig reads the PPT_* environment variables.
func loadConfig() (*Config, error) {
	cfg := &Config{
		RootPath:      os.Getenv("PPT_ROOT_PATH"),
		BackendURL:    strings.TrimRight(os.Getenv("PPT_BACKEND_URL"), "/"),
		SettingsURL:   os.Getenv("PPT_SETTINGS_URL"),
		HTTPTimeout:   defaultHTTPTimeout,
		ListenAddr:    os.Getenv("PPT_LISTEN_ADDR"),
		OutlineSource: strings.ToLower(os.Getenv("PPT_OUTLINE_SOURCE")),
		OpenAIAPIKey:  os.Getenv("PPT_OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("PPT_OPENAI_MODEL"),
		S3Bucket:      os.Getenv("PPT_S3_BUCKET"),
		S3Prefix:      os.Getenv("PPT_S3_PREFIX"),
		AWSProfile:    os.Getenv("PPT_AWS_PROFILE"),
	}

	if cfg.RootPath == "" {
		return nil, errors.New("PPT_ROOT_PATH environment variable is required")
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = defaultBackendURL
	}
	if cfg.SettingsURL == "" {
		cfg.SettingsURL = cfg.BackendURL + "/settings"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	if v := os.Getenv("PPT_HTTP_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid PPT_HTTP_TIMEOUT_SECONDS %q", v)
		}
		cfg.HTTPTimeout = time.Duration(secs) * time.Second
	}

	switch cfg.OutlineSource {
	case "":
		cfg.OutlineSource = outlineSourceBackend
	case outlineSourceBackend:
	case outlineSourceOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("PPT_OPENAI_API_KEY is required when PPT_OUTLINE_SOURCE is openai")
		}
	default:
		return nil, fmt.Errorf("invalid PPT_OUTLINE_SOURCE %q", cfg.OutlineSource)
	}

	var err error
	if cfg.Premium, err = envBool("PPT_PREMIUM"); err != nil {
		return nil, err
	}
	if cfg.SendDefaultTone, err = envBool("PPT_SEND_DEFAULT_TONE"); err != nil {
		return nil, err
	}
	if cfg.Debug, err = envBool("PPT_DEBUG"); err != nil {
		return nil, err
	}
	return cfg, nil
}
