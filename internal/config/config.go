package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/directory"
	"github.com/ignite/offer-monitor/internal/engine"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Directory DirectoryConfig `yaml:"directory"`
	Blacklist BlacklistConfig `yaml:"blacklist"`
	Source    SourceConfig    `yaml:"source"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Storage   StorageConfig   `yaml:"storage"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// MaxUploadMB caps multipart uploads.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// AnalysisConfig holds the rule engine thresholds and rule set version.
type AnalysisConfig struct {
	RuleSet                string  `yaml:"rule_set"`
	MinDailyRevenue        float64 `yaml:"min_daily_revenue"`
	AffiliateDiffThreshold float64 `yaml:"affiliate_diff_threshold"`
	OfferDiffThreshold     float64 `yaml:"offer_diff_threshold"`
	Rule1MinPriorRevenue   float64 `yaml:"rule1_min_prior_revenue"`
	Rule2MinLatestRevenue  float64 `yaml:"rule2_min_latest_revenue"`
	Rule2MinSwing          float64 `yaml:"rule2_min_swing"`
	Rule4StableBand        float64 `yaml:"rule4_stable_band"`
	Rule4GrowthMin         float64 `yaml:"rule4_growth_min"`
	Rule5DropThreshold     float64 `yaml:"rule5_drop_threshold"`
	Rule6MinRevenue        float64 `yaml:"rule6_min_revenue"`
}

// Thresholds converts the section into engine thresholds.
func (c AnalysisConfig) Thresholds() engine.Thresholds {
	return engine.Thresholds{
		MinDailyRevenue:        c.MinDailyRevenue,
		AffiliateDiffThreshold: c.AffiliateDiffThreshold,
		OfferDiffThreshold:     c.OfferDiffThreshold,
		Rule1MinPriorRevenue:   c.Rule1MinPriorRevenue,
		Rule2MinLatestRevenue:  c.Rule2MinLatestRevenue,
		Rule2MinSwing:          c.Rule2MinSwing,
		Rule4StableBand:        c.Rule4StableBand,
		Rule4GrowthMin:         c.Rule4GrowthMin,
		Rule5DropThreshold:     c.Rule5DropThreshold,
		Rule6MinRevenue:        c.Rule6MinRevenue,
	}
}

func defaultAnalysis() AnalysisConfig {
	th := engine.DefaultThresholds()
	return AnalysisConfig{
		RuleSet:                engine.RuleSetV1,
		MinDailyRevenue:        th.MinDailyRevenue,
		AffiliateDiffThreshold: th.AffiliateDiffThreshold,
		OfferDiffThreshold:     th.OfferDiffThreshold,
		Rule1MinPriorRevenue:   th.Rule1MinPriorRevenue,
		Rule2MinLatestRevenue:  th.Rule2MinLatestRevenue,
		Rule2MinSwing:          th.Rule2MinSwing,
		Rule4StableBand:        th.Rule4StableBand,
		Rule4GrowthMin:         th.Rule4GrowthMin,
		Rule5DropThreshold:     th.Rule5DropThreshold,
		Rule6MinRevenue:        th.Rule6MinRevenue,
	}
}

// DirectoryConfig lists traffic types in lookup order. Empty lists fall back
// to the built-in directory.
type DirectoryConfig struct {
	Advertisers []directory.Entry `yaml:"advertisers"`
	Affiliates  []directory.Entry `yaml:"affiliates"`
}

// Build returns the configured directory.
func (c DirectoryConfig) Build() *directory.Directory {
	if len(c.Advertisers) == 0 && len(c.Affiliates) == 0 {
		return directory.Default()
	}
	return directory.New(c.Advertisers, c.Affiliates)
}

// BlacklistConfig holds always-on blacklist rules.
type BlacklistConfig struct {
	UseDefault bool             `yaml:"use_default"`
	Rules      []blacklist.Rule `yaml:"rules"`
}

// Build returns the configured rules, plus the built-in set when enabled.
func (c BlacklistConfig) Build() *blacklist.Set {
	set := blacklist.New(c.Rules...)
	if c.UseDefault {
		return blacklist.Merge(blacklist.Default(), set)
	}
	return set
}

// Source types.
const (
	SourceFile      = "file"
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
	SourceS3        = "s3"
)

// SourceConfig selects where scheduled runs load their snapshot from.
type SourceConfig struct {
	Type           string `yaml:"type"`
	File           string `yaml:"file"`
	DatabaseURL    string `yaml:"database_url"`
	Table          string `yaml:"table"`
	BlacklistTable string `yaml:"blacklist_table"`
	LookbackDays   int    `yaml:"lookback_days"`
	// ScheduleMinutes runs the analysis periodically in the server; zero
	// disables scheduling.
	ScheduleMinutes int            `yaml:"schedule_minutes"`
	S3              S3SourceConfig `yaml:"s3"`
}

// S3SourceConfig locates a snapshot object.
type S3SourceConfig struct {
	Bucket     string `yaml:"bucket"`
	Key        string `yaml:"key"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"`
}

// SnowflakeConfig holds Snowflake warehouse settings
type SnowflakeConfig struct {
	ConnectionString string `yaml:"connection_string"`
	Account          string `yaml:"account"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	Schema           string `yaml:"schema"`
	Warehouse        string `yaml:"warehouse"`
	Table            string `yaml:"table"`
}

// StorageConfig holds report archive configuration
type StorageConfig struct {
	Type       string `yaml:"type"`
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// NotifyConfig holds report delivery settings
type NotifyConfig struct {
	Redis RedisConfig `yaml:"redis"`
	SES   SESConfig   `yaml:"ses"`
}

// RedisConfig configures action item publication
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	ListKey  string `yaml:"list_key"`
	Channel  string `yaml:"channel"`
	TTLHours int    `yaml:"ttl_hours"`
}

// SESConfig configures the digest e-mail
type SESConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"access_key"`
	SecretKey string   `yaml:"secret_key"`
	From      string   `yaml:"from"`
	To        []string `yaml:"to"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	cfg := Config{Analysis: defaultAnalysis()}
	applyDefaults(&cfg)
	return cfg
}

// EngineOptions builds engine options from the analysis, directory and
// blacklist sections.
func (c *Config) EngineOptions() (engine.Options, error) {
	rs, err := engine.RuleSetByVersion(c.Analysis.RuleSet)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Thresholds: c.Analysis.Thresholds(),
		RuleSet:    rs,
		Blacklist:  c.Blacklist.Build(),
		Directory:  c.Directory.Build(),
	}, nil
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{Analysis: defaultAnalysis()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if _, err := engine.RuleSetByVersion(cfg.Analysis.RuleSet); err != nil {
		return nil, fmt.Errorf("analysis.rule_set: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = SourceFile
	}
	if cfg.Source.Table == "" {
		cfg.Source.Table = "offer_daily_performance"
	}
	if cfg.Source.BlacklistTable == "" {
		cfg.Source.BlacklistTable = "offer_blacklist"
	}
	if cfg.Source.LookbackDays == 0 {
		cfg.Source.LookbackDays = 30
	}
	if cfg.Source.S3.Region == "" {
		cfg.Source.S3.Region = "us-west-2"
	}
	if cfg.Snowflake.Table == "" {
		cfg.Snowflake.Table = "OFFER_DAILY_PERFORMANCE"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./reports"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Notify.Redis.ListKey == "" {
		cfg.Notify.Redis.ListKey = "offer-monitor:actions"
	}
	if cfg.Notify.Redis.Channel == "" {
		cfg.Notify.Redis.Channel = "offer-monitor:reports"
	}
	if cfg.Notify.Redis.TTLHours == 0 {
		cfg.Notify.Redis.TTLHours = 72
	}
	if cfg.Notify.SES.Region == "" {
		cfg.Notify.SES.Region = "us-west-2"
	}
}

// LoadFromEnv loads configuration with environment variable overrides
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Source.DatabaseURL = v
	}
	if v := os.Getenv("OFFER_SOURCE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("OFFER_RULE_SET"); v != "" {
		if _, err := engine.RuleSetByVersion(v); err != nil {
			return nil, fmt.Errorf("OFFER_RULE_SET: %w", err)
		}
		cfg.Analysis.RuleSet = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SNOWFLAKE_CONNECTION_STRING"); v != "" {
		cfg.Snowflake.ConnectionString = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Snowflake.Password = v
	}
	if v := os.Getenv("REPORT_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
		cfg.Storage.Type = "aws"
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Notify.Redis.URL = v
		cfg.Notify.Redis.Enabled = true
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Notify.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Notify.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Notify.SES.Region = v
	}
	if v := os.Getenv("DIGEST_RECIPIENTS"); v != "" {
		cfg.Notify.SES.To = splitList(v)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
