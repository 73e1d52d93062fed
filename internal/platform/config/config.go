// Package config loads service configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Upstream UpstreamConfig
	Jobs     JobsConfig
	Notify   NotifyConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// AdminToken guards manual job runs. Empty disables the check.
	AdminToken string
	// Timezone is used to decide what "today" is for date rules.
	Timezone string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// CacheTTL bounds how long prisoner search results are reused.
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers         string
	ClientID        string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	DomainTopic     string
	OutboxPoll      time.Duration
	OutboxBatch     int
	OutboxRetention time.Duration
}

// UpstreamConfig holds base URLs of the systems of record.
type UpstreamConfig struct {
	PrisonAPIURL      string
	PrisonerSearchURL string
	DeliusURL         string
	Timeout           time.Duration
}

type JobsConfig struct {
	Enabled             bool
	TimeOutInterval     time.Duration
	ActivationInterval  time.Duration
	ExpiryInterval      time.Duration
	HDCInterval         time.Duration
	RecallInterval      time.Duration
	ReviewInterval      time.Duration
	ConditionsInterval  time.Duration
	UnapprovedInterval  time.Duration
	HardStopWorkingDays int
	BankHolidaysFile    string
	RunTimeout          time.Duration
}

type NotifyConfig struct {
	URL       string
	APIKey    string
	FromEmail string
	Enabled   bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.timezone", "Europe/London")

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.cache_ttl", 2*time.Minute)

	v.SetDefault("kafka.client_id", "create-and-vary-a-licence")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.retries", 3)
	v.SetDefault("kafka.delivery_timeout", 30*time.Second)
	v.SetDefault("kafka.domain_topic", "licences.domain.events")
	v.SetDefault("kafka.outbox_poll", time.Second)
	v.SetDefault("kafka.outbox_batch", 100)
	v.SetDefault("kafka.outbox_retention", 7*24*time.Hour)

	v.SetDefault("upstream.timeout", 10*time.Second)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.time_out_interval", time.Hour)
	v.SetDefault("jobs.activation_interval", time.Hour)
	v.SetDefault("jobs.expiry_interval", 6*time.Hour)
	v.SetDefault("jobs.hdc_interval", 6*time.Hour)
	v.SetDefault("jobs.recall_interval", 6*time.Hour)
	v.SetDefault("jobs.review_interval", 24*time.Hour)
	v.SetDefault("jobs.conditions_interval", 24*time.Hour)
	v.SetDefault("jobs.unapproved_interval", 24*time.Hour)
	v.SetDefault("jobs.hard_stop_working_days", 2)
	v.SetDefault("jobs.run_timeout", 5*time.Minute)

	v.SetDefault("notify.from_email", "noreply@licences.example")
}

// FromEnv builds the configuration from LICENCES_* environment variables,
// e.g. LICENCES_DATABASE_URL or LICENCES_JOBS_ENABLED.
func FromEnv() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("licences")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	var c Config
	c.Server = Server{
		Addr:        v.GetString("server.addr"),
		Environment: v.GetString("server.environment"),
		LogLevel:    v.GetString("server.log_level"),
		AdminToken:  v.GetString("server.admin_token"),
		Timezone:    v.GetString("server.timezone"),
	}
	c.Database = DatabaseConfig{
		URL:             v.GetString("database.url"),
		MaxOpenConns:    v.GetInt("database.max_open_conns"),
		MaxIdleConns:    v.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
	}
	c.Redis = RedisConfig{
		URL:          v.GetString("redis.url"),
		PoolSize:     v.GetInt("redis.pool_size"),
		MinIdleConns: v.GetInt("redis.min_idle_conns"),
		DialTimeout:  v.GetDuration("redis.dial_timeout"),
		ReadTimeout:  v.GetDuration("redis.read_timeout"),
		WriteTimeout: v.GetDuration("redis.write_timeout"),
		CacheTTL:     v.GetDuration("redis.cache_ttl"),
	}
	c.Kafka = KafkaConfig{
		Brokers:         v.GetString("kafka.brokers"),
		ClientID:        v.GetString("kafka.client_id"),
		Acks:            v.GetString("kafka.acks"),
		Retries:         v.GetInt("kafka.retries"),
		DeliveryTimeout: v.GetDuration("kafka.delivery_timeout"),
		DomainTopic:     v.GetString("kafka.domain_topic"),
		OutboxPoll:      v.GetDuration("kafka.outbox_poll"),
		OutboxBatch:     v.GetInt("kafka.outbox_batch"),
		OutboxRetention: v.GetDuration("kafka.outbox_retention"),
	}
	c.Upstream = UpstreamConfig{
		PrisonAPIURL:      v.GetString("upstream.prison_api_url"),
		PrisonerSearchURL: v.GetString("upstream.prisoner_search_url"),
		DeliusURL:         v.GetString("upstream.delius_url"),
		Timeout:           v.GetDuration("upstream.timeout"),
	}
	c.Jobs = JobsConfig{
		Enabled:             v.GetBool("jobs.enabled"),
		TimeOutInterval:     v.GetDuration("jobs.time_out_interval"),
		ActivationInterval:  v.GetDuration("jobs.activation_interval"),
		ExpiryInterval:      v.GetDuration("jobs.expiry_interval"),
		HDCInterval:         v.GetDuration("jobs.hdc_interval"),
		RecallInterval:      v.GetDuration("jobs.recall_interval"),
		ReviewInterval:      v.GetDuration("jobs.review_interval"),
		ConditionsInterval:  v.GetDuration("jobs.conditions_interval"),
		UnapprovedInterval:  v.GetDuration("jobs.unapproved_interval"),
		HardStopWorkingDays: v.GetInt("jobs.hard_stop_working_days"),
		BankHolidaysFile:    v.GetString("jobs.bank_holidays_file"),
		RunTimeout:          v.GetDuration("jobs.run_timeout"),
	}
	c.Notify = NotifyConfig{
		URL:       v.GetString("notify.url"),
		APIKey:    v.GetString("notify.api_key"),
		FromEmail: v.GetString("notify.from_email"),
		Enabled:   v.GetString("notify.url") != "",
	}
	return c, c.validate()
}
