package buildCFG

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"coachtrips/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type RedisConfig struct {
	Addr    string
	DB      int
	Channel string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	var slaveDSNs []string
	if slave := cfg.GetString("database.slave_dsn"); slave != "" {
		slaveDSNs = append(slaveDSNs, slave)
	}

	opts := &dbpg.Options{
		MaxOpenConns:    getInt(cfg, "database.max_open_conns", 10),
		MaxIdleConns:    getInt(cfg, "database.max_idle_conns", 5),
		ConnMaxLifetime: time.Duration(getInt(cfg, "database.conn_max_lifetime_minutes", 30)) * time.Minute,
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database configuration built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" || rc.Exchange == "" || rc.Queue == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url, rabbit.exchange and rabbit.queue are required")
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration built")
	return rc, nil
}

func BuildRedisConfig(cfg *config.Config, log *zerolog.Logger) (RedisConfig, error) {
	rc := RedisConfig{
		Addr:    cfg.GetString("redis.addr"),
		DB:      getInt(cfg, "redis.db", 0),
		Channel: cfg.GetString("redis.channel"),
	}
	if rc.Addr == "" || rc.Channel == "" {
		return RedisConfig{}, fmt.Errorf("redis.addr and redis.channel are required")
	}
	log.Info().Str("channel", rc.Channel).Msg("redis configuration built")
	return rc, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
	if mc.Host == "" {
		log.Warn().Msg("smtp.host not set, booking e-mails will fail")
	}
	return mc
}

// BuildReminderDelay is how long an unpaid booking waits before the payment
// reminder fires.
func BuildReminderDelay(cfg *config.Config) time.Duration {
	return time.Duration(getInt(cfg, "reminder.delay_minutes", 60)) * time.Minute
}

func getInt(cfg *config.Config, key string, def int) int {
	raw := cfg.GetString(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
