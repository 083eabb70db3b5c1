package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"campus-scheduler/internal/importer"
	"campus-scheduler/internal/model"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Import   ImportConfig   `mapstructure:"import"`
	Grid     GridConfig     `mapstructure:"grid"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置；Addr 为空表示不启用（导入暂存不可用）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ImportConfig 批量导入配置
type ImportConfig struct {
	DefaultPolicy  string        `mapstructure:"default_policy"`   // override | skip | onlynew
	MaxRows        int           `mapstructure:"max_rows"`         // 单个文件最大数据行数
	StagingTTL     time.Duration `mapstructure:"staging_ttl"`      // 待定批次在 Redis 中的保留时间
	CourseMergeKey string        `mapstructure:"course_merge_key"` // code_name | code
	Transactional  bool          `mapstructure:"transactional"`    // 写入失败时整体回滚
	RateLimit      int           `mapstructure:"rate_limit"`       // 每个 IP 每分钟导入次数，0 为不限制
}

// GridConfig 周课表网格配置
type GridConfig struct {
	DayStart    string `mapstructure:"day_start"`
	DayEnd      string `mapstructure:"day_end"`
	SlotMinutes int    `mapstructure:"slot_minutes"`
}

// SlotDuration 时间格长度
func (g *GridConfig) SlotDuration() time.Duration {
	return time.Duration(g.SlotMinutes) * time.Minute
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("CAMPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "campus_scheduler")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Europe/Istanbul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("import.default_policy", "skip")
	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("import.staging_ttl", "30m")
	v.SetDefault("import.course_merge_key", "code_name")
	v.SetDefault("import.transactional", true)
	v.SetDefault("import.rate_limit", 20)

	v.SetDefault("grid.day_start", "08:00")
	v.SetDefault("grid.day_end", "17:00")
	v.SetDefault("grid.slot_minutes", model.SlotMinutes)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := importer.ParsePolicy(c.Import.DefaultPolicy); err != nil {
		return fmt.Errorf("配置校验失败: import.default_policy: %w", err)
	}
	if _, err := importer.ParseMergeKey(c.Import.CourseMergeKey); err != nil {
		return fmt.Errorf("配置校验失败: import.course_merge_key: %w", err)
	}
	if c.Import.MaxRows <= 0 {
		return fmt.Errorf("配置校验失败: import.max_rows 必须大于 0")
	}
	if c.Import.StagingTTL <= 0 {
		return fmt.Errorf("配置校验失败: import.staging_ttl 必须大于 0")
	}

	start, err := model.ParseClock(c.Grid.DayStart)
	if err != nil {
		return fmt.Errorf("配置校验失败: grid.day_start: %w", err)
	}
	end, err := model.ParseClock(c.Grid.DayEnd)
	if err != nil {
		return fmt.Errorf("配置校验失败: grid.day_end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("配置校验失败: grid.day_end 必须晚于 grid.day_start")
	}
	if c.Grid.SlotMinutes <= 0 || int(end-start)%c.Grid.SlotMinutes != 0 {
		return fmt.Errorf("配置校验失败: grid.slot_minutes 必须整除 %s-%s", c.Grid.DayStart, c.Grid.DayEnd)
	}
	return nil
}
