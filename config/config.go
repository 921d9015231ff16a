package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"p4-dashboard/internal/report"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Report   ReportConfig   `mapstructure:"report"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port        int        `mapstructure:"port"`
	UploadMaxMB int64      `mapstructure:"upload_max_mb"`
	CORS        CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置（仅用于上传审计日志）
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 登录闸门配置
// 仪表盘只有一个操作员账号，密码以 bcrypt 哈希形式保存在配置中
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Username       string        `mapstructure:"username"`
	PasswordHash   string        `mapstructure:"password_hash"`
	LoginRateLimit int           `mapstructure:"login_rate_limit"` // 每分钟允许的登录尝试次数
}

// SheetsConfig Google Sheets 数据源配置
type SheetsConfig struct {
	SpreadsheetID       string   `mapstructure:"spreadsheet_id"`
	CredentialsJSON     string   `mapstructure:"credentials_json"`
	CredentialsFile     string   `mapstructure:"credentials_file"`
	ParticipationSheets []string `mapstructure:"participation_sheets"`
	SchoolSheet         string   `mapstructure:"school_sheet"`
	RosterSheet         string   `mapstructure:"roster_sheet"`
}

// Credentials 返回服务账号 JSON，credentials_json 优先
func (c *SheetsConfig) Credentials() ([]byte, error) {
	if c.CredentialsJSON != "" {
		return []byte(c.CredentialsJSON), nil
	}
	if c.CredentialsFile == "" {
		return nil, fmt.Errorf("sheets.credentials_json 与 sheets.credentials_file 均未配置")
	}
	b, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("读取服务账号文件失败: %w", err)
	}
	return b, nil
}

// ReportConfig 报表口径配置
type ReportConfig struct {
	LevelAliases map[string]string `mapstructure:"level_aliases"` // 原始 JENJANG → 规范 JENJANG
	LevelOrder   []string          `mapstructure:"level_order"`
	PageSize     int               `mapstructure:"page_size"`
}

// CacheConfig 表缓存配置
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"` // 为空时只输出到 stderr
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 只补充尚未设置的环境变量
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_max_mb", 10)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "p4_dashboard")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Jakarta")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "8h")
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.login_rate_limit", 10)

	v.SetDefault("sheets.participation_sheets", []string{"Tendik", "Pendidik", "Kejuruan"})
	v.SetDefault("sheets.school_sheet", "Sekolah")
	v.SetDefault("sheets.roster_sheet", "Dapodik")

	v.SetDefault("report.level_aliases", map[string]string{
		"TK":  "PAUD",
		"KB":  "PAUD",
		"TPA": "PAUD",
		"SPS": "PAUD",
	})
	v.SetDefault("report.level_order", []string{"PAUD", "SD", "SMP", "SMA", "SMK", "PKBM", "SLB"})
	v.SetDefault("report.page_size", 50)

	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

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
	v.SetEnvPrefix("DASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// viper 对 map key 统一转小写，这里恢复为大写 JENJANG 口径
	cfg.Report.LevelAliases = upperKeys(cfg.Report.LevelAliases)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Auth.PasswordHash == "" {
		return fmt.Errorf("配置校验失败: auth.password_hash 不能为空")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("配置校验失败: sheets.spreadsheet_id 不能为空")
	}
	if len(c.Sheets.ParticipationSheets) == 0 {
		return fmt.Errorf("配置校验失败: sheets.participation_sheets 至少需要一个工作表")
	}
	// 工作表名即培训类别，无法识别的工作表会从所有达成情况中消失
	for _, sheet := range c.Sheets.ParticipationSheets {
		if _, ok := report.ParseCategory(sheet); !ok {
			return fmt.Errorf("配置校验失败: sheets.participation_sheets 中的 %q 不是已知类别（Pendidik / Tendik / Kejuruan）", sheet)
		}
	}
	return nil
}

func upperKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}
