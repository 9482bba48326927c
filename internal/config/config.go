package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether enough is set to build a client.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

type Config struct {
	Port           string
	DBDriver       string
	DBDSN          string
	UploadDir      string
	TemplateDir    string
	StaticDir      string
	LogFile        string
	BaseURL        string
	MaxUploadBytes int
	CORSOrigins    string
	PostRateLimit  int
	AMQPURL        string
	S3             S3Config
}

func Load() Config {
	// .env is optional; real env vars win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	port := getenv("PORT", "3333")
	cfg := Config{
		Port:           port,
		DBDriver:       getenv("DB_DRIVER", "sqlite"),
		DBDSN:          getenv("DB_DSN", "ecoleta.db"),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		TemplateDir:    getenv("TEMPLATE_DIR", "./web/templates"),
		StaticDir:      getenv("STATIC_DIR", "./web/static"),
		LogFile:        os.Getenv("LOG_FILE"),
		BaseURL:        strings.TrimRight(getenv("BASE_URL", "http://localhost:"+port), "/"),
		MaxUploadBytes: getint("MAX_UPLOAD_BYTES", 5<<20),
		CORSOrigins:    getenv("CORS_ORIGINS", "*"),
		PostRateLimit:  getint("POST_RATE_LIMIT", 30),
		AMQPURL:        os.Getenv("AMQP_URL"),
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s UPLOAD_DIR=%s S3=%t AMQP=%t",
		cfg.Port, cfg.DBDriver, cfg.DBDSN, cfg.UploadDir, cfg.S3.Enabled(), cfg.AMQPURL != "")
	return cfg
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring %s=%q", key, v)
		return def
	}
	return n
}
