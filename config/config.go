package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

// Driver names accepted by DRIVER
const (
	DriverChrome = "chrome"
	DriverHTTP   = "http"
)

// Config represents the application configuration
type Config struct {
	// Site layout
	BaseURL            string `envconfig:"BASE_URL" default:"https://www.ehadish.com"`
	CategoryPathPrefix string `envconfig:"CATEGORY_PATH_PREFIX" default:"/products/category-"`
	CategorySelector   string `envconfig:"CATEGORY_SELECTOR" default:"a[href*='/products/category-']"`
	ProductSelector    string `envconfig:"PRODUCT_SELECTOR" default:"div.bx-product"`
	TitleSelector      string `envconfig:"TITLE_SELECTOR" default:"h2 a"`
	ImageSelector      string `envconfig:"IMAGE_SELECTOR" default:"div.bx-img img"`
	PriceSelector      string `envconfig:"PRICE_SELECTOR" default:"div.bx-price"`
	PriceSuffix        string `envconfig:"PRICE_SUFFIX" default:"تومان"`
	PageParam          string `envconfig:"PAGE_PARAM" default:"page"`

	// Pagination policy
	NavigationTimeout    time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"60s"`
	SelectorTimeout      time.Duration `envconfig:"SELECTOR_TIMEOUT" default:"5s"`
	MaxPages             int           `envconfig:"MAX_PAGES" default:"500"`
	LoadRetries          int           `envconfig:"LOAD_RETRIES" default:"2"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"500ms"`
	RetryMaxInterval     time.Duration `envconfig:"RETRY_MAX_INTERVAL" default:"5s"`

	// Discovery and scheduling
	DedupeCategories    bool `envconfig:"DEDUPE_CATEGORIES" default:"true"`
	CategoryConcurrency int  `envconfig:"CATEGORY_CONCURRENCY" default:"1"`

	// Browser
	Driver          string        `envconfig:"DRIVER" default:"chrome"`
	Headless        bool          `envconfig:"HEADLESS" default:"true"`
	ChromeRemoteURL string        `envconfig:"CHROME_REMOTE_URL"`
	UserAgent       string        `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"`
	RateLimit       time.Duration `envconfig:"RATE_LIMIT" default:"500ms"`
	RespectRobots   bool          `envconfig:"RESPECT_ROBOTS" default:"false"`

	// Output
	OutputPath string `envconfig:"OUTPUT_PATH" default:"all_products.json"`

	// Memcache configuration
	MemcacheAddr     string        `envconfig:"MEMCACHE_ADDR"`
	CategoryCacheTTL time.Duration `envconfig:"CATEGORY_CACHE_TTL" default:"0s"`

	// Redis configuration
	RedisAddr            string `envconfig:"REDIS_ADDR"`
	RedisDB              int    `envconfig:"REDIS_DB" default:"0"`
	RedisStream          string `envconfig:"REDIS_STREAM" default:"catalog"`
	RedisStreamCount     int    `envconfig:"REDIS_STREAM_COUNT" default:"1"`
	RedisStreamMaxLength int    `envconfig:"REDIS_STREAM_MAX_LENGTH" default:"10000"`

	// Postgres mirror
	DatabaseURL string `envconfig:"DB_URL"`

	// Worker
	CrawlInterval time.Duration `envconfig:"CRAWL_INTERVAL" default:"0s"`

	// Environment
	Environment string `envconfig:"CRAWLER_ENVIRONMENT" default:"development"`
}

// LoadConfig loads the configuration from an optional .env file and the environment
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		// A missing file is normal outside development.
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, crawlerrors.NewConfiguration(fmt.Sprintf("failed to load %s", file), err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, crawlerrors.NewConfiguration("failed to process environment", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the crawler cannot work with
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return crawlerrors.NewConfiguration(fmt.Sprintf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL), err)
	}
	if c.ProductSelector == "" || c.TitleSelector == "" || c.CategorySelector == "" {
		return crawlerrors.NewConfiguration("product, title and category selectors are required", nil)
	}
	if c.NavigationTimeout <= 0 || c.SelectorTimeout <= 0 {
		return crawlerrors.NewConfiguration("NAVIGATION_TIMEOUT and SELECTOR_TIMEOUT must be positive", nil)
	}
	if c.MaxPages < 0 {
		return crawlerrors.NewConfiguration("MAX_PAGES must not be negative", nil)
	}
	if c.LoadRetries < 0 {
		return crawlerrors.NewConfiguration("LOAD_RETRIES must not be negative", nil)
	}
	if c.CategoryConcurrency < 1 {
		return crawlerrors.NewConfiguration("CATEGORY_CONCURRENCY must be at least 1", nil)
	}
	if c.Driver != DriverChrome && c.Driver != DriverHTTP {
		return crawlerrors.NewConfiguration(fmt.Sprintf("unknown DRIVER %q", c.Driver), nil)
	}
	if c.OutputPath == "" {
		return crawlerrors.NewConfiguration("OUTPUT_PATH is required", nil)
	}
	if c.CategoryCacheTTL < 0 {
		return crawlerrors.NewConfiguration("CATEGORY_CACHE_TTL must not be negative", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return crawlerrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}
