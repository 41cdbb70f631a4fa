package config

import (
	"flag"
	"time"

	"github.com/susatyo441/food-app/pkg/model"
	"github.com/susatyo441/food-app/pkg/quota"
)

type Config struct {
	LogLevel   string
	ListenAddr string

	PostgresAddr     string // Postgres address in host[:port] format
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	RedisAddr     string // Redis address in host[:port] format
	RedisUser     string // Redis user
	RedisPassword string // Redis password

	LimiterFailOpen bool
	AttemptsLimit   int // reserve attempts per user per day before throttling

	CacheReviews   bool
	ReviewCacheTTL time.Duration

	BaseQuota      int    // pickups per day before extend grants
	Timezone       string // IANA location defining the quota day boundary
	PickupWindow   time.Duration
	ExtendValidity time.Duration

	// Seeder params
	SeedUsers       int
	SeedPosts       int
	SeedStartPoints int
}

func New() *Config {
	c := &Config{}

	flag.StringVar(&c.LogLevel, "logLevel", LookupEnvString("LOG_LEVEL", "DEBUG"), "Set log level: DEBUG, INFO, WARNING, ERROR.")
	flag.StringVar(&c.ListenAddr, "listenAddr", LookupEnvString("LISTEN_ADDR", ":8000"), `Address in form of "[host]:port" that HTTP server should be listening on.`)

	flag.StringVar(&c.PostgresAddr, "postgresAddr", LookupEnvString("POSTGRES_ADDR", "127.0.0.1:5432"), "Set PostgreSQL address as host:port, where port is optional (without TLS).")
	flag.StringVar(&c.PostgresDB, "postgresDB", LookupEnvString("POSTGRES_DB", "foodapp"), "Set PostgreSQL DB.")
	flag.StringVar(&c.PostgresUser, "postgresUser", LookupEnvString("POSTGRES_USER", "develop"), "Set PostgreSQL user.")
	flag.StringVar(&c.PostgresPassword, "postgresPassword", LookupEnvString("POSTGRES_PASSWORD", "develop"), "Set PostgreSQL password.")

	flag.StringVar(&c.RedisAddr, "redisAddr", LookupEnvString("REDIS_ADDR", "127.0.0.1:6379"), "Redis address in host[:port] format.")
	flag.StringVar(&c.RedisUser, "redisUser", LookupEnvString("REDIS_USER", ""), "Redis user.")
	flag.StringVar(&c.RedisPassword, "redisPassword", LookupEnvString("REDIS_PASSWORD", ""), "Redis password.")

	flag.BoolVar(&c.LimiterFailOpen, "limiterFailOpen", LookupEnvBool("LIMITER_FAIL_OPEN", false), "Set to make limiter allow request if failed to check limits.")
	flag.IntVar(&c.AttemptsLimit, "attemptsLimit", LookupEnvInt("ATTEMPTS_LIMIT", 20), "Number of reserve attempts a single user can make within one day.")

	flag.BoolVar(&c.CacheReviews, "cacheReviews", LookupEnvBool("CACHE_REVIEWS", false), "Set to cache review summaries in redis. May be useful for popular donors.")
	flag.DurationVar(&c.ReviewCacheTTL, "reviewCacheTTL", LookupEnvDuration("REVIEW_CACHE_TTL", 30*time.Second), "How long a cached review summary stays fresh.")

	flag.IntVar(&c.BaseQuota, "baseQuota", LookupEnvInt("BASE_QUOTA", quota.BaseQuota), "Daily pickups allowed before extend grants are counted.")
	flag.StringVar(&c.Timezone, "timezone", LookupEnvString("TIMEZONE", "Asia/Jakarta"), "IANA timezone defining the quota day boundary.")
	flag.DurationVar(&c.PickupWindow, "pickupWindow", LookupEnvDuration("PICKUP_WINDOW", model.DefaultPickupWindow), "How long the recipient has to pick up a reservation.")
	flag.DurationVar(&c.ExtendValidity, "extendValidity", LookupEnvDuration("EXTEND_VALIDITY", model.DefaultExtendValidity), "How long a purchased extend grant stays valid.")

	flag.IntVar(&c.SeedUsers, "seedUsers", LookupEnvInt("SEED_USERS", 20), "Number of users to generate (only for seeder).")
	flag.IntVar(&c.SeedPosts, "seedPosts", LookupEnvInt("SEED_POSTS", 50), "Number of posts to generate (only for seeder).")
	flag.IntVar(&c.SeedStartPoints, "seedStartPoints", LookupEnvInt("SEED_START_POINTS", 100), "Initial point balance for generated users (only for seeder).")

	flag.Parse()

	return c
}
