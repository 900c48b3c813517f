package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// App
	Env string // dev / staging / prod

	// MongoDB
	MongoURI            string
	MongoDB             string
	MongoConnectTimeout time.Duration

	// Seeding
	SeedCount     int
	SeedPassword  string
	SeedFakerSeed uint64

	// Hashing
	BcryptCost int

	// Metrics (optional)
	PushgatewayURL string
}

func Load() (*Config, error) {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		MongoDB:        getEnv("MONGO_DB", "app"),
		SeedPassword:   getEnv("SEED_PASSWORD", "riminarb"),
		PushgatewayURL: strings.TrimSpace(os.Getenv("PUSHGATEWAY_URL")),
	}

	// required: the seeder cannot do anything without a store.
	cfg.MongoURI = strings.TrimSpace(os.Getenv("MONGO_URI"))
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("missing required env var: MONGO_URI")
	}
	if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return nil, fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://")
	}

	ct, err := getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.MongoConnectTimeout = ct

	n, err := getInt("SEED_COUNT", 20)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("SEED_COUNT must be >= 0, got %d", n)
	}
	cfg.SeedCount = n

	if cfg.SeedPassword == "" {
		return nil, fmt.Errorf("SEED_PASSWORD must not be empty")
	}

	fs, err := getInt("SEED_FAKER_SEED", 0)
	if err != nil {
		return nil, err
	}
	if fs < 0 {
		return nil, fmt.Errorf("SEED_FAKER_SEED must be >= 0, got %d", fs)
	}
	cfg.SeedFakerSeed = uint64(fs)

	cost, err := getInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}
	if cost < 4 || cost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cost)
	}
	cfg.BcryptCost = cost

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q: %w", key, v, err)
	}
	return i, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}
