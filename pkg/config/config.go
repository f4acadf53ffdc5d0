package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dwikikusuma/shopmesh/pkg/postgres"
)

const defaultJWTSecret = "secretKey"

type Config struct {
	Service  string `mapstructure:"-"`
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	GRPCPort int `mapstructure:"grpc_port"`
	HTTPPort int `mapstructure:"http_port"`

	// Storage selects the repository backend: "postgres" or "memory".
	Storage string `mapstructure:"storage"`

	Postgres Postgres          `mapstructure:"postgres"`
	Kafka    Kafka             `mapstructure:"kafka"`
	JWT      JWT               `mapstructure:"jwt"`
	Services map[string]string `mapstructure:"services"`
	Stock    Stock             `mapstructure:"stock"`
	Gateway  Gateway           `mapstructure:"gateway"`
}

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

type Kafka struct {
	Brokers  string `mapstructure:"brokers"`
	ClientID string `mapstructure:"client_id"`
	GroupID  string `mapstructure:"group_id"`
	Topic    string `mapstructure:"topic"`
}

// BrokerList splits the comma separated broker setting.
func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Stock struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Gateway struct {
	Prefix      string        `mapstructure:"prefix"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RoutesFile  string        `mapstructure:"routes_file"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

// default HTTP and gRPC ports per service
var defaultPorts = map[string][2]int{
	"gateway":  {3000, 0},
	"identity": {5000, 0},
	"catalog":  {5001, 50051},
	"order":    {5002, 0},
	"cart":     {5003, 0},
}

// Load reads configuration for the named service. Values come from the
// built-in defaults, then the optional YAML file, then the environment
// (POSTGRES_HOST, KAFKA_BROKERS, JWT_SECRET, ...).
func Load(service, file string) (Config, error) {
	v := viper.New()
	setDefaults(v, service)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// KAFKA_BROKERS="" disables the bus
	v.AllowEmptyEnv(true)

	// names used by the existing deployment descriptors
	_ = v.BindEnv("services.identity", "SERVICES_IDENTITY", "USER_SERVICE_URL")
	_ = v.BindEnv("services.catalog", "SERVICES_CATALOG", "PRODUCT_SERVICE_URL")
	_ = v.BindEnv("services.order", "SERVICES_ORDER", "ORDER_SERVICE_URL")
	_ = v.BindEnv("services.cart", "SERVICES_CART", "CART_SERVICE_URL")
	_ = v.BindEnv("http_port", "HTTP_PORT", "PORT")

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Service = service

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	ports := defaultPorts[service]
	if ports[0] == 0 {
		ports[0] = 8080
	}

	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_port", ports[0])
	v.SetDefault("grpc_port", ports[1])
	v.SetDefault("storage", "postgres")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "shopping")
	v.SetDefault("postgres.password", "shoppingpassword")
	v.SetDefault("postgres.db", "shopping_db")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("kafka.brokers", "localhost:9094")
	v.SetDefault("kafka.client_id", service)
	v.SetDefault("kafka.group_id", service)
	v.SetDefault("kafka.topic", "users.events")

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.ttl", "24h")

	v.SetDefault("services.identity", "http://localhost:5000")
	v.SetDefault("services.catalog", "http://localhost:5001")
	v.SetDefault("services.order", "http://localhost:5002")
	v.SetDefault("services.cart", "http://localhost:5003")

	v.SetDefault("stock.addr", "localhost:50051")
	v.SetDefault("stock.timeout", "3s")

	v.SetDefault("gateway.prefix", "/api")
	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("gateway.routes_file", "")
	v.SetDefault("gateway.cors_origins", []string{"http://localhost:3001"})
}

func (c Config) Validate() error {
	switch c.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage must be postgres or memory, got %q", c.Storage)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must not be empty")
	}
	if c.AppEnv == "prod" && c.JWT.Secret == defaultJWTSecret {
		return errors.New("jwt.secret must be set explicitly in prod")
	}
	if c.HTTPPort <= 0 {
		return fmt.Errorf("http_port must be positive, got %d", c.HTTPPort)
	}
	return nil
}

func (c Config) IsMemory() bool { return c.Storage == "memory" }

// PostgresConfig converts the postgres section for pkg/postgres.
func (c Config) PostgresConfig() postgres.Config {
	return postgres.Config{
		Host:    c.Postgres.Host,
		Port:    c.Postgres.Port,
		User:    c.Postgres.User,
		Pass:    c.Postgres.Password,
		DB:      c.Postgres.DB,
		SSLMode: c.Postgres.SSLMode,
	}
}
