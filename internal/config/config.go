package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Assist  Assist  `yaml:"assist"`
	Auth    Auth    `yaml:"auth"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Storage struct {
	Backend   string `yaml:"backend"` // minio, local
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
	LocalPath string `yaml:"localPath"`
}

type Assist struct {
	GeminiAPIKey string  `yaml:"geminiApiKey"`
	Model        string  `yaml:"model"`
	RatePerSec   float64 `yaml:"ratePerSec"`
}

type Auth struct {
	JwtSecret string `yaml:"jwtSecret"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if config.Assist.Model == "" {
		config.Assist.Model = "gemini-2.5-flash-preview-09-2025"
	}
	if config.Assist.RatePerSec == 0 {
		config.Assist.RatePerSec = 1
	}

	return config, nil
}
