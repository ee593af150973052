package config

import "time"

// Config file (global)
var Config JSONConfig

// JSONConfig structure based on config.json
type JSONConfig struct {
	Origin  string       `json:"origin"`
	Port    string       `json:"port"`
	Version string       `json:"version"`
	Scylla  ScyllaConfig `json:"scylla"`
	Redis   RedisConfig  `json:"redis"`
	MinIO   MinIOConfig  `json:"minIO"`
	JwtKey  string       `json:"jwtKey"`
}

// ScyllaConfig structure based on scylla part of config.json
type ScyllaConfig struct {
	Hosts    []string `json:"hosts"`
	Keyspace string   `json:"keyspace"`
}

// RedisConfig structure based on redis part of config.json
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// MinIOConfig structure is the config for MinIO connection
type MinIOConfig struct {
	Endpoint string `json:"endpoint"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// RecentFriendshipAge is the cutoff under which a friendship counts as recent
const RecentFriendshipAge = 3 * 30 * 24 * time.Hour

// Default returns a fully populated config; config.json overrides on top of it,
// so no field is ever left partially initialized.
func Default() JSONConfig {
	return JSONConfig{
		Origin:  "http://127.0.0.1:3000",
		Port:    ":8080",
		Version: "/v1",
		Scylla: ScyllaConfig{
			Hosts:    []string{"127.0.0.1:9042"},
			Keyspace: "chatlinedb",
		},
		Redis: RedisConfig{
			Addr:     "127.0.0.1:6379",
			Password: "",
			DB:       0,
		},
		MinIO: MinIOConfig{
			Endpoint: "127.0.0.1:9000",
			User:     "minioadmin",
			Password: "minioadmin",
		},
		JwtKey: "",
	}
}
