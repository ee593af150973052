package global

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gocql/gocql"
	minio "github.com/minio/minio-go/v7"
)

// InternalLogger for errors that should never happen in normal circumstances
var InternalLogger *log.Logger

// MonitorLogger for expected operational noise (bad requests, transport failures)
var MonitorLogger *log.Logger

// Session for global cassandra cql session
var Session *gocql.Session

// RedisClient for global redis queries and pub/sub
var RedisClient *redis.Client

// MinIOClient for global min io access
var MinIOClient *minio.Client

// JwtKey used to sign and parse jwt tokens
var JwtKey []byte

// RefreshTokenDuration determines the length of a refresh token (60 days)
var RefreshTokenDuration time.Duration = time.Hour * 24 * 60

// Context is the default context
var Context = context.Background()

// Validator validates incoming bodys of data
var Validator = validator.New()
