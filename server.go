package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"chatline_server/authz"
	"chatline_server/blocks"
	"chatline_server/config"
	"chatline_server/dispatch"
	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/routes"
	"chatline_server/services"
	"chatline_server/socket"
	"chatline_server/store"

	redis "github.com/go-redis/redis/v8"
	"github.com/gocql/gocql"
	fiber "github.com/gofiber/fiber/v2"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	internalErrorsFile, err := os.OpenFile("internal_errors.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	errors.HandleFatalError(err)

	monitorLogsFile, err := os.OpenFile("monitor_logs.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	errors.HandleFatalError(err)

	global.InternalLogger = log.New(internalErrorsFile, "", log.LstdFlags)
	global.MonitorLogger = log.New(monitorLogsFile, "", log.LstdFlags)

	config.Config = config.Default()
	if data, err := os.ReadFile("./config.json"); err == nil {
		errors.HandleFatalError(json.Unmarshal(data, &config.Config))
	}

	global.JwtKey = []byte(config.Config.JwtKey)

	global.MinIOClient, err = minio.New(config.Config.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Config.MinIO.User, config.Config.MinIO.Password, ""),
		Secure: false,
	})
	errors.HandleFatalError(err)

	exists, err := global.MinIOClient.BucketExists(global.Context, "media")
	errors.HandleFatalError(err)
	if !exists {
		global.MinIOClient.MakeBucket(global.Context, "media", minio.MakeBucketOptions{Region: "us-east-1"})
	}

	global.RedisClient = redis.NewClient(&redis.Options{
		Addr:     config.Config.Redis.Addr,
		Password: config.Config.Redis.Password,
		DB:       config.Config.Redis.DB,
	})

	cluster := gocql.NewCluster(config.Config.Scylla.Hosts...)
	cluster.Keyspace = config.Config.Scylla.Keyspace
	global.Session, err = cluster.CreateSession()
	errors.HandleFatalError(err)
	fmt.Println("ScyllaDB initialized")
	fmt.Printf("Keyspace: %s\n\n", cluster.Keyspace)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS users (
			user_id text,
			username text,
			display_name text,
			password_hash text,
			is_online boolean,
			last_seen bigint,
			created bigint,
			PRIMARY KEY (user_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS users_by_username (
			username text,
			user_id text,
			PRIMARY KEY (username))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS friendships (
			user_id text,
			friend_id text,
			created bigint,
			PRIMARY KEY (user_id, friend_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS friend_requests (
			receiver_id text,
			sender_id text,
			status text,
			created bigint,
			PRIMARY KEY (receiver_id, sender_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS blocks (
			blocker_id text,
			blocked_id text,
			created bigint,
			PRIMARY KEY (blocker_id, blocked_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS conversations (
			conversation_id text,
			is_group boolean,
			name text,
			created_by text,
			created bigint,
			PRIMARY KEY (conversation_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS private_conversations (
			pair_key text,
			conversation_id text,
			PRIMARY KEY (pair_key))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS members (
			conversation_id text,
			user_id text,
			role text,
			state text,
			joined bigint,
			PRIMARY KEY (conversation_id, user_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS user_conversations (
			user_id text,
			conversation_id text,
			PRIMARY KEY (user_id, conversation_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS messages (
			conversation_id text,
			created bigint,
			message_id text,
			sender_id text,
			body text,
			media_id text,
			PRIMARY KEY (conversation_id, created, message_id))
		WITH
		CLUSTERING ORDER BY (created DESC, message_id DESC) AND
		compaction = { 'class' :  'SizeTieredCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)

	err = global.Session.Query(`
		CREATE TABLE IF NOT EXISTS unread_counts (
			user_id text,
			conversation_id text,
			unread counter,
			PRIMARY KEY (user_id, conversation_id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };
	`).Exec()

	errors.HandleFatalError(err)
}

func main() {

	defer global.Session.Close()

	app := fiber.New()
	defer app.Shutdown()

	users := store.NewScyllaUsers(global.Session)
	friendships := store.NewScyllaFriendships(global.Session)
	requests := store.NewScyllaFriendRequests(global.Session)
	blockRepo := store.NewScyllaBlocks(global.Session)
	convos := store.NewScyllaConversations(global.Session)
	members := store.NewScyllaMembers(global.Session)
	messages := store.NewScyllaMessages(global.Session)

	locks := store.NewKeyedMutex()
	filter := blocks.NewFilter(blockRepo)
	engine := authz.NewEngine(members, filter, locks)
	dispatcher := dispatch.NewDispatcher(members, filter, dispatch.NewRedisTransport(global.RedisClient), global.MonitorLogger)

	env := services.Env{
		Users:       users,
		Friendships: friendships,
		Requests:    requests,
		Blocks:      blockRepo,
		Convos:      convos,
		Members:     members,
		Messages:    messages,
		Filter:      filter,
		Engine:      engine,
		Dispatcher:  dispatcher,
		Locks:       locks,
	}

	stream := socket.NewStream(users, friendships, filter, dispatcher, global.MonitorLogger)

	routes.SetRoutes(app, env, stream)

	fmt.Println("Starting server on port: " + config.Config.Port)
	log.Fatal(app.Listen(config.Config.Port))

}
