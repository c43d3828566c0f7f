package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskflow-api/api"
	"taskflow-api/genai"
	"taskflow-api/storage"
	"taskflow-api/store"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()

	kv, err := buildKV()
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	persist := storage.New(kv, logger)
	sessions := store.NewManager(persist, logger)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("missing GEMINI_API_KEY")
	}
	flows := genai.NewFlows(genai.NewGeminiClient(apiKey))

	auth, err := buildAuth()
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, sessions, flows, auth, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// buildKV selects the persistence backend. Redis wins when configured,
// otherwise Azure Table Storage is used.
func buildKV() (storage.KV, error) {
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		return storage.NewRedisKV(redis.NewClient(redisOpts)), nil
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tableName := os.Getenv("TASKS_TABLE")
	if connStr == "" || tableName == "" {
		return nil, fmt.Errorf("missing storage config")
	}
	return storage.NewTableKV(connStr, tableName)
}

func buildAuth() (*api.Auth, error) {
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		secret := os.Getenv("TEST_JWT_SECRET")
		if secret == "" {
			return nil, fmt.Errorf("missing TEST_JWT_SECRET")
		}
		return api.NewTestAuth([]byte(secret), os.Getenv("AUTH0_AUDIENCE"), os.Getenv("AUTH0_ISSUER")), nil
	}

	audience := os.Getenv("AUTH0_AUDIENCE")
	domain := os.Getenv("AUTH0_DOMAIN")
	if audience == "" || domain == "" {
		return nil, fmt.Errorf("missing Auth0 config")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return api.NewAuth(jwks, audience, "https://"+domain+"/"), nil
}
