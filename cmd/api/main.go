package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
	"github.com/imrishuroy/go-pos-orderflow/internal/config"
	"github.com/imrishuroy/go-pos-orderflow/internal/handlers"
	"github.com/imrishuroy/go-pos-orderflow/internal/kitchen"
)

func setupRouter(cfg handlers.HandlerConfig, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	appCfg := config.Load()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	var notifier kitchen.Notifier = kitchen.Nop{}
	if appCfg.AMQPURL != "" {
		n, err := kitchen.Dial(appCfg.AMQPURL)
		if err != nil {
			log.Fatalf("failed to connect to kitchen broker: %v", err)
		}
		defer n.Close()
		notifier = n
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		Kitchen:          notifier,
		IdempotencyTable: appCfg.IdempotencyTable,
		OrdersTable:      appCfg.OrdersTable,
		TablesTable:      appCfg.TablesTable,
		PrintQueueURL:    appCfg.PrintQueueURL,
		TTLWindow:        appCfg.IdempotencyTTL,
	}

	r := setupRouter(cfg, appCfg.CORSOrigins)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if appCfg.RunLocal {
		addr := ":" + appCfg.Port
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
