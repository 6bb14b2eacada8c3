package startup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casbin/casbin"
	"github.com/go-redis/redis"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"room_reservation_service/casbinAuthorization"
	"room_reservation_service/handlers"
	application "room_reservation_service/service"
	"room_reservation_service/startup/config"
	store2 "room_reservation_service/store"
)

type Server struct {
	config *config.Config
}

func NewServer(config *config.Config) *Server {
	return &Server{
		config: config,
	}
}

func (server *Server) Start() {

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
		},
	}

	ctx := context.Background()
	exp, err := newExporter(server.config.JaegerAddress)
	if err != nil {
		log.Fatalf("Failed to Initialize Exporter: %v", err)
	}

	tp := newTraceProvider(exp)
	defer func() { _ = tp.Shutdown(ctx) }()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("room_reservation_service")

	storeLogger := log.New(os.Stdout, "[res-store] ", log.LstdFlags)
	apiLogger := log.New(os.Stdout, "[res-api] ", log.LstdFlags)

	mongoClient := server.initMongoClient(httpClient)
	defer func(mongoClient *mongo.Client, ctx context.Context) {
		err := mongoClient.Disconnect(ctx)
		if err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}(mongoClient, context.Background())

	redisClient := server.initRedisClient()

	reservationStore := store2.NewReservationMongoDBStore(mongoClient, storeLogger, tracer)
	roomStore := store2.NewRoomMongoDBStore(mongoClient, storeLogger, tracer)
	userStore := store2.NewUserMongoDBStore(mongoClient, storeLogger, tracer)
	tokenCache := store2.NewTokenRedisCache(redisClient, storeLogger, tracer)
	roomCache := store2.NewRoomRedisCache(redisClient, storeLogger, tracer)

	server.bootstrap(reservationStore, roomStore, userStore)

	reservationService := application.NewReservationService(reservationStore, roomStore, userStore, roomCache, apiLogger, tracer)
	authService := application.NewAuthService(userStore, tokenCache, apiLogger, tracer)
	userService := application.NewUserService(userStore, apiLogger, tracer)

	reservationHandler := handlers.NewReservationHandler(apiLogger, reservationService, tracer)
	authHandler := handlers.NewAuthHandler(apiLogger, authService, tracer)
	userHandler := handlers.NewUserHandler(apiLogger, userService, tracer)

	server.start(reservationHandler, authHandler, userHandler)
}

// bootstrap installs indexes and seeds the room directory and admin account.
// The unique partial index on reservations is load-bearing: it is what keeps
// two concurrent bookings of the same slot from both committing.
func (server *Server) bootstrap(reservationStore *store2.ReservationMongoDBStore,
	roomStore *store2.RoomMongoDBStore, userStore *store2.UserMongoDBStore) {

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reservationStore.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create reservation indexes: %v", err)
	}
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}
	if err := roomStore.EnsureRooms(ctx, server.config.RoomNames); err != nil {
		log.Fatalf("Failed to seed rooms: %v", err)
	}

	if server.config.AdminPassword != "" {
		err := userStore.EnsureAdmin(ctx, server.config.AdminUsername, server.config.AdminEmail, server.config.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	} else {
		log.Println("ADMIN_PASSWORD not set, skipping admin account seeding")
	}
}

func (server *Server) initMongoClient(httpClient *http.Client) *mongo.Client {
	client, err := store2.GetClientWithHTTPConfig(server.config.ReservationsDB, server.config.ReservationsDBPort, httpClient)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) initRedisClient() *redis.Client {
	client, err := store2.GetRedisClient(server.config.CacheHost, server.config.CachePort)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) start(reservationHandler *handlers.ReservationHandler,
	authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler) {

	enforcer, err := casbin.NewEnforcerSafe(server.config.CasbinModelPath, server.config.CasbinPolicyPath)
	if err != nil {
		log.Fatalf("Failed to load casbin policy: %v", err)
	}

	router := mux.NewRouter()
	router.Use(MiddlewareContentTypeSet)
	router.Use(casbinAuthorization.CasbinMiddleware(enforcer, logrus.New()))

	authHandler.Init(router)
	userHandler.Init(router)
	reservationHandler.Init(router)

	cors := gorillaHandlers.CORS(gorillaHandlers.AllowedOrigins([]string{"*"}))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", server.config.Port),
		Handler:      cors(router),
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	wait := time.Second * 15
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	<-c

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Error Shutting Down Server %s", err)
	}
	log.Println("Server Gracefully Stopped")
}

func MiddlewareContentTypeSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		rw.Header().Add("Content-Type", "application/json")
		rw.Header().Set("X-Content-Type-Options", "nosniff")
		rw.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(rw, h)
	})
}

func newExporter(address string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func newTraceProvider(exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("room_reservation_service"),
		),
	)

	if err != nil {
		log.Fatalf("Failed to initialize resource: %v", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
}
