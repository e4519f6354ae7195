package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/businessapi/organization-backend-go/internal/config"
	amqpHandler "github.com/businessapi/organization-backend-go/internal/handler/amqp"
	"github.com/businessapi/organization-backend-go/internal/pkg/broker"
	"github.com/businessapi/organization-backend-go/internal/pkg/database"
	"github.com/businessapi/organization-backend-go/internal/pkg/identity"
	"github.com/businessapi/organization-backend-go/internal/pkg/mailer"
	"github.com/businessapi/organization-backend-go/internal/pkg/rpc"
	"github.com/businessapi/organization-backend-go/internal/repository/postgresql"
	employeeService "github.com/businessapi/organization-backend-go/internal/service/employee"
	onboardingService "github.com/businessapi/organization-backend-go/internal/service/onboarding"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	setupLogger(cfg.App.LogLevel)

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	transport, err := broker.NewAMQPTransport(cfg.Broker.URL)
	if err != nil {
		log.Fatal("Failed to connect to broker: ", err)
	}
	defer transport.Close()

	rpcClient, err := rpc.NewClient(transport, cfg.Broker.CallTimeout)
	if err != nil {
		log.Fatal("Failed to start RPC client: ", err)
	}
	defer rpcClient.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	departmentRepo := postgresql.NewDepartmentRepository(db)
	txManager := postgresql.NewTxManager(db)

	identityClient := identity.NewClient(rpcClient, cfg.Broker.Exchange)
	mailService := mailer.NewMailer(rpcClient, cfg.Broker.Exchange)

	employeeSvc := employeeService.NewEmployeeService(txManager, employeeRepo, departmentRepo)
	onboardingSvc := onboardingService.NewOnboardingService(identityClient, mailService, employeeSvc)

	handler := amqpHandler.NewEmployeeHandler(transport, cfg.Broker.Exchange, onboardingSvc, employeeSvc)
	if err := handler.Start(); err != nil {
		log.Fatal("Failed to start broker handlers: ", err)
	}

	slog.Info("Organization management worker running",
		"exchange", cfg.Broker.Exchange,
		"reply_queue", rpcClient.ReplyQueue(),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
