package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	pgdb "github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/postgres"
	pgconnresult "github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/postgres/connresult"
	pgdelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/postgres/delegatestore"
	pginfra "github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/postgres/infrastore"
	pgprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/postgres/profilestore"
	pgselectionlog "github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/postgres/selectionlog"

	assignsvc "github.com/vigneswara-propelo/harness-core-sub004/internal/service/assign"
	fleetsvc "github.com/vigneswara-propelo/harness-core-sub004/internal/service/fleet"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/transport"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Pool      *pgxpool.Pool
	Server    *http.Server
	AssignSvc *assignsvc.Service
}

// Build is the composition root: the only place concrete types are wired to
// their interface dependencies.
func Build(ctx context.Context) (*App, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	pool, err := pgdb.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	delegateStore := pgdelegate.New(pool)
	environmentStore := pginfra.NewEnvironments(pool)
	infraMappingStore := pginfra.NewInfraMappings(pool)
	profileStore := pgprofile.New(pool)
	connResultStore := pgconnresult.New(pool)
	selectionLogSink := pgselectionlog.New(pool)

	fleetService := fleetsvc.NewService(delegateStore, selectionLogSink)
	assignService := assignsvc.NewService(
		delegateStore,
		environmentStore,
		infraMappingStore,
		profileStore,
		connResultStore,
		selectionLogSink,
		fleetService,
		assignsvc.CryptoRand{},
	)

	router := transport.NewRouter(assignService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	slog.Info("application wired", "port", port)

	return &App{
		Pool:      pool,
		Server:    server,
		AssignSvc: assignService,
	}, nil
}
