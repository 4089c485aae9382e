package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/route-roster/backend/internal/config"
	"github.com/route-roster/backend/internal/repository"
	"github.com/route-roster/backend/internal/roster"
	"github.com/route-roster/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var userID int64
	var cityID int64
	var routesFile string
	var month int
	var year int

	flag.IntVar(&op, "op", 0, "operation (1: random directory data, 2: import routes CSV into a city, 3: fill a month of a city's roster)")
	flag.Int64Var(&userID, "user", 1, "owning user id")
	flag.Int64Var(&cityID, "city", 0, "city id for op 2 and 3")
	flag.StringVar(&routesFile, "routes", "./internal/seed/data/routes.csv", "routes CSV for op 2")
	flag.IntVar(&month, "month", int(time.Now().Month()), "month for op 3")
	flag.IntVar(&year, "year", time.Now().Year(), "year for op 3")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("cannot create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("cannot connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.InitSchema(ctx); err != nil {
		logger.Error("cannot initialise schema", "error", err)
		return
	}

	ctx = context.Background()
	switch op {
	case 0:
		logger.Error("no operation given")
	case 1:
		cityIDs, err := seed.Generate(ctx, repo, userID, seed.Options{
			Cities:           cfg.Seed.Cities,
			EmployeesPerCity: cfg.Seed.EmployeesPerCity,
			RoutesPerCity:    cfg.Seed.RoutesPerCity,
		})
		if err != nil {
			logger.Error("cannot generate directory data", slog.String("error", err.Error()))
			return
		}
		logger.Info("directory data inserted", "cities", cityIDs)
	case 2:
		if cityID <= 0 {
			logger.Error("a valid -city is required")
			return
		}
		file, err := os.Open(routesFile)
		if err != nil {
			logger.Error("cannot open routes file", "error", err)
			return
		}
		defer file.Close()

		records, err := seed.ReadRoutesCSV(file)
		if err != nil {
			logger.Error("cannot read routes file", "error", err)
			return
		}
		routes, err := seed.ImportRoutes(ctx, repo, userID, cityID, records)
		if err != nil {
			logger.Error("cannot import routes", "error", err)
			return
		}
		logger.Info("routes imported", slog.Int("count", len(routes)))
	case 3:
		if cityID <= 0 || month < 1 || month > 12 {
			logger.Error("a valid -city and -month are required")
			return
		}
		dir, err := roster.LoadDirectory(ctx, repo, userID, cityID, logger)
		if err != nil {
			logger.Error("cannot load directory", "error", err)
			return
		}
		// the seed tool is the only writer, an in-process lock is enough
		eng := roster.NewEngine(repo, dir, roster.NewLocalLocker(time.Second), logger)

		n, err := seed.FillMonth(ctx, eng, dir, time.Month(month), year, logger)
		if err != nil {
			logger.Error("cannot fill month", "error", err, "assigned", n)
			return
		}
		logger.Info("month filled", slog.Int("assigned", n))
	default:
		logger.Error("unknown operation")
	}
}
