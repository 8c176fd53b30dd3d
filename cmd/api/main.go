package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	assetStore "nftpawn-backend/internal/adapter/asset"
	httpadp "nftpawn-backend/internal/adapter/http"
	idemp "nftpawn-backend/internal/adapter/middleware"
	"nftpawn-backend/internal/adapter/repository/mysql"
	"nftpawn-backend/internal/config"
	eventDomain "nftpawn-backend/internal/domain/event"
	loanDomain "nftpawn-backend/internal/domain/loan"
	"nftpawn-backend/internal/infrastructure/cache"
	"nftpawn-backend/internal/infrastructure/db"
	loanUC "nftpawn-backend/internal/usecase/loan"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	if err := gdb.AutoMigrate(
		&loanDomain.Loan{},
		&eventDomain.Event{},
		&assetStore.Token{},
		&assetStore.Payout{},
	); err != nil {
		log.Fatal(err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	loans := mysql.NewLoanRepository(gdb)
	events := mysql.NewEventRepository(gdb)
	uow := mysql.NewGormUoW(gdb)
	usecase := loanUC.NewUsecase(loans, events, uow, cfg.CustodyAccount)

	h := httpadp.NewHandler()
	lh := httpadp.NewLoanHandler(usecase)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.Use(idemp.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	e.GET("/health", h.Health)
	lh.Register(e)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
