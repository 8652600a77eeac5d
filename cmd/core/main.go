package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/in/grpc"
	badger_adapter "github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/out/badger"
	memory_adapter "github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/out/mysql"
	postgres_adapter "github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/out/postgres"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-interest-ledger/internal/config"
	"github.com/JoeShih716/go-interest-ledger/pkg/metrics"
	"github.com/JoeShih716/go-interest-ledger/pkg/mysql"
	"github.com/JoeShih716/go-interest-ledger/pkg/wal"
	pb "github.com/JoeShih716/go-interest-ledger/proto"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run 組裝並啟動服務，收到 SIGINT/SIGTERM 或 gRPC server 失敗時返回
// 所有已開啟的資源都會在返回前關閉
func run(configPath string) error {
	// 1. 載入設定
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	level, _ := config.ParseLogLevel(cfg.Log.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 程式結束時依相反順序關閉
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("close failed", slog.String("error", err.Error()))
			}
		}
	}()

	// 3. 帳戶儲存層
	store, closeStore, err := newAccountStore(cfg)
	if err != nil {
		return fmt.Errorf("init account store: %w", err)
	}
	closers = append(closers, closeStore)

	// 4. 收入查詢
	incomes, closeIncomes, err := newIncomeLookup(cfg)
	if err != nil {
		return fmt.Errorf("init income lookup: %w", err)
	}
	closers = append(closers, closeIncomes)

	// 5. Metrics
	collector := metrics.NewCollector(
		metrics.WithLogger(logger),
		metrics.WithResultLabel(usecase.ResultLabel),
	)
	if !cfg.Metrics.Disabled {
		collector.Start(cfg.Metrics.Addr)
		closers = append(closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return collector.Shutdown(ctx)
		})
	}

	// 6. 初始化 UseCase
	ledger := usecase.NewAccountLedger(store, incomes,
		usecase.WithLogger(logger),
		usecase.WithRecorder(collector),
	)

	// 7. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.LoggingInterceptor(logger)))
	pb.RegisterLedgerServiceServer(s, grpc_adapter.NewGrpcServer(ledger))
	reflection.Register(s) // 方便 grpcurl 等工具測試

	logger.Info("starting grpc server",
		slog.String("addr", cfg.GRPC.Addr),
		slog.String("store", cfg.Store.Kind),
		slog.String("income", cfg.Income.Kind))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	if err := serve(s, lis, quit); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

// serve 執行 gRPC server 直到收到訊號 (Graceful Shutdown) 或 Serve 失敗
func serve(s *grpc.Server, lis net.Listener, quit <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(lis)
	}()

	select {
	case sig := <-quit:
		slog.Info("shutting down server", slog.String("signal", sig.String()))
		s.GracefulStop()
		return nil
	case err := <-serveErr:
		s.Stop()
		return fmt.Errorf("grpc serve: %w", err)
	}
}

// newAccountStore 依設定建立儲存層，並回傳對應的關閉函數
func newAccountStore(cfg *config.Config) (usecase.AccountStore, func() error, error) {
	switch cfg.Store.Kind {
	case config.StoreMySQL:
		client, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		store := mysql_adapter.NewAccountStore(client.DB())
		if err := store.Migrate(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("connected to mysql", slog.String("host", cfg.MySQL.Host))
		return store, client.Close, nil

	case config.StoreBadger:
		db, err := badger_adapter.Open(cfg.Store.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		store := badger_adapter.NewAccountStore(db)
		count, err := store.Count()
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("opened badger store", slog.String("dir", cfg.Store.BadgerDir), slog.Int("accounts", count))
		return store, db.Close, nil

	default:
		walFile, err := wal.Open(cfg.Store.WALPath)
		if err != nil {
			return nil, nil, err
		}
		store, err := memory_adapter.NewAccountStore(walFile)
		if err != nil {
			walFile.Close()
			return nil, nil, err
		}
		replayed := walFile.Seq()
		// 重啟時壓縮成每個帳戶一筆快照
		if err := store.Compact(); err != nil {
			walFile.Close()
			return nil, nil, fmt.Errorf("compact wal: %w", err)
		}
		slog.Info("recovered accounts from wal",
			slog.String("path", cfg.Store.WALPath),
			slog.Int("accounts", store.Len()),
			slog.Uint64("replayed_records", replayed))
		return store, walFile.Close, nil
	}
}

// newIncomeLookup 依設定建立收入查詢
func newIncomeLookup(cfg *config.Config) (usecase.IncomeLookup, func() error, error) {
	if cfg.Income.Kind != config.IncomePostgres {
		return memory_adapter.NewIncomeTable(cfg.Income.Static), func() error { return nil }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := postgres_adapter.Connect(ctx, cfg.Income.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return postgres_adapter.NewIncomeLookup(pool), func() error {
		pool.Close()
		return nil
	}, nil
}
