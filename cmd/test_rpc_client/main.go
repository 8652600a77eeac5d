package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-interest-ledger/pkg/grpc"
	pb "github.com/JoeShih716/go-interest-ledger/proto"
)

func main() {
	target := flag.String("target", "localhost:50051", "ledger grpc address")
	accounts := flag.Int("accounts", 1000, "number of accounts to open")
	concurrency := flag.Int("concurrency", 100, "concurrent requests")
	deposit := flag.Int64("deposit", 245654, "deposit per account, in minor units")
	cycles := flag.Int("cycles", 31, "interest cycles per account")
	flag.Parse()

	pool := grpc.NewPool(grpc.WithCallTimeout(5 * time.Second))
	defer pool.Close()

	conn, err := pool.GetConnection(*target)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	c := pb.NewLedgerServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	ids := make([]string, *accounts)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	var failed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := runAccount(ctx, c, id, *deposit, *cycles); err != nil {
				failed.Add(1)
				if idx%100 == 0 {
					log.Printf("account %s failed: %v", id, err)
				}
			}
		}(i, id)
	}
	wg.Wait()

	elapsed := time.Since(startTime)
	calls := *accounts * (2 + *cycles)
	fmt.Printf("Completed %d accounts (%d calls, %d failed) in %v\n", *accounts, calls, failed.Load(), elapsed)
	fmt.Printf("TPS: %.2f\n", float64(calls)/elapsed.Seconds())

	if len(ids) > 0 {
		printStatement(ctx, c, ids[0])
	}
}

// runAccount 開戶、存款、再計算 cycles 期利息
func runAccount(ctx context.Context, c pb.LedgerServiceClient, id string, deposit int64, cycles int) error {
	if _, err := c.OpenAccount(ctx, wrapperspb.String(id)); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if _, err := c.DepositFunds(ctx, pb.NewDepositRequest(id, deposit)); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	for i := 0; i < cycles; i++ {
		if _, err := c.CalculateInterest(ctx, wrapperspb.String(id)); err != nil {
			return fmt.Errorf("interest cycle %d: %w", i, err)
		}
	}
	return nil
}

func printStatement(ctx context.Context, c pb.LedgerServiceClient, id string) {
	list, err := c.GetStatement(ctx, wrapperspb.String(id))
	if err != nil {
		log.Printf("get statement %s: %v", id, err)
		return
	}

	fmt.Printf("\nStatement for %s\n", id)
	fmt.Printf("%-10s %14s %14s\n", "TYPE", "AMOUNT", "BALANCE")
	for _, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		kind := fields["type"].GetStringValue()
		amount := fields["amount"].GetNumberValue()
		if domain.TransactionType(kind) == domain.TransactionTypeDeposit {
			amount = fields["amount_in_pence"].GetNumberValue()
		}
		balance := fields["balance"].GetNumberValue()
		fmt.Printf("%-10s %14s %14s\n", kind,
			domain.FormatMinorUnits(int64(amount)),
			domain.FormatMinorUnits(int64(balance)))
	}
}
