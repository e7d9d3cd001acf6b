package cli

import (
	"context"
	"fmt"
	"os"

	"loyalty-engine/config"
	"loyalty-engine/internal/adapter/storage/postgres"
	"loyalty-engine/internal/adapter/storage/redis"
	"loyalty-engine/internal/core/ports"
	"loyalty-engine/internal/service"
	"loyalty-engine/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "loyalty",
	Short:        "Loyalty points ledger and redemption engine",
	Long:         `Administrative interface for the loyalty engine: schema migration, reward catalog management, voucher pool loading and ledger verification.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: ./config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// engine bundles the wired storage and services for a CLI invocation.
type engine struct {
	cfg        *config.Config
	log        zerolog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	accounts   ports.AccountRepository
	rewards    ports.RewardRepository
	vouchers   ports.VoucherRepository
	txns       ports.TransactionRepository
	ledger     ports.LedgerService
	redemption ports.RedemptionService
}

// openEngine connects storage and wires the services. Redis is optional: a
// failed connection degrades to no leaderboard cache rather than aborting.
func openEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var leaderboard ports.LeaderboardCache
	rdb, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, leaderboard cache disabled")
		rdb = nil
	} else {
		leaderboard = redis.NewLeaderboard(rdb)
	}

	accountRepo := postgres.NewAccountRepo(pool)
	txRepo := postgres.NewTransactionRepo(pool)
	rewardRepo := postgres.NewRewardRepo(pool)
	voucherRepo := postgres.NewVoucherRepo(pool)
	redemptionRepo := postgres.NewRedemptionRepo(pool)
	transactor := postgres.NewTransactor(pool)

	ledger := service.NewLedgerService(accountRepo, txRepo, leaderboard, transactor, log)
	redemption := service.NewRedemptionService(accountRepo, rewardRepo, voucherRepo, redemptionRepo, ledger, log)

	return &engine{
		cfg:        cfg,
		log:        log,
		pool:       pool,
		rdb:        rdb,
		accounts:   accountRepo,
		rewards:    rewardRepo,
		vouchers:   voucherRepo,
		txns:       txRepo,
		ledger:     ledger,
		redemption: redemption,
	}, nil
}

func (e *engine) close() {
	if e.rdb != nil {
		e.rdb.Close() //nolint:errcheck
	}
	e.pool.Close()
}
