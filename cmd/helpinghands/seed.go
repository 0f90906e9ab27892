package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/db"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/otp"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
	"github.com/helpinghands/helpinghands/internal/seed"
)

var (
	seedOpts  = seed.DefaultOptions()
	seedClear bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo data",
	Long: `Fill the database with demo data.

Creates companies, a platform admin, PIN, CV and CSR accounts, requests in
every state with their chats, flags and spent OTP codes. Seeded accounts
log in with the password Test1234!, the admin as pa_admin / Admin1234!.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if err := migrateUp(cmd); err != nil {
			return err
		}
		if seedClear {
			conn, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			err = db.Flush(ctx, conn)
			conn.Close()
			if err != nil {
				return err
			}
			cmd.Println("Existing data cleared.")
		}

		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users := accounts.NewService(accounts.NewPostgresRepository(pool))
		seeder := seed.New(
			profiles.NewService(profiles.NewPostgresRepository(pool), users),
			requests.NewPostgresRepository(pool),
			flags.NewPostgresRepository(pool),
			chat.NewPostgresRepository(pool),
			otp.NewPostgresRepository(pool),
			logger,
		)
		sum, err := seeder.Run(ctx, seedOpts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Companies: %d\n", sum.Companies)
		fmt.Fprintf(out, "PINs: %d  CVs: %d  CSRs: %d  PA: %t\n", sum.PINs, sum.CVs, sum.CSRs, sum.PA)
		fmt.Fprintf(out, "Requests: %d completed, %d active, %d pending, %d rejected\n",
			sum.Completed, sum.Active, sum.Pending, sum.Rejected)
		fmt.Fprintf(out, "Chats: %d (%d messages)  Flags: %d  OTPs: %d\n", sum.Chats, sum.Messages, sum.Flags, sum.OTPs)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.Companies, "companies", seedOpts.Companies, "number of companies")
	f.IntVar(&seedOpts.PINs, "pins", seedOpts.PINs, "number of PIN accounts")
	f.IntVar(&seedOpts.CVs, "cvs", seedOpts.CVs, "number of CV accounts")
	f.IntVar(&seedOpts.CSRs, "csrs", seedOpts.CSRs, "number of CSR accounts")
	f.IntVar(&seedOpts.Requests, "requests", seedOpts.Requests, "number of completed requests")
	f.BoolVar(&seedOpts.SkipPA, "skip-pa", false, "do not create the platform admin")
	f.Int64Var(&seedOpts.Seed, "seed", 0, "random seed, 0 picks one from the clock")
	f.BoolVar(&seedClear, "clear", false, "flush existing data first")
	rootCmd.AddCommand(seedCmd)
}
