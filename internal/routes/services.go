package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/admin"
	"github.com/helpinghands/helpinghands/internal/auth"
	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/claims"
	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/csr"
	"github.com/helpinghands/helpinghands/internal/cv"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/mailer"
	"github.com/helpinghands/helpinghands/internal/matching"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/otp"
	"github.com/helpinghands/helpinghands/internal/pin"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
	"github.com/helpinghands/helpinghands/internal/safety"
	"github.com/helpinghands/helpinghands/internal/storage"
)

// Services holds every domain service of the application.
type Services struct {
	Accounts      *accounts.Service
	Auth          *auth.Service
	Profiles      *profiles.Service
	Requests      *requests.Service
	Flags         *flags.Service
	Notifications *notification.Service
	CSR           *csr.Service
	Matching      *matching.Service
	Claims        *claims.Service
	Chat          *chat.Service
	CV            *cv.Service
	Safety        *safety.Service
	OTP           *otp.Service
	PIN           *pin.Service
	Admin         *admin.Service
}

type repositories struct {
	accounts      accounts.Repository
	profiles      profiles.Repository
	requests      requests.Repository
	flags         flags.Repository
	shortlists    csr.ShortlistRepository
	queues        matching.Repository
	notifications notification.Repository
	claims        claims.Repository
	chat          chat.Repository
	otp           otp.Repository
}

func newRepositories(db *pgxpool.Pool) repositories {
	if db == nil {
		return repositories{
			accounts:      accounts.NewMemoryRepository(),
			profiles:      profiles.NewMemoryRepository(),
			requests:      requests.NewMemoryRepository(),
			flags:         flags.NewMemoryRepository(),
			shortlists:    csr.NewMemoryShortlistRepository(),
			queues:        matching.NewMemoryRepository(),
			notifications: notification.NewMemoryRepository(),
			claims:        claims.NewMemoryRepository(),
			chat:          chat.NewMemoryRepository(),
			otp:           otp.NewMemoryRepository(),
		}
	}
	return repositories{
		accounts:      accounts.NewPostgresRepository(db),
		profiles:      profiles.NewPostgresRepository(db),
		requests:      requests.NewPostgresRepository(db),
		flags:         flags.NewPostgresRepository(db),
		shortlists:    csr.NewPostgresShortlistRepository(db),
		queues:        matching.NewPostgresRepository(db),
		notifications: notification.NewPostgresRepository(db),
		claims:        claims.NewPostgresRepository(db),
		chat:          chat.NewPostgresRepository(db),
		otp:           otp.NewPostgresRepository(db),
	}
}

// NewServices wires the domain services on Postgres, or on in-memory
// repositories when db is nil.
func NewServices(ctx context.Context, cfg config.Config, db *pgxpool.Pool, logger *slog.Logger) (*Services, error) {
	repos := newRepositories(db)

	receipts, err := storage.New(ctx, cfg.Receipts)
	if err != nil {
		return nil, fmt.Errorf("receipt store: %w", err)
	}

	users := accounts.NewService(repos.accounts)
	profileSvc := profiles.NewService(repos.profiles, users)
	notes := notification.NewService(repos.notifications, logger)
	tx := infra.NewTransactor(db)
	flagSvc := flags.NewService(repos.flags, repos.requests, profileSvc).WithTransactor(tx)
	requestSvc := requests.NewService(repos.requests, flagSvc, repos.shortlists).WithTransactor(tx)
	tips := safety.NewService(repos.requests, profileSvc, safety.NewAdvisor(cfg.LLM), logger)
	codes := otp.NewService(repos.otp, mailer.New(cfg.Email, logger))

	return &Services{
		Accounts:      users,
		Auth:          auth.NewService(users, auth.NewTokenIssuer(cfg.SecretKey, cfg.SessionTTL), profileSvc),
		Profiles:      profileSvc,
		Requests:      requestSvc,
		Flags:         flagSvc,
		Notifications: notes,
		CSR:           csr.NewService(repos.shortlists, requestSvc, notes),
		Matching:      matching.NewService(repos.queues, repos.requests, profileSvc, notes, logger).WithTransactor(tx),
		Claims:        claims.NewService(repos.claims, repos.requests, receipts, notes, profileSvc),
		Chat:          chat.NewService(repos.chat, repos.requests, users),
		CV:            cv.NewService(requestSvc),
		Safety:        tips,
		OTP:           codes,
		PIN:           pin.NewService(users, profileSvc, codes),
		Admin:         admin.NewService(repos.requests, profileSvc, flagSvc),
	}, nil
}
