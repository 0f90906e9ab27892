package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/admin"
	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/claims"
	"github.com/helpinghands/helpinghands/internal/csr"
	"github.com/helpinghands/helpinghands/internal/cv"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/matching"
	"github.com/helpinghands/helpinghands/internal/pin"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// RegisterPINRoutes wires the person-in-need workspace.
func RegisterPINRoutes(r fiber.Router, reqs *requests.Handler, account *pin.Handler, claim *claims.Handler) {
	r.Get("/requests", reqs.List)
	r.Post("/requests", reqs.Submit)

	r.Get("/claims", claim.ListForPIN)
	r.Post("/claims/:id/verify", claim.Verify)
	r.Post("/claims/:id/dispute", claim.Dispute)

	r.Get("/profile", account.Profile)
	r.Post("/profile/otp", account.StartProfileUpdate)
	r.Post("/profile/confirm", account.ConfirmProfileUpdate)
	r.Post("/password/otp", account.StartPasswordChange)
	r.Post("/password/confirm", account.ConfirmPasswordChange)
}

// RegisterCVRoutes wires the corporate volunteer workspace.
func RegisterCVRoutes(r fiber.Router, h *cv.Handler, claim *claims.Handler, match *matching.Handler) {
	r.Get("/requests", h.Requests)
	r.Get("/requests/:id/safety-tips", h.SafetyTips)
	r.Post("/requests/:id/claims", claim.Report)
	r.Post("/offers/:id/decision", match.DecideOwn)
}

// RegisterCSRRoutes wires the CSR workspace, matching and claim decisions.
func RegisterCSRRoutes(r fiber.Router, h *csr.Handler, match *matching.Handler, claim *claims.Handler, flag *flags.Handler) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/pool", h.Pool)
	r.Get("/shortlist", h.Shortlist)
	r.Post("/shortlist/:id", h.AddShortlist)
	r.Delete("/shortlist/:id", h.RemoveShortlist)
	r.Get("/committed", h.Committed)
	r.Get("/notifications", h.Notifications)
	r.Post("/requests/:id/commit", h.Commit)
	r.Post("/requests/:id/flag", flag.FlagRequest)

	r.Get("/requests/:id/suggestions", match.Suggest)
	r.Get("/requests/:id/pool", match.GetPool)
	r.Put("/requests/:id/pool", match.SetPool)
	r.Post("/requests/:id/offers", match.SendOffers)
	r.Post("/requests/:id/pool/:cv/decision", match.Decide)
	r.Post("/matching/sweep", match.Sweep)

	r.Get("/completed", claim.Completed)
	r.Get("/requests/:id/claims", claim.ForRequest)
	r.Post("/claims/:id/decision", claim.Decide)
}

// RegisterAdminRoutes wires the platform admin dashboard and moderation.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler, flag *flags.Handler) {
	r.Get("/metrics", h.Metrics)
	r.Get("/reports/requests", h.Report)
	r.Get("/flags", flag.List)
	r.Post("/flags/:id/accept", flag.Accept)
	r.Post("/flags/:id/reject", flag.Reject)
}

// RegisterChatRoutes wires the PIN/CV chat and request completion.
func RegisterChatRoutes(chats, reqs fiber.Router, h *chat.Handler) {
	chats.Get("/", h.MyChats)
	chats.Get("/:id/messages", h.Messages)
	chats.Post("/:id/messages", h.Send)
	reqs.Post("/:id/chat", h.ForRequest)
	reqs.Post("/:id/complete", h.Complete)
}
