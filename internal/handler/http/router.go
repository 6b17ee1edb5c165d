package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/handler/http/middleware"
)

func NewRouter(tokenAuth *jwtauth.JWTAuth, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "lao-payroll-engine"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(middleware.AuthRequired(tokenAuth))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/periods", func(r chi.Router) {
					r.Get("/", payrollHandler.ListPeriods)
					r.Post("/", payrollHandler.CreatePeriod)

					r.Route("/{periodID}", func(r chi.Router) {
						r.Get("/", payrollHandler.GetPeriod)
						r.Post("/run", payrollHandler.RunPayroll)
						r.Get("/slips", payrollHandler.ListSlips)
						r.Get("/summary", payrollHandler.GetPeriodSummary)
						r.Get("/nssf-report", payrollHandler.GetNssfReport)
						r.Get("/bank-transfer", payrollHandler.GetBankTransfer)

						r.Route("/adjustments", func(r chi.Router) {
							r.Get("/", payrollHandler.ListAdjustments)
							r.Post("/", payrollHandler.CreateAdjustment)
						})
					})
				})

				r.Route("/slips", func(r chi.Router) {
					r.Get("/{slipID}", payrollHandler.GetSlip)
					r.Post("/approve", payrollHandler.ApproveSlips)
					r.Post("/mark-paid", payrollHandler.MarkSlipsPaid)
				})

				r.Delete("/adjustments/{adjustmentID}", payrollHandler.DeleteAdjustment)

				r.Route("/tax-brackets", func(r chi.Router) {
					r.Get("/", payrollHandler.ListBrackets)
					r.Post("/", payrollHandler.CreateBracket)
					r.Put("/{bracketID}/active", payrollHandler.SetBracketActive)
				})

				r.Route("/conversion-rates", func(r chi.Router) {
					r.Get("/", payrollHandler.ListRates)
					r.Post("/", payrollHandler.CreateRate)
				})
			})
		})
	})

	return r
}
