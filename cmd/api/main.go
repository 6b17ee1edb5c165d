package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/config"
	appHTTP "github.com/mindset-tt/LaoHRSystem-sub001/internal/handler/http"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/database"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/repository/postgresql"
	payrollService "github.com/mindset-tt/LaoHRSystem-sub001/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	rateRepo := postgresql.NewRateRepository(db)
	earningsRepo := postgresql.NewEarningsRepository(db)

	payrollSvc := payrollService.NewPayrollService(payrollRepo, rateRepo, employeeRepo, earningsRepo)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)
	router := appHTTP.NewRouter(tokenAuth, payrollHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
