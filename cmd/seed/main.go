// Command seed fills a fresh database with one demo tenant: staff, tenders
// spread over the pipeline, debts, bank operations and an investor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizdesk/internal/config"
	"bizdesk/internal/models"
	"bizdesk/internal/repositories"
	"bizdesk/internal/services"
	"bizdesk/pkg/database"
	"bizdesk/pkg/logger"
)

type seeder struct {
	fake     *gofakeit.Faker
	tenantID uuid.UUID
	now      time.Time

	staff     services.StaffService
	workload  services.WorkloadService
	tenders   services.TenderService
	debts     services.DebtService
	banking   services.BankingService
	investors services.InvestorService
	kudir     services.KudirService
}

func main() {
	configPath := flag.String("config", "", "path to a config file")
	owner := flag.String("owner", "", "auth user id of the tenant owner (required)")
	slug := flag.String("slug", "demo", "tenant slug")
	tenderCount := flag.Int("tenders", 25, "number of tenders")
	seed := flag.Uint64("seed", 0, "faker seed, 0 for random")
	flag.Parse()

	ownerID, err := uuid.Parse(*owner)
	if err != nil {
		log.Fatalf("-owner must be a user UUID: %v", err)
	}
	if *tenderCount < 1 {
		log.Fatal("-tenders must be at least 1")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	if err := database.RunMigrations(cfg.DB.URL, zl); err != nil {
		zl.Fatal("migrations failed", zap.Error(err))
	}
	pool, err := database.NewPool(ctx, cfg.DB, zl)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()

	tenantRepo := repositories.NewTenantRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	tenderRepo := repositories.NewTenderRepo(pool)
	bankRepo := repositories.NewBankRepo(pool)

	tenant, err := services.NewTenantService(tenantRepo).Create(ctx, ownerID, &services.CreateTenantRequest{
		Name:      "ООО " + gofakeit.Company(),
		Slug:      *slug,
		OwnerName: gofakeit.Name(),
	})
	if err != nil {
		zl.Fatal("create tenant", zap.Error(err))
	}

	s := &seeder{
		fake:      gofakeit.New(*seed),
		tenantID:  tenant.ID,
		now:       time.Now().UTC(),
		staff:     services.NewStaffService(roleRepo, employeeRepo),
		workload:  services.NewWorkloadService(repositories.NewWorkloadRepo(pool), employeeRepo),
		tenders:   services.NewTenderService(tenderRepo, repositories.NewTenderStageRepo(pool), employeeRepo, cfg.Tenders.StaleAfterDays),
		debts:     services.NewDebtService(repositories.NewDebtRepo(pool)),
		banking:   services.NewBankingService(bankRepo, tenderRepo),
		investors: services.NewInvestorService(repositories.NewInvestorRepo(pool)),
		kudir:     services.NewKudirService(repositories.NewKudirRepo(pool), bankRepo, zl),
	}

	if err := s.run(ctx, *tenderCount); err != nil {
		zl.Fatal("seed failed", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
	}
	zl.Info("seed complete", zap.String("tenant_id", tenant.ID.String()), zap.String("slug", tenant.Slug))
}

func (s *seeder) run(ctx context.Context, tenderCount int) error {
	employees, err := s.seedStaff(ctx)
	if err != nil {
		return fmt.Errorf("staff: %w", err)
	}
	tenders, err := s.seedTenders(ctx, tenderCount, employees)
	if err != nil {
		return fmt.Errorf("tenders: %w", err)
	}
	if err := s.seedWorkload(ctx, employees, tenders); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	if err := s.seedDebts(ctx); err != nil {
		return fmt.Errorf("debts: %w", err)
	}
	if err := s.seedBanking(ctx, tenders); err != nil {
		return fmt.Errorf("banking: %w", err)
	}
	if err := s.seedInvestors(ctx); err != nil {
		return fmt.Errorf("investors: %w", err)
	}
	_, err = s.kudir.ImportFromBank(ctx, s.tenantID, s.now.AddDate(0, -6, 0), s.now)
	return err
}

func (s *seeder) seedStaff(ctx context.Context) ([]*models.Employee, error) {
	role, err := s.staff.CreateRole(ctx, s.tenantID, &services.RoleRequest{
		Name:        "manager",
		Description: "Tender manager",
		Permissions: []string{
			services.PermTendersRead, services.PermTendersWrite,
			services.PermDebtsRead, services.PermStaffRead,
			services.PermDashboardRead, services.PermAssistantUse,
		},
	})
	if err != nil {
		return nil, err
	}

	employees := make([]*models.Employee, 0, 5)
	for range 5 {
		e, err := s.staff.CreateEmployee(ctx, s.tenantID, &services.EmployeeRequest{
			RoleID:              role.ID,
			FullName:            s.fake.Name(),
			Email:               s.fake.Email(),
			Position:            s.fake.JobTitle(),
			WeeklyCapacityHours: s.fake.RandomInt([]int{20, 30, 40}),
			HourlyRate:          int64(s.fake.Number(800, 3000)) * 100,
		})
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, nil
}

func (s *seeder) seedTenders(ctx context.Context, n int, employees []*models.Employee) ([]*services.TenderView, error) {
	stages, err := s.tenders.ListStages(ctx, s.tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]*services.TenderView, 0, n)
	for range n {
		stage := stages[s.fake.Number(0, len(stages)-1)]
		responsible := employees[s.fake.Number(0, len(employees)-1)]
		initial := int64(s.fake.Number(100, 20000)) * 1000_00
		bid := initial * int64(s.fake.Number(80, 98)) / 100
		deadline := s.now.AddDate(0, 0, s.fake.Number(-20, 45))

		req := &services.TenderRequest{
			Title:          "Поставка: " + s.fake.ProductName(),
			Customer:       "ГБУ " + s.fake.Company(),
			RegistryNumber: s.fake.Numerify("03732000###2400####"),
			Platform:       s.fake.RandomString([]string{"zakupki.gov.ru", "sberbank-ast.ru", "roseltorg.ru", "rts-tender.ru"}),
			InitialPrice:   initial,
			BidPrice:       &bid,
			CostEstimate:   bid * int64(s.fake.Number(60, 90)) / 100,
			StageID:        &stage.ID,
			Deadline:       &deadline,
			ResponsibleID:  &responsible.ID,
		}
		if stage.Kind == models.StageKindWon {
			req.ContractPrice = &bid
		}

		t, err := s.tenders.Create(ctx, s.tenantID, req)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *seeder) seedWorkload(ctx context.Context, employees []*models.Employee, tenders []*services.TenderView) error {
	monthStart := time.Date(s.now.Year(), s.now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for _, e := range employees {
		for range 3 {
			t := tenders[s.fake.Number(0, len(tenders)-1)]
			start := monthStart.AddDate(0, 0, s.fake.Number(0, 20))
			_, err := s.workload.Create(ctx, s.tenantID, &services.AllocationRequest{
				EmployeeID: e.ID,
				TenderID:   &t.ID,
				Title:      "Подготовка заявки",
				StartDate:  start,
				EndDate:    start.AddDate(0, 0, s.fake.Number(1, 7)),
				Hours:      s.fake.Number(4, 40),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) seedDebts(ctx context.Context) error {
	for i := range 12 {
		direction := models.DebtReceivable
		if i%3 == 0 {
			direction = models.DebtPayable
		}
		issued := s.now.AddDate(0, 0, -s.fake.Number(5, 150))
		due := issued.AddDate(0, 0, 30)
		debt, err := s.debts.Create(ctx, s.tenantID, &services.DebtRequest{
			Direction:    direction,
			Counterparty: "ООО " + s.fake.Company(),
			Description:  "Договор № " + s.fake.Numerify("##/24"),
			Amount:       int64(s.fake.Number(50, 3000)) * 1000_00,
			IssuedOn:     &issued,
			DueOn:        &due,
		})
		if err != nil {
			return err
		}
		if s.fake.Bool() {
			paid := issued.AddDate(0, 0, s.fake.Number(1, 20))
			if _, err := s.debts.RecordPayment(ctx, s.tenantID, debt.ID, &services.PaymentRequest{
				Amount: debt.Amount / int64(s.fake.Number(1, 4)),
				PaidOn: &paid,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) seedBanking(ctx context.Context, tenders []*services.TenderView) error {
	account, err := s.banking.CreateAccount(ctx, s.tenantID, &services.BankAccountRequest{
		Name:           "Расчётный счёт",
		BankName:       "АО Банк",
		AccountNumber:  s.fake.Numerify("40702810####000#####"),
		BIC:            s.fake.Numerify("044525###"),
		Currency:       "RUB",
		OpeningBalance: 500_000_00,
	})
	if err != nil {
		return err
	}

	for range 40 {
		day := s.now.AddDate(0, 0, -s.fake.Number(0, 180))
		req := &services.BankTransactionRequest{
			AccountID:     account.ID,
			Direction:     models.DirectionOut,
			Amount:        int64(s.fake.Number(5, 400)) * 1000_00,
			Counterparty:  "ООО " + s.fake.Company(),
			OperationDate: &day,
		}
		if s.fake.Number(0, 2) > 0 {
			t := tenders[s.fake.Number(0, len(tenders)-1)]
			req.Direction = models.DirectionIn
			req.TenderID = &t.ID
			req.Purpose = "Оплата по контракту " + t.RegistryNumber
			req.Category = "revenue"
		} else {
			req.Purpose = "Оплата поставщику"
			req.Category = s.fake.RandomString([]string{"materials", "salary", "rent", "taxes"})
		}
		if _, err := s.banking.CreateTransaction(ctx, s.tenantID, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedInvestors(ctx context.Context) error {
	investor, err := s.investors.Create(ctx, s.tenantID, &services.InvestorRequest{
		Name:  s.fake.Name(),
		Kind:  "individual",
		Email: s.fake.Email(),
		Phone: s.fake.Phone(),
	})
	if err != nil {
		return err
	}
	_, err = s.investors.CreateInvestment(ctx, s.tenantID, &services.InvestmentRequest{
		InvestorID:    investor.ID,
		Amount:        2_000_000_00,
		RatePercent:   24,
		StartDate:     s.now.AddDate(0, -3, 0),
		TermMonths:    12,
		PayoutFormula: "amount * rate / 100 / 12",
	})
	return err
}
