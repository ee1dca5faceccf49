package assistant

import (
	"context"
	"strings"
	"time"

	"bizdesk/internal/analytics"
	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"go.uber.org/zap"
)

// Services are the domain services the tools act through.
type Services struct {
	Tenders    services.TenderService
	Debts      services.DebtService
	Staff      services.StaffService
	Workload   services.WorkloadService
	Banking    services.BankingService
	Kudir      services.KudirService
	Investors  services.InvestorService
	Documents  services.DocumentService
	Dashboards analytics.DashboardService
}

const defaultToolLimit = 20

var (
	limitParam  = Param{Name: "limit", Type: TypeInteger, Description: "Maximum rows to return, default 20."}
	fromParam   = Param{Name: "from", Type: TypeString, Description: "Start date, YYYY-MM-DD. Defaults to the first day of the current month."}
	toParam     = Param{Name: "to", Type: TypeString, Description: "End date, YYYY-MM-DD. Defaults to the last day of the current month."}
	amountParam = Param{Name: "amount", Type: TypeNumber, Description: "Amount in rubles.", Required: true}
)

type toolset struct {
	svc      Services
	registry *Registry
	now      func() time.Time
}

// NewToolset builds the registry of every assistant tool. Amounts passed
// by the model are rubles; amounts in results are kopecks.
func NewToolset(svc Services, guard Guard, logger *zap.Logger) *Registry {
	ts := &toolset{svc: svc, registry: NewRegistry(guard, logger), now: time.Now}
	ts.registerTenders()
	ts.registerDebts()
	ts.registerStaff()
	ts.registerBanking()
	ts.registerAccounting()
	ts.registerInvestors()
	ts.registerDashboards()
	return ts.registry
}

// add registers a tool; a ":write" permission marks it as a write.
func (ts *toolset) add(permission, name, description string, params []Param, h Handler) {
	ts.registry.Register(Tool{
		ToolDecl:   ToolDecl{Name: name, Description: description, Params: params},
		Permission: permission,
		Writes:     strings.HasSuffix(permission, ":write"),
		Handler:    h,
	})
}

func limitArg(args Args) (int, error) {
	limit, err := args.Int("limit", defaultToolLimit)
	if err != nil {
		return 0, err
	}
	limit, _, err = common.ValidatePaginationParams(limit, 0)
	if limit > 100 {
		limit = 100
	}
	return limit, err
}

// rangeArgs reads from/to, defaulting to the current month.
func (ts *toolset) rangeArgs(args Args) (time.Time, time.Time, error) {
	monthFrom, monthTo := analytics.MonthRange(ts.now())
	from, err := args.Date("from", monthFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := args.Date("to", monthTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (ts *toolset) registerTenders() {
	ts.add(services.PermTendersRead, "list_tenders", "List tenders with their current stage and time in stage.",
		[]Param{
			{Name: "query", Type: TypeString, Description: "Search in title, customer or registry number."},
			{Name: "stage_id", Type: TypeString, Description: "Only tenders in this stage."},
			limitParam,
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			stageID, err := args.OptUUID("stage_id")
			if err != nil {
				return nil, err
			}
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Tenders.List(ctx, scope.TenantID, models.TenderFilter{
				Query: args.String("query"), StageID: stageID, Limit: limit,
			})
		})

	ts.add(services.PermTendersRead, "get_tender", "Get one tender by id.",
		[]Param{{Name: "tender_id", Type: TypeString, Required: true}},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			id, err := args.UUID("tender_id")
			if err != nil {
				return nil, err
			}
			return ts.svc.Tenders.Get(ctx, scope.TenantID, id)
		})

	ts.add(services.PermTendersWrite, "create_tender", "Create a tender. Without stage_id it starts in the first stage.",
		[]Param{
			{Name: "title", Type: TypeString, Required: true},
			{Name: "customer", Type: TypeString},
			{Name: "registry_number", Type: TypeString, Description: "Procurement registry number."},
			{Name: "platform", Type: TypeString, Description: "Electronic trading platform."},
			{Name: "initial_price", Type: TypeNumber, Description: "Initial maximum price in rubles."},
			{Name: "cost_estimate", Type: TypeNumber, Description: "Estimated cost of fulfilment in rubles."},
			{Name: "deadline", Type: TypeString, Description: "Bid deadline, YYYY-MM-DD."},
			{Name: "stage_id", Type: TypeString},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.TenderRequest{
				Title:          args.String("title"),
				Customer:       args.String("customer"),
				RegistryNumber: args.String("registry_number"),
				Platform:       args.String("platform"),
			}
			var err error
			if req.InitialPrice, err = args.Money("initial_price"); err != nil {
				return nil, err
			}
			if req.CostEstimate, err = args.Money("cost_estimate"); err != nil {
				return nil, err
			}
			if req.Deadline, err = args.OptDate("deadline"); err != nil {
				return nil, err
			}
			if req.StageID, err = args.OptUUID("stage_id"); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Tenders.Create(ctx, scope.TenantID, req)
		})

	ts.add(services.PermTendersWrite, "change_tender_stage", "Move a tender to another stage.",
		[]Param{
			{Name: "tender_id", Type: TypeString, Required: true},
			{Name: "stage_id", Type: TypeString, Required: true},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			tenderID, err := args.UUID("tender_id")
			if err != nil {
				return nil, err
			}
			stageID, err := args.UUID("stage_id")
			if err != nil {
				return nil, err
			}
			by := scope.UserID
			return ts.svc.Tenders.ChangeStage(ctx, scope.TenantID, tenderID, stageID, &by)
		})

	ts.add(services.PermTendersRead, "list_stale_tenders", "List open tenders that stayed in their stage past the staleness threshold.", nil,
		func(ctx context.Context, scope Scope, _ Args) (any, error) {
			return ts.svc.Tenders.ListStale(ctx, scope.TenantID)
		})

	ts.add(services.PermTendersRead, "list_tender_stages", "List the tender pipeline stages in order.", nil,
		func(ctx context.Context, scope Scope, _ Args) (any, error) {
			return ts.svc.Tenders.ListStages(ctx, scope.TenantID)
		})
}

func (ts *toolset) registerDebts() {
	directions := []string{models.DebtReceivable, models.DebtPayable}

	ts.add(services.PermDebtsRead, "list_debts", "List debts owed to or by the company.",
		[]Param{
			{Name: "direction", Type: TypeString, Enum: directions},
			{Name: "status", Type: TypeString, Enum: []string{models.DebtStatusUnpaid, models.DebtStatusPartiallyPaid, models.DebtStatusPaid}},
			limitParam,
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Debts.List(ctx, scope.TenantID, models.DebtFilter{
				Direction: args.String("direction"), Status: args.String("status"), Limit: limit,
			})
		})

	ts.add(services.PermDebtsWrite, "create_debt", "Record a new receivable or payable.",
		[]Param{
			{Name: "direction", Type: TypeString, Required: true, Enum: directions},
			{Name: "counterparty", Type: TypeString, Required: true},
			amountParam,
			{Name: "description", Type: TypeString},
			{Name: "due_on", Type: TypeString, Description: "Due date, YYYY-MM-DD."},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.DebtRequest{
				Direction:    args.String("direction"),
				Counterparty: args.String("counterparty"),
				Description:  args.String("description"),
			}
			var err error
			if req.Amount, err = args.Money("amount"); err != nil {
				return nil, err
			}
			if req.DueOn, err = args.OptDate("due_on"); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Debts.Create(ctx, scope.TenantID, req)
		})

	ts.add(services.PermDebtsWrite, "record_debt_payment", "Record a partial or full payment of a debt.",
		[]Param{
			{Name: "debt_id", Type: TypeString, Required: true},
			amountParam,
			{Name: "paid_on", Type: TypeString, Description: "Payment date, YYYY-MM-DD. Defaults to today."},
			{Name: "note", Type: TypeString},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			debtID, err := args.UUID("debt_id")
			if err != nil {
				return nil, err
			}
			req := &services.PaymentRequest{Note: args.String("note")}
			if req.Amount, err = args.Money("amount"); err != nil {
				return nil, err
			}
			if req.PaidOn, err = args.OptDate("paid_on"); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Debts.RecordPayment(ctx, scope.TenantID, debtID, req)
		})

	ts.add(services.PermDebtsRead, "debt_aging", "Outstanding debts grouped into overdue buckets.",
		[]Param{{Name: "as_of", Type: TypeString, Description: "Date, YYYY-MM-DD. Defaults to today."}},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			now := ts.now().UTC()
			asOf, err := args.Date("as_of", time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
			if err != nil {
				return nil, err
			}
			return ts.svc.Dashboards.DebtAging(ctx, scope.TenantID, asOf)
		})
}

func (ts *toolset) registerStaff() {
	ts.add(services.PermStaffRead, "list_employees", "List employees.",
		[]Param{{Name: "status", Type: TypeString, Enum: []string{models.EmployeeStatusActive, models.EmployeeStatusInactive}}, limitParam},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Staff.ListEmployees(ctx, scope.TenantID, args.String("status"), limit, 0)
		})

	ts.add(services.PermStaffWrite, "create_employee", "Add an employee with a role.",
		[]Param{
			{Name: "full_name", Type: TypeString, Required: true},
			{Name: "role_id", Type: TypeString, Required: true},
			{Name: "email", Type: TypeString},
			{Name: "position", Type: TypeString},
			{Name: "weekly_capacity_hours", Type: TypeInteger, Description: "Defaults to 40."},
			{Name: "hourly_rate", Type: TypeNumber, Description: "Hourly rate in rubles."},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.EmployeeRequest{
				FullName: args.String("full_name"),
				Email:    args.String("email"),
				Position: args.String("position"),
			}
			var err error
			if req.RoleID, err = args.UUID("role_id"); err != nil {
				return nil, err
			}
			if req.WeeklyCapacityHours, err = args.Int("weekly_capacity_hours", 0); err != nil {
				return nil, err
			}
			if req.HourlyRate, err = args.Money("hourly_rate"); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Staff.CreateEmployee(ctx, scope.TenantID, req)
		})

	ts.add(services.PermStaffRead, "team_utilization", "Workload utilization of every active employee over a period.",
		[]Param{fromParam, toParam},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			from, to, err := ts.rangeArgs(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Workload.TeamUtilization(ctx, scope.TenantID, from, to)
		})

	ts.add(services.PermStaffRead, "list_workload", "List workload allocations overlapping a period.",
		[]Param{{Name: "employee_id", Type: TypeString}, fromParam, toParam, limitParam},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			employeeID, err := args.OptUUID("employee_id")
			if err != nil {
				return nil, err
			}
			from, to, err := ts.rangeArgs(args)
			if err != nil {
				return nil, err
			}
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Workload.List(ctx, scope.TenantID, models.WorkloadFilter{
				EmployeeID: employeeID, From: &from, To: &to, Limit: limit,
			})
		})

	ts.add(services.PermStaffWrite, "create_workload", "Allocate hours of an employee to a task between two dates.",
		[]Param{
			{Name: "employee_id", Type: TypeString, Required: true},
			{Name: "title", Type: TypeString, Required: true},
			{Name: "start_date", Type: TypeString, Required: true, Description: "YYYY-MM-DD."},
			{Name: "end_date", Type: TypeString, Required: true, Description: "YYYY-MM-DD."},
			{Name: "hours", Type: TypeInteger, Required: true},
			{Name: "tender_id", Type: TypeString},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.AllocationRequest{Title: args.String("title")}
			var err error
			if req.EmployeeID, err = args.UUID("employee_id"); err != nil {
				return nil, err
			}
			if req.TenderID, err = args.OptUUID("tender_id"); err != nil {
				return nil, err
			}
			if req.StartDate, err = args.Date("start_date", time.Time{}); err != nil {
				return nil, err
			}
			if req.EndDate, err = args.Date("end_date", time.Time{}); err != nil {
				return nil, err
			}
			if req.Hours, err = args.Int("hours", 0); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Workload.Create(ctx, scope.TenantID, req)
		})
}

func (ts *toolset) registerBanking() {
	ts.add(services.PermBankingRead, "list_bank_transactions", "List bank transactions in a period.",
		[]Param{
			{Name: "account_id", Type: TypeString},
			{Name: "direction", Type: TypeString, Enum: []string{models.DirectionIn, models.DirectionOut}},
			fromParam, toParam, limitParam,
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			accountID, err := args.OptUUID("account_id")
			if err != nil {
				return nil, err
			}
			from, to, err := ts.rangeArgs(args)
			if err != nil {
				return nil, err
			}
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Banking.ListTransactions(ctx, scope.TenantID, models.BankTransactionFilter{
				AccountID: accountID, Direction: args.String("direction"), From: &from, To: &to, Limit: limit,
			})
		})

	ts.add(services.PermBankingWrite, "create_bank_transaction", "Record an incoming or outgoing bank operation.",
		[]Param{
			{Name: "account_id", Type: TypeString, Required: true},
			{Name: "direction", Type: TypeString, Required: true, Enum: []string{models.DirectionIn, models.DirectionOut}},
			amountParam,
			{Name: "counterparty", Type: TypeString},
			{Name: "purpose", Type: TypeString},
			{Name: "category", Type: TypeString},
			{Name: "operation_date", Type: TypeString, Description: "YYYY-MM-DD. Defaults to today."},
			{Name: "tender_id", Type: TypeString, Description: "Tender the operation belongs to."},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.BankTransactionRequest{
				Direction:    args.String("direction"),
				Counterparty: args.String("counterparty"),
				Purpose:      args.String("purpose"),
				Category:     args.String("category"),
			}
			var err error
			if req.AccountID, err = args.UUID("account_id"); err != nil {
				return nil, err
			}
			if req.Amount, err = args.Money("amount"); err != nil {
				return nil, err
			}
			if req.OperationDate, err = args.OptDate("operation_date"); err != nil {
				return nil, err
			}
			if req.TenderID, err = args.OptUUID("tender_id"); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Banking.CreateTransaction(ctx, scope.TenantID, req)
		})

	ts.add(services.PermBankingRead, "account_balances", "Current balance of every bank account.", nil,
		func(ctx context.Context, scope Scope, _ Args) (any, error) {
			return ts.svc.Banking.Balances(ctx, scope.TenantID)
		})
}

func (ts *toolset) registerAccounting() {
	ts.add(services.PermAccountingRead, "list_kudir_entries", "List income and expense ledger (KUDiR) entries in a period.",
		[]Param{fromParam, toParam, limitParam},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			from, to, err := ts.rangeArgs(args)
			if err != nil {
				return nil, err
			}
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Kudir.List(ctx, scope.TenantID, models.KudirFilter{From: &from, To: &to, Limit: limit})
		})

	ts.add(services.PermAccountingWrite, "create_kudir_entry", "Add a ledger entry. Give exactly one of income or expense.",
		[]Param{
			{Name: "entry_date", Type: TypeString, Required: true, Description: "YYYY-MM-DD."},
			{Name: "description", Type: TypeString, Required: true},
			{Name: "income", Type: TypeNumber, Description: "Income in rubles."},
			{Name: "expense", Type: TypeNumber, Description: "Expense in rubles."},
			{Name: "document_ref", Type: TypeString, Description: "Primary document, e.g. invoice number."},
			{Name: "category", Type: TypeString},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.KudirEntryRequest{
				Description: args.String("description"),
				DocumentRef: args.String("document_ref"),
				Category:    args.String("category"),
			}
			var err error
			if req.EntryDate, err = args.Date("entry_date", time.Time{}); err != nil {
				return nil, err
			}
			if req.Income, err = args.Money("income"); err != nil {
				return nil, err
			}
			if req.Expense, err = args.Money("expense"); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Kudir.Create(ctx, scope.TenantID, req)
		})

	ts.add(services.PermAccountingRead, "kudir_summary", "Quarterly income and expense totals of a year.",
		[]Param{{Name: "year", Type: TypeInteger, Description: "Defaults to the current year."}},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			year, err := args.Int("year", ts.now().Year())
			if err != nil {
				return nil, err
			}
			return ts.svc.Kudir.Summary(ctx, scope.TenantID, year)
		})

	ts.add(services.PermAccountingRead, "list_documents", "List accounting documents.",
		[]Param{
			{Name: "doc_type", Type: TypeString, Enum: []string{models.DocTypeInvoice, models.DocTypeAct, models.DocTypeWaybill, models.DocTypeContract, models.DocTypeOther}},
			{Name: "status", Type: TypeString, Enum: []string{models.DocStatusDraft, models.DocStatusIssued, models.DocStatusSigned, models.DocStatusCancelled}},
			{Name: "tender_id", Type: TypeString},
			limitParam,
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			tenderID, err := args.OptUUID("tender_id")
			if err != nil {
				return nil, err
			}
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Documents.List(ctx, scope.TenantID, models.DocumentFilter{
				DocType: args.String("doc_type"), Status: args.String("status"), TenderID: tenderID, Limit: limit,
			})
		})
}

func (ts *toolset) registerInvestors() {
	ts.add(services.PermInvestorsRead, "list_investors", "List investors.", []Param{limitParam},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			limit, err := limitArg(args)
			if err != nil {
				return nil, err
			}
			return ts.svc.Investors.List(ctx, scope.TenantID, limit, 0)
		})

	ts.add(services.PermInvestorsWrite, "create_investor", "Add an investor.",
		[]Param{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "kind", Type: TypeString, Enum: []string{models.InvestorIndividual, models.InvestorCompany}},
			{Name: "email", Type: TypeString},
			{Name: "phone", Type: TypeString},
			{Name: "notes", Type: TypeString},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.InvestorRequest{
				Name:  args.String("name"),
				Kind:  args.String("kind"),
				Email: args.String("email"),
				Phone: args.String("phone"),
				Notes: args.String("notes"),
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Investors.Create(ctx, scope.TenantID, req)
		})

	ts.add(services.PermInvestorsWrite, "create_investment", "Record money received from an investor.",
		[]Param{
			{Name: "investor_id", Type: TypeString, Required: true},
			amountParam,
			{Name: "rate_percent", Type: TypeNumber, Required: true, Description: "Annual rate in percent."},
			{Name: "term_months", Type: TypeInteger, Required: true},
			{Name: "start_date", Type: TypeString, Description: "YYYY-MM-DD. Defaults to today."},
			{Name: "payout_formula", Type: TypeString, Description: "Monthly payout expression over amount, rate, term and month."},
		},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			req := &services.InvestmentRequest{PayoutFormula: args.String("payout_formula")}
			var err error
			if req.InvestorID, err = args.UUID("investor_id"); err != nil {
				return nil, err
			}
			if req.Amount, err = args.Money("amount"); err != nil {
				return nil, err
			}
			if req.RatePercent, err = args.Float("rate_percent", 0); err != nil {
				return nil, err
			}
			if req.TermMonths, err = args.Int("term_months", 0); err != nil {
				return nil, err
			}
			if req.StartDate, err = args.Date("start_date", ts.now().UTC()); err != nil {
				return nil, err
			}
			if err := ts.registry.Validate(req); err != nil {
				return nil, err
			}
			return ts.svc.Investors.CreateInvestment(ctx, scope.TenantID, req)
		})

	ts.add(services.PermInvestorsRead, "payout_schedule", "Monthly payout schedule of an investment.",
		[]Param{{Name: "investment_id", Type: TypeString, Required: true}},
		func(ctx context.Context, scope Scope, args Args) (any, error) {
			id, err := args.UUID("investment_id")
			if err != nil {
				return nil, err
			}
			return ts.svc.Investors.PayoutSchedule(ctx, scope.TenantID, id)
		})
}

func (ts *toolset) registerDashboards() {
	ranged := func(name, description string, run func(ctx context.Context, scope Scope, from, to time.Time) (any, error)) {
		ts.add(services.PermDashboardRead, name, description, []Param{fromParam, toParam},
			func(ctx context.Context, scope Scope, args Args) (any, error) {
				from, to, err := ts.rangeArgs(args)
				if err != nil {
					return nil, err
				}
				return run(ctx, scope, from, to)
			})
	}

	ranged("financial_overview", "Inflow, outflow, profit, margin, receivables, payables and tender pipeline for a period.",
		func(ctx context.Context, scope Scope, from, to time.Time) (any, error) {
			return ts.svc.Dashboards.Overview(ctx, scope.TenantID, from, to)
		})
	ranged("cash_flow", "Monthly inflow, outflow and running balance.",
		func(ctx context.Context, scope Scope, from, to time.Time) (any, error) {
			return ts.svc.Dashboards.CashFlow(ctx, scope.TenantID, from, to)
		})
	ranged("tender_profitability", "Profit and margin of tenders won in a period.",
		func(ctx context.Context, scope Scope, from, to time.Time) (any, error) {
			return ts.svc.Dashboards.TenderProfitability(ctx, scope.TenantID, from, to)
		})
	ranged("expense_breakdown", "Ledger expenses grouped by category.",
		func(ctx context.Context, scope Scope, from, to time.Time) (any, error) {
			return ts.svc.Dashboards.ExpenseBreakdown(ctx, scope.TenantID, from, to)
		})
}
