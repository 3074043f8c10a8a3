package services

import (
	"context"

	"github.com/shopspring/decimal"

	"wealthplan/internal/allocation"
	"wealthplan/internal/models"
	"wealthplan/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateRiskProfile(id, profile string) (*models.User, error)
}

// ObjectiveInput carries the fields of a new investment objective.
type ObjectiveInput struct {
	Goal                string
	HorizonMonths       int
	InitialCapital      decimal.Decimal
	MonthlyContribution decimal.Decimal
	NetWorth            decimal.Decimal
	Liquidity           string
	ExcludedSectors     []string
}

// ObjectiveServicer defines the contract for the objective store.
type ObjectiveServicer interface {
	CreateObjective(userID string, in ObjectiveInput) (*models.Objective, error)
	GetLatestObjective(userID string) (*models.Objective, error)
	GetObjective(userID, objectiveID string) (*models.Objective, error)
	ListObjectives(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Objective], error)
	// ResolveObjective returns the named objective, or the latest one when objectiveID is empty.
	ResolveObjective(userID, objectiveID string) (*models.Objective, error)
}

// AllocationSet is the complete allocation state of one (user, objective):
// the weights of every stored variant and the holdings computed from them.
// A nil Weights means the variant is not stored.
type AllocationSet struct {
	Distribution allocation.Distribution
	Holdings     map[allocation.Variant]allocation.Holdings
}

// VariantReplacement carries new weights and holdings for some variants.
// Basis holds the stored weights the holdings were computed from; when set,
// the replacement fails with ErrAllocationConflict if those weights changed.
type VariantReplacement struct {
	Variants     []allocation.Variant
	Distribution allocation.Distribution
	Holdings     map[allocation.Variant]allocation.Holdings
	Basis        *allocation.Distribution
}

// AllocationStorer persists percentage and asset allocations.
type AllocationStorer interface {
	// ReplaceAll atomically swaps every stored row of (user, objective) for set.
	ReplaceAll(ctx context.Context, userID, objectiveID string, set AllocationSet) error
	// ReplaceVariants rewrites only r.Variants and returns the committed set.
	ReplaceVariants(ctx context.Context, userID, objectiveID string, r VariantReplacement) (AllocationSet, error)
	GetPercentages(ctx context.Context, userID, objectiveID string) (allocation.Distribution, error)
	GetAssets(ctx context.Context, userID, objectiveID string) (map[allocation.Variant]allocation.Holdings, error)
	// GetVariant returns one variant's weights and holdings, or ErrAllocationNotFound.
	GetVariant(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (allocation.Weights, allocation.Holdings, error)
	// DeleteAll removes percentages, assets and the selected portfolio of (user, objective).
	DeleteAll(ctx context.Context, userID, objectiveID string) error
}

// SelectionServicer manages which portfolio variant an investor confirmed.
type SelectionServicer interface {
	Confirm(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*models.SelectedPortfolio, error)
	View(ctx context.Context, userID, objectiveID string) (*models.SelectedPortfolio, error)
}

// AllocationResult is the allocation state after a pipeline run.
type AllocationResult struct {
	ObjectiveID  string                                     `json:"objective_id"`
	Distribution allocation.Distribution                    `json:"distribution"`
	Assets       map[allocation.Variant]allocation.Holdings `json:"assets"`
}

// VariantAllocation is the stored allocation of a single variant.
type VariantAllocation struct {
	ObjectiveID string              `json:"objective_id"`
	Variant     allocation.Variant  `json:"variant"`
	Percentages allocation.Weights  `json:"percentages"`
	Assets      allocation.Holdings `json:"assets"`
}

// SimulationPoint is the projected portfolio value after Month contributions.
type SimulationPoint struct {
	Month int             `json:"month"`
	Value decimal.Decimal `json:"value"`
}

// Simulation combines an objective with a variant's stored allocation and a
// linear contribution projection over the objective horizon.
type Simulation struct {
	Objective   *models.Objective   `json:"objective"`
	Variant     allocation.Variant  `json:"variant"`
	Percentages allocation.Weights  `json:"percentages"`
	Assets      allocation.Holdings `json:"assets"`
	Series      []SimulationPoint   `json:"series"`
}

// Explanation is the advisory answer to a question about a confirmed portfolio.
type Explanation struct {
	ObjectiveID string             `json:"objective_id"`
	Variant     allocation.Variant `json:"variant"`
	Question    string             `json:"question"`
	Explanation string             `json:"explanation"`
}

// PortfolioServicer orchestrates the portfolio allocation pipeline. An empty
// objectiveID selects the user's most recent objective.
type PortfolioServicer interface {
	GenerateDistribution(ctx context.Context, userID, objectiveID string) (*AllocationResult, error)
	// GenerateAssets selects and allocates assets for target ("conservative",
	// "aggressive" or "both"). A nil distribution uses the stored weights.
	GenerateAssets(ctx context.Context, userID, objectiveID string, distribution *allocation.Distribution, target string) (*AllocationResult, error)
	Regenerate(ctx context.Context, userID, objectiveID string) (*AllocationResult, error)
	GetAllocation(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*VariantAllocation, error)
	PersistSelection(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*models.SelectedPortfolio, error)
	GetSelection(ctx context.Context, userID, objectiveID string) (*models.SelectedPortfolio, error)
	Simulate(ctx context.Context, userID, objectiveID string, variant allocation.Variant) (*Simulation, error)
	DeleteSimulation(ctx context.Context, userID, objectiveID string) error
	// Explain answers question about the confirmed portfolio, or fails with
	// ErrNoSelectionFound when nothing was confirmed.
	Explain(ctx context.Context, userID, objectiveID, question string) (*Explanation, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
