package fees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brightpath/schoolbooks-backend/internal/accounts"
	"github.com/brightpath/schoolbooks-backend/pkg/db/models"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
	"github.com/brightpath/schoolbooks-backend/pkg/outbox"
	"github.com/brightpath/schoolbooks-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service settles student fees against the ledger. A payment may cover
// previously generated dues and newly selected fee structures in one go; all
// lines share a receipt number and a single income posting.
type Service interface {
	Collect(ctx context.Context, input CollectInput) (*CollectResult, error)
	Destroy(ctx context.Context, feeCollectionID, actorUserID uuid.UUID) error
	GenerateDues(ctx context.Context, input GenerateDuesInput) ([]models.FeeCollection, error)
	GetReceipt(ctx context.Context, receiptNumber string) ([]models.FeeCollection, error)
	MarkOverdueDues(ctx context.Context, asOf time.Time) (int64, error)
}

// CollectInput describes one payment covering any mix of existing dues and
// new fee structure lines.
type CollectInput struct {
	StudentID        uuid.UUID
	AccountID        uuid.UUID
	PendingFeeIDs    []uuid.UUID
	NewFeeStructures []uuid.UUID
	Discount         decimal.Decimal
	PaymentMethod    enums.PaymentMethod
	PaymentDate      time.Time
	CollectedBy      uuid.UUID
}

// CollectResult reports the settled lines and the posting behind them.
type CollectResult struct {
	ReceiptNumber  string
	TransactionID  uuid.UUID
	TotalPaid      decimal.Decimal
	FeeCollections []models.FeeCollection
}

// GenerateDuesInput creates pending dues from a fee structure for a set of
// students, typically at the start of a billing month.
type GenerateDuesInput struct {
	FeeStructureID uuid.UUID
	StudentIDs     []uuid.UUID
	DueDate        *time.Time
}

type service struct {
	repo     Repository
	accounts accounts.Service
	events   eventEmitter
	tx       txRunner
}

// NewService wires the fee collection service with its dependencies.
func NewService(repo Repository, accountsSvc accounts.Service, events eventEmitter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fees repository required")
	}
	if accountsSvc == nil {
		return nil, fmt.Errorf("accounts service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, accounts: accountsSvc, events: events, tx: tx}, nil
}

// Collect settles the selected lines atomically: the receipt scan, ledger
// posting, row updates and outbox emit all ride one database transaction, so
// the receipt lock held by the scan covers every row tagged with the number.
func (s *service) Collect(ctx context.Context, input CollectInput) (*CollectResult, error) {
	if err := validateCollectInput(input); err != nil {
		return nil, err
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now()
	}

	var result *CollectResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.collectTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) collectTx(ctx context.Context, tx *gorm.DB, input CollectInput) (*CollectResult, error) {
	repo := s.repo.WithTx(tx)

	pendingRows, err := s.loadPendingRows(ctx, repo, input)
	if err != nil {
		return nil, err
	}
	newRows, err := s.buildNewRows(ctx, repo, input)
	if err != nil {
		return nil, err
	}

	receiptNumber, err := nextReceiptNumber(ctx, repo, input.PaymentDate)
	if err != nil {
		return nil, err
	}

	perPendingLine, perNewLine := allocateDiscount(input.Discount, len(pendingRows), len(newRows))

	totalPaid := decimal.Zero
	settled := make([]models.FeeCollection, 0, len(pendingRows)+len(newRows))
	ids := make([]uuid.UUID, 0, cap(settled))

	for i := range pendingRows {
		row := &pendingRows[i]
		paid := settleLine(row, perPendingLine, receiptNumber, input)
		totalPaid = totalPaid.Add(paid)
	}
	for i := range newRows {
		row := &newRows[i]
		paid := settleLine(row, perNewLine, receiptNumber, input)
		totalPaid = totalPaid.Add(paid)
	}
	if totalPaid.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "payment total must be positive after discount")
	}

	description, err := receiptDescription(ctx, repo, receiptNumber, pendingRows, newRows)
	if err != nil {
		return nil, err
	}

	txn, err := s.accounts.PostTx(ctx, tx, accounts.PostTransactionInput{
		Type:            enums.TransactionTypeIncome,
		AccountID:       input.AccountID,
		Amount:          totalPaid,
		Date:            input.PaymentDate,
		PaymentMethod:   input.PaymentMethod,
		ReferenceNumber: &receiptNumber,
		Description:     description,
		CreatedBy:       input.CollectedBy,
	})
	if err != nil {
		return nil, err
	}

	for i := range pendingRows {
		row := &pendingRows[i]
		row.TransactionID = &txn.ID
		if err := repo.UpdateFeeCollection(ctx, row.ID, settledUpdates(row)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fee collection")
		}
		settled = append(settled, *row)
		ids = append(ids, row.ID)
	}
	for i := range newRows {
		row := &newRows[i]
		row.TransactionID = &txn.ID
		if err := repo.CreateFeeCollection(ctx, row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert fee collection")
		}
		settled = append(settled, *row)
		ids = append(ids, row.ID)
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventFeesCollected,
		AggregateType: enums.AggregateReceipt,
		AggregateID:   txn.ID,
		Actor:         &outbox.ActorRef{UserID: input.CollectedBy},
		Version:       1,
		Data: payloads.FeesCollectedEvent{
			ReceiptNumber:    receiptNumber,
			StudentID:        input.StudentID,
			AccountID:        input.AccountID,
			FeeCollectionIDs: ids,
			TotalPaid:        totalPaid,
			Discount:         input.Discount,
			PaymentMethod:    input.PaymentMethod,
			PaymentDate:      input.PaymentDate,
		},
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue fees.collected event")
	}

	return &CollectResult{
		ReceiptNumber:  receiptNumber,
		TransactionID:  txn.ID,
		TotalPaid:      totalPaid,
		FeeCollections: settled,
	}, nil
}

func (s *service) loadPendingRows(ctx context.Context, repo Repository, input CollectInput) ([]models.FeeCollection, error) {
	if len(input.PendingFeeIDs) == 0 {
		return nil, nil
	}
	rows, err := repo.FindFeeCollections(ctx, input.PendingFeeIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fee collections")
	}
	if len(rows) != len(input.PendingFeeIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more fee collections not found")
	}
	for i := range rows {
		row := &rows[i]
		if row.StudentID != input.StudentID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("fee collection %s belongs to another student", row.ID))
		}
		if row.Status.IsSettled() {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyPaid,
				fmt.Sprintf("fee collection %s is already paid", row.ID))
		}
	}
	return rows, nil
}

func (s *service) buildNewRows(ctx context.Context, repo Repository, input CollectInput) ([]models.FeeCollection, error) {
	rows := make([]models.FeeCollection, 0, len(input.NewFeeStructures))
	for _, structureID := range input.NewFeeStructures {
		structure, err := repo.FindFeeStructure(ctx, structureID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fee structure not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fee structure")
		}

		paid, err := repo.ExistsPaid(ctx, input.StudentID, structure.FeeTypeID, structure.Month, structure.Year)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payment")
		}
		if paid {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicatePayment,
				fmt.Sprintf("fee already paid for %d/%d", structure.Month, structure.Year))
		}

		rows = append(rows, models.FeeCollection{
			ID:             uuid.New(),
			StudentID:      input.StudentID,
			FeeTypeID:      structure.FeeTypeID,
			AcademicYearID: structure.AcademicYearID,
			Month:          structure.Month,
			Year:           structure.Year,
			Amount:         structure.Amount,
			LateFee:        decimal.Zero,
			Status:         enums.FeeCollectionStatusPending,
		})
	}
	return rows, nil
}

// settleLine applies one line's discount share and marks the row paid.
func settleLine(row *models.FeeCollection, discount decimal.Decimal, receiptNumber string, input CollectInput) decimal.Decimal {
	row.Discount = discount
	row.TotalAmount = row.Amount.Add(row.LateFee).Sub(discount)
	row.PaidAmount = row.TotalAmount
	row.Status = enums.FeeCollectionStatusPaid
	row.ReceiptNumber = &receiptNumber
	row.AccountID = &input.AccountID
	row.PaymentDate = &input.PaymentDate
	method := input.PaymentMethod
	row.PaymentMethod = &method
	row.CollectedBy = &input.CollectedBy
	return row.PaidAmount
}

// receiptDescription names each fee type and period the posting covers, so
// the ledger row reads back without joining the fee tables.
func receiptDescription(ctx context.Context, repo Repository, receiptNumber string, groups ...[]models.FeeCollection) (string, error) {
	type coveredPeriod struct {
		feeTypeID   uuid.UUID
		month, year int
	}
	seen := map[coveredPeriod]bool{}
	names := map[uuid.UUID]string{}
	var parts []string
	for _, group := range groups {
		for i := range group {
			row := &group[i]
			key := coveredPeriod{feeTypeID: row.FeeTypeID, month: row.Month, year: row.Year}
			if seen[key] {
				continue
			}
			seen[key] = true

			name, ok := names[row.FeeTypeID]
			if !ok {
				feeType, err := repo.FindFeeType(ctx, row.FeeTypeID)
				if err != nil {
					if err == gorm.ErrRecordNotFound {
						return "", pkgerrors.New(pkgerrors.CodeNotFound, "fee type not found")
					}
					return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fee type")
				}
				name = feeType.Name
				names[row.FeeTypeID] = name
			}
			parts = append(parts, fmt.Sprintf("%s %02d/%d", name, row.Month, row.Year))
		}
	}
	return fmt.Sprintf("Fee collection %s: %s", receiptNumber, strings.Join(parts, ", ")), nil
}

func settledUpdates(row *models.FeeCollection) map[string]any {
	return map[string]any{
		"discount":       row.Discount,
		"total_amount":   row.TotalAmount,
		"paid_amount":    row.PaidAmount,
		"status":         row.Status,
		"receipt_number": row.ReceiptNumber,
		"transaction_id": row.TransactionID,
		"account_id":     row.AccountID,
		"payment_date":   row.PaymentDate,
		"payment_method": row.PaymentMethod,
		"collected_by":   row.CollectedBy,
	}
}

// Destroy removes a fee collection. A pending due is simply deleted. A paid
// line pulls its whole receipt group with it: every distinct posting behind
// the group is reversed with a compensating entry and all rows are removed,
// so the ledger and the fee records stay consistent.
func (s *service) Destroy(ctx context.Context, feeCollectionID, actorUserID uuid.UUID) error {
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.destroyTx(ctx, tx, feeCollectionID, actorUserID)
	})
}

func (s *service) destroyTx(ctx context.Context, tx *gorm.DB, feeCollectionID, actorUserID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	row, err := repo.FindFeeCollection(ctx, feeCollectionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "fee collection not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fee collection")
	}

	if !row.Status.IsSettled() || row.ReceiptNumber == nil {
		if err := repo.DeleteFeeCollections(ctx, []uuid.UUID{row.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete fee collection")
		}
		return nil
	}

	group, err := repo.FindByReceiptNumber(ctx, *row.ReceiptNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt group")
	}

	groupIDs := make([]uuid.UUID, 0, len(group))
	seen := map[uuid.UUID]bool{}
	reversalIDs := make([]uuid.UUID, 0, 1)
	for i := range group {
		member := &group[i]
		groupIDs = append(groupIDs, member.ID)
		if member.TransactionID == nil || seen[*member.TransactionID] {
			continue
		}
		seen[*member.TransactionID] = true
		reversal, err := s.accounts.ReverseTx(ctx, tx, *member.TransactionID, actorUserID)
		if err != nil {
			return err
		}
		reversalIDs = append(reversalIDs, reversal.ID)
	}

	if err := repo.DeleteFeeCollections(ctx, groupIDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete receipt group")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventFeeCollectionReversed,
		AggregateType: enums.AggregateReceipt,
		AggregateID:   row.ID,
		Actor:         &outbox.ActorRef{UserID: actorUserID},
		Version:       1,
		Data: payloads.FeeCollectionReversedEvent{
			ReceiptNumber:    *row.ReceiptNumber,
			StudentID:        row.StudentID,
			FeeCollectionIDs: groupIDs,
			ReversalIDs:      reversalIDs,
		},
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue fee_collection.reversed event")
	}
	return nil
}

// GenerateDues creates pending fee lines for each listed student, skipping
// students who already settled the same fee type and period.
func (s *service) GenerateDues(ctx context.Context, input GenerateDuesInput) ([]models.FeeCollection, error) {
	if input.FeeStructureID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee structure id required")
	}
	if len(input.StudentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one student required")
	}

	var created []models.FeeCollection
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		structure, err := repo.FindFeeStructure(ctx, input.FeeStructureID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "fee structure not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fee structure")
		}

		for _, studentID := range input.StudentIDs {
			paid, err := repo.ExistsPaid(ctx, studentID, structure.FeeTypeID, structure.Month, structure.Year)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payment")
			}
			if paid {
				continue
			}
			row := models.FeeCollection{
				ID:             uuid.New(),
				StudentID:      studentID,
				FeeTypeID:      structure.FeeTypeID,
				AcademicYearID: structure.AcademicYearID,
				Month:          structure.Month,
				Year:           structure.Year,
				Amount:         structure.Amount,
				LateFee:        decimal.Zero,
				TotalAmount:    structure.Amount,
				Status:         enums.FeeCollectionStatusPending,
				DueDate:        input.DueDate,
			}
			if err := repo.CreateFeeCollection(ctx, &row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert due")
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetReceipt(ctx context.Context, receiptNumber string) ([]models.FeeCollection, error) {
	if receiptNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt number required")
	}
	rows, err := s.repo.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt group")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	return rows, nil
}

// MarkOverdueDues flips pending dues whose due date has passed. Used by the
// daily maintenance job.
func (s *service) MarkOverdueDues(ctx context.Context, asOf time.Time) (int64, error) {
	rows, err := s.repo.ListPendingPastDue(ctx, asOf)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list past-due fees")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	updated, err := s.repo.MarkOverdue(ctx, ids)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark fees overdue")
	}
	return updated, nil
}

func validateCollectInput(input CollectInput) error {
	if input.StudentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}
	if input.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if len(input.PendingFeeIDs) == 0 && len(input.NewFeeStructures) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one fee line required")
	}
	if input.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "discount cannot be negative")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.CollectedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}
