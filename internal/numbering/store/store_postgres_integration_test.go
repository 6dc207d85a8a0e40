//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/numbering/models"
	"registrar/internal/numbering/store"
	"registrar/internal/platform/postgres"
	"registrar/internal/sites"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
	"registrar/pkg/testutil/containers"
)

type PostgresStoresSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	types    *store.PostgresTypeStore
	counters *store.PostgresCounterStore
	issued   *store.PostgresIssuedStore
	runner   *postgres.TxRunner
}

func TestPostgresStoresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoresSuite))
}

func (s *PostgresStoresSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.types = store.NewPostgresTypeStore(s.pg.DB)
	s.counters = store.NewPostgresCounterStore(s.pg.DB)
	s.issued = store.NewPostgresIssuedStore(s.pg.DB)
	s.runner = postgres.NewTxRunner(s.pg.DB, 3*time.Second)
}

func (s *PostgresStoresSuite) SetupTest() {
	err := s.pg.TruncateTables(context.Background(),
		"audit_outbox", "audit_trail", "registries", "issued_numbers",
		"number_patterns", "document_types", "sites")
	s.Require().NoError(err)
}

func testDocType() *models.DocumentType {
	threshold := 5000.0
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return &models.DocumentType{
		Code:                "PO",
		Name:                "Purchase Orders",
		NumberingPattern:    "{CODE}-{YYYY}-{#####}",
		ResetCycle:          models.ResetYearly,
		StartingNumber:      1,
		NumberLength:        5,
		IncrementBy:         1,
		SupportsModifiers:   true,
		ModifierSeparator:   "-",
		ModifierOptions:     map[string]string{"R": "Revision"},
		RequiresYear:        true,
		ProtectAfterStatus:  "approved",
		VoidOnlyStatuses:    []string{"completed", "closed"},
		LockAmountThreshold: &threshold,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func testPatternCounter() *models.NumberPattern {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return &models.NumberPattern{
		TypeCode:      "PO",
		ResetInterval: models.ResetYearly,
		NextNumber:    1,
		NumberLength:  5,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *PostgresStoresSuite) TestTypeRoundTrip() {
	ctx := context.Background()

	created := testDocType()
	s.Require().NoError(s.types.Create(ctx, created))

	found, err := s.types.FindByCode(ctx, "PO")
	s.Require().NoError(err)
	s.Equal(created.NumberingPattern, found.NumberingPattern)
	s.Equal(created.ModifierOptions, found.ModifierOptions)
	s.Equal(created.VoidOnlyStatuses, found.VoidOnlyStatuses)
	s.Require().NotNil(found.LockAmountThreshold)
	s.Equal(5000.0, *found.LockAmountThreshold)

	s.ErrorIs(s.types.Create(ctx, testDocType()), sentinel.ErrDuplicate)

	_, err = s.types.FindByCode(ctx, "NOPE")
	s.ErrorIs(err, sentinel.ErrNotFound)

	found.Name = "Purchase Orders v2"
	s.Require().NoError(s.types.Update(ctx, found))
	updated, err := s.types.FindByCode(ctx, "PO")
	s.Require().NoError(err)
	s.Equal("Purchase Orders v2", updated.Name)

	all, err := s.types.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoresSuite) TestCounterUniquePerScope() {
	ctx := context.Background()
	s.Require().NoError(s.types.Create(ctx, testDocType()))

	s.Require().NoError(s.counters.Create(ctx, testPatternCounter()))
	// Second global counter for the same type must hit the
	// NULLS NOT DISTINCT unique constraint.
	s.ErrorIs(s.counters.Create(ctx, testPatternCounter()), sentinel.ErrDuplicate)

	siteStore := sites.NewPostgresStore(s.pg.DB)
	site := &sites.Site{
		ID:        id.NewSiteID(),
		Code:      "MN",
		Name:      "Main Warehouse",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.Require().NoError(siteStore.Create(ctx, site))

	scoped := testPatternCounter()
	scoped.SiteID = &site.ID
	s.Require().NoError(s.counters.Create(ctx, scoped))

	found, err := s.counters.AcquireForUpdate(ctx, "PO", &site.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.SiteID)
	s.Equal(site.ID, *found.SiteID)
}

func (s *PostgresStoresSuite) TestAcquireMissingCounter() {
	_, err := s.counters.AcquireForUpdate(context.Background(), "GHOST", nil)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentAllocationIsGapless exercises the row lock under real
// contention: every transaction locks the counter, allocates, saves, and
// records the issued number. The ledger afterwards must be 1..N with no
// gap and no duplicate.
func (s *PostgresStoresSuite) TestConcurrentAllocationIsGapless() {
	ctx := context.Background()
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.types.Create(ctx, testDocType()))
	s.Require().NoError(s.counters.Create(ctx, testPatternCounter()))

	const workers = 30
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
				counter, err := s.counters.AcquireForUpdate(ctx, "PO", nil)
				if err != nil {
					return err
				}
				seq, period := counter.Allocate(now, 1, 1)
				if err := s.counters.Save(ctx, counter); err != nil {
					return err
				}
				return s.issued.Record(ctx, &models.IssuedNumber{
					DocumentNumber: fmt.Sprintf("PO-2026-%05d", seq),
					TypeCode:       "PO",
					Sequence:       seq,
					Year:           period.Year,
					IssuedDate:     now,
					Ref:            id.Reserved(),
					Status:         models.IssuedActive,
				})
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	sequences, err := s.issued.ListSequences(ctx, "PO", nil, 2026, 0)
	s.Require().NoError(err)
	s.Require().Len(sequences, workers)
	for i, seq := range sequences {
		s.Equal(i+1, seq)
	}
}

// TestTransactionClockPinsPeriodDecisions proves app nodes with skewed wall
// clocks cannot flip the counter between periods: inside a transaction the
// context clock is the database's, so two callers straddling a year boundary
// still agree on the period and the sequence keeps climbing without a reset.
func (s *PostgresStoresSuite) TestTransactionClockPinsPeriodDecisions() {
	ctx := context.Background()
	s.Require().NoError(s.types.Create(ctx, testDocType()))
	s.Require().NoError(s.counters.Create(ctx, testPatternCounter()))

	allocate := func(requestTime time.Time) (int, models.PeriodContext) {
		var (
			seq    int
			period models.PeriodContext
		)
		err := s.runner.RunInTx(requestcontext.WithTime(ctx, requestTime), func(txCtx context.Context) error {
			now := requestcontext.Now(txCtx)
			s.WithinDuration(time.Now(), now, time.Minute, "clock must come from the database")
			s.NotEqual(requestTime, now)

			counter, err := s.counters.AcquireForUpdate(txCtx, "PO", nil)
			if err != nil {
				return err
			}
			seq, period = counter.Allocate(now, 1, 1)
			return s.counters.Save(txCtx, counter)
		})
		s.Require().NoError(err)
		return seq, period
	}

	behind := time.Date(2020, 12, 31, 23, 59, 55, 0, time.UTC)
	ahead := time.Date(2031, 1, 1, 0, 0, 5, 0, time.UTC)

	seq1, period1 := allocate(ahead)
	seq2, period2 := allocate(behind)
	seq3, period3 := allocate(ahead)

	s.Equal([]int{1, 2, 3}, []int{seq1, seq2, seq3}, "skewed callers must not reset the counter")
	s.Equal(period1.Key, period2.Key)
	s.Equal(period2.Key, period3.Key)
}

func (s *PostgresStoresSuite) TestIssuedStatusUpdate() {
	ctx := context.Background()
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.types.Create(ctx, testDocType()))
	s.Require().NoError(s.issued.Record(ctx, &models.IssuedNumber{
		DocumentNumber: "PO-2026-00001",
		TypeCode:       "PO",
		Sequence:       1,
		Year:           2026,
		IssuedDate:     now,
		Ref:            id.Reserved(),
		Status:         models.IssuedActive,
	}))

	s.Require().NoError(s.issued.UpdateStatus(ctx, "PO-2026-00001", models.IssuedVoided))
	s.ErrorIs(s.issued.UpdateStatus(ctx, "PO-2026-99999", models.IssuedVoided), sentinel.ErrNotFound)
}
