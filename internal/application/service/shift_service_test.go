package service

import (
	"testing"

	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftOpenTwice(t *testing.T) {
	f := newFixture(t)

	_, err := f.shifts.Open(f.ctx, &OpenShiftInput{UserID: f.cashier.ID, WarehouseID: f.warehouse})
	assert.True(t, apperror.HasCode(err, apperror.CodeShiftAlreadyOpen))

	// a different operator has their own drawer
	other, err := f.shifts.Open(f.ctx, &OpenShiftInput{UserID: f.supervisor.ID, WarehouseID: f.warehouse, OpeningCash: dec("50")})
	require.NoError(t, err)
	assert.NotEqual(t, f.shift.ID, other.ID)
}

func TestShiftCloseRecordsDifference(t *testing.T) {
	f := newFixture(t)
	p := f.product("COFFEE", "10000", withVAT(f))
	_, err := f.checkout([]CheckoutItemInput{f.item(p, "2")}, f.pay("CASH", "25000"))
	require.NoError(t, err)

	_, err = f.shifts.AddCashMovement(f.ctx, &CashMovementInput{UserID: f.cashier.ID, Type: enum.CashMovementCashOut, Amount: dec("3800"), Reference: "supplier"})
	require.NoError(t, err)
	_, err = f.shifts.AddCashMovement(f.ctx, &CashMovementInput{UserID: f.cashier.ID, Type: enum.CashMovementCashIn, Amount: dec("1000")})
	require.NoError(t, err)

	current, err := f.shifts.Current(f.ctx, f.cashier.ID)
	require.NoError(t, err)
	assert.True(t, current.Shift.ExpectedCash.Equal(dec("121000")))
	require.Len(t, current.Summaries, 1)
	assert.Equal(t, "CASH", current.Summaries[0].MethodCode)
	assert.Len(t, current.Movements, 4)

	report, err := f.shifts.Close(f.ctx, &CloseShiftInput{UserID: f.cashier.ID, CountedCash: dec("120950")})
	require.NoError(t, err)
	assert.Equal(t, enum.ShiftStatusClosed, report.Shift.Status)
	require.NotNil(t, report.Shift.Difference)
	assert.True(t, report.Shift.Difference.Equal(dec("-50")))

	stored := f.currentShift()
	assert.Equal(t, enum.ShiftStatusClosed, stored.Status)
	require.NotNil(t, stored.CountedCash)
	assert.True(t, stored.CountedCash.Equal(dec("120950")))

	_, err = f.shifts.Current(f.ctx, f.cashier.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeShiftNotOpen))

	reopened, err := f.shifts.Open(f.ctx, &OpenShiftInput{UserID: f.cashier.ID, WarehouseID: f.warehouse})
	require.NoError(t, err)
	assert.NotEqual(t, f.shift.ID, reopened.ID)
}

func TestShiftCashMovementValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.shifts.AddCashMovement(f.ctx, &CashMovementInput{UserID: f.cashier.ID, Type: enum.CashMovementSale, Amount: dec("10")})
	require.Error(t, err)
	assert.Equal(t, "type", apperror.GetAppError(err).Field)

	_, err = f.shifts.AddCashMovement(f.ctx, &CashMovementInput{UserID: f.cashier.ID, Type: enum.CashMovementCashIn, Amount: dec("0")})
	require.Error(t, err)
	assert.Equal(t, "amount", apperror.GetAppError(err).Field)

	_, err = f.shifts.AddCashMovement(f.ctx, &CashMovementInput{UserID: f.supervisor.ID, Type: enum.CashMovementCashIn, Amount: dec("10")})
	assert.True(t, apperror.HasCode(err, apperror.CodeShiftNotOpen))
}
