package coordinator

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/custom/locks"
	"pos_system/custom/message_queue"
	"pos_system/custom/util"
	"pos_system/model"
)

var (
	coordSelectOrderSQL = `^SELECT \* FROM "orders" WHERE id = .+`
	coordSumPaymentsSQL = `^SELECT COALESCE\(SUM\(amount\),0\) AS total, COUNT\(\*\) AS cnt FROM "payments" .+`
	coordUpdateOrderSQL = `^UPDATE "orders" SET .+`
	coordUpdateTableSQL = `^UPDATE "tables" SET .+`
	coordDeleteItemsSQL = `^DELETE FROM "order_items" WHERE .+`
	coordDeleteOrderSQL = `^DELETE FROM "orders" WHERE .+`
)

func newTestCoordinator(t *testing.T) (*Coordinator, *message_queue.MessageQueue, sqlmock.Sqlmock, *sql.DB) {
	sqlDB, gormDB, mock := util.DbMock(t)
	events := message_queue.NewMessageQueue()
	return New(gormDB, events), events, mock, sqlDB
}

func coordOrderRows(o model.Order) *sqlmock.Rows {
	var tableID interface{}
	if o.TableID != nil {
		tableID = int64(*o.TableID)
	}
	rows := sqlmock.NewRows([]string{
		"id", "order_number", "order_type", "status", "table_id", "server_id",
		"subtotal", "tax_amount", "discount_amount", "total", "version",
	})
	rows.AddRow(int64(o.ID), o.OrderNumber, o.OrderType, o.Status, tableID, int64(o.ServerID),
		o.Subtotal, o.TaxAmount, o.DiscountAmount, o.Total, int64(o.Version))
	return rows
}

func servedOrder() model.Order {
	return model.Order{
		ID:          1,
		OrderNumber: "ORD-20240101-0001",
		OrderType:   constants.ORDER_TYPE_DINE_IN,
		Status:      constants.ORDER_STATUS_SERVED,
		TableID:     util.GetUintPtr(5),
		ServerID:    3,
		Subtotal:    25.0,
		TaxAmount:   2.50,
		Total:       27.50,
		Version:     2,
	}
}

func TestCanComplete(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(servedOrder()))
	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(27.50, int64(1)))
	ok, err := coord.CanComplete(1)
	assert.Nil(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(servedOrder()))
	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(10.0, int64(1)))
	ok, err = coord.CanComplete(1)
	assert.Nil(t, err)
	assert.False(t, ok)

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCanCompleteNeedsAtLeastOnePayment(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	freeOrder := servedOrder()
	freeOrder.Subtotal = 0
	freeOrder.TaxAmount = 0
	freeOrder.Total = 0
	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(freeOrder))
	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(0.0, int64(0)))

	ok, err := coord.CanComplete(1)
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestCompleteOrderRequiresServedStatus(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	pendingOrder := servedOrder()
	pendingOrder.Status = constants.ORDER_STATUS_PREPARING
	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(pendingOrder))

	_, err := coord.CompleteOrder(1)
	assert.True(t, apperr.IsKind(err, apperr.KindState))
}

func TestCompleteOrderWhileOrderBusy(t *testing.T) {
	coord, _, _, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	assert.Nil(t, coord.Locks().Acquire(locks.OrderKey(1)))
	defer coord.Locks().Release(locks.OrderKey(1))

	_, err := coord.CompleteOrder(1)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestCompleteOrderUnpaidGate(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(servedOrder()))
	mock.ExpectBegin()
	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(0.0, int64(0)))
	mock.ExpectRollback()

	_, err := coord.CompleteOrder(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.True(t, apperr.IsKind(err, apperr.KindState))
	assert.Equal(t, constants.ORDER_NOT_PAID, err.Error())
}

func TestCompleteOrderReleasesTableToCleaning(t *testing.T) {
	coord, events, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(servedOrder()))
	mock.ExpectBegin()
	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(27.50, int64(1)))
	mock.ExpectExec(coordUpdateOrderSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(coordUpdateTableSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	orderInfo, err := coord.CompleteOrder(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
	assert.Equal(t, constants.ORDER_STATUS_COMPLETED, orderInfo.Status)
	assert.NotNil(t, orderInfo.CompletedAt)
	assert.Equal(t, uint(3), orderInfo.Version)
	assert.Equal(t, 1, events.GetMsgCount())
	assert.Equal(t, constants.EVENT_ORDER_COMPLETED, events.Dequeue().Type)
}

func TestCancelOrderFreesTableImmediately(t *testing.T) {
	coord, events, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	activeOrder := servedOrder()
	activeOrder.Status = constants.ORDER_STATUS_PENDING
	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(activeOrder))
	mock.ExpectBegin()
	mock.ExpectExec(coordUpdateOrderSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(coordUpdateTableSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	orderInfo, err := coord.CancelOrder(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
	assert.Equal(t, constants.ORDER_STATUS_CANCELLED, orderInfo.Status)
	assert.Equal(t, constants.EVENT_ORDER_CANCELLED, events.Dequeue().Type)
}

func TestCancelCompletedOrderRejected(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	doneOrder := servedOrder()
	doneOrder.Status = constants.ORDER_STATUS_COMPLETED
	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(doneOrder))

	_, err := coord.CancelOrder(1)
	assert.True(t, apperr.IsKind(err, apperr.KindState))
}

func TestDeleteOrderCascadesItems(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	activeOrder := servedOrder()
	activeOrder.Status = constants.ORDER_STATUS_PENDING
	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(activeOrder))
	mock.ExpectBegin()
	mock.ExpectExec(coordDeleteItemsSQL).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(coordDeleteOrderSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(coordUpdateTableSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := coord.DeleteOrder(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
}

func TestDeleteCompletedOrderLeavesTableAlone(t *testing.T) {
	coord, _, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	doneOrder := servedOrder()
	doneOrder.Status = constants.ORDER_STATUS_COMPLETED
	mock.ExpectQuery(coordSelectOrderSQL).WillReturnRows(coordOrderRows(doneOrder))
	mock.ExpectBegin()
	mock.ExpectExec(coordDeleteItemsSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(coordDeleteOrderSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := coord.DeleteOrder(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
}

func TestPaymentRecordedNeverCompletes(t *testing.T) {
	coord, events, mock, sqlDB := newTestCoordinator(t)
	defer sqlDB.Close()

	orderInfo := servedOrder()
	payment := model.Payment{ID: 1, PaymentNumber: "PAY-20240101-0001", OrderID: 1, Amount: 27.50}

	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(27.50, int64(1)))
	coord.PaymentRecorded(&orderInfo, &payment)

	event := events.Dequeue()
	assert.Equal(t, constants.EVENT_PAYMENT_SETTLED, event.Type)
	assert.Equal(t, "order may now be completed", event.Detail)

	mock.ExpectQuery(coordSumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(10.0, int64(1)))
	coord.PaymentRecorded(&orderInfo, &payment)

	event = events.Dequeue()
	assert.Equal(t, "payment recorded", event.Detail)
}
