package payment

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	"gorm.io/gorm"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/custom/coordinator"
	"pos_system/custom/locks"
	"pos_system/custom/message_queue"
	"pos_system/custom/util"
)

var (
	selectOrderSQL   = `^SELECT \* FROM "orders" WHERE id = .+`
	selectPaymentSQL = `^SELECT \* FROM "payments" WHERE id = .+`
	sumPaymentsSQL   = `^SELECT COALESCE\(SUM\(amount\),0\) AS total, COUNT\(\*\) AS cnt FROM "payments" .+`
	countPaymentsSQL = `^SELECT count\(\*\) FROM "payments" .+`
	insertPaymentSQL = `^INSERT INTO "payments" .+`
	updatePaymentSQL = `^UPDATE "payments" SET .+`
)

func newTestProcessor(t *testing.T) (*Processor, *message_queue.MessageQueue, sqlmock.Sqlmock, *sql.DB) {
	sqlDB, gormDB, mock := util.DbMock(t)
	events := message_queue.NewMessageQueue()
	coord := coordinator.New(gormDB, events)
	return NewProcessor(gormDB, coord), events, mock, sqlDB
}

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_number", "order_type", "status", "server_id",
		"subtotal", "tax_amount", "discount_amount", "total", "version",
	}).AddRow(int64(1), "ORD-20240101-0001", constants.ORDER_TYPE_DINE_IN, constants.ORDER_STATUS_SERVED,
		int64(3), 25.0, 2.50, 0.0, 27.50, int64(2))
}

func paymentRows(id int64, number, status string, amount float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "payment_number", "order_id", "amount", "method", "status", "processed_by"}).
		AddRow(id, number, int64(1), amount, constants.PAYMENT_METHOD_CASH, status, int64(4))
}

func TestIsValidMethod(t *testing.T) {
	assert.True(t, IsValidMethod(constants.PAYMENT_METHOD_CASH))
	assert.True(t, IsValidMethod(constants.PAYMENT_METHOD_CARD))
	assert.True(t, IsValidMethod(constants.PAYMENT_METHOD_DIGITAL_WALLET))
	assert.False(t, IsValidMethod("check"))
	assert.False(t, IsValidMethod(""))
}

func TestCreatePaymentValidation(t *testing.T) {
	processor, _, _, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	_, err := processor.Create(1, 0, constants.PAYMENT_METHOD_CASH, 4, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = processor.Create(1, -5, constants.PAYMENT_METHOD_CASH, 4, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = processor.Create(1, 10, "check", 4, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreatePaymentOrderNotFound(t *testing.T) {
	processor, _, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectOrderSQL).WillReturnError(gorm.ErrRecordNotFound)

	_, err := processor.Create(1, 27.50, constants.PAYMENT_METHOD_CASH, 4, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreatePaymentSettlesSynchronously(t *testing.T) {
	processor, events, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectOrderSQL).WillReturnRows(orderRows())
	mock.ExpectBegin()
	mock.ExpectQuery(sumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(0.0, int64(0)))
	mock.ExpectQuery(countPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(insertPaymentSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
	// gate re-evaluation after commit
	mock.ExpectQuery(sumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(27.50, int64(1)))

	newPayment, err := processor.Create(1, 27.50, constants.PAYMENT_METHOD_CASH, 4, nil)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
	assert.Equal(t, constants.PAYMENT_STATUS_PAID, newPayment.Status)
	assert.Regexp(t, `^PAY-\d{8}-0001$`, newPayment.PaymentNumber)
	assert.Equal(t, uint(4), newPayment.ProcessedBy)

	event := events.Dequeue()
	assert.Equal(t, constants.EVENT_PAYMENT_SETTLED, event.Type)
	assert.Equal(t, "order may now be completed", event.Detail)
}

func TestCreatePaymentAlreadyCovered(t *testing.T) {
	processor, events, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectOrderSQL).WillReturnRows(orderRows())
	mock.ExpectBegin()
	mock.ExpectQuery(sumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(27.50, int64(1)))
	mock.ExpectRollback()

	_, err := processor.Create(1, 5.0, constants.PAYMENT_METHOD_CARD, 4, nil)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, constants.ORDER_ALREADY_PAID, err.Error())
	assert.Equal(t, 0, events.GetMsgCount())
}

func TestPartialPaymentsAccumulate(t *testing.T) {
	processor, events, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectOrderSQL).WillReturnRows(orderRows())
	mock.ExpectBegin()
	mock.ExpectQuery(sumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(10.0, int64(1)))
	mock.ExpectQuery(countPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(insertPaymentSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()
	mock.ExpectQuery(sumPaymentsSQL).
		WillReturnRows(sqlmock.NewRows([]string{"total", "cnt"}).AddRow(20.0, int64(2)))

	newPayment, err := processor.Create(1, 10.0, constants.PAYMENT_METHOD_CASH, 4, nil)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
	assert.Regexp(t, `^PAY-\d{8}-0002$`, newPayment.PaymentNumber)

	// short of the total, so the gate stays closed
	event := events.Dequeue()
	assert.Equal(t, "payment recorded", event.Detail)
}

func TestCreatePaymentWhileOrderBusy(t *testing.T) {
	sqlDB, gormDB, mock := util.DbMock(t)
	defer sqlDB.Close()
	events := message_queue.NewMessageQueue()
	coord := coordinator.New(gormDB, events)
	processor := NewProcessor(gormDB, coord)

	mock.ExpectQuery(selectOrderSQL).WillReturnRows(orderRows())
	assert.Nil(t, coord.Locks().Acquire(locks.OrderKey(1)))
	defer coord.Locks().Release(locks.OrderKey(1))

	// the gate check never runs while a concurrent capture or
	// coordinator unit holds the order
	_, err := processor.Create(1, 27.50, constants.PAYMENT_METHOD_CASH, 4, nil)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, 0, events.GetMsgCount())
}

func TestRefundPaidPayment(t *testing.T) {
	processor, _, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectPaymentSQL).
		WillReturnRows(paymentRows(1, "PAY-20240101-0001", constants.PAYMENT_STATUS_PAID, 27.50))
	mock.ExpectBegin()
	mock.ExpectExec(updatePaymentSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	refunded, err := processor.Refund(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Nil(t, err)
	assert.Equal(t, constants.PAYMENT_STATUS_REFUNDED, refunded.Status)
}

func TestRefundOnlyPaidPayments(t *testing.T) {
	processor, _, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectPaymentSQL).
		WillReturnRows(paymentRows(1, "PAY-20240101-0001", constants.PAYMENT_STATUS_REFUNDED, 27.50))
	mock.ExpectBegin()
	mock.ExpectExec(updatePaymentSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := processor.Refund(1)

	assert.Nil(t, mock.ExpectationsWereMet())
	assert.True(t, apperr.IsKind(err, apperr.KindState))
}

func TestRefundUnknownPayment(t *testing.T) {
	processor, _, mock, sqlDB := newTestProcessor(t)
	defer sqlDB.Close()

	mock.ExpectQuery(selectPaymentSQL).WillReturnError(gorm.ErrRecordNotFound)

	_, err := processor.Refund(1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
