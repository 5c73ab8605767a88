package payment

import (
	"errors"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/custom/coordinator"
	"pos_system/custom/locks"
	"pos_system/custom/util"
	"pos_system/model"
)

// Processor records payment attempts against orders. Settlement is
// synchronous: a successful create lands directly in paid and the
// coordinator is notified so completion can be re-evaluated.
type Processor struct {
	db    *gorm.DB
	coord *coordinator.Coordinator
}

func NewProcessor(db *gorm.DB, coord *coordinator.Coordinator) *Processor {
	return &Processor{db: db, coord: coord}
}

func IsValidMethod(method string) bool {
	switch method {
	case constants.PAYMENT_METHOD_CASH, constants.PAYMENT_METHOD_CARD, constants.PAYMENT_METHOD_DIGITAL_WALLET:
		return true
	}
	return false
}

func (p *Processor) Create(orderID uint, amount float64, method string, processedBy uint, notes *string) (*model.Payment, error) {
	if amount <= 0 {
		return nil, apperr.Validation("payment amount must be positive")
	}
	if !IsValidMethod(method) {
		return nil, apperr.Validation("unknown payment method %s", method)
	}
	orderInfo := model.Order{}
	if err := p.db.Where("id = ?", orderID).First(&orderInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(constants.ORDER_NOT_FOUND)
		}
		return nil, err
	}

	// Hold the order key so two simultaneous captures cannot both see
	// the gate open and settle twice.
	orderKey := locks.OrderKey(orderID)
	if err := p.coord.Locks().Acquire(orderKey); err != nil {
		return nil, err
	}
	defer p.coord.Locks().Release(orderKey)

	newPayment := model.Payment{
		OrderID:     orderID,
		Amount:      util.Round2(amount),
		Method:      method,
		Status:      constants.PAYMENT_STATUS_PAID,
		ProcessedBy: processedBy,
		Notes:       notes,
	}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		paid, cnt, errTx := coordinator.PaidTotalTx(tx, orderID)
		if errTx != nil {
			return errTx
		}
		if cnt > 0 && paid >= orderInfo.Total {
			return apperr.Conflict(constants.ORDER_ALREADY_PAID)
		}
		number, errTx := util.AllocateNumber(tx, "PAY", &model.Payment{})
		if errTx != nil {
			return errTx
		}
		newPayment.PaymentNumber = number
		return tx.Create(&newPayment).Error
	})
	if err != nil {
		return nil, err
	}
	rlog.Infof("Payment %s of %.2f (%s) recorded for order %s", newPayment.PaymentNumber, newPayment.Amount, method, orderInfo.OrderNumber)
	p.coord.PaymentRecorded(&orderInfo, &newPayment)
	return &newPayment, nil
}

func (p *Processor) Refund(paymentID uint) (*model.Payment, error) {
	paymentInfo := model.Payment{}
	if err := p.db.Where("id = ?", paymentID).First(&paymentInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(constants.PAYMENT_NOT_FOUND)
		}
		return nil, err
	}
	result := p.db.Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, constants.PAYMENT_STATUS_PAID).
		Updates(map[string]interface{}{"status": constants.PAYMENT_STATUS_REFUNDED})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.State("payment %s is %s; only paid payments can be refunded", paymentInfo.PaymentNumber, paymentInfo.Status)
	}
	rlog.Infof("Payment %s refunded", paymentInfo.PaymentNumber)
	paymentInfo.Status = constants.PAYMENT_STATUS_REFUNDED
	return &paymentInfo, nil
}

func (p *Processor) List() ([]model.Payment, error) {
	payments := make([]model.Payment, 0)
	if err := p.db.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (p *Processor) GetByOrderID(orderID uint) ([]model.Payment, error) {
	payments := make([]model.Payment, 0)
	if err := p.db.Where("order_id = ?", orderID).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
