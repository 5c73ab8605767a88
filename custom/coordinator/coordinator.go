package coordinator

import (
	"errors"
	"time"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/custom/locks"
	"pos_system/custom/message_queue"
	"pos_system/custom/table"
	"pos_system/custom/util"
	"pos_system/model"
)

// Coordinator executes every operation that touches more than one of
// order, table, and payment as a single atomic unit: all sub-effects
// commit or none do. It never auto-completes an order on payment; it
// only authorizes a later transition.
type Coordinator struct {
	db     *gorm.DB
	locks  *locks.Registry
	events *message_queue.MessageQueue
}

func New(db *gorm.DB, events *message_queue.MessageQueue) *Coordinator {
	return &Coordinator{
		db:     db,
		locks:  locks.New(),
		events: events,
	}
}

func (c *Coordinator) loadOrder(orderID uint) (*model.Order, error) {
	orderInfo := model.Order{}
	if err := c.db.Where("id = ?", orderID).First(&orderInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(constants.ORDER_NOT_FOUND)
		}
		return nil, err
	}
	return &orderInfo, nil
}

// CreateOrder allocates the order number and persists the order; a
// dine-in order occupies its table in the same transaction.
func (c *Coordinator) CreateOrder(newOrder *model.Order) error {
	if newOrder.TableID != nil {
		tableKey := locks.TableKey(*newOrder.TableID)
		if err := c.locks.Acquire(tableKey); err != nil {
			return err
		}
		defer c.locks.Release(tableKey)
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if newOrder.TableID != nil {
			tbl := model.Table{}
			if errTx := tx.Where("id = ?", *newOrder.TableID).First(&tbl).Error; errTx != nil {
				if errors.Is(errTx, gorm.ErrRecordNotFound) {
					return apperr.Validation(constants.TABLE_NOT_FOUND)
				}
				return errTx
			}
			if tbl.Status != constants.TABLE_STATUS_AVAILABLE && tbl.Status != constants.TABLE_STATUS_RESERVED {
				return apperr.Validation(constants.TABLE_NOT_AVAILABLE)
			}
		}
		number, errTx := util.AllocateNumber(tx, "ORD", &model.Order{})
		if errTx != nil {
			return errTx
		}
		newOrder.OrderNumber = number
		if errTx := tx.Create(newOrder).Error; errTx != nil {
			return errTx
		}
		if newOrder.TableID != nil {
			return table.AssignTx(tx, *newOrder.TableID, newOrder.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	rlog.Infof("Order %s created (%s)", newOrder.OrderNumber, newOrder.OrderType)
	c.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_ORDER_CREATED,
		OrderID:     newOrder.ID,
		OrderNumber: newOrder.OrderNumber,
		TableID:     newOrder.TableID,
	})
	return nil
}

// PaidTotalTx sums the settled payments of an order inside the
// caller's transaction.
func PaidTotalTx(tx *gorm.DB, orderID uint) (float64, int64, error) {
	agg := struct {
		Total float64
		Cnt   int64
	}{}
	err := tx.Model(&model.Payment{}).
		Select("COALESCE(SUM(amount),0) AS total, COUNT(*) AS cnt").
		Where("order_id = ? AND status = ?", orderID, constants.PAYMENT_STATUS_PAID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}
	return agg.Total, agg.Cnt, nil
}

// CanComplete reports whether the payment gate for completion is open:
// at least one paid payment and their sum covering the order total.
func (c *Coordinator) CanComplete(orderID uint) (bool, error) {
	orderInfo, err := c.loadOrder(orderID)
	if err != nil {
		return false, err
	}
	paid, cnt, err := PaidTotalTx(c.db, orderID)
	if err != nil {
		return false, err
	}
	return cnt > 0 && paid >= orderInfo.Total, nil
}

// CompleteOrder moves a served order to completed and releases its
// table to cleaning, gated on the paid-payment check, as one unit.
func (c *Coordinator) CompleteOrder(orderID uint) (*model.Order, error) {
	orderKey := locks.OrderKey(orderID)
	if err := c.locks.Acquire(orderKey); err != nil {
		return nil, err
	}
	defer c.locks.Release(orderKey)

	orderInfo, err := c.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if orderInfo.Status != constants.ORDER_STATUS_SERVED {
		return nil, apperr.State("order %s cannot complete from status %s", orderInfo.OrderNumber, orderInfo.Status)
	}
	if orderInfo.TableID != nil {
		tableKey := locks.TableKey(*orderInfo.TableID)
		if err := c.locks.Acquire(tableKey); err != nil {
			return nil, err
		}
		defer c.locks.Release(tableKey)
	}

	completedAt := time.Now().UTC()
	err = c.db.Transaction(func(tx *gorm.DB) error {
		paid, cnt, errTx := PaidTotalTx(tx, orderID)
		if errTx != nil {
			return errTx
		}
		if cnt == 0 || paid < orderInfo.Total {
			return apperr.State(constants.ORDER_NOT_PAID)
		}
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", orderID, constants.ORDER_STATUS_SERVED).
			Updates(map[string]interface{}{
				"status":       constants.ORDER_STATUS_COMPLETED,
				"completed_at": completedAt,
				"version":      gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.Conflict("order %s was modified concurrently", orderInfo.OrderNumber)
		}
		if orderInfo.TableID != nil {
			return table.ReleaseTx(tx, *orderInfo.TableID, constants.TABLE_STATUS_CLEANING)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	orderInfo.Status = constants.ORDER_STATUS_COMPLETED
	orderInfo.CompletedAt = &completedAt
	orderInfo.Version++
	rlog.Infof("Order %s completed", orderInfo.OrderNumber)
	c.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_ORDER_COMPLETED,
		OrderID:     orderInfo.ID,
		OrderNumber: orderInfo.OrderNumber,
		TableID:     orderInfo.TableID,
	})
	return orderInfo, nil
}

// CancelOrder cancels any non-terminal order and makes its table
// available again immediately, as one unit.
func (c *Coordinator) CancelOrder(orderID uint) (*model.Order, error) {
	orderKey := locks.OrderKey(orderID)
	if err := c.locks.Acquire(orderKey); err != nil {
		return nil, err
	}
	defer c.locks.Release(orderKey)

	orderInfo, err := c.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if orderInfo.Status == constants.ORDER_STATUS_COMPLETED || orderInfo.Status == constants.ORDER_STATUS_CANCELLED {
		return nil, apperr.State("order %s is already %s", orderInfo.OrderNumber, orderInfo.Status)
	}
	if orderInfo.TableID != nil {
		tableKey := locks.TableKey(*orderInfo.TableID)
		if err := c.locks.Acquire(tableKey); err != nil {
			return nil, err
		}
		defer c.locks.Release(tableKey)
	}

	err = c.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", orderID, orderInfo.Status).
			Updates(map[string]interface{}{
				"status":  constants.ORDER_STATUS_CANCELLED,
				"version": gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.Conflict("order %s was modified concurrently", orderInfo.OrderNumber)
		}
		if orderInfo.TableID != nil {
			return table.ReleaseTx(tx, *orderInfo.TableID, constants.TABLE_STATUS_AVAILABLE)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	orderInfo.Status = constants.ORDER_STATUS_CANCELLED
	orderInfo.Version++
	rlog.Infof("Order %s cancelled", orderInfo.OrderNumber)
	c.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_ORDER_CANCELLED,
		OrderID:     orderInfo.ID,
		OrderNumber: orderInfo.OrderNumber,
		TableID:     orderInfo.TableID,
	})
	return orderInfo, nil
}

// DeleteOrder removes an order together with its items. An active
// order still holding a table frees it on the way out so no table
// keeps pointing at a deleted order.
func (c *Coordinator) DeleteOrder(orderID uint) error {
	orderKey := locks.OrderKey(orderID)
	if err := c.locks.Acquire(orderKey); err != nil {
		return err
	}
	defer c.locks.Release(orderKey)

	orderInfo, err := c.loadOrder(orderID)
	if err != nil {
		return err
	}
	if orderInfo.TableID != nil {
		tableKey := locks.TableKey(*orderInfo.TableID)
		if err := c.locks.Acquire(tableKey); err != nil {
			return err
		}
		defer c.locks.Release(tableKey)
	}

	terminal := orderInfo.Status == constants.ORDER_STATUS_COMPLETED ||
		orderInfo.Status == constants.ORDER_STATUS_CANCELLED
	err = c.db.Transaction(func(tx *gorm.DB) error {
		if errTx := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; errTx != nil {
			return errTx
		}
		if errTx := tx.Delete(&model.Order{}, orderID).Error; errTx != nil {
			return errTx
		}
		if orderInfo.TableID != nil && !terminal {
			return table.ReleaseTx(tx, *orderInfo.TableID, constants.TABLE_STATUS_AVAILABLE)
		}
		return nil
	})
	if err != nil {
		return err
	}
	rlog.Infof("Order %s deleted with its items", orderInfo.OrderNumber)
	return nil
}

// PaymentRecorded re-evaluates the completion gate after a settled
// payment and publishes the result. The order is never transitioned
// here.
func (c *Coordinator) PaymentRecorded(orderInfo *model.Order, payment *model.Payment) {
	paid, cnt, err := PaidTotalTx(c.db, orderInfo.ID)
	if err != nil {
		rlog.Error("Re-evaluate payment gate failed:", err.Error())
		return
	}
	detail := "payment recorded"
	if cnt > 0 && paid >= orderInfo.Total {
		detail = "order may now be completed"
	}
	rlog.Infof("Payment %s settled for order %s: %s", payment.PaymentNumber, orderInfo.OrderNumber, detail)
	c.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_PAYMENT_SETTLED,
		OrderID:     orderInfo.ID,
		OrderNumber: orderInfo.OrderNumber,
		TableID:     orderInfo.TableID,
		Detail:      detail,
	})
}

// Locks exposes the registry so boundary-level operations (table
// assignment, payment capture) serialize against coordinator units.
func (c *Coordinator) Locks() *locks.Registry {
	return c.locks
}
