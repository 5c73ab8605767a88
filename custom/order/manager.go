package order

import (
	"errors"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/custom/coordinator"
	"pos_system/custom/message_queue"
	"pos_system/custom/util"
	"pos_system/model"
)

// Manager owns an order and its line items: it recomputes totals on
// every item mutation and drives the order status machine. Anything
// touching a second entity goes through the coordinator.
type Manager struct {
	db      *gorm.DB
	coord   *coordinator.Coordinator
	events  *message_queue.MessageQueue
	taxRate float64
}

func NewManager(db *gorm.DB, coord *coordinator.Coordinator, events *message_queue.MessageQueue, taxRate float64) *Manager {
	return &Manager{db: db, coord: coord, events: events, taxRate: taxRate}
}

type CreateOrderInput struct {
	OrderType      string
	TableID        *uint
	ServerID       uint
	Notes          *string
	DiscountAmount float64
}

func (m *Manager) Create(input CreateOrderInput) (*model.Order, error) {
	if !IsValidOrderType(input.OrderType) {
		return nil, apperr.Validation("unknown order type %s", input.OrderType)
	}
	if input.OrderType == constants.ORDER_TYPE_DINE_IN && input.TableID == nil {
		return nil, apperr.Validation("dine-in orders require a table")
	}
	if input.ServerID == 0 {
		return nil, apperr.Validation("server id is required")
	}
	if input.DiscountAmount < 0 {
		return nil, apperr.Validation("discount cannot be negative")
	}
	newOrder := model.Order{
		OrderType:      input.OrderType,
		Status:         constants.ORDER_STATUS_PENDING,
		TableID:        input.TableID,
		ServerID:       input.ServerID,
		Notes:          input.Notes,
		DiscountAmount: util.Round2(input.DiscountAmount),
		Version:        1,
	}
	if err := m.coord.CreateOrder(&newOrder); err != nil {
		return nil, err
	}
	return &newOrder, nil
}

func (m *Manager) List() ([]model.Order, error) {
	orders := make([]model.Order, 0)
	if err := m.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (m *Manager) GetByID(orderID uint) (*model.Order, []model.OrderItem, error) {
	orderInfo, err := m.loadOrder(orderID)
	if err != nil {
		return nil, nil, err
	}
	items := make([]model.OrderItem, 0)
	if err := m.db.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return orderInfo, items, nil
}

type AddItemInput struct {
	OrderID   uint
	ProductID uint
	Quantity  int
	UnitPrice *float64
	ServerID  uint
	Notes     *string
	Version   uint
}

// AddItem appends a line item and recomputes the order totals in one
// transaction. The caller's last-seen version guards against
// concurrent writers; a lost race returns a conflict and the caller
// retries with fresh state.
func (m *Manager) AddItem(input AddItemInput) (*model.OrderItem, *model.Order, error) {
	if input.Quantity < 1 {
		return nil, nil, apperr.Validation("quantity must be at least 1")
	}
	if input.UnitPrice != nil && *input.UnitPrice < 0 {
		return nil, nil, apperr.Validation("unit price cannot be negative")
	}
	orderInfo, err := m.loadOrder(input.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if IsTerminalStatus(orderInfo.Status) {
		return nil, nil, apperr.NotFound(constants.ORDER_NOT_FOUND)
	}
	if input.Version != 0 && input.Version != orderInfo.Version {
		return nil, nil, apperr.Conflict("order %s version mismatch", orderInfo.OrderNumber)
	}

	unitPrice := float64(0)
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	} else {
		productInfo := model.Product{}
		errDb := m.db.Where("id = ? AND is_available = ?", input.ProductID, true).First(&productInfo).Error
		if errDb != nil {
			if errors.Is(errDb, gorm.ErrRecordNotFound) {
				return nil, nil, apperr.Validation(constants.PRODUCT_NOT_AVAILABLE)
			}
			return nil, nil, errDb
		}
		unitPrice = productInfo.Price
	}

	newItem := model.OrderItem{
		OrderID:   input.OrderID,
		ProductID: input.ProductID,
		ServerID:  input.ServerID,
		Quantity:  input.Quantity,
		UnitPrice: unitPrice,
		Subtotal:  util.Round2(float64(input.Quantity) * unitPrice),
		Status:    constants.ORDER_STATUS_PENDING,
		Notes:     input.Notes,
	}
	err = m.db.Transaction(func(tx *gorm.DB) error {
		if errTx := tx.Create(&newItem).Error; errTx != nil {
			return errTx
		}
		return m.recomputeTotalsTx(tx, orderInfo)
	})
	if err != nil {
		return nil, nil, err
	}
	rlog.Infof("Order %s: item added (product %d x%d)", orderInfo.OrderNumber, input.ProductID, input.Quantity)
	m.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_ITEM_ADDED,
		OrderID:     orderInfo.ID,
		OrderNumber: orderInfo.OrderNumber,
		TableID:     orderInfo.TableID,
	})
	return &newItem, orderInfo, nil
}

// recomputeTotalsTx re-derives subtotal, tax and total from the
// current item set and commits them with a version bump. Runs inside
// the same transaction as the item write so totals always match a
// consistent item set.
func (m *Manager) recomputeTotalsTx(tx *gorm.DB, orderInfo *model.Order) error {
	var subtotal float64
	err := tx.Model(&model.OrderItem{}).
		Select("COALESCE(SUM(subtotal),0)").
		Where("order_id = ?", orderInfo.ID).
		Scan(&subtotal).Error
	if err != nil {
		return err
	}
	subtotal, taxAmount, total := ComputeTotals(subtotal, m.taxRate, orderInfo.DiscountAmount)
	result := tx.Model(&model.Order{}).
		Where("id = ? AND version = ?", orderInfo.ID, orderInfo.Version).
		Updates(map[string]interface{}{
			"subtotal":   subtotal,
			"tax_amount": taxAmount,
			"total":      total,
			"version":    orderInfo.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.Conflict("order %s was modified concurrently", orderInfo.OrderNumber)
	}
	orderInfo.Subtotal = subtotal
	orderInfo.TaxAmount = taxAmount
	orderInfo.Total = total
	orderInfo.Version++
	return nil
}

// ComputeTotals applies the tax rate and discount to an item subtotal.
// All three results are rounded to cents.
func ComputeTotals(subtotal, taxRate, discount float64) (float64, float64, float64) {
	subtotal = util.Round2(subtotal)
	taxAmount := util.Round2(subtotal * taxRate)
	total := util.Round2(subtotal + taxAmount - discount)
	return subtotal, taxAmount, total
}

func (m *Manager) UpdateItemStatus(orderID, itemID uint, newStatus string) (*model.OrderItem, error) {
	if !IsValidItemStatus(newStatus) {
		return nil, apperr.Validation("unknown item status %s", newStatus)
	}
	orderInfo, err := m.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if IsTerminalStatus(orderInfo.Status) {
		return nil, apperr.State("order %s is %s; items are frozen", orderInfo.OrderNumber, orderInfo.Status)
	}
	result := m.db.Model(&model.OrderItem{}).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Updates(map[string]interface{}{"status": newStatus})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("order item %d not found", itemID)
	}
	rlog.Infof("Order %s: item %d moved to %s", orderInfo.OrderNumber, itemID, newStatus)
	m.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_ITEM_STATUS_CHANGED,
		OrderID:     orderInfo.ID,
		OrderNumber: orderInfo.OrderNumber,
		TableID:     orderInfo.TableID,
		Detail:      newStatus,
	})
	item := model.OrderItem{ID: itemID, OrderID: orderID, Status: newStatus}
	return &item, nil
}

// SetDiscount rejects any discount that would drive the total below
// zero, which is the only way the field can change after creation.
func (m *Manager) SetDiscount(orderID uint, amount float64) (*model.Order, error) {
	if amount < 0 {
		return nil, apperr.Validation("discount cannot be negative")
	}
	orderInfo, err := m.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if IsTerminalStatus(orderInfo.Status) {
		return nil, apperr.State("order %s is %s", orderInfo.OrderNumber, orderInfo.Status)
	}
	amount = util.Round2(amount)
	total := util.Round2(orderInfo.Subtotal + orderInfo.TaxAmount - amount)
	if total < 0 {
		return nil, apperr.Validation("discount %.2f exceeds order amount", amount)
	}
	result := m.db.Model(&model.Order{}).
		Where("id = ? AND version = ?", orderID, orderInfo.Version).
		Updates(map[string]interface{}{
			"discount_amount": amount,
			"total":           total,
			"version":         orderInfo.Version + 1,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("order %s was modified concurrently", orderInfo.OrderNumber)
	}
	orderInfo.DiscountAmount = amount
	orderInfo.Total = total
	orderInfo.Version++
	return orderInfo, nil
}

// Transition drives the order status machine. Completion and
// cancellation touch the table and payment records, so they are routed
// through the coordinator; plain forward moves commit here with a
// status compare-and-set.
func (m *Manager) Transition(orderID uint, newStatus string) (*model.Order, error) {
	orderInfo, err := m.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(orderInfo.Status, newStatus) {
		return nil, apperr.State("order %s cannot move from %s to %s", orderInfo.OrderNumber, orderInfo.Status, newStatus)
	}
	switch newStatus {
	case constants.ORDER_STATUS_COMPLETED:
		return m.coord.CompleteOrder(orderID)
	case constants.ORDER_STATUS_CANCELLED:
		return m.coord.CancelOrder(orderID)
	}
	result := m.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, orderInfo.Status).
		Updates(map[string]interface{}{
			"status":  newStatus,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("order %s was modified concurrently", orderInfo.OrderNumber)
	}
	rlog.Infof("Order %s moved from %s to %s", orderInfo.OrderNumber, orderInfo.Status, newStatus)
	orderInfo.Status = newStatus
	orderInfo.Version++
	m.events.Enqueue(&message_queue.OrderEvent{
		Type:        constants.EVENT_ORDER_STATUS_CHANGED,
		OrderID:     orderInfo.ID,
		OrderNumber: orderInfo.OrderNumber,
		TableID:     orderInfo.TableID,
		Detail:      newStatus,
	})
	return orderInfo, nil
}

func (m *Manager) Cancel(orderID uint) (*model.Order, error) {
	return m.coord.CancelOrder(orderID)
}

func (m *Manager) Delete(orderID uint) error {
	return m.coord.DeleteOrder(orderID)
}

func (m *Manager) loadOrder(orderID uint) (*model.Order, error) {
	orderInfo := model.Order{}
	if err := m.db.Where("id = ?", orderID).First(&orderInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(constants.ORDER_NOT_FOUND)
		}
		return nil, err
	}
	return &orderInfo, nil
}
