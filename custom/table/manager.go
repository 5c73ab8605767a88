package table

import (
	"errors"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/model"
)

// Allowed status moves via UpdateStatus. Occupied is never entered
// here: it is only reachable through Assign, which records the owning
// order.
var statusTransitions = map[string][]string{
	constants.TABLE_STATUS_AVAILABLE: {constants.TABLE_STATUS_RESERVED},
	constants.TABLE_STATUS_RESERVED:  {constants.TABLE_STATUS_AVAILABLE},
	constants.TABLE_STATUS_OCCUPIED:  {constants.TABLE_STATUS_CLEANING},
	constants.TABLE_STATUS_CLEANING:  {constants.TABLE_STATUS_AVAILABLE},
}

func CanChangeStatus(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) List() ([]model.Table, error) {
	tables := make([]model.Table, 0)
	if err := m.db.Order("table_number").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (m *Manager) GetByID(tableID uint) (*model.Table, error) {
	tbl := model.Table{}
	if err := m.db.Where("id = ?", tableID).First(&tbl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(constants.TABLE_NOT_FOUND)
		}
		return nil, err
	}
	return &tbl, nil
}

func (m *Manager) Create(newTable *model.Table) error {
	if newTable.TableNumber == "" {
		return apperr.Validation("table number is required")
	}
	if newTable.Capacity <= 0 {
		newTable.Capacity = 4
	}
	newTable.Status = constants.TABLE_STATUS_AVAILABLE
	newTable.CurrentOrderID = nil
	if err := m.db.Create(newTable).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("table number %s already exists", newTable.TableNumber)
		}
		return err
	}
	rlog.Infof("Table %s created with capacity %d", newTable.TableNumber, newTable.Capacity)
	return nil
}

// Update changes descriptive attributes only; table numbers are
// immutable after creation and status moves go through the dedicated
// operations.
func (m *Manager) Update(tableID uint, capacity *int, location *string) (*model.Table, error) {
	tbl, err := m.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if capacity != nil {
		if *capacity <= 0 {
			return nil, apperr.Validation("capacity must be positive")
		}
		updates["capacity"] = *capacity
		tbl.Capacity = *capacity
	}
	if location != nil {
		updates["location"] = *location
		tbl.Location = location
	}
	if len(updates) == 0 {
		return tbl, nil
	}
	if err := m.db.Model(&model.Table{}).Where("id = ?", tableID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return tbl, nil
}

func (m *Manager) UpdateStatus(tableID uint, newStatus string) (*model.Table, error) {
	switch newStatus {
	case constants.TABLE_STATUS_AVAILABLE, constants.TABLE_STATUS_RESERVED, constants.TABLE_STATUS_CLEANING:
	case constants.TABLE_STATUS_OCCUPIED:
		return nil, apperr.State("tables become occupied through order assignment")
	default:
		return nil, apperr.Validation("unknown table status %s", newStatus)
	}
	tbl, err := m.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	if !CanChangeStatus(tbl.Status, newStatus) {
		return nil, apperr.State("table %s cannot move from %s to %s", tbl.TableNumber, tbl.Status, newStatus)
	}
	// An occupied table is released by its order completing or
	// cancelling, never by a direct status change.
	if tbl.Status == constants.TABLE_STATUS_OCCUPIED && tbl.CurrentOrderID != nil {
		return nil, apperr.State("table %s is held by order %d", tbl.TableNumber, *tbl.CurrentOrderID)
	}
	updates := map[string]interface{}{"status": newStatus}
	if newStatus == constants.TABLE_STATUS_AVAILABLE || newStatus == constants.TABLE_STATUS_CLEANING {
		updates["current_order_id"] = nil
	}
	if newStatus == constants.TABLE_STATUS_AVAILABLE {
		updates["reserved_for"] = nil
	}
	result := m.db.Model(&model.Table{}).Where("id = ? AND status = ?", tableID, tbl.Status).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("table %s was modified concurrently", tbl.TableNumber)
	}
	tbl.Status = newStatus
	return tbl, nil
}

// Reserve holds an available table for a named party.
func (m *Manager) Reserve(tableID uint, reservedFor string) (*model.Table, error) {
	if reservedFor == "" {
		return nil, apperr.Validation("reserved_for is required")
	}
	tbl, err := m.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	result := m.db.Model(&model.Table{}).
		Where("id = ? AND status = ?", tableID, constants.TABLE_STATUS_AVAILABLE).
		Updates(map[string]interface{}{
			"status":       constants.TABLE_STATUS_RESERVED,
			"reserved_for": reservedFor,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("table %s is not available for reservation", tbl.TableNumber)
	}
	tbl.Status = constants.TABLE_STATUS_RESERVED
	tbl.ReservedFor = &reservedFor
	return tbl, nil
}

func (m *Manager) MarkCleaned(tableID uint) (*model.Table, error) {
	tbl, err := m.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	result := m.db.Model(&model.Table{}).
		Where("id = ? AND status = ?", tableID, constants.TABLE_STATUS_CLEANING).
		Updates(map[string]interface{}{
			"status":           constants.TABLE_STATUS_AVAILABLE,
			"current_order_id": nil,
			"reserved_for":     nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.State("table %s is not being cleaned", tbl.TableNumber)
	}
	tbl.Status = constants.TABLE_STATUS_AVAILABLE
	return tbl, nil
}

// Assign seats an order at a table. The compare-and-set on status
// serializes racing servers; the loser gets a conflict.
func (m *Manager) Assign(tableID, orderID uint) (*model.Table, error) {
	tbl, err := m.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	if err := AssignTx(m.db, tableID, orderID); err != nil {
		return nil, err
	}
	tbl.Status = constants.TABLE_STATUS_OCCUPIED
	tbl.CurrentOrderID = &orderID
	tbl.ReservedFor = nil
	return tbl, nil
}

func (m *Manager) Delete(tableID uint) error {
	tbl, err := m.GetByID(tableID)
	if err != nil {
		return err
	}
	if tbl.Status == constants.TABLE_STATUS_OCCUPIED || tbl.CurrentOrderID != nil {
		return apperr.Conflict("table %s has an active order", tbl.TableNumber)
	}
	if err := m.db.Delete(&model.Table{}, tableID).Error; err != nil {
		return err
	}
	rlog.Infof("Table %s deleted", tbl.TableNumber)
	return nil
}

// AssignTx performs the occupancy compare-and-set inside the caller's
// transaction. Exactly one of two concurrent assigns can win.
func AssignTx(tx *gorm.DB, tableID, orderID uint) error {
	result := tx.Model(&model.Table{}).
		Where("id = ? AND status IN ?", tableID, []string{constants.TABLE_STATUS_AVAILABLE, constants.TABLE_STATUS_RESERVED}).
		Updates(map[string]interface{}{
			"status":           constants.TABLE_STATUS_OCCUPIED,
			"current_order_id": orderID,
			"reserved_for":     nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.Conflict("table %d is already occupied", tableID)
	}
	return nil
}

// ReleaseTx frees a table inside the caller's transaction. Completed
// orders leave the table in cleaning, cancelled ones make it available
// again immediately.
func ReleaseTx(tx *gorm.DB, tableID uint, target string) error {
	if target != constants.TABLE_STATUS_AVAILABLE && target != constants.TABLE_STATUS_CLEANING {
		return apperr.Validation("invalid release target %s", target)
	}
	result := tx.Model(&model.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"status":           target,
			"current_order_id": nil,
			"reserved_for":     nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(constants.TABLE_NOT_FOUND)
	}
	return nil
}
