package table

import (
	"net/http"

	"pos_system/custom/auth"
	"pos_system/custom/locks"
	"pos_system/custom/util"
	"pos_system/model"
)

const (
	RouteListTables        = "/pos/list_tables"
	RouteCreateTable       = "/pos/create_table"
	RouteUpdateTable       = "/pos/update_table"
	RouteUpdateTableStatus = "/pos/update_table_status"
	RouteReserveTable      = "/pos/reserve_table"
	RouteAssignTable       = "/pos/assign_table"
	RouteDeleteTable       = "/pos/delete_table"
)

type HandlerContext struct {
	manager *Manager
	auth    *auth.Evaluator
	locks   *locks.Registry
}

func (ctx *HandlerContext) InitialHandlerContext(manager *Manager, evaluator *auth.Evaluator, registry *locks.Registry) {
	ctx.manager = manager
	ctx.auth = evaluator
	ctx.locks = registry
}

type CreateTableRequest struct {
	TableNumber string  `json:"table_number"`
	Capacity    int     `json:"capacity"`
	Location    *string `json:"location,omitempty"`
}

type UpdateTableRequest struct {
	ID       uint    `json:"id"`
	Capacity *int    `json:"capacity,omitempty"`
	Location *string `json:"location,omitempty"`
}

type UpdateTableStatusRequest struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

type ReserveTableRequest struct {
	ID          uint   `json:"id"`
	ReservedFor string `json:"reserved_for"`
}

type AssignTableRequest struct {
	ID      uint `json:"id"`
	OrderID uint `json:"order_id"`
}

type DeleteTableRequest struct {
	ID uint `json:"id"`
}

func modelTable(req CreateTableRequest) model.Table {
	return model.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    req.Location,
	}
}

func (ctx *HandlerContext) ListTables(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteListTables, "tables:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	tables, err := ctx.manager.List()
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, tables)
}

func (ctx *HandlerContext) CreateTable(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteCreateTable, "tables:update"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := CreateTableRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	newTable := modelTable(req)
	if err := ctx.manager.Create(&newTable); err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, newTable)
}

func (ctx *HandlerContext) UpdateTable(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteUpdateTable, "tables:update"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := UpdateTableRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Table id is required", http.StatusBadRequest)
		return
	}
	tbl, err := ctx.manager.Update(req.ID, req.Capacity, req.Location)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, tbl)
}

func (ctx *HandlerContext) UpdateTableStatus(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteUpdateTableStatus, "tables:update"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := UpdateTableStatusRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Table id is required", http.StatusBadRequest)
		return
	}
	tbl, err := ctx.manager.UpdateStatus(req.ID, req.Status)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, tbl)
}

func (ctx *HandlerContext) ReserveTable(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteReserveTable, "tables:reserve"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := ReserveTableRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Table id is required", http.StatusBadRequest)
		return
	}
	tbl, err := ctx.manager.Reserve(req.ID, req.ReservedFor)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, tbl)
}

// AssignTable serializes against coordinator units via the shared lock
// registry before running the occupancy compare-and-set.
func (ctx *HandlerContext) AssignTable(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteAssignTable, "tables:update"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := AssignTableRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 || req.OrderID == 0 {
		http.Error(w, "Table id and order id are required", http.StatusBadRequest)
		return
	}
	tableKey := locks.TableKey(req.ID)
	if err := ctx.locks.Acquire(tableKey); err != nil {
		util.WriteError(w, err)
		return
	}
	defer ctx.locks.Release(tableKey)
	tbl, err := ctx.manager.Assign(req.ID, req.OrderID)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, tbl)
}

func (ctx *HandlerContext) DeleteTable(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteDeleteTable, "tables:delete"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := DeleteTableRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Table id is required", http.StatusBadRequest)
		return
	}
	if err := ctx.manager.Delete(req.ID); err != nil {
		util.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Table deleted."))
}
