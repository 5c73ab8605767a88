package order

import (
	"net/http"

	"pos_system/custom/auth"
	"pos_system/custom/util"
)

// Route ids double as URL paths; the auth route table enumerates them.
const (
	RouteListOrders       = "/pos/list_orders"
	RouteQueryOrder       = "/pos/query_order"
	RouteCreateOrder      = "/pos/create_order"
	RouteAddItem          = "/pos/add_item"
	RouteUpdateItemStatus = "/pos/update_item_status"
	RouteSetDiscount      = "/pos/set_discount"
	RouteTransitionOrder  = "/pos/transition_order"
	RouteCancelOrder      = "/pos/cancel_order"
	RouteDeleteOrder      = "/pos/delete_order"
)

type HandlerContext struct {
	manager *Manager
	auth    *auth.Evaluator
}

func (ctx *HandlerContext) InitialHandlerContext(manager *Manager, evaluator *auth.Evaluator) {
	ctx.manager = manager
	ctx.auth = evaluator
}

type CreateOrderRequest struct {
	OrderType      string  `json:"order_type"`
	TableID        *uint   `json:"table_id,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	DiscountAmount float64 `json:"discount_amount"`
}

type QueryOrderRequest struct {
	ID uint `json:"id"`
}

type AddItemRequest struct {
	OrderID   uint     `json:"order_id"`
	ProductID uint     `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Version   uint     `json:"version"`
}

type UpdateItemStatusRequest struct {
	OrderID uint   `json:"order_id"`
	ItemID  uint   `json:"item_id"`
	Status  string `json:"status"`
}

type SetDiscountRequest struct {
	OrderID uint    `json:"order_id"`
	Amount  float64 `json:"amount"`
}

type TransitionRequest struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

func (ctx *HandlerContext) ListOrders(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteListOrders, "orders:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	orders, err := ctx.manager.List()
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, orders)
}

func (ctx *HandlerContext) QueryOrder(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteQueryOrder, "orders:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := QueryOrderRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}
	orderInfo, items, err := ctx.manager.GetByID(req.ID)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, map[string]interface{}{
		"order": orderInfo,
		"items": items,
	})
}

func (ctx *HandlerContext) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	session, err := ctx.auth.Authorize(r, RouteCreateOrder, "orders:create")
	if err != nil {
		util.WriteError(w, err)
		return
	}
	req := CreateOrderRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	newOrder, err := ctx.manager.Create(CreateOrderInput{
		OrderType:      req.OrderType,
		TableID:        req.TableID,
		ServerID:       session.StaffID,
		Notes:          req.Notes,
		DiscountAmount: req.DiscountAmount,
	})
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, newOrder)
}

func (ctx *HandlerContext) AddItem(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	session, err := ctx.auth.Authorize(r, RouteAddItem, "orders:update")
	if err != nil {
		util.WriteError(w, err)
		return
	}
	req := AddItemRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderID == 0 || req.ProductID == 0 {
		http.Error(w, "Order id and product id are required", http.StatusBadRequest)
		return
	}
	newItem, orderInfo, err := ctx.manager.AddItem(AddItemInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		ServerID:  session.StaffID,
		Notes:     req.Notes,
		Version:   req.Version,
	})
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, map[string]interface{}{
		"item":  newItem,
		"order": orderInfo,
	})
}

func (ctx *HandlerContext) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteUpdateItemStatus, "orders:items"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := UpdateItemStatusRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderID == 0 || req.ItemID == 0 {
		http.Error(w, "Order id and item id are required", http.StatusBadRequest)
		return
	}
	item, err := ctx.manager.UpdateItemStatus(req.OrderID, req.ItemID, req.Status)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, item)
}

func (ctx *HandlerContext) SetDiscount(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteSetDiscount, "orders:update"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := SetDiscountRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderID == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}
	orderInfo, err := ctx.manager.SetDiscount(req.OrderID, req.Amount)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, orderInfo)
}

func (ctx *HandlerContext) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteTransitionOrder, "orders:update"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := TransitionRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderID == 0 || req.Status == "" {
		http.Error(w, "Order id and status are required", http.StatusBadRequest)
		return
	}
	orderInfo, err := ctx.manager.Transition(req.OrderID, req.Status)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, orderInfo)
}

func (ctx *HandlerContext) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteCancelOrder, "orders:cancel"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := QueryOrderRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}
	orderInfo, err := ctx.manager.Cancel(req.ID)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, orderInfo)
}

func (ctx *HandlerContext) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteDeleteOrder, "orders:delete"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := QueryOrderRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}
	if err := ctx.manager.Delete(req.ID); err != nil {
		util.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Order deleted."))
}
