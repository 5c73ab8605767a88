package payment

import (
	"net/http"

	"pos_system/custom/auth"
	"pos_system/custom/util"
)

const (
	RouteListPayments       = "/pos/list_payments"
	RouteQueryOrderPayments = "/pos/query_order_payments"
	RouteCreatePayment      = "/pos/create_payment"
	RouteRefundPayment      = "/pos/refund_payment"
)

type HandlerContext struct {
	processor *Processor
	auth      *auth.Evaluator
}

func (ctx *HandlerContext) InitialHandlerContext(processor *Processor, evaluator *auth.Evaluator) {
	ctx.processor = processor
	ctx.auth = evaluator
}

type CreatePaymentRequest struct {
	OrderID uint    `json:"order_id"`
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Notes   *string `json:"notes,omitempty"`
}

type QueryOrderPaymentsRequest struct {
	OrderID uint `json:"order_id"`
}

type RefundPaymentRequest struct {
	ID uint `json:"id"`
}

func (ctx *HandlerContext) ListPayments(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteListPayments, "payments:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	payments, err := ctx.processor.List()
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, payments)
}

func (ctx *HandlerContext) QueryOrderPayments(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteQueryOrderPayments, "payments:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := QueryOrderPaymentsRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderID == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}
	payments, err := ctx.processor.GetByOrderID(req.OrderID)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, payments)
}

func (ctx *HandlerContext) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	session, err := ctx.auth.Authorize(r, RouteCreatePayment, "payments:create")
	if err != nil {
		util.WriteError(w, err)
		return
	}
	req := CreatePaymentRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OrderID == 0 {
		http.Error(w, "Order id is required", http.StatusBadRequest)
		return
	}
	newPayment, err := ctx.processor.Create(req.OrderID, req.Amount, req.Method, session.StaffID, req.Notes)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, newPayment)
}

func (ctx *HandlerContext) RefundPayment(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteRefundPayment, "payments:refund"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := RefundPaymentRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Payment id is required", http.StatusBadRequest)
		return
	}
	refunded, err := ctx.processor.Refund(req.ID)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, refunded)
}
