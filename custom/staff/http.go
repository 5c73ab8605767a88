package staff

import (
	"errors"
	"net/http"

	"github.com/romana/rlog"
	"gorm.io/gorm"

	"pos_system/constants"
	"pos_system/custom/apperr"
	"pos_system/custom/auth"
	"pos_system/custom/util"
	"pos_system/model"
)

const (
	RouteListStaff   = "/pos/list_staff"
	RouteCreateStaff = "/pos/create_staff"
	RouteUpdateStaff = "/pos/update_staff"
	RouteDeleteStaff = "/pos/delete_staff"
)

// Staff records exist here only so the capability evaluator has roles
// to look up; account/credential management lives outside the engine.
type HandlerContext struct {
	db   *gorm.DB
	auth *auth.Evaluator
}

func (ctx *HandlerContext) InitialHandlerContext(db *gorm.DB, evaluator *auth.Evaluator) {
	ctx.db = db
	ctx.auth = evaluator
}

type CreateStaffRequest struct {
	Username string  `json:"username"`
	FullName string  `json:"full_name"`
	Role     string  `json:"role"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type UpdateStaffRequest struct {
	ID       uint    `json:"id"`
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type DeleteStaffRequest struct {
	ID uint `json:"id"`
}

func isValidRole(role string) bool {
	switch role {
	case constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_SERVER,
		constants.ROLE_COUNTER, constants.ROLE_KITCHEN:
		return true
	}
	return false
}

func (ctx *HandlerContext) ListStaff(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodGet}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteListStaff, "staff:view"); err != nil {
		util.WriteError(w, err)
		return
	}
	members := make([]model.Staff, 0)
	if err := ctx.db.Order("username").Find(&members).Error; err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, members)
}

func (ctx *HandlerContext) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteCreateStaff, "staff:manage"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := CreateStaffRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.FullName == "" {
		http.Error(w, "Username and full name are required", http.StatusBadRequest)
		return
	}
	if !isValidRole(req.Role) {
		util.WriteError(w, apperr.Validation("unknown role %s", req.Role))
		return
	}
	newStaff := model.Staff{
		Username: req.Username,
		FullName: req.FullName,
		Role:     req.Role,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := ctx.db.Create(&newStaff).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.WriteError(w, apperr.Conflict("username %s already exists", req.Username))
			return
		}
		util.WriteError(w, err)
		return
	}
	rlog.Infof("Staff %s created with role %s", newStaff.Username, newStaff.Role)
	util.WriteJSON(w, newStaff)
}

func (ctx *HandlerContext) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	if _, err := ctx.auth.Authorize(r, RouteUpdateStaff, "staff:manage"); err != nil {
		util.WriteError(w, err)
		return
	}
	req := UpdateStaffRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Staff id is required", http.StatusBadRequest)
		return
	}
	member := model.Staff{}
	if err := ctx.db.Where("id = ?", req.ID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.WriteError(w, apperr.NotFound(constants.STAFF_NOT_FOUND))
			return
		}
		util.WriteError(w, err)
		return
	}
	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		if !isValidRole(*req.Role) {
			util.WriteError(w, apperr.Validation("unknown role %s", *req.Role))
			return
		}
		updates["role"] = *req.Role
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := ctx.db.Model(&model.Staff{}).Where("id = ?", req.ID).Updates(updates).Error; err != nil {
			util.WriteError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Staff updated."))
}

func (ctx *HandlerContext) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if !util.IsAllowHttpMethod([]string{http.MethodPost}, w, r) {
		return
	}
	session, err := ctx.auth.Authorize(r, RouteDeleteStaff, "staff:manage")
	if err != nil {
		util.WriteError(w, err)
		return
	}
	req := DeleteStaffRequest{}
	if err := util.FetchReqObject(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "Staff id is required", http.StatusBadRequest)
		return
	}
	if req.ID == session.StaffID {
		util.WriteError(w, apperr.Validation("cannot delete the acting staff account"))
		return
	}
	result := ctx.db.Delete(&model.Staff{}, req.ID)
	if result.Error != nil {
		util.WriteError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		util.WriteError(w, apperr.NotFound(constants.STAFF_NOT_FOUND))
		return
	}
	rlog.Infof("Staff %d deleted", req.ID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Staff deleted."))
}
