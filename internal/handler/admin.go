package handler

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/banbiao/banbiao/internal/database"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// errNoDatabase 无数据库时管理接口统一返回的错误
func errNoDatabase() *errors.AppError {
	return errors.New(errors.CodeDatabaseError, "数据库未配置，管理接口不可用")
}

// OrgHandler 组织管理处理器
type OrgHandler struct {
	db   *database.DB
	orgs *repository.OrganizationRepository
}

// NewOrgHandler 创建组织管理处理器
func NewOrgHandler(db *database.DB, orgs *repository.OrganizationRepository) *OrgHandler {
	return &OrgHandler{db: db, orgs: orgs}
}

// CreateOrgRequest 创建组织请求
type CreateOrgRequest struct {
	Name     string                      `json:"name"`
	AdminID  string                      `json:"admin_id"`
	Settings *model.OrganizationSettings `json:"settings,omitempty"`
}

// Create 创建组织并生成分享链接
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.orgs == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Name == "" {
		respondError(w, errors.InvalidInput("name", "不能为空"))
		return
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的管理员ID格式"))
		return
	}

	settings := model.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	org := &model.Organization{
		Name:      req.Name,
		AdminID:   adminID,
		Settings:  settings,
		ShareLink: newShareLink(),
	}
	if err := h.orgs.Create(r.Context(), org); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建组织失败"))
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// Get 获取组织，支持按ID或分享链接查询
func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	if h.orgs == nil {
		respondError(w, errNoDatabase())
		return
	}

	if shareLink := r.URL.Query().Get("share_link"); shareLink != "" {
		org, err := h.orgs.GetByShareLink(r.Context(), shareLink)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, org)
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}
	org, err := h.orgs.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// UpdateOrgRequest 更新组织请求
type UpdateOrgRequest struct {
	OrgID    string                      `json:"org_id"`
	Name     string                      `json:"name,omitempty"`
	Settings *model.OrganizationSettings `json:"settings,omitempty"`
}

// Update 更新组织名称与规则
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.orgs == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req UpdateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.OrgID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	org, err := h.orgs.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Settings != nil {
		org.Settings = *req.Settings
	}
	if err := h.orgs.Update(r.Context(), org); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// Delete 删除组织及其全部关联数据
// 护士、排班表、换班请求与组织本身在同一事务内删除
func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.db == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req struct {
		OrgID string `json:"org_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.OrgID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	err = h.db.Transaction(r.Context(), func(tx *sql.Tx) error {
		for _, query := range []string{
			`DELETE FROM swap_requests WHERE org_id = $1`,
			`DELETE FROM schedules WHERE org_id = $1`,
			`DELETE FROM nurses WHERE org_id = $1`,
		} {
			if _, err := tx.ExecContext(r.Context(), query, id); err != nil {
				return err
			}
		}
		return repository.NewOrganizationRepository(tx).Delete(r.Context(), id)
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "org_id": req.OrgID})
}

// newShareLink 生成组织分享链接令牌
func newShareLink() string {
	b := make([]byte, 12)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// NurseHandler 护士管理处理器
type NurseHandler struct {
	nurses *repository.NurseRepository
}

// NewNurseHandler 创建护士管理处理器
func NewNurseHandler(nurses *repository.NurseRepository) *NurseHandler {
	return &NurseHandler{nurses: nurses}
}

// CreateNurseRequest 创建护士请求
type CreateNurseRequest struct {
	OrgID             string              `json:"org_id"`
	Name              string              `json:"name"`
	Email             string              `json:"email,omitempty"`
	YearsOfExperience int                 `json:"years_of_experience"`
	PersonalRules     model.PersonalRules `json:"personal_rules"`
}

// Create 创建护士
func (h *NurseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.nurses == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req CreateNurseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}
	if req.Name == "" {
		respondError(w, errors.InvalidInput("name", "不能为空"))
		return
	}
	if req.YearsOfExperience < 0 {
		respondError(w, errors.InvalidInput("years_of_experience", "不能为负数"))
		return
	}

	nurse := &model.Nurse{
		OrgID:             orgID,
		Name:              req.Name,
		Email:             req.Email,
		YearsOfExperience: req.YearsOfExperience,
		PersonalRules:     req.PersonalRules,
		Status:            "active",
	}
	if err := h.nurses.Create(r.Context(), nurse); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建护士失败"))
		return
	}
	respondJSON(w, http.StatusOK, nurse)
}

// List 列出组织内的护士，支持状态筛选、姓名搜索与分页
func (h *NurseHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	if h.nurses == nil {
		respondError(w, errNoDatabase())
		return
	}

	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
		return
	}

	filter := repository.DefaultListFilter()
	filter.Status = r.URL.Query().Get("status")
	filter.Search = r.URL.Query().Get("search")
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	nurses, total, err := h.nurses.ListByOrg(r.Context(), orgID, filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询护士列表失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"nurses": nurses,
		"total":  total,
		"offset": filter.Offset,
		"limit":  filter.Limit,
	})
}

// UpdateNurseRequest 更新护士请求
type UpdateNurseRequest struct {
	ID                string               `json:"id"`
	Name              string               `json:"name,omitempty"`
	Email             *string              `json:"email,omitempty"`
	YearsOfExperience *int                 `json:"years_of_experience,omitempty"`
	PersonalRules     *model.PersonalRules `json:"personal_rules,omitempty"`
	Status            string               `json:"status,omitempty"`
}

// Update 更新护士信息与个人规则
func (h *NurseHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.nurses == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req UpdateNurseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的护士ID格式"))
		return
	}

	nurse, err := h.nurses.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Name != "" {
		nurse.Name = req.Name
	}
	if req.Email != nil {
		nurse.Email = *req.Email
	}
	if req.YearsOfExperience != nil {
		if *req.YearsOfExperience < 0 {
			respondError(w, errors.InvalidInput("years_of_experience", "不能为负数"))
			return
		}
		nurse.YearsOfExperience = *req.YearsOfExperience
	}
	if req.PersonalRules != nil {
		nurse.PersonalRules = *req.PersonalRules
	}
	if req.Status != "" {
		nurse.Status = req.Status
	}
	if err := h.nurses.Update(r.Context(), nurse); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nurse)
}

// Delete 删除护士
func (h *NurseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if h.nurses == nil {
		respondError(w, errNoDatabase())
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的护士ID格式"))
		return
	}
	if err := h.nurses.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": req.ID})
}
