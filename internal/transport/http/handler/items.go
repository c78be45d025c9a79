package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"rewear-api/internal/app"
	"rewear-api/internal/model"
	"rewear-api/internal/transport/http/middleware"
	"rewear-api/internal/transport/http/response"
)

type ItemHandler struct {
	itemService *app.ItemService
}

type CreateItemRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=100"`
	Description string   `json:"description" binding:"required,min=10,max=1000"`
	Category    string   `json:"category" binding:"required,max=64"`
	ItemType    string   `json:"item_type" binding:"required,max=64"`
	Size        string   `json:"size" binding:"required,max=32"`
	Condition   string   `json:"condition" binding:"required,oneof='New with Tags' 'Like New' 'Used - Good' 'Used - Fair'"`
	Tags        []string `json:"tags" binding:"omitempty,max=20,dive,max=32"`
	ImageURLs   []string `json:"image_urls" binding:"omitempty,max=10,dive,url"`
}

type UpdateItemRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=3,max=100"`
	Description *string   `json:"description" binding:"omitempty,min=10,max=1000"`
	Category    *string   `json:"category" binding:"omitempty,max=64"`
	ItemType    *string   `json:"item_type" binding:"omitempty,max=64"`
	Size        *string   `json:"size" binding:"omitempty,max=32"`
	Condition   *string   `json:"condition" binding:"omitempty,oneof='New with Tags' 'Like New' 'Used - Good' 'Used - Fair'"`
	Tags        *[]string `json:"tags" binding:"omitempty,max=20,dive,max=32"`
	ImageURLs   *[]string `json:"image_urls" binding:"omitempty,max=10,dive,url"`
}

type itemPage struct {
	Items  []model.ClothingItem `json:"items"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func NewItemHandler(itemService *app.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

func (h *ItemHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, app.ErrUnauthorized.Error())
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), user.ID, app.CreateItemInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ItemType:    req.ItemType,
		Size:        req.Size,
		Condition:   req.Condition,
		Tags:        req.Tags,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		writeError(c, err, "create item failed")
		return
	}
	response.Created(c, item)
}

func (h *ItemHandler) List(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	items, page, err := h.itemService.ListAvailable(c.Request.Context(), page)
	if err != nil {
		writeError(c, err, "list items failed")
		return
	}
	response.OK(c, itemPage{Items: items, Limit: page.Limit, Offset: page.Offset})
}

func (h *ItemHandler) ListPending(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	items, page, err := h.itemService.ListPending(c.Request.Context(), page)
	if err != nil {
		writeError(c, err, "list pending items failed")
		return
	}
	response.OK(c, itemPage{Items: items, Limit: page.Limit, Offset: page.Offset})
}

func (h *ItemHandler) Mine(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, app.ErrUnauthorized.Error())
		return
	}
	items, err := h.itemService.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err, "list own items failed")
		return
	}
	response.OK(c, gin.H{"items": items})
}

func (h *ItemHandler) Get(c *gin.Context) {
	viewer, _ := middleware.CurrentUser(c)
	item, err := h.itemService.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		writeError(c, err, "get item failed")
		return
	}
	response.OK(c, item)
}

func (h *ItemHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, app.ErrUnauthorized.Error())
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), user.ID, c.Param("id"), model.ItemPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ItemType:    req.ItemType,
		Size:        req.Size,
		Condition:   req.Condition,
		Tags:        req.Tags,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		writeError(c, err, "update item failed")
		return
	}
	response.OK(c, item)
}

func parsePage(c *gin.Context) (app.Page, bool) {
	var page app.Page
	for _, field := range []struct {
		name string
		dst  *int
	}{{"limit", &page.Limit}, {"offset", &page.Offset}} {
		raw := c.Query(field.name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			badRequest(c)
			return page, false
		}
		*field.dst = parsed
	}
	return page, true
}
