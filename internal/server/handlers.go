package server

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/reconcile"
	"github.com/nucleus/sdmx-core/internal/selection"
	"github.com/nucleus/sdmx-core/internal/summary"
)

// =============================================================================
// REQUEST AND RESPONSE TYPES
// =============================================================================

type keyRequest struct {
	Selection *selection.Selection `json:"selection" binding:"required"`
	Dataset   string               `json:"dataset"`
	Ordered   bool                 `json:"ordered"`
}

type keyResponse struct {
	Key string `json:"key"`
}

type dimension struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
}

type dimensionsResponse struct {
	Dataset    string      `json:"dataset"`
	Dimensions []dimension `json:"dimensions"`
}

type dataRequest struct {
	Selection    *selection.Selection `json:"selection"`
	Ordered      bool                 `json:"ordered"`
	StartPeriod  string               `json:"start_period"`
	EndPeriod    string               `json:"end_period"`
	LastN        int                  `json:"last_n" binding:"gte=0"`
	Labels       []string             `json:"labels"`
	StrictLabels bool                 `json:"strict_labels"`
}

type dataResponse struct {
	Dataset       string     `json:"dataset"`
	Key           string     `json:"key"`
	StructureType string     `json:"structure_type"`
	StructureID   string     `json:"structure_id"`
	Columns       []string   `json:"columns"`
	Rows          []core.Row `json:"rows"`
}

type reconcileRequest struct {
	A           *selection.Selection `json:"a" binding:"required"`
	B           *selection.Selection `json:"b" binding:"required"`
	StartPeriod string               `json:"start_period"`
	EndPeriod   string               `json:"end_period"`
	GroupBy     string               `json:"group_by"`
	ValueColumn string               `json:"value_column"`
	Threshold   *float64             `json:"threshold" binding:"omitempty,gte=0"`
	Inclusive   bool                 `json:"inclusive"`
	FailOnZero  bool                 `json:"fail_on_zero"`
	Ordered     bool                 `json:"ordered"`
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Ordered && req.Dataset == "" {
		badRequest(c, errors.New("ordered keys need a dataset"))
		return
	}
	key, err := s.service.Key(c.Request.Context(), req.Dataset, req.Selection, req.Ordered)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, keyResponse{Key: key})
}

func (s *Server) handleDimensions(c *gin.Context) {
	id := c.Param("id")
	dims, err := s.service.Dimensions(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := dimensionsResponse{Dataset: id, Dimensions: make([]dimension, 0, len(dims))}
	for pos, dim := range dims {
		resp.Dimensions = append(resp.Dimensions, dimension{Position: pos, ID: dim})
	}
	sort.Slice(resp.Dimensions, func(i, j int) bool {
		return resp.Dimensions[i].Position < resp.Dimensions[j].Position
	})
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMetadata(c *gin.Context) {
	meta, err := s.service.Metadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// handleSummary accepts repeated ?exclude= parameters (an empty value
// excludes nothing) and ?skip_unknown=true.
func (s *Server) handleSummary(c *gin.Context) {
	opts := summary.DefaultOptions()
	if values, ok := c.GetQueryArray("exclude"); ok {
		opts.Exclude = opts.Exclude[:0:0]
		for _, v := range values {
			if v != "" {
				opts.Exclude = append(opts.Exclude, v)
			}
		}
	}
	if v := c.Query("skip_unknown"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		opts.SkipUnknownCodes = skip
	}

	sum, err := s.service.DatasetWith(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleData(c *gin.Context) {
	var req dataRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	ds, key, err := s.service.Data(c.Request.Context(), summary.DataRequest{
		DatasetID:    id,
		Selection:    req.Selection,
		Ordered:      req.Ordered,
		StartPeriod:  req.StartPeriod,
		EndPeriod:    req.EndPeriod,
		LastN:        req.LastN,
		Labels:       req.Labels,
		StrictLabels: req.StrictLabels,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{
		Dataset:       id,
		Key:           key,
		StructureType: ds.Structure.Kind.String(),
		StructureID:   ds.Structure.ID(),
		Columns:       ds.Data.Columns(),
		Rows:          ds.Data.Rows(),
	})
}

func (s *Server) handleReconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	opts := s.opts.Reconcile
	if req.GroupBy != "" {
		opts.GroupBy = req.GroupBy
	}
	if req.ValueColumn != "" {
		opts.ValueColumn = req.ValueColumn
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	opts.Inclusive = opts.Inclusive || req.Inclusive
	if req.FailOnZero {
		opts.RatioPolicy = reconcile.RatioFail
	}

	startPeriod := req.StartPeriod
	if startPeriod == "" {
		startPeriod = s.opts.StartPeriod
	}

	result, err := s.reconciler.Reconcile(c.Request.Context(), reconcile.Request{
		DatasetID:   c.Param("id"),
		SelectionA:  req.A,
		SelectionB:  req.B,
		StartPeriod: startPeriod,
		EndPeriod:   req.EndPeriod,
		Ordered:     req.Ordered,
		Options:     opts,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
