package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/source"
)

func (s *Server) List(kind record.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := s.Service.List(c.Request.Context(), kind)
		if err != nil {
			s.fail(c, fmt.Errorf("database error: %w", err))
			return
		}
		if recs == nil {
			recs = []record.Record{}
		}
		c.JSON(http.StatusOK, recs)
	}
}

func (s *Server) Process(kind record.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload())

		in := source.Input{
			Text: c.PostForm("text"),
			URL:  c.PostForm("url"),
		}
		fh, err := c.FormFile("file")
		switch {
		case err == nil:
			f, err := fh.Open()
			if err != nil {
				s.fail(c, fmt.Errorf("%w: %v", source.ErrDecode, err))
				return
			}
			defer f.Close()
			in.FileName, in.File = fh.Filename, f
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		default:
			s.fail(c, err)
			return
		}

		res, err := s.Service.Process(c.Request.Context(), kind, in)
		if err != nil {
			s.fail(c, err)
			return
		}

		inserted := res.Inserted
		if inserted == nil {
			inserted = []record.Record{}
		}
		body := gin.H{
			"message":            "Processing completed.",
			"successful_inserts": inserted,
		}
		if len(res.Duplicates) > 0 {
			body["duplicates"] = res.Duplicates
			c.JSON(http.StatusConflict, body)
			return
		}
		c.JSON(http.StatusCreated, body)
	}
}

func (s *Server) Add(kind record.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec record.Record
		if err := c.ShouldBindJSON(&rec); err != nil || rec == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		numero, err := s.Service.Add(c.Request.Context(), kind, rec)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": fmt.Sprintf("Entry added to %s successfully", kind.Table()),
			"numero":  numero,
		})
	}
}

func (s *Server) Replace(kind record.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var recs []record.Record
		if err := c.ShouldBindJSON(&recs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		if err := s.Service.Replace(c.Request.Context(), kind, recs); err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Entries in %s replaced successfully", kind.Table()),
		})
	}
}

func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.Service.Ping(ctx); err != nil {
		s.Log.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	entry := s.Log.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
