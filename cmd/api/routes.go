package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fingerattend/internal/auth"
	"fingerattend/internal/backend"
	"fingerattend/internal/cloudinary"
	"fingerattend/internal/config"
	"fingerattend/internal/dashboard"
	"fingerattend/internal/linker"
	"fingerattend/internal/mutate"
	"fingerattend/internal/queue"
	"fingerattend/internal/session"
	"fingerattend/internal/store"
)

// server wires the dashboards to HTTP.
type server struct {
	cfg      config.App
	base     context.Context
	kv       store.KV
	source   dashboard.Source
	writer   mutate.Writer
	scanner  dashboard.Scanner
	linker   *linker.Linker
	queue    queue.Queue
	cdn      *cloudinary.Client
	doctors  *dashboard.Registry[*dashboard.Doctor]
	students *dashboard.Registry[*dashboard.Student]
	// limit runs after authentication so buckets are per session.
	limit gin.HandlerFunc
}

func (s *server) dashboardConfig() dashboard.Config {
	return dashboard.Config{DefaultRoom: s.cfg.DefaultRoom, GoodPercent: s.cfg.GoodStandingPercent}
}

// entityRoutes maps the doctor CRUD paths to backend entities.
var entityRoutes = map[string]backend.Entity{
	"subjects": backend.EntitySubject,
	"rooms":    backend.EntityRoom,
	"lectures": backend.EntityLecture,
	"doctors":  backend.EntityDoctor,
}

func (s *server) routes(r *gin.Engine) {
	if s.limit == nil {
		s.limit = func(c *gin.Context) { c.Next() }
	}
	r.POST("/v1/session", s.limit, s.createSession)

	v1 := r.Group("/v1", auth.SessionAuth(s.cfg.JWTSigningKey, s.cfg.JWTIssuer), s.limit)
	v1.DELETE("/session", s.endSession)
	v1.POST("/uploads/profile-image", s.uploadProfileImage)
	v1.POST("/fingerprints/link", s.enqueueLink)
	v1.GET("/fingerprints/link/:id", s.linkJob)

	doc := v1.Group("/doctor", auth.RequireRole(string(session.RoleDoctor)))
	doc.POST("/mount", s.mountDoctor)
	doc.DELETE("/mount", s.unmountDoctor)
	doc.GET("/view", s.doctorView)
	doc.PUT("/state", s.doctorState)
	doc.GET("/options", s.doctorOptions)
	doc.POST("/mutation/dismiss", s.dismissDoctorError)
	for path, entity := range entityRoutes {
		doc.POST("/"+path, s.saveRecord(entity))
		doc.DELETE("/"+path+"/:id", s.deleteRecord(entity))
	}

	st := v1.Group("/student", auth.RequireRole(string(session.RoleStudent)))
	st.POST("/mount", s.mountStudent)
	st.DELETE("/mount", s.unmountStudent)
	st.GET("/view", s.studentView)
	st.PUT("/state", s.studentState)
	st.POST("/notifications/:id/toggle", s.toggleNotification)
	st.POST("/notifications/read-all", s.readAllNotifications)
	st.POST("/scan", s.scan)
	st.GET("/report", s.report)
}

func (s *server) createSession(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Role     string `json:"role" binding:"required"`
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := session.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()
	sess, err := session.Create(c.Request.Context(), s.kv, id, req.Email, role, req.Language)
	if err != nil {
		log.Printf("create session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session storage failed"})
		return
	}
	token, err := auth.Issue(id, sess.Email, string(role), s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      token.Value,
		"expires_at": token.ExpiresAt.Unix(),
		"role":       role,
		"language":   sess.Language(),
	})
}

func (s *server) endSession(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	id := claims.SessionID()
	s.doctors.Remove(id)
	s.students.Remove(id)
	if sess, err := session.Load(c.Request.Context(), s.kv, id); err == nil {
		if err := sess.End(c.Request.Context()); err != nil {
			log.Printf("end session %s failed: %v", id, err)
		}
	}
	c.Status(http.StatusNoContent)
}

// loadSession restores the session named by the token.
func (s *server) loadSession(c *gin.Context) (*session.Session, bool) {
	claims, _ := auth.ClaimsFrom(c)
	sess, err := session.Load(c.Request.Context(), s.kv, claims.SessionID())
	if errors.Is(err, session.ErrNoSession) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return nil, false
	}
	if err != nil {
		log.Printf("load session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session storage failed"})
		return nil, false
	}
	return sess, true
}

func (s *server) doctor(c *gin.Context) (*dashboard.Doctor, bool) {
	claims, _ := auth.ClaimsFrom(c)
	if v, ok := s.doctors.Get(claims.SessionID()); ok {
		return v, true
	}
	sess, ok := s.loadSession(c)
	if !ok {
		return nil, false
	}
	return s.doctors.GetOrCreate(sess.ID, func() *dashboard.Doctor {
		return dashboard.NewDoctor(s.base, sess, s.source, s.writer, s.dashboardConfig())
	}), true
}

func (s *server) student(c *gin.Context) (*dashboard.Student, bool) {
	claims, _ := auth.ClaimsFrom(c)
	if v, ok := s.students.Get(claims.SessionID()); ok {
		return v, true
	}
	sess, ok := s.loadSession(c)
	if !ok {
		return nil, false
	}
	return s.students.GetOrCreate(sess.ID, func() *dashboard.Student {
		return dashboard.NewStudent(s.base, sess, s.source, s.scanner, s.dashboardConfig())
	}), true
}

func (s *server) mountDoctor(c *gin.Context) {
	v, ok := s.doctor(c)
	if !ok {
		return
	}
	v.Mount(c.Request.Context())
	c.JSON(http.StatusOK, v.View())
}

func (s *server) unmountDoctor(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	s.doctors.Remove(claims.SessionID())
	c.Status(http.StatusNoContent)
}

func (s *server) doctorView(c *gin.Context) {
	if v, ok := s.doctor(c); ok {
		c.JSON(http.StatusOK, v.View())
	}
}

func (s *server) doctorState(c *gin.Context) {
	v, ok := s.doctor(c)
	if !ok {
		return
	}
	var ch dashboard.Change
	if err := c.ShouldBindJSON(&ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := v.Update(c.Request.Context(), ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v.View())
}

func (s *server) doctorOptions(c *gin.Context) {
	v, ok := s.doctor(c)
	if !ok {
		return
	}
	faculty, _ := strconv.Atoi(c.Query("faculty"))
	year, _ := strconv.Atoi(c.Query("year"))
	c.JSON(http.StatusOK, v.Options(faculty, year))
}

func (s *server) dismissDoctorError(c *gin.Context) {
	if v, ok := s.doctor(c); ok {
		v.DismissError()
		c.Status(http.StatusNoContent)
	}
}

func formFor(entity backend.Entity) mutate.Form {
	switch entity {
	case backend.EntitySubject:
		return &mutate.SubjectForm{}
	case backend.EntityRoom:
		return &mutate.RoomForm{}
	case backend.EntityLecture:
		return &mutate.LectureForm{}
	case backend.EntityDoctor:
		return &mutate.DoctorForm{}
	}
	return nil
}

// deref turns the pointer used for binding back into a value form.
func deref(f mutate.Form) mutate.Form {
	switch v := f.(type) {
	case *mutate.SubjectForm:
		return *v
	case *mutate.RoomForm:
		return *v
	case *mutate.LectureForm:
		return *v
	case *mutate.DoctorForm:
		return *v
	}
	return f
}

func (s *server) saveRecord(entity backend.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := s.doctor(c)
		if !ok {
			return
		}
		form := formFor(entity)
		if err := c.ShouldBindJSON(form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := v.Save(c.Request.Context(), deref(form)); err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusOK, v.View())
	}
}

func (s *server) deleteRecord(entity backend.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := s.doctor(c)
		if !ok {
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		confirmed, _ := strconv.ParseBool(c.Query("confirm"))
		err = v.Delete(c.Request.Context(), mutate.DeleteRequest{Entity: entity, ID: id, Confirmed: confirmed})
		if errors.Is(err, mutate.ErrNotConfirmed) {
			c.JSON(http.StatusPreconditionRequired, gin.H{
				"error":   err.Error(),
				"confirm": fmt.Sprintf("Are you sure you want to delete this %s?", entity),
			})
			return
		}
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusOK, v.View())
	}
}

func writeMutationError(c *gin.Context, err error) {
	var verr *mutate.ValidationError
	var merr *mutate.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &merr):
		c.JSON(http.StatusBadGateway, gin.H{"error": merr.Message()})
	case errors.Is(err, mutate.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusConflict, gin.H{"error": "dashboard closed"})
	default:
		log.Printf("mutation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mutation failed"})
	}
}

func (s *server) mountStudent(c *gin.Context) {
	v, ok := s.student(c)
	if !ok {
		return
	}
	v.Mount(c.Request.Context())
	c.JSON(http.StatusOK, v.View())
}

func (s *server) unmountStudent(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	s.students.Remove(claims.SessionID())
	c.Status(http.StatusNoContent)
}

func (s *server) studentView(c *gin.Context) {
	if v, ok := s.student(c); ok {
		c.JSON(http.StatusOK, v.View())
	}
}

func (s *server) studentState(c *gin.Context) {
	v, ok := s.student(c)
	if !ok {
		return
	}
	var ch dashboard.Change
	if err := c.ShouldBindJSON(&ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := v.Update(c.Request.Context(), ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v.View())
}

func (s *server) toggleNotification(c *gin.Context) {
	v, ok := s.student(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := v.ToggleNotification(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v.View())
}

func (s *server) readAllNotifications(c *gin.Context) {
	v, ok := s.student(c)
	if !ok {
		return
	}
	if err := v.ReadAll(c.Request.Context()); err != nil {
		log.Printf("read-all failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save read state"})
		return
	}
	c.JSON(http.StatusOK, v.View())
}

func (s *server) scan(c *gin.Context) {
	v, ok := s.student(c)
	if !ok {
		return
	}
	res, err := v.Scan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "fingerprint scan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": res.Success, "message": res.Message})
}

func (s *server) report(c *gin.Context) {
	if v, ok := s.student(c); ok {
		c.JSON(http.StatusOK, v.Report())
	}
}

// uploadProfileImage accepts a multipart file or a JSON data URL and returns
// the hosted URL to store as the doctor or student image.
func (s *server) uploadProfileImage(c *gin.Context) {
	if !s.cdn.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	var (
		result *cloudinary.UploadResult
		err    error
	)
	switch {
	case strings.Contains(c.ContentType(), "multipart/form-data"):
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, err = s.cdn.UploadBytes(c.Request.Context(), data, header.Filename)
	default:
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, err = s.cdn.UploadDataURL(c.Request.Context(), body.Data)
	}
	if err != nil {
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "public_id": result.PublicID})
}

func (s *server) enqueueLink(c *gin.Context) {
	var req linker.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	// students may only link their own fingerprint
	if strings.TrimSpace(req.Email) == "" || !isDoctor(claims) {
		req.Email = claims.Email
	}
	job, err := s.linker.Enqueue(c.Request.Context(), s.queue, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (s *server) linkJob(c *gin.Context) {
	job, err := s.linker.Job(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, linker.ErrJobNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	if errors.Is(err, linker.ErrJobNotFound) || (!isDoctor(claims) && !strings.EqualFold(job.Email, claims.Email)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func isDoctor(claims auth.Claims) bool {
	return strings.EqualFold(claims.Role, string(session.RoleDoctor))
}
