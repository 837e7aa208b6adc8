package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/internal/auth"
	"github.com/bloodlink/bloodlink-backend/internal/users"
	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
)

type stubRegisterService struct {
	donorCalls    int
	hospitalCalls int
	err           error
}

func (s *stubRegisterService) RegisterDonor(ctx context.Context, req auth.RegisterDonorRequest) (*users.UserDTO, error) {
	s.donorCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Role: enums.RoleDonor}, nil
}

func (s *stubRegisterService) RegisterHospital(ctx context.Context, req auth.RegisterHospitalRequest) (*users.UserDTO, error) {
	s.hospitalCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Role: enums.RoleHospital}, nil
}

type stubAdminRegister struct {
	calls int
	err   error
}

func (s *stubAdminRegister) Register(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Role: enums.RoleAdmin}, nil
}

func TestRegisterDonorSuccess(t *testing.T) {
	reg := &stubRegisterService{}
	handler := RegisterDonor(reg, stubAuthService{resp: loginResponse(enums.RoleDonor)}, nil)

	body := `{"name":"Asha","email":"asha@example.com","password":"Secret#1","pincode":"560001","blood_group":"O+"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register/donor", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if reg.donorCalls != 1 {
		t.Fatalf("expected one donor registration, got %d", reg.donorCalls)
	}
	if rec.Header().Get("X-BL-Token") == "" {
		t.Fatal("expected access token header after signup")
	}
}

func TestRegisterHospitalDuplicateEmail(t *testing.T) {
	reg := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	handler := RegisterHospital(reg, stubAuthService{}, nil)

	body := `{"hospital_name":"City General","email":"cg@example.com","password":"Secret#1","pincode":"560001","address":"12 MG Road"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register/hospital", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestAdminAuthRegisterBlockedInProd(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	reg := &stubAdminRegister{}
	handler := AdminAuthRegister(reg, stubAuthService{resp: loginResponse(enums.RoleAdmin)}, cfg, nil)

	body := `{"name":"Admin","email":"admin@example.com","password":"Secret#1","pincode":"560001"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if reg.calls != 0 {
		t.Fatal("registration must not run in prod")
	}
}

func TestAdminAuthRegisterDevSuccess(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
	reg := &stubAdminRegister{}
	handler := AdminAuthRegister(reg, stubAuthService{resp: loginResponse(enums.RoleAdmin)}, cfg, nil)

	body := `{"name":"Admin","email":"admin@example.com","password":"Secret#1","pincode":"560001"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if reg.calls != 1 {
		t.Fatalf("expected one admin registration, got %d", reg.calls)
	}
}
