package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/internal/admin"
	"github.com/bloodlink/bloodlink-backend/internal/auth"
	"github.com/bloodlink/bloodlink-backend/internal/chat"
	"github.com/bloodlink/bloodlink-backend/internal/donors"
	"github.com/bloodlink/bloodlink-backend/internal/hospitals"
	"github.com/bloodlink/bloodlink-backend/internal/inventory"
	"github.com/bloodlink/bloodlink-backend/internal/pledges"
	"github.com/bloodlink/bloodlink-backend/internal/requests"
	"github.com/bloodlink/bloodlink-backend/internal/users"
	pkgAuth "github.com/bloodlink/bloodlink-backend/pkg/auth"
	"github.com/bloodlink/bloodlink-backend/pkg/auth/session"
	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
	"github.com/bloodlink/bloodlink-backend/pkg/pagination"
	"github.com/bloodlink/bloodlink-backend/pkg/redis"
	"github.com/bloodlink/bloodlink-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) RegisterDonor(ctx context.Context, req auth.RegisterDonorRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubRegisterService) RegisterHospital(ctx context.Context, req auth.RegisterHospitalRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubAdminRegisterService struct{}

func (stubAdminRegisterService) Register(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubRequestsService struct{}

func (stubRequestsService) Create(ctx context.Context, input requests.CreateRequestInput) (*requests.RequestDTO, error) {
	return &requests.RequestDTO{}, nil
}

func (stubRequestsService) Get(ctx context.Context, requestID uuid.UUID) (*requests.RequestDTO, error) {
	return &requests.RequestDTO{ID: requestID}, nil
}

func (stubRequestsService) ListForHospital(ctx context.Context, hospitalID uuid.UUID) ([]requests.RequestDTO, error) {
	return nil, nil
}

func (stubRequestsService) ListForDonor(ctx context.Context, donorID uuid.UUID) ([]requests.RequestDTO, error) {
	return nil, nil
}

func (stubRequestsService) ListAll(ctx context.Context) ([]requests.RequestDTO, error) {
	return nil, nil
}

func (stubRequestsService) AcceptDonor(ctx context.Context, input requests.AcceptDonorInput) (*requests.RequestDTO, error) {
	return &requests.RequestDTO{}, nil
}

func (stubRequestsService) UpdateStatus(ctx context.Context, input requests.UpdateStatusInput) (*requests.RequestDTO, error) {
	return &requests.RequestDTO{}, nil
}

type stubPledgesService struct{}

func (stubPledgesService) Pledge(ctx context.Context, donorID, requestID uuid.UUID) (*pledges.DonationDTO, error) {
	return &pledges.DonationDTO{}, nil
}

func (stubPledgesService) ListForDonor(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error) {
	return nil, nil
}

func (stubPledgesService) ListForRequest(ctx context.Context, requestID uuid.UUID) ([]pledges.DonationDTO, error) {
	return nil, nil
}

type stubDonorsService struct{}

func (stubDonorsService) Profile(ctx context.Context, donorID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: donorID, Role: enums.RoleDonor}, nil
}

func (stubDonorsService) UpdateProfile(ctx context.Context, donorID uuid.UUID, input donors.UpdateProfileInput) (*users.UserDTO, error) {
	return &users.UserDTO{ID: donorID}, nil
}

func (stubDonorsService) SetAvailability(ctx context.Context, donorID uuid.UUID, available bool) (*users.UserDTO, error) {
	return &users.UserDTO{ID: donorID}, nil
}

func (stubDonorsService) MatchedRequests(ctx context.Context, donorID uuid.UUID) ([]requests.RequestDTO, error) {
	return nil, nil
}

func (stubDonorsService) Donations(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error) {
	return nil, nil
}

func (stubDonorsService) Certificates(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error) {
	return nil, nil
}

type stubGeofenceService struct{}

func (stubGeofenceService) UpdateDonorLocation(ctx context.Context, donorID uuid.UUID, coords types.Coordinates) error {
	return nil
}

type stubHospitalsService struct{}

func (stubHospitalsService) Profile(ctx context.Context, hospitalID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: hospitalID, Role: enums.RoleHospital}, nil
}

func (stubHospitalsService) UpdateProfile(ctx context.Context, hospitalID uuid.UUID, input hospitals.UpdateProfileInput) (*users.UserDTO, error) {
	return &users.UserDTO{ID: hospitalID}, nil
}

type stubInventoryService struct{}

func (stubInventoryService) Get(ctx context.Context, hospitalID uuid.UUID) ([]inventory.ItemDTO, error) {
	return []inventory.ItemDTO{}, nil
}

func (stubInventoryService) Search(ctx context.Context, pincode string) ([]inventory.HospitalInventoryDTO, error) {
	return []inventory.HospitalInventoryDTO{}, nil
}

func (stubInventoryService) UpsertStock(ctx context.Context, input inventory.UpsertStockInput) ([]inventory.ItemDTO, error) {
	return nil, nil
}

func (stubInventoryService) AddStock(ctx context.Context, input inventory.AddStockInput) ([]inventory.ItemDTO, error) {
	return nil, nil
}

func (stubInventoryService) Lend(ctx context.Context, input inventory.LendInput) (*inventory.LenderDTO, error) {
	return &inventory.LenderDTO{}, nil
}

func (stubInventoryService) LendingHistory(ctx context.Context, hospitalID uuid.UUID) ([]inventory.LenderDTO, error) {
	return nil, nil
}

type stubChatService struct{}

func (stubChatService) Post(ctx context.Context, input chat.PostMessageInput) (*chat.MessageDTO, error) {
	return &chat.MessageDTO{}, nil
}

func (stubChatService) History(ctx context.Context, requestID, actorID uuid.UUID, params pagination.Params) (*chat.HistoryPage, error) {
	return &chat.HistoryPage{}, nil
}

type stubAdminService struct{}

func (stubAdminService) Stats(ctx context.Context) (*admin.StatsDTO, error) {
	return &admin.StatsDTO{}, nil
}

func (stubAdminService) PendingHospitals(ctx context.Context) ([]users.UserDTO, error) {
	return nil, nil
}

func (stubAdminService) VerifyHospital(ctx context.Context, hospitalID uuid.UUID, input admin.VerifyHospitalInput) (*users.UserDTO, error) {
	return &users.UserDTO{ID: hospitalID}, nil
}

func (stubAdminService) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionManager{},
		Services{
			Auth:          stubAuthService{},
			Register:      stubRegisterService{},
			AdminRegister: stubAdminRegisterService{},
			Requests:      stubRequestsService{},
			Pledges:       stubPledgesService{},
			Donors:        stubDonorsService{},
			Geofence:      stubGeofenceService{},
			Hospitals:     stubHospitalsService{},
			Inventory:     stubInventoryService{},
			Chat:          stubChatService{},
			Admin:         stubAdminService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPublicPingIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public ping got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleDonor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleHospital))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	adminReq := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	adminReq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, adminReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestDonorRoutesRequireDonorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	hospital := httptest.NewRequest(http.MethodGet, "/api/v1/donors/me", nil)
	hospital.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleHospital))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, hospital)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for hospital on donor route got %d", resp.Code)
	}

	donor := httptest.NewRequest(http.MethodGet, "/api/v1/donors/me", nil)
	donor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleDonor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, donor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for donor profile got %d", resp.Code)
	}
}

func TestHospitalInventoryRequiresHospitalRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	donor := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/me/inventory", nil)
	donor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleDonor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, donor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for donor on inventory got %d", resp.Code)
	}

	hospital := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/me/inventory", nil)
	hospital.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleHospital))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, hospital)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for hospital inventory got %d", resp.Code)
	}
}

func TestAdminRequestRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	hospital := httptest.NewRequest(http.MethodGet, "/api/admin/v1/requests", nil)
	hospital.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleHospital))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, hospital)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for hospital on admin listing got %d", resp.Code)
	}

	adminReq := httptest.NewRequest(http.MethodGet, "/api/admin/v1/requests", nil)
	adminReq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, adminReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin listing got %d", resp.Code)
	}
}

func TestRequestCreationRequiresHospitalRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	donor := httptest.NewRequest(http.MethodPost, "/api/v1/requests", nil)
	donor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleDonor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, donor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for donor creating request got %d", resp.Code)
	}
}

func TestPledgeRequiresDonorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	hospital := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+uuid.NewString()+"/pledge", nil)
	hospital.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleHospital))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, hospital)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for hospital pledging got %d", resp.Code)
	}
}

func TestAdminRegisterHiddenInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.AppEnvProd
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK || resp.Code == http.StatusCreated {
		t.Fatalf("admin register must not be reachable in production, got %d", resp.Code)
	}
}
