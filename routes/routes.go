package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/andrensetiawan/form-service/handlers"
	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/pkg/idempotency"
	"github.com/andrensetiawan/form-service/pkg/metrics"
	"github.com/andrensetiawan/form-service/services"
)

const idempotencyTTL = 24 * time.Hour

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Users        *services.UserService
	Requests     *services.RequestService
	Payments     *services.PaymentService
	Technicians  *services.TechnicianService
	WorkLogs     *services.WorkLogService
	CustomerLogs *services.CustomerLogService
	PublicViews  *services.PublicViewService
	Media        *services.MediaService
	Branches     *services.BranchService
	Settings     *services.SettingsService
	Activity     *services.ActivityService
}

// Options configures the router around the services.
type Options struct {
	Logger         *zap.Logger
	Tokens         *middleware.TokenIssuer
	Idempotency    idempotency.Store
	PublicLimiter  *middleware.RateLimiter
	TrustedProxies middleware.TrustedProxies
	AllowedOrigin  string
	// UploadDir is served under /uploads/ when set (local media backend).
	UploadDir string
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(svc Services, opt Options) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	auth := handlers.NewAuthHandler(svc.Users, opt.Tokens)
	requests := handlers.NewServiceRequestHandler(svc.Requests, svc.Media)
	payments := handlers.NewPaymentHandler(svc.Payments)
	technicians := handlers.NewTechnicianHandler(svc.Technicians)
	logs := handlers.NewLogHandler(svc.WorkLogs, svc.CustomerLogs, svc.Media)
	public := handlers.NewPublicHandler(svc.Requests, svc.PublicViews, svc.Media)
	media := handlers.NewMediaHandler(svc.Media)
	users := handlers.NewUserHandler(svc.Users)
	branches := handlers.NewBranchHandler(svc.Branches)
	admin := handlers.NewAdminHandler(svc.Settings, svc.Activity)

	idem := middleware.Idempotency(opt.Idempotency, idempotencyTTL)
	once := func(h http.HandlerFunc) http.Handler { return idem(h) }

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/healthz", healthz).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/login", auth.Login).Methods("POST")
	if opt.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(opt.UploadDir))),
		)
	}

	pub := r.PathPrefix("/public").Subrouter()
	if opt.PublicLimiter != nil {
		pub.Use(opt.PublicLimiter.Handler)
	}
	pub.Handle("/intake", once(public.Intake)).Methods("POST")
	pub.HandleFunc("/views/{token}", public.View).Methods("GET")
	pub.HandleFunc("/views/{token}/receipt", public.Receipt).Methods("GET")
	pub.Handle("/views/{token}/dp-payments", once(public.SubmitDP)).Methods("POST")
	pub.HandleFunc("/views/{token}/customer-logs", public.CustomerLogs).Methods("GET")
	pub.Handle("/views/{token}/customer-logs", once(public.AddCustomerLog)).Methods("POST")
	pub.HandleFunc("/views/{token}/media", public.UploadMedia).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(opt.Tokens.JWTMiddleware)
	api.Use(middleware.Authenticate(svc.Users))

	api.HandleFunc("/profile", auth.Profile).Methods("GET")
	api.HandleFunc("/profile/password", auth.ChangePassword).Methods("PUT")
	api.HandleFunc("/statuses", handlers.Statuses).Methods("GET")

	registerServiceRequestRoutes(api, requests, payments, technicians, logs, public, once)

	api.Handle("/dp-payments/{paymentId}/approve", requireCap(models.CapDPDecide, payments.Approve)).Methods("POST")
	api.Handle("/dp-payments/{paymentId}/reject", requireCap(models.CapDPDecide, payments.Reject)).Methods("POST")
	api.Handle("/dp-payments/{paymentId}", requireCap(models.CapDPDelete, payments.Delete)).Methods("DELETE")
	api.HandleFunc("/work-logs/{logId}", logs.DeleteWorkLog).Methods("DELETE")
	api.Handle("/customer-logs/{logId}", requireCap(models.CapCustomerLogDelete, logs.DeleteCustomerLog)).Methods("DELETE")
	api.Handle("/public-views/{token}", requireCap(models.CapPublicViewManage, public.RevokeView)).Methods("DELETE")

	api.Handle("/media", requireCap(models.CapMediaUpload, media.Upload)).Methods("POST")
	api.Handle("/media/{publicId:.+}", requireCap(models.CapMediaDelete, media.Delete)).Methods("DELETE")

	// =====================================================
	// Admin Routes
	// =====================================================
	api.HandleFunc("/users", users.List).Methods("GET")
	api.Handle("/users", requireCap(models.CapUserManage, users.Register)).Methods("POST")
	api.Handle("/users/{id}", requireCap(models.CapUserManage, users.Update)).Methods("PUT")

	api.HandleFunc("/branches", branches.List).Methods("GET")
	api.Handle("/branches", requireCap(models.CapBranchManage, branches.Create)).Methods("POST")
	api.Handle("/branches/{id}", requireCap(models.CapBranchManage, branches.Update)).Methods("PUT")
	api.Handle("/branches/{id}", requireCap(models.CapBranchManage, branches.Delete)).Methods("DELETE")

	api.Handle("/settings/security", requireCap(models.CapSettingsManage, admin.GetSecurity)).Methods("GET")
	api.Handle("/settings/security", requireCap(models.CapSettingsManage, admin.UpdateSecurity)).Methods("PUT")
	api.Handle("/logs", requireCap(models.CapLogsRead, admin.Activity)).Methods("GET")

	var h http.Handler = r
	h = middleware.CORS(opt.AllowedOrigin)(h)
	h = middleware.Logger(opt.Logger, opt.TrustedProxies)(h)
	return h
}

func registerServiceRequestRoutes(
	api *mux.Router,
	requests *handlers.ServiceRequestHandler,
	payments *handlers.PaymentHandler,
	technicians *handlers.TechnicianHandler,
	logs *handlers.LogHandler,
	public *handlers.PublicHandler,
	once func(http.HandlerFunc) http.Handler,
) {
	sr := api.PathPrefix("/service-requests").Subrouter()

	// export must be registered before /{id}
	sr.Handle("/export", requireCap(models.CapRequestExport, requests.Export)).Methods("GET")
	sr.HandleFunc("", requests.List).Methods("GET")
	sr.Handle("", once(requests.Create)).Methods("POST")
	sr.HandleFunc("/{id}", requests.Get).Methods("GET")
	sr.HandleFunc("/{id}", requests.Update).Methods("PUT")
	sr.Handle("/{id}", requireCap(models.CapRequestDelete, requests.Delete)).Methods("DELETE")

	sr.HandleFunc("/{id}/status", requests.UpdateStatus).Methods("POST")
	sr.HandleFunc("/{id}/status-log", requests.StatusLog).Methods("GET")
	sr.HandleFunc("/{id}/estimate", requests.SaveEstimate).Methods("PUT")
	sr.HandleFunc("/{id}/receipt", requests.Receipt).Methods("GET")
	sr.HandleFunc("/{id}/media/{kind}", requests.AttachMedia).Methods("POST")
	sr.HandleFunc("/{id}/media/{kind}", requests.DetachMedia).Methods("DELETE")

	sr.HandleFunc("/{id}/dp-payments", payments.List).Methods("GET")
	sr.Handle("/{id}/dp-payments", once(payments.Submit)).Methods("POST")
	sr.Handle("/{id}/dp-payments/direct", requireCap(models.CapDPRecord, once(payments.RecordDirect).ServeHTTP)).Methods("POST")

	sr.Handle("/{id}/technicians", requireCap(models.CapTechnicianAssign, technicians.Assign)).Methods("PUT")
	sr.Handle("/{id}/technicians", requireCap(models.CapTechnicianAssign, technicians.Add)).Methods("POST")
	sr.HandleFunc("/{id}/technicians/history", technicians.History).Methods("GET")
	sr.Handle("/{id}/technicians/{email}", requireCap(models.CapTechnicianAssign, technicians.Remove)).Methods("DELETE")

	sr.HandleFunc("/{id}/work-logs", logs.ListWorkLogs).Methods("GET")
	sr.Handle("/{id}/work-logs", once(logs.AddWorkLog)).Methods("POST")
	sr.HandleFunc("/{id}/customer-logs", logs.ListCustomerLogs).Methods("GET")
	sr.Handle("/{id}/customer-logs", once(logs.AddCustomerLog)).Methods("POST")

	sr.HandleFunc("/{id}/public-views", public.ListViews).Methods("GET")
	sr.Handle("/{id}/public-views", requireCap(models.CapPublicViewManage, public.CreateView)).Methods("POST")
}

func requireCap(capability models.Capability, h http.HandlerFunc) http.Handler {
	return middleware.RequireCapability(capability)(h)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
