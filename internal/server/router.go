package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
	"github.com/goafyi/goafyi/internal/metrics"
	"github.com/goafyi/goafyi/internal/service"
)

// Services bundles the entity services the router dispatches to.
type Services struct {
	Session  *service.SessionService
	Vendors  *service.VendorService
	Ratings  *service.RatingService
	Bookings *service.BookingService
	Messages *service.MessageService
	Media    *service.MediaService
	Settings *service.SettingsService
}

type router struct {
	svcs        Services
	coordinator *cache.Coordinator
	logger      *slog.Logger
}

// NewRouter builds the HTTP surface: diagnostics endpoints plus the local API
// the mobile shell calls, every route backed by a cache-fronted service.
func NewRouter(svcs Services, coordinator *cache.Coordinator, rec *metrics.Recorder, logger *slog.Logger) http.Handler {
	rt := &router{svcs: svcs, coordinator: coordinator, logger: logger.With(slog.String("subsystem", "router"))}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", rec.Handler())
	mux.HandleFunc("GET /healthz", rt.handleHealth)
	mux.HandleFunc("GET /cache/stats", rt.handleCacheStats)
	mux.HandleFunc("POST /cache/sweep", rt.handleSweep)

	mux.HandleFunc("POST /api/session", rt.handleSignIn)
	mux.HandleFunc("POST /api/session/refresh", rt.handleRefresh)
	mux.HandleFunc("DELETE /api/session/{userID}", rt.handleSignOut)
	mux.HandleFunc("POST /api/reset", rt.handleReset)

	mux.HandleFunc("GET /api/users/{userID}/profile", rt.handleUserProfile)
	mux.HandleFunc("PUT /api/users/{userID}/profile", rt.handleUpdateUserProfile)
	mux.HandleFunc("GET /api/users/{userID}/avatar", rt.handleAvatarURL)
	mux.HandleFunc("GET /api/users/{userID}/unread", rt.handleUnread)
	mux.HandleFunc("GET /api/users/{userID}/bookings", rt.handleBookings)

	mux.HandleFunc("GET /api/vendors", rt.handleVendorList)
	mux.HandleFunc("GET /api/vendors/{vendorID}", rt.handleVendorProfile)
	mux.HandleFunc("PUT /api/vendors/{vendorID}", rt.handleUpdateVendorProfile)
	mux.HandleFunc("GET /api/vendors/{vendorID}/ratings", rt.handleRatingStats)
	mux.HandleFunc("GET /api/vendors/{vendorID}/ratings/{userID}", rt.handleUserRating)
	mux.HandleFunc("POST /api/ratings", rt.handleSubmitRating)

	mux.HandleFunc("POST /api/bookings", rt.handleCreateBooking)
	mux.HandleFunc("PATCH /api/bookings/{bookingID}", rt.handleBookingStatus)

	mux.HandleFunc("GET /api/settings", rt.handleSettings)
	mux.HandleFunc("POST /api/settings/refresh", rt.handleSettingsRefresh)

	return mux
}

func (rt *router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *router) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.coordinator.Stats(r.Context()))
}

func (rt *router) handleSweep(w http.ResponseWriter, r *http.Request) {
	report := rt.coordinator.Sweep(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"scanned": report.Scanned,
		"evicted": report.Evicted,
	})
}

func (rt *router) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	session, err := rt.svcs.Session.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *router) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	session, err := rt.svcs.Session.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *router) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := rt.svcs.Session.SignOut(r.Context(), r.PathValue("userID")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) handleReset(w http.ResponseWriter, r *http.Request) {
	rt.svcs.Session.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := rt.svcs.Session.Profile(r.Context(), r.PathValue("userID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *router) handleUpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	var profile backend.UserProfile
	if !decodeJSON(w, r, &profile) {
		return
	}
	profile.ID = r.PathValue("userID")
	if err := rt.svcs.Session.UpdateProfile(r.Context(), profile); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) handleAvatarURL(w http.ResponseWriter, r *http.Request) {
	url, err := rt.svcs.Media.AvatarURL(r.Context(), r.PathValue("userID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (rt *router) handleUnread(w http.ResponseWriter, r *http.Request) {
	count, err := rt.svcs.Messages.Unread(r.Context(), r.PathValue("userID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (rt *router) handleBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := rt.svcs.Bookings.Requests(r.Context(), r.PathValue("userID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (rt *router) handleVendorList(w http.ResponseWriter, r *http.Request) {
	vendors, err := rt.svcs.Vendors.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (rt *router) handleVendorProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := rt.svcs.Vendors.Profile(r.Context(), r.PathValue("vendorID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *router) handleUpdateVendorProfile(w http.ResponseWriter, r *http.Request) {
	var profile backend.VendorProfile
	if !decodeJSON(w, r, &profile) {
		return
	}
	profile.ID = r.PathValue("vendorID")
	if err := rt.svcs.Vendors.UpdateProfile(r.Context(), profile); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) handleRatingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svcs.Ratings.Stats(r.Context(), r.PathValue("vendorID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *router) handleUserRating(w http.ResponseWriter, r *http.Request) {
	rating, err := rt.svcs.Ratings.UserRating(r.Context(), r.PathValue("userID"), r.PathValue("vendorID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

func (rt *router) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var rating backend.Rating
	if !decodeJSON(w, r, &rating) {
		return
	}
	if err := rt.svcs.Ratings.Submit(r.Context(), rating); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var booking backend.BookingRequest
	if !decodeJSON(w, r, &booking) {
		return
	}
	created, err := rt.svcs.Bookings.Create(r.Context(), booking)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rt *router) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := rt.svcs.Bookings.SetStatus(r.Context(), body.UserID, r.PathValue("bookingID"), body.Status); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := rt.svcs.Settings.Settings(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (rt *router) handleSettingsRefresh(w http.ResponseWriter, r *http.Request) {
	settings, err := rt.svcs.Settings.Refresh(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (rt *router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, backend.ErrNotFound) {
		status = http.StatusNotFound
	}
	rt.logger.Warn("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}
