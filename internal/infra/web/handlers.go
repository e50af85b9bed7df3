package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/usecase"

	"github.com/go-chi/chi/v5"
)

// statsHandler returns an http.HandlerFunc that serves marketplace statistics.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, storesByStatus, activeOffers, err := statsUC.Totals(ctx)
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}

		bookings, err := statsUC.Bookings(ctx)
		if err != nil {
			http.Error(w, "Failed to get booking counts", http.StatusInternalServerError)
			return
		}

		response := struct {
			TotalUsers       int                         `json:"total_users"`
			StoresByStatus   map[model.StoreStatus]int   `json:"stores_by_status"`
			ActiveOffers     int                         `json:"active_offers"`
			BookingsByStatus map[model.BookingStatus]int `json:"bookings_by_status"`
		}{
			TotalUsers:       users,
			StoresByStatus:   storesByStatus,
			ActiveOffers:     activeOffers,
			BookingsByStatus: bookings,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// usersListHandler returns a paginated list of users.
// It accepts 'offset' and 'limit' query parameters.
func usersListHandler(userUC usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50 // default page size
		}
		if offset < 0 {
			offset = 0
		}

		users, err := userUC.List(ctx, limit, offset)
		if err != nil {
			http.Error(w, "Failed to list users", http.StatusInternalServerError)
			return
		}

		total, err := userUC.Count(ctx)
		if err != nil {
			http.Error(w, "Failed to count users", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data   []*model.User `json:"data"`
			Total  int           `json:"total"`
			Limit  int           `json:"limit"`
			Offset int           `json:"offset"`
		}{
			Data:   users,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func userGetHandler(userUC usecase.UserUseCase, bookingUC usecase.BookingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "User ID is required", http.StatusBadRequest)
			return
		}

		user, err := userUC.GetByID(ctx, id)
		if err != nil {
			http.Error(w, "Failed to get user", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.NotFound(w, r)
			return
		}

		bookings, err := bookingUC.ByUser(ctx, user.ID)
		if err != nil {
			http.Error(w, "Failed to get user bookings", http.StatusInternalServerError)
			return
		}

		response := struct {
			User     *model.User      `json:"user"`
			Bookings []*model.Booking `json:"bookings"`
		}{
			User:     user,
			Bookings: bookings,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// storesPendingHandler lists stores awaiting moderation.
func storesPendingHandler(storeUC usecase.StoreUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stores, err := storeUC.ListPending(ctx)
		if err != nil {
			http.Error(w, "Failed to list pending stores", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.Store `json:"data"`
		}{
			Data: stores,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func storeOffersHandler(offerUC usecase.OfferUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "Store ID is required", http.StatusBadRequest)
			return
		}

		offers, err := offerUC.ByStore(ctx, id)
		if err != nil {
			http.Error(w, "Failed to list store offers", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.Offer `json:"data"`
		}{
			Data: offers,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func storeApproveHandler(storeUC usecase.StoreUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		store, err := storeUC.Approve(ctx, chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to approve store", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(store)
	}
}

type storeRejectRequest struct {
	Reason string `json:"reason"`
}

func storeRejectHandler(storeUC usecase.StoreUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req storeRejectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Reason == "" {
			http.Error(w, "Rejection reason is required", http.StatusBadRequest)
			return
		}

		store, err := storeUC.Reject(ctx, chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to reject store", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(store)
	}
}
