package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/taxicoop/coopadmin/pkg/fleet"
)

// Handler exposes the drivers and vehicles CRUD endpoints.
type Handler struct {
	service *fleet.FleetService
}

// NewHandler creates a new fleet API handler.
func NewHandler(service *fleet.FleetService) *Handler {
	return &Handler{service: service}
}

// DriverRoutes returns the drivers router.
func (h *Handler) DriverRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDrivers)
	r.Post("/", h.CreateDriver)
	r.Get("/{id}", h.GetDriver)
	r.Put("/{id}", h.UpdateDriver)
	r.Delete("/{id}", h.DeleteDriver)
	r.Get("/{id}/vehicles", h.ListDriverVehicles)
	return r
}

// VehicleRoutes returns the vehicles router.
func (h *Handler) VehicleRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListVehicles)
	r.Post("/", h.CreateVehicle)
	r.Get("/{id}", h.GetVehicle)
	r.Put("/{id}", h.UpdateVehicle)
	r.Delete("/{id}", h.DeleteVehicle)
	return r
}

// ListDrivers handles GET /drivers.
func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.service.FindDrivers(r.Context())
	if err != nil {
		renderFleetError(w, r, err)
		return
	}

	now := time.Now().UTC()
	responses := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		responses = append(responses, driverResponse(d, now))
	}
	render.JSON(w, r, responses)
}

// CreateDriver handles POST /drivers.
func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	driver, ok := decodeDriverRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateDriver(r.Context(), driver)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, driverResponse(created, time.Now().UTC()))
}

// GetDriver handles GET /drivers/{id}.
func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	driver, err := h.service.GetDriver(r.Context(), id)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.JSON(w, r, driverResponse(driver, time.Now().UTC()))
}

// UpdateDriver handles PUT /drivers/{id}.
func (h *Handler) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	driver, ok := decodeDriverRequest(w, r)
	if !ok {
		return
	}
	driver.ID = id

	updated, err := h.service.UpdateDriver(r.Context(), driver)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.JSON(w, r, driverResponse(updated, time.Now().UTC()))
}

// DeleteDriver handles DELETE /drivers/{id}.
func (h *Handler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDriver(r.Context(), id); err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// ListDriverVehicles handles GET /drivers/{id}/vehicles.
func (h *Handler) ListDriverVehicles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	vehicles, err := h.service.DriverVehicles(r.Context(), id)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []fleet.Vehicle{}
	}
	render.JSON(w, r, vehicles)
}

// ListVehicles handles GET /vehicles.
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.FindVehicles(r.Context())
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	if vehicles == nil {
		vehicles = []fleet.Vehicle{}
	}
	render.JSON(w, r, vehicles)
}

// CreateVehicle handles POST /vehicles.
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := decodeVehicleRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateVehicle(r.Context(), vehicle)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

// GetVehicle handles GET /vehicles/{id}.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	vehicle, err := h.service.GetVehicle(r.Context(), id)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.JSON(w, r, vehicle)
}

// UpdateVehicle handles PUT /vehicles/{id}.
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	vehicle, ok := decodeVehicleRequest(w, r)
	if !ok {
		return
	}
	vehicle.ID = id

	updated, err := h.service.UpdateVehicle(r.Context(), vehicle)
	if err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.JSON(w, r, updated)
}

// DeleteVehicle handles DELETE /vehicles/{id}.
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteVehicle(r.Context(), id); err != nil {
		renderFleetError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeDriverRequest(w http.ResponseWriter, r *http.Request) (fleet.Driver, bool) {
	var req DriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return fleet.Driver{}, false
	}

	var driver fleet.Driver
	if err := copier.Copy(&driver, &req); err != nil {
		slog.Error("Failed to map driver request", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return fleet.Driver{}, false
	}
	if req.DateOfBirth != "" {
		birth, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "Birth date must be YYYY-MM-DD"})
			return fleet.Driver{}, false
		}
		driver.BirthDate = &birth
	}
	if req.PermitPaidDate != "" {
		paid, err := time.Parse("2006-01-02", req.PermitPaidDate)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "Permit payment date must be YYYY-MM-DD"})
			return fleet.Driver{}, false
		}
		driver.PermitPaidOn = &paid
	}
	return driver, true
}

func decodeVehicleRequest(w http.ResponseWriter, r *http.Request) (fleet.Vehicle, bool) {
	var req VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return fleet.Vehicle{}, false
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Driver ID is required"})
		return fleet.Vehicle{}, false
	}

	var vehicle fleet.Vehicle
	if err := copier.Copy(&vehicle, &req); err != nil {
		slog.Error("Failed to map vehicle request", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return fleet.Vehicle{}, false
	}
	vehicle.DriverID = driverID
	return vehicle, true
}

func driverResponse(driver fleet.Driver, now time.Time) DriverResponse {
	return DriverResponse{
		Driver:      driver,
		Age:         driver.Age(now),
		PermitValid: driver.PermitValid(now),
	}
}

func renderFleetError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	message := err.Error()

	switch {
	case errors.Is(err, fleet.ErrDriverNotFound), errors.Is(err, fleet.ErrVehicleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fleet.ErrNationalIDTaken), errors.Is(err, fleet.ErrPlateTaken):
		status = http.StatusConflict
	case errors.Is(err, fleet.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		slog.Error("Fleet request failed", "err", err)
		status = http.StatusInternalServerError
		message = "An error occurred while processing the request"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
